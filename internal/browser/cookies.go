package browser

import (
	"strings"

	"github.com/go-rod/rod/lib/proto"
)

type Cookie struct {
	Name   string
	Value  string
	Domain string
}

// ParseCookies splits a raw Cookie header such as "a=1; b=2".
// Pairs without "=" or with an empty name or value are skipped. The value keeps any
// further "=" characters.
func ParseCookies(raw, domain string) []Cookie {
	var cookies []Cookie
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		cookies = append(cookies, Cookie{
			Name:   name,
			Value:  value,
			Domain: domain,
		})
	}
	return cookies
}

func toParams(cookies []Cookie) []*proto.NetworkCookieParam {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   "/",
		})
	}
	return params
}
