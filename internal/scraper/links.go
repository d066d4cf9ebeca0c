package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"weibo-harvest/internal/normalize"
)

// Discoverer extracts post permalinks from feed snapshots. It holds no state
// between calls.
type Discoverer struct {
	layout Layout
	base   *url.URL
}

func NewDiscoverer(layout Layout, baseURL string) (*Discoverer, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &Discoverer{layout: layout, base: base}, nil
}

// ExtractLinks парсит снимок ленты и возвращает ссылки на посты
func (d *Discoverer) ExtractLinks(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	seen := make(map[string]struct{})
	var links []string

	d.layout.Containers(doc).Each(func(i int, sel *goquery.Selection) {
		link := normalize.NormalizeURL(d.layout.Value(sel, FieldLink), d.base)
		if link == "" {
			return // Пропуск если нет ссылки
		}
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})

	return links, nil
}
