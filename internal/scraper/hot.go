package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// HotParser reads the realtime hot-search list page.
type HotParser struct {
	selectors *Selectors
	base      *url.URL
}

func NewHotParser(selectors *Selectors, baseURL string) (*HotParser, error) {
	if selectors.HotItem == "" {
		return nil, fmt.Errorf("hot_item selector is not configured")
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid hot base URL %q", baseURL)
	}
	return &HotParser{selectors: selectors, base: base}, nil
}

// Parse returns the list entries in page order. Entries without a title or a
// usable link (ads use "javascript:") are skipped.
func (p *HotParser) Parse(page string) ([]HotItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var items []HotItem
	doc.Find(p.selectors.HotItem).Each(func(_ int, li *goquery.Selection) {
		title := p.title(li)
		href := p.resolve(trySelectors(li, p.selectors.HotLink))
		if title == "" || href == "" {
			return
		}
		items = append(items, HotItem{Title: title, Href: href})
	})

	return items, nil
}

func (p *HotParser) title(li *goquery.Selection) string {
	for _, raw := range p.selectors.HotTitle {
		loc := parseLocator(raw)
		if loc.attr != "" {
			if v := loc.value(li); v != "" {
				return v
			}
			continue
		}
		if v := leadingText(loc.resolve(li)); v != "" {
			return v
		}
	}
	return ""
}

// leadingText returns the first non-blank text node directly under sel, so
// badges nested after the title ("热", "新") are not glued onto it.
func leadingText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	for n := sel.Nodes[0].FirstChild; n != nil; n = n.NextSibling {
		if n.Type != html.TextNode {
			continue
		}
		if v := strings.TrimSpace(n.Data); v != "" {
			return v
		}
	}
	return strings.TrimSpace(sel.Text())
}

// resolve keeps the query string: for search links it is the whole target.
func (p *HotParser) resolve(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "#" || strings.HasPrefix(raw, "javascript:") {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u := p.base.ResolveReference(ref)
	u.Fragment = ""
	return u.String()
}
