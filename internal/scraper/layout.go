package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Field string

const (
	FieldLink           Field = "link"
	FieldAuthorName     Field = "author_name"
	FieldAuthorID       Field = "author_id"
	FieldContent        Field = "content"
	FieldRetweetBlock   Field = "retweet_block"
	FieldRetweetAuthor  Field = "retweet_author"
	FieldRetweetContent Field = "retweet_content"
	FieldLikeCount      Field = "like_count"
	FieldDate           Field = "date"
)

// Layout resolves named fields against one version of the source markup.
type Layout interface {
	// Containers returns every rendered post container of a feed snapshot.
	Containers(doc *goquery.Document) *goquery.Selection
	// Article returns the post element of a detail page, empty if absent.
	Article(doc *goquery.Document) *goquery.Selection
	// Find returns the first element matching field f inside scope.
	Find(scope *goquery.Selection, f Field) *goquery.Selection
	// Value returns the trimmed text or attribute of field f inside scope.
	Value(scope *goquery.Selection, f Field) string
}

// SelectorLayout is a Layout driven by a Selectors table.
type SelectorLayout struct {
	selectors *Selectors
}

func NewSelectorLayout(selectors *Selectors) *SelectorLayout {
	return &SelectorLayout{selectors: selectors}
}

func (l *SelectorLayout) Containers(doc *goquery.Document) *goquery.Selection {
	return doc.Find(l.selectors.FeedContainer)
}

func (l *SelectorLayout) Article(doc *goquery.Document) *goquery.Selection {
	for _, selector := range l.selectors.Article {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	return doc.Selection.Slice(0, 0)
}

func (l *SelectorLayout) Find(scope *goquery.Selection, f Field) *goquery.Selection {
	for _, raw := range l.locators(f) {
		loc := parseLocator(raw)
		sel := loc.resolve(scope)
		if sel.Length() > 0 {
			return sel
		}
	}
	return scope.Slice(0, 0)
}

func (l *SelectorLayout) Value(scope *goquery.Selection, f Field) string {
	return trySelectors(scope, l.locators(f))
}

func (l *SelectorLayout) locators(f Field) []string {
	s := l.selectors
	switch f {
	case FieldLink:
		return s.Link
	case FieldAuthorName:
		return s.AuthorName
	case FieldAuthorID:
		return s.AuthorID
	case FieldContent:
		return s.Content
	case FieldRetweetBlock:
		return s.RetweetBlock
	case FieldRetweetAuthor:
		return s.RetweetAuthor
	case FieldRetweetContent:
		return s.RetweetContent
	case FieldLikeCount:
		return s.LikeCount
	case FieldDate:
		return s.Date
	default:
		return nil
	}
}

// locator is a CSS selector with an optional "@attr" suffix.
// An empty selector addresses the scope element itself.
type locator struct {
	selector string
	attr     string
}

func parseLocator(raw string) locator {
	idx := strings.LastIndex(raw, "@")
	if idx < 0 {
		return locator{selector: strings.TrimSpace(raw)}
	}
	attr := raw[idx+1:]
	if attr == "" || strings.ContainsAny(attr, " []='\"") {
		return locator{selector: strings.TrimSpace(raw)}
	}
	return locator{selector: strings.TrimSpace(raw[:idx]), attr: attr}
}

func (l locator) resolve(scope *goquery.Selection) *goquery.Selection {
	if l.selector == "" {
		return scope.First()
	}
	return scope.Find(l.selector).First()
}

func (l locator) value(scope *goquery.Selection) string {
	sel := l.resolve(scope)
	if sel.Length() == 0 {
		return ""
	}
	if l.attr != "" {
		v, _ := sel.Attr(l.attr)
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(sel.Text())
}

func trySelectors(s *goquery.Selection, selectors []string) string {
	for _, raw := range selectors {
		if v := parseLocator(raw).value(s); v != "" {
			return v
		}
	}
	return ""
}
