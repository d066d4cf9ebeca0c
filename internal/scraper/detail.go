package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"weibo-harvest/internal/normalize"
	herrors "weibo-harvest/pkg/errors"
)

// TextExtractor turns a block element into plain text with line breaks kept.
type TextExtractor interface {
	Text(sel *goquery.Selection) string
}

// DetailParser maps a rendered detail page onto a Post.
type DetailParser struct {
	layout Layout
	text   TextExtractor
	dates  *DateParser
}

func NewDetailParser(layout Layout, text TextExtractor, dates *DateParser) *DetailParser {
	return &DetailParser{
		layout: layout,
		text:   text,
		dates:  dates,
	}
}

// Parse maps a detail page onto a Post. Any structural mismatch is an
// extraction error for this link only.
func (p *DetailParser) Parse(link, html string) (*Post, error) {
	if strings.TrimSpace(link) == "" {
		return nil, herrors.NewExtraction(link, "empty link", nil)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, herrors.NewExtraction(link, "failed to parse HTML", err)
	}

	article := p.layout.Article(doc)
	if article.Length() == 0 {
		return nil, herrors.NewExtraction(link, "article element not found", nil)
	}

	post := &Post{
		Link:       link,
		AuthorName: p.layout.Value(article, FieldAuthorName),
		AuthorID:   p.layout.Value(article, FieldAuthorID),
	}
	if post.AuthorName == "" {
		return nil, herrors.NewExtraction(link, "author name not found", nil)
	}

	// Retweet block first, then the body without it
	main := article.Clone()
	if block := p.layout.Find(main, FieldRetweetBlock); block.Length() > 0 {
		post.RetweetAuthor = strings.TrimPrefix(p.layout.Value(block, FieldRetweetAuthor), "@")
		post.RetweetContent = p.text.Text(p.layout.Find(block, FieldRetweetContent))
		block.Remove()
	}
	post.Content = p.text.Text(p.layout.Find(main, FieldContent))

	likes, err := normalize.LikeCount(p.layout.Value(article, FieldLikeCount))
	if err != nil {
		return nil, herrors.NewExtraction(link, "malformed like count", err)
	}
	post.LikeNumber = likes

	dateRaw := p.layout.Value(article, FieldDate)
	if dateRaw == "" {
		return nil, herrors.NewExtraction(link, "date not found", nil)
	}
	date, err := p.dates.Parse(dateRaw)
	if err != nil {
		return nil, herrors.NewExtraction(link, "malformed date", err)
	}
	post.Date = date

	return post, nil
}
