// Package cards renders stored posts as HTML and Markdown card pages.
package cards

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"
	"time"

	"weibo-harvest/internal/storage"
)

//go:embed templates/*.html templates/*.tmpl
var templateFS embed.FS

//go:embed templates/styles.css
var styles string

const (
	DateLayout = "2006/01/02 15:04"
	DayLayout  = "2006/1/2"

	compactLength = 120
)

// Output file names written by WriteAll.
const (
	PageFile     = "weibo-cards.html"
	SingleFile   = "single-card.html"
	MarkdownFile = "weibo-cards.md"
	CompactFile  = "compact-cards.html"
)

// HasRetweet reports whether the record carries a retweet worth showing.
// Whitespace-only content counts as no retweet.
func HasRetweet(rec *storage.PostRecord) bool {
	return strings.TrimSpace(rec.RetweetContent) != ""
}

type Formatter struct {
	loc      *time.Location
	html     *htmltemplate.Template
	markdown *texttemplate.Template
}

// NewFormatter renders dates in loc, usually the source timezone.
func NewFormatter(loc *time.Location) (*Formatter, error) {
	f := &Formatter{loc: loc}

	html, err := htmltemplate.New("cards").Funcs(htmltemplate.FuncMap{
		"date":       f.date,
		"day":        f.day,
		"likes":      likes,
		"hasRetweet": HasRetweet,
		"truncate":   truncate,
		"lines": func(s string) htmltemplate.HTML {
			return htmltemplate.HTML(strings.ReplaceAll(htmltemplate.HTMLEscapeString(s), "\n", "<br>"))
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML templates: %w", err)
	}

	markdown, err := texttemplate.New("markdown").Funcs(texttemplate.FuncMap{
		"date":       f.date,
		"likes":      likes,
		"hasRetweet": HasRetweet,
		"quote":      quote,
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse Markdown template: %w", err)
	}

	f.html = html
	f.markdown = markdown
	return f, nil
}

type pageData struct {
	Title       string
	Styles      htmltemplate.CSS
	Records     []*storage.PostRecord
	GeneratedAt time.Time
}

// HTMLCard renders one card fragment.
func (f *Formatter) HTMLCard(rec *storage.PostRecord) (string, error) {
	return f.renderHTML("card", rec)
}

func (f *Formatter) HTMLPage(recs []*storage.PostRecord, title string) (string, error) {
	return f.renderHTML("page", pageData{Title: title, Styles: htmltemplate.CSS(styles), Records: recs})
}

// SingleCardPage wraps the first record in a standalone page. Empty input
// yields an empty string.
func (f *Formatter) SingleCardPage(recs []*storage.PostRecord) (string, error) {
	if len(recs) == 0 {
		return "", nil
	}
	return f.renderHTML("single", pageData{Styles: htmltemplate.CSS(styles), Records: recs[:1]})
}

func (f *Formatter) CompactPage(recs []*storage.PostRecord) (string, error) {
	return f.renderHTML("compactPage", pageData{Records: recs})
}

func (f *Formatter) Markdown(recs []*storage.PostRecord, title string, generatedAt time.Time) (string, error) {
	var buf bytes.Buffer
	data := pageData{Title: title, Records: recs, GeneratedAt: generatedAt}
	if err := f.markdown.ExecuteTemplate(&buf, "markdown", data); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

func (f *Formatter) renderHTML(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := f.html.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// WriteAll пишет все четыре артефакта в dir и возвращает пути записанных файлов.
func (f *Formatter) WriteAll(dir string, recs []*storage.PostRecord, title string, now time.Time) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	page, err := f.HTMLPage(recs, title)
	if err != nil {
		return nil, err
	}
	single, err := f.SingleCardPage(recs)
	if err != nil {
		return nil, err
	}
	markdown, err := f.Markdown(recs, title, now)
	if err != nil {
		return nil, err
	}
	compact, err := f.CompactPage(recs)
	if err != nil {
		return nil, err
	}

	outputs := []struct {
		name    string
		content string
	}{
		{PageFile, page},
		{SingleFile, single},
		{MarkdownFile, markdown},
		{CompactFile, compact},
	}

	var written []string
	for _, out := range outputs {
		if out.content == "" {
			continue
		}
		path := filepath.Join(dir, out.name)
		if err := os.WriteFile(path, []byte(out.content), 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", out.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func (f *Formatter) date(t time.Time) string {
	return t.In(f.loc).Format(DateLayout)
}

func (f *Formatter) day(t time.Time) string {
	return t.In(f.loc).Format(DayLayout)
}

func likes(s string) string {
	if strings.TrimSpace(s) == "" {
		return "0"
	}
	return s
}

// truncate режет по рунам, не по байтам
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func quote(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}
