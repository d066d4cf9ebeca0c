package normalize

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"weibo-harvest/internal/config"
)

var (
	inlineSpaces = regexp.MustCompile(`[ \t\f\v\r]+`)
	blankLines   = regexp.MustCompile(`\n{3,}`)

	// "1.2万", "3亿", "999+", "12,345"
	likeCountPattern = regexp.MustCompile(`^\d[\d,]*(\.\d+)?\s*(万|亿|w|W|k|K)?\+?$`)
	likeLabels       = []string{"赞", "点赞", "Like"}
)

type Normalizer struct {
	cfg *config.Config
}

func NewNormalizer(cfg *config.Config) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// Text извлекает текст элемента, сохраняя переводы строк
func (n *Normalizer) Text(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}

	clone := sel.Clone()

	// Удаляем кнопки "展开" и прочий мусор
	for _, selector := range n.cfg.Normalize.StripSelectors {
		clone.Find(selector).Remove()
	}
	clone.Find("script, style").Remove()
	clone.Find("br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithNodes(newline())
	})
	clone.Find("p, div").Each(func(_ int, block *goquery.Selection) {
		block.AppendNodes(newline())
	})

	return n.cleanText(clone.Text())
}

func newline() *html.Node {
	return &html.Node{Type: html.TextNode, Data: "\n"}
}

func (n *Normalizer) cleanText(text string) string {
	if n.cfg.Normalize.TrimNBSP {
		// Заменяем NBSP (\u00a0) на обычный пробел
		text = strings.ReplaceAll(text, "\u00a0", " ")
	}
	text = strings.ReplaceAll(text, "\u200b", "")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if n.cfg.Normalize.CollapseSpaces {
			line = inlineSpaces.ReplaceAllString(line, " ")
		}
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// LikeCount returns the like counter as displayed. A bare label or an empty
// node means the post has no likes yet and yields "0".
func LikeCount(raw string) (string, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "\u00a0", " "))
	if s == "" {
		return "0", nil
	}
	for _, label := range likeLabels {
		if s == label {
			return "0", nil
		}
	}
	if !likeCountPattern.MatchString(s) {
		return "", fmt.Errorf("unexpected like count %q", raw)
	}
	return s, nil
}

// NormalizeURL resolves a permalink against base and drops query and fragment
// so the same post always maps to the same key. Returns "" for unusable input.
func NormalizeURL(raw string, base *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "javascript:") || raw == "#" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Host == "" {
		return ""
	}
	if u.Scheme == "" || u.Scheme == "http" {
		u.Scheme = "https"
	}

	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	if u.Path == "" {
		return ""
	}

	return u.String()
}
