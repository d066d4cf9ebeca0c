package checksum

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"weibo-harvest/internal/scraper"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// PostHash генерирует SHA256 хеш содержимого поста.
// Формула: SHA256(link|authorId|content|retweetContent|date_rfc3339_utc)
// LikeNumber не входит: он меняется между визитами.
func (g *Generator) PostHash(p *scraper.Post) string {
	content := strings.Join([]string{
		p.Link,
		p.AuthorID,
		p.Content,
		p.RetweetContent,
		p.Date.UTC().Format(time.RFC3339),
	}, "|")

	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}

// Verify проверяет соответствие хеша
func (g *Generator) Verify(expectedHash string, p *scraper.Post) bool {
	return g.PostHash(p) == expectedHash
}
