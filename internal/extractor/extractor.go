package extractor

import (
	"context"
	"strings"
	"time"

	"weibo-harvest/internal/browser"
	"weibo-harvest/internal/observability"
	"weibo-harvest/internal/scraper"
	herrors "weibo-harvest/pkg/errors"
)

// Extractor fetches one post page per call in a fresh browser session.
type Extractor struct {
	opener  browser.Opener
	parser  *scraper.DetailParser
	article string
	settle  time.Duration
	logger  *observability.Logger
}

// NewExtractor waits for articleSelector before taking the DOM snapshot.
// articleSelector is usually the first article selector of the active layout.
func NewExtractor(
	opener browser.Opener,
	parser *scraper.DetailParser,
	articleSelector string,
	settle time.Duration,
	logger *observability.Logger,
) *Extractor {
	return &Extractor{
		opener:  opener,
		parser:  parser,
		article: articleSelector,
		settle:  settle,
		logger:  logger,
	}
}

// FetchDetail returns a navigation error when the page never settles and an
// extraction error when it renders without the expected post structure.
func (e *Extractor) FetchDetail(ctx context.Context, link string) (*scraper.Post, error) {
	if strings.TrimSpace(link) == "" {
		return nil, herrors.NewExtraction(link, "empty link", nil)
	}

	session, err := e.opener.Open(ctx, link)
	if err != nil {
		if herrors.IsType(err, herrors.ErrorTypeNavigation) {
			return nil, err
		}
		return nil, herrors.NewNavigation(link, "failed to open session", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			e.logger.Warn("Failed to close detail session",
				"link", link,
				"error", closeErr,
			)
		}
	}()

	// Содержимое догружается уже после network idle
	if err := browser.Sleep(ctx, e.settle); err != nil {
		return nil, err
	}

	if e.article != "" {
		if err := session.WaitElement(ctx, e.article); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, herrors.NewExtraction(link, "article did not render", err)
		}
	}

	html, err := session.HTML(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, herrors.NewNavigation(link, "failed to render detail page", err)
	}

	post, err := e.parser.Parse(link, html)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Detail extracted",
		"link", link,
		"author", post.AuthorName,
		"date", post.Date.Format(time.RFC3339),
		"has_retweet", strings.TrimSpace(post.RetweetContent) != "",
	)

	return post, nil
}
