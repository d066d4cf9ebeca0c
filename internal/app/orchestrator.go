package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"weibo-harvest/internal/browser"
	"weibo-harvest/internal/config"
	"weibo-harvest/internal/observability"
	"weibo-harvest/internal/scraper"
	herrors "weibo-harvest/pkg/errors"
)

// DetailFetcher turns one permalink into a post.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, link string) (*scraper.Post, error)
}

// LinkChecker reports whether a link is already persisted.
type LinkChecker interface {
	ExistsByLink(ctx context.Context, link string) (bool, error)
}

// Orchestrator превращает один seed в последовательность постов.
type Orchestrator struct {
	cfg        *config.Config
	logger     *observability.Logger
	opener     browser.Opener
	discoverer *scraper.Discoverer
	details    DetailFetcher
	limiter    *rate.Limiter
}

func NewOrchestrator(
	cfg *config.Config,
	logger *observability.Logger,
	opener browser.Opener,
	discoverer *scraper.Discoverer,
	details DetailFetcher,
) *Orchestrator {
	burst := cfg.RateLimit.Burst
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if cfg.RateLimit.RPM > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RateLimit.RPM))
	}
	return &Orchestrator{
		cfg:        cfg,
		logger:     logger,
		opener:     opener,
		discoverer: discoverer,
		details:    details,
		limiter:    rate.NewLimiter(limit, burst),
	}
}

type SeedStats struct {
	Seed            string
	Opened          bool
	Snapshots       int
	LinksDiscovered int
	LinksStored     int
	DetailsOK       int
	DetailsFailed   int
	StoppedReason   string
}

// Run performs both phases for a seed: discovery, then details.
// processed is shared across the seeds of one run; links in it are neither
// rediscovered nor fetched again. stored may be nil.
func (o *Orchestrator) Run(ctx context.Context, seed string, processed *scraper.LinkSet, stored LinkChecker) ([]*scraper.Post, *SeedStats, error) {
	stats := &SeedStats{Seed: seed}

	o.logger.Info("Starting discovery",
		"seed", seed,
		"scroll_iterations", o.cfg.Scroll.Iterations,
	)

	links := scraper.NewLinkSet()
	if err := o.Discover(ctx, seed, links, processed, stats); err != nil {
		o.logger.Error("Discovery failed",
			"seed", seed,
			"error", err,
		)
		return nil, stats, err
	}

	posts, err := o.FetchDetails(ctx, links.Links(), processed, stored, stats)

	o.logger.Info("Seed completed",
		"seed", seed,
		"snapshots", stats.Snapshots,
		"links", stats.LinksDiscovered,
		"already_stored", stats.LinksStored,
		"details_ok", stats.DetailsOK,
		"details_failed", stats.DetailsFailed,
		"reason", stats.StoppedReason,
	)

	return posts, stats, err
}

// Discover scrolls the seed page a bounded number of times and merges every
// snapshot's links into set. The session is closed on every path and set is
// frozen once scrolling ends.
func (o *Orchestrator) Discover(ctx context.Context, seed string, set, processed *scraper.LinkSet, stats *SeedStats) error {
	defer set.Freeze()

	session, err := o.opener.Open(ctx, seed)
	if err != nil {
		return err
	}
	stats.Opened = true
	defer func() {
		if err := session.Close(); err != nil {
			o.logger.Warn("Failed to close seed session", "seed", seed, "error", err)
		}
	}()

	html, err := session.HTML(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return herrors.NewNavigation(seed, "initial render failed", err)
	}
	o.mergeSnapshot(seed, 0, html, set, processed, stats)

	stats.StoppedReason = fmt.Sprintf("completed %d scroll iterations", o.cfg.Scroll.Iterations)
	for i := 1; i <= o.cfg.Scroll.Iterations; i++ {
		if err := session.ScrollStep(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Уже собранные ссылки сохраняются
			o.logger.Warn("Scroll failed, ending discovery early",
				"seed", seed,
				"iteration", i,
				"error", err,
			)
			stats.StoppedReason = fmt.Sprintf("scroll error at iteration %d", i)
			break
		}

		html, err := session.HTML(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.logger.Warn("Snapshot failed, ending discovery early",
				"seed", seed,
				"iteration", i,
				"error", err,
			)
			stats.StoppedReason = fmt.Sprintf("snapshot error at iteration %d", i)
			break
		}
		o.mergeSnapshot(seed, i, html, set, processed, stats)
	}

	stats.LinksDiscovered = set.Len()
	return nil
}

func (o *Orchestrator) mergeSnapshot(seed string, iteration int, html string, set, processed *scraper.LinkSet, stats *SeedStats) {
	stats.Snapshots++

	links, err := o.discoverer.ExtractLinks(html)
	if err != nil {
		o.logger.Warn("Failed to extract links from snapshot",
			"seed", seed,
			"iteration", iteration,
			"error", err,
		)
		return
	}

	added := set.Merge(links, processed)
	o.logger.Debug("Snapshot merged",
		"seed", seed,
		"iteration", iteration,
		"found", len(links),
		"added", added,
		"total", set.Len(),
	)
}

// FetchDetails fetches links one at a time. Navigation and extraction
// failures are logged and skipped; cancellation and store errors abort.
func (o *Orchestrator) FetchDetails(ctx context.Context, links []string, processed *scraper.LinkSet, stored LinkChecker, stats *SeedStats) ([]*scraper.Post, error) {
	var posts []*scraper.Post

	for i, link := range links {
		if err := ctx.Err(); err != nil {
			return posts, err
		}

		if o.cfg.Pipeline.SkipStoredLinks && stored != nil {
			exists, err := stored.ExistsByLink(ctx, link)
			if err != nil {
				return posts, err
			}
			if exists {
				processed.Add(link)
				stats.LinksStored++
				o.logger.Debug("Link already stored, skipping", "link", link)
				continue
			}
		}

		if err := o.limiter.Wait(ctx); err != nil {
			return posts, err
		}

		processed.Add(link)
		post, err := o.details.FetchDetail(ctx, link)
		if err != nil {
			if ctx.Err() != nil {
				return posts, ctx.Err()
			}
			if !herrors.IsRecoverable(err) {
				return posts, err
			}
			stats.DetailsFailed++
			o.logger.Warn("Detail fetch failed, skipping",
				"link", link,
				"position", i+1,
				"of", len(links),
				"error", err,
			)
			continue
		}
		if post == nil || post.Link == "" {
			stats.DetailsFailed++
			o.logger.Warn("Detail fetch returned no link, skipping", "link", link)
			continue
		}

		stats.DetailsOK++
		posts = append(posts, post)
	}

	return posts, nil
}
