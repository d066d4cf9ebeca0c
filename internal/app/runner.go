package app

import (
	"context"
	"time"

	"weibo-harvest/internal/checksum"
	"weibo-harvest/internal/config"
	"weibo-harvest/internal/observability"
	"weibo-harvest/internal/scraper"
	"weibo-harvest/internal/storage"
	herrors "weibo-harvest/pkg/errors"
)

// RepositoryOpener opens the store once per run.
type RepositoryOpener func(ctx context.Context) (storage.Repository, error)

// Runner processes every configured seed and commits the results.
type Runner struct {
	cfg          *config.Config
	logger       *observability.Logger
	orchestrator *Orchestrator
	openRepo     RepositoryOpener
	checksum     *checksum.Generator
	now          func() time.Time
}

func NewRunner(cfg *config.Config, logger *observability.Logger, o *Orchestrator, openRepo RepositoryOpener) *Runner {
	return &Runner{
		cfg:          cfg,
		logger:       logger,
		orchestrator: o,
		openRepo:     openRepo,
		checksum:     checksum.NewGenerator(),
		now:          time.Now,
	}
}

type Summary struct {
	Seeds    []*SeedStats
	Inserted int
	Skipped  int
}

// Run opens the repository once and closes it on every path. Per-seed
// navigation failures and per-link failures are logged; persistence errors
// abort the run. A run in which no seed session could be opened fails.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	repo, err := r.openRepo(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			r.logger.Error("Failed to close repository", "error", err)
		}
	}()

	summary := &Summary{}
	processed := scraper.NewLinkSet()
	opened := 0

	for _, seed := range r.cfg.Seeds {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		posts, stats, err := r.orchestrator.Run(ctx, seed, processed, repo)
		summary.Seeds = append(summary.Seeds, stats)
		if stats.Opened {
			opened++
		}
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			if !herrors.IsRecoverable(err) {
				return summary, err
			}
			r.logger.Error("Seed failed, continuing with next seed",
				"seed", seed,
				"error", err,
			)
			continue
		}

		if err := r.commit(ctx, repo, posts, summary); err != nil {
			return summary, err
		}
	}

	if opened == 0 {
		return summary, herrors.NewNavigation("seeds", "no seed session could be opened", nil)
	}

	r.logger.Info("Run completed",
		"seeds", len(r.cfg.Seeds),
		"seeds_opened", opened,
		"inserted", summary.Inserted,
		"already_present", summary.Skipped,
	)

	return summary, nil
}

func (r *Runner) commit(ctx context.Context, repo storage.Repository, posts []*scraper.Post, summary *Summary) error {
	for _, post := range posts {
		rec := storage.NewPostRecord(post, r.checksum.PostHash(post), r.now().UTC())

		inserted, err := repo.UpsertPost(ctx, rec)
		if err != nil {
			return err
		}
		if inserted {
			summary.Inserted++
		} else {
			summary.Skipped++
		}

		r.logger.Debug("Post committed",
			"link", rec.Link,
			"inserted", inserted,
			"checksum", rec.CheckSum,
		)
	}
	return nil
}
