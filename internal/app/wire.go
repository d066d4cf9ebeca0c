package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"weibo-harvest/internal/browser"
	"weibo-harvest/internal/config"
	"weibo-harvest/internal/extractor"
	"weibo-harvest/internal/fetcher"
	"weibo-harvest/internal/hot"
	"weibo-harvest/internal/normalize"
	"weibo-harvest/internal/observability"
	"weibo-harvest/internal/scraper"
	"weibo-harvest/internal/storage"
	"weibo-harvest/internal/storage/mssql"
	"weibo-harvest/internal/storage/postgres"
	"weibo-harvest/internal/storage/sqlite"
	herrors "weibo-harvest/pkg/errors"
)

// OpenRepository выбирает драйвер по storage.driver.
func OpenRepository(ctx context.Context, cfg *config.Config, logger *observability.Logger) (storage.Repository, error) {
	timeout := cfg.GetCommandTimeout()

	switch cfg.Storage.Driver {
	case "mssql":
		return mssql.NewRepository(ctx, cfg.Storage.DSN, timeout, logger)
	case "postgres":
		return postgres.NewRepository(ctx, cfg.Storage.DSN, timeout, logger)
	case "sqlite":
		if err := ensureSQLiteDir(cfg.Storage.DSN); err != nil {
			return nil, herrors.NewPersistence("weibo", "failed to create database directory", err)
		}
		return sqlite.NewRepository(ctx, cfg.Storage.DSN, timeout, logger)
	default:
		return nil, herrors.NewConfiguration(fmt.Sprintf("unknown storage driver %q", cfg.Storage.Driver), nil)
	}
}

func ensureSQLiteDir(dsn string) error {
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// LoadLayout returns the configured selectors or the built-in ones.
func LoadLayout(cfg *config.Config) (*scraper.Selectors, error) {
	if cfg.SelectorsFile == "" {
		return scraper.DefaultSelectors(), nil
	}
	selectors, err := scraper.LoadSelectors(cfg.SelectorsFile)
	if err != nil {
		return nil, herrors.NewConfiguration("failed to load selectors", err)
	}
	return selectors, nil
}

// NewDateParser honours date.source_timezone and date.legacy_offset.
func NewDateParser(cfg *config.Config) (*scraper.DateParser, error) {
	loc, err := cfg.SourceLocation()
	if err != nil {
		return nil, herrors.NewConfiguration("invalid source timezone", err)
	}
	dp := scraper.NewDateParser(loc)
	if cfg.Date.LegacyOffset {
		dp = dp.WithLegacyOffset(time.Local)
	}
	return dp, nil
}

// Build собирает весь пайплайн из конфигурации.
func Build(cfg *config.Config, logger *observability.Logger) (*Runner, error) {
	selectors, err := LoadLayout(cfg)
	if err != nil {
		return nil, err
	}
	layout := scraper.NewSelectorLayout(selectors)

	discoverer, err := scraper.NewDiscoverer(layout, cfg.BaseURL)
	if err != nil {
		return nil, herrors.NewConfiguration("invalid base_url", err)
	}

	dates, err := NewDateParser(cfg)
	if err != nil {
		return nil, err
	}

	pacer := browser.NewRandomPacer(
		cfg.Scroll.MinDistancePX,
		cfg.Scroll.MaxDistancePX,
		cfg.GetMinSettle(),
		cfg.GetMaxSettle(),
	)
	controller := browser.NewController(browser.OptionsFromConfig(cfg), pacer, logger)

	parser := scraper.NewDetailParser(layout, normalize.NewNormalizer(cfg), dates)
	details := extractor.NewExtractor(controller, parser, selectors.Article[0], cfg.GetDetailSettle(), logger)

	orchestrator := NewOrchestrator(cfg, logger, controller, discoverer, details)

	return NewRunner(cfg, logger, orchestrator, func(ctx context.Context) (storage.Repository, error) {
		return OpenRepository(ctx, cfg, logger)
	}), nil
}

// BuildHotService wires the hot-search capture over plain HTTP.
func BuildHotService(cfg *config.Config, logger *observability.Logger) (*hot.Service, error) {
	selectors, err := LoadLayout(cfg)
	if err != nil {
		return nil, err
	}
	parser, err := scraper.NewHotParser(selectors, cfg.Hot.BaseURL)
	if err != nil {
		return nil, herrors.NewConfiguration("invalid hot settings", err)
	}
	loc, err := cfg.SourceLocation()
	if err != nil {
		return nil, herrors.NewConfiguration("invalid source timezone", err)
	}
	return hot.NewService(cfg.Hot.URL, fetcher.NewFetcher(cfg, logger), parser, loc, logger), nil
}
