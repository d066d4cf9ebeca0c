package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"weibo-harvest/internal/browser/browsertest"
	"weibo-harvest/internal/config"
	"weibo-harvest/internal/extractor"
	"weibo-harvest/internal/normalize"
	"weibo-harvest/internal/observability"
	"weibo-harvest/internal/scraper"
	"weibo-harvest/internal/storage"
	"weibo-harvest/internal/storage/sqlite"
)

const base = "https://weibo.com"

func feed(paths ...string) string {
	var items strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&items, `<div><article class="woo-panel-main"><header><div class="head-info_info_2AspQ"><a class="head-info_time_6sFQg" href="%s" title="2022-01-27 15:57">x</a></div></header></article></div>`, p)
	}
	return `<html><body><div id="scroller"><div class="vue-recycle-scroller__item-wrapper">` + items.String() + `</div></div></body></html>`
}

func detail(author, content string) string {
	return `<html><body><article class="woo-panel-main"><header>` +
		`<div class="head_nick_1yix2"><a usercard="100"><span>` + author + `</span></a></div>` +
		`<div class="head-info_info_2AspQ"><a class="head-info_time_6sFQg" href="/1/x" title="2022-01-27 15:57">x</a></div>` +
		`</header><div class="wbpro-feed-content"><div class="detail_wbtext_1">` + content + `</div></div>` +
		`<footer><span class="woo-like-count">7</span></footer></article></body></html>`
}

func testConfig(seeds ...string) *config.Config {
	cfg := config.Default()
	cfg.Seeds = seeds
	cfg.Scroll.Iterations = 3
	cfg.RateLimit.RPM = 600000
	cfg.RateLimit.Burst = 100
	return cfg
}

func newTestOrchestrator(t *testing.T, cfg *config.Config, opener *browsertest.Opener) *Orchestrator {
	t.Helper()

	layout := scraper.NewSelectorLayout(scraper.DefaultSelectors())
	discoverer, err := scraper.NewDiscoverer(layout, cfg.BaseURL)
	require.NoError(t, err)

	parser := scraper.NewDetailParser(layout, normalize.NewNormalizer(cfg), scraper.NewDateParser(time.FixedZone("UTC+8", 8*60*60)))
	details := extractor.NewExtractor(opener, parser, "article", 0, observability.NewNopLogger())

	return NewOrchestrator(cfg, observability.NewNopLogger(), opener, discoverer, details)
}

func sqliteOpener(t *testing.T) RepositoryOpener {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weibo.db")
	return func(ctx context.Context) (storage.Repository, error) {
		return sqlite.NewRepository(ctx, path, 5*time.Second, observability.NewNopLogger())
	}
}

func countRows(t *testing.T, open RepositoryOpener) int {
	t.Helper()
	repo, err := open(context.Background())
	require.NoError(t, err)
	defer func() { _ = repo.Close() }()

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	return n
}
