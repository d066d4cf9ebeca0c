package hot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weibo-harvest/internal/config"
	"weibo-harvest/internal/fetcher"
	"weibo-harvest/internal/observability"
	"weibo-harvest/internal/scraper"
	"weibo-harvest/internal/storage"
	"weibo-harvest/internal/storage/sqlite"
	herrors "weibo-harvest/pkg/errors"
)

const listPage = `<html><body><div><section><ul>
<li><a href="/weibo?q=%23A%23&amp;Refer=top"><strong>1</strong><span>这份不变的牵挂温暖人心<em>热</em></span></a></li>
<li><a href="/weibo?q=%23B%23"><strong>2</strong><span>第二条</span></a></li>
</ul></section></div></body></html>`

var shanghai = time.FixedZone("UTC+8", 8*60*60)

func newService(t *testing.T, page string, status int) (*Service, *atomic.Value) {
	t.Helper()
	cookie := &atomic.Value{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie.Store(r.Header.Get("Cookie"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Cookie = "SUB=abc"
	cfg.HTTP.MaxRetries = 0
	cfg.HTTP.RPM = 60000

	parser, err := scraper.NewHotParser(scraper.DefaultSelectors(), "https://s.weibo.com")
	require.NoError(t, err)

	svc := NewService(srv.URL+"/top/summary?cate=realtimehot", fetcher.NewFetcher(cfg, observability.NewNopLogger()), parser, shanghai, observability.NewNopLogger())
	svc.now = func() time.Time { return time.Date(2022, 1, 27, 7, 57, 30, 0, time.UTC) }
	return svc, &cookie
}

func newStore(t *testing.T) storage.Repository {
	t.Helper()
	repo, err := sqlite.NewRepository(context.Background(), ":memory:", 5*time.Second, observability.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestCapture(t *testing.T) {
	svc, cookie := newService(t, listPage, http.StatusOK)

	snap, err := svc.Capture(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "SUB=abc", cookie.Load())
	assert.Equal(t, "2022-01-27 15:57", snap.Date)
	require.Len(t, snap.Data, 2)
	assert.Equal(t, "这份不变的牵挂温暖人心", snap.Data[0].Title)
	assert.Equal(t, "https://s.weibo.com/weibo?q=%23A%23&Refer=top", snap.Data[0].Href)
}

func TestCaptureFailures(t *testing.T) {
	svc, _ := newService(t, listPage, http.StatusForbidden)
	_, err := svc.Capture(context.Background())
	assert.True(t, herrors.IsType(err, herrors.ErrorTypeNavigation))

	svc, _ = newService(t, `<html><body>Sina Visitor System</body></html>`, http.StatusOK)
	_, err = svc.Capture(context.Background())
	assert.True(t, herrors.IsType(err, herrors.ErrorTypeExtraction))
}

func TestMarkdown(t *testing.T) {
	snap := &Snapshot{Date: "2022-01-27 15:57", Data: []scraper.HotItem{
		{Title: "甲", Href: "https://s.weibo.com/weibo?q=1"},
		{Title: "[乙]", Href: "https://s.weibo.com/weibo?q=2"},
	}}

	want := "# 2022-01-27 15:57\n" +
		"1. [甲](https://s.weibo.com/weibo?q=1)\n" +
		`2. [\[乙\]](https://s.weibo.com/weibo?q=2)`
	assert.Equal(t, want, snap.Markdown())
}

func TestWriteFilesAndReadBack(t *testing.T) {
	dir := t.TempDir()
	snap := &Snapshot{Date: "2022-01-27 15:57", Data: []scraper.HotItem{
		{Title: "甲", Href: "https://s.weibo.com/weibo?q=%23A%23&Refer=top"},
	}}

	jsonPath, mdPath, err := WriteFiles(dir, snap)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "origindata", "2022-01-27_15-57.json"), jsonPath)
	assert.Equal(t, filepath.Join(dir, "readable", "2022-01-27_15-57.md"), mdPath)

	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n   \"date\": \"2022-01-27 15:57\"")
	assert.Contains(t, string(raw), "&Refer=top")

	back, err := ReadSnapshot(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, snap, back)
}

func TestRecords(t *testing.T) {
	snap := &Snapshot{Date: "2022-01-27 15:57", Data: []scraper.HotItem{{Title: "甲"}, {Title: "乙"}}}

	recs, err := snap.Records(shanghai)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "2022-01-27", recs[1].Day)
	assert.Equal(t, 2, recs[1].Rank)
	assert.True(t, recs[0].CapturedAt.Equal(time.Date(2022, 1, 27, 7, 57, 0, 0, time.UTC)))

	_, err = (&Snapshot{Date: "27.01.2022"}).Records(shanghai)
	assert.Error(t, err)
}

func TestStoreSkipsTitlesSeenThatDay(t *testing.T) {
	svc, _ := newService(t, listPage, http.StatusOK)
	store := newStore(t)
	ctx := context.Background()

	morning := &Snapshot{Date: "2022-01-27 09:00", Data: []scraper.HotItem{
		{Title: "甲", Href: "https://s.weibo.com/weibo?q=1"},
		{Title: "乙", Href: "https://s.weibo.com/weibo?q=2"},
	}}
	evening := &Snapshot{Date: "2022-01-27 21:00", Data: []scraper.HotItem{
		{Title: "乙", Href: "https://s.weibo.com/weibo?q=2"},
		{Title: "丙", Href: "https://s.weibo.com/weibo?q=3"},
	}}
	nextDay := &Snapshot{Date: "2022-01-28 09:00", Data: []scraper.HotItem{
		{Title: "乙", Href: "https://s.weibo.com/weibo?q=2"},
	}}

	res, err := svc.Store(ctx, store, morning)
	require.NoError(t, err)
	assert.Equal(t, Result{Files: 1, Inserted: 2}, res)

	res, err = svc.Store(ctx, store, evening)
	require.NoError(t, err)
	assert.Equal(t, Result{Files: 1, Inserted: 1, Skipped: 1}, res)

	res, err = svc.Store(ctx, store, nextDay)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	n, err := store.CountHot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestImportSkipsMalformedFiles(t *testing.T) {
	svc, _ := newService(t, listPage, http.StatusOK)
	store := newStore(t)
	dir := t.TempDir()

	for _, snap := range []*Snapshot{
		{Date: "2022-01-27 09:00", Data: []scraper.HotItem{{Title: "甲", Href: "https://s.weibo.com/weibo?q=1"}}},
		{Date: "2022-01-27 10:00", Data: []scraper.HotItem{{Title: "甲", Href: "https://s.weibo.com/weibo?q=1"}}},
	} {
		_, _, err := WriteFiles(dir, snap)
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "origindata", "broken.json"), []byte("{"), 0o644))

	res, err := svc.Import(context.Background(), store, dir)
	require.NoError(t, err)
	assert.Equal(t, Result{Files: 2, Inserted: 1, Skipped: 1}, res)
}
