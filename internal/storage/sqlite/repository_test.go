package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weibo-harvest/internal/observability"
	"weibo-harvest/internal/scraper"
	"weibo-harvest/internal/storage"
	herrors "weibo-harvest/pkg/errors"
)

func newTestRepo(t *testing.T) storage.Repository {
	t.Helper()
	repo, err := NewRepository(context.Background(), ":memory:", 5*time.Second, observability.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func record(link string, date time.Time) *storage.PostRecord {
	return storage.NewPostRecord(&scraper.Post{
		Link:       link,
		AuthorName: "tombkeeper",
		AuthorID:   "1497035431",
		Content:    "第一行\n第二行",
		LikeNumber: "1.2万",
		Date:       date,
	}, "c0ffee", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
}

func TestUpsertPostIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	rec := record("https://weibo.com/1/A", time.Date(2022, 1, 27, 7, 57, 0, 0, time.UTC))

	inserted, err := repo.UpsertPost(ctx, rec)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Повторная вставка не меняет строку
	changed := *rec
	changed.LikeNumber = "9万"
	inserted, err = repo.UpsertPost(ctx, &changed)
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	recent, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "1.2万", recent[0].LikeNumber)
}

func TestExistsByLink(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	exists, err := repo.ExistsByLink(ctx, "https://weibo.com/1/A")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.UpsertPost(ctx, record("https://weibo.com/1/A", time.Now()))
	require.NoError(t, err)

	exists, err = repo.ExistsByLink(ctx, "https://weibo.com/1/A")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestListRecentOrderAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	loc := time.FixedZone("UTC+8", 8*60*60)
	older := record("https://weibo.com/1/old", time.Date(2022, 1, 27, 15, 57, 0, 0, loc))
	newer := record("https://weibo.com/1/new", time.Date(2022, 1, 28, 9, 5, 30, 0, loc))
	newer.RetweetContent = "原微博"
	newer.RetweetAuthor = "人民日报"

	for _, rec := range []*storage.PostRecord{older, newer} {
		_, err := repo.UpsertPost(ctx, rec)
		require.NoError(t, err)
	}

	recent, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	assert.Equal(t, newer.Link, recent[0].Link)
	assert.True(t, recent[0].Date.Equal(newer.Date))
	assert.Equal(t, "原微博", recent[0].RetweetContent)
	assert.Equal(t, "人民日报", recent[0].RetweetAuthor)
	assert.Equal(t, "第一行\n第二行", recent[0].Content)
	assert.True(t, recent[0].CapturedAt.Equal(newer.CapturedAt))
	assert.Equal(t, older.Link, recent[1].Link)

	limited, err := repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := repo.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpsertRejectsEmptyLink(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.UpsertPost(context.Background(), record("", time.Now()))
	require.Error(t, err)
	assert.True(t, herrors.IsType(err, herrors.ErrorTypePersistence))
}

func TestClosedStoreReturnsPersistenceError(t *testing.T) {
	repo, err := NewRepository(context.Background(), ":memory:", time.Second, observability.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	_, err = repo.UpsertPost(context.Background(), record("https://weibo.com/1/A", time.Now()))
	require.Error(t, err)
	assert.True(t, herrors.IsType(err, herrors.ErrorTypePersistence))
	assert.False(t, herrors.IsRecoverable(err))
}

func TestSchemaSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "weibo.db")

	repo, err := NewRepository(ctx, path, time.Second, observability.NewNopLogger())
	require.NoError(t, err)
	_, err = repo.UpsertPost(ctx, record("https://weibo.com/1/A", time.Now()))
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewRepository(ctx, path, time.Second, observability.NewNopLogger())
	require.NoError(t, err)
	defer func() { _ = repo.Close() }()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func hotRecord(day, title string) *storage.HotRecord {
	return &storage.HotRecord{
		HotItem:    scraper.HotItem{Title: title, Href: "https://s.weibo.com/weibo?q=%23" + title + "%23"},
		Day:        day,
		Rank:       1,
		CapturedAt: time.Date(2022, 1, 27, 7, 57, 0, 0, time.UTC),
	}
}

func TestUpsertHotItemUniquePerDay(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	inserted, err := repo.UpsertHotItem(ctx, hotRecord("2022-01-27", "这份不变的牵挂温暖人心"))
	require.NoError(t, err)
	assert.True(t, inserted)

	// Тот же заголовок в тот же день, из более позднего снимка
	later := hotRecord("2022-01-27", "这份不变的牵挂温暖人心")
	later.Rank = 5
	inserted, err = repo.UpsertHotItem(ctx, later)
	require.NoError(t, err)
	assert.False(t, inserted)

	inserted, err = repo.UpsertHotItem(ctx, hotRecord("2022-01-28", "这份不变的牵挂温暖人心"))
	require.NoError(t, err)
	assert.True(t, inserted)

	count, err := repo.CountHot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	posts, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, posts)
}

func TestUpsertHotItemRejectsIncompleteRecord(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.UpsertHotItem(context.Background(), hotRecord("", "标题"))
	assert.True(t, herrors.IsType(err, herrors.ErrorTypePersistence))

	_, err = repo.UpsertHotItem(context.Background(), hotRecord("2022-01-27", ""))
	assert.True(t, herrors.IsType(err, herrors.ErrorTypePersistence))
}
