package storage

import (
	"context"
	"time"

	"weibo-harvest/internal/scraper"
)

// PostRecord is a harvested post as persisted in the weibo table.
type PostRecord struct {
	scraper.Post
	CheckSum   string // SHA256 содержимого (64 символа)
	CapturedAt time.Time
}

func NewPostRecord(p *scraper.Post, checkSum string, capturedAt time.Time) *PostRecord {
	return &PostRecord{
		Post:       *p,
		CheckSum:   checkSum,
		CapturedAt: capturedAt,
	}
}

// HotRecord is one hot-search entry, unique per (Day, Title).
type HotRecord struct {
	scraper.HotItem
	Day        string // YYYY-MM-DD в часовом поясе источника
	Rank       int
	CapturedAt time.Time
}

// Repository интерфейс для работы с хранилищем постов
type Repository interface {
	// UpsertPost inserts the post unless its link is already stored.
	// Existing rows are never updated.
	UpsertPost(ctx context.Context, rec *PostRecord) (inserted bool, err error)

	// ExistsByLink проверяет наличие поста по ссылке
	ExistsByLink(ctx context.Context, link string) (bool, error)

	// ListRecent returns up to limit posts, newest date first.
	ListRecent(ctx context.Context, limit int) ([]*PostRecord, error)

	Count(ctx context.Context) (int, error)

	// UpsertHotItem inserts a hot-search entry unless the same title was
	// already stored for that day.
	UpsertHotItem(ctx context.Context, rec *HotRecord) (inserted bool, err error)

	CountHot(ctx context.Context) (int, error)

	Close() error
}
