package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"weibo-harvest/internal/observability"
	"weibo-harvest/internal/storage"
	"weibo-harvest/internal/storage/sqlstore"
	herrors "weibo-harvest/pkg/errors"
)

// NewRepository opens a SQLite file (or ":memory:") over a single connection:
// SQLite serializes writers anyway and an in-memory database lives per connection.
func NewRepository(ctx context.Context, dsn string, commandTimeout time.Duration, logger *observability.Logger) (*sqlstore.Store, error) {
	db, err := sql.Open(Dialect{}.DriverName(), dsn)
	if err != nil {
		return nil, herrors.NewPersistence("weibo", "failed to open database", err)
	}
	db.SetMaxOpenConns(1)

	store, err := sqlstore.New(ctx, db, Dialect{}, commandTimeout, logger)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("Failed to close database after open error", "error", closeErr)
		}
		return nil, err
	}
	return store, nil
}

type Dialect struct{}

func (Dialect) DriverName() string { return "sqlite" }

func (Dialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS weibo (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			authorname     TEXT NOT NULL,
			href           TEXT NOT NULL UNIQUE,
			authorid       TEXT NOT NULL,
			content        TEXT NOT NULL,
			retweetcontent TEXT NOT NULL,
			retweetauthor  TEXT NOT NULL,
			"date"         TEXT NOT NULL,
			likenumber     TEXT NOT NULL,
			checksum       TEXT NOT NULL,
			captured_at    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_weibo_date ON weibo ("date")`,
		`CREATE TABLE IF NOT EXISTS weibo_hot (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			day         TEXT    NOT NULL,
			rank        INTEGER NOT NULL,
			title       TEXT    NOT NULL,
			href        TEXT    NOT NULL,
			captured_at TEXT    NOT NULL,
			UNIQUE (day, title)
		)`,
	}
}

func (Dialect) InsertIfAbsent() string {
	return `
		INSERT INTO weibo (authorname, href, authorid, content, retweetcontent, retweetauthor, "date", likenumber, checksum, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (href) DO NOTHING
	`
}

func (Dialect) ExistsByLink() string {
	return `SELECT COUNT(*) FROM weibo WHERE href = ?`
}

func (Dialect) ListRecent() string {
	return `
		SELECT authorname, href, authorid, content, retweetcontent, retweetauthor, "date", likenumber, checksum, captured_at
		FROM weibo
		ORDER BY "date" DESC, id DESC
		LIMIT ?
	`
}

func (Dialect) Count() string {
	return `SELECT COUNT(*) FROM weibo`
}

// Даты хранятся текстом в UTC
func (Dialect) InsertArgs(rec *storage.PostRecord) []any {
	return []any{
		rec.AuthorName,
		rec.Link,
		rec.AuthorID,
		rec.Content,
		rec.RetweetContent,
		rec.RetweetAuthor,
		formatTime(rec.Date),
		rec.LikeNumber,
		rec.CheckSum,
		formatTime(rec.CapturedAt),
	}
}

func (Dialect) InsertHotIfAbsent() string {
	return `
		INSERT INTO weibo_hot (day, rank, title, href, captured_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (day, title) DO NOTHING
	`
}

func (Dialect) CountHot() string {
	return `SELECT COUNT(*) FROM weibo_hot`
}

func (Dialect) HotArgs(rec *storage.HotRecord) []any {
	return []any{rec.Day, rec.Rank, rec.Title, rec.Href, formatTime(rec.CapturedAt)}
}

func (Dialect) LinkArgs(link string) []any { return []any{link} }

func (Dialect) LimitArgs(limit int) []any { return []any{limit} }

func formatTime(t time.Time) string {
	return t.UTC().Format(sqlstore.TimeLayout)
}
