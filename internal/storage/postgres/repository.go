package postgres

import (
	"context"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"weibo-harvest/internal/observability"
	"weibo-harvest/internal/storage"
	"weibo-harvest/internal/storage/sqlstore"
)

// NewRepository opens PostgreSQL through the pgx database/sql driver.
func NewRepository(ctx context.Context, dsn string, commandTimeout time.Duration, logger *observability.Logger) (*sqlstore.Store, error) {
	return sqlstore.Open(ctx, Dialect{}, dsn, commandTimeout, logger)
}

type Dialect struct{}

func (Dialect) DriverName() string { return "pgx" }

func (Dialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS weibo (
			id             BIGSERIAL PRIMARY KEY,
			authorname     TEXT        NOT NULL,
			href           TEXT        NOT NULL UNIQUE,
			authorid       TEXT        NOT NULL,
			content        TEXT        NOT NULL,
			retweetcontent TEXT        NOT NULL,
			retweetauthor  TEXT        NOT NULL,
			"date"         TIMESTAMPTZ NOT NULL,
			likenumber     TEXT        NOT NULL,
			checksum       CHAR(64)    NOT NULL,
			captured_at    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_weibo_date ON weibo ("date" DESC)`,
		`CREATE TABLE IF NOT EXISTS weibo_hot (
			id          BIGSERIAL PRIMARY KEY,
			day         CHAR(10)    NOT NULL,
			rank        INTEGER     NOT NULL,
			title       TEXT        NOT NULL,
			href        TEXT        NOT NULL,
			captured_at TIMESTAMPTZ NOT NULL,
			UNIQUE (day, title)
		)`,
	}
}

func (Dialect) InsertIfAbsent() string {
	return `
		INSERT INTO weibo (authorname, href, authorid, content, retweetcontent, retweetauthor, "date", likenumber, checksum, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (href) DO NOTHING
	`
}

func (Dialect) ExistsByLink() string {
	return `SELECT COUNT(*) FROM weibo WHERE href = $1`
}

func (Dialect) ListRecent() string {
	return `
		SELECT authorname, href, authorid, content, retweetcontent, retweetauthor, "date", likenumber, checksum, captured_at
		FROM weibo
		ORDER BY "date" DESC, id DESC
		LIMIT $1
	`
}

func (Dialect) Count() string {
	return `SELECT COUNT(*) FROM weibo`
}

func (Dialect) InsertArgs(rec *storage.PostRecord) []any {
	return []any{
		rec.AuthorName,
		rec.Link,
		rec.AuthorID,
		rec.Content,
		rec.RetweetContent,
		rec.RetweetAuthor,
		rec.Date,
		rec.LikeNumber,
		rec.CheckSum,
		rec.CapturedAt,
	}
}

func (Dialect) InsertHotIfAbsent() string {
	return `
		INSERT INTO weibo_hot (day, rank, title, href, captured_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (day, title) DO NOTHING
	`
}

func (Dialect) CountHot() string {
	return `SELECT COUNT(*) FROM weibo_hot`
}

func (Dialect) HotArgs(rec *storage.HotRecord) []any {
	return []any{rec.Day, rec.Rank, rec.Title, rec.Href, rec.CapturedAt}
}

func (Dialect) LinkArgs(link string) []any { return []any{link} }

func (Dialect) LimitArgs(limit int) []any { return []any{limit} }
