package mssql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"weibo-harvest/internal/observability"
	"weibo-harvest/internal/storage"
	"weibo-harvest/internal/storage/sqlstore"
)

// NewRepository открывает SQL Server и создаёт таблицу weibo при необходимости.
func NewRepository(ctx context.Context, dsn string, commandTimeout time.Duration, logger *observability.Logger) (*sqlstore.Store, error) {
	return sqlstore.Open(ctx, Dialect{}, dsn, commandTimeout, logger)
}

type Dialect struct{}

func (Dialect) DriverName() string { return "sqlserver" }

func (Dialect) Schema() []string {
	return []string{`
		IF OBJECT_ID(N'dbo.weibo', N'U') IS NULL
		CREATE TABLE dbo.weibo (
			[id]             BIGINT IDENTITY(1,1) NOT NULL PRIMARY KEY,
			[authorname]     NVARCHAR(255)  NOT NULL,
			[href]           NVARCHAR(450)  NOT NULL CONSTRAINT UQ_weibo_href UNIQUE,
			[authorid]       NVARCHAR(64)   NOT NULL,
			[content]        NVARCHAR(MAX)  NOT NULL,
			[retweetcontent] NVARCHAR(MAX)  NOT NULL,
			[retweetauthor]  NVARCHAR(255)  NOT NULL,
			[date]           DATETIMEOFFSET NOT NULL,
			[likenumber]     NVARCHAR(32)   NOT NULL,
			[checksum]       CHAR(64)       NOT NULL,
			[captured_at]    DATETIMEOFFSET NOT NULL
		)`,
		`
		IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = N'IX_weibo_date' AND object_id = OBJECT_ID(N'dbo.weibo'))
		CREATE INDEX IX_weibo_date ON dbo.weibo ([date] DESC)`,
		`
		IF OBJECT_ID(N'dbo.weibo_hot', N'U') IS NULL
		CREATE TABLE dbo.weibo_hot (
			[id]          BIGINT IDENTITY(1,1) NOT NULL PRIMARY KEY,
			[day]         CHAR(10)       NOT NULL,
			[rank]        INT            NOT NULL,
			[title]       NVARCHAR(255)  NOT NULL,
			[href]        NVARCHAR(1000) NOT NULL,
			[captured_at] DATETIMEOFFSET NOT NULL,
			CONSTRAINT UQ_weibo_hot_day_title UNIQUE ([day], [title])
		)`,
	}
}

// HOLDLOCK keeps the range locked between the match and the insert.
func (Dialect) InsertIfAbsent() string {
	return `
		MERGE INTO dbo.weibo WITH (HOLDLOCK) AS target
		USING (SELECT @Href AS href) AS source
		ON target.[href] = source.href
		WHEN NOT MATCHED THEN
			INSERT ([authorname], [href], [authorid], [content], [retweetcontent], [retweetauthor], [date], [likenumber], [checksum], [captured_at])
			VALUES (@AuthorName, @Href, @AuthorID, @Content, @RetweetContent, @RetweetAuthor, @Date, @LikeNumber, @CheckSum, @CapturedAt);
	`
}

func (Dialect) ExistsByLink() string {
	return `SELECT COUNT(*) FROM dbo.weibo WHERE [href] = @Href`
}

func (Dialect) ListRecent() string {
	return `
		SELECT TOP (@Limit) [authorname], [href], [authorid], [content], [retweetcontent], [retweetauthor], [date], [likenumber], [checksum], [captured_at]
		FROM dbo.weibo
		ORDER BY [date] DESC, [id] DESC
	`
}

func (Dialect) Count() string {
	return `SELECT COUNT(*) FROM dbo.weibo`
}

func (Dialect) InsertArgs(rec *storage.PostRecord) []any {
	return []any{
		sql.Named("AuthorName", rec.AuthorName),
		sql.Named("Href", rec.Link),
		sql.Named("AuthorID", rec.AuthorID),
		sql.Named("Content", rec.Content),
		sql.Named("RetweetContent", rec.RetweetContent),
		sql.Named("RetweetAuthor", rec.RetweetAuthor),
		sql.Named("Date", rec.Date),
		sql.Named("LikeNumber", rec.LikeNumber),
		sql.Named("CheckSum", rec.CheckSum),
		sql.Named("CapturedAt", rec.CapturedAt),
	}
}

func (Dialect) InsertHotIfAbsent() string {
	return `
		MERGE INTO dbo.weibo_hot WITH (HOLDLOCK) AS target
		USING (SELECT @Day AS [day], @Title AS title) AS source
		ON target.[day] = source.[day] AND target.[title] = source.title
		WHEN NOT MATCHED THEN
			INSERT ([day], [rank], [title], [href], [captured_at])
			VALUES (@Day, @Rank, @Title, @Href, @CapturedAt);
	`
}

func (Dialect) CountHot() string {
	return `SELECT COUNT(*) FROM dbo.weibo_hot`
}

func (Dialect) HotArgs(rec *storage.HotRecord) []any {
	return []any{
		sql.Named("Day", rec.Day),
		sql.Named("Rank", rec.Rank),
		sql.Named("Title", rec.Title),
		sql.Named("Href", rec.Href),
		sql.Named("CapturedAt", rec.CapturedAt),
	}
}

func (Dialect) LinkArgs(link string) []any {
	return []any{sql.Named("Href", link)}
}

func (Dialect) LimitArgs(limit int) []any {
	return []any{sql.Named("Limit", limit)}
}
