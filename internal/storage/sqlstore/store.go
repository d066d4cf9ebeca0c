// Package sqlstore implements storage.Repository on database/sql. SQL text
// and argument binding come from a Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"weibo-harvest/internal/observability"
	"weibo-harvest/internal/storage"
	herrors "weibo-harvest/pkg/errors"
)

const (
	table    = "weibo"
	hotTable = "weibo_hot"
)

// Dialect supplies driver-specific SQL. InsertIfAbsent must be a single
// atomic statement that affects zero rows when href already exists.
type Dialect interface {
	DriverName() string
	Schema() []string
	InsertIfAbsent() string
	ExistsByLink() string
	ListRecent() string
	Count() string

	InsertArgs(rec *storage.PostRecord) []any
	LinkArgs(link string) []any
	LimitArgs(limit int) []any

	// Hot-search table, unique on (day, title).
	InsertHotIfAbsent() string
	CountHot() string
	HotArgs(rec *storage.HotRecord) []any
}

type Store struct {
	db             *sql.DB
	dialect        Dialect
	commandTimeout time.Duration
	logger         *observability.Logger
}

// Open подключается к БД, проверяет соединение и создаёт схему.
func Open(ctx context.Context, dialect Dialect, dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Store, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, herrors.NewPersistence(table, "failed to open database", err)
	}

	s, err := New(ctx, db, dialect, commandTimeout, logger)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("Failed to close database after open error", "error", closeErr)
		}
		return nil, err
	}
	return s, nil
}

// New wraps an already opened handle. The Store takes ownership of db.
func New(ctx context.Context, db *sql.DB, dialect Dialect, commandTimeout time.Duration, logger *observability.Logger) (*Store, error) {
	s := &Store{
		db:             db,
		dialect:        dialect,
		commandTimeout: commandTimeout,
		logger:         logger,
	}

	// Тестируем соединение
	pingCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, herrors.NewPersistence(table, "failed to ping database", err)
	}

	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema() {
		execCtx, cancel := context.WithTimeout(ctx, s.commandTimeout)
		_, err := s.db.ExecContext(execCtx, stmt)
		cancel()
		if err != nil {
			return herrors.NewPersistence(table, "failed to create schema", err)
		}
	}
	return nil
}

// UpsertPost вставляет пост одной атомарной командой; существующая ссылка пропускается.
func (s *Store) UpsertPost(ctx context.Context, rec *storage.PostRecord) (bool, error) {
	if rec == nil || rec.Link == "" {
		return false, herrors.NewPersistence(table, "record without link", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	stmt, err := s.db.PrepareContext(ctx, s.dialect.InsertIfAbsent())
	if err != nil {
		return false, herrors.NewPersistence(rec.Link, "failed to prepare statement", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			s.logger.Error("Failed to close statement", "error", err)
		}
	}()

	result, err := stmt.ExecContext(ctx, s.dialect.InsertArgs(rec)...)
	if err != nil {
		return false, herrors.NewPersistence(rec.Link, "failed to execute insert", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, herrors.NewPersistence(rec.Link, "failed to get rows affected", err)
	}

	return rowsAffected > 0, nil
}

// ExistsByLink проверяет наличие поста по ссылке
func (s *Store) ExistsByLink(ctx context.Context, link string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	var count int
	err := s.db.QueryRowContext(ctx, s.dialect.ExistsByLink(), s.dialect.LinkArgs(link)...).Scan(&count)
	if err != nil {
		return false, herrors.NewPersistence(link, "failed to query database", err)
	}
	return count > 0, nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]*storage.PostRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.dialect.ListRecent(), s.dialect.LimitArgs(limit)...)
	if err != nil {
		return nil, herrors.NewPersistence(table, "failed to query recent posts", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("Failed to close rows", "error", err)
		}
	}()

	var records []*storage.PostRecord
	for rows.Next() {
		var (
			rec        storage.PostRecord
			date       any
			capturedAt any
		)
		if err := rows.Scan(
			&rec.AuthorName,
			&rec.Link,
			&rec.AuthorID,
			&rec.Content,
			&rec.RetweetContent,
			&rec.RetweetAuthor,
			&date,
			&rec.LikeNumber,
			&rec.CheckSum,
			&capturedAt,
		); err != nil {
			return nil, herrors.NewPersistence(table, "failed to scan post", err)
		}
		if rec.Date, err = toTime(date); err != nil {
			return nil, herrors.NewPersistence(rec.Link, "invalid date column", err)
		}
		if rec.CapturedAt, err = toTime(capturedAt); err != nil {
			return nil, herrors.NewPersistence(rec.Link, "invalid captured_at column", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, herrors.NewPersistence(table, "failed to iterate posts", err)
	}

	return records, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	var count int
	if err := s.db.QueryRowContext(ctx, s.dialect.Count()).Scan(&count); err != nil {
		return 0, herrors.NewPersistence(table, "failed to count posts", err)
	}
	return count, nil
}

// UpsertHotItem вставляет запись горячего поиска, если (day, title) ещё нет.
func (s *Store) UpsertHotItem(ctx context.Context, rec *storage.HotRecord) (bool, error) {
	if rec == nil || rec.Title == "" || rec.Day == "" {
		return false, herrors.NewPersistence(hotTable, "hot record without day or title", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx, s.dialect.InsertHotIfAbsent(), s.dialect.HotArgs(rec)...)
	if err != nil {
		return false, herrors.NewPersistence(rec.Title, "failed to insert hot item", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, herrors.NewPersistence(rec.Title, "failed to get rows affected", err)
	}
	return rowsAffected > 0, nil
}

func (s *Store) CountHot(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	var count int
	if err := s.db.QueryRowContext(ctx, s.dialect.CountHot()).Scan(&count); err != nil {
		return 0, herrors.NewPersistence(hotTable, "failed to count hot items", err)
	}
	return count, nil
}

// Close закрывает соединение с БД
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// TimeLayout is the text form used by drivers without a native timestamp
// type. UTC with fixed width so that text order matches time order.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339Nano, t)
	case []byte:
		return time.Parse(time.RFC3339Nano, string(t))
	default:
		return time.Time{}, fmt.Errorf("unsupported time value %T", v)
	}
}

var _ storage.Repository = (*Store)(nil)
