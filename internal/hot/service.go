package hot

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"weibo-harvest/internal/fetcher"
	"weibo-harvest/internal/observability"
	"weibo-harvest/internal/scraper"
	"weibo-harvest/internal/storage"
	herrors "weibo-harvest/pkg/errors"
)

type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.FetchResponse, error)
}

type HotStore interface {
	UpsertHotItem(ctx context.Context, rec *storage.HotRecord) (bool, error)
}

// Result counts rows written by Store and Import.
type Result struct {
	Files    int
	Inserted int
	Skipped  int
}

// Service снимает список горячих тем.
type Service struct {
	url     string
	fetcher PageFetcher
	parser  *scraper.HotParser
	loc     *time.Location
	logger  *observability.Logger
	now     func() time.Time
}

func NewService(url string, f PageFetcher, parser *scraper.HotParser, loc *time.Location, logger *observability.Logger) *Service {
	return &Service{
		url:     url,
		fetcher: f,
		parser:  parser,
		loc:     loc,
		logger:  logger,
		now:     time.Now,
	}
}

// Capture fetches and parses the list. An empty list usually means the
// cookie expired and the visitor page was served instead.
func (s *Service) Capture(ctx context.Context) (*Snapshot, error) {
	resp, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, herrors.NewNavigation(s.url, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	items, err := s.parser.Parse(string(resp.Body))
	if err != nil {
		return nil, herrors.NewExtraction(s.url, "failed to parse hot list", err)
	}
	if len(items) == 0 {
		return nil, herrors.NewExtraction(s.url, "hot list is empty, check the cookie", nil)
	}

	snap := NewSnapshot(items, s.now(), s.loc)
	s.logger.Info("Hot list captured", "date", snap.Date, "items", len(items))
	return snap, nil
}

// Store writes snap to the store; titles already seen that day are skipped.
func (s *Service) Store(ctx context.Context, store HotStore, snap *Snapshot) (Result, error) {
	records, err := snap.Records(s.loc)
	if err != nil {
		return Result{}, herrors.NewExtraction(snap.Date, "invalid snapshot", err)
	}

	res := Result{Files: 1}
	for _, rec := range records {
		inserted, err := store.UpsertHotItem(ctx, rec)
		if err != nil {
			return res, err
		}
		if inserted {
			res.Inserted++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}

// Import stores every snapshot file under dir. Unreadable files are logged
// and skipped; a store failure stops the import.
func (s *Service) Import(ctx context.Context, store HotStore, dir string) (Result, error) {
	files, err := SnapshotFiles(dir)
	if err != nil {
		return Result{}, herrors.NewConfiguration("invalid snapshot directory", err)
	}

	var total Result
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		snap, err := ReadSnapshot(path)
		if err != nil {
			s.logger.Warn("Snapshot skipped", "file", path, "error", err)
			continue
		}

		res, err := s.Store(ctx, store, snap)
		total.Inserted += res.Inserted
		total.Skipped += res.Skipped
		if err != nil {
			return total, err
		}
		total.Files++

		s.logger.Info("Snapshot imported", "file", path, "inserted", res.Inserted, "skipped", res.Skipped)
	}
	return total, nil
}
