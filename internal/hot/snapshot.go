package hot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"weibo-harvest/internal/scraper"
	"weibo-harvest/internal/storage"
)

const (
	// DateLayout is the "date" field of a snapshot, minute precision.
	DateLayout = "2006-01-02 15:04"
	// FileLayout names snapshot files; it avoids ':' so names stay portable.
	FileLayout = "2006-01-02_15-04"

	jsonDir     = "origindata"
	markdownDir = "readable"
)

// Snapshot is one capture of the hot-search list.
type Snapshot struct {
	Date string            `json:"date"`
	Data []scraper.HotItem `json:"data"`
}

func NewSnapshot(items []scraper.HotItem, at time.Time, loc *time.Location) *Snapshot {
	return &Snapshot{Date: at.In(loc).Format(DateLayout), Data: items}
}

// Time parses Date as wall time in loc.
func (s *Snapshot) Time(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s.Date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid snapshot date %q: %w", s.Date, err)
	}
	return t, nil
}

// Markdown renders "# <date>" followed by a numbered list of links.
func (s *Snapshot) Markdown() string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(s.Date)
	for i, item := range s.Data {
		fmt.Fprintf(&b, "\n%d. [%s](%s)", i+1, escapeLinkText(item.Title), item.Href)
	}
	return b.String()
}

func escapeLinkText(s string) string {
	return strings.NewReplacer(`[`, `\[`, `]`, `\]`).Replace(s)
}

// JSON отступ в три пробела, HTML не экранируется.
func (s *Snapshot) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "   ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Records turns the snapshot into store rows. Rank is the 1-based list
// position and Day the calendar day of Date.
func (s *Snapshot) Records(loc *time.Location) ([]*storage.HotRecord, error) {
	at, err := s.Time(loc)
	if err != nil {
		return nil, err
	}
	day := at.Format("2006-01-02")

	records := make([]*storage.HotRecord, 0, len(s.Data))
	for i, item := range s.Data {
		records = append(records, &storage.HotRecord{
			HotItem:    item,
			Day:        day,
			Rank:       i + 1,
			CapturedAt: at,
		})
	}
	return records, nil
}

// WriteFiles writes <dir>/origindata/<stem>.json and <dir>/readable/<stem>.md.
func WriteFiles(dir string, snap *Snapshot) (jsonPath, mdPath string, err error) {
	at, err := snap.Time(time.UTC)
	if err != nil {
		return "", "", err
	}
	stem := at.Format(FileLayout)

	data, err := snap.JSON()
	if err != nil {
		return "", "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	jsonPath = filepath.Join(dir, jsonDir, stem+".json")
	mdPath = filepath.Join(dir, markdownDir, stem+".md")

	for _, f := range []struct {
		path string
		body []byte
	}{
		{jsonPath, data},
		{mdPath, []byte(snap.Markdown())},
	} {
		if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
			return "", "", fmt.Errorf("failed to create %s: %w", filepath.Dir(f.path), err)
		}
		if err := os.WriteFile(f.path, f.body, 0o644); err != nil {
			return "", "", fmt.Errorf("failed to write %s: %w", f.path, err)
		}
	}

	return jsonPath, mdPath, nil
}

func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if _, err := snap.Time(time.UTC); err != nil {
		return nil, err
	}
	return &snap, nil
}

// SnapshotFiles lists the JSON snapshots under dir, oldest first. Both the
// output root and its origindata directory are accepted.
func SnapshotFiles(dir string) ([]string, error) {
	if info, err := os.Stat(filepath.Join(dir, jsonDir)); err == nil && info.IsDir() {
		dir = filepath.Join(dir, jsonDir)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	return files, nil
}
