package fetcher

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

type RobotsCache struct {
	cache  map[string]*robotsEntry
	ttl    time.Duration
	scheme string
	mu     sync.RWMutex
}

type robotsEntry struct {
	data      *robotstxt.RobotsData
	expiresAt time.Time
}

func NewRobotsCache(ttl time.Duration) *RobotsCache {
	return &RobotsCache{
		cache:  make(map[string]*robotsEntry),
		ttl:    ttl,
		scheme: "https",
	}
}

// IsAllowed reports whether agent may fetch path on host. Any failure to
// obtain robots.txt counts as allowed.
func (rc *RobotsCache) IsAllowed(ctx context.Context, client *http.Client, host, path, agent string) bool {
	rc.mu.RLock()
	cached, ok := rc.cache[host]
	rc.mu.RUnlock()

	if ok && time.Now().Before(cached.expiresAt) {
		return cached.data.TestAgent(path, agent)
	}

	data := rc.fetch(ctx, client, host)
	if data == nil {
		return true
	}

	rc.mu.Lock()
	rc.cache[host] = &robotsEntry{data: data, expiresAt: time.Now().Add(rc.ttl)}
	rc.mu.Unlock()

	return data.TestAgent(path, agent)
}

func (rc *RobotsCache) fetch(ctx context.Context, client *http.Client, host string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rc.scheme+"://"+host+"/robots.txt", nil)
	if err != nil {
		return nil
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return data
}
