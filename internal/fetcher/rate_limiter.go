package fetcher

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per host.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewRateLimiter(rpm, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(rpm) / 60),
		burst:    burst,
	}
}

func (rl *RateLimiter) Wait(ctx context.Context, host string) error {
	return rl.forHost(host).Wait(ctx)
}

func (rl *RateLimiter) forHost(host string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[host]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[host] = l
	}
	return l
}
