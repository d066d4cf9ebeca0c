package browser

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Pacer decides how far each scroll step moves and how long the page settles after it.
type Pacer interface {
	ScrollDistance() int
	SettleDelay() time.Duration
}

// RandomPacer draws both values uniformly from closed ranges.
type RandomPacer struct {
	mu          sync.Mutex
	rng         *rand.Rand
	minDistance int
	maxDistance int
	minSettle   time.Duration
	maxSettle   time.Duration
}

func NewRandomPacer(minDistance, maxDistance int, minSettle, maxSettle time.Duration) *RandomPacer {
	return NewSeededPacer(minDistance, maxDistance, minSettle, maxSettle, uint64(time.Now().UnixNano()))
}

// NewSeededPacer делает последовательность воспроизводимой
func NewSeededPacer(minDistance, maxDistance int, minSettle, maxSettle time.Duration, seed uint64) *RandomPacer {
	if maxDistance < minDistance {
		maxDistance = minDistance
	}
	if maxSettle < minSettle {
		maxSettle = minSettle
	}
	return &RandomPacer{
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		minDistance: minDistance,
		maxDistance: maxDistance,
		minSettle:   minSettle,
		maxSettle:   maxSettle,
	}
}

func (p *RandomPacer) ScrollDistance() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.minDistance + p.rng.IntN(p.maxDistance-p.minDistance+1)
}

func (p *RandomPacer) SettleDelay() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	span := int64(p.maxSettle - p.minSettle)
	return p.minSettle + time.Duration(p.rng.Int64N(span+1))
}

// FixedPacer always returns the same values.
type FixedPacer struct {
	Distance int
	Settle   time.Duration
}

func (p FixedPacer) ScrollDistance() int        { return p.Distance }
func (p FixedPacer) SettleDelay() time.Duration { return p.Settle }
