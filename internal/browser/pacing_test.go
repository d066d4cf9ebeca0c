package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRandomPacerBounds(t *testing.T) {
	p := NewRandomPacer(600, 1400, 100*time.Millisecond, 300*time.Millisecond)

	for i := 0; i < 1000; i++ {
		d := p.ScrollDistance()
		assert.GreaterOrEqual(t, d, 600)
		assert.LessOrEqual(t, d, 1400)

		s := p.SettleDelay()
		assert.GreaterOrEqual(t, s, 100*time.Millisecond)
		assert.LessOrEqual(t, s, 300*time.Millisecond)
	}
}

func TestSeededPacerIsDeterministic(t *testing.T) {
	a := NewSeededPacer(1, 1000, 0, time.Second, 42)
	b := NewSeededPacer(1, 1000, 0, time.Second, 42)

	for i := 0; i < 20; i++ {
		assert.Equal(t, a.ScrollDistance(), b.ScrollDistance())
		assert.Equal(t, a.SettleDelay(), b.SettleDelay())
	}
}

func TestRandomPacerDegenerateRange(t *testing.T) {
	p := NewSeededPacer(800, 100, time.Second, 0, 1)

	assert.Equal(t, 800, p.ScrollDistance())
	assert.Equal(t, time.Second, p.SettleDelay())
}

func TestFixedPacer(t *testing.T) {
	var p Pacer = FixedPacer{Distance: 500, Settle: 10 * time.Millisecond}

	assert.Equal(t, 500, p.ScrollDistance())
	assert.Equal(t, 10*time.Millisecond, p.SettleDelay())
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)

	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
	assert.NoError(t, Sleep(context.Background(), 0))
}
