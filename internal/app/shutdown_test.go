package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"weibo-harvest/internal/observability"
)

func TestGracefulShutdownCancel(t *testing.T) {
	ctx, cancel := GracefulShutdown(context.Background(), observability.NewNopLogger(), 0)
	cancel()

	select {
	case <-ctx.Done():
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
}

func TestGracefulShutdownMaxRun(t *testing.T) {
	ctx, cancel := GracefulShutdown(context.Background(), observability.NewNopLogger(), 20*time.Millisecond)
	defer cancel()

	select {
	case <-ctx.Done():
		assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("deadline not applied")
	}
}

func TestGracefulShutdownFollowsParent(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := GracefulShutdown(parent, observability.NewNopLogger(), 0)
	defer cancel()

	cancelParent()

	select {
	case <-ctx.Done():
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("parent cancellation not propagated")
	}
}
