package transport

import (
	"context"
	"time"
)

// Clock is the single timing primitive the dispatcher depends on, so retry
// pacing can be swapped out without touching the request path.
type Clock interface {
	// Sleep blocks the calling goroutine for d, or returns early with
	// ctx.Err() if ctx is cancelled first.
	Sleep(ctx context.Context, d time.Duration) error
}

// realClock sleeps on a real timer. It is the default Clock used outside
// tests.
type realClock struct{}

// RealClock is the default, production Clock.
var RealClock Clock = realClock{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoopClock returns immediately. Tests inject it to keep retry-budget
// assertions fast.
type NoopClock struct{}

func (NoopClock) Sleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}
