package utils

import (
	"context"
	"time"
)

// Throttle spaces successive requests to the catalog by a minimum interval.
// It is not safe for concurrent use; the pipeline drives one page at a time.
type Throttle struct {
	interval    time.Duration
	lastRequest time.Time
}

// NewThrottle creates a Throttle; an interval of zero disables waiting.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Wait blocks until interval has passed since the previous call returned.
func (t *Throttle) Wait(ctx context.Context) error {
	if !t.lastRequest.IsZero() {
		if elapsed := time.Since(t.lastRequest); elapsed < t.interval {
			if err := Sleep(ctx, t.interval-elapsed); err != nil {
				return err
			}
		}
	}
	t.lastRequest = time.Now()
	return nil
}

// Sleep pauses for d or until ctx is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
