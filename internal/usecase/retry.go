package usecase

import (
	"context"
	"time"
)

// RetryPolicy says how often a failed time entry is resubmitted after the
// batch pass and how long to wait between attempts.
type RetryPolicy struct {
	Attempts int
	// Backoff before the second and later attempts; doubles each time.
	Backoff time.Duration
}

// RetryOnce resubmits each failed entry a single time, immediately.
func RetryOnce() RetryPolicy { return RetryPolicy{Attempts: 1} }

func (p RetryPolicy) wait(ctx context.Context, n int) error {
	if p.Backoff <= 0 {
		return ctx.Err()
	}
	d := p.Backoff << (n - 1)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
