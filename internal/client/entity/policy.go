package entity

import (
	"context"
	"math"
	"time"
)

// Backoff computes the pause before a retry.
type Backoff struct {
	// Initial is the delay before the first retry.
	Initial time.Duration
	// Max caps every delay.
	Max time.Duration
	// Multiplier grows the delay between consecutive retries.
	Multiplier float64
}

// Delay returns the pause after the given failed attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	initial := b.Initial
	if initial <= 0 {
		initial = 200 * time.Millisecond
	}
	maxDelay := b.Max
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	mult := b.Multiplier
	if mult < 1 {
		mult = 2
	}
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(initial) * math.Pow(mult, float64(attempt-1))
	if delay > float64(maxDelay) {
		return maxDelay
	}
	return time.Duration(delay)
}

// Policy bounds every remote call made by a Repository.
type Policy struct {
	ListTimeout   time.Duration
	CreateTimeout time.Duration
	UpdateTimeout time.Duration
	DeleteTimeout time.Duration
	// MaxAttempts is the number of tries for a transient failure, first
	// attempt included.
	MaxAttempts int
	Backoff     Backoff
}

// DefaultPolicy returns the timeouts used against the hosted store: the
// heavier the operation, the longer it may take.
func DefaultPolicy() Policy {
	return Policy{
		ListTimeout:   15 * time.Second,
		CreateTimeout: 10 * time.Second,
		UpdateTimeout: 10 * time.Second,
		DeleteTimeout: 8 * time.Second,
		MaxAttempts:   3,
		Backoff: Backoff{
			Initial:    200 * time.Millisecond,
			Max:        2 * time.Second,
			Multiplier: 2,
		},
	}
}

// WaitWithContext sleeps for delay or until ctx is done, whichever comes first.
func WaitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
