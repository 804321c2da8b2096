// Package retrier re-runs a failing call on a fixed backoff schedule.
package retrier

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

const maxJitter = 1.0

var (
	// ErrInvalidBackoff is returned when a backoff step is negative.
	ErrInvalidBackoff = errors.New("backoff intervals must not be negative")
	// ErrInvalidJitter is returned when jitter is outside [0, 1].
	ErrInvalidJitter = errors.New("jitter must be between 0 and 1")
)

// Retrier runs a function once, then once more after each backoff interval
// while the returned error is temporary.
type Retrier struct {
	backoff []time.Duration
	jitter  float64
	// TempErrorFunc overrides IsTemporary when set.
	TempErrorFunc func(error) bool
}

// New creates a Retrier. An empty backoff means a single attempt.
func New(backoff []time.Duration, jitter float64, tempErrorFunc func(error) bool) (*Retrier, error) {
	for _, d := range backoff {
		if d < 0 {
			return nil, ErrInvalidBackoff
		}
	}
	if jitter < 0 || jitter > maxJitter {
		return nil, ErrInvalidJitter
	}

	return &Retrier{
		backoff:       append([]time.Duration(nil), backoff...),
		jitter:        jitter,
		TempErrorFunc: tempErrorFunc,
	}, nil
}

// Attempts 返回最多嘗試次數
func (r *Retrier) Attempts() int {
	return len(r.backoff) + 1
}

// Run executes fn until it succeeds, fails permanently, the schedule is
// exhausted, or ctx is done.
func (r *Retrier) Run(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < r.Attempts(); attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		if !r.isTemporary(err) {
			return err
		}

		if attempt == len(r.backoff) {
			break
		}

		timer := time.NewTimer(r.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("max retry attempts reached: %w", err)
}

func (r *Retrier) isTemporary(err error) bool {
	if r.TempErrorFunc != nil {
		return r.TempErrorFunc(err)
	}
	return IsTemporary(err)
}

// delay adds up to jitter*interval of random slack to the scheduled interval.
func (r *Retrier) delay(attempt int) time.Duration {
	base := r.backoff[attempt]
	if r.jitter == 0 || base == 0 {
		return base
	}
	return base + time.Duration(rand.Float64()*r.jitter*float64(base))
}
