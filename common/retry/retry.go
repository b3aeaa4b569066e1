// Package retry provides bounded, fixed-interval retry logic.
//
// Usage:
//
//	err := retry.Do(ctx, retry.Config{MaxAttempts: 5, Interval: time.Second}, func(attempt int) error {
//	    return client.Health(ctx)
//	})
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrExhausted wraps the last attempt's error once the attempt budget is spent.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Config controls the retry behaviour.
type Config struct {
	// MaxAttempts is the total number of attempts (including the first).
	// Zero or negative values are treated as 1 (no retries).
	MaxAttempts int
	// Interval is the fixed wait between two consecutive attempts. There is
	// no wait after the final attempt.
	Interval time.Duration
	// OnFailure, when set, is called after every failed attempt.
	OnFailure func(attempt int, err error)
}

// Do calls fn up to cfg.MaxAttempts times, sleeping cfg.Interval between
// attempts. It stops as soon as fn returns nil. When every attempt fails the
// returned error matches both ErrExhausted and the last attempt's error.
// Cancelling ctx aborts the wait between attempts.
func Do(ctx context.Context, cfg Config, fn func(attempt int) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Interval < 0 {
		cfg.Interval = 0
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if cfg.OnFailure != nil {
			cfg.OnFailure(attempt, lastErr)
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		slog.Debug("retry: attempt failed",
			"attempt", attempt, "max", cfg.MaxAttempts,
			"err", lastErr, "interval", cfg.Interval)

		timer := time.NewTimer(cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(lastErr, ctx.Err())
		case <-timer.C:
		}
	}

	return errors.Join(ErrExhausted, lastErr)
}
