package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/bdobrica/starpack/common/retry"
)

// HealthChecker probes engine readiness.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// WaitUntilHealthy polls checker up to attempts times, waiting interval
// between probes, and reports whether any probe succeeded. Failed probes are
// not fatal; only exhausting the budget is.
func WaitUntilHealthy(ctx context.Context, checker HealthChecker, attempts int, interval time.Duration) bool {
	log := slog.With("component", "health")
	err := retry.Do(ctx, retry.Config{
		MaxAttempts: attempts,
		Interval:    interval,
		OnFailure: func(attempt int, err error) {
			log.Debug("engine not ready", "attempt", attempt, "max", attempts, "err", err)
		},
	}, func(int) error {
		return checker.Health(ctx)
	})
	if err != nil {
		log.Warn("engine did not become healthy", "attempts", attempts, "err", err)
		return false
	}
	return true
}
