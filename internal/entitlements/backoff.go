// internal/entitlements/backoff.go
package entitlements

import (
	"context"
	"fmt"
	"time"
)

// BackoffSchedule returns the delay to wait after each failed attempt: base
// doubling per attempt, capped at max. attempts is the total attempt count,
// so the schedule has attempts-1 entries (no wait after the last failure).
func BackoffSchedule(base, max time.Duration, attempts int) []time.Duration {
	if attempts <= 1 || base <= 0 {
		return nil
	}

	delays := make([]time.Duration, 0, attempts-1)
	delay := base
	for i := 0; i < attempts-1; i++ {
		if delay > max {
			delay = max
		}
		delays = append(delays, delay)
		delay *= 2
	}
	return delays
}

// sleepWithContext waits for the duration but aborts on context cancellation.
func sleepWithContext(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return nil
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context done: %w", ctx.Err())
	}
}
