// internal/entitlements/clock.go
package entitlements

import "time"

// Clock abstracts time so freshness and grace windows are testable without
// real timers.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }
