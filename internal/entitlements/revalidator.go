// internal/entitlements/revalidator.go
package entitlements

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Revalidator refreshes cached decisions for all known tenants on a fixed
// interval so request-path reads mostly hit a warm cache. Per-tenant failures
// are collected and never halt the sweep.
type Revalidator struct {
	cache    *DecisionCache
	client   *AuthorityClient
	interval time.Duration

	mu            sync.Mutex
	running       bool
	sweeping      bool
	lastRun       time.Time
	lastValidated int
	lastErrors    []string

	stopCh chan struct{}
	doneCh chan struct{}
}

type SweepStatus struct {
	IsRunning        bool      `json:"is_running"`
	LastRun          time.Time `json:"last_run"`
	ValidatedTenants int       `json:"validated_tenants"`
	Errors           []string  `json:"errors,omitempty"`
}

func NewRevalidator(cache *DecisionCache, client *AuthorityClient, interval time.Duration) *Revalidator {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Revalidator{
		cache:    cache,
		client:   client,
		interval: interval,
	}
}

// Start launches the interval loop. Calling Start on a running revalidator is
// a no-op.
func (r *Revalidator) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.loop()
	logrus.WithField("interval", r.interval).Info("Background revalidator started")
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (r *Revalidator) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	done := r.doneCh
	r.mu.Unlock()

	<-done
	logrus.Info("Background revalidator stopped")
}

func (r *Revalidator) loop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep(context.Background())
		case <-r.stopCh:
			return
		}
	}
}

// TriggerBackgroundValidation runs one sweep synchronously and returns its
// outcome. Overlapping sweeps are skipped rather than queued.
func (r *Revalidator) TriggerBackgroundValidation(ctx context.Context) SweepStatus {
	r.sweep(ctx)
	return r.Status()
}

func (r *Revalidator) Status() SweepStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	return SweepStatus{
		IsRunning:        r.running,
		LastRun:          r.lastRun,
		ValidatedTenants: r.lastValidated,
		Errors:           append([]string(nil), r.lastErrors...),
	}
}

func (r *Revalidator) sweep(ctx context.Context) {
	r.mu.Lock()
	if r.sweeping {
		r.mu.Unlock()
		return
	}
	r.sweeping = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.sweeping = false
		r.mu.Unlock()
	}()

	tenants := r.cache.TenantIDs()
	validated := 0
	var errs []string

	for _, tenantID := range tenants {
		select {
		case <-ctx.Done():
			errs = append(errs, fmt.Sprintf("sweep aborted: %v", ctx.Err()))
			r.record(validated, errs)
			return
		default:
		}

		decision, err := r.client.Validate(ctx, tenantID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("tenant %s: %v", tenantID, err))
			continue
		}

		if result := r.cache.Set(ctx, decision); result.SharedErr != nil {
			logrus.WithError(result.SharedErr).WithField("tenant_id", tenantID).
				Warn("Shared cache tier write failed during revalidation")
		}
		validated++
	}

	r.record(validated, errs)
	logrus.WithFields(logrus.Fields{
		"tenants":   len(tenants),
		"validated": validated,
		"errors":    len(errs),
	}).Debug("Entitlement revalidation sweep finished")
}

func (r *Revalidator) record(validated int, errs []string) {
	r.mu.Lock()
	r.lastRun = time.Now()
	r.lastValidated = validated
	r.lastErrors = errs
	r.mu.Unlock()
}
