// internal/entitlements/revalidator_test.go
package entitlements

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerBackgroundValidationRefreshesTenants(t *testing.T) {
	clock := newFakeClock()
	cache := NewDecisionCache(nil, clock)
	ctx := context.Background()

	tenantA, tenantB := uuid.New(), uuid.New()
	stale := clock.Now().Add(-time.Hour)
	cache.Set(ctx, NewDecision(tenantA, nil, stale, 15*time.Minute, 24*time.Hour))
	cache.Set(ctx, NewDecision(tenantB, nil, stale, 15*time.Minute, 24*time.Hour))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "active", "modules": [{"key": "attendance", "enabled": true}]}`)
	}))
	defer server.Close()

	revalidator := NewRevalidator(cache, testClient(server.URL, clock), time.Minute)

	status := revalidator.TriggerBackgroundValidation(ctx)
	assert.Equal(t, 2, status.ValidatedTenants)
	assert.Empty(t, status.Errors)

	got, ok := cache.Get(ctx, tenantA)
	require.True(t, ok)
	assert.True(t, got.IsFresh(clock.Now()))
	assert.True(t, got.HasModule("attendance"))
}

func TestSweepCollectsPerTenantFailures(t *testing.T) {
	clock := newFakeClock()
	cache := NewDecisionCache(nil, clock)
	ctx := context.Background()

	healthy, broken := uuid.New(), uuid.New()
	cache.Set(ctx, NewDecision(healthy, nil, clock.Now(), 15*time.Minute, 24*time.Hour))
	cache.Set(ctx, NewDecision(broken, nil, clock.Now(), 15*time.Minute, 24*time.Hour))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, broken.String()) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"status": "active", "modules": []}`)
	}))
	defer server.Close()

	revalidator := NewRevalidator(cache, testClient(server.URL, clock), time.Minute)

	status := revalidator.TriggerBackgroundValidation(ctx)
	assert.Equal(t, 1, status.ValidatedTenants)
	require.Len(t, status.Errors, 1)
	assert.Contains(t, status.Errors[0], broken.String())
}

func TestStartStopIdempotent(t *testing.T) {
	cache := NewDecisionCache(nil, newFakeClock())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "active", "modules": []}`)
	}))
	defer server.Close()

	revalidator := NewRevalidator(cache, testClient(server.URL, newFakeClock()), time.Hour)

	revalidator.Start()
	revalidator.Start()
	assert.True(t, revalidator.Status().IsRunning)

	revalidator.Stop()
	revalidator.Stop()
	assert.False(t, revalidator.Status().IsRunning)
}

func TestPeriodicSweepRuns(t *testing.T) {
	clock := newFakeClock()
	cache := NewDecisionCache(nil, clock)
	cache.Set(context.Background(), NewDecision(uuid.New(), nil, clock.Now(), 15*time.Minute, 24*time.Hour))

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"status": "active", "modules": []}`)
	}))
	defer server.Close()

	revalidator := NewRevalidator(cache, testClient(server.URL, clock), 20*time.Millisecond)
	revalidator.Start()
	defer revalidator.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 2
	}, 2*time.Second, 10*time.Millisecond)
}
