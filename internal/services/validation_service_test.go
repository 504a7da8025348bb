// internal/services/validation_service_test.go
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workstack/entitlement-backend/internal/entitlements"
	"github.com/workstack/entitlement-backend/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

// recordingAuditor captures audit events in memory so terminal-outcome
// assertions need no database.
type recordingAuditor struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	eventType models.AuditEventType
	tenantID  uuid.UUID
	details   models.JSONB
}

func (r *recordingAuditor) record(eventType models.AuditEventType, tenantID uuid.UUID, details models.JSONB) error {
	r.mu.Lock()
	r.events = append(r.events, recordedEvent{eventType: eventType, tenantID: tenantID, details: details})
	r.mu.Unlock()
	return nil
}

func (r *recordingAuditor) LogValidationSuccess(tenantID uuid.UUID, details models.JSONB) error {
	return r.record(models.AuditEventValidationSuccess, tenantID, details)
}

func (r *recordingAuditor) LogValidationFailure(tenantID uuid.UUID, details models.JSONB) error {
	return r.record(models.AuditEventValidationFailure, tenantID, details)
}

func (r *recordingAuditor) LogLicenseExpired(tenantID uuid.UUID, details models.JSONB) error {
	return r.record(models.AuditEventLicenseExpired, tenantID, details)
}

func (r *recordingAuditor) all() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

type validationFixture struct {
	service *ValidationService
	cache   *entitlements.DecisionCache
	auditor *recordingAuditor
	clock   *fakeClock
	server  *httptest.Server
}

func newValidationFixture(t *testing.T, handler http.HandlerFunc) *validationFixture {
	t.Helper()

	clock := newFakeClock()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cache := entitlements.NewDecisionCache(nil, clock)
	client := entitlements.NewAuthorityClient(entitlements.ClientOptions{
		BaseURL:     server.URL,
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
		CacheTTL:    15 * time.Minute,
		GracePeriod: 24 * time.Hour,
		Clock:       clock,
	})
	auditor := &recordingAuditor{}

	return &validationFixture{
		service: NewValidationService(cache, client, auditor, clock),
		cache:   cache,
		auditor: auditor,
		clock:   clock,
		server:  server,
	}
}

func activeAuthority(modules string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"status": "active", "modules": [%s]}`, modules)
	}
}

func TestValidateRemoteSuccessPopulatesCache(t *testing.T) {
	fx := newValidationFixture(t, activeAuthority(`{"key": "attendance", "enabled": true, "tier": "growth"}`))
	tenantID := uuid.New()

	decision, err := fx.service.Validate(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionSourceRemote, decision.Source)
	assert.True(t, decision.HasModule("attendance"))

	cached, ok := fx.cache.Get(context.Background(), tenantID)
	require.True(t, ok)
	assert.True(t, cached.IsFresh(fx.clock.Now()))

	events := fx.auditor.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.AuditEventValidationSuccess, events[0].eventType)
}

func TestValidateServesFreshCacheWithoutRemoteCall(t *testing.T) {
	var calls int
	fx := newValidationFixture(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"status": "active", "modules": []}`)
	})
	tenantID := uuid.New()

	_, err := fx.service.Validate(context.Background(), tenantID)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	decision, err := fx.service.Validate(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionSourceCache, decision.Source)
	assert.Equal(t, 1, calls, "fresh cache hit must not call the authority")

	stats := fx.service.Stats()
	assert.Equal(t, uint64(1), stats.RemoteCalls)
	assert.Equal(t, uint64(1), stats.CacheServes)
}

func TestValidateDegradedServeWithinGrace(t *testing.T) {
	healthy := true
	fx := newValidationFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"status": "active", "modules": [{"key": "payroll", "enabled": true}]}`)
	})
	tenantID := uuid.New()

	_, err := fx.service.Validate(context.Background(), tenantID)
	require.NoError(t, err)

	// Past TTL but inside grace, with the authority down.
	fx.clock.Advance(time.Hour)
	healthy = false

	decision, err := fx.service.Validate(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionSourceGraceDegraded, decision.Source)
	assert.True(t, decision.HasModule("payroll"))

	events := fx.auditor.all()
	require.Len(t, events, 2)
	assert.Equal(t, models.AuditEventValidationFailure, events[1].eventType)
	assert.Equal(t, true, events[1].details["degraded"])

	assert.Equal(t, uint64(1), fx.service.Stats().DegradedServes)
}

func TestValidateDeniesPastGraceDeadline(t *testing.T) {
	healthy := true
	fx := newValidationFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"status": "active", "modules": []}`)
	})
	tenantID := uuid.New()

	_, err := fx.service.Validate(context.Background(), tenantID)
	require.NoError(t, err)

	fx.clock.Advance(25 * time.Hour)
	healthy = false

	_, err = fx.service.Validate(context.Background(), tenantID)
	require.ErrorIs(t, err, entitlements.ErrGraceExpired)

	events := fx.auditor.all()
	require.Len(t, events, 2)
	assert.Equal(t, models.AuditEventLicenseExpired, events[1].eventType)

	assert.Equal(t, uint64(1), fx.service.Stats().Denials)
}

func TestValidateDeniesWhenUnreachableWithNoCache(t *testing.T) {
	fx := newValidationFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := fx.service.Validate(context.Background(), uuid.New())
	require.ErrorIs(t, err, entitlements.ErrRemoteUnavailable)

	events := fx.auditor.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.AuditEventValidationFailure, events[0].eventType)
}

func TestValidateInactiveLicenseDeniesWithoutGrace(t *testing.T) {
	status := "active"
	fx := newValidationFixture(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"status": %q, "modules": []}`, status)
	})
	tenantID := uuid.New()

	_, err := fx.service.Validate(context.Background(), tenantID)
	require.NoError(t, err)

	// A definitive suspension denies even though a grace-eligible cache entry
	// exists.
	fx.clock.Advance(time.Hour)
	status = "suspended"

	_, err = fx.service.Validate(context.Background(), tenantID)
	require.ErrorIs(t, err, entitlements.ErrLicenseInactive)

	events := fx.auditor.all()
	require.Len(t, events, 2)
	assert.Equal(t, models.AuditEventLicenseExpired, events[1].eventType)
}

func TestValidateLicenseNotFoundDenies(t *testing.T) {
	fx := newValidationFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := fx.service.Validate(context.Background(), uuid.New())
	require.ErrorIs(t, err, entitlements.ErrLicenseNotFound)

	events := fx.auditor.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.AuditEventValidationFailure, events[0].eventType)
}
