// internal/entitlements/client_test.go
package entitlements

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workstack/entitlement-backend/internal/models"
)

func testClient(baseURL string, clock Clock) *AuthorityClient {
	return NewAuthorityClient(ClientOptions{
		BaseURL:     baseURL,
		APIToken:    "test-token",
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    4 * time.Millisecond,
		CacheTTL:    15 * time.Minute,
		GracePeriod: 24 * time.Hour,
		Clock:       clock,
	})
}

func TestValidateSuccess(t *testing.T) {
	tenantID := uuid.New()
	clock := newFakeClock()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("/v1/licenses/%s/validate", tenantID), r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"status": "active",
			"modules": [
				{"key": "attendance", "enabled": true, "tier": "growth", "limits": {"max_employees": 200}},
				{"key": "payroll", "enabled": false, "tier": "starter"}
			]
		}`)
	}))
	defer server.Close()

	client := testClient(server.URL, clock)

	decision, err := client.Validate(context.Background(), tenantID)
	require.NoError(t, err)

	assert.True(t, decision.HasModule("attendance"))
	assert.False(t, decision.HasModule("payroll"))
	assert.Equal(t, models.ModuleTierGrowth, decision.Tiers["attendance"])
	assert.Equal(t, float64(200), decision.Limits["attendance"]["max_employees"])
	assert.Equal(t, models.DecisionSourceRemote, decision.Source)
	assert.Equal(t, clock.Now().Add(15*time.Minute), decision.TTLDeadline)
	assert.Equal(t, clock.Now().Add(24*time.Hour), decision.GraceDeadline)
}

func TestValidateRetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"status": "active", "modules": []}`)
	}))
	defer server.Close()

	client := testClient(server.URL, newFakeClock())

	decision, err := client.Validate(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.True(t, decision.HasModule("core"))
}

func TestValidateExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(server.URL, newFakeClock())

	_, err := client.Validate(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestValidateNotFoundFailsFast(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(server.URL, newFakeClock())

	_, err := client.Validate(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrLicenseNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx must not be retried")
}

func TestValidateClientErrorFailsFast(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := testClient(server.URL, newFakeClock())

	_, err := client.Validate(context.Background(), uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRemoteUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestValidateInactiveLicense(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "suspended", "modules": []}`)
	}))
	defer server.Close()

	client := testClient(server.URL, newFakeClock())

	_, err := client.Validate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrLicenseInactive)
}

func TestValidateNetworkErrorRetriesThenFails(t *testing.T) {
	// Point at a closed server so every attempt fails at the transport.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := testClient(server.URL, newFakeClock())

	_, err := client.Validate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
}

func TestValidateContextCancellationDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewAuthorityClient(ClientOptions{
		BaseURL:     server.URL,
		MaxAttempts: 3,
		BaseDelay:   10 * time.Second,
		MaxDelay:    10 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := client.Validate(ctx, uuid.New())
	require.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.Less(t, time.Since(start), 5*time.Second)
}
