// internal/entitlements/client.go
package entitlements

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/workstack/entitlement-backend/internal/models"
)

// ClientOptions configures the authority client. Zero values fall back to the
// documented defaults: 3 attempts, 1s base delay doubling to an 8s cap, 5s
// per-attempt timeout. Worst-case request-path wait is therefore bounded by
// attempts*(timeout+maxDelay), well under a minute.
type ClientOptions struct {
	BaseURL        string
	APIToken       string
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	RequestTimeout time.Duration
	CacheTTL       time.Duration
	GracePeriod    time.Duration
	Clock          Clock
	HTTPClient     *http.Client
}

// AuthorityClient calls the remote license authority with bounded retries.
// Only transient failures (network errors, 5xx) are retried; a definitive 4xx
// fails immediately. Fallback to cache/grace is the caller's job.
type AuthorityClient struct {
	baseURL     string
	apiToken    string
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	cacheTTL    time.Duration
	gracePeriod time.Duration
	clock       Clock
	httpClient  *http.Client
}

type authorityModule struct {
	Key     string                 `json:"key"`
	Enabled bool                   `json:"enabled"`
	Tier    string                 `json:"tier"`
	Limits  map[string]interface{} `json:"limits,omitempty"`
}

type authorityResponse struct {
	Status    string            `json:"status"`
	Modules   []authorityModule `json:"modules"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
}

func NewAuthorityClient(opts ClientOptions) *AuthorityClient {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 8 * time.Second
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 15 * time.Minute
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = 24 * time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.RequestTimeout}
	}

	return &AuthorityClient{
		baseURL:     opts.BaseURL,
		apiToken:    opts.APIToken,
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
		maxDelay:    opts.MaxDelay,
		cacheTTL:    opts.CacheTTL,
		gracePeriod: opts.GracePeriod,
		clock:       opts.Clock,
		httpClient:  opts.HTTPClient,
	}
}

// Validate fetches the tenant's license from the authority and converts it
// into a fresh remote-sourced decision with new TTL and grace deadlines.
func (c *AuthorityClient) Validate(ctx context.Context, tenantID uuid.UUID) (*Decision, error) {
	delays := BackoffSchedule(c.baseDelay, c.maxDelay, c.maxAttempts)

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepWithContext(ctx, delays[attempt-1]); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
			}
		}

		decision, retryable, err := c.validateOnce(ctx, tenantID)
		if err == nil {
			return decision, nil
		}
		if !retryable {
			return nil, err
		}

		lastErr = err
		logrus.WithError(err).WithFields(logrus.Fields{
			"tenant_id": tenantID,
			"attempt":   attempt + 1,
		}).Warn("License authority validation attempt failed")
	}

	return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, lastErr)
}

func (c *AuthorityClient) validateOnce(ctx context.Context, tenantID uuid.UUID) (*Decision, bool, error) {
	url := fmt.Sprintf("%s/v1/licenses/%s/validate", c.baseURL, tenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build authority request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("authority request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, fmt.Errorf("%w: tenant %s", ErrLicenseNotFound, tenantID)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, fmt.Errorf("authority rejected validation: status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, true, fmt.Errorf("authority returned status %d", resp.StatusCode)
	}

	var body authorityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, true, fmt.Errorf("decode authority response: %w", err)
	}

	if body.Status != string(models.LicenseStatusActive) {
		return nil, false, fmt.Errorf("%w: status %s", ErrLicenseInactive, body.Status)
	}

	enabled := make([]string, 0, len(body.Modules))
	decision := NewDecision(tenantID, nil, c.clock.Now(), c.cacheTTL, c.gracePeriod)
	for _, m := range body.Modules {
		if !m.Enabled {
			continue
		}
		enabled = append(enabled, m.Key)
		if m.Tier != "" {
			decision.Tiers[m.Key] = models.ModuleTier(m.Tier)
		}
		if len(m.Limits) > 0 {
			decision.Limits[m.Key] = models.JSONB(m.Limits)
		}
	}
	for _, key := range enabled {
		if !decision.HasModule(key) {
			decision.EnabledModules = append(decision.EnabledModules, key)
		}
	}

	return decision, false, nil
}
