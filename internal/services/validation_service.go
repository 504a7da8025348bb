// internal/services/validation_service.go
package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/workstack/entitlement-backend/internal/entitlements"
	"github.com/workstack/entitlement-backend/internal/models"
)

// EntitlementAuditor is the slice of the audit trail the validation flow
// writes to. *AuditService satisfies it.
type EntitlementAuditor interface {
	LogValidationSuccess(tenantID uuid.UUID, details models.JSONB) error
	LogValidationFailure(tenantID uuid.UUID, details models.JSONB) error
	LogLicenseExpired(tenantID uuid.UUID, details models.JSONB) error
}

// ValidationService runs the per-request entitlement decision flow:
// cache lookup, remote validation on miss or staleness, offline-grace fallback
// when the authority is unreachable, and a hard deny past the grace deadline.
// Every terminal outcome emits exactly one audit event.
type ValidationService struct {
	cache  *entitlements.DecisionCache
	client *entitlements.AuthorityClient
	audit  EntitlementAuditor
	clock  entitlements.Clock

	mu             sync.Mutex
	remoteCalls    uint64
	cacheServes    uint64
	degradedServes uint64
	denials        uint64
}

type ValidationStats struct {
	Cache          entitlements.CacheStats `json:"cache"`
	RemoteCalls    uint64                  `json:"remote_calls"`
	CacheServes    uint64                  `json:"cache_serves"`
	DegradedServes uint64                  `json:"degraded_serves"`
	Denials        uint64                  `json:"denials"`
}

func NewValidationService(cache *entitlements.DecisionCache, client *entitlements.AuthorityClient, audit EntitlementAuditor, clock entitlements.Clock) *ValidationService {
	if clock == nil {
		clock = entitlements.SystemClock()
	}
	return &ValidationService{
		cache:  cache,
		client: client,
		audit:  audit,
		clock:  clock,
	}
}

// Validate resolves the tenant's current entitlement decision. A returned
// decision means allow (its Source tells how it was obtained); an error means
// deny with a machine-readable code.
func (s *ValidationService) Validate(ctx context.Context, tenantID uuid.UUID) (*entitlements.Decision, error) {
	now := s.clock.Now()

	cached, hasCached := s.cache.Get(ctx, tenantID)
	if hasCached && cached.IsFresh(now) {
		cached.Source = models.DecisionSourceCache
		s.count(func() { s.cacheServes++ })
		s.audit.LogValidationSuccess(tenantID, models.JSONB{
			"source":          string(models.DecisionSourceCache),
			"enabled_modules": cached.EnabledModules,
		})
		return cached, nil
	}

	s.count(func() { s.remoteCalls++ })
	decision, err := s.client.Validate(ctx, tenantID)
	if err == nil {
		if result := s.cache.Set(ctx, decision); result.SharedErr != nil {
			logrus.WithError(result.SharedErr).WithField("tenant_id", tenantID).
				Warn("Shared cache tier write failed")
		}
		s.audit.LogValidationSuccess(tenantID, models.JSONB{
			"source":          string(models.DecisionSourceRemote),
			"enabled_modules": decision.EnabledModules,
		})
		return decision, nil
	}

	if errors.Is(err, entitlements.ErrRemoteUnavailable) {
		return s.handleUnreachable(tenantID, cached, hasCached, err)
	}

	// Definitive authority answer: no retry, no grace.
	s.count(func() { s.denials++ })
	if errors.Is(err, entitlements.ErrLicenseInactive) {
		s.audit.LogLicenseExpired(tenantID, models.JSONB{
			"reason": err.Error(),
		})
	} else {
		s.audit.LogValidationFailure(tenantID, models.JSONB{
			"reason": err.Error(),
		})
	}
	return nil, err
}

func (s *ValidationService) handleUnreachable(tenantID uuid.UUID, cached *entitlements.Decision, hasCached bool, cause error) (*entitlements.Decision, error) {
	now := s.clock.Now()

	if hasCached && cached.WithinGrace(now) {
		cached.Source = models.DecisionSourceGraceDegraded
		s.count(func() { s.degradedServes++ })
		s.audit.LogValidationFailure(tenantID, models.JSONB{
			"degraded":        true,
			"reason":          cause.Error(),
			"grace_deadline":  cached.GraceDeadline,
			"enabled_modules": cached.EnabledModules,
		})
		return cached, nil
	}

	s.count(func() { s.denials++ })

	if hasCached {
		// Last-known-good exists but its grace window is over.
		s.audit.LogLicenseExpired(tenantID, models.JSONB{
			"reason":         "offline grace period expired",
			"grace_deadline": cached.GraceDeadline,
		})
		return nil, entitlements.ErrGraceExpired
	}

	s.audit.LogValidationFailure(tenantID, models.JSONB{
		"reason": cause.Error(),
	})
	return nil, cause
}

func (s *ValidationService) Stats() ValidationStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return ValidationStats{
		Cache:          s.cache.Stats(),
		RemoteCalls:    s.remoteCalls,
		CacheServes:    s.cacheServes,
		DegradedServes: s.degradedServes,
		Denials:        s.denials,
	}
}

func (s *ValidationService) count(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
}
