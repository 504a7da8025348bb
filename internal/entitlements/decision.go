// internal/entitlements/decision.go
package entitlements

import (
	"time"

	"github.com/google/uuid"

	"github.com/workstack/entitlement-backend/internal/models"
	"github.com/workstack/entitlement-backend/internal/modules"
)

// Decision is the cached, time-bounded snapshot of which modules a tenant may
// currently use. Decisions are idempotent snapshots of authoritative state, so
// last-writer-wins between concurrent refreshes is acceptable.
type Decision struct {
	TenantID       uuid.UUID                    `json:"tenant_id"`
	EnabledModules []string                     `json:"enabled_modules"`
	Tiers          map[string]models.ModuleTier `json:"tiers,omitempty"`
	Limits         map[string]models.JSONB      `json:"limits,omitempty"`
	FetchedAt      time.Time                    `json:"fetched_at"`
	TTLDeadline    time.Time                    `json:"ttl_deadline"`
	GraceDeadline  time.Time                    `json:"grace_deadline"`
	Source         models.DecisionSource        `json:"source"`
}

// NewDecision builds a fresh remote-sourced decision. The core module is
// always part of the enabled set, and the grace deadline never precedes the
// TTL deadline.
func NewDecision(tenantID uuid.UUID, enabled []string, fetchedAt time.Time, ttl, grace time.Duration) *Decision {
	if grace < ttl {
		grace = ttl
	}

	hasCore := false
	for _, key := range enabled {
		if key == modules.CoreModuleKey {
			hasCore = true
			break
		}
	}
	if !hasCore {
		enabled = append([]string{modules.CoreModuleKey}, enabled...)
	}

	return &Decision{
		TenantID:       tenantID,
		EnabledModules: enabled,
		Tiers:          make(map[string]models.ModuleTier),
		Limits:         make(map[string]models.JSONB),
		FetchedAt:      fetchedAt,
		TTLDeadline:    fetchedAt.Add(ttl),
		GraceDeadline:  fetchedAt.Add(grace),
		Source:         models.DecisionSourceRemote,
	}
}

// IsFresh reports whether the decision is within its TTL window.
func (d *Decision) IsFresh(now time.Time) bool {
	return now.Before(d.TTLDeadline)
}

// WithinGrace reports whether the decision may still be served in degraded
// mode. A decision at or past the grace deadline must never be served.
func (d *Decision) WithinGrace(now time.Time) bool {
	return now.Before(d.GraceDeadline)
}

// HasModule reports whether the named module is enabled. The core module is
// always enabled regardless of license content.
func (d *Decision) HasModule(key string) bool {
	if key == modules.CoreModuleKey {
		return true
	}
	for _, m := range d.EnabledModules {
		if m == key {
			return true
		}
	}
	return false
}

// clone returns a copy so cached decisions are never mutated by callers.
func (d *Decision) clone() *Decision {
	cp := *d
	cp.EnabledModules = append([]string(nil), d.EnabledModules...)
	if d.Tiers != nil {
		cp.Tiers = make(map[string]models.ModuleTier, len(d.Tiers))
		for k, v := range d.Tiers {
			cp.Tiers[k] = v
		}
	}
	if d.Limits != nil {
		cp.Limits = make(map[string]models.JSONB, len(d.Limits))
		for k, v := range d.Limits {
			cp.Limits[k] = v
		}
	}
	return &cp
}
