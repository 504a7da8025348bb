// internal/entitlements/cache.go
package entitlements

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const sharedKeyPrefix = "entitlements:decision:"

// DecisionCache is the two-tier entitlement decision cache: an in-process map
// consulted first, backed by an optional shared Redis tier that survives
// restarts and is shared across instances. Every write updates both tiers;
// shared-tier failures are surfaced in the SetResult but never propagated as
// request errors. The consistency contract is eventual, not strict.
type DecisionCache struct {
	mu     sync.RWMutex
	local  map[uuid.UUID]*Decision
	shared redis.UniversalClient
	clock  Clock

	hits         uint64
	misses       uint64
	sharedHits   uint64
	sharedErrors uint64
}

type SetResult struct {
	// SharedErr is non-nil when the shared tier write failed. The in-process
	// tier remains authoritative for this process; callers may log but must
	// not fail the operation.
	SharedErr error
}

type CacheStats struct {
	Entries      int    `json:"entries"`
	Hits         uint64 `json:"hits"`
	Misses       uint64 `json:"misses"`
	SharedHits   uint64 `json:"shared_hits"`
	SharedErrors uint64 `json:"shared_errors"`
	SharedTier   bool   `json:"shared_tier_enabled"`
}

// NewDecisionCache builds a cache. shared may be nil to run with only the
// in-process tier.
func NewDecisionCache(shared redis.UniversalClient, clock Clock) *DecisionCache {
	if clock == nil {
		clock = SystemClock()
	}
	return &DecisionCache{
		local:  make(map[uuid.UUID]*Decision),
		shared: shared,
		clock:  clock,
	}
}

// Get returns the cached decision for the tenant, consulting the in-process
// tier first and falling back to the shared tier. A shared-tier entry past its
// TTL deadline is treated as a miss (most restrictive wins after a restart);
// only a decision this process cached may be served stale via grace logic.
func (c *DecisionCache) Get(ctx context.Context, tenantID uuid.UUID) (*Decision, bool) {
	c.mu.RLock()
	decision, ok := c.local[tenantID]
	c.mu.RUnlock()

	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return decision.clone(), true
	}

	if c.shared != nil {
		if decision := c.readShared(ctx, tenantID); decision != nil {
			c.mu.Lock()
			c.local[tenantID] = decision
			c.sharedHits++
			c.hits++
			c.mu.Unlock()
			return decision.clone(), true
		}
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	return nil, false
}

func (c *DecisionCache) readShared(ctx context.Context, tenantID uuid.UUID) *Decision {
	payload, err := c.shared.Get(ctx, sharedKey(tenantID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.countSharedError()
			logrus.WithError(err).WithField("tenant_id", tenantID).Warn("Shared cache tier read failed")
		}
		return nil
	}

	var decision Decision
	if err := json.Unmarshal(payload, &decision); err != nil {
		c.countSharedError()
		logrus.WithError(err).WithField("tenant_id", tenantID).Warn("Shared cache tier entry is corrupt")
		return nil
	}

	if !decision.IsFresh(c.clock.Now()) {
		return nil
	}
	return &decision
}

// Set writes the decision to both tiers. The shared write expires at the grace
// deadline since nothing past it may ever be served.
func (c *DecisionCache) Set(ctx context.Context, decision *Decision) SetResult {
	c.mu.Lock()
	c.local[decision.TenantID] = decision.clone()
	c.mu.Unlock()

	if c.shared == nil {
		return SetResult{}
	}

	payload, err := json.Marshal(decision)
	if err != nil {
		c.countSharedError()
		return SetResult{SharedErr: fmt.Errorf("marshal decision: %w", err)}
	}

	expiry := decision.GraceDeadline.Sub(c.clock.Now())
	if expiry <= 0 {
		expiry = time.Minute
	}
	if err := c.shared.Set(ctx, sharedKey(decision.TenantID), payload, expiry).Err(); err != nil {
		c.countSharedError()
		return SetResult{SharedErr: fmt.Errorf("shared tier write: %w", err)}
	}
	return SetResult{}
}

// Invalidate evicts the tenant's decision from both tiers. It must complete
// before the response of the operation that triggered it is returned.
func (c *DecisionCache) Invalidate(ctx context.Context, tenantID uuid.UUID) {
	c.mu.Lock()
	delete(c.local, tenantID)
	c.mu.Unlock()

	if c.shared != nil {
		if err := c.shared.Del(ctx, sharedKey(tenantID)).Err(); err != nil {
			c.countSharedError()
			logrus.WithError(err).WithField("tenant_id", tenantID).Warn("Shared cache tier invalidation failed")
		}
	}
}

// ClearAll wipes the in-process tier and best-effort clears known shared
// entries for those tenants.
func (c *DecisionCache) ClearAll(ctx context.Context) {
	c.mu.Lock()
	tenants := make([]uuid.UUID, 0, len(c.local))
	for id := range c.local {
		tenants = append(tenants, id)
	}
	c.local = make(map[uuid.UUID]*Decision)
	c.mu.Unlock()

	if c.shared == nil {
		return
	}
	for _, id := range tenants {
		if err := c.shared.Del(ctx, sharedKey(id)).Err(); err != nil {
			c.countSharedError()
		}
	}
}

// TenantIDs returns all tenants with an in-process entry, for the background
// revalidation sweep.
func (c *DecisionCache) TenantIDs() []uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(c.local))
	for id := range c.local {
		ids = append(ids, id)
	}
	return ids
}

func (c *DecisionCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Entries:      len(c.local),
		Hits:         c.hits,
		Misses:       c.misses,
		SharedHits:   c.sharedHits,
		SharedErrors: c.sharedErrors,
		SharedTier:   c.shared != nil,
	}
}

func (c *DecisionCache) countSharedError() {
	c.mu.Lock()
	c.sharedErrors++
	c.mu.Unlock()
}

func sharedKey(tenantID uuid.UUID) string {
	return sharedKeyPrefix + tenantID.String()
}
