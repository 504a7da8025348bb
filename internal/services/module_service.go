// internal/services/module_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/workstack/entitlement-backend/internal/database"
	"github.com/workstack/entitlement-backend/internal/entitlements"
	"github.com/workstack/entitlement-backend/internal/models"
	"github.com/workstack/entitlement-backend/internal/modules"
	"github.com/workstack/entitlement-backend/internal/utils"
)

// ModuleService handles the administrative module enable/disable surface.
// Every mutation runs through the dependency resolver before persisting and
// invalidates the tenant's cached decision before returning.
type ModuleService struct {
	db       *gorm.DB
	registry *modules.Registry
	resolver *modules.Resolver
	cache    *entitlements.DecisionCache
	audit    *AuditService
}

type EnableModuleRequest struct {
	Tier string `json:"tier,omitempty" validate:"omitempty,tier"`
}

type BatchEnableRequest struct {
	ModuleKeys []string `json:"module_keys" validate:"required,min=1,dive,module_key"`
	Tier       string   `json:"tier,omitempty" validate:"omitempty,tier"`
}

func NewModuleService(db *gorm.DB, registry *modules.Registry, resolver *modules.Resolver, cache *entitlements.DecisionCache, audit *AuditService) *ModuleService {
	return &ModuleService{
		db:       db,
		registry: registry,
		resolver: resolver,
		cache:    cache,
		audit:    audit,
	}
}

func (s *ModuleService) findLicense(tenantID uuid.UUID) (*models.TenantLicense, error) {
	var license models.TenantLicense
	err := s.db.Preload("Grants", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("tenant_id = ?", tenantID).First(&license).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: tenant %s", entitlements.ErrLicenseNotFound, tenantID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &license, nil
}

// enabledSet returns the license's enabled module keys, with core always
// present regardless of grant content.
func enabledSet(license *models.TenantLicense) []string {
	keys := license.EnabledModuleKeys()
	for _, k := range keys {
		if k == modules.CoreModuleKey {
			return keys
		}
	}
	return append([]string{modules.CoreModuleKey}, keys...)
}

// CanEnableModule reports whether the module could be enabled right now,
// without persisting anything.
func (s *ModuleService) CanEnableModule(tenantID uuid.UUID, moduleKey string) (modules.Resolution, error) {
	license, err := s.findLicense(tenantID)
	if err != nil {
		return modules.Resolution{}, err
	}

	proposed := append(enabledSet(license), moduleKey)
	return s.resolver.ResolveDependencies(moduleKey, proposed)
}

// EnableModule turns a module on for the tenant after dependency resolution.
func (s *ModuleService) EnableModule(ctx context.Context, tenantID uuid.UUID, moduleKey string, req *EnableModuleRequest) (*models.TenantLicense, error) {
	if req != nil {
		if err := utils.ValidateStruct(req); err != nil {
			return nil, fmt.Errorf("%w: %v", entitlements.ErrInvalidTier, err)
		}
	}

	return s.enableModules(ctx, tenantID, []string{moduleKey}, tierOrDefault(req))
}

// EnableModules enables a batch atomically. Each module is resolved against
// the union of the currently-enabled set and the whole batch, so co-dependent
// modules can be enabled together; any failure aborts before persistence.
func (s *ModuleService) EnableModules(ctx context.Context, tenantID uuid.UUID, req *BatchEnableRequest) (*models.TenantLicense, error) {
	if err := utils.ValidateStruct(req); err != nil {
		if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
			return nil, fmt.Errorf("%w: %s", modules.ErrMissingRequiredFields, validationErrors[0].Message)
		}
		return nil, err
	}

	tier := models.ModuleTierStarter
	if req.Tier != "" {
		tier = models.ModuleTier(req.Tier)
	}
	return s.enableModules(ctx, tenantID, req.ModuleKeys, tier)
}

func (s *ModuleService) enableModules(ctx context.Context, tenantID uuid.UUID, moduleKeys []string, tier models.ModuleTier) (*models.TenantLicense, error) {
	license, err := s.findLicense(tenantID)
	if err != nil {
		return nil, err
	}

	proposed := append(enabledSet(license), moduleKeys...)
	for _, key := range moduleKeys {
		resolution, err := s.resolver.ResolveDependencies(key, proposed)
		if err != nil {
			return nil, err
		}
		if !resolution.CanEnable {
			return nil, fmt.Errorf("%w: %s requires %s",
				modules.ErrMissingDependency, key, strings.Join(resolution.Missing, ", "))
		}
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		for _, key := range moduleKeys {
			grant := findGrant(license, key)
			if grant != nil {
				if grant.Enabled {
					continue
				}
				if err := tx.Model(&models.ModuleGrant{}).
					Where("id = ?", grant.ID).
					Update("enabled", true).Error; err != nil {
					return fmt.Errorf("failed to enable grant: %w", err)
				}
				continue
			}

			newGrant := &models.ModuleGrant{
				LicenseID: license.ID,
				ModuleKey: key,
				Enabled:   true,
				Tier:      tier,
				Position:  len(license.Grants),
			}
			if err := tx.Create(newGrant).Error; err != nil {
				return fmt.Errorf("failed to create grant: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Invalidation must land before the caller's response so the next request
	// cannot observe a stale decision.
	s.cache.Invalidate(ctx, tenantID)

	for _, key := range moduleKeys {
		s.audit.LogModuleActivated(tenantID, key)
	}
	s.audit.LogLicenseUpdated(tenantID, models.JSONB{
		"enabled_modules": moduleKeys,
	})

	return s.findLicense(tenantID)
}

// DisableModule turns a module off, rejecting the operation for the core
// module and whenever enabled modules still require the target.
func (s *ModuleService) DisableModule(ctx context.Context, tenantID uuid.UUID, moduleKey string) (*models.TenantLicense, error) {
	if moduleKey == modules.CoreModuleKey {
		return nil, modules.ErrCannotDeactivateCore
	}

	if _, err := s.registry.GetModule(moduleKey); err != nil {
		return nil, err
	}

	license, err := s.findLicense(tenantID)
	if err != nil {
		return nil, err
	}

	grant := findGrant(license, moduleKey)
	if grant == nil || !grant.Enabled {
		return nil, fmt.Errorf("%w: %s is not enabled for this tenant", modules.ErrModuleNotFound, moduleKey)
	}

	if dependents := s.resolver.BlockingDependents(moduleKey, enabledSet(license)); len(dependents) > 0 {
		return nil, fmt.Errorf("%w: %s", modules.ErrActiveDependents, strings.Join(dependents, ", "))
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		return tx.Model(&models.ModuleGrant{}).
			Where("id = ?", grant.ID).
			Update("enabled", false).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to disable grant: %w", err)
	}

	s.cache.Invalidate(ctx, tenantID)

	s.audit.LogModuleDeactivated(tenantID, moduleKey)
	s.audit.LogLicenseUpdated(tenantID, models.JSONB{
		"disabled_module": moduleKey,
	})

	return s.findLicense(tenantID)
}

// GetModuleStats exposes registry-level statistics for diagnostics.
func (s *ModuleService) GetModuleStats() modules.RegistryStats {
	return s.registry.GetStats()
}

func (s *ModuleService) GetAllModules() []modules.ModuleDefinition {
	return s.registry.GetAllModules()
}

func findGrant(license *models.TenantLicense, moduleKey string) *models.ModuleGrant {
	for i := range license.Grants {
		if license.Grants[i].ModuleKey == moduleKey {
			return &license.Grants[i]
		}
	}
	return nil
}

func tierOrDefault(req *EnableModuleRequest) models.ModuleTier {
	if req != nil && req.Tier != "" {
		return models.ModuleTier(req.Tier)
	}
	return models.ModuleTierStarter
}
