// internal/handlers/entitlement.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/workstack/entitlement-backend/internal/config"
	"github.com/workstack/entitlement-backend/internal/entitlements"
	"github.com/workstack/entitlement-backend/internal/i18n"
	"github.com/workstack/entitlement-backend/internal/middleware"
	"github.com/workstack/entitlement-backend/internal/services"
	"github.com/workstack/entitlement-backend/internal/utils"
)

type EntitlementHandler struct {
	validationService *services.ValidationService
	revalidator       *entitlements.Revalidator
	cfg               *config.Config
}

func NewEntitlementHandler(validationService *services.ValidationService, revalidator *entitlements.Revalidator, cfg *config.Config) *EntitlementHandler {
	return &EntitlementHandler{
		validationService: validationService,
		revalidator:       revalidator,
		cfg:               cfg,
	}
}

// GET /entitlements/me
//
// The decision is placed on the context by the validation middleware, so a
// request that reaches this handler already passed the entitlement check.
func (h *EntitlementHandler) GetMyEntitlements(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	decision := middleware.GetDecisionFromContext(c)
	if decision == nil {
		utils.EntitlementDeniedResponse(c,
			entitlements.CodeFor(entitlements.ErrLicenseRequired),
			i18n.T(lang, i18n.KeyLicenseRequired),
			nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"tenant_id":       decision.TenantID,
		"enabled_modules": decision.EnabledModules,
		"tiers":           decision.Tiers,
		"limits":          decision.Limits,
		"source":          decision.Source,
		"fetched_at":      decision.FetchedAt,
		"valid_until":     decision.TTLDeadline,
		"grace_until":     decision.GraceDeadline,
	})
}

// FeatureInfo returns a handler exposing the tenant's tier and limits for a
// single gated module. Routes mounted with it sit behind RequireFeature, so
// the module is known to be enabled here.
func (h *EntitlementHandler) FeatureInfo(moduleKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		decision := middleware.GetDecisionFromContext(c)
		if decision == nil {
			utils.EntitlementDeniedResponse(c,
				entitlements.CodeFor(entitlements.ErrLicenseRequired),
				i18n.T(lang, i18n.KeyLicenseRequired),
				nil)
			return
		}

		utils.SuccessResponse(c, gin.H{
			"module_key": moduleKey,
			"tier":       decision.Tiers[moduleKey],
			"limits":     decision.Limits[moduleKey],
			"source":     decision.Source,
		})
	}
}

// GET /admin/entitlements/stats
func (h *EntitlementHandler) GetValidationStats(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"validation":  h.validationService.Stats(),
		"revalidator": h.revalidator.Status(),
		"settings": gin.H{
			"authority_base_url":       h.cfg.Authority.BaseURL,
			"max_attempts":             h.cfg.Authority.MaxAttempts,
			"base_delay_ms":            h.cfg.Authority.BaseDelayMs,
			"max_delay_ms":             h.cfg.Authority.MaxDelayMs,
			"request_timeout_ms":       h.cfg.Authority.RequestTimeoutMs,
			"cache_ttl_minutes":        h.cfg.Entitlements.CacheTTLMinutes,
			"grace_hours":              h.cfg.Entitlements.GraceHours,
			"revalidate_every_minutes": h.cfg.Entitlements.RevalidateEveryMinutes,
		},
	})
}

// POST /admin/entitlements/revalidate
//
// Runs a synchronous sweep over every locally cached tenant and reports the
// outcome. Per-tenant failures are collected, not fatal.
func (h *EntitlementHandler) TriggerRevalidation(c *gin.Context) {
	status := h.revalidator.TriggerBackgroundValidation(c.Request.Context())

	utils.SuccessResponse(c, gin.H{
		"sweep": status,
	})
}
