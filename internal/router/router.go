// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/workstack/entitlement-backend/internal/config"
	"github.com/workstack/entitlement-backend/internal/entitlements"
	"github.com/workstack/entitlement-backend/internal/handlers"
	"github.com/workstack/entitlement-backend/internal/middleware"
	"github.com/workstack/entitlement-backend/internal/modules"
	"github.com/workstack/entitlement-backend/internal/services"
	"github.com/workstack/entitlement-backend/internal/utils"
)

// Dependencies carries the long-lived components whose lifecycle is owned by
// main: the decision cache, the authority client, and the revalidator.
type Dependencies struct {
	Registry    *modules.Registry
	Cache       *entitlements.DecisionCache
	Client      *entitlements.AuthorityClient
	Revalidator *entitlements.Revalidator
}

func Initialize(db *gorm.DB, cfg *config.Config, deps Dependencies) *gin.Engine {
	// Initialize services
	auditService := services.NewAuditService(db)
	resolver := modules.NewResolver(deps.Registry)
	moduleService := services.NewModuleService(db, deps.Registry, resolver, deps.Cache, auditService)
	validationService := services.NewValidationService(deps.Cache, deps.Client, auditService, nil)

	// Initialize handlers
	moduleHandler := handlers.NewModuleHandler(moduleService)
	auditHandler := handlers.NewAuditHandler(auditService, cfg.Entitlements.AuditRetentionDays)
	entitlementHandler := handlers.NewEntitlementHandler(validationService, deps.Revalidator, cfg)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Public module catalog. Tenant identity is optional here; anonymous
		// requests skip license validation entirely.
		catalog := v1.Group("/modules")
		catalog.Use(middleware.OptionalAuth())
		catalog.Use(middleware.ValidateLicense(validationService))
		{
			catalog.GET("", moduleHandler.GetModules)
		}

		// Tenant-facing entitlement routes
		entitlementRoutes := v1.Group("/entitlements")
		entitlementRoutes.Use(middleware.AuthRequired())
		entitlementRoutes.Use(middleware.ValidateLicense(validationService))
		{
			entitlementRoutes.GET("/me", entitlementHandler.GetMyEntitlements)
		}

		// Module-gated feature routes. Each group validates the tenant's
		// license, then checks that the specific module is enabled.
		for _, moduleKey := range []string{"attendance", "payroll", "documents", "reports"} {
			gated := v1.Group("/" + moduleKey)
			gated.Use(middleware.AuthRequired())
			gated.Use(middleware.ValidateLicense(validationService))
			gated.Use(middleware.RequireFeature(moduleKey))
			{
				gated.GET("/entitlement", entitlementHandler.FeatureInfo(moduleKey))
			}
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired())
		admin.Use(middleware.AdminRequired())
		admin.Use(middleware.AdminRateLimit())
		{
			// Module registry
			admin.GET("/modules", moduleHandler.GetModules)
			admin.GET("/modules/stats", moduleHandler.GetRegistryStats)

			// Per-tenant module administration
			tenants := admin.Group("/tenants/:id")
			{
				tenants.POST("/modules/enable-batch", moduleHandler.EnableModules)
				tenants.POST("/modules/:key/enable", moduleHandler.EnableModule)
				tenants.POST("/modules/:key/disable", moduleHandler.DisableModule)
				tenants.GET("/modules/:key/can-enable", moduleHandler.CanEnableModule)
				tenants.GET("/modules/:key/audit", auditHandler.GetModuleAuditTrail)
			}

			// Audit trail
			audit := admin.Group("/audit")
			{
				audit.GET("", auditHandler.QueryLogs)
				audit.GET("/statistics", auditHandler.GetStatistics)
				audit.GET("/violations", auditHandler.GetRecentViolations)
				audit.POST("/cleanup", auditHandler.CleanupOldLogs)
			}

			// Validation diagnostics
			diag := admin.Group("/entitlements")
			{
				diag.GET("/stats", entitlementHandler.GetValidationStats)
				diag.POST("/revalidate", entitlementHandler.TriggerRevalidation)
			}
		}
	}

	return r
}
