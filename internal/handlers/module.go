// internal/handlers/module.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/workstack/entitlement-backend/internal/entitlements"
	"github.com/workstack/entitlement-backend/internal/i18n"
	"github.com/workstack/entitlement-backend/internal/modules"
	"github.com/workstack/entitlement-backend/internal/services"
	"github.com/workstack/entitlement-backend/internal/utils"
)

type ModuleHandler struct {
	moduleService *services.ModuleService
}

func NewModuleHandler(moduleService *services.ModuleService) *ModuleHandler {
	return &ModuleHandler{
		moduleService: moduleService,
	}
}

// POST /admin/tenants/:id/modules/:key/enable
func (h *ModuleHandler) EnableModule(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	tenantID, moduleKey, ok := tenantAndModule(c)
	if !ok {
		return
	}

	var req services.EnableModuleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
			return
		}
	}

	license, err := h.moduleService.EnableModule(c.Request.Context(), tenantID, moduleKey, &req)
	if err != nil {
		respondModuleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyModuleEnabled),
		"license": license,
	})
}

// POST /admin/tenants/:id/modules/enable-batch
func (h *ModuleHandler) EnableModules(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid tenant ID", nil)
		return
	}

	var req services.BatchEnableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	license, err := h.moduleService.EnableModules(c.Request.Context(), tenantID, &req)
	if err != nil {
		respondModuleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyModuleEnabled),
		"license": license,
	})
}

// POST /admin/tenants/:id/modules/:key/disable
func (h *ModuleHandler) DisableModule(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	tenantID, moduleKey, ok := tenantAndModule(c)
	if !ok {
		return
	}

	license, err := h.moduleService.DisableModule(c.Request.Context(), tenantID, moduleKey)
	if err != nil {
		respondModuleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyModuleDisabled),
		"license": license,
	})
}

// GET /admin/tenants/:id/modules/:key/can-enable
func (h *ModuleHandler) CanEnableModule(c *gin.Context) {
	tenantID, moduleKey, ok := tenantAndModule(c)
	if !ok {
		return
	}

	resolution, err := h.moduleService.CanEnableModule(tenantID, moduleKey)
	if err != nil {
		respondModuleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"resolution": resolution,
	})
}

// GET /admin/modules
func (h *ModuleHandler) GetModules(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"modules": h.moduleService.GetAllModules(),
	})
}

// GET /admin/modules/stats
func (h *ModuleHandler) GetRegistryStats(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"stats": h.moduleService.GetModuleStats(),
	})
}

func tenantAndModule(c *gin.Context) (uuid.UUID, string, bool) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid tenant ID", nil)
		return uuid.Nil, "", false
	}

	moduleKey := c.Param("key")
	if moduleKey == "" {
		utils.BadRequestResponse(c, "Module key is required", nil)
		return uuid.Nil, "", false
	}

	return tenantID, moduleKey, true
}

// respondModuleError maps subsystem errors to a status and machine-readable
// code. Administrative input errors are never retried; the caller gets a
// specific code and message synchronously.
func respondModuleError(c *gin.Context, err error) {
	code := entitlements.CodeFor(err)

	status := http.StatusBadRequest
	switch {
	case errors.Is(err, modules.ErrModuleNotFound), errors.Is(err, entitlements.ErrLicenseNotFound):
		status = http.StatusNotFound
	case errors.Is(err, modules.ErrCircularDependency):
		status = http.StatusConflict
	case code == "INTERNAL_ERROR":
		status = http.StatusInternalServerError
	}

	utils.ErrorResponse(c, status, code, err.Error(), nil)
}
