// internal/handlers/audit.go
package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/workstack/entitlement-backend/internal/i18n"
	"github.com/workstack/entitlement-backend/internal/models"
	"github.com/workstack/entitlement-backend/internal/services"
	"github.com/workstack/entitlement-backend/internal/utils"
)

type AuditHandler struct {
	auditService     *services.AuditService
	defaultRetention int
}

func NewAuditHandler(auditService *services.AuditService, defaultRetentionDays int) *AuditHandler {
	return &AuditHandler{
		auditService:     auditService,
		defaultRetention: defaultRetentionDays,
	}
}

// GET /admin/audit
func (h *AuditHandler) QueryLogs(c *gin.Context) {
	params := services.AuditQueryParams{
		PaginationParams: utils.GetPaginationParams(c),
		ModuleKey:        c.Query("module_key"),
	}

	if raw := c.Query("tenant_id"); raw != "" {
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid tenant ID", nil)
			return
		}
		params.TenantID = &tenantID
	}

	if raw := c.Query("event_type"); raw != "" {
		eventType := models.AuditEventType(raw)
		params.EventType = &eventType
	}

	if raw := c.Query("severity"); raw != "" {
		severity := models.AuditSeverity(raw)
		params.Severity = &severity
	}

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid since timestamp, expected RFC3339", nil)
			return
		}
		params.Since = &since
	}

	if raw := c.Query("until"); raw != "" {
		until, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid until timestamp, expected RFC3339", nil)
			return
		}
		params.Until = &until
	}

	events, total, err := h.auditService.QueryLogs(params)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to query audit logs")
		return
	}

	result := utils.CreatePaginationResult(events, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// GET /admin/audit/statistics
func (h *AuditHandler) GetStatistics(c *gin.Context) {
	var tenantID *uuid.UUID
	if raw := c.Query("tenant_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid tenant ID", nil)
			return
		}
		tenantID = &parsed
	}

	stats, err := h.auditService.GetStatistics(tenantID)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to compute audit statistics")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"statistics": stats,
	})
}

// GET /admin/audit/violations
func (h *AuditHandler) GetRecentViolations(c *gin.Context) {
	var tenantID *uuid.UUID
	if raw := c.Query("tenant_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid tenant ID", nil)
			return
		}
		tenantID = &parsed
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	violations, err := h.auditService.GetRecentViolations(tenantID, limit)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to fetch violations")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"violations": violations,
	})
}

// GET /admin/tenants/:id/modules/:key/audit
func (h *AuditHandler) GetModuleAuditTrail(c *gin.Context) {
	tenantID, moduleKey, ok := tenantAndModule(c)
	if !ok {
		return
	}

	days := 30
	if raw := c.Query("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 365 {
			days = parsed
		}
	}

	events, err := h.auditService.GetModuleAuditTrail(tenantID, moduleKey, days)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to fetch audit trail")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"module_key": moduleKey,
		"days":       days,
		"events":     events,
	})
}

type cleanupRequest struct {
	RetentionDays int `json:"retention_days" validate:"omitempty,min=1,max=3650"`
}

// POST /admin/audit/cleanup
func (h *AuditHandler) CleanupOldLogs(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req cleanupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
			return
		}
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "retention_days"), utils.GetValidationErrors(err))
		return
	}

	retention := req.RetentionDays
	if retention == 0 {
		retention = h.defaultRetention
	}

	deleted, err := h.auditService.CleanupOldLogs(retention)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to clean up audit logs")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAuditCleanupDone),
		"deleted": deleted,
	})
}
