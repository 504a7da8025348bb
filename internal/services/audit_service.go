// internal/services/audit_service.go
package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/workstack/entitlement-backend/internal/models"
	"github.com/workstack/entitlement-backend/internal/utils"
)

// AuditService is the append-only recorder of entitlement state transitions.
// Severity is assigned by event type, never by caller choice, so classification
// stays consistent across the subsystem.
type AuditService struct {
	db *gorm.DB
}

type AuditQueryParams struct {
	utils.PaginationParams
	TenantID  *uuid.UUID             `json:"tenant_id,omitempty"`
	ModuleKey string                 `json:"module_key,omitempty"`
	EventType *models.AuditEventType `json:"event_type,omitempty"`
	Severity  *models.AuditSeverity  `json:"severity,omitempty"`
	Since     *time.Time             `json:"since,omitempty"`
	Until     *time.Time             `json:"until,omitempty"`
}

type AuditStatistics struct {
	TotalEvents int64            `json:"total_events"`
	BySeverity  map[string]int64 `json:"by_severity"`
	ByType      map[string]int64 `json:"by_type"`
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// severityFor maps event types to their fixed severity.
func severityFor(eventType models.AuditEventType) models.AuditSeverity {
	switch eventType {
	case models.AuditEventValidationFailure, models.AuditEventLimitWarning:
		return models.AuditSeverityWarning
	case models.AuditEventLimitExceeded, models.AuditEventLicenseExpired:
		return models.AuditSeverityCritical
	default:
		return models.AuditSeverityInfo
	}
}

// CreateLog persists one audit event. The severity field is overwritten with
// the classification for the event type.
func (s *AuditService) CreateLog(event *models.AuditEvent) error {
	event.Severity = severityFor(event.EventType)
	if err := s.db.Create(event).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"tenant_id":  event.TenantID,
			"event_type": event.EventType,
		}).Error("Failed to create audit event")
		return fmt.Errorf("failed to create audit event: %w", err)
	}
	return nil
}

// Convenience helpers per event type

func (s *AuditService) LogValidationSuccess(tenantID uuid.UUID, details models.JSONB) error {
	return s.CreateLog(&models.AuditEvent{
		TenantID:  tenantID,
		EventType: models.AuditEventValidationSuccess,
		Details:   details,
	})
}

func (s *AuditService) LogValidationFailure(tenantID uuid.UUID, details models.JSONB) error {
	return s.CreateLog(&models.AuditEvent{
		TenantID:  tenantID,
		EventType: models.AuditEventValidationFailure,
		Details:   details,
	})
}

func (s *AuditService) LogLimitWarning(tenantID uuid.UUID, moduleKey string, details models.JSONB) error {
	return s.CreateLog(&models.AuditEvent{
		TenantID:  tenantID,
		ModuleKey: moduleKey,
		EventType: models.AuditEventLimitWarning,
		Details:   details,
	})
}

func (s *AuditService) LogLimitExceeded(tenantID uuid.UUID, moduleKey string, details models.JSONB) error {
	return s.CreateLog(&models.AuditEvent{
		TenantID:  tenantID,
		ModuleKey: moduleKey,
		EventType: models.AuditEventLimitExceeded,
		Details:   details,
	})
}

func (s *AuditService) LogModuleActivated(tenantID uuid.UUID, moduleKey string) error {
	return s.CreateLog(&models.AuditEvent{
		TenantID:  tenantID,
		ModuleKey: moduleKey,
		EventType: models.AuditEventModuleActivated,
	})
}

func (s *AuditService) LogModuleDeactivated(tenantID uuid.UUID, moduleKey string) error {
	return s.CreateLog(&models.AuditEvent{
		TenantID:  tenantID,
		ModuleKey: moduleKey,
		EventType: models.AuditEventModuleDeactivated,
	})
}

func (s *AuditService) LogLicenseUpdated(tenantID uuid.UUID, details models.JSONB) error {
	return s.CreateLog(&models.AuditEvent{
		TenantID:  tenantID,
		EventType: models.AuditEventLicenseUpdated,
		Details:   details,
	})
}

func (s *AuditService) LogLicenseExpired(tenantID uuid.UUID, details models.JSONB) error {
	return s.CreateLog(&models.AuditEvent{
		TenantID:  tenantID,
		EventType: models.AuditEventLicenseExpired,
		Details:   details,
	})
}

// QueryLogs returns events matching the filters, newest first.
func (s *AuditService) QueryLogs(params AuditQueryParams) ([]models.AuditEvent, int64, error) {
	query := s.db.Model(&models.AuditEvent{})

	if params.TenantID != nil {
		query = query.Where("tenant_id = ?", *params.TenantID)
	}
	if params.ModuleKey != "" {
		query = query.Where("module_key = ?", params.ModuleKey)
	}
	if params.EventType != nil {
		query = query.Where("event_type = ?", *params.EventType)
	}
	if params.Severity != nil {
		query = query.Where("severity = ?", *params.Severity)
	}
	if params.Since != nil {
		query = query.Where("created_at >= ?", *params.Since)
	}
	if params.Until != nil {
		query = query.Where("created_at <= ?", *params.Until)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit events: %w", err)
	}

	allowedSortFields := []string{"created_at", "event_type", "severity"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var events []models.AuditEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit events: %w", err)
	}

	return events, total, nil
}

// GetStatistics aggregates event counts, optionally scoped to one tenant.
func (s *AuditService) GetStatistics(tenantID *uuid.UUID) (AuditStatistics, error) {
	stats := AuditStatistics{
		BySeverity: make(map[string]int64),
		ByType:     make(map[string]int64),
	}

	base := s.db.Model(&models.AuditEvent{})
	if tenantID != nil {
		base = base.Where("tenant_id = ?", *tenantID)
	}

	if err := base.Session(&gorm.Session{}).Count(&stats.TotalEvents).Error; err != nil {
		return stats, fmt.Errorf("failed to count audit events: %w", err)
	}

	type bucket struct {
		Key   string
		Count int64
	}

	var severityBuckets []bucket
	if err := base.Session(&gorm.Session{}).
		Select("severity as key, count(*) as count").
		Group("severity").
		Find(&severityBuckets).Error; err != nil {
		return stats, fmt.Errorf("failed to aggregate by severity: %w", err)
	}
	for _, b := range severityBuckets {
		stats.BySeverity[b.Key] = b.Count
	}

	var typeBuckets []bucket
	if err := base.Session(&gorm.Session{}).
		Select("event_type as key, count(*) as count").
		Group("event_type").
		Find(&typeBuckets).Error; err != nil {
		return stats, fmt.Errorf("failed to aggregate by type: %w", err)
	}
	for _, b := range typeBuckets {
		stats.ByType[b.Key] = b.Count
	}

	return stats, nil
}

// GetRecentViolations returns the latest warning-or-worse events.
func (s *AuditService) GetRecentViolations(tenantID *uuid.UUID, limit int) ([]models.AuditEvent, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}

	query := s.db.Model(&models.AuditEvent{}).
		Where("severity IN ?", []models.AuditSeverity{
			models.AuditSeverityWarning,
			models.AuditSeverityError,
			models.AuditSeverityCritical,
		})
	if tenantID != nil {
		query = query.Where("tenant_id = ?", *tenantID)
	}

	var events []models.AuditEvent
	if err := query.Order("created_at DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch violations: %w", err)
	}
	return events, nil
}

// GetModuleAuditTrail returns the module's events for a tenant within the last
// N days, oldest first.
func (s *AuditService) GetModuleAuditTrail(tenantID uuid.UUID, moduleKey string, days int) ([]models.AuditEvent, error) {
	if days < 1 {
		days = 30
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	var events []models.AuditEvent
	err := s.db.Model(&models.AuditEvent{}).
		Where("tenant_id = ? AND module_key = ? AND created_at >= ?", tenantID, moduleKey, cutoff).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch module audit trail: %w", err)
	}
	return events, nil
}

// CleanupOldLogs hard-deletes events older than the retention cutoff, except
// critical-severity events which are retained indefinitely.
func (s *AuditService) CleanupOldLogs(retentionDays int) (int64, error) {
	if retentionDays < 1 {
		return 0, fmt.Errorf("retention days must be positive")
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result := s.db.Unscoped().
		Where("created_at < ? AND severity != ?", cutoff, models.AuditSeverityCritical).
		Delete(&models.AuditEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup audit events: %w", result.Error)
	}

	logrus.WithFields(logrus.Fields{
		"removed":        result.RowsAffected,
		"retention_days": retentionDays,
	}).Info("Audit log cleanup finished")
	return result.RowsAffected, nil
}
