// internal/services/audit_service_test.go
package services

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"

	"github.com/workstack/entitlement-backend/internal/models"
)

// capturedStatement records the SQL gorm generates without executing it.
type capturedStatement struct {
	SQL  string
	Vars []interface{}
}

// dryRunAuditService returns an AuditService over a dry-run gorm session so
// generated statements can be asserted without a database.
func dryRunAuditService(t *testing.T) (*AuditService, *[]capturedStatement) {
	t.Helper()

	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	captured := &[]capturedStatement{}
	capture := func(tx *gorm.DB) {
		*captured = append(*captured, capturedStatement{
			SQL:  tx.Statement.SQL.String(),
			Vars: append([]interface{}(nil), tx.Statement.Vars...),
		})
	}
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("capture_query", capture))
	require.NoError(t, db.Callback().Delete().After("gorm:delete").Register("capture_delete", capture))
	require.NoError(t, db.Callback().Raw().After("gorm:raw").Register("capture_raw", capture))

	return NewAuditService(db), captured
}

func TestSeverityAssignment(t *testing.T) {
	cases := []struct {
		eventType models.AuditEventType
		want      models.AuditSeverity
	}{
		{models.AuditEventValidationSuccess, models.AuditSeverityInfo},
		{models.AuditEventModuleActivated, models.AuditSeverityInfo},
		{models.AuditEventModuleDeactivated, models.AuditSeverityInfo},
		{models.AuditEventLicenseUpdated, models.AuditSeverityInfo},
		{models.AuditEventValidationFailure, models.AuditSeverityWarning},
		{models.AuditEventLimitWarning, models.AuditSeverityWarning},
		{models.AuditEventLimitExceeded, models.AuditSeverityCritical},
		{models.AuditEventLicenseExpired, models.AuditSeverityCritical},
	}

	for _, tc := range cases {
		t.Run(string(tc.eventType), func(t *testing.T) {
			assert.Equal(t, tc.want, severityFor(tc.eventType))
		})
	}
}

func TestCleanupRejectsNonPositiveRetention(t *testing.T) {
	svc := NewAuditService(nil)

	_, err := svc.CleanupOldLogs(0)
	assert.Error(t, err)

	_, err = svc.CleanupOldLogs(-7)
	assert.Error(t, err)
}

func TestCleanupExemptsCriticalEvents(t *testing.T) {
	svc, captured := dryRunAuditService(t)

	_, err := svc.CleanupOldLogs(30)
	require.NoError(t, err)
	require.Len(t, *captured, 1)

	stmt := (*captured)[0]
	assert.True(t, strings.HasPrefix(stmt.SQL, "DELETE"), "cleanup must hard-delete, got: %s", stmt.SQL)
	assert.Contains(t, stmt.SQL, "created_at < ?")
	assert.Contains(t, stmt.SQL, "severity != ?")
	assert.NotContains(t, stmt.SQL, "deleted_at", "cleanup must bypass soft-delete scoping")

	require.Len(t, stmt.Vars, 2)
	cutoff, ok := stmt.Vars[0].(time.Time)
	require.True(t, ok)
	assert.True(t, cutoff.Before(time.Now().AddDate(0, 0, -29)))
	assert.Equal(t, models.AuditSeverityCritical, stmt.Vars[1])
}

func TestStatisticsUseGroupedAggregation(t *testing.T) {
	svc, captured := dryRunAuditService(t)

	_, err := svc.GetStatistics(nil)
	require.NoError(t, err)

	// One total count plus one grouped query per dimension; never a count per
	// severity/type value.
	require.Len(t, *captured, 3)
	assert.Contains(t, (*captured)[0].SQL, "count(*)")
	assert.Contains(t, (*captured)[1].SQL, "GROUP BY")
	assert.Contains(t, (*captured)[1].SQL, "severity")
	assert.Contains(t, (*captured)[2].SQL, "GROUP BY")
	assert.Contains(t, (*captured)[2].SQL, "event_type")
}

func TestStatisticsScopedToTenant(t *testing.T) {
	svc, captured := dryRunAuditService(t)
	tenantID := uuid.New()

	_, err := svc.GetStatistics(&tenantID)
	require.NoError(t, err)

	require.Len(t, *captured, 3)
	for _, stmt := range *captured {
		assert.Contains(t, stmt.SQL, "tenant_id = ?")
		assert.Contains(t, stmt.Vars, tenantID)
	}
}

func TestViolationsLimitClamped(t *testing.T) {
	svc, captured := dryRunAuditService(t)

	_, err := svc.GetRecentViolations(nil, 999)
	require.NoError(t, err)
	require.Len(t, *captured, 1)

	stmt := (*captured)[0]
	assert.Contains(t, stmt.SQL, "LIMIT")
	assert.Contains(t, stmt.Vars, 50)
	assert.NotContains(t, stmt.Vars, 999)
}
