// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"
	KeyWarning = "warning"
	KeyInfo    = "info"

	// Authentication
	KeyAuthRequired      = "auth.required"
	KeyAuthInvalidToken  = "auth.invalid_token"
	KeyAuthTokenExpired  = "auth.token_expired"
	KeyAdminAccessDenied = "auth.admin_access_denied"

	// Licenses & entitlements
	KeyLicenseRequired     = "license.required"
	KeyLicenseNotFound     = "license.not_found"
	KeyLicenseExpired      = "license.expired"
	KeyLicenseInactive     = "license.inactive"
	KeyLicenseGraceExpired = "license.grace_expired"
	KeyLicenseDegraded     = "license.degraded_mode"
	KeyFeatureNotLicensed  = "feature.not_licensed"

	// Modules
	KeyModuleNotFound          = "module.not_found"
	KeyModuleEnabled           = "module.enabled"
	KeyModuleDisabled          = "module.disabled"
	KeyModuleMissingDependency = "module.missing_dependency"
	KeyModuleActiveDependents  = "module.active_dependents"
	KeyModuleCircular          = "module.circular_dependency"
	KeyModuleCoreProtected     = "module.core_protected"

	// Audit
	KeyAuditNotFound    = "audit.not_found"
	KeyAuditCleanupDone = "audit.cleanup_done"

	// Validation
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationRequired = "validation.required"

	// Rate Limiting
	KeyRateLimitExceeded = "rate_limit.exceeded"

	// Errors
	KeyErrorInternal     = "error.internal"
	KeyErrorNotFound     = "error.not_found"
	KeyErrorUnauthorized = "error.unauthorized"
	KeyErrorForbidden    = "error.forbidden"
)
