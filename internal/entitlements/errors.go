// internal/entitlements/errors.go
package entitlements

import (
	"errors"

	"github.com/workstack/entitlement-backend/internal/modules"
)

var (
	ErrLicenseRequired    = errors.New("no entitlement decision attached to request")
	ErrFeatureNotLicensed = errors.New("feature is not licensed")
	ErrLicenseNotFound    = errors.New("tenant license not found")
	ErrLicenseInactive    = errors.New("tenant license is not active")
	ErrInvalidTier        = errors.New("invalid module tier")
	ErrRemoteUnavailable  = errors.New("license authority unavailable")
	ErrGraceExpired       = errors.New("offline grace period expired")
)

// Machine-readable error codes returned in denial bodies.
const (
	CodeLicenseRequired      = "LICENSE_REQUIRED"
	CodeFeatureNotLicensed   = "FEATURE_NOT_LICENSED"
	CodeLicenseNotFound      = "LICENSE_NOT_FOUND"
	CodeLicenseInactive      = "LICENSE_INACTIVE"
	CodeInvalidTier          = "INVALID_TIER"
	CodeMissingFields        = "MISSING_REQUIRED_FIELDS"
	CodeCannotDeactivateCore = "CANNOT_DEACTIVATE_CORE"
	CodeCircularDependency   = "CIRCULAR_DEPENDENCY"
	CodeMissingDependency    = "MISSING_DEPENDENCY"
	CodeRemoteUnavailable    = "REMOTE_AUTHORITY_UNAVAILABLE"
	CodeGraceExpired         = "GRACE_EXPIRED"
	CodeModuleNotFound       = "MODULE_NOT_FOUND"
	CodeActiveDependents     = "ACTIVE_DEPENDENTS"
)

// CodeFor maps a subsystem error to its machine-readable code.
func CodeFor(err error) string {
	switch {
	case errors.Is(err, ErrLicenseRequired):
		return CodeLicenseRequired
	case errors.Is(err, ErrFeatureNotLicensed):
		return CodeFeatureNotLicensed
	case errors.Is(err, ErrLicenseNotFound):
		return CodeLicenseNotFound
	case errors.Is(err, ErrLicenseInactive):
		return CodeLicenseInactive
	case errors.Is(err, ErrInvalidTier):
		return CodeInvalidTier
	case errors.Is(err, ErrRemoteUnavailable):
		return CodeRemoteUnavailable
	case errors.Is(err, ErrGraceExpired):
		return CodeGraceExpired
	case errors.Is(err, modules.ErrCannotDeactivateCore):
		return CodeCannotDeactivateCore
	case errors.Is(err, modules.ErrCircularDependency):
		return CodeCircularDependency
	case errors.Is(err, modules.ErrMissingDependency):
		return CodeMissingDependency
	case errors.Is(err, modules.ErrModuleNotFound):
		return CodeModuleNotFound
	case errors.Is(err, modules.ErrActiveDependents):
		return CodeActiveDependents
	case errors.Is(err, modules.ErrMissingRequiredFields):
		return CodeMissingFields
	default:
		return "INTERNAL_ERROR"
	}
}
