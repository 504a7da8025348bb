// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("module_key", validateModuleKey)
	validate.RegisterValidation("tier", validateTier)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateModuleKey(fl validator.FieldLevel) bool {
	key := fl.Field().String()

	// Module keys are lowercase alphanumeric with underscores, 2-50 characters
	if len(key) < 2 || len(key) > 50 {
		return false
	}

	matched, _ := regexp.MatchString("^[a-z][a-z0-9_]*$", key)
	return matched
}

func validateTier(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "starter", "growth", "enterprise":
		return true
	default:
		return false
	}
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "uuid":
		return e.Field() + " must be a valid UUID"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "module_key":
		return "Module key must be 2-50 lowercase letters, digits, or underscores"
	case "tier":
		return "Tier must be one of: starter, growth, enterprise"
	default:
		return e.Field() + " is invalid"
	}
}
