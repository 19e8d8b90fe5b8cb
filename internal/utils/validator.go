// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var serialPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]{1,99}$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("calendar_date", validateCalendarDate)
	validate.RegisterValidation("serial_number", validateSerialNumber)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateCalendarDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

func validateSerialNumber(fl validator.FieldLevel) bool {
	return serialPattern.MatchString(fl.Field().String())
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
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "calendar_date":
		return e.Field() + " must be a date formatted as YYYY-MM-DD"
	case "serial_number":
		return "Serial number must be 2-100 characters of letters, digits, '.', '_', '/' or '-'"
	default:
		return e.Field() + " is invalid"
	}
}
