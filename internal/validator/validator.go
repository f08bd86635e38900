package validator

import (
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/table-reservation-system/internal/domain"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

const (
	ErrRequired     = "is required"
	ErrEmail        = "must be a valid email address"
	ErrMinValue     = "must be at least %s"
	ErrMaxValue     = "must be at most %s"
	ErrMinLength    = "must be at least %s characters long"
	ErrMaxLength    = "must be at most %s characters long"
	ErrOneOf        = "must be one of: %s"
	ErrTimeSlot     = "must be a half-hour slot between 11:00 and 22:00"
	ErrCouponCode   = "must be 3 to 32 letters, digits, dashes or underscores"
	ErrPhone        = "must be a valid phone number"
	ErrNotPastDate  = "must not be in the past"
	ErrInvalidValue = "is invalid"
)

var (
	couponCodeRgx = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)
	phoneRgx      = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{6,19}$`)
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("time_slot", validateTimeSlot)
	validator.RegisterValidation("coupon_code", validateCouponCode)
	validator.RegisterValidation("phone", validatePhone)
	validator.RegisterValidation("not_past_date", validateNotPastDate)

	return validator
}

func validateTimeSlot(fl validator.FieldLevel) bool {
	return domain.IsValidTimeSlot(fl.Field().String())
}

func validateCouponCode(fl validator.FieldLevel) bool {
	return couponCodeRgx.MatchString(fl.Field().String())
}

func validatePhone(fl validator.FieldLevel) bool {
	return phoneRgx.MatchString(fl.Field().String())
}

// validateNotPastDate compares calendar days only, so today is accepted.
func validateNotPastDate(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(openapi_types.Date)
	if !ok {
		return false
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	return !day.Before(today)
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	isString := err.Kind().String() == "string"

	switch err.Tag() {
	case "required":
		return ErrRequired
	case "email":
		return ErrEmail
	case "min", "gte":
		if isString {
			return fmt.Sprintf(ErrMinLength, err.Param())
		}
		return fmt.Sprintf(ErrMinValue, err.Param())
	case "max", "lte":
		if isString {
			return fmt.Sprintf(ErrMaxLength, err.Param())
		}
		return fmt.Sprintf(ErrMaxValue, err.Param())
	case "oneof":
		return fmt.Sprintf(ErrOneOf, err.Param())
	case "time_slot":
		return ErrTimeSlot
	case "coupon_code":
		return ErrCouponCode
	case "phone":
		return ErrPhone
	case "not_past_date":
		return ErrNotPastDate
	default:
		return ErrInvalidValue
	}
}
