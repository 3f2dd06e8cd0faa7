package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"account-service/internal/models"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator with custom rules and error formatting
type Validator struct {
	validate *validator.Validate
}

// GetValidate returns the underlying validator.Validate instance for use with Echo
func (v *Validator) GetValidate() *validator.Validate {
	return v.validate
}

var (
	instance *Validator
	once     sync.Once
)

// GetValidator returns the shared validator instance
func GetValidator() *Validator {
	once.Do(func() {
		instance = NewValidator()
	})
	return instance
}

// NewValidator creates a new validator instance with custom rules and configuration
func NewValidator() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("account_number", validateAccountNumber)
	_ = v.RegisterValidation("account_type", validateAccountType)
	_ = v.RegisterValidation("account_status", validateAccountStatus)
	_ = v.RegisterValidation("currency_code", validateCurrencyCode)
	_ = v.RegisterValidation("customer_id", validateCustomerID)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Struct validates a struct against its validate tags
func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

// Var validates a single value against a tag expression
func (v *Validator) Var(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

// FormatErrors turns validator errors into "field: message" details.
// Any other error is returned as its message.
func FormatErrors(err error) []string {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	details := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		details = append(details, fmt.Sprintf("%s: %s", fe.Field(), describe(fe)))
	}
	sort.Strings(details)
	return details
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "account_type":
		return "must be one of " + joinTypes(models.AccountTypes())
	case "account_status":
		return "must be one of " + joinStatuses(models.AccountStatuses())
	case "currency_code":
		return "must be 3 to 5 uppercase letters"
	case "account_number":
		return "must be 12 digits"
	case "customer_id":
		return "must be a non-blank identifier of at most 36 characters"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func joinTypes(types []models.AccountType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func joinStatuses(statuses []models.AccountStatus) string {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Custom validation functions

// validateAccountNumber validates that an account number is 12 digits without a leading zero
func validateAccountNumber(fl validator.FieldLevel) bool {
	return models.ValidateAccountNumber(fl.Field().String())
}

// validateAccountType validates that account type is one of the supported products.
// Matching is exact; lowercase names are rejected.
func validateAccountType(fl validator.FieldLevel) bool {
	return models.AccountType(fl.Field().String()).IsValid()
}

// validateAccountStatus validates that status is a known lifecycle state
func validateAccountStatus(fl validator.FieldLevel) bool {
	return models.AccountStatus(fl.Field().String()).IsValid()
}

func validateCurrencyCode(fl validator.FieldLevel) bool {
	return models.IsValidCurrency(fl.Field().String())
}

// validateCustomerID accepts any opaque identifier of at most 36 characters that is not blank
func validateCustomerID(fl validator.FieldLevel) bool {
	customerID := fl.Field().String()
	return strings.TrimSpace(customerID) != "" && len(customerID) <= 36
}
