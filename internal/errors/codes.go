package errors

import "net/http"

// ErrorCode is the machine-readable code carried in every error envelope.
type ErrorCode string

const (
	ValidationGeneral       ErrorCode = "VALIDATION_001"
	ValidationInvalidFormat ErrorCode = "VALIDATION_003"
	ValidationOutOfRange    ErrorCode = "VALIDATION_004"
)

const (
	CustomerNotFound       ErrorCode = "CUSTOMER_001"
	CustomerKYCNotVerified ErrorCode = "CUSTOMER_006"
)

const (
	AccountNotFound                ErrorCode = "ACCOUNT_001"
	AccountInvalidID               ErrorCode = "ACCOUNT_002"
	AccountFieldNotUpdatable       ErrorCode = "ACCOUNT_003"
	AccountInvalidUpdate           ErrorCode = "ACCOUNT_004"
	AccountInvalidStatusTransition ErrorCode = "ACCOUNT_005"
	AccountNumberConflict          ErrorCode = "ACCOUNT_006"
)

const (
	SystemInternalError              ErrorCode = "SYSTEM_001"
	SystemDatabaseError              ErrorCode = "SYSTEM_002"
	SystemServiceUnavailable         ErrorCode = "SYSTEM_003"
	SystemRouteNotFound              ErrorCode = "SYSTEM_004"
	SystemRateLimitExceeded          ErrorCode = "SYSTEM_006"
	SystemCustomerServiceUnavailable ErrorCode = "SYSTEM_007"
	SystemCustomerServiceTimeout     ErrorCode = "SYSTEM_008"
)

type codeInfo struct {
	message string
	status  int
}

var catalogue = map[ErrorCode]codeInfo{
	ValidationGeneral:       {"Validation failed", http.StatusBadRequest},
	ValidationInvalidFormat: {"Request body is not valid JSON", http.StatusBadRequest},
	ValidationOutOfRange:    {"Request exceeds the allowed size", http.StatusRequestEntityTooLarge},

	CustomerNotFound:       {"Customer not found", http.StatusNotFound},
	CustomerKYCNotVerified: {"Customer KYC is not verified", http.StatusBadRequest},

	AccountNotFound:                {"Account not found", http.StatusNotFound},
	AccountInvalidID:               {"Invalid account ID", http.StatusBadRequest},
	AccountFieldNotUpdatable:       {"Field cannot be updated", http.StatusBadRequest},
	AccountInvalidUpdate:           {"Invalid account update", http.StatusBadRequest},
	AccountInvalidStatusTransition: {"Account status transition is not allowed", http.StatusUnprocessableEntity},
	AccountNumberConflict:          {"Could not allocate a unique account number", http.StatusConflict},

	SystemInternalError:              {"An unexpected error occurred. Please contact support with trace ID", http.StatusInternalServerError},
	SystemDatabaseError:              {"Account storage is unavailable", http.StatusInternalServerError},
	SystemServiceUnavailable:         {"Service temporarily unavailable", http.StatusServiceUnavailable},
	SystemRouteNotFound:              {"Resource not found", http.StatusNotFound},
	SystemRateLimitExceeded:          {"Rate limit exceeded. Please try again later", http.StatusTooManyRequests},
	SystemCustomerServiceUnavailable: {"Error connecting to customer service", http.StatusInternalServerError},
	SystemCustomerServiceTimeout:     {"Customer service did not respond in time", http.StatusInternalServerError},
}

// GetErrorMessage returns the default message for code.
func GetErrorMessage(code ErrorCode) string {
	if info, ok := catalogue[code]; ok {
		return info.message
	}
	return "An error occurred"
}

// GetHTTPStatus returns the status an envelope with code is sent with.
// Unregistered codes are treated as 500.
func GetHTTPStatus(code ErrorCode) int {
	if info, ok := catalogue[code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}
