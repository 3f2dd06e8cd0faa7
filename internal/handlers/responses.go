package handlers

import (
	"net/http"

	"account-service/internal/errors"

	"github.com/labstack/echo/v4"
)

// STANDARDIZED ERROR HANDLING PATTERNS
//
// All handlers must use the following standardized error response functions:
//
// 1. SendError - For client errors and business logic errors (4xx responses)
//    Use cases:
//    - Validation errors: SendError(c, errors.ValidationGeneral, errors.WithDetails("..."))
//    - Not found errors: SendError(c, errors.AccountNotFound)
//    - Business rule violations: SendError(c, errors.AccountInvalidStatusTransition)
//    - Downstream failures: SendError(c, errors.SystemCustomerServiceUnavailable)
//
// 2. SendSystemError - For unexpected failures (SYSTEM_001, 500)
//    Storage failures tagged services.ErrStorage go out as SYSTEM_002 via
//    SendError instead. The cause is logged, never sent.
//
// DO NOT USE:
//    - echo.NewHTTPError() - Use SendError or SendSystemError instead
//    - Direct c.JSON() for errors - Use the helper functions
//    - return err without wrapping - Use SendSystemError to protect internal details

const (
	// TraceIDContextKey is the context key for storing the trace ID
	TraceIDContextKey = "trace_id"
)

// ErrorResponse is an alias for the standardized error response type
// Used for backward compatibility in tests
type ErrorResponse = errors.ErrorResponse

// Helper functions for creating standardized error responses in handlers
// These wrap the internal/errors package for convenience

// getTraceID extracts the trace ID from the Echo context, falling back to the
// response header set by the request ID middleware
func getTraceID(c echo.Context) string {
	if traceID, ok := c.Get(TraceIDContextKey).(string); ok && traceID != "" {
		return traceID
	}
	return c.Response().Header().Get("X-Trace-ID")
}

// SendError sends a standardized error response with trace ID from context
func SendError(c echo.Context, code errors.ErrorCode, opts ...errors.ErrorOption) error {
	traceID := getTraceID(c)
	errorResponse := errors.NewErrorResponse(code, traceID, opts...)
	return c.JSON(errorResponse.GetHTTPStatus(), errorResponse)
}

// SendSystemError answers with the generic SYSTEM_001 envelope. Callers log
// the cause themselves.
func SendSystemError(c echo.Context) error {
	errorResponse := errors.NewErrorResponse(errors.SystemInternalError, getTraceID(c))
	return c.JSON(http.StatusInternalServerError, errorResponse)
}
