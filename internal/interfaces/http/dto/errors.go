package dto

import (
	"net/http"

	"github.com/retailops/backend/internal/domain/shared"
)

// Transport-level error codes not produced by the domain layer
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
//
// Conflict-class failures (insufficient stock, stale version, invalid state)
// all answer 409: the request was well formed but the current state of the
// resource rejected it, and a retry after re-reading may succeed.
var ErrorCodeHTTPStatus = map[string]int{
	shared.CodeValidationError: http.StatusBadRequest,
	shared.CodeAmountMismatch:  http.StatusBadRequest,
	ErrCodeBadRequest:          http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,

	shared.CodeAccessDenied: http.StatusForbidden,

	shared.CodeNotFound:            http.StatusNotFound,
	shared.CodeTransactionNotFound: http.StatusNotFound,

	shared.CodeAlreadyExists:          http.StatusConflict,
	shared.CodeInsufficientStock:      http.StatusConflict,
	shared.CodeInsufficientAvailable:  http.StatusConflict,
	shared.CodeInvalidState:           http.StatusConflict,
	shared.CodeConcurrentModification: http.StatusConflict,

	ErrCodeInternal: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes answer 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
