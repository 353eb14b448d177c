package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes used across the ledger and billing engines
const (
	CodeNotFound               = "NOT_FOUND"
	CodeAlreadyExists          = "ALREADY_EXISTS"
	CodeValidationError        = "VALIDATION_ERROR"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeInsufficientAvailable  = "INSUFFICIENT_AVAILABLE"
	CodeAccessDenied           = "ACCESS_DENIED"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeTransactionNotFound    = "TRANSACTION_NOT_FOUND"
	CodeAmountMismatch         = "AMOUNT_MISMATCH"
	CodeInvalidState           = "INVALID_STATE"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrValidation          = NewDomainError(CodeValidationError, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrentModification, "Resource was modified by another process")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")

	// ErrAccessDenied deliberately carries the same generic message regardless of
	// whether the target exists in another tenant, so cross-tenant probing reveals
	// nothing about foreign resources.
	ErrAccessDenied = NewDomainError(CodeAccessDenied, "Access denied")

	ErrTransactionNotFound = NewDomainError(CodeTransactionNotFound, "Transaction not found")
	ErrAmountMismatch      = NewDomainError(CodeAmountMismatch, "Payment amount does not match transaction total")
)
