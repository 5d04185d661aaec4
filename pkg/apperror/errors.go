package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Result codes shared by the ledger, the staged-confirmation workflow and the
// HTTP layer. OK is never carried by an error; it is what a nil error means.
const (
	CodeOK                    = "OK"
	CodeInvalidAccount        = "INVALID_ACCOUNT"
	CodeInsufficientFunds     = "INSUFFICIENT_FUNDS"
	CodeCurrencyMismatch      = "CURRENCY_MISMATCH"
	CodeSameAccount           = "SAME_ACCOUNT"
	CodeNotActivated          = "NOT_ACTIVATED"
	CodeIdentityProofMismatch = "IDENTITY_PROOF_MISMATCH"
	CodeNoStagedOperation     = "NO_STAGED_OPERATION"
	CodeInternal              = "INTERNAL_ERROR"

	CodeInvalidAmount      = "INVALID_AMOUNT"
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountLocked      = "ACCOUNT_LOCKED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeForbidden          = "FORBIDDEN"
	CodeRateLimit          = "RATE_LIMIT_EXCEEDED"
	CodeCardLimitReached   = "CARD_LIMIT_REACHED"
	CodeConflict           = "CONFLICT"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// CodeOf returns the result code carried by err: OK for nil, the AppError
// code when one is in the chain, INTERNAL_ERROR otherwise.
func CodeOf(err error) string {
	if err == nil {
		return CodeOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// ---- Ledger ----

func ErrInvalidAccount() *AppError {
	return New(CodeInvalidAccount, "Account does not exist or does not belong to the user", http.StatusNotFound)
}

func ErrInsufficientFunds() *AppError {
	return New(CodeInsufficientFunds, "Insufficient balance", http.StatusUnprocessableEntity)
}

func ErrCurrencyMismatch() *AppError {
	return New(CodeCurrencyMismatch, "Sender and receiver accounts use different currencies", http.StatusUnprocessableEntity)
}

func ErrSameAccount() *AppError {
	return New(CodeSameAccount, "Cannot transfer to the same account", http.StatusBadRequest)
}

func ErrNotActivated() *AppError {
	return New(CodeNotActivated, "Account is not fully activated", http.StatusForbidden)
}

// ErrAccountNotVerified shares the NOT_ACTIVATED code; only the message
// tells a pending KYC review apart from an inactive account.
func ErrAccountNotVerified() *AppError {
	return New(CodeNotActivated, "Account KYC is not verified", http.StatusForbidden)
}

func ErrInvalidAmount() *AppError {
	return New(CodeInvalidAmount, "Amount must be greater than zero", http.StatusBadRequest)
}

// ---- Staged confirmation ----

func ErrIdentityProofMismatch() *AppError {
	return New(CodeIdentityProofMismatch, "Identity proof did not match", http.StatusUnauthorized)
}

func ErrNoStagedOperation() *AppError {
	return New(CodeNoStagedOperation, "No pending operation to confirm", http.StatusNotFound)
}

// ---- Lookup ----

func ErrNotFound(entity string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrConflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

func ErrCardLimitReached(limit int) *AppError {
	return New(CodeCardLimitReached, fmt.Sprintf("A user can hold at most %d cards", limit), http.StatusUnprocessableEntity)
}

// ---- Authentication ----

func ErrInvalidCredentials() *AppError {
	return New(CodeInvalidCredentials, "Invalid credentials", http.StatusUnauthorized)
}

func ErrAccountLocked() *AppError {
	return New(CodeAccountLocked, "User is locked after too many failed login attempts", http.StatusForbidden)
}

func ErrInvalidToken() *AppError {
	return New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New(CodeForbidden, "Insufficient role for this operation", http.StatusForbidden)
}

func ErrRateLimitExceeded() *AppError {
	return New(CodeRateLimit, "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System ----

// InternalError wraps an internal error. The client only sees the generic message.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a VALIDATION_ERROR with the given message.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}
