package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (only exposed outside production)
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

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// ---- Input Validation (VAL) ----

// Validation returns an InvalidArgument error with a caller-facing message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_002", "Amount must be a positive number of minor units", http.StatusBadRequest)
}

func ErrPriceMismatch() *AppError {
	return New("VAL_003", "Amount does not match the note price", http.StatusBadRequest)
}

func ErrNoteNotPremium() *AppError {
	return New("VAL_004", "Note is not a premium note", http.StatusBadRequest)
}

func ErrNoteMismatch() *AppError {
	return New("VAL_005", "Order does not belong to this note", http.StatusBadRequest)
}

// ---- Security & Authentication (SEC) ----

func ErrInvalidSignature() *AppError {
	return New("SEC_001", "Payment verification failed", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("SEC_002", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New("SEC_003", "Insufficient role for this operation", http.StatusForbidden)
}

// ---- Payment & Wallet Business Logic (PAY) ----

func ErrInsufficientBalance() *AppError {
	return New("PAY_001", "Insufficient balance in wallet", http.StatusUnprocessableEntity)
}

func ErrNotFound(entity string) *AppError {
	return New("PAY_002", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrWithdrawalNotPending() *AppError {
	return New("PAY_003", "Withdrawal request is no longer pending", http.StatusConflict)
}

func ErrOrderNotPayable() *AppError {
	return New("PAY_004", "Payment order can no longer be completed", http.StatusConflict)
}

// ---- Payment Provider (GW) ----

func ErrGateway(err error) *AppError {
	return Wrap("GW_001", "Payment provider request failed", http.StatusBadGateway, err)
}

func ErrGatewayTimeout(err error) *AppError {
	return Wrap("GW_002", "Payment provider timed out", http.StatusGatewayTimeout, err)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_002", "Encryption service failure", http.StatusInternalServerError, err)
}
