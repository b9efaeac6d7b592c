package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("PAY_001", "Insufficient balance", http.StatusUnprocessableEntity),
			expected: "[PAY_001] Insufficient balance",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
	assert.Nil(t, New("PAY_001", "test", http.StatusBadRequest).Unwrap())
}

func TestHasCode(t *testing.T) {
	wrapped := fmt.Errorf("complete order: %w", ErrInvalidSignature())

	assert.True(t, HasCode(wrapped, "SEC_001"))
	assert.False(t, HasCode(wrapped, "PAY_001"))
	assert.False(t, HasCode(fmt.Errorf("plain"), "SEC_001"))
	assert.False(t, HasCode(nil, "SEC_001"))
}

func TestErrorTaxonomy(t *testing.T) {
	inner := fmt.Errorf("dial tcp: i/o timeout")

	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"Validation", Validation("noteId is required"), "VAL_001", 400},
		{"InvalidAmount", ErrInvalidAmount(), "VAL_002", 400},
		{"PriceMismatch", ErrPriceMismatch(), "VAL_003", 400},
		{"NoteNotPremium", ErrNoteNotPremium(), "VAL_004", 400},
		{"NoteMismatch", ErrNoteMismatch(), "VAL_005", 400},
		{"InvalidSignature", ErrInvalidSignature(), "SEC_001", 401},
		{"InvalidToken", ErrInvalidToken(), "SEC_002", 401},
		{"Forbidden", ErrForbidden(), "SEC_003", 403},
		{"InsufficientBalance", ErrInsufficientBalance(), "PAY_001", 422},
		{"NotFound", ErrNotFound("Note"), "PAY_002", 404},
		{"WithdrawalNotPending", ErrWithdrawalNotPending(), "PAY_003", 409},
		{"OrderNotPayable", ErrOrderNotPayable(), "PAY_004", 409},
		{"Gateway", ErrGateway(inner), "GW_001", 502},
		{"GatewayTimeout", ErrGatewayTimeout(inner), "GW_002", 504},
		{"RateLimit", ErrRateLimitExceeded(), "RATE_001", 429},
		{"Internal", InternalError(inner), "SYS_001", 500},
		{"Encryption", ErrEncryptionFailure(inner), "SYS_002", 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestWrappedErrorsKeepCause(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")

	assert.ErrorIs(t, InternalError(inner), inner)
	assert.ErrorIs(t, ErrGateway(inner), inner)
}

func TestNotFoundEntity(t *testing.T) {
	err := ErrNotFound("Ledger entry")
	assert.Equal(t, "Ledger entry not found", err.Message)
}
