package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerStatus represents the lifecycle state of a ledger entry.
type LedgerStatus string

const (
	LedgerStatusPending   LedgerStatus = "pending"
	LedgerStatusCompleted LedgerStatus = "completed"
	LedgerStatusFailed    LedgerStatus = "failed"
)

var (
	// ErrEntryNotPending is returned when a completion is applied to an entry
	// that has already left the pending state.
	ErrEntryNotPending = errors.New("ledger entry is not pending")
	// ErrFeeSplitMismatch is returned when platform fee and admin profit do
	// not add up to the entry amount.
	ErrFeeSplitMismatch = errors.New("fee split does not add up to amount")
)

// LedgerEntry records one payment attempt and, once completed, its fee split.
// Entries are never deleted.
type LedgerEntry struct {
	ID                uuid.UUID    `json:"id"`
	StudentID         uuid.UUID    `json:"studentId"`
	NoteID            uuid.UUID    `json:"noteId"`
	Amount            int64        `json:"amount"` // minor units
	Currency          string       `json:"currency"`
	ProviderOrderID   string       `json:"providerOrderId"`
	ProviderPaymentID *string      `json:"providerPaymentId,omitempty"`
	ProviderSignature *string      `json:"-"`
	Status            LedgerStatus `json:"status"`
	PlatformFee       int64        `json:"platformFee"`
	AdminProfit       int64        `json:"adminProfit"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
	CompletedAt       *time.Time   `json:"completedAt,omitempty"`
}

// NewPendingEntry builds a pending entry for a freshly created provider order.
func NewPendingEntry(studentID, noteID uuid.UUID, amount int64, currency, providerOrderID string, now time.Time) *LedgerEntry {
	return &LedgerEntry{
		ID:              uuid.New(),
		StudentID:       studentID,
		NoteID:          noteID,
		Amount:          amount,
		Currency:        currency,
		ProviderOrderID: providerOrderID,
		Status:          LedgerStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsCompleted returns true once the entry has been settled.
func (e *LedgerEntry) IsCompleted() bool {
	return e.Status == LedgerStatusCompleted
}

// Complete applies the single pending -> completed transition.
func (e *LedgerEntry) Complete(paymentID, signature string, split FeeSplit, at time.Time) error {
	if e.Status != LedgerStatusPending {
		return fmt.Errorf("%w: status %s", ErrEntryNotPending, e.Status)
	}
	if split.PlatformFee+split.AdminProfit != e.Amount {
		return ErrFeeSplitMismatch
	}

	e.ProviderPaymentID = &paymentID
	e.ProviderSignature = &signature
	e.PlatformFee = split.PlatformFee
	e.AdminProfit = split.AdminProfit
	e.Status = LedgerStatusCompleted
	e.UpdatedAt = at
	e.CompletedAt = &at
	return nil
}

// Validate checks the structural invariants of an entry.
func (e *LedgerEntry) Validate() error {
	if e.Amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", e.Amount)
	}
	if e.ProviderOrderID == "" {
		return errors.New("provider order id is required")
	}
	switch e.Status {
	case LedgerStatusPending, LedgerStatusFailed:
		return nil
	case LedgerStatusCompleted:
		if e.ProviderPaymentID == nil || *e.ProviderPaymentID == "" {
			return errors.New("completed entry requires provider payment id")
		}
		if e.PlatformFee+e.AdminProfit != e.Amount {
			return ErrFeeSplitMismatch
		}
		return nil
	default:
		return fmt.Errorf("unknown ledger status %q", e.Status)
	}
}

// FeeSplit is the division of a payment between platform and note owner.
type FeeSplit struct {
	PlatformFee int64 `json:"platformFee"`
	AdminProfit int64 `json:"adminProfit"`
}

var hundred = decimal.NewFromInt(100)

// ComputeFeeSplit rounds amount*pct/100 half-up to the minor unit.
// amount must be non-negative.
func ComputeFeeSplit(amount int64, pct decimal.Decimal) FeeSplit {
	fee := decimal.NewFromInt(amount).Mul(pct).Div(hundred).Round(0).IntPart()
	return FeeSplit{
		PlatformFee: fee,
		AdminProfit: amount - fee,
	}
}

// PaymentSignaturePayload is the message the provider signs when it reports
// a completed payment.
func PaymentSignaturePayload(orderID, paymentID string) string {
	return orderID + "|" + paymentID
}
