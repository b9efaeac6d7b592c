package domain

import (
	"time"

	"github.com/google/uuid"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusPaid     WithdrawalStatus = "paid"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

// WithdrawalRequest reserves funds moved from current to pending balance
// until an operator pays it out or rejects it.
type WithdrawalRequest struct {
	ID         uuid.UUID        `json:"id"`
	AdminID    uuid.UUID        `json:"adminId"`
	Amount     int64            `json:"amount"`
	Status     WithdrawalStatus `json:"status"`
	CreatedAt  time.Time        `json:"createdAt"`
	ResolvedAt *time.Time       `json:"resolvedAt,omitempty"`
}

func (r *WithdrawalRequest) IsPending() bool {
	return r.Status == WithdrawalStatusPending
}
