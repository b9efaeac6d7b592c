package domain

import (
	"time"

	"github.com/google/uuid"
)

// Wallet is an admin's accumulated-earnings record. One per admin.
type Wallet struct {
	ID               uuid.UUID    `json:"id"`
	AdminID          uuid.UUID    `json:"adminId"`
	TotalEarnings    int64        `json:"totalEarnings"`
	CurrentBalance   int64        `json:"currentBalance"`
	PendingBalance   int64        `json:"pendingBalance"`
	TotalWithdrawals int64        `json:"totalWithdrawals"`
	TransactionIDs   []uuid.UUID  `json:"transactions"`
	BankAccount      *BankAccount `json:"-"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// BankAccount holds payout details. AccountNumberEnc is AES-GCM ciphertext.
type BankAccount struct {
	HolderName       string `json:"accountHolderName"`
	AccountNumberEnc string `json:"-"`
	RoutingCode      string `json:"ifscCode"`
	BankName         string `json:"bankName"`
}

// NewWallet returns an empty wallet for adminID.
func NewWallet(adminID uuid.UUID, now time.Time) *Wallet {
	return &Wallet{
		ID:             uuid.New(),
		AdminID:        adminID,
		TransactionIDs: []uuid.UUID{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Consistent reports whether the balance identity holds:
// current + pending + withdrawals == earnings, with no negative bucket.
func (w *Wallet) Consistent() bool {
	if w.CurrentBalance < 0 || w.PendingBalance < 0 || w.TotalWithdrawals < 0 {
		return false
	}
	return w.CurrentBalance+w.PendingBalance+w.TotalWithdrawals == w.TotalEarnings
}
