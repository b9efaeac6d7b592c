package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionOrderCreate       AuditAction = "ORDER_CREATE"
	AuditActionPaymentVerify     AuditAction = "PAYMENT_VERIFY"
	AuditActionWalletInit        AuditAction = "WALLET_INIT"
	AuditActionBankDetailsUpdate AuditAction = "BANK_DETAILS_UPDATE"
	AuditActionWithdrawRequest   AuditAction = "WITHDRAW_REQUEST"
	AuditActionPayoutConfirm     AuditAction = "PAYOUT_CONFIRM"
	AuditActionPayoutReject      AuditAction = "PAYOUT_REJECT"
)

// AuditLog records a single audited action.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	ActorID      *uuid.UUID  `json:"actor_id,omitempty"`
	ActorRole    Role        `json:"actor_role,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
