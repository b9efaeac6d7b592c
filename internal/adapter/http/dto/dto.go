package dto

import "time"

// CreateOrderRequest is the request body for starting a note purchase.
type CreateOrderRequest struct {
	NoteID string `json:"noteId" binding:"required,uuid"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
}

// VerifyPaymentRequest carries the provider checkout callback fields.
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpayOrderId" binding:"required,max=64,provider_id"`
	PaymentID string `json:"razorpayPaymentId" binding:"required,max=64,provider_id"`
	Signature string `json:"razorpaySignature" binding:"required,hexadecimal,max=128"`
	NoteID    string `json:"noteId" binding:"required,uuid"`
}

// BankDetailsRequest is the request body for updating payout bank details.
type BankDetailsRequest struct {
	AccountHolderName string `json:"accountHolderName" binding:"required,min=2,max=100"`
	AccountNumber     string `json:"accountNumber" binding:"required,numeric,min=6,max=20"`
	IFSCCode          string `json:"ifscCode" binding:"required,routing_code"`
	BankName          string `json:"bankName" binding:"required,min=2,max=100"`
}

// WithdrawRequest is the request body for a withdrawal.
type WithdrawRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// PageQuery holds pagination query parameters.
type PageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// LedgerEntryResponse is a ledger entry as returned to clients.
type LedgerEntryResponse struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"studentId"`
	NoteID      string     `json:"noteId"`
	Amount      int64      `json:"amount"`
	Currency    string     `json:"currency"`
	OrderID     string     `json:"orderId"`
	PaymentID   *string    `json:"paymentId,omitempty"`
	Status      string     `json:"status"`
	PlatformFee int64      `json:"platformFee"`
	AdminProfit int64      `json:"adminProfit"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// VerifyPaymentResponse is the response body for a completed payment.
type VerifyPaymentResponse struct {
	Payment     LedgerEntryResponse `json:"payment"`
	AdminProfit int64               `json:"adminProfit"`
	Replayed    bool                `json:"replayed"`
}

// LedgerListResponse wraps a paginated ledger entry list.
type LedgerListResponse struct {
	Items      []LedgerEntryResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// WithdrawalResponse is a withdrawal request as returned to clients.
type WithdrawalResponse struct {
	ID         string     `json:"id"`
	AdminID    string     `json:"adminId"`
	Amount     int64      `json:"amount"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}
