package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"notehub/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SignatureService handles HMAC-SHA256 signing and verification.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(subjectID uuid.UUID, role domain.Role) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	SubjectID uuid.UUID
	Role      domain.Role
}

// PaymentGateway is the payment provider boundary.
type PaymentGateway interface {
	// CreateOrder registers an order with the provider.
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error)
	// VerifyPaymentSignature checks a completion callback signature against
	// the provider's shared secret.
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	Name() string
}

// GatewayOrderRequest is the outbound order-creation payload.
type GatewayOrderRequest struct {
	Amount    int64 // minor units
	Currency  string
	ReceiptID string
}

// GatewayOrder is the provider's view of a created order.
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
	Status   string
}

// SettlementCache is the Redis-layer replay cache for completed orders (fast path).
type SettlementCache interface {
	Get(ctx context.Context, orderID string) ([]byte, error) // Returns cached result JSON or nil
	Set(ctx context.Context, orderID string, value []byte, ttl time.Duration) error
}

// --- Service Ports (Business Logic) ---

// SettlementService orchestrates order creation and payment completion.
type SettlementService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderDescriptor, error)
	CompleteOrder(ctx context.Context, req CompleteOrderRequest) (*SettlementResult, error)
	ListAdminPayments(ctx context.Context, params LedgerListParams) ([]domain.LedgerEntry, int64, error)
	ListStudentPurchases(ctx context.Context, params LedgerListParams) ([]domain.LedgerEntry, int64, error)
}

// CreateOrderRequest holds validated input for order creation.
type CreateOrderRequest struct {
	StudentID uuid.UUID
	NoteID    uuid.UUID
	Amount    int64
}

// OrderDescriptor is returned to the payer to open the provider checkout.
type OrderDescriptor struct {
	OrderID  string    `json:"orderId"`
	EntryID  uuid.UUID `json:"paymentId"`
	Amount   int64     `json:"amount"`
	Currency string    `json:"currency"`
	KeyID    string    `json:"keyId,omitempty"`
}

// CompleteOrderRequest holds the provider callback fields.
type CompleteOrderRequest struct {
	StudentID uuid.UUID
	OrderID   string
	PaymentID string
	Signature string
	NoteID    uuid.UUID
}

// SettlementResult is the outcome of a completed order.
type SettlementResult struct {
	Payment     *domain.LedgerEntry `json:"payment"`
	AdminProfit int64               `json:"adminProfit"`
	Replayed    bool                `json:"replayed"`
}

// WalletService is the single owner of wallet provisioning and crediting.
type WalletService interface {
	GetOrCreate(ctx context.Context, adminID uuid.UUID) (*domain.Wallet, error)
	// Credit adds amount inside the caller's transaction.
	Credit(ctx context.Context, tx pgx.Tx, adminID uuid.UUID, amount int64, entryID uuid.UUID) (*domain.Wallet, error)
	GetSnapshot(ctx context.Context, adminID uuid.UUID) (*WalletSnapshot, error)
	UpdateBankDetails(ctx context.Context, adminID uuid.UUID, input BankDetailsInput) (*WalletSnapshot, error)
	// Provision is the registration/login hook.
	Provision(ctx context.Context, adminID uuid.UUID) (*domain.Wallet, error)
}

// BankDetailsInput holds plaintext bank details from the admin.
type BankDetailsInput struct {
	HolderName    string
	AccountNumber string
	RoutingCode   string
	BankName      string
}

// WalletSnapshot is the admin-facing wallet view with a masked account number.
type WalletSnapshot struct {
	Wallet      *domain.Wallet   `json:"wallet"`
	BankAccount *BankAccountView `json:"bankAccount,omitempty"`
}

// BankAccountView is a bank account safe to return to clients.
type BankAccountView struct {
	HolderName    string `json:"accountHolderName"`
	AccountNumber string `json:"accountNumber"` // masked
	RoutingCode   string `json:"ifscCode"`
	BankName      string `json:"bankName"`
}

// WithdrawalService reserves and resolves withdrawals.
type WithdrawalService interface {
	RequestWithdrawal(ctx context.Context, adminID uuid.UUID, amount int64) (*WithdrawalResult, error)
	ListWithdrawals(ctx context.Context, adminID uuid.UUID) ([]domain.WithdrawalRequest, error)
	ConfirmWithdrawal(ctx context.Context, requestID uuid.UUID) (*WithdrawalResult, error)
	RejectWithdrawal(ctx context.Context, requestID uuid.UUID) (*WithdrawalResult, error)
}

// WithdrawalResult pairs a request with the wallet state after it was applied.
type WithdrawalResult struct {
	Request *domain.WithdrawalRequest `json:"request"`
	Wallet  *domain.Wallet            `json:"wallet"`
}

// AuditService records audit entries.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
