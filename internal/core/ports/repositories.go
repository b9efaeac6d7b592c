package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"notehub/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrDuplicateKey is returned by repositories when an insert hits a unique
// constraint (ledger order id, wallet admin id).
var ErrDuplicateKey = errors.New("duplicate key")

// LedgerRepository defines persistence operations for ledger entries.
// Methods accepting pgx.Tx run inside the settlement transaction.
type LedgerRepository interface {
	Create(ctx context.Context, entry *domain.LedgerEntry) error
	GetByOrderID(ctx context.Context, providerOrderID string) (*domain.LedgerEntry, error)
	// GetByOrderIDForUpdate row-locks the entry until tx ends.
	GetByOrderIDForUpdate(ctx context.Context, tx pgx.Tx, providerOrderID string) (*domain.LedgerEntry, error)
	// MarkCompleted persists a completed entry; it fails unless the stored
	// row is still pending.
	MarkCompleted(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error
	ListByAdmin(ctx context.Context, params LedgerListParams) ([]domain.LedgerEntry, int64, error)
	ListByStudent(ctx context.Context, params LedgerListParams) ([]domain.LedgerEntry, int64, error)
}

// LedgerListParams holds owner filter + pagination for ledger history.
type LedgerListParams struct {
	OwnerID  uuid.UUID // admin id for ListByAdmin, student id for ListByStudent
	Status   *domain.LedgerStatus
	Page     int
	PageSize int
}

// WalletRepository defines persistence operations for admin wallets.
// Balance mutations are single conditional UPDATEs so concurrent writers
// serialize on the wallet row.
type WalletRepository interface {
	// Create inserts a new wallet. Returns ErrDuplicateKey if the admin
	// already has one.
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByAdminID(ctx context.Context, adminID uuid.UUID) (*domain.Wallet, error)
	// EnsureTx provisions the wallet inside tx if absent (no-op otherwise).
	EnsureTx(ctx context.Context, tx pgx.Tx, adminID uuid.UUID) error
	Credit(ctx context.Context, tx pgx.Tx, adminID uuid.UUID, amount int64, entryID uuid.UUID) (*domain.Wallet, error)
	// Reserve moves amount from current to pending balance. Returns nil, nil
	// when the current balance is too low.
	Reserve(ctx context.Context, tx pgx.Tx, adminID uuid.UUID, amount int64) (*domain.Wallet, error)
	// SettleReserved moves amount from pending balance to total withdrawals.
	SettleReserved(ctx context.Context, tx pgx.Tx, adminID uuid.UUID, amount int64) (*domain.Wallet, error)
	// ReleaseReserved moves amount from pending back to current balance.
	ReleaseReserved(ctx context.Context, tx pgx.Tx, adminID uuid.UUID, amount int64) (*domain.Wallet, error)
	UpdateBankAccount(ctx context.Context, adminID uuid.UUID, bank *domain.BankAccount) error
	// ListOwnersWithoutWallet returns note owners that have no wallet yet.
	ListOwnersWithoutWallet(ctx context.Context) ([]uuid.UUID, error)
}

// WithdrawalRepository defines persistence for withdrawal requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, tx pgx.Tx, req *domain.WithdrawalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error)
	// Resolve moves a pending request to status. Returns nil, nil if the
	// request is missing or no longer pending.
	Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.WithdrawalStatus, at time.Time) (*domain.WithdrawalRequest, error)
	ListByAdmin(ctx context.Context, adminID uuid.UUID) ([]domain.WithdrawalRequest, error)
}

// NoteRepository is the settlement view of the notes collaborator.
type NoteRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error)
	IncrementPaidDownloads(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// AuditRepository persists audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
