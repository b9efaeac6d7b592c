package postgres

import (
	"context"
	"errors"
	"fmt"

	"notehub/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const walletColumns = `id, admin_id, total_earnings, current_balance, pending_balance, total_withdrawals,
		transaction_ids, bank_holder_name, bank_account_enc, bank_routing_code, bank_name, created_at, updated_at`

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet. The unique index on admin_id turns a lost
// provisioning race into ports.ErrDuplicateKey.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO admin_wallets (id, admin_id, total_earnings, current_balance, pending_balance,
		total_withdrawals, transaction_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.AdminID, w.TotalEarnings, w.CurrentBalance, w.PendingBalance,
		w.TotalWithdrawals, w.TransactionIDs, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", mapInsertError(err))
	}
	return nil
}

// GetByAdminID fetches a wallet by admin id (non-locking read).
func (r *WalletRepo) GetByAdminID(ctx context.Context, adminID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM admin_wallets WHERE admin_id = $1`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, adminID))
	if err != nil {
		return nil, fmt.Errorf("get wallet by admin id: %w", err)
	}
	return w, nil
}

// EnsureTx provisions an empty wallet inside tx; an existing row is left untouched.
func (r *WalletRepo) EnsureTx(ctx context.Context, tx pgx.Tx, adminID uuid.UUID) error {
	query := `INSERT INTO admin_wallets (id, admin_id) VALUES ($1, $2) ON CONFLICT (admin_id) DO NOTHING`

	if _, err := tx.Exec(ctx, query, uuid.New(), adminID); err != nil {
		return fmt.Errorf("ensure wallet: %w", err)
	}
	return nil
}

// Credit adds amount to earnings and current balance and appends the entry
// reference in one statement.
func (r *WalletRepo) Credit(ctx context.Context, tx pgx.Tx, adminID uuid.UUID, amount int64, entryID uuid.UUID) (*domain.Wallet, error) {
	query := `UPDATE admin_wallets
		SET total_earnings = total_earnings + $2,
			current_balance = current_balance + $2,
			transaction_ids = array_append(transaction_ids, $3),
			updated_at = NOW()
		WHERE admin_id = $1
		RETURNING ` + walletColumns

	w, err := scanWallet(tx.QueryRow(ctx, query, adminID, amount, entryID))
	if err != nil {
		return nil, fmt.Errorf("credit wallet: %w", err)
	}
	if w == nil {
		return nil, fmt.Errorf("credit wallet: wallet not found for admin %s", adminID)
	}
	return w, nil
}

// Reserve moves amount from current to pending balance if the current balance
// covers it. Returns nil, nil otherwise.
func (r *WalletRepo) Reserve(ctx context.Context, tx pgx.Tx, adminID uuid.UUID, amount int64) (*domain.Wallet, error) {
	query := `UPDATE admin_wallets
		SET current_balance = current_balance - $2,
			pending_balance = pending_balance + $2,
			updated_at = NOW()
		WHERE admin_id = $1 AND current_balance >= $2
		RETURNING ` + walletColumns

	w, err := scanWallet(tx.QueryRow(ctx, query, adminID, amount))
	if err != nil {
		return nil, fmt.Errorf("reserve wallet funds: %w", err)
	}
	return w, nil
}

// SettleReserved moves amount from pending balance to total withdrawals.
func (r *WalletRepo) SettleReserved(ctx context.Context, tx pgx.Tx, adminID uuid.UUID, amount int64) (*domain.Wallet, error) {
	query := `UPDATE admin_wallets
		SET pending_balance = pending_balance - $2,
			total_withdrawals = total_withdrawals + $2,
			updated_at = NOW()
		WHERE admin_id = $1 AND pending_balance >= $2
		RETURNING ` + walletColumns

	return r.movePending(ctx, tx, query, adminID, amount, "settle reserved funds")
}

// ReleaseReserved moves amount from pending back to current balance.
func (r *WalletRepo) ReleaseReserved(ctx context.Context, tx pgx.Tx, adminID uuid.UUID, amount int64) (*domain.Wallet, error) {
	query := `UPDATE admin_wallets
		SET pending_balance = pending_balance - $2,
			current_balance = current_balance + $2,
			updated_at = NOW()
		WHERE admin_id = $1 AND pending_balance >= $2
		RETURNING ` + walletColumns

	return r.movePending(ctx, tx, query, adminID, amount, "release reserved funds")
}

func (r *WalletRepo) movePending(ctx context.Context, tx pgx.Tx, query string, adminID uuid.UUID, amount int64, op string) (*domain.Wallet, error) {
	w, err := scanWallet(tx.QueryRow(ctx, query, adminID, amount))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if w == nil {
		return nil, fmt.Errorf("%s: pending balance of admin %s below %d", op, adminID, amount)
	}
	return w, nil
}

// UpdateBankAccount replaces the bank sub-record.
func (r *WalletRepo) UpdateBankAccount(ctx context.Context, adminID uuid.UUID, bank *domain.BankAccount) error {
	query := `UPDATE admin_wallets
		SET bank_holder_name = $2, bank_account_enc = $3, bank_routing_code = $4, bank_name = $5, updated_at = NOW()
		WHERE admin_id = $1`

	tag, err := r.pool.Exec(ctx, query, adminID, bank.HolderName, bank.AccountNumberEnc, bank.RoutingCode, bank.BankName)
	if err != nil {
		return fmt.Errorf("update bank account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update bank account: wallet not found for admin %s", adminID)
	}
	return nil
}

// ListOwnersWithoutWallet returns the distinct uploaders of notes that have
// no wallet row yet.
func (r *WalletRepo) ListOwnersWithoutWallet(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT DISTINCT n.uploaded_by FROM notes n
		LEFT JOIN admin_wallets w ON w.admin_id = n.uploaded_by
		WHERE w.id IS NULL`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list owners without wallet: %w", err)
	}
	defer rows.Close()

	var owners []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owner id: %w", err)
		}
		owners = append(owners, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owner rows: %w", err)
	}
	return owners, nil
}

// scanWallet returns nil, nil when row is empty.
func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	var holder, accountEnc, routing, bankName *string
	err := row.Scan(
		&w.ID, &w.AdminID, &w.TotalEarnings, &w.CurrentBalance, &w.PendingBalance, &w.TotalWithdrawals,
		&w.TransactionIDs, &holder, &accountEnc, &routing, &bankName, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if w.TransactionIDs == nil {
		w.TransactionIDs = []uuid.UUID{}
	}
	if holder != nil {
		w.BankAccount = &domain.BankAccount{
			HolderName:       *holder,
			AccountNumberEnc: deref(accountEnc),
			RoutingCode:      deref(routing),
			BankName:         deref(bankName),
		}
	}
	return w, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
