package postgres

import (
	"context"
	"errors"
	"fmt"

	"notehub/internal/core/domain"
	"notehub/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

const ledgerColumns = `id, student_id, note_id, amount, currency, provider_order_id, provider_payment_id,
		provider_signature, status, platform_fee, admin_profit, created_at, updated_at, completed_at`

// LedgerRepo implements ports.LedgerRepository.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// Create inserts a pending entry. A second entry for the same provider order
// id fails with ports.ErrDuplicateKey.
func (r *LedgerRepo) Create(ctx context.Context, e *domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.pool.Exec(ctx, query,
		e.ID, e.StudentID, e.NoteID, e.Amount, e.Currency, e.ProviderOrderID, e.ProviderPaymentID,
		e.ProviderSignature, e.Status, e.PlatformFee, e.AdminProfit, e.CreatedAt, e.UpdatedAt, e.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", mapInsertError(err))
	}
	return nil
}

// GetByOrderID fetches an entry by provider order id (non-locking read).
func (r *LedgerRepo) GetByOrderID(ctx context.Context, providerOrderID string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE provider_order_id = $1`

	e, err := scanLedgerEntry(r.pool.QueryRow(ctx, query, providerOrderID))
	if err != nil {
		return nil, fmt.Errorf("get ledger entry by order id: %w", err)
	}
	return e, nil
}

// GetByOrderIDForUpdate fetches an entry and locks its row.
// This MUST be called within a transaction.
func (r *LedgerRepo) GetByOrderIDForUpdate(ctx context.Context, tx pgx.Tx, providerOrderID string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE provider_order_id = $1 FOR UPDATE`

	e, err := scanLedgerEntry(tx.QueryRow(ctx, query, providerOrderID))
	if err != nil {
		return nil, fmt.Errorf("get ledger entry for update: %w", err)
	}
	return e, nil
}

// MarkCompleted writes the completion fields. The status guard makes a second
// completion of the same row a no-op that surfaces as an error.
func (r *LedgerRepo) MarkCompleted(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	query := `UPDATE ledger_entries
		SET status = $2, provider_payment_id = $3, provider_signature = $4,
			platform_fee = $5, admin_profit = $6, updated_at = $7, completed_at = $8
		WHERE id = $1 AND status = 'pending'`

	tag, err := tx.Exec(ctx, query,
		e.ID, e.Status, e.ProviderPaymentID, e.ProviderSignature,
		e.PlatformFee, e.AdminProfit, e.UpdatedAt, e.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("mark ledger entry completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger entry %s: %w", e.ID, domain.ErrEntryNotPending)
	}
	return nil
}

// ListByAdmin lists entries for notes uploaded by params.OwnerID.
func (r *LedgerRepo) ListByAdmin(ctx context.Context, params ports.LedgerListParams) ([]domain.LedgerEntry, int64, error) {
	from := `FROM ledger_entries l JOIN notes n ON n.id = l.note_id WHERE n.uploaded_by = $1`
	return r.list(ctx, from, params)
}

// ListByStudent lists entries paid by params.OwnerID.
func (r *LedgerRepo) ListByStudent(ctx context.Context, params ports.LedgerListParams) ([]domain.LedgerEntry, int64, error) {
	from := `FROM ledger_entries l WHERE l.student_id = $1`
	return r.list(ctx, from, params)
}

func (r *LedgerRepo) list(ctx context.Context, from string, params ports.LedgerListParams) ([]domain.LedgerEntry, int64, error) {
	args := []any{params.OwnerID}
	if params.Status != nil {
		from += " AND l.status = $2"
		args = append(args, *params.Status)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+from, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ledger entries: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT l.id, l.student_id, l.note_id, l.amount, l.currency, l.provider_order_id,
		l.provider_payment_id, l.provider_signature, l.status, l.platform_fee, l.admin_profit,
		l.created_at, l.updated_at, l.completed_at
		%s ORDER BY l.created_at DESC LIMIT $%d OFFSET $%d`, from, len(args)+1, len(args)+2)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.LedgerEntry{}
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan ledger row: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate ledger rows: %w", err)
	}
	return entries, total, nil
}

// scanLedgerEntry returns nil, nil when row is empty.
func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	e := &domain.LedgerEntry{}
	err := row.Scan(
		&e.ID, &e.StudentID, &e.NoteID, &e.Amount, &e.Currency, &e.ProviderOrderID, &e.ProviderPaymentID,
		&e.ProviderSignature, &e.Status, &e.PlatformFee, &e.AdminProfit, &e.CreatedAt, &e.UpdatedAt, &e.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}
