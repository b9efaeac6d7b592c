package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notehub/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WithdrawalRepo implements ports.WithdrawalRepository.
type WithdrawalRepo struct {
	pool Pool
}

func NewWithdrawalRepo(pool Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

func (r *WithdrawalRepo) Create(ctx context.Context, tx pgx.Tx, req *domain.WithdrawalRequest) error {
	query := `INSERT INTO withdrawal_requests (id, admin_id, amount, status, created_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query, req.ID, req.AdminID, req.Amount, req.Status, req.CreatedAt, req.ResolvedAt)
	if err != nil {
		return fmt.Errorf("insert withdrawal request: %w", err)
	}
	return nil
}

func (r *WithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	query := `SELECT id, admin_id, amount, status, created_at, resolved_at FROM withdrawal_requests WHERE id = $1`

	req, err := scanWithdrawal(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get withdrawal request: %w", err)
	}
	return req, nil
}

// Resolve transitions a pending request. Only one caller can win the
// status guard; losers get nil, nil.
func (r *WithdrawalRepo) Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.WithdrawalStatus, at time.Time) (*domain.WithdrawalRequest, error) {
	query := `UPDATE withdrawal_requests SET status = $2, resolved_at = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING id, admin_id, amount, status, created_at, resolved_at`

	req, err := scanWithdrawal(tx.QueryRow(ctx, query, id, status, at))
	if err != nil {
		return nil, fmt.Errorf("resolve withdrawal request: %w", err)
	}
	return req, nil
}

func (r *WithdrawalRepo) ListByAdmin(ctx context.Context, adminID uuid.UUID) ([]domain.WithdrawalRequest, error) {
	query := `SELECT id, admin_id, amount, status, created_at, resolved_at FROM withdrawal_requests
		WHERE admin_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, adminID)
	if err != nil {
		return nil, fmt.Errorf("list withdrawal requests: %w", err)
	}
	defer rows.Close()

	reqs := []domain.WithdrawalRequest{}
	for rows.Next() {
		req, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan withdrawal row: %w", err)
		}
		reqs = append(reqs, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate withdrawal rows: %w", err)
	}
	return reqs, nil
}

func scanWithdrawal(row pgx.Row) (*domain.WithdrawalRequest, error) {
	req := &domain.WithdrawalRequest{}
	err := row.Scan(&req.ID, &req.AdminID, &req.Amount, &req.Status, &req.CreatedAt, &req.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return req, nil
}
