package postgres

import (
	"context"
	"errors"
	"fmt"

	"notehub/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// NoteRepo reads the notes table owned by the notes service.
type NoteRepo struct {
	pool Pool
}

func NewNoteRepo(pool Pool) *NoteRepo {
	return &NoteRepo{pool: pool}
}

func (r *NoteRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	query := `SELECT id, title, uploaded_by, is_premium, price, paid_downloads FROM notes WHERE id = $1`

	n := &domain.Note{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&n.ID, &n.Title, &n.UploadedBy, &n.IsPremium, &n.Price, &n.PaidDownloads,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get note by id: %w", err)
	}
	return n, nil
}

// IncrementPaidDownloads bumps the paid-download counter inside tx.
func (r *NoteRepo) IncrementPaidDownloads(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `UPDATE notes SET paid_downloads = paid_downloads + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment paid downloads: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("increment paid downloads: note not found: %s", id)
	}
	return nil
}
