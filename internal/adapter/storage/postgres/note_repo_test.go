package postgres

import (
	"context"
	"testing"
	"time"

	"notehub/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewNoteRepo(mock)
	n := domain.Note{ID: uuid.New(), Title: "Thermodynamics Unit 3", UploadedBy: uuid.New(), IsPremium: true, Price: 500}

	mock.ExpectQuery("SELECT .+ FROM notes WHERE id").
		WithArgs(n.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "uploaded_by", "is_premium", "price", "paid_downloads"}).
			AddRow(n.ID, n.Title, n.UploadedBy, n.IsPremium, n.Price, int64(3)))

	got, err := repo.GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, n.UploadedBy, got.UploadedBy)
	assert.True(t, got.IsPremium)
	assert.Equal(t, int64(500), got.Price)
	assert.Equal(t, int64(3), got.PaidDownloads)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewNoteRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM notes WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "uploaded_by", "is_premium", "price", "paid_downloads"}))

	got, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestNoteRepo_IncrementPaidDownloads(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewNoteRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE notes SET paid_downloads = paid_downloads \\+ 1").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE notes SET paid_downloads").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	require.NoError(t, repo.IncrementPaidDownloads(context.Background(), tx, id))
	assert.Error(t, repo.IncrementPaidDownloads(context.Background(), tx, id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepo(mock)
	actor := uuid.New()
	entry := &domain.AuditLog{
		ID:           uuid.New(),
		ActorID:      &actor,
		ActorRole:    domain.RoleAdmin,
		Action:       domain.AuditActionWithdrawRequest,
		ResourceType: "wallet",
		ResourceID:   actor.String(),
		Details:      `{"status":201}`,
		IPAddress:    "10.0.0.1",
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(entry.ID, entry.ActorID, entry.ActorRole, entry.Action, entry.ResourceType,
			entry.ResourceID, entry.Details, entry.IPAddress, entry.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}
