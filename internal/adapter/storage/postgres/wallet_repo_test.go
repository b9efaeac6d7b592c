package postgres

import (
	"context"
	"testing"
	"time"

	"notehub/internal/core/domain"
	"notehub/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet(adminID uuid.UUID) *domain.Wallet {
	return domain.NewWallet(adminID, time.Now().UTC().Truncate(time.Microsecond))
}

func walletCols() []string {
	return []string{"id", "admin_id", "total_earnings", "current_balance", "pending_balance", "total_withdrawals",
		"transaction_ids", "bank_holder_name", "bank_account_enc", "bank_routing_code", "bank_name",
		"created_at", "updated_at"}
}

func walletRow(w *domain.Wallet) *pgxmock.Rows {
	var holder, accountEnc, routing, bankName *string
	if w.BankAccount != nil {
		holder = &w.BankAccount.HolderName
		accountEnc = &w.BankAccount.AccountNumberEnc
		routing = &w.BankAccount.RoutingCode
		bankName = &w.BankAccount.BankName
	}
	return pgxmock.NewRows(walletCols()).AddRow(
		w.ID, w.AdminID, w.TotalEarnings, w.CurrentBalance, w.PendingBalance, w.TotalWithdrawals,
		w.TransactionIDs, holder, accountEnc, routing, bankName, w.CreatedAt, w.UpdatedAt,
	)
}

func TestWalletRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectExec("INSERT INTO admin_wallets").
		WithArgs(w.ID, w.AdminID, int64(0), int64(0), int64(0), int64(0), w.TransactionIDs, w.CreatedAt, w.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), w))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Create_DuplicateAdmin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectExec("INSERT INTO admin_wallets").
		WithArgs(w.ID, w.AdminID, int64(0), int64(0), int64(0), int64(0), w.TransactionIDs, w.CreatedAt, w.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "admin_wallets_admin_id_key"})

	err = repo.Create(context.Background(), w)
	assert.ErrorIs(t, err, ports.ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByAdminID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())
	w.TotalEarnings = 450
	w.CurrentBalance = 450
	w.TransactionIDs = []uuid.UUID{uuid.New()}
	w.BankAccount = &domain.BankAccount{
		HolderName:       "Asha Rao",
		AccountNumberEnc: "ciphertext",
		RoutingCode:      "HDFC0001234",
		BankName:         "HDFC",
	}

	mock.ExpectQuery("SELECT .+ FROM admin_wallets WHERE admin_id").
		WithArgs(w.AdminID).
		WillReturnRows(walletRow(w))

	got, err := repo.GetByAdminID(context.Background(), w.AdminID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(450), got.CurrentBalance)
	assert.Equal(t, w.TransactionIDs, got.TransactionIDs)
	require.NotNil(t, got.BankAccount)
	assert.Equal(t, "ciphertext", got.BankAccount.AccountNumberEnc)
	assert.Equal(t, "HDFC0001234", got.BankAccount.RoutingCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByAdminID_NoBankAccount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM admin_wallets WHERE admin_id").
		WithArgs(w.AdminID).
		WillReturnRows(walletRow(w))

	got, err := repo.GetByAdminID(context.Background(), w.AdminID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.BankAccount)
	assert.NotNil(t, got.TransactionIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByAdminID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	adminID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM admin_wallets WHERE admin_id").
		WithArgs(adminID).
		WillReturnRows(pgxmock.NewRows(walletCols()))

	got, err := repo.GetByAdminID(context.Background(), adminID)
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_EnsureTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	adminID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO admin_wallets .+ ON CONFLICT \\(admin_id\\) DO NOTHING").
		WithArgs(pgxmock.AnyArg(), adminID).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	require.NoError(t, repo.EnsureTx(context.Background(), tx, adminID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Credit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	entryID := uuid.New()
	w := newTestWallet(uuid.New())
	w.TotalEarnings = 450
	w.CurrentBalance = 450
	w.TransactionIDs = []uuid.UUID{entryID}

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE admin_wallets .+ total_earnings = total_earnings \\+ .+ array_append.+ RETURNING").
		WithArgs(w.AdminID, int64(450), entryID).
		WillReturnRows(walletRow(w))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	got, err := repo.Credit(context.Background(), tx, w.AdminID, 450, entryID)
	require.NoError(t, err)
	assert.Equal(t, int64(450), got.TotalEarnings)
	assert.Equal(t, []uuid.UUID{entryID}, got.TransactionIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Credit_MissingWallet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	adminID, entryID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE admin_wallets").
		WithArgs(adminID, int64(450), entryID).
		WillReturnRows(pgxmock.NewRows(walletCols()))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	got, err := repo.Credit(context.Background(), tx, adminID, 450, entryID)
	assert.Nil(t, got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wallet not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Reserve(t *testing.T) {
	tests := []struct {
		name    string
		rows    func(w *domain.Wallet) *pgxmock.Rows
		wantNil bool
	}{
		{
			name: "sufficient balance",
			rows: func(w *domain.Wallet) *pgxmock.Rows {
				w.TotalEarnings, w.CurrentBalance, w.PendingBalance = 450, 0, 450
				return walletRow(w)
			},
		},
		{
			name:    "insufficient balance",
			rows:    func(*domain.Wallet) *pgxmock.Rows { return pgxmock.NewRows(walletCols()) },
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			repo := NewWalletRepo(mock)
			w := newTestWallet(uuid.New())

			mock.ExpectBegin()
			mock.ExpectQuery("UPDATE admin_wallets .+ WHERE admin_id = .+ AND current_balance >= .+ RETURNING").
				WithArgs(w.AdminID, int64(450)).
				WillReturnRows(tt.rows(w))

			tx, err := mock.Begin(context.Background())
			require.NoError(t, err)

			got, err := repo.Reserve(context.Background(), tx, w.AdminID, 450)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, int64(450), got.PendingBalance)
				assert.True(t, got.Consistent())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestWalletRepo_SettleAndReleaseReserved(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())
	w.TotalEarnings, w.TotalWithdrawals = 450, 450

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE admin_wallets .+ total_withdrawals = total_withdrawals \\+ .+ AND pending_balance >=").
		WithArgs(w.AdminID, int64(450)).
		WillReturnRows(walletRow(w))
	mock.ExpectQuery("UPDATE admin_wallets .+ current_balance = current_balance \\+ .+ AND pending_balance >=").
		WithArgs(w.AdminID, int64(100)).
		WillReturnRows(pgxmock.NewRows(walletCols()))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	got, err := repo.SettleReserved(context.Background(), tx, w.AdminID, 450)
	require.NoError(t, err)
	assert.Equal(t, int64(450), got.TotalWithdrawals)

	_, err = repo.ReleaseReserved(context.Background(), tx, w.AdminID, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pending balance")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_UpdateBankAccount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	adminID := uuid.New()
	bank := &domain.BankAccount{HolderName: "Asha Rao", AccountNumberEnc: "ct", RoutingCode: "HDFC0001234", BankName: "HDFC"}

	mock.ExpectExec("UPDATE admin_wallets SET bank_holder_name").
		WithArgs(adminID, "Asha Rao", "ct", "HDFC0001234", "HDFC").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE admin_wallets SET bank_holder_name").
		WithArgs(adminID, "Asha Rao", "ct", "HDFC0001234", "HDFC").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.UpdateBankAccount(context.Background(), adminID, bank))

	err = repo.UpdateBankAccount(context.Background(), adminID, bank)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wallet not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_ListOwnersWithoutWallet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT DISTINCT n.uploaded_by FROM notes n LEFT JOIN admin_wallets").
		WillReturnRows(pgxmock.NewRows([]string{"uploaded_by"}).AddRow(a).AddRow(b))

	owners, err := repo.ListOwnersWithoutWallet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, owners)
	assert.NoError(t, mock.ExpectationsWereMet())
}
