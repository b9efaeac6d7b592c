package service

import (
	"context"
	"fmt"
	"time"

	"notehub/internal/core/domain"
	"notehub/internal/core/ports"
	"notehub/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// WithdrawalServiceImpl implements ports.WithdrawalService.
type WithdrawalServiceImpl struct {
	walletSvc      ports.WalletService
	walletRepo     ports.WalletRepository
	withdrawalRepo ports.WithdrawalRepository
	transactor     ports.DBTransactor
	log            zerolog.Logger
	now            func() time.Time
}

func NewWithdrawalService(
	walletSvc ports.WalletService,
	walletRepo ports.WalletRepository,
	withdrawalRepo ports.WithdrawalRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WithdrawalServiceImpl {
	return &WithdrawalServiceImpl{
		walletSvc:      walletSvc,
		walletRepo:     walletRepo,
		withdrawalRepo: withdrawalRepo,
		transactor:     transactor,
		log:            log,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// RequestWithdrawal moves amount from current to pending balance and
// records a pending request, both in one transaction.
func (s *WithdrawalServiceImpl) RequestWithdrawal(ctx context.Context, adminID uuid.UUID, amount int64) (*ports.WithdrawalResult, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	if _, err := s.walletSvc.GetOrCreate(ctx, adminID); err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.Reserve(ctx, dbTx, adminID, amount)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("reserve balance: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrInsufficientBalance()
	}

	req := &domain.WithdrawalRequest{
		ID:        uuid.New(),
		AdminID:   adminID,
		Amount:    amount,
		Status:    domain.WithdrawalStatusPending,
		CreatedAt: s.now(),
	}
	if err := s.withdrawalRepo.Create(ctx, dbTx, req); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create withdrawal request: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("admin_id", adminID.String()).
		Str("request_id", req.ID.String()).
		Int64("amount", amount).
		Int64("current_balance", wallet.CurrentBalance).
		Msg("withdrawal requested")

	return &ports.WithdrawalResult{Request: req, Wallet: wallet}, nil
}

func (s *WithdrawalServiceImpl) ListWithdrawals(ctx context.Context, adminID uuid.UUID) ([]domain.WithdrawalRequest, error) {
	reqs, err := s.withdrawalRepo.ListByAdmin(ctx, adminID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list withdrawals: %w", err))
	}
	return reqs, nil
}

// ConfirmWithdrawal marks a request paid: pending -> total withdrawals.
func (s *WithdrawalServiceImpl) ConfirmWithdrawal(ctx context.Context, requestID uuid.UUID) (*ports.WithdrawalResult, error) {
	return s.resolve(ctx, requestID, domain.WithdrawalStatusPaid, s.walletRepo.SettleReserved)
}

// RejectWithdrawal returns reserved funds: pending -> current.
func (s *WithdrawalServiceImpl) RejectWithdrawal(ctx context.Context, requestID uuid.UUID) (*ports.WithdrawalResult, error) {
	return s.resolve(ctx, requestID, domain.WithdrawalStatusRejected, s.walletRepo.ReleaseReserved)
}

type balanceMove func(ctx context.Context, tx pgx.Tx, adminID uuid.UUID, amount int64) (*domain.Wallet, error)

func (s *WithdrawalServiceImpl) resolve(ctx context.Context, requestID uuid.UUID, status domain.WithdrawalStatus, move balanceMove) (*ports.WithdrawalResult, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	req, err := s.withdrawalRepo.Resolve(ctx, dbTx, requestID, status, s.now())
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve withdrawal: %w", err))
	}
	if req == nil {
		existing, err := s.withdrawalRepo.GetByID(ctx, requestID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("get withdrawal: %w", err))
		}
		if existing == nil {
			return nil, apperror.ErrNotFound("Withdrawal request")
		}
		return nil, apperror.ErrWithdrawalNotPending()
	}

	wallet, err := move(ctx, dbTx, req.AdminID, req.Amount)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("move reserved balance: %w", err))
	}
	if wallet == nil {
		return nil, apperror.InternalError(fmt.Errorf("pending balance of admin %s below reserved amount %d", req.AdminID, req.Amount))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("request_id", req.ID.String()).
		Str("admin_id", req.AdminID.String()).
		Str("status", string(req.Status)).
		Int64("amount", req.Amount).
		Msg("withdrawal resolved")

	return &ports.WithdrawalResult{Request: req, Wallet: wallet}, nil
}
