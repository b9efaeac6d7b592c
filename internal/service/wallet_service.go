package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"notehub/internal/core/domain"
	"notehub/internal/core/ports"
	"notehub/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// WalletServiceImpl implements ports.WalletService. It is the only place
// wallets are created, so every lazy-provisioning path ends up in GetOrCreate.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	encSvc     ports.EncryptionService
	log        zerolog.Logger
	now        func() time.Time
}

func NewWalletService(walletRepo ports.WalletRepository, encSvc ports.EncryptionService, log zerolog.Logger) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		encSvc:     encSvc,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreate returns the admin's wallet, creating an empty one if needed.
// Concurrent first calls race on the unique admin_id index; the loser
// re-reads the winner's row.
func (s *WalletServiceImpl) GetOrCreate(ctx context.Context, adminID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByAdminID(ctx, adminID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet != nil {
		return wallet, nil
	}

	wallet = domain.NewWallet(adminID, s.now())
	err = s.walletRepo.Create(ctx, wallet)
	switch {
	case errors.Is(err, ports.ErrDuplicateKey):
		existing, err := s.walletRepo.GetByAdminID(ctx, adminID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("re-read wallet after duplicate: %w", err))
		}
		if existing == nil {
			return nil, apperror.InternalError(fmt.Errorf("wallet for admin %s missing after duplicate insert", adminID))
		}
		return existing, nil
	case err != nil:
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("admin_id", adminID.String()).
		Str("wallet_id", wallet.ID.String()).
		Msg("wallet provisioned")

	return wallet, nil
}

// Credit adds a completed entry's admin profit inside the settlement
// transaction, provisioning the wallet in the same transaction if needed.
func (s *WalletServiceImpl) Credit(ctx context.Context, tx pgx.Tx, adminID uuid.UUID, amount int64, entryID uuid.UUID) (*domain.Wallet, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	if err := s.walletRepo.EnsureTx(ctx, tx, adminID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("ensure wallet: %w", err))
	}

	wallet, err := s.walletRepo.Credit(ctx, tx, adminID, amount, entryID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.InternalError(fmt.Errorf("wallet for admin %s missing after provisioning", adminID))
	}
	return wallet, nil
}

func (s *WalletServiceImpl) GetSnapshot(ctx context.Context, adminID uuid.UUID) (*ports.WalletSnapshot, error) {
	wallet, err := s.GetOrCreate(ctx, adminID)
	if err != nil {
		return nil, err
	}

	snap := &ports.WalletSnapshot{Wallet: wallet}
	if wallet.BankAccount == nil {
		return snap, nil
	}

	number, err := s.encSvc.Decrypt(wallet.BankAccount.AccountNumberEnc)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("decrypt account number: %w", err))
	}
	snap.BankAccount = bankView(wallet.BankAccount, number)
	return snap, nil
}

// UpdateBankDetails replaces the wallet's bank sub-record.
func (s *WalletServiceImpl) UpdateBankDetails(ctx context.Context, adminID uuid.UUID, input ports.BankDetailsInput) (*ports.WalletSnapshot, error) {
	input.HolderName = strings.TrimSpace(input.HolderName)
	input.AccountNumber = strings.TrimSpace(input.AccountNumber)
	input.RoutingCode = strings.ToUpper(strings.TrimSpace(input.RoutingCode))
	input.BankName = strings.TrimSpace(input.BankName)
	if input.HolderName == "" || input.AccountNumber == "" || input.RoutingCode == "" || input.BankName == "" {
		return nil, apperror.Validation("All bank details are required")
	}

	wallet, err := s.GetOrCreate(ctx, adminID)
	if err != nil {
		return nil, err
	}

	enc, err := s.encSvc.Encrypt(input.AccountNumber)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("encrypt account number: %w", err))
	}

	bank := &domain.BankAccount{
		HolderName:       input.HolderName,
		AccountNumberEnc: enc,
		RoutingCode:      input.RoutingCode,
		BankName:         input.BankName,
	}
	if err := s.walletRepo.UpdateBankAccount(ctx, adminID, bank); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update bank account: %w", err))
	}
	wallet.BankAccount = bank
	wallet.UpdatedAt = s.now()

	s.log.Info().Str("admin_id", adminID.String()).Msg("bank details updated")

	return &ports.WalletSnapshot{Wallet: wallet, BankAccount: bankView(bank, input.AccountNumber)}, nil
}

// Provision is called when an admin registers or logs in.
func (s *WalletServiceImpl) Provision(ctx context.Context, adminID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.GetOrCreate(ctx, adminID)
	if err != nil {
		s.log.Error().Err(err).Str("admin_id", adminID.String()).Msg("wallet provisioning failed")
		return nil, err
	}
	return wallet, nil
}

func bankView(bank *domain.BankAccount, accountNumber string) *ports.BankAccountView {
	return &ports.BankAccountView{
		HolderName:    bank.HolderName,
		AccountNumber: maskAccountNumber(accountNumber),
		RoutingCode:   bank.RoutingCode,
		BankName:      bank.BankName,
	}
}

// maskAccountNumber keeps the last four characters.
func maskAccountNumber(n string) string {
	if len(n) <= 4 {
		return strings.Repeat("*", len(n))
	}
	return strings.Repeat("*", len(n)-4) + n[len(n)-4:]
}
