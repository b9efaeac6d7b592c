package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"notehub/internal/core/domain"
	"notehub/internal/core/ports"
	"notehub/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	settlementCacheTTL = 24 * time.Hour

	defaultPageSize = 20
	maxPageSize     = 100
)

// SettlementConfig carries the payment settings the engine needs.
type SettlementConfig struct {
	FeePercentage  decimal.Decimal
	Currency       string
	KeyID          string // public provider key handed to the checkout
	GatewayTimeout time.Duration
}

// SettlementServiceImpl implements ports.SettlementService.
type SettlementServiceImpl struct {
	ledgerRepo ports.LedgerRepository
	noteRepo   ports.NoteRepository
	walletSvc  ports.WalletService
	gateway    ports.PaymentGateway
	cache      ports.SettlementCache
	transactor ports.DBTransactor
	cfg        SettlementConfig
	log        zerolog.Logger
	now        func() time.Time
}

// NewSettlementService creates a settlement engine. cache may be nil when
// Redis is unavailable; replays are then answered from PostgreSQL.
func NewSettlementService(
	ledgerRepo ports.LedgerRepository,
	noteRepo ports.NoteRepository,
	walletSvc ports.WalletService,
	gateway ports.PaymentGateway,
	cache ports.SettlementCache,
	transactor ports.DBTransactor,
	cfg SettlementConfig,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		ledgerRepo: ledgerRepo,
		noteRepo:   noteRepo,
		walletSvc:  walletSvc,
		gateway:    gateway,
		cache:      cache,
		transactor: transactor,
		cfg:        cfg,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder registers a provider order for a premium note and records it
// as a pending ledger entry.
func (s *SettlementServiceImpl) CreateOrder(ctx context.Context, req ports.CreateOrderRequest) (*ports.OrderDescriptor, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	note, err := s.noteRepo.GetByID(ctx, req.NoteID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get note: %w", err))
	}
	if note == nil {
		return nil, apperror.ErrNotFound("Note")
	}
	if !note.IsPremium {
		return nil, apperror.ErrNoteNotPremium()
	}
	if note.Price != req.Amount {
		return nil, apperror.ErrPriceMismatch()
	}

	now := s.now()
	gwCtx := ctx
	if s.cfg.GatewayTimeout > 0 {
		var cancel context.CancelFunc
		gwCtx, cancel = context.WithTimeout(ctx, s.cfg.GatewayTimeout)
		defer cancel()
	}

	order, err := s.gateway.CreateOrder(gwCtx, ports.GatewayOrderRequest{
		Amount:    req.Amount,
		Currency:  s.cfg.Currency,
		ReceiptID: fmt.Sprintf("receipt_%d", now.UnixMilli()),
	})
	if err != nil {
		s.log.Error().Err(err).
			Str("gateway", s.gateway.Name()).
			Str("note_id", req.NoteID.String()).
			Msg("provider order creation failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperror.ErrGatewayTimeout(err)
		}
		return nil, apperror.ErrGateway(err)
	}

	entry := domain.NewPendingEntry(req.StudentID, note.ID, req.Amount, s.cfg.Currency, order.ID, now)
	if err := s.ledgerRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, ports.ErrDuplicateKey) {
			return nil, apperror.ErrGateway(fmt.Errorf("provider reused order id %s", order.ID))
		}
		return nil, apperror.InternalError(fmt.Errorf("create ledger entry: %w", err))
	}

	s.log.Info().
		Str("order_id", order.ID).
		Str("entry_id", entry.ID.String()).
		Str("student_id", req.StudentID.String()).
		Str("note_id", note.ID.String()).
		Int64("amount", req.Amount).
		Msg("order created")

	return &ports.OrderDescriptor{
		OrderID:  order.ID,
		EntryID:  entry.ID,
		Amount:   entry.Amount,
		Currency: entry.Currency,
		KeyID:    s.cfg.KeyID,
	}, nil
}

// CompleteOrder verifies the provider callback and settles the order:
// entry transition, wallet credit and paid-download count commit together.
// Completing an already completed order replays the stored result.
func (s *SettlementServiceImpl) CompleteOrder(ctx context.Context, req ports.CompleteOrderRequest) (*ports.SettlementResult, error) {
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return nil, apperror.Validation("orderId, paymentId and signature are required")
	}

	if !s.gateway.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature) {
		s.log.Warn().
			Str("order_id", req.OrderID).
			Str("student_id", req.StudentID.String()).
			Msg("payment signature mismatch")
		return nil, apperror.ErrInvalidSignature()
	}

	if res := s.cachedResult(ctx, req.OrderID); res != nil {
		if req.NoteID != uuid.Nil && res.Payment.NoteID != req.NoteID {
			return nil, apperror.ErrNoteMismatch()
		}
		return res, nil
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	entry, err := s.ledgerRepo.GetByOrderIDForUpdate(ctx, dbTx, req.OrderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock ledger entry: %w", err))
	}
	if entry == nil {
		return nil, apperror.ErrNotFound("Payment order")
	}
	if req.NoteID != uuid.Nil && entry.NoteID != req.NoteID {
		return nil, apperror.ErrNoteMismatch()
	}

	switch entry.Status {
	case domain.LedgerStatusCompleted:
		res := &ports.SettlementResult{Payment: entry, AdminProfit: entry.AdminProfit, Replayed: true}
		s.cacheResult(ctx, req.OrderID, res)
		s.log.Info().Str("order_id", req.OrderID).Msg("settlement replayed")
		return res, nil
	case domain.LedgerStatusPending:
	default:
		return nil, apperror.ErrOrderNotPayable()
	}

	note, err := s.noteRepo.GetByID(ctx, entry.NoteID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get note: %w", err))
	}
	if note == nil {
		return nil, apperror.ErrNotFound("Note")
	}

	split := domain.ComputeFeeSplit(entry.Amount, s.cfg.FeePercentage)
	if err := entry.Complete(req.PaymentID, req.Signature, split, s.now()); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("complete entry: %w", err))
	}
	if err := s.ledgerRepo.MarkCompleted(ctx, dbTx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark completed: %w", err))
	}

	// A fee that swallows the whole amount leaves nothing to credit.
	if split.AdminProfit > 0 {
		if _, err := s.walletSvc.Credit(ctx, dbTx, note.UploadedBy, split.AdminProfit, entry.ID); err != nil {
			return nil, err
		}
	}

	if err := s.noteRepo.IncrementPaidDownloads(ctx, dbTx, note.ID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("increment paid downloads: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	res := &ports.SettlementResult{Payment: entry, AdminProfit: split.AdminProfit}
	s.cacheResult(ctx, req.OrderID, res)

	s.log.Info().
		Str("order_id", req.OrderID).
		Str("entry_id", entry.ID.String()).
		Str("admin_id", note.UploadedBy.String()).
		Int64("amount", entry.Amount).
		Int64("platform_fee", split.PlatformFee).
		Int64("admin_profit", split.AdminProfit).
		Msg("payment settled")

	return res, nil
}

// ListAdminPayments returns ledger entries for notes owned by the admin.
func (s *SettlementServiceImpl) ListAdminPayments(ctx context.Context, params ports.LedgerListParams) ([]domain.LedgerEntry, int64, error) {
	normalizePage(&params)
	entries, total, err := s.ledgerRepo.ListByAdmin(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list admin payments: %w", err))
	}
	return entries, total, nil
}

// ListStudentPurchases returns only the student's completed purchases.
func (s *SettlementServiceImpl) ListStudentPurchases(ctx context.Context, params ports.LedgerListParams) ([]domain.LedgerEntry, int64, error) {
	normalizePage(&params)
	completed := domain.LedgerStatusCompleted
	params.Status = &completed
	entries, total, err := s.ledgerRepo.ListByStudent(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list student purchases: %w", err))
	}
	return entries, total, nil
}

func normalizePage(p *ports.LedgerListParams) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
}

func (s *SettlementServiceImpl) cachedResult(ctx context.Context, orderID string) *ports.SettlementResult {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, orderID)
	if err != nil {
		s.log.Warn().Err(err).Str("order_id", orderID).Msg("settlement cache lookup failed, falling through to DB")
		return nil
	}
	if raw == nil {
		return nil
	}

	var res ports.SettlementResult
	if err := json.Unmarshal(raw, &res); err != nil || res.Payment == nil {
		s.log.Warn().Err(err).Str("order_id", orderID).Msg("discarding unreadable settlement cache entry")
		return nil
	}
	res.Replayed = true
	return &res
}

func (s *SettlementServiceImpl) cacheResult(ctx context.Context, orderID string, res *ports.SettlementResult) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		s.log.Warn().Err(err).Str("order_id", orderID).Msg("failed to marshal settlement result")
		return
	}
	if err := s.cache.Set(ctx, orderID, raw, settlementCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("order_id", orderID).Msg("failed to cache settlement in redis")
	}
}
