package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"notehub/internal/core/domain"
	"notehub/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Note Repo ---

type inMemoryNoteRepo struct {
	mu    sync.RWMutex
	notes map[uuid.UUID]*domain.Note
}

func newInMemoryNoteRepo() *inMemoryNoteRepo {
	return &inMemoryNoteRepo{notes: make(map[uuid.UUID]*domain.Note)}
}

func (r *inMemoryNoteRepo) add(n domain.Note) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[n.ID] = &n
}

func (r *inMemoryNoteRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notes[id]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (r *inMemoryNoteRepo) IncrementPaidDownloads(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok {
		return errNoRows
	}
	n.PaidDownloads++
	return nil
}

func (r *inMemoryNoteRepo) ownerOf(id uuid.UUID) uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n, ok := r.notes[id]; ok {
		return n.UploadedBy
	}
	return uuid.Nil
}

// --- In-Memory Ledger Repo ---

type inMemoryLedgerRepo struct {
	mu      sync.RWMutex
	entries map[string]*domain.LedgerEntry // by provider order id
	notes   *inMemoryNoteRepo
}

func newInMemoryLedgerRepo(notes *inMemoryNoteRepo) *inMemoryLedgerRepo {
	return &inMemoryLedgerRepo{entries: make(map[string]*domain.LedgerEntry), notes: notes}
}

func (r *inMemoryLedgerRepo) Create(ctx context.Context, e *domain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.ProviderOrderID]; ok {
		return ports.ErrDuplicateKey
	}
	cp := *e
	r.entries[e.ProviderOrderID] = &cp
	return nil
}

func (r *inMemoryLedgerRepo) GetByOrderID(ctx context.Context, orderID string) (*domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[orderID]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *inMemoryLedgerRepo) GetByOrderIDForUpdate(ctx context.Context, tx pgx.Tx, orderID string) (*domain.LedgerEntry, error) {
	return r.GetByOrderID(ctx, orderID)
}

func (r *inMemoryLedgerRepo) MarkCompleted(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.entries[e.ProviderOrderID]
	if !ok || stored.Status != domain.LedgerStatusPending {
		return domain.ErrEntryNotPending
	}
	cp := *e
	r.entries[e.ProviderOrderID] = &cp
	return nil
}

func (r *inMemoryLedgerRepo) ListByAdmin(ctx context.Context, params ports.LedgerListParams) ([]domain.LedgerEntry, int64, error) {
	return r.list(params, func(e *domain.LedgerEntry) bool {
		return r.notes.ownerOf(e.NoteID) == params.OwnerID
	})
}

func (r *inMemoryLedgerRepo) ListByStudent(ctx context.Context, params ports.LedgerListParams) ([]domain.LedgerEntry, int64, error) {
	return r.list(params, func(e *domain.LedgerEntry) bool {
		return e.StudentID == params.OwnerID
	})
}

func (r *inMemoryLedgerRepo) list(params ports.LedgerListParams, match func(*domain.LedgerEntry) bool) ([]domain.LedgerEntry, int64, error) {
	r.mu.RLock()
	var result []domain.LedgerEntry
	for _, e := range r.entries {
		if !match(e) {
			continue
		}
		if params.Status != nil && e.Status != *params.Status {
			continue
		}
		result = append(result, *e)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	total := int64(len(result))

	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.LedgerEntry{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet // by admin id
	owners  []uuid.UUID                  // note owners, for the backfill query
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.wallets)
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[w.AdminID]; ok {
		return ports.ErrDuplicateKey
	}
	r.wallets[w.AdminID] = cloneWallet(w)
	return nil
}

func (r *inMemoryWalletRepo) GetByAdminID(ctx context.Context, adminID uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[adminID]
	if !ok {
		return nil, nil
	}
	return cloneWallet(w), nil
}

func (r *inMemoryWalletRepo) EnsureTx(ctx context.Context, tx pgx.Tx, adminID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[adminID]; !ok {
		r.wallets[adminID] = domain.NewWallet(adminID, time.Now().UTC())
	}
	return nil
}

func (r *inMemoryWalletRepo) Credit(ctx context.Context, tx pgx.Tx, adminID uuid.UUID, amount int64, entryID uuid.UUID) (*domain.Wallet, error) {
	return r.mutate(adminID, func(w *domain.Wallet) bool {
		w.TotalEarnings += amount
		w.CurrentBalance += amount
		w.TransactionIDs = append(w.TransactionIDs, entryID)
		return true
	})
}

func (r *inMemoryWalletRepo) Reserve(ctx context.Context, tx pgx.Tx, adminID uuid.UUID, amount int64) (*domain.Wallet, error) {
	return r.mutate(adminID, func(w *domain.Wallet) bool {
		if w.CurrentBalance < amount {
			return false
		}
		w.CurrentBalance -= amount
		w.PendingBalance += amount
		return true
	})
}

func (r *inMemoryWalletRepo) SettleReserved(ctx context.Context, tx pgx.Tx, adminID uuid.UUID, amount int64) (*domain.Wallet, error) {
	return r.mutate(adminID, func(w *domain.Wallet) bool {
		if w.PendingBalance < amount {
			return false
		}
		w.PendingBalance -= amount
		w.TotalWithdrawals += amount
		return true
	})
}

func (r *inMemoryWalletRepo) ReleaseReserved(ctx context.Context, tx pgx.Tx, adminID uuid.UUID, amount int64) (*domain.Wallet, error) {
	return r.mutate(adminID, func(w *domain.Wallet) bool {
		if w.PendingBalance < amount {
			return false
		}
		w.PendingBalance -= amount
		w.CurrentBalance += amount
		return true
	})
}

// mutate applies fn to the stored wallet, mirroring a conditional UPDATE:
// a false return or a missing row yields nil, nil.
func (r *inMemoryWalletRepo) mutate(adminID uuid.UUID, fn func(*domain.Wallet) bool) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[adminID]
	if !ok {
		return nil, nil
	}
	next := cloneWallet(w)
	if !fn(next) {
		return nil, nil
	}
	next.UpdatedAt = time.Now().UTC()
	r.wallets[adminID] = next
	return cloneWallet(next), nil
}

func (r *inMemoryWalletRepo) UpdateBankAccount(ctx context.Context, adminID uuid.UUID, bank *domain.BankAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[adminID]
	if !ok {
		return errNoRows
	}
	b := *bank
	w.BankAccount = &b
	return nil
}

func (r *inMemoryWalletRepo) ListOwnersWithoutWallet(ctx context.Context) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []uuid.UUID
	for _, id := range r.owners {
		if _, ok := r.wallets[id]; !ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func cloneWallet(w *domain.Wallet) *domain.Wallet {
	cp := *w
	cp.TransactionIDs = append([]uuid.UUID{}, w.TransactionIDs...)
	if w.BankAccount != nil {
		b := *w.BankAccount
		cp.BankAccount = &b
	}
	return &cp
}

// --- In-Memory Withdrawal Repo ---

type inMemoryWithdrawalRepo struct {
	mu   sync.RWMutex
	reqs map[uuid.UUID]*domain.WithdrawalRequest
}

func newInMemoryWithdrawalRepo() *inMemoryWithdrawalRepo {
	return &inMemoryWithdrawalRepo{reqs: make(map[uuid.UUID]*domain.WithdrawalRequest)}
}

func (r *inMemoryWithdrawalRepo) Create(ctx context.Context, tx pgx.Tx, req *domain.WithdrawalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *req
	r.reqs[req.ID] = &cp
	return nil
}

func (r *inMemoryWithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.reqs[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (r *inMemoryWithdrawalRepo) Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.WithdrawalStatus, at time.Time) (*domain.WithdrawalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.reqs[id]
	if !ok || !req.IsPending() {
		return nil, nil
	}
	req.Status = status
	req.ResolvedAt = &at
	cp := *req
	return &cp, nil
}

func (r *inMemoryWithdrawalRepo) ListByAdmin(ctx context.Context, adminID uuid.UUID) ([]domain.WithdrawalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.WithdrawalRequest{}
	for _, req := range r.reqs {
		if req.AdminID == adminID {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *log)
	return nil
}

func (r *inMemoryAuditRepo) actions() []domain.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

// --- In-Memory Transactor ---

// inMemoryTransactor hands out transactions that hold one shared lock from
// Begin until Commit or Rollback, standing in for row locks.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &lockingTx{release: t.mu.Unlock}, nil
}

type lockingTx struct {
	once    sync.Once
	release func()
}

func (t *lockingTx) end() { t.once.Do(t.release) }

func (t *lockingTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *lockingTx) Commit(ctx context.Context) error          { t.end(); return nil }
func (t *lockingTx) Rollback(ctx context.Context) error        { t.end(); return nil }
func (t *lockingTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *lockingTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *lockingTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *lockingTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *lockingTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *lockingTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *lockingTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *lockingTx) Conn() *pgx.Conn                                               { return nil }

var errNoRows = pgx.ErrNoRows
