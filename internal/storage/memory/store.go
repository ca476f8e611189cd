package memory

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	interfaces "github.com/sheikh-saqib/personal-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-banking-ledger/internal/models"
)

// MemoryLedgerStore is an in-process implementation of interfaces.LedgerStore.
// Units of work stage their effects privately and publish them under a single
// write lock on commit, so readers never observe half of a unit.
type MemoryLedgerStore struct {
	mu       sync.RWMutex                         // protects accounts, history, nextID and closed
	accounts map[int64]models.Account             // committed account snapshots
	history  map[int64][]models.TransactionRecord // per account, oldest first
	nextID   int64
	closed   bool

	lockMu sync.Mutex             // protects locks itself
	locks  map[int64]*accountLock // one entry per account id some unit holds or waits on

	now    func() time.Time
	logger *slog.Logger
}

// Option configures a MemoryLedgerStore.
type Option func(*MemoryLedgerStore)

// WithClock overrides the clock used to stamp appended records.
func WithClock(now func() time.Time) Option {
	return func(m *MemoryLedgerStore) { m.now = now }
}

// WithLogger sets the logger used for commit diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *MemoryLedgerStore) { m.logger = logger }
}

// NewMemoryLedgerStore creates an empty store.
func NewMemoryLedgerStore(opts ...Option) *MemoryLedgerStore {
	m := &MemoryLedgerStore{
		accounts: make(map[int64]models.Account),
		history:  make(map[int64][]models.TransactionRecord),
		locks:    make(map[int64]*accountLock),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// accountLock serializes units on one account. refs counts the units holding
// or waiting for it; the entry is dropped when the last one leaves, so ids
// that never existed do not accumulate.
type accountLock struct {
	mu   sync.Mutex
	refs int
}

func (m *MemoryLedgerStore) acquireAccountLock(accountID int64) *accountLock {
	m.lockMu.Lock()
	l, ok := m.locks[accountID]
	if !ok {
		l = &accountLock{}
		m.locks[accountID] = l
	}
	l.refs++
	m.lockMu.Unlock()

	l.mu.Lock()
	return l
}

func (m *MemoryLedgerStore) releaseAccountLock(accountID int64, l *accountLock) {
	l.mu.Unlock()

	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, accountID)
	}
}

// lockOrder returns the distinct ids in ascending order. Every unit acquires
// account locks in this order, so two units can never wait on each other.
func lockOrder(accountIDs []int64) []int64 {
	ids := slices.Clone(accountIDs)
	slices.Sort(ids)
	return slices.Compact(ids)
}

// RunAtomic implements interfaces.LedgerStore.
func (m *MemoryLedgerStore) RunAtomic(ctx context.Context, accountIDs []int64, unit interfaces.UnitOfWork) error {
	if err := m.checkOpen(); err != nil {
		return err
	}

	ids := lockOrder(accountIDs)
	held := make([]*accountLock, 0, len(ids))
	for _, id := range ids {
		held = append(held, m.acquireAccountLock(id))
	}
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			m.releaseAccountLock(ids[i], held[i])
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{
		store:    m,
		locked:   make(map[int64]bool, len(ids)),
		accounts: make(map[int64]models.Account, len(ids)),
	}
	for _, id := range ids {
		tx.locked[id] = true
	}

	// A failed unit is rolled back by dropping tx: nothing it staged has
	// been published yet.
	if err := unit(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.commit(tx)
}

func (m *MemoryLedgerStore) commit(tx *memoryTx) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("commit: %w", models.ErrStorageUnavailable)
	}
	for id, acct := range tx.accounts {
		m.accounts[id] = acct
	}
	for _, rec := range tx.records {
		m.history[rec.AccountID] = append(m.history[rec.AccountID], rec)
	}
	m.logger.Debug("unit committed", "accounts", len(tx.accounts), "records", len(tx.records))
	return nil
}

// CreateAccount implements interfaces.LedgerStore.
func (m *MemoryLedgerStore) CreateAccount(ctx context.Context, accountID int64, ownerName string, initialBalance decimal.Decimal) (models.Account, error) {
	var created models.Account
	err := m.RunAtomic(ctx, []int64{accountID}, func(tx interfaces.LedgerTx) error {
		var err error
		created, err = tx.CreateAccount(ctx, accountID, ownerName, initialBalance)
		return err
	})
	if err != nil {
		return models.Account{}, err
	}
	return created, nil
}

// GetAccount implements interfaces.LedgerStore.
func (m *MemoryLedgerStore) GetAccount(ctx context.Context, accountID int64) (models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return models.Account{}, models.ErrStorageUnavailable
	}
	acct, ok := m.accounts[accountID]
	if !ok {
		return models.Account{}, fmt.Errorf("account %d: %w", accountID, models.ErrAccountNotFound)
	}
	return acct, nil
}

// ListTransactions implements interfaces.LedgerStore. The snapshot is taken
// when iteration starts, not when ListTransactions is called.
func (m *MemoryLedgerStore) ListTransactions(ctx context.Context, accountID int64) iter.Seq2[models.TransactionRecord, error] {
	return func(yield func(models.TransactionRecord, error) bool) {
		records, err := m.snapshotHistory(accountID)
		if err != nil {
			yield(models.TransactionRecord{}, err)
			return
		}
		for i := len(records) - 1; i >= 0; i-- {
			if err := ctx.Err(); err != nil {
				yield(models.TransactionRecord{}, err)
				return
			}
			if !yield(records[i], nil) {
				return
			}
		}
	}
}

func (m *MemoryLedgerStore) snapshotHistory(accountID int64) ([]models.TransactionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, models.ErrStorageUnavailable
	}
	if _, ok := m.accounts[accountID]; !ok {
		return nil, fmt.Errorf("account %d: %w", accountID, models.ErrAccountNotFound)
	}
	return slices.Clone(m.history[accountID]), nil
}

// Close marks the store unavailable. Units still running fail at commit.
func (m *MemoryLedgerStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MemoryLedgerStore) checkOpen() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return models.ErrStorageUnavailable
	}
	return nil
}

func (m *MemoryLedgerStore) committedAccount(accountID int64) (models.Account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.accounts[accountID]
	return acct, ok
}

func (m *MemoryLedgerStore) assignID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return m.nextID
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore interface
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
