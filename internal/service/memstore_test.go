package service

import (
	"context"
	"errors"
	"sync"

	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory ledger database with row locks. A row locked
// through GetBy*ForUpdate stays locked until the owning memTx commits or
// rolls back; writes are buffered in the transaction and applied at commit.
type memStore struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]*memRow
	byNumber map[string]uuid.UUID
	records  []domain.Transaction
}

type memRow struct {
	lock    sync.Mutex
	account domain.Account
}

var errNegativeBalance = errors.New("check constraint: balance >= 0")

func newMemStore() *memStore {
	return &memStore{rows: make(map[uuid.UUID]*memRow), byNumber: make(map[string]uuid.UUID)}
}

func (s *memStore) addAccount(a domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[a.ID] = &memRow{account: a}
	s.byNumber[a.Number] = a.ID
}

func (s *memStore) balance(number string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[s.byNumber[number]].account.Balance
}

func (s *memStore) total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, r := range s.rows {
		sum = sum.Add(r.account.Balance)
	}
	return sum
}

func (s *memStore) recorded() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Transaction(nil), s.records...)
}

func (s *memStore) Begin(context.Context) (pgx.Tx, error) {
	return &memTx{store: s, balances: make(map[uuid.UUID]decimal.Decimal)}, nil
}

type memTx struct {
	pgx.Tx
	store    *memStore
	locked   []*memRow
	balances map[uuid.UUID]decimal.Decimal
	records  []domain.Transaction
	done     bool
}

func (t *memTx) Commit(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.store.mu.Lock()
	for id, b := range t.balances {
		t.store.rows[id].account.Balance = b
	}
	t.store.records = append(t.store.records, t.records...)
	t.store.mu.Unlock()
	t.release()
	return nil
}

func (t *memTx) Rollback(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.release()
	return nil
}

func (t *memTx) release() {
	t.done = true
	for _, r := range t.locked {
		r.lock.Unlock()
	}
	t.locked = nil
}

func (t *memTx) lockRow(id uuid.UUID) *domain.Account {
	t.store.mu.Lock()
	row, ok := t.store.rows[id]
	t.store.mu.Unlock()
	if !ok {
		return nil
	}

	held := false
	for _, r := range t.locked {
		if r == row {
			held = true
			break
		}
	}
	if !held {
		row.lock.Lock()
		t.locked = append(t.locked, row)
	}

	t.store.mu.Lock()
	a := row.account
	t.store.mu.Unlock()
	if b, ok := t.balances[id]; ok {
		a.Balance = b
	}
	return &a
}

// memAccounts implements the account methods the ledger uses.
type memAccounts struct {
	ports.AccountRepository
	store *memStore
}

func (r memAccounts) GetByNumberForUpdate(_ context.Context, tx pgx.Tx, number string) (*domain.Account, error) {
	r.store.mu.Lock()
	id, ok := r.store.byNumber[number]
	r.store.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return tx.(*memTx).lockRow(id), nil
}

func (r memAccounts) GetByIDForUpdate(_ context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	return tx.(*memTx).lockRow(id), nil
}

func (r memAccounts) UpdateBalance(_ context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return errNegativeBalance
	}
	tx.(*memTx).balances[id] = balance
	return nil
}

// memRecords buffers ledger records in the transaction.
type memRecords struct {
	ports.TransactionRepository
}

func (memRecords) Create(_ context.Context, tx pgx.Tx, t *domain.Transaction) error {
	mt := tx.(*memTx)
	mt.records = append(mt.records, *t)
	return nil
}

// noUsers makes post-commit notifications a logged no-op.
type noUsers struct {
	ports.UserRepository
}

func (noUsers) GetByID(context.Context, uuid.UUID) (*domain.User, error) {
	return nil, nil
}

func newMemLedger(store *memStore) *LedgerServiceImpl {
	return NewLedgerService(memAccounts{store: store}, nil, memRecords{}, noUsers{}, store, nil, newTestLogger())
}
