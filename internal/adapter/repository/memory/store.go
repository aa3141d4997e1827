// Package memory provides an in-memory ledger store implementing the same
// unit-of-work contract as the postgres adapter. It backs tests and local
// development runs.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/peerpay/peerpay-backend/internal/domain"
)

// Store is an in-memory implementation of domain.AccountRepository,
// domain.TransactionRepository and domain.LedgerStore.
//
// Row-level locking is modeled with one single-slot channel per account.
// A unit of work that holds an account's channel slot has exclusive access to
// that account until it commits or rolls back; waiters block honoring the
// context deadline, which is how the lock-wait timeout surfaces.
type Store struct {
	mu           sync.RWMutex
	accounts     map[uuid.UUID]*domain.Account
	transactions []*domain.Transaction
	txnByID      map[uuid.UUID]*domain.Transaction
	locks        map[uuid.UUID]chan struct{}
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]*domain.Account),
		txnByID:  make(map[uuid.UUID]*domain.Transaction),
		locks:    make(map[uuid.UUID]chan struct{}),
	}
}

// Create creates a new account. Emails are unique case-insensitively.
func (s *Store) Create(ctx context.Context, account *domain.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; ok {
		return fmt.Errorf("account %s already exists", account.ID)
	}
	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Email, account.Email) {
			return domain.ErrEmailTaken
		}
	}

	copied := *account
	now := time.Now().UTC()
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = now
	}
	if copied.UpdatedAt.IsZero() {
		copied.UpdatedAt = copied.CreatedAt
	}
	s.accounts[copied.ID] = &copied
	return nil
}

// GetByID retrieves an account by ID.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

// GetByEmail retrieves an account by email, case-insensitively.
func (s *Store) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if strings.EqualFold(account.Email, email) {
			copied := *account
			return &copied, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

// Search retrieves up to limit accounts whose email contains the query,
// excluding excludeID, ordered by email.
func (s *Store) Search(ctx context.Context, query string, excludeID uuid.UUID, limit int) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	matches := make([]*domain.Account, 0)
	for _, account := range s.accounts {
		if account.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(account.Email), needle) {
			copied := *account
			matches = append(matches, &copied)
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Email < matches[j].Email })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Transactions returns the transaction history view of the store.
func (s *Store) Transactions() domain.TransactionRepository {
	return &transactionRepository{store: s}
}

// transactionRepository implements domain.TransactionRepository over the store.
type transactionRepository struct {
	store *Store
}

// GetByID retrieves a transaction by ID.
func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, ok := s.txnByID[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	copied := *txn
	return &copied, nil
}

// ListForAccount retrieves a page of the account's transactions, newest first,
// with the total count for the same filter.
func (r *transactionRepository) ListForAccount(ctx context.Context, accountID uuid.UUID, direction domain.TransactionDirection, limit, offset int) ([]*domain.Transaction, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := make([]*domain.Transaction, 0)
	for _, txn := range s.transactions {
		switch direction {
		case domain.DirectionSent:
			if txn.FromAccountID != accountID {
				continue
			}
		case domain.DirectionReceived:
			if txn.ToAccountID != accountID {
				continue
			}
		default:
			if !txn.Involves(accountID) {
				continue
			}
		}
		copied := *txn
		filtered = append(filtered, &copied)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	total := len(filtered)
	if offset >= total {
		return []*domain.Transaction{}, total, nil
	}
	filtered = filtered[offset:]
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, total, nil
}

// Begin opens a unit of work.
func (s *Store) Begin(ctx context.Context) (domain.UnitOfWork, error) {
	return &unitOfWork{
		store:    s,
		balances: make(map[uuid.UUID]decimal.Decimal),
	}, nil
}

func (s *Store) lockFor(id uuid.UUID) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	return ch
}

// unitOfWork stages writes against the store and applies them on Commit.
type unitOfWork struct {
	store    *Store
	held     []heldLock
	balances map[uuid.UUID]decimal.Decimal
	inserts  []*domain.Transaction
	done     bool
}

type heldLock struct {
	id uuid.UUID
	ch chan struct{}
}

func (u *unitOfWork) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	if u.done {
		return nil, errors.New("unit of work already finished")
	}

	if !u.holds(id) {
		ch := u.store.lockFor(id)
		select {
		case ch <- struct{}{}:
			u.held = append(u.held, heldLock{id: id, ch: ch})
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for account lock: %w", ctx.Err())
		}
	}

	account, err := u.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if staged, ok := u.balances[id]; ok {
		account.Balance = staged
	}
	return account, nil
}

func (u *unitOfWork) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	if u.done {
		return errors.New("unit of work already finished")
	}
	if !u.holds(id) {
		return fmt.Errorf("account %s is not locked by this unit of work", id)
	}
	if balance.IsNegative() {
		return fmt.Errorf("balance for account %s would become negative", id)
	}

	u.balances[id] = balance
	return nil
}

func (u *unitOfWork) InsertTransaction(ctx context.Context, txn *domain.Transaction) error {
	if u.done {
		return errors.New("unit of work already finished")
	}
	if err := txn.Validate(); err != nil {
		return err
	}

	copied := *txn
	u.inserts = append(u.inserts, &copied)
	return nil
}

func (u *unitOfWork) Commit() error {
	if u.done {
		return errors.New("unit of work already finished")
	}

	u.store.mu.Lock()
	now := time.Now().UTC()
	for id, balance := range u.balances {
		account, ok := u.store.accounts[id]
		if !ok {
			u.store.mu.Unlock()
			u.release()
			return domain.ErrAccountNotFound
		}
		account.Balance = balance
		account.UpdatedAt = now
	}
	for _, txn := range u.inserts {
		u.store.transactions = append(u.store.transactions, txn)
		u.store.txnByID[txn.ID] = txn
	}
	u.store.mu.Unlock()

	u.release()
	return nil
}

func (u *unitOfWork) Rollback() error {
	if u.done {
		return nil
	}

	u.balances = make(map[uuid.UUID]decimal.Decimal)
	u.inserts = nil
	u.release()
	return nil
}

func (u *unitOfWork) holds(id uuid.UUID) bool {
	for _, held := range u.held {
		if held.id == id {
			return true
		}
	}
	return false
}

// release drops all held locks in reverse acquisition order.
func (u *unitOfWork) release() {
	for i := len(u.held) - 1; i >= 0; i-- {
		<-u.held[i].ch
	}
	u.held = nil
	u.done = true
}
