package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionDirection filters history queries by the account's role.
type TransactionDirection string

const (
	DirectionSent     TransactionDirection = "sent"
	DirectionReceived TransactionDirection = "received"
	DirectionAll      TransactionDirection = "all"
)

// AccountRepository defines the interface for account persistence operations
type AccountRepository interface {
	// Create creates a new account
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by its ID.
	// Returns ErrAccountNotFound if no account exists.
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// GetByEmail retrieves an account by email (case-insensitive).
	// Returns ErrAccountNotFound if no account exists.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// Search retrieves up to limit accounts whose email contains the query
	// (case-insensitive), excluding excludeID. Used for recipient selection.
	Search(ctx context.Context, query string, excludeID uuid.UUID, limit int) ([]*Account, error)
}

// TransactionRepository defines the interface for transaction history reads.
// Transaction writes happen exclusively through a UnitOfWork.
type TransactionRepository interface {
	// GetByID retrieves a transaction by its ID.
	// Returns ErrTransactionNotFound if no transaction exists.
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// ListForAccount retrieves a page of transactions involving the account,
	// ordered by created_at descending, together with the total count for the
	// same filter. direction narrows the account's role to sent or received.
	ListForAccount(ctx context.Context, accountID uuid.UUID, direction TransactionDirection, limit, offset int) ([]*Transaction, int, error)
}

// UnitOfWork is a bounded sequence of reads and writes that commits or rolls
// back atomically. Balances may only be mutated through a unit of work that
// holds the corresponding row lock.
type UnitOfWork interface {
	// GetAccountForUpdate reads an account and acquires exclusive access to its
	// row for the remainder of the unit of work. Concurrent calls for the same
	// account from two units of work are serialized by the store; the wait is
	// bounded by the context deadline. Returns ErrAccountNotFound if no account
	// exists.
	GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)

	// UpdateBalance replaces the account balance. The account's row lock must
	// already be held by this unit of work.
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error

	// InsertTransaction appends a ledger entry.
	InsertTransaction(ctx context.Context, txn *Transaction) error

	// Commit atomically and durably applies all staged writes and releases all
	// held locks.
	Commit() error

	// Rollback discards all staged writes and releases all held locks. Calling
	// Rollback after a successful Commit is a no-op.
	Rollback() error
}

// LedgerStore opens units of work against the durable ledger.
type LedgerStore interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
