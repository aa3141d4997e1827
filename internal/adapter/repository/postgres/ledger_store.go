package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/peerpay/peerpay-backend/internal/domain"
)

// ledgerStore implements domain.LedgerStore over database transactions
type ledgerStore struct {
	db *DB
}

// NewLedgerStore creates a new ledger store backed by the database
func NewLedgerStore(db *DB) domain.LedgerStore {
	return &ledgerStore{db: db}
}

// Begin opens a unit of work backed by a database transaction
func (s *ledgerStore) Begin(ctx context.Context) (domain.UnitOfWork, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &unitOfWork{tx: tx}, nil
}

// unitOfWork implements domain.UnitOfWork over an sql.Tx.
// Row locks are taken with SELECT ... FOR UPDATE and held until
// Commit or Rollback.
type unitOfWork struct {
	tx   *sql.Tx
	done bool
}

// GetAccountForUpdate reads an account and locks its row for the
// duration of the unit of work
func (u *unitOfWork) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `
		SELECT id, email, full_name, hashed_password, balance, created_at, updated_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`

	return scanAccount(u.tx.QueryRowContext(ctx, query, id))
}

// UpdateBalance sets the balance of a previously locked account
func (u *unitOfWork) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = $2, updated_at = now()
		WHERE id = $1
	`

	result, err := u.tx.ExecContext(ctx, query, id, balance.String())
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// InsertTransaction records a transaction within the unit of work
func (u *unitOfWork) InsertTransaction(ctx context.Context, txn *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, from_account_id, to_account_id, amount, description, status, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := u.tx.ExecContext(ctx, query,
		txn.ID,
		txn.FromAccountID,
		txn.ToAccountID,
		txn.Amount.String(),
		txn.Description,
		txn.Status,
		txn.Category,
		txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// Commit makes all staged writes durable and releases row locks
func (u *unitOfWork) Commit() error {
	if u.done {
		return errors.New("unit of work already finished")
	}
	u.done = true

	if err := u.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback discards all staged writes. Calling Rollback after Commit
// is a no-op, which allows deferred cleanup.
func (u *unitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true

	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}
