package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/peerpay/peerpay-backend/internal/domain"
)

// uniqueViolation is the postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// accountRepository implements domain.AccountRepository
type accountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB) domain.AccountRepository {
	return &accountRepository{db: db}
}

// Create creates a new account
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, email, full_name, hashed_password, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.FullName,
		account.HashedPassword,
		account.Balance.String(),
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID
func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `
		SELECT id, email, full_name, hashed_password, balance, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves an account by email, case-insensitively
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `
		SELECT id, email, full_name, hashed_password, balance, created_at, updated_at
		FROM accounts
		WHERE lower(email) = lower($1)
	`

	return scanAccount(r.db.QueryRowContext(ctx, query, email))
}

// Search retrieves up to limit accounts whose email contains the query,
// excluding excludeID, ordered by email
func (r *accountRepository) Search(ctx context.Context, query string, excludeID uuid.UUID, limit int) ([]*domain.Account, error) {
	stmt := `
		SELECT id, email, full_name, hashed_password, balance, created_at, updated_at
		FROM accounts
		WHERE email ILIKE '%' || $1 || '%' AND id <> $2
		ORDER BY email
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, stmt, query, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var account domain.Account
	var fullName sql.NullString
	var balanceStr string

	err := row.Scan(
		&account.ID,
		&account.Email,
		&fullName,
		&account.HashedPassword,
		&balanceStr,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	account.FullName = fullName.String

	// Parse balance (NUMERIC)
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	account.Balance = balance

	return &account, nil
}
