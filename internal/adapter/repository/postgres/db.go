package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection
// connectionString should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=peerpay sslmode=disable"
func NewDB(connectionString string, maxOpenConns, maxIdleConns int) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// EnsureSchema creates the ledger tables and indexes if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			full_name TEXT,
			hashed_password TEXT NOT NULL,
			balance NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			from_account_id UUID NOT NULL REFERENCES accounts(id),
			to_account_id UUID NOT NULL REFERENCES accounts(id),
			amount NUMERIC(12, 2) NOT NULL CHECK (amount > 0),
			description TEXT,
			status TEXT NOT NULL,
			category TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CHECK (from_account_id <> to_account_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_from_account ON transactions (from_account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_to_account ON transactions (to_account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions (created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_email ON accounts (lower(email))`,
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
