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

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

// GetByID retrieves a transaction by its ID
func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `
		SELECT id, from_account_id, to_account_id, amount, description, status, category, created_at
		FROM transactions
		WHERE id = $1
	`

	txn, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return txn, nil
}

// ListForAccount retrieves a page of transactions involving the account,
// newest first, together with the total count for the same filter
func (r *transactionRepository) ListForAccount(ctx context.Context, accountID uuid.UUID, direction domain.TransactionDirection, limit, offset int) ([]*domain.Transaction, int, error) {
	var filter string
	switch direction {
	case domain.DirectionSent:
		filter = "from_account_id = $1"
	case domain.DirectionReceived:
		filter = "to_account_id = $1"
	default:
		filter = "(from_account_id = $1 OR to_account_id = $1)"
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM transactions WHERE " + filter
	if err := r.db.QueryRowContext(ctx, countQuery, accountID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	listQuery := `
		SELECT id, from_account_id, to_account_id, amount, description, status, category, created_at
		FROM transactions
		WHERE ` + filter + `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, listQuery, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]*domain.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, total, nil
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var txn domain.Transaction
	var description sql.NullString
	var amountStr string

	err := row.Scan(
		&txn.ID,
		&txn.FromAccountID,
		&txn.ToAccountID,
		&amountStr,
		&description,
		&txn.Status,
		&txn.Category,
		&txn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	txn.Description = description.String

	// Parse amount (NUMERIC)
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	txn.Amount = amount

	return &txn, nil
}
