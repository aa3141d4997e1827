package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the outcome state of a transfer attempt
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// IsTerminal reports whether the status permits no further transitions.
// A transaction that reached completed or failed is immutable.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// TransactionCategory classifies a transaction. Classification only; the
// engine treats all categories identically.
type TransactionCategory string

const (
	CategoryTransfer TransactionCategory = "transfer"
	CategoryPayment  TransactionCategory = "payment"
	CategoryRefund   TransactionCategory = "refund"
)

// MaxDescriptionLength bounds the free-text description of a transaction.
const MaxDescriptionLength = 500

// Transaction represents an immutable, append-only ledger entry recording one
// transfer attempt between two distinct accounts and its outcome.
type Transaction struct {
	ID            uuid.UUID
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal // always > 0, 2 decimal places
	Description   string
	Status        TransactionStatus
	Category      TransactionCategory
	CreatedAt     time.Time
}

// Validate ensures the transaction adheres to domain rules.
// Returns an error if validation fails.
func (t *Transaction) Validate() error {
	if t.FromAccountID == t.ToAccountID {
		return errors.New("transaction must reference two distinct accounts")
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("transaction amount must be positive")
	}

	if len(t.Description) > MaxDescriptionLength {
		return errors.New("transaction description exceeds maximum length")
	}

	switch t.Status {
	case StatusPending, StatusCompleted, StatusFailed:
	default:
		return errors.New("transaction status must be pending, completed or failed")
	}

	switch t.Category {
	case CategoryTransfer, CategoryPayment, CategoryRefund:
	default:
		return errors.New("transaction category must be transfer, payment or refund")
	}

	return nil
}

// Involves reports whether the given account participates in the transaction
// as sender or receiver.
func (t *Transaction) Involves(accountID uuid.UUID) bool {
	return t.FromAccountID == accountID || t.ToAccountID == accountID
}
