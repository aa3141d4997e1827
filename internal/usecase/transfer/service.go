package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/peerpay/peerpay-backend/internal/domain"
)

// Limits bounds a single transfer amount, inclusive on both ends.
type Limits struct {
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
}

// ExecuteInput represents one transfer request. SenderID is the authenticated
// caller and is never taken from the request body.
type ExecuteInput struct {
	SenderID       uuid.UUID
	RecipientEmail string
	Amount         decimal.Decimal
	Description    string
	Category       domain.TransactionCategory
}

// Service is the transfer execution engine. It validates a transfer request,
// moves funds between two accounts, and persists an immutable transaction
// record as one atomic unit of work.
//
// The engine never caches balances across calls: every execution re-reads
// current balances under the store's row locks, and the under-lock check is
// the authoritative one.
type Service struct {
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
	store        domain.LedgerStore
	limits       Limits
	execTimeout  time.Duration
}

// NewService creates a new transfer Service instance.
func NewService(
	accounts domain.AccountRepository,
	transactions domain.TransactionRepository,
	store domain.LedgerStore,
	limits Limits,
	execTimeout time.Duration,
) *Service {
	return &Service{
		accounts:     accounts,
		transactions: transactions,
		store:        store,
		limits:       limits,
		execTimeout:  execTimeout,
	}
}

// Execute runs one transfer.
//
// Pre-condition failures (unknown recipient, self transfer, invalid amount)
// return before anything is persisted and leave no transaction record.
// An insufficient balance, detected under lock, commits a failed transaction
// record for audit and returns domain.ErrInsufficientFunds together with that
// record. On success the returned transaction is completed and both balances
// were mutated in the same committed unit of work. Any store failure rolls the
// whole unit of work back and surfaces domain.ErrTransferFailed.
func (s *Service) Execute(ctx context.Context, input ExecuteInput) (*domain.Transaction, error) {
	sender, err := s.accounts.GetByID(ctx, input.SenderID)
	if err != nil {
		return nil, err
	}

	recipient, err := s.accounts.GetByEmail(ctx, input.RecipientEmail)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrRecipientNotFound
		}
		return nil, err
	}

	if sender.ID == recipient.ID {
		return nil, domain.ErrSelfTransfer
	}

	amount := input.Amount.Round(2)
	if amount.LessThan(s.limits.MinAmount) || amount.GreaterThan(s.limits.MaxAmount) {
		return nil, domain.ErrInvalidAmount
	}

	if len(input.Description) > domain.MaxDescriptionLength {
		return nil, domain.ErrInvalidDescription
	}

	category := input.Category
	if category == "" {
		category = domain.CategoryTransfer
	}

	txn := &domain.Transaction{
		ID:            uuid.New(),
		FromAccountID: sender.ID,
		ToAccountID:   recipient.ID,
		Amount:        amount,
		Description:   input.Description,
		Status:        domain.StatusPending,
		Category:      category,
		CreatedAt:     time.Now().UTC(),
	}
	if err := txn.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAmount, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.execTimeout)
	defer cancel()

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin unit of work: %v", domain.ErrTransferFailed, err)
	}
	defer uow.Rollback()

	// Lock both rows in ascending account-ID order so two opposite-direction
	// transfers between the same pair can never deadlock each other.
	locked := make(map[uuid.UUID]*domain.Account, 2)
	for _, id := range lockOrder(sender.ID, recipient.ID) {
		account, err := uow.GetAccountForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: lock account: %v", domain.ErrTransferFailed, err)
		}
		locked[id] = account
	}

	lockedSender := locked[sender.ID]
	lockedRecipient := locked[recipient.ID]

	// Authoritative balance check. The pre-lock read above is advisory only.
	if lockedSender.Balance.LessThan(amount) {
		txn.Status = domain.StatusFailed
		if err := uow.InsertTransaction(ctx, txn); err != nil {
			return nil, fmt.Errorf("%w: record failed transfer: %v", domain.ErrTransferFailed, err)
		}
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("%w: commit failed transfer record: %v", domain.ErrTransferFailed, err)
		}
		return txn, domain.ErrInsufficientFunds
	}

	if err := uow.UpdateBalance(ctx, lockedSender.ID, lockedSender.Balance.Sub(amount)); err != nil {
		return nil, fmt.Errorf("%w: debit sender: %v", domain.ErrTransferFailed, err)
	}
	if err := uow.UpdateBalance(ctx, lockedRecipient.ID, lockedRecipient.Balance.Add(amount)); err != nil {
		return nil, fmt.Errorf("%w: credit recipient: %v", domain.ErrTransferFailed, err)
	}

	txn.Status = domain.StatusCompleted
	if err := uow.InsertTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("%w: record transfer: %v", domain.ErrTransferFailed, err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", domain.ErrTransferFailed, err)
	}

	return txn, nil
}

// Get retrieves one transaction. Only participants may read it.
func (s *Service) Get(ctx context.Context, requesterID, txnID uuid.UUID) (*domain.Transaction, error) {
	txn, err := s.transactions.GetByID(ctx, txnID)
	if err != nil {
		return nil, err
	}

	if !txn.Involves(requesterID) {
		return nil, domain.ErrForbidden
	}

	return txn, nil
}

// List retrieves a page of the account's transaction history, newest first,
// together with the total count for the same filter.
func (s *Service) List(ctx context.Context, accountID uuid.UUID, direction domain.TransactionDirection, limit, offset int) ([]*domain.Transaction, int, error) {
	if direction == "" {
		direction = domain.DirectionAll
	}

	return s.transactions.ListForAccount(ctx, accountID, direction, limit, offset)
}

// lockOrder returns the two account IDs in their total order, the order every
// unit of work acquires row locks in.
func lockOrder(a, b uuid.UUID) [2]uuid.UUID {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return [2]uuid.UUID{a, b}
	}
	return [2]uuid.UUID{b, a}
}
