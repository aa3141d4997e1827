package seeder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/peerpay/peerpay-backend/internal/domain"
	"github.com/peerpay/peerpay-backend/internal/usecase/transfer"
)

// DemoPassword is the shared password of all seeded demo accounts.
const DemoPassword = "password123"

// Fixed UUIDs for demo accounts so re-seeding and local tooling can rely on
// stable identifiers.
var (
	DemoAlice = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	DemoBob   = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	DemoCarol = uuid.MustParse("00000000-0000-0000-0000-000000000003")
	DemoDave  = uuid.MustParse("00000000-0000-0000-0000-000000000004")
	DemoErin  = uuid.MustParse("00000000-0000-0000-0000-000000000005")
	DemoFrank = uuid.MustParse("00000000-0000-0000-0000-000000000006")
	DemoGrace = uuid.MustParse("00000000-0000-0000-0000-000000000007")
)

// DemoAccount defines one demo account to be seeded.
type DemoAccount struct {
	ID       uuid.UUID
	Email    string
	FullName string
}

// demoTransfer defines one deterministic transfer executed after the demo
// accounts exist, so a fresh environment has ledger history to look at.
type demoTransfer struct {
	from        uuid.UUID
	toEmail     string
	amount      string
	description string
}

// TransferExecutor runs one transfer through the real execution engine, so
// seeded history obeys the same invariants as production traffic.
type TransferExecutor interface {
	Execute(ctx context.Context, input transfer.ExecuteInput) (*domain.Transaction, error)
}

// PasswordHasher hashes the shared demo password.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Seeder populates a fresh environment with demo accounts and a small ledger
// history. Seeding is idempotent: existing accounts are left untouched and
// demo transfers only run when the accounts were just created.
type Seeder struct {
	accounts        domain.AccountRepository
	transfers       TransferExecutor
	passwords       PasswordHasher
	startingBalance decimal.Decimal
	logger          *zap.Logger
}

// NewSeeder creates a new Seeder instance.
func NewSeeder(accounts domain.AccountRepository, transfers TransferExecutor, passwords PasswordHasher, startingBalance decimal.Decimal, logger *zap.Logger) *Seeder {
	return &Seeder{
		accounts:        accounts,
		transfers:       transfers,
		passwords:       passwords,
		startingBalance: startingBalance,
		logger:          logger,
	}
}

func demoAccounts() []DemoAccount {
	return []DemoAccount{
		{ID: DemoAlice, Email: "alice@peerpay.dev", FullName: "Alice Johnson"},
		{ID: DemoBob, Email: "bob@peerpay.dev", FullName: "Bob Martinez"},
		{ID: DemoCarol, Email: "carol@peerpay.dev", FullName: "Carol Chen"},
		{ID: DemoDave, Email: "dave@peerpay.dev", FullName: "Dave Okafor"},
		{ID: DemoErin, Email: "erin@peerpay.dev", FullName: "Erin Svensson"},
		{ID: DemoFrank, Email: "frank@peerpay.dev", FullName: "Frank Dubois"},
		{ID: DemoGrace, Email: "grace@peerpay.dev", FullName: "Grace Kim"},
	}
}

func demoTransfers() []demoTransfer {
	return []demoTransfer{
		{from: DemoAlice, toEmail: "bob@peerpay.dev", amount: "125.50", description: "concert tickets"},
		{from: DemoBob, toEmail: "carol@peerpay.dev", amount: "42.00", description: "lunch"},
		{from: DemoCarol, toEmail: "alice@peerpay.dev", amount: "300.00", description: "rent share"},
		{from: DemoDave, toEmail: "erin@peerpay.dev", amount: "18.75", description: "coffee run"},
		{from: DemoErin, toEmail: "frank@peerpay.dev", amount: "60.00", description: "utilities"},
		{from: DemoGrace, toEmail: "dave@peerpay.dev", amount: "210.25", description: "bike repair"},
	}
}

// Seed ensures the demo accounts exist and, when they were just created, runs
// the demo transfers through the execution engine.
func (s *Seeder) Seed(ctx context.Context) error {
	hashed, err := s.passwords.Hash(DemoPassword)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}

	created := 0
	for _, demo := range demoAccounts() {
		_, err := s.accounts.GetByEmail(ctx, demo.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return fmt.Errorf("failed to look up %s: %w", demo.Email, err)
		}

		now := time.Now().UTC()
		account := &domain.Account{
			ID:             demo.ID,
			Email:          demo.Email,
			FullName:       demo.FullName,
			HashedPassword: hashed,
			Balance:        s.startingBalance,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := account.Validate(); err != nil {
			return err
		}
		if err := s.accounts.Create(ctx, account); err != nil {
			return fmt.Errorf("failed to create %s: %w", demo.Email, err)
		}

		s.logger.Info("seeded demo account", zap.String("email", demo.Email))
		created++
	}

	// Demo transfers only make sense once, on a fresh ledger. A partial
	// seed means a previous run was interrupted; skip history rather than
	// risk duplicating it.
	if created != len(demoAccounts()) {
		return nil
	}

	for _, dt := range demoTransfers() {
		txn, err := s.transfers.Execute(ctx, transfer.ExecuteInput{
			SenderID:       dt.from,
			RecipientEmail: dt.toEmail,
			Amount:         decimal.RequireFromString(dt.amount),
			Description:    dt.description,
		})
		if err != nil {
			return fmt.Errorf("failed to seed transfer to %s: %w", dt.toEmail, err)
		}
		s.logger.Info("seeded demo transfer",
			zap.String("transaction_id", txn.ID.String()),
			zap.String("amount", txn.Amount.StringFixed(2)),
		)
	}

	return nil
}
