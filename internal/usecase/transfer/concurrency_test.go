package transfer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peerpay/peerpay-backend/internal/adapter/repository/memory"
	"github.com/peerpay/peerpay-backend/internal/domain"
)

// These tests run the real engine against the in-memory ledger store to
// exercise the concurrency properties: conservation of funds, no negative
// balances, exactly one record per validated attempt, and deadlock freedom.

func newMemoryService(t *testing.T, store *memory.Store) *Service {
	t.Helper()
	return NewService(store, store.Transactions(), store, defaultLimits(), 5*time.Second)
}

func createAccount(t *testing.T, store *memory.Store, email, balance string) *domain.Account {
	t.Helper()
	account := &domain.Account{
		ID:      uuid.New(),
		Email:   email,
		Balance: decimal.RequireFromString(balance),
	}
	require.NoError(t, store.Create(context.Background(), account))
	return account
}

func balanceOf(t *testing.T, store *memory.Store, id uuid.UUID) decimal.Decimal {
	t.Helper()
	account, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)
	return account.Balance
}

func TestExecute_ContendedSender(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := newMemoryService(t, store)

	alice := createAccount(t, store, "alice@example.com", "50.00")
	bob := createAccount(t, store, "bob@example.com", "0.00")

	const attempts = 100
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Execute(ctx, ExecuteInput{
				SenderID:       alice.ID,
				RecipientEmail: bob.Email,
				Amount:         decimal.RequireFromString("1.00"),
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var completed, insufficient int
	for err := range results {
		switch {
		case err == nil:
			completed++
		case assert.ErrorIs(t, err, domain.ErrInsufficientFunds):
			insufficient++
		}
	}

	assert.Equal(t, 50, completed)
	assert.Equal(t, 50, insufficient)
	assert.True(t, balanceOf(t, store, alice.ID).Equal(decimal.Zero),
		"sender must be drained to exactly zero")
	assert.True(t, balanceOf(t, store, bob.ID).Equal(decimal.RequireFromString("50.00")),
		"recipient must be credited by exactly the completed total")

	// Every attempt passed validation, so every attempt left exactly one
	// terminal record.
	_, total, err := store.Transactions().ListForAccount(ctx, alice.ID, domain.DirectionSent, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, attempts, total)
}

func TestExecute_OppositeDirectionTransfersDoNotDeadlock(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := newMemoryService(t, store)

	alice := createAccount(t, store, "alice@example.com", "500.00")
	bob := createAccount(t, store, "bob@example.com", "500.00")

	const rounds = 50
	var wg sync.WaitGroup
	errs := make(chan error, rounds*2)

	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := service.Execute(ctx, ExecuteInput{
				SenderID:       alice.ID,
				RecipientEmail: bob.Email,
				Amount:         decimal.RequireFromString("1.00"),
			})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := service.Execute(ctx, ExecuteInput{
				SenderID:       bob.ID,
				RecipientEmail: alice.Email,
				Amount:         decimal.RequireFromString("1.00"),
			})
			errs <- err
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("opposite-direction transfers deadlocked")
	}
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// Equal traffic in both directions nets to zero.
	assert.True(t, balanceOf(t, store, alice.ID).Equal(decimal.RequireFromString("500.00")))
	assert.True(t, balanceOf(t, store, bob.ID).Equal(decimal.RequireFromString("500.00")))
}

func TestExecute_ConservationUnderConcurrentLoad(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := newMemoryService(t, store)

	accounts := make([]*domain.Account, 4)
	for i := range accounts {
		accounts[i] = createAccount(t, store,
			fmt.Sprintf("user%d@example.com", i), "100.00")
	}
	initialTotal := decimal.RequireFromString("400.00")

	const transfers = 200
	var wg sync.WaitGroup
	for i := 0; i < transfers; i++ {
		from := accounts[i%len(accounts)]
		to := accounts[(i+1+i%3)%len(accounts)]
		if from.ID == to.ID {
			continue
		}
		wg.Add(1)
		go func(senderID uuid.UUID, recipientEmail string, n int) {
			defer wg.Done()
			amount := decimal.NewFromInt(int64(n%7 + 1)).Div(decimal.NewFromInt(2))
			_, err := service.Execute(ctx, ExecuteInput{
				SenderID:       senderID,
				RecipientEmail: recipientEmail,
				Amount:         amount,
			})
			// Insufficient funds is an acceptable outcome under contention.
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
			}
		}(from.ID, to.Email, i)
	}
	wg.Wait()

	total := decimal.Zero
	for _, account := range accounts {
		balance := balanceOf(t, store, account.ID)
		assert.False(t, balance.IsNegative(), "no balance may ever go negative")
		total = total.Add(balance)
	}
	assert.True(t, total.Equal(initialTotal),
		"sum of balances must be conserved, got %s", total)
}
