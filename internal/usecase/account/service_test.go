package account

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peerpay/peerpay-backend/internal/adapter/auth"
	"github.com/peerpay/peerpay-backend/internal/adapter/repository/memory"
	"github.com/peerpay/peerpay-backend/internal/domain"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	service := NewService(store, tokens, auth.NewPasswordHasher(), decimal.RequireFromString("1000.00"))
	return service, store
}

func TestRegister_CreditsStartingBalance(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)

	account, token, err := service.Register(ctx, RegisterInput{
		Email:    "Alice@Example.com",
		FullName: "Alice Johnson",
		Password: "Sup3rSecret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.Equal(t, "alice@example.com", account.Email, "email is normalized")
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("1000.00")))
	assert.NotEqual(t, "Sup3rSecret", account.HashedPassword)

	persisted, err := store.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.Email, persisted.Email)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	_, _, err := service.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "Sup3rSecret"})
	require.NoError(t, err)

	_, _, err = service.Register(ctx, RegisterInput{Email: "ALICE@example.com", Password: "An0therPass"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	_, _, err := service.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "short"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8")
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	registered, _, err := service.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "Sup3rSecret"})
	require.NoError(t, err)

	account, token, err := service.Login(ctx, "alice@example.com", "Sup3rSecret")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, account.ID)
	assert.NotEmpty(t, token)

	_, _, err = service.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = service.Login(ctx, "nobody@example.com", "Sup3rSecret")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSearch_ExcludesRequester(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	alice, _, err := service.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "Sup3rSecret"})
	require.NoError(t, err)
	_, _, err = service.Register(ctx, RegisterInput{Email: "alina@example.com", Password: "Sup3rSecret"})
	require.NoError(t, err)

	results, err := service.Search(ctx, "ali", alice.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alina@example.com", results[0].Email)
}
