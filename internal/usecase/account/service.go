package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/peerpay/peerpay-backend/internal/domain"
)

// searchLimit caps recipient search results.
const searchLimit = 10

// minPasswordLength is the minimum accepted password length at registration.
const minPasswordLength = 8

// TokenIssuer signs a bearer token for an authenticated account.
type TokenIssuer interface {
	Issue(accountID uuid.UUID, email string) (string, error)
}

// PasswordHasher hashes passwords at registration and verifies them at login.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashed, password string) error
}

// RegisterInput represents a registration request.
type RegisterInput struct {
	Email    string
	FullName string
	Password string
}

// Service handles account registration, authentication and lookup.
type Service struct {
	accounts        domain.AccountRepository
	tokens          TokenIssuer
	passwords       PasswordHasher
	startingBalance decimal.Decimal
}

// NewService creates a new account Service instance.
func NewService(accounts domain.AccountRepository, tokens TokenIssuer, passwords PasswordHasher, startingBalance decimal.Decimal) *Service {
	return &Service{
		accounts:        accounts,
		tokens:          tokens,
		passwords:       passwords,
		startingBalance: startingBalance,
	}
}

// Register creates an account credited with the configured starting balance
// and returns it together with a signed token.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.Account, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, "", errors.New("email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, "", errors.New("password must be at least 8 characters")
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, "", domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, "", err
	}

	hashed, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:             uuid.New(),
		Email:          email,
		FullName:       strings.TrimSpace(input.FullName),
		HashedPassword: hashed,
		Balance:        s.startingBalance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := account.Validate(); err != nil {
		return nil, "", err
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// Login verifies the credentials and returns the account with a signed token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Account, string, error) {
	account, err := s.accounts.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := s.passwords.Compare(account.HashedPassword, password); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// Get retrieves an account by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// Search finds accounts by email substring for recipient selection, excluding
// the requester.
func (s *Service) Search(ctx context.Context, query string, requesterID uuid.UUID) ([]*domain.Account, error) {
	return s.accounts.Search(ctx, query, requesterID, searchLimit)
}
