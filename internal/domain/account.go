package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account represents a per-user balance record.
// The ID is the stable user identifier issued at registration and is the key
// every transfer and history query is resolved against.
type Account struct {
	ID             uuid.UUID
	Email          string
	FullName       string
	HashedPassword string
	Balance        decimal.Decimal // always >= 0, stored to 2 decimal places
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate ensures the account adheres to domain rules.
// Returns an error if validation fails.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Email) == "" {
		return errors.New("account email cannot be empty")
	}

	if a.Balance.IsNegative() {
		return errors.New("account balance cannot be negative")
	}

	return nil
}
