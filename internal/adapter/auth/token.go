// Package auth provides the identity-provider collaborators: bearer token
// issuance/verification and password hashing. The transfer engine never sees
// any of this; it receives an already-verified sender ID.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken indicates a token that is malformed, expired, or carries an
// invalid signature.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the verified identity extracted from a bearer token.
type Claims struct {
	AccountID uuid.UUID
	Email     string
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a TokenManager with the given signing secret and
// token lifetime.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token identifying the account.
func (m *TokenManager) Issue(accountID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string, returning the claims it carries.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Claims{AccountID: accountID, Email: claims.Email}, nil
}
