// Package session issues and checks the bearer tokens that identify an
// account between requests.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"
)

var (
	ErrInvalid = errors.New("session: invalid token")
	ErrExpired = errors.New("session: token expired")
)

// DefaultTTL is how long a session lasts unless configured otherwise.
const DefaultTTL = 24 * time.Hour

// Token is an issued session token.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Store creates, validates and revokes sessions.
type Store interface {
	Create(ctx context.Context, accountUID string) (Token, error)
	// Validate returns the account uid behind token, or ErrInvalid / ErrExpired.
	Validate(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
	Close() error
}

// randomToken returns n random bytes encoded url-safe without padding.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
