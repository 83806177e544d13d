package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"feels/backend/pkg/jwt"

	"github.com/google/uuid"
)

// JWTStore issues signed, self-contained tokens. Revoked token ids are kept
// in a deny list until the token would have expired anyway.
type JWTStore struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu     sync.Mutex
	denied map[string]time.Time
}

func NewJWTStore(secret string, ttl time.Duration, now func() time.Time) (*JWTStore, error) {
	if secret == "" {
		return nil, errors.New("session: jwt secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &JWTStore{secret: []byte(secret), ttl: ttl, now: now, denied: make(map[string]time.Time)}, nil
}

func (s *JWTStore) Create(_ context.Context, accountUID string) (Token, error) {
	issued := s.now()
	value, err := jwt.GenerateToken(s.secret, accountUID, uuid.NewString(), issued, s.ttl)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: value, ExpiresAt: issued.Add(s.ttl)}, nil
}

func (s *JWTStore) Validate(_ context.Context, token string) (string, error) {
	claims, err := jwt.ParseToken(s.secret, token, s.now)
	if errors.Is(err, jwt.ErrExpired) {
		return "", ErrExpired
	}
	if err != nil {
		return "", ErrInvalid
	}

	s.mu.Lock()
	_, revoked := s.denied[claims.ID]
	s.mu.Unlock()
	if revoked {
		return "", ErrInvalid
	}
	return claims.Subject, nil
}

// Revoke denies token for the rest of its lifetime. Tokens that no longer
// verify are ignored.
func (s *JWTStore) Revoke(_ context.Context, token string) error {
	claims, err := jwt.ParseToken(s.secret, token, s.now)
	if err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, exp := range s.denied {
		if !now.Before(exp) {
			delete(s.denied, id)
		}
	}
	s.denied[claims.ID] = claims.ExpiresAt.Time
	return nil
}

func (s *JWTStore) Close() error { return nil }
