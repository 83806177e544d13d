package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *manualClock {
	return &manualClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func TestStores(t *testing.T) {
	factories := map[string]func(t *testing.T, clock *manualClock) Store{
		"memory": func(t *testing.T, clock *manualClock) Store {
			return NewMemoryStore(time.Hour, 0, WithClock(clock.Now))
		},
		"jwt": func(t *testing.T, clock *manualClock) Store {
			s, err := NewJWTStore("test-secret", time.Hour, clock.Now)
			require.NoError(t, err)
			return s
		},
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("round trip", func(t *testing.T) {
				clock := newClock()
				s := factory(t, clock)
				defer s.Close()

				tok, err := s.Create(ctx, "acc-1")
				require.NoError(t, err)
				assert.NotEmpty(t, tok.Value)
				assert.Equal(t, clock.Now().Add(time.Hour), tok.ExpiresAt)

				uid, err := s.Validate(ctx, tok.Value)
				require.NoError(t, err)
				assert.Equal(t, "acc-1", uid)
			})

			t.Run("distinct tokens", func(t *testing.T) {
				s := factory(t, newClock())
				defer s.Close()

				a, err := s.Create(ctx, "acc-1")
				require.NoError(t, err)
				b, err := s.Create(ctx, "acc-1")
				require.NoError(t, err)
				assert.NotEqual(t, a.Value, b.Value)
			})

			t.Run("expiry", func(t *testing.T) {
				clock := newClock()
				s := factory(t, clock)
				defer s.Close()

				tok, err := s.Create(ctx, "acc-1")
				require.NoError(t, err)
				clock.Advance(time.Hour + time.Second)

				_, err = s.Validate(ctx, tok.Value)
				assert.ErrorIs(t, err, ErrExpired)
			})

			t.Run("revoke", func(t *testing.T) {
				s := factory(t, newClock())
				defer s.Close()

				tok, err := s.Create(ctx, "acc-1")
				require.NoError(t, err)
				other, err := s.Create(ctx, "acc-1")
				require.NoError(t, err)

				require.NoError(t, s.Revoke(ctx, tok.Value))
				_, err = s.Validate(ctx, tok.Value)
				assert.ErrorIs(t, err, ErrInvalid)

				_, err = s.Validate(ctx, other.Value)
				assert.NoError(t, err, "revoking one token leaves others alone")
			})

			t.Run("garbage", func(t *testing.T) {
				s := factory(t, newClock())
				defer s.Close()

				_, err := s.Validate(ctx, "not-a-token")
				assert.ErrorIs(t, err, ErrInvalid)
				assert.NoError(t, s.Revoke(ctx, "not-a-token"))
			})
		})
	}
}

func TestMemoryStoreReaper(t *testing.T) {
	clock := newClock()
	s := NewMemoryStore(time.Minute, 5*time.Millisecond, WithClock(clock.Now))
	defer s.Close()

	_, err := s.Create(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	clock.Advance(2 * time.Minute)
	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestMemoryStoreCloseIsIdempotent(t *testing.T) {
	s := NewMemoryStore(time.Minute, time.Millisecond)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestNewJWTStoreRequiresSecret(t *testing.T) {
	_, err := NewJWTStore("", time.Hour, nil)
	assert.Error(t, err)
}
