package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	accountUID string
	expiresAt  time.Time
}

// MemoryStore keeps opaque tokens in process memory. Sessions do not survive
// a restart. A background goroutine drops expired entries until Close.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]memoryEntry

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

type MemoryOption func(*MemoryStore)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore starts a store whose reaper runs every reapInterval.
// A zero reapInterval disables the reaper; expired tokens are still rejected.
func NewMemoryStore(ttl, reapInterval time.Duration, opts ...MemoryOption) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]memoryEntry),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if reapInterval > 0 {
		go s.reap(reapInterval)
	} else {
		close(s.done)
	}
	return s
}

func (s *MemoryStore) Create(_ context.Context, accountUID string) (Token, error) {
	value, err := randomToken(32)
	if err != nil {
		return Token{}, err
	}
	expires := s.now().Add(s.ttl)

	s.mu.Lock()
	s.sessions[value] = memoryEntry{accountUID: accountUID, expiresAt: expires}
	s.mu.Unlock()

	return Token{Value: value, ExpiresAt: expires}, nil
}

func (s *MemoryStore) Validate(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[token]
	if !ok {
		return "", ErrInvalid
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.sessions, token)
		return "", ErrExpired
	}
	return e.accountUID, nil
}

func (s *MemoryStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored sessions, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close stops the reaper and waits for it to exit.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	return nil
}

func (s *MemoryStore) reap(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.purgeExpired()
		}
	}
}

func (s *MemoryStore) purgeExpired() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, e := range s.sessions {
		if !now.Before(e.expiresAt) {
			delete(s.sessions, token)
		}
	}
}
