package social

import (
	"context"
	"sync"
	"testing"
	"time"

	"feels/backend/internal/models"
	"feels/backend/internal/store/memory"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// stepClock advances by one millisecond on every call so that successive
// writes get distinct, increasing timestamps.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type recordingNotifier struct {
	mu       sync.Mutex
	sent     []string
	accepted []string
	err      error
}

func (n *recordingNotifier) FriendRequestSent(_ context.Context, req *models.FriendRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, req.UID)
	return n.err
}

func (n *recordingNotifier) FriendRequestAccepted(_ context.Context, req *models.FriendRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.accepted = append(n.accepted, req.UID)
	return n.err
}

type publishedEvent struct {
	chatUID, eventType string
	payload            any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(chatUID, eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{chatUID, eventType, payload})
}

type fixture struct {
	svc       *Service
	store     *memory.Store
	notifier  *recordingNotifier
	publisher *recordingPublisher
}

func newFixture(t *testing.T, mutate ...func(*Options)) *fixture {
	t.Helper()
	f := &fixture{
		store:     memory.New(),
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
	}
	opts := Options{
		Now:          newStepClock().Now,
		Notifier:     f.notifier,
		Publisher:    f.publisher,
		PasswordCost: bcrypt.MinCost,
	}
	for _, m := range mutate {
		m(&opts)
	}
	f.svc = New(f.store, opts)

	_, err := f.svc.Feelings.SeedDefaults(context.Background())
	require.NoError(t, err)
	return f
}

func (f *fixture) account(t *testing.T, username string) *models.Account {
	t.Helper()
	acc, err := f.svc.Accounts.Register(context.Background(), Registration{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret-" + username,
	})
	require.NoError(t, err)
	return acc
}

func (f *fixture) befriend(t *testing.T, a, b *models.Account) {
	t.Helper()
	ctx := context.Background()
	req, err := f.svc.Friends.SendRequest(ctx, a, b.UID, "")
	require.NoError(t, err)
	_, err = f.svc.Friends.Respond(ctx, req.UID, b, ActionAccept)
	require.NoError(t, err)
}
