// Package social holds the rules of the social graph: the friend request
// state machine, friendship-gated read access to posts and chats, and the
// chat timeline with its last-message bookkeeping.
package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feels/backend/internal/models"
	"feels/backend/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Notifier is told about friend request events. Failures are logged and
// never fail the request that triggered them.
type Notifier interface {
	FriendRequestSent(ctx context.Context, req *models.FriendRequest) error
	FriendRequestAccepted(ctx context.Context, req *models.FriendRequest) error
}

// Publisher pushes chat events to live subscribers.
type Publisher interface {
	Publish(chatUID, eventType string, payload any)
}

// Options configures a Service. Zero values get sensible defaults.
type Options struct {
	Logger    *zap.Logger
	Now       func() time.Time
	Notifier  Notifier
	Publisher Publisher

	// StrictTransitions rejects responses to requests that are no longer
	// pending instead of re-applying the transition.
	StrictTransitions bool

	// PasswordCost is the bcrypt cost for new passwords.
	PasswordCost int
}

// Service bundles the domain services over a single store.
type Service struct {
	Accounts *AccountService
	Feelings *FeelingService
	Friends  *FriendshipService
	Authz    *Authorizer
	Posts    *PostService
	Chats    *Timeline
}

// New wires every domain service to st.
func New(st store.Store, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}
	if opts.PasswordCost == 0 {
		opts.PasswordCost = bcrypt.DefaultCost
	}

	authz := &Authorizer{friends: st}
	return &Service{
		Accounts: &AccountService{store: st, authz: authz, now: opts.Now, cost: opts.PasswordCost},
		Feelings: &FeelingService{store: st, log: opts.Logger.Named("feelings"), now: opts.Now},
		Friends: &FriendshipService{
			store:    st,
			notifier: opts.Notifier,
			log:      opts.Logger.Named("friends"),
			now:      opts.Now,
			strict:   opts.StrictTransitions,
			locks:    newKeyedMutex(),
		},
		Authz: authz,
		Posts: &PostService{store: st, authz: authz, log: opts.Logger.Named("posts"), now: opts.Now},
		Chats: &Timeline{
			store:     st,
			authz:     authz,
			publisher: opts.Publisher,
			log:       opts.Logger.Named("chats"),
			now:       opts.Now,
			locks:     newKeyedMutex(),
		},
	}
}

func newUID() string {
	return uuid.NewString()
}

// storeErr maps store.ErrNotFound to notFound and wraps anything else as an
// internal failure of op.
func storeErr(err error, notFound *Error, op string) error {
	if notFound != nil && errors.Is(err, store.ErrNotFound) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// FeelingOutcome reports how an optional feeling attachment went. The
// primary operation succeeds regardless.
type FeelingOutcome struct {
	Requested bool
	Attached  bool
	Warning   string
}

func resolveFeeling(ctx context.Context, feelings store.Feelings, log *zap.Logger, name string) (*models.Feeling, FeelingOutcome) {
	if name == "" {
		return nil, FeelingOutcome{}
	}
	out := FeelingOutcome{Requested: true}
	f, err := feelings.FeelingByName(ctx, name)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn("feeling lookup failed", zap.String("feeling", name), zap.Error(err))
		}
		out.Warning = fmt.Sprintf("Feeling '%s' not found or could not be connected", name)
		return nil, out
	}
	out.Attached = true
	return f, out
}

type nopNotifier struct{}

func (nopNotifier) FriendRequestSent(context.Context, *models.FriendRequest) error     { return nil }
func (nopNotifier) FriendRequestAccepted(context.Context, *models.FriendRequest) error { return nil }

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, any) {}
