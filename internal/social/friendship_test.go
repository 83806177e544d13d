package social

import (
	"context"
	"errors"
	"sync"
	"testing"

	"feels/backend/internal/models"
	"feels/backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.account(t, "alice"), f.account(t, "bob")

	req, err := f.svc.Friends.SendRequest(ctx, alice, bob.UID, "hi")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, req.Status)
	assert.Equal(t, "hi", req.Message)
	assert.Equal(t, alice.UID, req.SenderUID)
	assert.Equal(t, bob.UID, req.Receiver.UID)
	assert.Nil(t, req.RespondedAt)
	assert.Equal(t, []string{req.UID}, f.notifier.sent)

	_, err = f.svc.Friends.SendRequest(ctx, alice, bob.UID, "again")
	assert.ErrorIs(t, err, ErrRequestAlreadySent)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestSendRequestFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.account(t, "alice"), f.account(t, "bob")

	tests := []struct {
		name     string
		receiver string
		want     error
		kind     Kind
	}{
		{name: "unknown receiver", receiver: "missing", want: ErrReceiverNotFound, kind: KindNotFound},
		{name: "self", receiver: alice.UID, want: ErrSelfRequest, kind: KindInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Friends.SendRequest(ctx, alice, tt.receiver, "")
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}

	reqs, err := f.svc.Friends.ListRequests(ctx, alice, store.ScopeAll)
	require.NoError(t, err)
	assert.Empty(t, reqs, "failed sends must not write anything")

	f.befriend(t, alice, bob)
	_, err = f.svc.Friends.SendRequest(ctx, alice, bob.UID, "")
	assert.ErrorIs(t, err, ErrAlreadyFriends)
	_, err = f.svc.Friends.SendRequest(ctx, bob, alice.UID, "")
	assert.ErrorIs(t, err, ErrAlreadyFriends)
}

func TestReversePendingRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.account(t, "alice"), f.account(t, "bob")

	first, err := f.svc.Friends.SendRequest(ctx, alice, bob.UID, "")
	require.NoError(t, err)

	_, err = f.svc.Friends.SendRequest(ctx, bob, alice.UID, "")
	require.ErrorIs(t, err, ErrReverseRequestExists)
	assert.NotErrorIs(t, err, ErrRequestAlreadySent)
	assert.Equal(t, "This user has already sent you a friend request", err.Error())

	got, err := f.store.FriendRequestByUID(ctx, first.UID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)

	sent, err := f.svc.Friends.ListRequests(ctx, bob, store.ScopeSent)
	require.NoError(t, err)
	assert.Empty(t, sent)
}

func TestRespondAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.account(t, "alice"), f.account(t, "bob")

	req, err := f.svc.Friends.SendRequest(ctx, alice, bob.UID, "")
	require.NoError(t, err)

	got, err := f.svc.Friends.Respond(ctx, req.UID, bob, ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, got.Status)
	require.NotNil(t, got.RespondedAt)
	assert.Equal(t, []string{req.UID}, f.notifier.accepted)

	for _, pair := range [][2]string{{alice.UID, bob.UID}, {bob.UID, alice.UID}} {
		ok, err := f.store.IsFriend(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, ok, "FRIENDS_WITH(%s, %s)", pair[0], pair[1])
	}

	_, err = f.svc.Friends.SendRequest(ctx, alice, bob.UID, "")
	assert.ErrorIs(t, err, ErrAlreadyFriends)
}

func TestRespondReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.account(t, "alice"), f.account(t, "bob")

	req, err := f.svc.Friends.SendRequest(ctx, alice, bob.UID, "")
	require.NoError(t, err)

	got, err := f.svc.Friends.Respond(ctx, req.UID, bob, ActionReject)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
	assert.NotNil(t, got.RespondedAt)
	assert.Empty(t, f.notifier.accepted)

	ok, err := f.store.IsFriend(ctx, alice.UID, bob.UID)
	require.NoError(t, err)
	assert.False(t, ok)

	// A rejected request no longer blocks a new one.
	_, err = f.svc.Friends.SendRequest(ctx, alice, bob.UID, "second try")
	assert.NoError(t, err)
}

func TestRespondFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, carol := f.account(t, "alice"), f.account(t, "bob"), f.account(t, "carol")

	req, err := f.svc.Friends.SendRequest(ctx, alice, bob.UID, "")
	require.NoError(t, err)

	_, err = f.svc.Friends.Respond(ctx, "missing", bob, ActionAccept)
	assert.ErrorIs(t, err, ErrRequestNotFound)

	for _, who := range []*models.Account{alice, carol} {
		_, err = f.svc.Friends.Respond(ctx, req.UID, who, ActionAccept)
		assert.ErrorIs(t, err, ErrNotRequestReceiver, who.Username)
		assert.Equal(t, KindForbidden, KindOf(err))
	}

	_, err = f.svc.Friends.Respond(ctx, req.UID, bob, Action("maybe"))
	assert.ErrorIs(t, err, ErrInvalidAction)

	got, err := f.store.FriendRequestByUID(ctx, req.UID)
	require.NoError(t, err)
	assert.True(t, got.IsPending())
}

func TestRespondTerminalRequest(t *testing.T) {
	t.Run("lenient re-applies", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		alice, bob := f.account(t, "alice"), f.account(t, "bob")

		req, err := f.svc.Friends.SendRequest(ctx, alice, bob.UID, "")
		require.NoError(t, err)
		_, err = f.svc.Friends.Respond(ctx, req.UID, bob, ActionAccept)
		require.NoError(t, err)

		got, err := f.svc.Friends.Respond(ctx, req.UID, bob, ActionReject)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, got.Status)

		ok, err := f.store.IsFriend(ctx, alice.UID, bob.UID)
		require.NoError(t, err)
		assert.True(t, ok, "re-rejecting leaves the friendship in place")
	})

	t.Run("strict rejects", func(t *testing.T) {
		f := newFixture(t, func(o *Options) { o.StrictTransitions = true })
		ctx := context.Background()
		alice, bob := f.account(t, "alice"), f.account(t, "bob")

		req, err := f.svc.Friends.SendRequest(ctx, alice, bob.UID, "")
		require.NoError(t, err)
		_, err = f.svc.Friends.Respond(ctx, req.UID, bob, ActionReject)
		require.NoError(t, err)

		_, err = f.svc.Friends.Respond(ctx, req.UID, bob, ActionAccept)
		assert.ErrorIs(t, err, ErrRequestResolved)
		assert.Equal(t, KindConflict, KindOf(err))
	})
}

func TestListRequestsScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, carol := f.account(t, "alice"), f.account(t, "bob"), f.account(t, "carol")

	ab, err := f.svc.Friends.SendRequest(ctx, alice, bob.UID, "")
	require.NoError(t, err)
	ca, err := f.svc.Friends.SendRequest(ctx, carol, alice.UID, "")
	require.NoError(t, err)

	requestUIDs := func(reqs []models.FriendRequest) []string {
		var out []string
		for _, r := range reqs {
			out = append(out, r.UID)
		}
		return out
	}

	for scope, want := range map[store.RequestScope][]string{
		store.ScopeReceived: {ca.UID},
		store.ScopeSent:     {ab.UID},
		store.ScopeAll:      {ab.UID, ca.UID},
	} {
		reqs, err := f.svc.Friends.ListRequests(ctx, alice, scope)
		require.NoError(t, err)
		assert.Equal(t, want, requestUIDs(reqs), string(scope))
	}

	reqs, err := f.svc.Friends.ListRequests(ctx, alice, store.ScopeReceived)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "carol", reqs[0].Sender.Username)
	assert.Equal(t, "alice", reqs[0].Receiver.Username)
}

func TestNotifierFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")
	alice, bob := f.account(t, "alice"), f.account(t, "bob")

	_, err := f.svc.Friends.SendRequest(context.Background(), alice, bob.UID, "")
	assert.NoError(t, err)
}

func TestConcurrentSendsCreateOneRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.account(t, "alice"), f.account(t, "bob")

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender, receiver := alice, bob
			if i%2 == 1 {
				sender, receiver = bob, alice
			}
			_, err := f.svc.Friends.SendRequest(ctx, sender, receiver.UID, "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if KindOf(err) == KindConflict {
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)

	reqs, err := f.svc.Friends.ListRequests(ctx, alice, store.ScopeAll)
	require.NoError(t, err)
	assert.Len(t, reqs, 1)
}
