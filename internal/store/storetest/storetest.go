// Package storetest is a behavioral test suite shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"feels/backend/internal/models"
	"feels/backend/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

var base = time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

func at(minutes int) time.Time { return base.Add(time.Duration(minutes) * time.Minute) }

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"Accounts", testAccounts},
		{"FriendRequests", testFriendRequests},
		{"ResolveAcceptCreatesBothEdges", testResolveAccept},
		{"Feelings", testFeelings},
		{"Posts", testPosts},
		{"MarkPostRead", testMarkPostRead},
		{"Chats", testChats},
		{"AppendMessageMovesPointerForward", testAppendMessage},
		{"ConcurrentAppend", testConcurrentAppend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func newAccount(t *testing.T, s store.Store, username string) *models.Account {
	t.Helper()
	a := &models.Account{
		UID:          uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		DisplayName:  username,
		PasswordHash: "x",
		CreatedAt:    base,
		LastActive:   base,
	}
	require.NoError(t, s.CreateAccount(context.Background(), a))
	return a
}

func testAccounts(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := newAccount(t, s, "alice")

	got, err := s.AccountByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.UID, got.UID)

	_, err = s.AccountByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	dup := *alice
	dup.UID = uuid.NewString()
	dup.Email = "other@example.com"
	assert.ErrorIs(t, s.CreateAccount(ctx, &dup), store.ErrDuplicate)

	got.Bio = "hello"
	got.PostsReadCount = 3
	require.NoError(t, s.UpdateAccount(ctx, got))
	got, err = s.AccountByUID(ctx, alice.UID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Bio)
	assert.Equal(t, 3, got.PostsReadCount)

	missing := models.Account{UID: "missing", Username: "ghost", Email: "ghost@example.com"}
	assert.ErrorIs(t, s.UpdateAccount(ctx, &missing), store.ErrNotFound)

	all, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func newRequest(t *testing.T, s store.Store, from, to *models.Account, minute int) *models.FriendRequest {
	t.Helper()
	r := &models.FriendRequest{
		UID:         uuid.NewString(),
		SenderUID:   from.UID,
		ReceiverUID: to.UID,
		Status:      models.StatusPending,
		CreatedAt:   at(minute),
	}
	require.NoError(t, s.CreateFriendRequest(context.Background(), r))
	return r
}

func testFriendRequests(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice, bob, carol := newAccount(t, s, "alice"), newAccount(t, s, "bob"), newAccount(t, s, "carol")

	ab := newRequest(t, s, alice, bob, 1)
	ca := newRequest(t, s, carol, alice, 2)

	got, err := s.PendingRequest(ctx, alice.UID, bob.UID)
	require.NoError(t, err)
	assert.Equal(t, ab.UID, got.UID)
	assert.Equal(t, "bob", got.Receiver.Username)

	_, err = s.PendingRequest(ctx, bob.UID, alice.UID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	ids := func(scope store.RequestScope) []string {
		reqs, err := s.FriendRequestsFor(ctx, alice.UID, scope)
		require.NoError(t, err)
		var out []string
		for _, r := range reqs {
			out = append(out, r.UID)
		}
		return out
	}
	assert.Equal(t, []string{ca.UID}, ids(store.ScopeReceived))
	assert.Equal(t, []string{ab.UID}, ids(store.ScopeSent))
	assert.Equal(t, []string{ab.UID, ca.UID}, ids(store.ScopeAll))

	require.NoError(t, s.ResolveFriendRequest(ctx, ca.UID, models.StatusRejected, at(3)))
	got, err = s.FriendRequestByUID(ctx, ca.UID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
	require.NotNil(t, got.RespondedAt)
	assert.True(t, got.RespondedAt.Equal(at(3)))

	_, err = s.PendingRequest(ctx, carol.UID, alice.UID)
	assert.ErrorIs(t, err, store.ErrNotFound, "resolved requests are not pending")

	ok, err := s.IsFriend(ctx, carol.UID, alice.UID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, s.ResolveFriendRequest(ctx, "missing", models.StatusAccepted, at(4)), store.ErrNotFound)
}

func testResolveAccept(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice, bob := newAccount(t, s, "alice"), newAccount(t, s, "bob")
	req := newRequest(t, s, alice, bob, 1)

	require.NoError(t, s.ResolveFriendRequest(ctx, req.UID, models.StatusAccepted, at(2)))
	// Re-applying must not duplicate the edges.
	require.NoError(t, s.ResolveFriendRequest(ctx, req.UID, models.StatusAccepted, at(3)))

	for _, pair := range [][2]*models.Account{{alice, bob}, {bob, alice}} {
		ok, err := s.IsFriend(ctx, pair[0].UID, pair[1].UID)
		require.NoError(t, err)
		assert.True(t, ok)

		friends, err := s.Friends(ctx, pair[0].UID)
		require.NoError(t, err)
		require.Len(t, friends, 1)
		assert.Equal(t, pair[1].UID, friends[0].UID)
	}
}

func testFeelings(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateFeelingType(ctx, &models.FeelingType{Name: "low_energy_pleasant", CreatedAt: base}))
	assert.ErrorIs(t, s.CreateFeelingType(ctx, &models.FeelingType{Name: "low_energy_pleasant", CreatedAt: base}), store.ErrDuplicate)

	typ := "low_energy_pleasant"
	require.NoError(t, s.CreateFeeling(ctx, &models.Feeling{Name: "Calm", Color: "#45B7D1", FeelingTypeName: &typ, CreatedAt: base}))
	assert.ErrorIs(t, s.CreateFeeling(ctx, &models.Feeling{Name: "Calm", Color: "#000000", CreatedAt: base}), store.ErrDuplicate)

	bogus := "nope"
	assert.ErrorIs(t, s.CreateFeeling(ctx, &models.Feeling{Name: "Odd", Color: "#000000", FeelingTypeName: &bogus, CreatedAt: base}), store.ErrNotFound)

	f, err := s.FeelingByName(ctx, "Calm")
	require.NoError(t, err)
	require.NotNil(t, f.FeelingType)
	assert.Equal(t, "low_energy_pleasant", f.FeelingType.Name)

	all, err := s.ListFeelings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	types, err := s.FeelingTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 1)

	_, err = s.FeelingByName(ctx, "Missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testPosts(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := newAccount(t, s, "alice")
	require.NoError(t, s.CreateFeeling(ctx, &models.Feeling{Name: "Joyful", Color: "#FFD23F", CreatedAt: base}))

	joyful := "Joyful"
	for i, body := range []string{"first", "second", "third"} {
		p := &models.Post{UID: uuid.NewString(), Body: body, AuthorUID: alice.UID, CreatedAt: at(i)}
		if i == 1 {
			p.FeelingName = &joyful
		}
		require.NoError(t, s.CreatePost(ctx, p))
	}

	missing := "Missing"
	err := s.CreatePost(ctx, &models.Post{UID: uuid.NewString(), Body: "x", AuthorUID: alice.UID, FeelingName: &missing, CreatedAt: at(9)})
	assert.ErrorIs(t, err, store.ErrNotFound)

	posts, err := s.PostsByAuthor(ctx, alice.UID)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{posts[0].Body, posts[1].Body, posts[2].Body})
	require.NotNil(t, posts[1].Feeling)
	assert.Equal(t, "#FFD23F", posts[1].Feeling.Color)
	assert.Equal(t, "alice", posts[0].Author.Username)

	acc, err := s.AccountByUID(ctx, alice.UID)
	require.NoError(t, err)
	assert.Equal(t, 1, acc.FeelingsSharedCount, "only posts with a feeling count")

	updated := at(20)
	posts[0].Body = "edited"
	posts[0].UpdatedAt = &updated
	require.NoError(t, s.UpdatePost(ctx, &posts[0]))
	got, err := s.PostByUID(ctx, posts[0].UID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Body)

	all, err := s.ListPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testMarkPostRead(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice, bob := newAccount(t, s, "alice"), newAccount(t, s, "bob")
	p := &models.Post{UID: uuid.NewString(), Body: "hi", AuthorUID: alice.UID, CreatedAt: base}
	require.NoError(t, s.CreatePost(ctx, p))

	counted, err := s.MarkPostRead(ctx, p.UID, bob.UID)
	require.NoError(t, err)
	assert.True(t, counted)
	counted, err = s.MarkPostRead(ctx, p.UID, bob.UID)
	require.NoError(t, err)
	assert.False(t, counted)

	acc, err := s.AccountByUID(ctx, bob.UID)
	require.NoError(t, err)
	assert.Equal(t, 1, acc.PostsReadCount)

	_, err = s.MarkPostRead(ctx, "missing", bob.UID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func newChat(t *testing.T, s store.Store, members ...*models.Account) *models.Chat {
	t.Helper()
	c := &models.Chat{UID: uuid.NewString(), Name: "chat", CreatedAt: base}
	var uids []string
	for _, m := range members {
		uids = append(uids, m.UID)
	}
	require.NoError(t, s.CreateChat(context.Background(), c, uids))
	return c
}

func newMessage(chatUID, senderUID string, minute int) *models.Message {
	return &models.Message{
		UID:       uuid.NewString(),
		ChatUID:   chatUID,
		SenderUID: senderUID,
		Type:      models.MessageTypeText,
		Text:      fmt.Sprintf("message at %d", minute),
		CreatedAt: at(minute),
	}
}

func testChats(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice, bob, carol := newAccount(t, s, "alice"), newAccount(t, s, "bob"), newAccount(t, s, "carol")
	chat := newChat(t, s, alice, bob)

	err := s.CreateChat(ctx, &models.Chat{UID: uuid.NewString(), CreatedAt: base}, []string{alice.UID, "ghost"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.ChatByUID(ctx, chat.UID)
	require.NoError(t, err)
	assert.Len(t, got.Participants, 2)
	assert.Nil(t, got.LastMessage)

	ok, err := s.IsParticipant(ctx, chat.UID, bob.UID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.IsParticipant(ctx, chat.UID, carol.UID)
	require.NoError(t, err)
	assert.False(t, ok)

	chats, err := s.ChatsFor(ctx, alice.UID)
	require.NoError(t, err)
	assert.Len(t, chats, 1)
	chats, err = s.ChatsFor(ctx, carol.UID)
	require.NoError(t, err)
	assert.Empty(t, chats)

	m1 := newMessage(chat.UID, alice.UID, 1)
	m2 := newMessage(chat.UID, bob.UID, 2)
	m3 := newMessage(chat.UID, alice.UID, 3)
	for _, m := range []*models.Message{m1, m2, m3} {
		require.NoError(t, s.AppendMessage(ctx, m))
	}

	msgs, err := s.MessagesByChat(ctx, chat.UID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{m3.UID, m2.UID, m1.UID}, []string{msgs[0].UID, msgs[1].UID, msgs[2].UID})
	assert.Equal(t, "alice", msgs[0].Sender.Username)

	total, unread, err := s.ChatStats(ctx, chat.UID, bob.UID)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, unread)

	require.NoError(t, s.MarkMessagesRead(ctx, []string{m1.UID}))
	require.NoError(t, s.MarkMessagesRead(ctx, nil))
	_, unread, err = s.ChatStats(ctx, chat.UID, bob.UID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	m, err := s.MessageByUID(ctx, m1.UID)
	require.NoError(t, err)
	assert.True(t, m.IsRead)

	_, err = s.MessagesByChat(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.AppendMessage(ctx, newMessage("missing", alice.UID, 4)), store.ErrNotFound)
}

func testAppendMessage(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice, bob := newAccount(t, s, "alice"), newAccount(t, s, "bob")
	chat := newChat(t, s, alice, bob)

	newest := newMessage(chat.UID, alice.UID, 10)
	require.NoError(t, s.AppendMessage(ctx, newest))
	// A message stamped earlier than the current last one keeps the pointer.
	require.NoError(t, s.AppendMessage(ctx, newMessage(chat.UID, bob.UID, 5)))

	got, err := s.ChatByUID(ctx, chat.UID)
	require.NoError(t, err)
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, newest.UID, got.LastMessage.UID)
	require.NotNil(t, got.LastMessageAt)
	assert.True(t, got.LastMessageAt.Equal(at(10)))

	later := newMessage(chat.UID, bob.UID, 11)
	require.NoError(t, s.AppendMessage(ctx, later))
	got, err = s.ChatByUID(ctx, chat.UID)
	require.NoError(t, err)
	assert.Equal(t, later.UID, got.LastMessage.UID)
	assert.Equal(t, "bob", got.LastMessage.Sender.Username)
}

func testConcurrentAppend(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice, bob := newAccount(t, s, "alice"), newAccount(t, s, "bob")
	chat := newChat(t, s, alice, bob)

	const n = 30
	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := alice
			if i%2 == 0 {
				sender = bob
			}
			// Stamps are fixed up front so arrival order differs from time order.
			assert.NoError(t, s.AppendMessage(ctx, newMessage(chat.UID, sender.UID, i)))
		}(i)
	}
	wg.Wait()

	got, err := s.ChatByUID(ctx, chat.UID)
	require.NoError(t, err)
	require.NotNil(t, got.LastMessageAt)
	assert.True(t, got.LastMessageAt.Equal(at(n)), "pointer must land on the newest message")
	require.NotNil(t, got.LastMessage)
	assert.True(t, got.LastMessage.CreatedAt.Equal(at(n)))

	total, _, err := s.ChatStats(ctx, chat.UID, alice.UID)
	require.NoError(t, err)
	assert.Equal(t, n, total)
}
