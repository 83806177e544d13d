package social

import (
	"context"
	"strings"
	"testing"

	"feels/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendPostScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, carol := f.account(t, "alice"), f.account(t, "bob"), f.account(t, "carol")

	req, err := f.svc.Friends.SendRequest(ctx, alice, bob.UID, "hi")
	require.NoError(t, err)
	_, err = f.svc.Friends.Respond(ctx, req.UID, bob, ActionAccept)
	require.NoError(t, err)

	created, err := f.svc.Posts.CreatePost(ctx, alice, "Thankful for today", "Grateful")
	require.NoError(t, err)
	assert.True(t, created.Feeling.Attached)

	got, err := f.svc.Posts.PostsByUser(ctx, bob, alice.UID)
	require.NoError(t, err)
	assert.Equal(t, alice.UID, got.Author.UID)
	require.Len(t, got.Posts, 1)
	require.NotNil(t, got.Posts[0].Feeling)
	assert.Equal(t, "Grateful", got.Posts[0].Feeling.Name)

	_, err = f.svc.Posts.PostsByUser(ctx, carol, alice.UID)
	assert.ErrorIs(t, err, ErrPostsForbidden)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestCanViewPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, carol := f.account(t, "alice"), f.account(t, "bob"), f.account(t, "carol")

	check := func(viewer, owner *models.Account) bool {
		ok, err := f.svc.Authz.CanViewPosts(ctx, viewer, owner)
		require.NoError(t, err)
		return ok
	}

	for _, acc := range []*models.Account{alice, bob, carol} {
		assert.True(t, check(acc, acc), acc.Username)
	}
	assert.False(t, check(alice, bob))

	req, err := f.svc.Friends.SendRequest(ctx, alice, bob.UID, "")
	require.NoError(t, err)
	assert.False(t, check(bob, alice), "a pending request grants nothing")

	_, err = f.svc.Friends.Respond(ctx, req.UID, bob, ActionAccept)
	require.NoError(t, err)
	assert.True(t, check(alice, bob))
	assert.True(t, check(bob, alice))
	assert.False(t, check(carol, alice))
	assert.False(t, check(nil, alice))
}

func TestPostsByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice")

	var want []string
	for _, body := range []string{"one", "two", "three"} {
		res, err := f.svc.Posts.CreatePost(ctx, alice, body, "")
		require.NoError(t, err)
		assert.False(t, res.Feeling.Requested)
		want = append([]string{res.Post.UID}, want...)
	}

	got, err := f.svc.Posts.PostsByUser(ctx, alice, alice.UID)
	require.NoError(t, err)
	var order []string
	for _, p := range got.Posts {
		order = append(order, p.UID)
	}
	assert.Equal(t, want, order, "newest first")

	_, err = f.svc.Posts.PostsByUser(ctx, alice, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreatePostFeelingCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice")

	_, err := f.svc.Posts.CreatePost(ctx, alice, "  ", "")
	assert.ErrorIs(t, err, ErrEmptyPostBody)

	res, err := f.svc.Posts.CreatePost(ctx, alice, "meh", "Unknown")
	require.NoError(t, err)
	assert.True(t, res.Feeling.Requested)
	assert.False(t, res.Feeling.Attached)
	assert.Contains(t, res.Feeling.Warning, "Unknown")
	assert.Nil(t, res.Post.FeelingName)

	_, err = f.svc.Posts.CreatePost(ctx, alice, "yay", "Excited")
	require.NoError(t, err)
	_, err = f.svc.Posts.CreatePost(ctx, alice, "plain", "")
	require.NoError(t, err)

	acc, err := f.svc.Accounts.GetAccount(ctx, alice.UID)
	require.NoError(t, err)
	assert.Equal(t, 1, acc.FeelingsSharedCount)
}

func TestFeedAndPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, carol := f.account(t, "alice"), f.account(t, "bob"), f.account(t, "carol")
	f.befriend(t, alice, bob)

	long := strings.Repeat("a", 150)
	_, err := f.svc.Posts.CreatePost(ctx, alice, long, "")
	require.NoError(t, err)
	_, err = f.svc.Posts.CreatePost(ctx, bob, "from bob", "")
	require.NoError(t, err)
	_, err = f.svc.Posts.CreatePost(ctx, carol, "from carol", "")
	require.NoError(t, err)

	feed, err := f.svc.Posts.Feed(ctx, alice)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "from bob", feed[0].Body)
	assert.Equal(t, strings.Repeat("a", 100)+"...", feed[1].Body)

	assert.Equal(t, "short", Preview("short"))
	assert.Equal(t, strings.Repeat("é", 100), Preview(strings.Repeat("é", 100)))
}

func TestGetAndUpdatePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, carol := f.account(t, "alice"), f.account(t, "bob"), f.account(t, "carol")
	f.befriend(t, alice, bob)

	res, err := f.svc.Posts.CreatePost(ctx, alice, "draft", "")
	require.NoError(t, err)
	uid := res.Post.UID

	_, err = f.svc.Posts.GetPost(ctx, bob, uid)
	assert.NoError(t, err)
	_, err = f.svc.Posts.GetPost(ctx, carol, uid)
	assert.ErrorIs(t, err, ErrPostsForbidden)
	_, err = f.svc.Posts.GetPost(ctx, alice, "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = f.svc.Posts.UpdatePost(ctx, bob, uid, "hijacked")
	assert.ErrorIs(t, err, ErrNotPostAuthor)

	updated, err := f.svc.Posts.UpdatePost(ctx, alice, uid, "final")
	require.NoError(t, err)
	require.NotNil(t, updated.UpdatedAt)

	got, err := f.svc.Posts.GetPost(ctx, alice, uid)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Body)
}

func TestMarkPostRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, carol := f.account(t, "alice"), f.account(t, "bob"), f.account(t, "carol")
	f.befriend(t, alice, bob)

	res, err := f.svc.Posts.CreatePost(ctx, alice, "read me", "")
	require.NoError(t, err)

	counted, err := f.svc.Posts.MarkRead(ctx, bob, res.Post.UID)
	require.NoError(t, err)
	assert.True(t, counted)
	counted, err = f.svc.Posts.MarkRead(ctx, bob, res.Post.UID)
	require.NoError(t, err)
	assert.False(t, counted)

	_, err = f.svc.Posts.MarkRead(ctx, carol, res.Post.UID)
	assert.ErrorIs(t, err, ErrPostsForbidden)

	acc, err := f.svc.Accounts.GetAccount(ctx, bob.UID)
	require.NoError(t, err)
	assert.Equal(t, 1, acc.PostsReadCount)
}
