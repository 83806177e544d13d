package social

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acc, err := f.svc.Accounts.Register(ctx, Registration{Username: "alice", Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "alice", acc.DisplayName)
	assert.NotEqual(t, "pw", acc.PasswordHash)

	tests := []struct {
		name string
		in   Registration
		want error
	}{
		{"missing password", Registration{Username: "bob", Email: "bob@example.com"}, ErrMissingField},
		{"missing username", Registration{Email: "bob@example.com", Password: "pw"}, ErrMissingField},
		{"taken username", Registration{Username: "alice", Email: "other@example.com", Password: "pw"}, ErrUsernameTaken},
		{"taken email", Registration{Username: "bob", Email: "alice@example.com", Password: "pw"}, ErrEmailTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Accounts.Register(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice")

	got, err := f.svc.Accounts.Authenticate(ctx, "alice", "secret-alice")
	require.NoError(t, err)
	assert.Equal(t, alice.UID, got.UID)
	assert.True(t, got.LastActive.After(alice.LastActive))

	_, err = f.svc.Accounts.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = f.svc.Accounts.Authenticate(ctx, "nobody", "secret-alice")
	assert.ErrorIs(t, err, ErrBadCredentials)
	assert.Equal(t, KindUnauthenticated, KindOf(err))
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice")
	f.account(t, "bob")

	updated, err := f.svc.Accounts.UpdateProfile(ctx, alice, ProfileUpdate{
		DisplayName: ptr("Alice A."),
		Bio:         ptr("hello"),
		Email:       ptr("alice@new.example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", updated.DisplayName)
	assert.Equal(t, "hello", updated.Bio)
	assert.Equal(t, "alice@new.example.com", updated.Email)

	_, err = f.svc.Accounts.UpdateProfile(ctx, alice, ProfileUpdate{Email: ptr("bob@example.com")})
	assert.ErrorIs(t, err, ErrEmailInUse)

	got, err := f.svc.Accounts.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@new.example.com", got.Email)
}

func TestFriendsVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, carol := f.account(t, "alice"), f.account(t, "bob"), f.account(t, "carol")
	f.befriend(t, alice, bob)

	friends, err := f.svc.Accounts.Friends(ctx, bob, alice.UID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, bob.UID, friends[0].UID)

	_, err = f.svc.Accounts.Friends(ctx, carol, alice.UID)
	assert.ErrorIs(t, err, ErrFriendsHidden)
	_, err = f.svc.Accounts.Friends(ctx, carol, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
