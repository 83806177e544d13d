package social

import (
	"context"

	"feels/backend/internal/models"
	"feels/backend/internal/store"
)

// Authorizer is the single place that decides who may read whose posts and
// which chats. Every read path for another account's content goes through it.
type Authorizer struct {
	friends store.Friendships
}

// CanViewPosts reports whether viewer may read owner's posts: they are the
// same account or FRIENDS_WITH connects them.
func (a *Authorizer) CanViewPosts(ctx context.Context, viewer, owner *models.Account) (bool, error) {
	if viewer == nil || owner == nil {
		return false, nil
	}
	if viewer.UID == owner.UID {
		return true, nil
	}
	ok, err := a.friends.IsFriend(ctx, viewer.UID, owner.UID)
	if err != nil {
		return false, storeErr(err, nil, "check friendship")
	}
	return ok, nil
}

// RequirePosts is CanViewPosts turned into ErrPostsForbidden.
func (a *Authorizer) RequirePosts(ctx context.Context, viewer, owner *models.Account) error {
	ok, err := a.CanViewPosts(ctx, viewer, owner)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPostsForbidden
	}
	return nil
}

// RequireFriendList applies the post rule to friend lists.
func (a *Authorizer) RequireFriendList(ctx context.Context, viewer, owner *models.Account) error {
	ok, err := a.CanViewPosts(ctx, viewer, owner)
	if err != nil {
		return err
	}
	if !ok {
		return ErrFriendsHidden
	}
	return nil
}

// CanViewChat reports whether viewer is one of chat's participants.
// Friendship plays no part here.
func (a *Authorizer) CanViewChat(viewer *models.Account, chat *models.Chat) bool {
	if viewer == nil || chat == nil {
		return false
	}
	for _, p := range chat.Participants {
		if p.UID == viewer.UID {
			return true
		}
	}
	return false
}

// RequireChat is CanViewChat turned into ErrNotParticipant.
func (a *Authorizer) RequireChat(viewer *models.Account, chat *models.Chat) error {
	if !a.CanViewChat(viewer, chat) {
		return ErrNotParticipant
	}
	return nil
}
