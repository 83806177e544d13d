// Package store defines the typed repository over the social graph:
// accounts, feelings, posts, friend requests, friendships, chats and messages.
//
// Implementations must make every compound write (request resolution,
// post creation with its counter, message append with its last-message swap)
// a single atomic unit.
package store

import (
	"context"
	"errors"
	"time"

	"feels/backend/internal/models"
)

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate is returned when a unique key (username, email, name) is taken.
	ErrDuplicate = errors.New("store: duplicate key")
)

// RequestScope selects which friend requests to list for an account.
type RequestScope string

const (
	ScopeReceived RequestScope = "received"
	ScopeSent     RequestScope = "sent"
	ScopeAll      RequestScope = "all"
)

// ParseRequestScope maps a query value to a scope. An empty value means
// ScopeReceived; anything unrecognized means ScopeAll.
func ParseRequestScope(s string) RequestScope {
	switch RequestScope(s) {
	case "", ScopeReceived:
		return ScopeReceived
	case ScopeSent:
		return ScopeSent
	default:
		return ScopeAll
	}
}

type Accounts interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	AccountByUID(ctx context.Context, uid string) (*models.Account, error)
	AccountByUsername(ctx context.Context, username string) (*models.Account, error)
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error
	ListAccounts(ctx context.Context) ([]models.Account, error)
}

type Friendships interface {
	IsFriend(ctx context.Context, accountUID, otherUID string) (bool, error)
	Friends(ctx context.Context, accountUID string) ([]models.Account, error)

	CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error
	FriendRequestByUID(ctx context.Context, uid string) (*models.FriendRequest, error)
	// PendingRequest returns the pending request from senderUID to receiverUID,
	// or ErrNotFound.
	PendingRequest(ctx context.Context, senderUID, receiverUID string) (*models.FriendRequest, error)
	// FriendRequestsFor lists requests involving accountUID in creation order,
	// with Sender and Receiver populated.
	FriendRequestsFor(ctx context.Context, accountUID string, scope RequestScope) ([]models.FriendRequest, error)
	// ResolveFriendRequest sets the status and responded_at of a request. For
	// StatusAccepted it also creates FRIENDS_WITH in both directions within
	// the same atomic unit. Existing edges are left in place.
	ResolveFriendRequest(ctx context.Context, uid string, status models.FriendRequestStatus, respondedAt time.Time) error
}

type Feelings interface {
	CreateFeelingType(ctx context.Context, ft *models.FeelingType) error
	FeelingTypeByName(ctx context.Context, name string) (*models.FeelingType, error)
	FeelingTypes(ctx context.Context) ([]models.FeelingType, error)
	CreateFeeling(ctx context.Context, feeling *models.Feeling) error
	FeelingByName(ctx context.Context, name string) (*models.Feeling, error)
	ListFeelings(ctx context.Context) ([]models.Feeling, error)
}

type Posts interface {
	// CreatePost stores the post and, when it carries a feeling, increments the
	// author's feelings_shared_count in the same atomic unit.
	CreatePost(ctx context.Context, post *models.Post) error
	PostByUID(ctx context.Context, uid string) (*models.Post, error)
	// PostsByAuthor lists an author's posts newest first.
	PostsByAuthor(ctx context.Context, authorUID string) ([]models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	// MarkPostRead records the read and increments the reader's
	// posts_read_count. It reports false when the read was already recorded.
	MarkPostRead(ctx context.Context, postUID, accountUID string) (bool, error)
}

type Chats interface {
	CreateChat(ctx context.Context, chat *models.Chat, participantUIDs []string) error
	// ChatByUID returns the chat with Participants and LastMessage populated.
	ChatByUID(ctx context.Context, uid string) (*models.Chat, error)
	// ChatsFor lists the chats accountUID participates in, populated like ChatByUID.
	ChatsFor(ctx context.Context, accountUID string) ([]models.Chat, error)
	IsParticipant(ctx context.Context, chatUID, accountUID string) (bool, error)

	// AppendMessage stores the message and moves the chat's last-message
	// pointer and last_message_at to it, unless the current last message is
	// newer. Both happen in one atomic unit.
	AppendMessage(ctx context.Context, msg *models.Message) error
	MessageByUID(ctx context.Context, uid string) (*models.Message, error)
	// MessagesByChat lists a chat's messages newest first, with Sender and
	// Feeling populated.
	MessagesByChat(ctx context.Context, chatUID string) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, uids []string) error
	// ChatStats returns the number of messages in the chat and how many of
	// them are unread and not sent by viewerUID.
	ChatStats(ctx context.Context, chatUID, viewerUID string) (total, unread int, err error)
}

// Store is the full graph repository.
type Store interface {
	Accounts
	Friendships
	Feelings
	Posts
	Chats

	Close() error
}
