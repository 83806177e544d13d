package social

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a domain failure.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindInvalid
	KindConflict
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalid:
		return "invalid_operation"
	case KindConflict:
		return "conflict"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// Error is a domain failure with a message safe to show to the caller.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	ErrReceiverNotFound     = newError(KindNotFound, "Receiver account not found")
	ErrSelfRequest          = newError(KindInvalid, "Cannot send friend request to yourself")
	ErrAlreadyFriends       = newError(KindConflict, "You are already friends with this user")
	ErrRequestAlreadySent   = newError(KindConflict, "Friend request already sent")
	ErrReverseRequestExists = newError(KindConflict, "This user has already sent you a friend request")
	ErrRequestNotFound      = newError(KindNotFound, "Friend request not found")
	ErrNotRequestReceiver   = newError(KindForbidden, "You can only respond to friend requests sent to you")
	ErrInvalidAction        = newError(KindInvalid, "Invalid action")
	ErrRequestResolved      = newError(KindConflict, "Friend request has already been responded to")

	ErrUserNotFound    = newError(KindNotFound, "User not found")
	ErrPostsForbidden  = newError(KindForbidden, "You can only view posts from users you are friends with")
	ErrFriendsHidden   = newError(KindForbidden, "You can only view friends of users you are friends with")
	ErrPostNotFound    = newError(KindNotFound, "Post not found")
	ErrNotPostAuthor   = newError(KindForbidden, "You can only edit your own posts")
	ErrEmptyPostBody   = newError(KindInvalid, "Post body is required")
	ErrChatNotFound    = newError(KindNotFound, "Chat not found")
	ErrNotParticipant  = newError(KindForbidden, "Access denied - you are not a participant in this chat")
	ErrEmptyMessage    = newError(KindInvalid, "Message text is required")
	ErrBadMessageType  = newError(KindInvalid, "Invalid message type")
	ErrNoParticipants  = newError(KindInvalid, "At least one participant username is required")
	ErrUsernameTaken   = newError(KindConflict, "Username already exists")
	ErrEmailTaken      = newError(KindConflict, "Email already exists")
	ErrEmailInUse      = newError(KindConflict, "Email already in use")
	ErrBadCredentials  = newError(KindUnauthenticated, "Invalid credentials")
	ErrMissingField    = newError(KindInvalid, "Username, email and password are required")
	ErrFeelingExists   = newError(KindConflict, "Feeling already exists")
	ErrFeelingTypeGone = newError(KindNotFound, "Feeling type not found")
)

// ParticipantsNotFoundError lists usernames that did not resolve when
// creating a chat.
type ParticipantsNotFoundError struct {
	Usernames []string
}

func (e *ParticipantsNotFoundError) Error() string {
	return fmt.Sprintf("Users not found: %s", strings.Join(e.Usernames, ", "))
}

// KindOf classifies err. Errors that are not domain errors are internal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	var pe *ParticipantsNotFoundError
	if errors.As(err, &pe) {
		return KindNotFound
	}
	return KindInternal
}
