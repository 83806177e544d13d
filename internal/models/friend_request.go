package models

import "time"

// FriendRequestStatus defines the state of a friend request.
type FriendRequestStatus string

const (
	// StatusPending means the request has been sent but not yet answered.
	StatusPending FriendRequestStatus = "pending"

	// StatusAccepted means the receiver accepted and both users are now friends.
	StatusAccepted FriendRequestStatus = "accepted"

	// StatusRejected means the receiver declined the request.
	StatusRejected FriendRequestStatus = "rejected"
)

// FriendRequest is a directed proposal of friendship from Sender to Receiver.
type FriendRequest struct {
	UID         string              `gorm:"primaryKey;size:36"`
	SenderUID   string              `gorm:"size:36;not null;index:idx_friend_requests_pair,priority:1"`
	ReceiverUID string              `gorm:"size:36;not null;index;index:idx_friend_requests_pair,priority:2"`
	Status      FriendRequestStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	Message     string
	CreatedAt   time.Time
	RespondedAt *time.Time

	Sender   Account `gorm:"foreignKey:SenderUID;references:UID;constraint:OnDelete:CASCADE;"`
	Receiver Account `gorm:"foreignKey:ReceiverUID;references:UID;constraint:OnDelete:CASCADE;"`
}

// IsPending reports whether the request is still awaiting an answer.
func (r *FriendRequest) IsPending() bool {
	return r.Status == StatusPending
}
