package models

import "time"

// Account represents a registered user.
type Account struct {
	UID          string `gorm:"primaryKey;size:36"`
	Username     string `gorm:"size:150;unique;not null"`
	Email        string `gorm:"size:255;unique;not null"`
	DisplayName  string `gorm:"size:255"`
	Bio          string
	AvatarURL    string `gorm:"size:512"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	PostsReadCount      int `gorm:"not null;default:0"`
	FeelingsSharedCount int `gorm:"not null;default:0"`

	CreatedAt  time.Time
	LastActive time.Time
}

// Friendship is one direction of a FRIENDS_WITH edge. Every friendship is
// stored as two rows, one per direction.
type Friendship struct {
	AccountUID string `gorm:"primaryKey;size:36"`
	FriendUID  string `gorm:"primaryKey;size:36;index"`
	CreatedAt  time.Time

	Account Account `gorm:"foreignKey:AccountUID;references:UID;constraint:OnDelete:CASCADE;"`
	Friend  Account `gorm:"foreignKey:FriendUID;references:UID;constraint:OnDelete:CASCADE;"`
}
