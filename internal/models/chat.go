package models

import "time"

// Chat is a conversation between two or more accounts.
type Chat struct {
	UID            string `gorm:"primaryKey;size:36"`
	Name           string `gorm:"size:255"`
	IsGroupChat    bool   `gorm:"not null;default:false"`
	CreatedAt      time.Time
	LastMessageAt  *time.Time `gorm:"index"`
	LastMessageUID *string    `gorm:"size:36"`

	Participants []Account `gorm:"many2many:chat_participants;joinForeignKey:ChatUID;joinReferences:AccountUID"`
	LastMessage  *Message  `gorm:"foreignKey:LastMessageUID;references:UID"`
}

// ChatParticipant is the join row between chats and accounts.
type ChatParticipant struct {
	ChatUID    string `gorm:"primaryKey;size:36"`
	AccountUID string `gorm:"primaryKey;size:36;index"`
}
