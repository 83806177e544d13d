package models

import "time"

type MessageType string

const (
	MessageTypeText    MessageType = "text"
	MessageTypeFeeling MessageType = "feeling"
	MessageTypeImage   MessageType = "image"
)

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeFeeling, MessageTypeImage:
		return true
	}
	return false
}

// Message is a single entry in a chat.
type Message struct {
	UID         string      `gorm:"primaryKey;size:36"`
	ChatUID     string      `gorm:"size:36;not null;index:idx_messages_chat_created,priority:1"`
	SenderUID   string      `gorm:"size:36;not null;index"`
	Type        MessageType `gorm:"column:message_type;size:20;not null;default:'text'"`
	Text        string      `gorm:"not null"`
	FeelingName *string     `gorm:"size:100"`
	IsRead      bool        `gorm:"not null;default:false"`
	CreatedAt   time.Time   `gorm:"index:idx_messages_chat_created,priority:2,sort:desc"`

	Sender  Account  `gorm:"foreignKey:SenderUID;references:UID"`
	Feeling *Feeling `gorm:"foreignKey:FeelingName;references:Name"`
}
