package handler

import (
	"time"

	"feels/backend/internal/models"
	"feels/backend/internal/social"
)

// region --- DTOs ---

// AccountSummary is the short form of an account embedded in other resources.
type AccountSummary struct {
	UID         string `json:"uid" example:"5f0c6c1e-8a53-4c3e-9d2b-0f8f0e7f6a11"`
	Username    string `json:"username" example:"alice"`
	DisplayName string `json:"display_name" example:"Alice"`
}

// AccountResponse is the authenticated account's own profile.
type AccountResponse struct {
	UID                 string    `json:"uid"`
	Username            string    `json:"username"`
	Email               string    `json:"email"`
	DisplayName         string    `json:"display_name"`
	Bio                 string    `json:"bio"`
	AvatarURL           string    `json:"avatar_url,omitempty"`
	PostsReadCount      int       `json:"posts_read_count"`
	FeelingsSharedCount int       `json:"feelings_shared_count"`
	CreatedAt           time.Time `json:"created_at"`
	LastActive          time.Time `json:"last_active"`
}

// PublicAccountResponse is what other accounts see.
type PublicAccountResponse struct {
	UID                 string    `json:"uid"`
	Username            string    `json:"username"`
	DisplayName         string    `json:"display_name"`
	Bio                 string    `json:"bio"`
	AvatarURL           string    `json:"avatar_url,omitempty"`
	FeelingsSharedCount int       `json:"feelings_shared_count"`
	CreatedAt           time.Time `json:"created_at"`
}

type FeelingRef struct {
	Name  string `json:"name" example:"Happy"`
	Color string `json:"color" example:"#FFD23F"`
}

type FeelingResponse struct {
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	Description string  `json:"description"`
	FeelingType *string `json:"feeling_type"`
}

type FeelingTypeResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type PostResponse struct {
	UID       string         `json:"uid"`
	Body      string         `json:"body"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
	Author    AccountSummary `json:"author"`
	Feeling   *FeelingRef    `json:"feeling"`
}

type FriendRequestResponse struct {
	UID         string         `json:"uid"`
	Message     string         `json:"message"`
	Status      string         `json:"status" example:"pending"`
	CreatedAt   time.Time      `json:"created_at"`
	RespondedAt *time.Time     `json:"responded_at"`
	Sender      AccountSummary `json:"sender"`
	Receiver    AccountSummary `json:"receiver"`
}

type ChatMessageResponse struct {
	UID         string         `json:"uid"`
	ChatUID     string         `json:"chat_uid"`
	Text        string         `json:"text"`
	MessageType string         `json:"message_type" example:"text"`
	CreatedAt   time.Time      `json:"created_at"`
	IsRead      bool           `json:"is_read"`
	Sender      AccountSummary `json:"sender"`
	Feeling     *FeelingRef    `json:"feeling"`
}

type ChatResponse struct {
	UID           string               `json:"uid"`
	Name          string               `json:"name"`
	IsGroupChat   bool                 `json:"is_group_chat"`
	CreatedAt     time.Time            `json:"created_at"`
	LastMessageAt *time.Time           `json:"last_message_at"`
	Participants  []AccountSummary     `json:"participants"`
	MessageCount  int                  `json:"message_count"`
	LastMessage   *ChatMessageResponse `json:"last_message"`
}

// ChatSummaryResponse is one entry of the chat list. Participants holds the
// usernames of everyone but the viewer.
type ChatSummaryResponse struct {
	UID           string               `json:"uid"`
	Name          string               `json:"name"`
	IsGroupChat   bool                 `json:"is_group_chat"`
	CreatedAt     time.Time            `json:"created_at"`
	LastMessageAt *time.Time           `json:"last_message_at"`
	Participants  []string             `json:"participants"`
	UnreadCount   int                  `json:"unread_count"`
	MessageCount  int                  `json:"message_count"`
	LastMessage   *ChatMessageResponse `json:"last_message"`
}

// FeelingOutcomeResponse reports whether a requested feeling was attached.
type FeelingOutcomeResponse struct {
	FeelingAttached bool   `json:"feeling_attached"`
	Warning         string `json:"warning,omitempty"`
}

// endregion

func newAccountSummary(a models.Account) AccountSummary {
	return AccountSummary{UID: a.UID, Username: a.Username, DisplayName: a.DisplayName}
}

func newAccountResponse(a *models.Account) AccountResponse {
	return AccountResponse{
		UID:                 a.UID,
		Username:            a.Username,
		Email:               a.Email,
		DisplayName:         a.DisplayName,
		Bio:                 a.Bio,
		AvatarURL:           a.AvatarURL,
		PostsReadCount:      a.PostsReadCount,
		FeelingsSharedCount: a.FeelingsSharedCount,
		CreatedAt:           a.CreatedAt,
		LastActive:          a.LastActive,
	}
}

func newPublicAccountResponse(a models.Account) PublicAccountResponse {
	return PublicAccountResponse{
		UID:                 a.UID,
		Username:            a.Username,
		DisplayName:         a.DisplayName,
		Bio:                 a.Bio,
		AvatarURL:           a.AvatarURL,
		FeelingsSharedCount: a.FeelingsSharedCount,
		CreatedAt:           a.CreatedAt,
	}
}

func newFeelingRef(f *models.Feeling) *FeelingRef {
	if f == nil {
		return nil
	}
	return &FeelingRef{Name: f.Name, Color: f.Color}
}

func newFeelingResponse(f models.Feeling) FeelingResponse {
	return FeelingResponse{
		Name:        f.Name,
		Color:       f.Color,
		Description: f.Description,
		FeelingType: f.FeelingTypeName,
	}
}

func newPostResponse(p models.Post) PostResponse {
	return PostResponse{
		UID:       p.UID,
		Body:      p.Body,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Author:    newAccountSummary(p.Author),
		Feeling:   newFeelingRef(p.Feeling),
	}
}

func newPostResponses(posts []models.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, newPostResponse(p))
	}
	return out
}

func newFriendRequestResponse(r models.FriendRequest) FriendRequestResponse {
	return FriendRequestResponse{
		UID:         r.UID,
		Message:     r.Message,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		RespondedAt: r.RespondedAt,
		Sender:      newAccountSummary(r.Sender),
		Receiver:    newAccountSummary(r.Receiver),
	}
}

func newChatMessageResponse(m models.Message) ChatMessageResponse {
	return ChatMessageResponse{
		UID:         m.UID,
		ChatUID:     m.ChatUID,
		Text:        m.Text,
		MessageType: string(m.Type),
		CreatedAt:   m.CreatedAt,
		IsRead:      m.IsRead,
		Sender:      newAccountSummary(m.Sender),
		Feeling:     newFeelingRef(m.Feeling),
	}
}

func newLastMessage(c models.Chat) *ChatMessageResponse {
	if c.LastMessage == nil {
		return nil
	}
	m := newChatMessageResponse(*c.LastMessage)
	return &m
}

func newChatResponse(c models.Chat, messageCount int) ChatResponse {
	participants := make([]AccountSummary, 0, len(c.Participants))
	for _, p := range c.Participants {
		participants = append(participants, newAccountSummary(p))
	}
	return ChatResponse{
		UID:           c.UID,
		Name:          c.Name,
		IsGroupChat:   c.IsGroupChat,
		CreatedAt:     c.CreatedAt,
		LastMessageAt: c.LastMessageAt,
		Participants:  participants,
		MessageCount:  messageCount,
		LastMessage:   newLastMessage(c),
	}
}

func newChatSummaryResponse(s social.ChatSummary) ChatSummaryResponse {
	others := s.OtherParticipants
	if others == nil {
		others = []string{}
	}
	return ChatSummaryResponse{
		UID:           s.Chat.UID,
		Name:          s.DisplayName,
		IsGroupChat:   s.Chat.IsGroupChat,
		CreatedAt:     s.Chat.CreatedAt,
		LastMessageAt: s.Chat.LastMessageAt,
		Participants:  others,
		UnreadCount:   s.UnreadCount,
		MessageCount:  s.MessageCount,
		LastMessage:   newLastMessage(s.Chat),
	}
}

func newFeelingOutcome(o social.FeelingOutcome) FeelingOutcomeResponse {
	return FeelingOutcomeResponse{FeelingAttached: o.Attached, Warning: o.Warning}
}
