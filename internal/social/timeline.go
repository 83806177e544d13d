package social

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"feels/backend/internal/models"
	"feels/backend/internal/store"

	"go.uber.org/zap"
)

// EventMessageCreated is published to a chat's subscribers for every new message.
const EventMessageCreated = "message.created"

const (
	DefaultMessageLimit = 50
	MaxMessageLimit     = 100
)

// Timeline owns chats and their ordered messages.
type Timeline struct {
	store     store.Store
	authz     *Authorizer
	publisher Publisher
	log       *zap.Logger
	now       func() time.Time
	locks     *keyedMutex
}

// NewChat describes a chat to create. IsGroupChat is derived from the
// participant count when nil.
type NewChat struct {
	ParticipantUsernames []string
	Name                 string
	IsGroupChat          *bool
}

// CreateChat resolves every username before writing anything, adds the
// creator, and stores the chat with a generated name when none is given.
func (t *Timeline) CreateChat(ctx context.Context, creator *models.Account, in NewChat) (*models.Chat, error) {
	if len(in.ParticipantUsernames) == 0 {
		return nil, ErrNoParticipants
	}

	var (
		participants []models.Account
		missing      []string
		seen         = map[string]bool{}
	)
	for _, username := range in.ParticipantUsernames {
		acc, err := t.store.AccountByUsername(ctx, username)
		if errors.Is(err, store.ErrNotFound) {
			missing = append(missing, username)
			continue
		}
		if err != nil {
			return nil, storeErr(err, nil, "resolve participant")
		}
		if !seen[acc.UID] {
			seen[acc.UID] = true
			participants = append(participants, *acc)
		}
	}
	if len(missing) > 0 {
		return nil, &ParticipantsNotFoundError{Usernames: missing}
	}
	if !seen[creator.UID] {
		participants = append(participants, *creator)
	}

	isGroup := len(participants) > 2
	if in.IsGroupChat != nil {
		isGroup = *in.IsGroupChat
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = defaultChatName(creator.UID, participants, isGroup)
	}

	chat := &models.Chat{
		UID:         newUID(),
		Name:        name,
		IsGroupChat: isGroup,
		CreatedAt:   t.now(),
	}
	uids := make([]string, 0, len(participants))
	for _, p := range participants {
		uids = append(uids, p.UID)
	}
	if err := t.store.CreateChat(ctx, chat, uids); err != nil {
		return nil, storeErr(err, nil, "create chat")
	}
	chat.Participants = participants

	t.log.Info("chat created", zap.String("chat", chat.UID), zap.Int("participants", len(uids)))
	return chat, nil
}

func defaultChatName(creatorUID string, participants []models.Account, group bool) string {
	var others []string
	for _, p := range participants {
		if p.UID == creatorUID {
			continue
		}
		if p.DisplayName != "" {
			others = append(others, p.DisplayName)
		} else {
			others = append(others, p.Username)
		}
	}
	if !group {
		if len(others) == 0 {
			return "Chat with Unknown"
		}
		return "Chat with " + others[0]
	}
	shown := others
	if len(shown) > 2 {
		shown = shown[:2]
	}
	name := "Group with " + strings.Join(shown, ", ")
	if len(others) > 2 {
		name += fmt.Sprintf(" and %d others", len(others)-2)
	}
	return name
}

// Chat loads a chat the viewer participates in.
func (t *Timeline) Chat(ctx context.Context, viewer *models.Account, chatUID string) (*models.Chat, error) {
	chat, err := t.store.ChatByUID(ctx, chatUID)
	if err != nil {
		return nil, storeErr(err, ErrChatNotFound, "load chat")
	}
	if err := t.authz.RequireChat(viewer, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// ChatDetail is a chat plus its message count.
type ChatDetail struct {
	Chat         *models.Chat
	MessageCount int
}

// GetChat returns the chat with participants, last message and count.
func (t *Timeline) GetChat(ctx context.Context, viewer *models.Account, chatUID string) (*ChatDetail, error) {
	chat, err := t.Chat(ctx, viewer, chatUID)
	if err != nil {
		return nil, err
	}
	total, _, err := t.store.ChatStats(ctx, chat.UID, viewer.UID)
	if err != nil {
		return nil, storeErr(err, nil, "count messages")
	}
	return &ChatDetail{Chat: chat, MessageCount: total}, nil
}

// ChatSummary is one entry of a viewer's chat list.
type ChatSummary struct {
	Chat              models.Chat
	DisplayName       string
	OtherParticipants []string
	UnreadCount       int
	MessageCount      int
}

// ListChats returns the viewer's chats, most recently active first. Chats
// without messages sort last.
func (t *Timeline) ListChats(ctx context.Context, viewer *models.Account) ([]ChatSummary, error) {
	chats, err := t.store.ChatsFor(ctx, viewer.UID)
	if err != nil {
		return nil, storeErr(err, nil, "list chats")
	}

	out := make([]ChatSummary, 0, len(chats))
	for _, c := range chats {
		total, unread, err := t.store.ChatStats(ctx, c.UID, viewer.UID)
		if err != nil {
			return nil, storeErr(err, nil, "count messages")
		}
		var others []string
		for _, p := range c.Participants {
			if p.UID != viewer.UID {
				others = append(others, p.Username)
			}
		}
		name := c.Name
		if name == "" {
			name = "Chat with " + strings.Join(others, ", ")
		}
		out = append(out, ChatSummary{
			Chat:              c,
			DisplayName:       name,
			OtherParticipants: others,
			UnreadCount:       unread,
			MessageCount:      total,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Chat.LastMessageAt, out[j].Chat.LastMessageAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return out, nil
}

// NewMessage is the input to SendMessage. Type defaults to text.
type NewMessage struct {
	Text        string
	Type        models.MessageType
	FeelingName string
}

// MessageResult is a stored message plus the outcome of attaching its feeling.
type MessageResult struct {
	Message *models.Message
	Feeling FeelingOutcome
}

// SendMessage appends a message to the chat and moves the last-message
// pointer. A feeling that cannot be resolved is reported, not fatal.
func (t *Timeline) SendMessage(ctx context.Context, sender *models.Account, chatUID string, in NewMessage) (*MessageResult, error) {
	chat, err := t.Chat(ctx, sender, chatUID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrEmptyMessage
	}
	msgType := in.Type
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if !msgType.Valid() {
		return nil, ErrBadMessageType
	}

	feeling, outcome := resolveFeeling(ctx, t.store, t.log, in.FeelingName)

	msg := &models.Message{
		UID:       newUID(),
		ChatUID:   chat.UID,
		SenderUID: sender.UID,
		Type:      msgType,
		Text:      in.Text,
	}
	if feeling != nil {
		msg.FeelingName = &feeling.Name
		msg.Feeling = feeling
	}

	unlock := t.locks.Lock(chat.UID)
	msg.CreatedAt = t.now()
	err = t.store.AppendMessage(ctx, msg)
	unlock()
	if err != nil {
		return nil, storeErr(err, ErrChatNotFound, "append message")
	}
	msg.Sender = *sender

	t.publisher.Publish(chat.UID, EventMessageCreated, msg)
	return &MessageResult{Message: msg, Feeling: outcome}, nil
}

// Page is a limit/offset window over newest-first results. A zero Limit is
// an empty window; use DefaultPage for the default size.
type Page struct {
	Limit  int
	Offset int
}

// DefaultPage is the first DefaultMessageLimit items.
func DefaultPage() Page {
	return Page{Limit: DefaultMessageLimit}
}

func (p Page) normalize() Page {
	p.Limit = max(p.Limit, 0)
	p.Offset = max(p.Offset, 0)
	return p
}

// window returns the slice bounds of p over total items and whether more
// items follow. Bounds are clamped before adding so huge offsets cannot
// overflow.
func (p Page) window(total int) (start, end int, hasMore bool) {
	start = min(p.Offset, total)
	end = start + min(p.Limit, total-start)
	return start, end, end < total
}

// MessagePage is one window of a chat's messages, newest first.
type MessagePage struct {
	Messages   []models.Message
	TotalCount int
	HasMore    bool
}

// ListMessages returns messages[offset:offset+limit] newest first. With
// markAsRead, unread messages in the window sent by others are marked read;
// the returned messages still show their state at read time.
func (t *Timeline) ListMessages(ctx context.Context, viewer *models.Account, chatUID string, page Page, markAsRead bool) (*MessagePage, error) {
	chat, err := t.Chat(ctx, viewer, chatUID)
	if err != nil {
		return nil, err
	}
	all, err := t.store.MessagesByChat(ctx, chat.UID)
	if err != nil {
		return nil, storeErr(err, nil, "list messages")
	}

	page = page.normalize()
	start, end, hasMore := page.window(len(all))
	window := all[start:end]

	if markAsRead {
		var unread []string
		for _, m := range window {
			if !m.IsRead && m.SenderUID != viewer.UID {
				unread = append(unread, m.UID)
			}
		}
		if len(unread) > 0 {
			if err := t.store.MarkMessagesRead(ctx, unread); err != nil {
				return nil, storeErr(err, nil, "mark messages read")
			}
		}
	}

	return &MessagePage{Messages: window, TotalCount: len(all), HasMore: hasMore}, nil
}
