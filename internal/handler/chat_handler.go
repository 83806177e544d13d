package handler

import (
	"io"
	"net/http"

	"feels/backend/internal/hub"
	"feels/backend/internal/models"
	"feels/backend/internal/social"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// region --- DTOs ---

type ChatInput struct {
	ParticipantUsernames []string `json:"participant_usernames" example:"bob,carol"`
	Name                 string   `json:"name" example:"Weekend Plans"`
	IsGroupChat          *bool    `json:"is_group_chat"`
}

type ChatCreatedResponse struct {
	ChatResponse
	Message string `json:"message" example:"Chat created successfully"`
}

type ChatListResponse struct {
	Chats []ChatSummaryResponse `json:"chats"`
	Count int                   `json:"count"`
}

type MessageInput struct {
	Text        string `json:"text" example:"See you at eight"`
	MessageType string `json:"message_type" example:"text" enums:"text,feeling,image"`
	FeelingName string `json:"feeling_name" example:"Excited"`
}

type MessageSentResponse struct {
	ChatMessageResponse
	FeelingOutcomeResponse
	Message string `json:"message" example:"Message sent successfully"`
}

// endregion

const eventBuffer = 16

// ListChats godoc
// @Summary      List chats
// @Description  The viewer's chats, most recently active first; chats without messages last.
// @Tags         chats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ChatListResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /chats [get]
func (h *Handler) ListChats(c *gin.Context) {
	chats, err := h.svc.Chats.ListChats(c.Request.Context(), viewer(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]ChatSummaryResponse, 0, len(chats))
	for _, s := range chats {
		out = append(out, newChatSummaryResponse(s))
	}
	c.JSON(http.StatusOK, ChatListResponse{Chats: out, Count: len(out)})
}

// CreateChat godoc
// @Summary      Create a chat
// @Description  Participants are given by username; the creator is always included. is_group_chat defaults to more than two participants.
// @Tags         chats
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body ChatInput true "Chat"
// @Success      201  {object}  ChatCreatedResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "One or more participants not found"
// @Router       /chats [post]
func (h *Handler) CreateChat(c *gin.Context) {
	var input ChatInput
	if !bind(c, &input) {
		return
	}
	chat, err := h.svc.Chats.CreateChat(c.Request.Context(), viewer(c), social.NewChat{
		ParticipantUsernames: input.ParticipantUsernames,
		Name:                 input.Name,
		IsGroupChat:          input.IsGroupChat,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ChatCreatedResponse{
		ChatResponse: newChatResponse(*chat, 0),
		Message:      "Chat created successfully",
	})
}

// GetChat godoc
// @Summary      Get a chat
// @Tags         chats
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Chat UID"
// @Success      200  {object}  ChatResponse
// @Failure      403  {object}  ErrorResponse "Not a participant"
// @Failure      404  {object}  ErrorResponse
// @Router       /chats/{id} [get]
func (h *Handler) GetChat(c *gin.Context) {
	detail, err := h.svc.Chats.GetChat(c.Request.Context(), viewer(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newChatResponse(*detail.Chat, detail.MessageCount))
}

// ListMessages godoc
// @Summary      List chat messages
// @Description  Newest first. With mark_as_read=true, unread messages from others in the returned window are marked read; the response shows them as they were before.
// @Tags         chats
// @Produce      json
// @Security     BearerAuth
// @Param        id           path   string  true   "Chat UID"
// @Param        limit        query  int     false  "Page size (max 100)" default(50)
// @Param        offset       query  int     false  "Offset" default(0)
// @Param        mark_as_read query  bool    false  "Mark returned messages as read" default(false)
// @Success      200  {object}  MessagePageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /chats/{id}/messages [get]
func (h *Handler) ListMessages(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	result, err := h.svc.Chats.ListMessages(c.Request.Context(), viewer(c), c.Param("id"), page, queryBool(c, "mark_as_read"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMessagePageResponse(result))
}

// SendMessage godoc
// @Summary      Send a message
// @Tags         chats
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string        true  "Chat UID"
// @Param        input body  MessageInput  true  "Message"
// @Success      201  {object}  MessageSentResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /chats/{id}/messages [post]
func (h *Handler) SendMessage(c *gin.Context) {
	var input MessageInput
	if !bind(c, &input) {
		return
	}
	result, err := h.svc.Chats.SendMessage(c.Request.Context(), viewer(c), c.Param("id"), social.NewMessage{
		Text:        input.Text,
		Type:        models.MessageType(input.MessageType),
		FeelingName: input.FeelingName,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MessageSentResponse{
		ChatMessageResponse:    newChatMessageResponse(*result.Message),
		FeelingOutcomeResponse: newFeelingOutcome(result.Feeling),
		Message:                "Message sent successfully",
	})
}

// StreamChatEvents godoc
// @Summary      Stream chat events
// @Description  Server-sent events for a chat. Each event's data is a JSON object with type and payload.
// @Tags         chats
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        id   path      string  true  "Chat UID"
// @Success      200  {string}  string  "event stream"
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /chats/{id}/events [get]
func (h *Handler) StreamChatEvents(c *gin.Context) {
	chat, err := h.svc.Chats.Chat(c.Request.Context(), viewer(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	client := hub.NewClient(eventBuffer)
	h.hub.Subscribe(chat.UID, client)
	defer h.hub.Unsubscribe(chat.UID, client)
	h.log.Debug("event stream opened", zap.String("chat", chat.UID), zap.String("account", viewer(c).UID))

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	c.SSEvent("connected", gin.H{"chat_uid": chat.UID})
	c.Writer.Flush()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("message", string(msg))
			return true
		}
	})
}
