package handler

import (
	"net/http"

	"feels/backend/internal/social"
	"feels/backend/internal/store"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

type FriendRequestInput struct {
	ReceiverUID string `json:"receiver_uid" example:"5f0c6c1e-8a53-4c3e-9d2b-0f8f0e7f6a11"`
	Message     string `json:"message" example:"Let's be friends!"`
}

type FriendRequestActionInput struct {
	Action string `json:"action" example:"accept" enums:"accept,reject"`
}

type FriendRequestListResponse struct {
	FriendRequests []FriendRequestResponse `json:"friend_requests"`
	Count          int                     `json:"count"`
}

type FriendRequestSentResponse struct {
	Message  string                `json:"message" example:"Friend request sent successfully"`
	Request  FriendRequestResponse `json:"request"`
	Receiver AccountSummary        `json:"receiver"`
}

type FriendRequestResolvedResponse struct {
	Message string                `json:"message" example:"Friend request accepted"`
	Request FriendRequestResponse `json:"request"`
}

// endregion

// ListFriendRequests godoc
// @Summary      List friend requests
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        type query string false "received (default), sent or all" Enums(received, sent, all)
// @Success      200  {object}  FriendRequestListResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /friend-requests [get]
func (h *Handler) ListFriendRequests(c *gin.Context) {
	scope := store.ParseRequestScope(c.Query("type"))
	reqs, err := h.svc.Friends.ListRequests(c.Request.Context(), viewer(c), scope)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]FriendRequestResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, newFriendRequestResponse(r))
	}
	c.JSON(http.StatusOK, FriendRequestListResponse{FriendRequests: out, Count: len(out)})
}

// SendFriendRequest godoc
// @Summary      Send a friend request
// @Tags         friendship
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body FriendRequestInput true "Receiver and optional message"
// @Success      201  {object}  FriendRequestSentResponse
// @Failure      400  {object}  ErrorResponse "Missing receiver or request to self"
// @Failure      404  {object}  ErrorResponse "Receiver account not found"
// @Failure      409  {object}  ErrorResponse "Already friends or a pending request exists"
// @Router       /friend-requests [post]
func (h *Handler) SendFriendRequest(c *gin.Context) {
	var input FriendRequestInput
	if !bind(c, &input) {
		return
	}
	if input.ReceiverUID == "" {
		badRequest(c, "receiver_uid is required")
		return
	}

	req, err := h.svc.Friends.SendRequest(c.Request.Context(), viewer(c), input.ReceiverUID, input.Message)
	if err != nil {
		h.respondError(c, err)
		return
	}
	resp := newFriendRequestResponse(*req)
	c.JSON(http.StatusCreated, FriendRequestSentResponse{
		Message:  "Friend request sent successfully",
		Request:  resp,
		Receiver: resp.Receiver,
	})
}

// RespondFriendRequest godoc
// @Summary      Accept or reject a friend request
// @Description  Only the receiver may respond. Accepting makes both accounts friends.
// @Tags         friendship
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                    true  "Friend request UID"
// @Param        input body  FriendRequestActionInput  true  "Action"
// @Success      200  {object}  FriendRequestResolvedResponse
// @Failure      400  {object}  ErrorResponse "Invalid action"
// @Failure      403  {object}  ErrorResponse "Not the receiver"
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Already responded to"
// @Router       /friend-requests/{id} [put]
func (h *Handler) RespondFriendRequest(c *gin.Context) {
	var input FriendRequestActionInput
	if !bind(c, &input) {
		return
	}

	action := social.Action(input.Action)
	req, err := h.svc.Friends.Respond(c.Request.Context(), c.Param("id"), viewer(c), action)
	if err != nil {
		h.respondError(c, err)
		return
	}

	msg := "Friend request rejected"
	if action == social.ActionAccept {
		msg = "Friend request accepted"
	}
	c.JSON(http.StatusOK, FriendRequestResolvedResponse{Message: msg, Request: newFriendRequestResponse(*req)})
}
