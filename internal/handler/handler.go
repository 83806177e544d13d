// Package handler exposes the social service over HTTP with gin.
package handler

import (
	"errors"
	"io"
	"net/http"

	"feels/backend/internal/auth"
	"feels/backend/internal/hub"
	"feels/backend/internal/models"
	"feels/backend/internal/session"
	"feels/backend/internal/social"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler holds the dependencies shared by every route.
type Handler struct {
	svc      *social.Service
	sessions session.Store
	hub      *hub.Hub
	log      *zap.Logger
}

func New(svc *social.Service, sessions session.Store, h *hub.Hub, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, sessions: sessions, hub: h, log: log}
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message" example:"Friend request accepted"`
}

var kindStatus = map[social.Kind]int{
	social.KindNotFound:        http.StatusNotFound,
	social.KindForbidden:       http.StatusForbidden,
	social.KindInvalid:         http.StatusBadRequest,
	social.KindConflict:        http.StatusConflict,
	social.KindUnauthenticated: http.StatusUnauthorized,
}

// respondError writes err as a JSON error. Domain errors carry their own
// message; anything else is logged and hidden behind a generic 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	if status, ok := kindStatus[social.KindOf(err)]; ok {
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}
	h.log.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// bind decodes the JSON body into dst and answers 400 on failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			badRequest(c, "Invalid JSON data")
			return false
		}
		badRequest(c, err.Error())
		return false
	}
	return true
}

// viewer returns the authenticated account. Routes using it sit behind
// auth.RequireAccount.
func viewer(c *gin.Context) *models.Account {
	return auth.MustAccount(c)
}
