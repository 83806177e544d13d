package handler

import (
	"net/http"
	"time"

	"feels/backend/internal/auth"
	"feels/backend/internal/social"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// region --- DTOs ---

// RegisterInput defines the structure for account registration.
type RegisterInput struct {
	Username    string `json:"username" example:"alice"`
	Email       string `json:"email" example:"alice@example.com"`
	Password    string `json:"password" example:"password123"`
	DisplayName string `json:"display_name" example:"Alice"`
	Bio         string `json:"bio"`
}

// LoginInput defines the structure for login.
type LoginInput struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"password123"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	Message   string          `json:"message" example:"Login successful"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      AccountResponse `json:"user"`
}

// endregion

// Register godoc
// @Summary      Register a new account
// @Description  Creates an account and returns an authentication token. The display name defaults to the username.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Username or email already exists"
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var input RegisterInput
	if !bind(c, &input) {
		return
	}

	account, err := h.svc.Accounts.Register(c.Request.Context(), social.Registration{
		Username:    input.Username,
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
		Bio:         input.Bio,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := h.sessions.Create(c.Request.Context(), account.UID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.log.Info("account registered", zap.String("account", account.UID), zap.String("username", account.Username))
	c.JSON(http.StatusCreated, TokenResponse{
		Message:   "Registration successful",
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
		User:      newAccountResponse(account),
	})
}

// Login godoc
// @Summary      Log in
// @Description  Authenticates with username and password and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Failure      500  {object}  ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if !bind(c, &input) {
		return
	}
	if input.Username == "" || input.Password == "" {
		badRequest(c, "Username and password required")
		return
	}

	account, err := h.svc.Accounts.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := h.sessions.Create(c.Request.Context(), account.UID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		Message:   "Login successful",
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
		User:      newAccountResponse(account),
	})
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the bearer token used for this request.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.Revoke(c.Request.Context(), auth.CurrentToken(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Logout successful"})
}
