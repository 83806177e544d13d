package handler

import (
	"net/http"

	"feels/backend/internal/auth"
	"feels/backend/internal/models"
	"feels/backend/internal/social"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// ProfileInput holds the editable profile fields. Omitted fields are kept.
type ProfileInput struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Email       *string `json:"email"`
	AvatarURL   *string `json:"avatar_url"`
}

type ProfileResponse struct {
	User AccountResponse `json:"user"`
}

type ProfileUpdateResponse struct {
	Message string          `json:"message" example:"Profile updated successfully"`
	User    AccountResponse `json:"user"`
}

type AccountListResponse struct {
	Accounts []PublicAccountResponse `json:"accounts"`
	Message  string                  `json:"message,omitempty"`
}

type FriendListResponse struct {
	Friends []AccountSummary `json:"friends"`
	Count   int              `json:"count"`
}

// endregion

// GetProfile godoc
// @Summary      Get own profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ProfileResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, ProfileResponse{User: newAccountResponse(viewer(c))})
}

// UpdateProfile godoc
// @Summary      Update own profile
// @Description  Updates display name, bio, email and avatar URL. The email must not belong to another account.
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body ProfileInput true "Profile fields"
// @Success      200  {object}  ProfileUpdateResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Email already in use"
// @Router       /profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var input ProfileInput
	if !bind(c, &input) {
		return
	}

	account, err := h.svc.Accounts.UpdateProfile(c.Request.Context(), viewer(c), social.ProfileUpdate{
		DisplayName: input.DisplayName,
		Bio:         input.Bio,
		Email:       input.Email,
		AvatarURL:   input.AvatarURL,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProfileUpdateResponse{Message: "Profile updated successfully", User: newAccountResponse(account)})
}

// ListAccounts godoc
// @Summary      List accounts
// @Description  Lists all accounts, or the one matching an exact username.
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        username query string false "Exact username"
// @Success      200  {object}  AccountListResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /accounts [get]
func (h *Handler) ListAccounts(c *gin.Context) {
	ctx := c.Request.Context()

	if username := c.Query("username"); username != "" {
		account, err := h.svc.Accounts.FindByUsername(ctx, username)
		if social.KindOf(err) == social.KindNotFound {
			c.JSON(http.StatusOK, AccountListResponse{
				Accounts: []PublicAccountResponse{},
				Message:  "No account found with username: " + username,
			})
			return
		}
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, AccountListResponse{Accounts: []PublicAccountResponse{newPublicAccountResponse(*account)}})
		return
	}

	accounts, err := h.svc.Accounts.ListAccounts(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]PublicAccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, newPublicAccountResponse(a))
	}
	c.JSON(http.StatusOK, AccountListResponse{Accounts: out})
}

// GetAccount godoc
// @Summary      Get an account
// @Description  Public. The account's own token also gets the email back.
// @Tags         accounts
// @Produce      json
// @Param        id   path      string  true  "Account UID"
// @Success      200  {object}  PublicAccountResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /accounts/{id} [get]
func (h *Handler) GetAccount(c *gin.Context) {
	account, err := h.svc.Accounts.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if me, ok := auth.CurrentAccount(c); ok && me.UID == account.UID {
		c.JSON(http.StatusOK, newAccountResponse(account))
		return
	}
	c.JSON(http.StatusOK, newPublicAccountResponse(*account))
}

// GetFriends godoc
// @Summary      List an account's friends
// @Description  Visible to the account itself and to its friends.
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account UID"
// @Success      200  {object}  FriendListResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /accounts/{id}/friends [get]
func (h *Handler) GetFriends(c *gin.Context) {
	friends, err := h.svc.Accounts.Friends(c.Request.Context(), viewer(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, FriendListResponse{Friends: summaries(friends), Count: len(friends)})
}

func summaries(accounts []models.Account) []AccountSummary {
	out := make([]AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, newAccountSummary(a))
	}
	return out
}
