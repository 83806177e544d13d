package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"feels/backend/internal/models"
	"feels/backend/internal/session"
	"feels/backend/internal/store"

	"github.com/gin-gonic/gin"
)

const (
	accountKey = "account"
	tokenKey   = "token"
)

// AccountLoader resolves the account behind a validated session. A missing
// account is reported as store.ErrNotFound.
type AccountLoader interface {
	AccountByUID(ctx context.Context, uid string) (*models.Account, error)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireAccount rejects the request with 401 unless it carries a valid
// session token for an existing account.
func RequireAccount(sessions session.Store, accounts AccountLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		uid, err := sessions.Validate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, session.ErrInvalid) && !errors.Is(err, session.ErrExpired) {
				_ = c.Error(err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		account, err := accounts.AccountByUID(c.Request.Context(), uid)
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(accountKey, account)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// CurrentToken returns the bearer token accepted by RequireAccount.
func CurrentToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// CurrentAccount returns the account set by RequireAccount or OptionalAccount.
func CurrentAccount(c *gin.Context) (*models.Account, bool) {
	v, ok := c.Get(accountKey)
	if !ok {
		return nil, false
	}
	account, ok := v.(*models.Account)
	return account, ok && account != nil
}

// MustAccount is CurrentAccount for handlers mounted behind RequireAccount.
func MustAccount(c *gin.Context) *models.Account {
	account, ok := CurrentAccount(c)
	if !ok {
		panic("auth: no account in context; RequireAccount missing from the route")
	}
	return account
}
