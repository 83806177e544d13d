package auth

import (
	"feels/backend/internal/session"

	"github.com/gin-gonic/gin"
)

// OptionalAccount inspects for a token and sets the account if present and valid,
// but does not fail if the token is missing or invalid.
func OptionalAccount(sessions session.Store, accounts AccountLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if uid, err := sessions.Validate(c.Request.Context(), token); err == nil {
				if account, err := accounts.AccountByUID(c.Request.Context(), uid); err == nil {
					c.Set(accountKey, account)
				}
			}
		}
		c.Next()
	}
}
