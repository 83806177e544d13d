package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feels/backend/internal/models"
	"feels/backend/internal/session"
	"feels/backend/internal/store/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*gin.Engine, session.Store, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := memory.New()
	require.NoError(t, st.CreateAccount(context.Background(), &models.Account{UID: "acc-1", Username: "alice", Email: "a@example.com"}))
	sessions := session.NewMemoryStore(time.Hour, 0)
	t.Cleanup(func() { sessions.Close() })

	tok, err := sessions.Create(context.Background(), "acc-1")
	require.NoError(t, err)

	whoami := func(c *gin.Context) {
		if acc, ok := CurrentAccount(c); ok {
			c.JSON(http.StatusOK, gin.H{"username": acc.Username})
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": ""})
	}

	r := gin.New()
	r.GET("/private", RequireAccount(sessions, st), whoami)
	r.GET("/public", OptionalAccount(sessions, st), whoami)
	return r, sessions, tok.Value
}

func get(r http.Handler, path, authHeader string) (int, map[string]string) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w.Code, body
}

func TestRequireAccount(t *testing.T) {
	r, sessions, token := setup(t)

	code, body := get(r, "/private", "Bearer "+token)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice", body["username"])

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "Authentication required"},
		{"wrong scheme", "Token " + token, "Authentication required"},
		{"unknown token", "Bearer nope", "Invalid or expired token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := get(r, "/private", tt.header)
			assert.Equal(t, http.StatusUnauthorized, code)
			assert.Equal(t, tt.want, body["error"])
		})
	}

	orphan, err := sessions.Create(context.Background(), "deleted-account")
	require.NoError(t, err)
	code, body = get(r, "/private", "Bearer "+orphan.Value)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "User not found", body["error"])
}

type failingLoader struct{ err error }

func (l failingLoader) AccountByUID(context.Context, string) (*models.Account, error) {
	return nil, l.err
}

func TestRequireAccountStoreFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := session.NewMemoryStore(time.Hour, 0)
	t.Cleanup(func() { sessions.Close() })
	tok, err := sessions.Create(context.Background(), "acc-1")
	require.NoError(t, err)

	outage := errors.New("connection refused")
	var recorded []error
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		for _, e := range c.Errors {
			recorded = append(recorded, e.Err)
		}
	})
	r.GET("/private", RequireAccount(sessions, failingLoader{err: outage}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	code, body := get(r, "/private", "Bearer "+tok.Value)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal server error", body["error"])
	require.Len(t, recorded, 1)
	assert.ErrorIs(t, recorded[0], outage)
}

func TestOptionalAccount(t *testing.T) {
	r, _, token := setup(t)

	code, body := get(r, "/public", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["username"])

	_, body = get(r, "/public", "Bearer garbage")
	assert.Empty(t, body["username"])

	_, body = get(r, "/public", "Bearer "+token)
	assert.Equal(t, "alice", body["username"])
}
