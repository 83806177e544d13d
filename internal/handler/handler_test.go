package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"feels/backend/internal/hub"
	"feels/backend/internal/session"
	"feels/backend/internal/social"
	"feels/backend/internal/store/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type testAPI struct {
	router   http.Handler
	hub      *hub.Hub
	sessions session.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := hub.NewHub(zap.NewNop())
	svc := social.New(memory.New(), social.Options{
		Now:          (&stepClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}).Now,
		Publisher:    NewHubPublisher(h),
		PasswordCost: bcrypt.MinCost,
	})
	_, err := svc.Feelings.SeedDefaults(context.Background())
	require.NoError(t, err)

	sessions := session.NewMemoryStore(time.Hour, 0)
	t.Cleanup(func() { _ = sessions.Close() })

	return &testAPI{
		router:   NewRouter(New(svc, sessions, h, zap.NewNop()), RouterOptions{}),
		hub:      h,
		sessions: sessions,
	}
}

func (a *testAPI) request(method, path, token string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// do sends a request and decodes the JSON response into a generic map.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, a.request(method, path, token, body))

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

type user struct {
	uid   string
	token string
}

func (a *testAPI) register(t *testing.T, username string) user {
	t.Helper()
	code, body := a.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret-" + username,
	})
	require.Equal(t, http.StatusCreated, code, body)
	return user{
		uid:   body["user"].(map[string]any)["uid"].(string),
		token: body["token"].(string),
	}
}

func (a *testAPI) befriend(t *testing.T, from, to user) {
	t.Helper()
	code, body := a.do(t, http.MethodPost, "/api/v1/friend-requests", from.token, gin.H{"receiver_uid": to.uid})
	require.Equal(t, http.StatusCreated, code, body)
	reqUID := body["request"].(map[string]any)["uid"].(string)

	code, body = a.do(t, http.MethodPut, "/api/v1/friend-requests/"+reqUID, to.token, gin.H{"action": "accept"})
	require.Equal(t, http.StatusOK, code, body)
}

func TestPing(t *testing.T) {
	api := newTestAPI(t)
	code, body := api.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pong", body["message"])
}

func TestAuthLifecycle(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "alice")

	code, body := api.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "alice", "email": "other@example.com", "password": "x",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Username already exists", body["error"])

	code, body = api.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid credentials", body["error"])

	code, body = api.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Username and password required", body["error"])

	code, body = api.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "alice", "password": "secret-alice"})
	require.Equal(t, http.StatusOK, code)
	second := body["token"].(string)
	assert.NotEqual(t, alice.token, second)

	orphan, err := api.sessions.Create(context.Background(), "no-such-account")
	require.NoError(t, err)
	code, body = api.do(t, http.MethodGet, "/api/v1/profile", orphan.Value, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "User not found", body["error"])

	code, body = api.do(t, http.MethodGet, "/api/v1/profile", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	profile := body["user"].(map[string]any)
	assert.Equal(t, "alice", profile["username"])
	assert.Equal(t, "alice", profile["display_name"], "display name defaults to the username")
	assert.NotContains(t, profile, "password_hash")

	code, _ = api.do(t, http.MethodPost, "/api/v1/auth/logout", alice.token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, body = api.do(t, http.MethodGet, "/api/v1/profile", alice.token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid or expired token", body["error"])

	code, _ = api.do(t, http.MethodGet, "/api/v1/profile", second, nil)
	assert.Equal(t, http.StatusOK, code, "other sessions survive logout")

	code, body = api.do(t, http.MethodGet, "/api/v1/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Authentication required", body["error"])
}

func TestUpdateProfile(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "alice")
	api.register(t, "bob")

	code, body := api.do(t, http.MethodPut, "/api/v1/profile", alice.token, gin.H{"bio": "hi", "display_name": "Alice"})
	require.Equal(t, http.StatusOK, code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "hi", user["bio"])
	assert.Equal(t, "Alice", user["display_name"])

	code, body = api.do(t, http.MethodPut, "/api/v1/profile", alice.token, gin.H{"email": "bob@example.com"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Email already in use", body["error"])
}

func TestAccounts(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "alice")
	bob := api.register(t, "bob")

	code, body := api.do(t, http.MethodGet, "/api/v1/accounts", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["accounts"], 2)

	code, body = api.do(t, http.MethodGet, "/api/v1/accounts?username=bob", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	accounts := body["accounts"].([]any)
	require.Len(t, accounts, 1)
	assert.Equal(t, bob.uid, accounts[0].(map[string]any)["uid"])
	assert.NotContains(t, accounts[0], "email")

	code, body = api.do(t, http.MethodGet, "/api/v1/accounts?username=ghost", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["accounts"])
	assert.Equal(t, "No account found with username: ghost", body["message"])

	code, body = api.do(t, http.MethodGet, "/api/v1/accounts/missing", alice.token, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User not found", body["error"])

	code, body = api.do(t, http.MethodGet, "/api/v1/accounts/"+bob.uid, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "bob", body["username"])
	assert.NotContains(t, body, "email")

	code, body = api.do(t, http.MethodGet, "/api/v1/accounts/"+alice.uid, alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "email")
}

func TestFeelings(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "alice")

	code, body := api.do(t, http.MethodGet, "/api/v1/feelings", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["feelings"], 16)

	code, body = api.do(t, http.MethodGet, "/api/v1/feeling-types", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["feeling_types"], 4)

	code, _ = api.do(t, http.MethodPost, "/api/v1/feelings", "", gin.H{"name": "Hopeful", "color": "#7FD8BE"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = api.do(t, http.MethodPost, "/api/v1/feelings", alice.token, gin.H{
		"name": "Hopeful", "color": "#7FD8BE", "feeling_type": "low_energy_pleasant",
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "Hopeful", body["name"])

	code, _ = api.do(t, http.MethodPost, "/api/v1/feelings", alice.token, gin.H{"name": "Hopeful", "color": "#000000"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = api.do(t, http.MethodPost, "/api/v1/feelings", alice.token, gin.H{"name": "Odd", "color": "#000000", "feeling_type": "nope"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestFriendRequestFlow(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "alice")
	bob := api.register(t, "bob")
	carol := api.register(t, "carol")

	code, body := api.do(t, http.MethodPost, "/api/v1/friend-requests", alice.token, gin.H{"receiver_uid": bob.uid, "message": "hey"})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "Friend request sent successfully", body["message"])
	assert.Equal(t, "bob", body["receiver"].(map[string]any)["username"])
	reqUID := body["request"].(map[string]any)["uid"].(string)

	for _, tc := range []struct {
		name  string
		token string
		body  gin.H
		code  int
		error string
	}{
		{"duplicate", alice.token, gin.H{"receiver_uid": bob.uid}, http.StatusConflict, "Friend request already sent"},
		{"reverse", bob.token, gin.H{"receiver_uid": alice.uid}, http.StatusConflict, "This user has already sent you a friend request"},
		{"self", alice.token, gin.H{"receiver_uid": alice.uid}, http.StatusBadRequest, "Cannot send friend request to yourself"},
		{"unknown", alice.token, gin.H{"receiver_uid": "ghost"}, http.StatusNotFound, "Receiver account not found"},
		{"missing receiver", alice.token, gin.H{}, http.StatusBadRequest, "receiver_uid is required"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			code, body := api.do(t, http.MethodPost, "/api/v1/friend-requests", tc.token, tc.body)
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.error, body["error"])
		})
	}

	code, body = api.do(t, http.MethodGet, "/api/v1/friend-requests", bob.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	code, body = api.do(t, http.MethodGet, "/api/v1/friend-requests?type=sent", bob.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["count"])

	code, body = api.do(t, http.MethodPut, "/api/v1/friend-requests/"+reqUID, alice.token, gin.H{"action": "accept"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "You can only respond to friend requests sent to you", body["error"])

	code, body = api.do(t, http.MethodPut, "/api/v1/friend-requests/"+reqUID, bob.token, gin.H{"action": "maybe"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid action", body["error"])

	code, body = api.do(t, http.MethodPut, "/api/v1/friend-requests/"+reqUID, bob.token, gin.H{"action": "accept"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Friend request accepted", body["message"])
	assert.Equal(t, "accepted", body["request"].(map[string]any)["status"])

	code, body = api.do(t, http.MethodPost, "/api/v1/friend-requests", bob.token, gin.H{"receiver_uid": alice.uid})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "You are already friends with this user", body["error"])

	code, body = api.do(t, http.MethodGet, "/api/v1/accounts/"+bob.uid+"/friends", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	code, _ = api.do(t, http.MethodGet, "/api/v1/accounts/"+bob.uid+"/friends", carol.token, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestPostVisibility(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "alice")
	bob := api.register(t, "bob")
	carol := api.register(t, "carol")

	code, body := api.do(t, http.MethodPost, "/api/v1/posts", alice.token, gin.H{"body": "Finished my thesis", "feeling_name": "Grateful"})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, true, body["feeling_attached"])
	postUID := body["uid"].(string)

	code, body = api.do(t, http.MethodPost, "/api/v1/posts", alice.token, gin.H{"body": "Second", "feeling_name": "Nope"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, false, body["feeling_attached"])
	assert.Equal(t, "Feeling 'Nope' not found or could not be connected", body["warning"])

	code, body = api.do(t, http.MethodPost, "/api/v1/posts", alice.token, gin.H{"body": "  "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Post body is required", body["error"])

	for _, path := range []string{
		"/api/v1/users/" + alice.uid + "/posts",
		"/api/v1/posts?author_uid=" + alice.uid,
		"/api/v1/posts/" + postUID,
	} {
		code, body = api.do(t, http.MethodGet, path, bob.token, nil)
		assert.Equal(t, http.StatusForbidden, code, path)
		assert.Equal(t, "You can only view posts from users you are friends with", body["error"], path)
	}

	api.befriend(t, alice, bob)

	code, body = api.do(t, http.MethodGet, "/api/v1/users/"+alice.uid+"/posts", bob.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["count"])
	assert.Equal(t, "alice", body["author"].(map[string]any)["username"])
	posts := body["posts"].([]any)
	assert.Equal(t, "Second", posts[0].(map[string]any)["body"], "newest first")

	code, body = api.do(t, http.MethodGet, "/api/v1/posts", bob.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["posts"], 2)

	code, _ = api.do(t, http.MethodGet, "/api/v1/posts/"+postUID, carol.token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = api.do(t, http.MethodPost, "/api/v1/posts/"+postUID+"/read", bob.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["counted"])
	code, body = api.do(t, http.MethodPost, "/api/v1/posts/"+postUID+"/read", bob.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["counted"])

	code, _ = api.do(t, http.MethodPut, "/api/v1/posts/"+postUID, bob.token, gin.H{"body": "hijack"})
	assert.Equal(t, http.StatusForbidden, code)

	code, body = api.do(t, http.MethodPut, "/api/v1/posts/"+postUID, alice.token, gin.H{"body": "edited"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "edited", body["body"])
	assert.NotNil(t, body["updated_at"])
}

func TestChatFlow(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "alice")
	bob := api.register(t, "bob")
	carol := api.register(t, "carol")

	code, body := api.do(t, http.MethodPost, "/api/v1/chats", alice.token, gin.H{"participant_usernames": []string{"bob", "ghost", "nobody"}})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Users not found: ghost, nobody", body["error"])

	code, body = api.do(t, http.MethodPost, "/api/v1/chats", alice.token, gin.H{"participant_usernames": []string{}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "At least one participant username is required", body["error"])

	code, body = api.do(t, http.MethodPost, "/api/v1/chats", alice.token, gin.H{"participant_usernames": []string{"bob"}})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "Chat with bob", body["name"])
	assert.Equal(t, false, body["is_group_chat"])
	assert.Len(t, body["participants"], 2)
	chatUID := body["uid"].(string)

	code, body = api.do(t, http.MethodGet, "/api/v1/chats/"+chatUID, carol.token, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Access denied - you are not a participant in this chat", body["error"])

	code, _ = api.do(t, http.MethodPost, "/api/v1/chats/"+chatUID+"/messages", carol.token, gin.H{"text": "let me in"})
	assert.Equal(t, http.StatusForbidden, code)

	code, body = api.do(t, http.MethodPost, "/api/v1/chats/"+chatUID+"/messages", bob.token, gin.H{"text": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Message text is required", body["error"])

	for _, text := range []string{"one", "two", "three"} {
		code, body = api.do(t, http.MethodPost, "/api/v1/chats/"+chatUID+"/messages", bob.token, gin.H{"text": text, "feeling_name": "Excited"})
		require.Equal(t, http.StatusCreated, code, body)
		assert.Equal(t, true, body["feeling_attached"])
	}

	code, body = api.do(t, http.MethodGet, "/api/v1/chats", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	chats := body["chats"].([]any)
	require.Len(t, chats, 1)
	summary := chats[0].(map[string]any)
	assert.EqualValues(t, 3, summary["unread_count"])
	assert.EqualValues(t, 3, summary["message_count"])
	assert.Equal(t, []any{"bob"}, summary["participants"])
	assert.Equal(t, "three", summary["last_message"].(map[string]any)["text"])

	code, body = api.do(t, http.MethodGet, "/api/v1/chats/"+chatUID+"/messages?limit=2&mark_as_read=true", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["count"])
	assert.EqualValues(t, 3, body["total_count"])
	assert.Equal(t, true, body["has_more"])
	msgs := body["messages"].([]any)
	assert.Equal(t, "three", msgs[0].(map[string]any)["text"])
	assert.Equal(t, false, msgs[0].(map[string]any)["is_read"], "shown as they were before the read")

	code, body = api.do(t, http.MethodGet, "/api/v1/chats", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["chats"].([]any)[0].(map[string]any)["unread_count"])

	code, body = api.do(t, http.MethodGet, "/api/v1/chats/"+chatUID+"/messages?offset=2", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, false, body["has_more"])

	code, body = api.do(t, http.MethodGet, "/api/v1/chats/"+chatUID+"/messages?limit=abc", alice.token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "limit must be a non-negative integer", body["error"])

	code, body = api.do(t, http.MethodGet, "/api/v1/chats/"+chatUID+"/messages?limit=0", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["count"])
	assert.Equal(t, true, body["has_more"])

	code, body = api.do(t, http.MethodGet, "/api/v1/chats/"+chatUID+"/messages?offset=9223372036854775807", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["count"])
	assert.EqualValues(t, 3, body["total_count"])
	assert.Equal(t, false, body["has_more"])

	code, body = api.do(t, http.MethodGet, "/api/v1/chats/"+chatUID, alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body["message_count"])
}

func TestMalformedJSON(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register(t, "alice")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+alice.token)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/posts", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+alice.token)
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid JSON data"}`, w.Body.String())
}
