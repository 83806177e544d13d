package notify

import (
	"context"
	"errors"
	"testing"

	"feels/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func request() *models.FriendRequest {
	return &models.FriendRequest{
		UID:      "req-1",
		Message:  "hi",
		Sender:   models.Account{Username: "alice", DisplayName: "Alice", Email: "alice@example.com"},
		Receiver: models.Account{Username: "bob", Email: "bob@example.com"},
	}
}

func TestMailNotifier(t *testing.T) {
	sender := &fakeSender{}
	n := NewMailNotifierWithSender(sender, "noreply@feels.app")
	ctx := context.Background()

	require.NoError(t, n.FriendRequestSent(ctx, request()))
	require.NoError(t, n.FriendRequestAccepted(ctx, request()))
	require.Len(t, sender.sent, 2)

	assert.Equal(t, []string{"bob@example.com"}, sender.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Feels - New friend request"}, sender.sent[0].GetHeader("Subject"))
	assert.Equal(t, []string{"noreply@feels.app"}, sender.sent[0].GetHeader("From"))
	assert.Equal(t, []string{"alice@example.com"}, sender.sent[1].GetHeader("To"))
}

func TestMailNotifierSkipsMissingAddress(t *testing.T) {
	sender := &fakeSender{}
	n := NewMailNotifierWithSender(sender, "noreply@feels.app")

	req := request()
	req.Receiver.Email = ""
	require.NoError(t, n.FriendRequestSent(context.Background(), req))
	assert.Empty(t, sender.sent)
}

func TestMailNotifierWrapsTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	n := NewMailNotifierWithSender(&fakeSender{err: boom}, "noreply@feels.app")

	err := n.FriendRequestSent(context.Background(), request())
	assert.ErrorIs(t, err, boom)
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(zap.NewNop())
	assert.NoError(t, n.FriendRequestSent(context.Background(), request()))
	assert.NoError(t, n.FriendRequestAccepted(context.Background(), request()))
}
