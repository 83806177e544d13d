// Package notify tells accounts about friend request activity.
package notify

import (
	"context"
	"fmt"

	"feels/backend/internal/models"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// LogNotifier writes friend request events to the log.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("notify")}
}

func (n *LogNotifier) FriendRequestSent(_ context.Context, req *models.FriendRequest) error {
	n.log.Info("friend request sent",
		zap.String("request", req.UID),
		zap.String("sender", req.Sender.Username),
		zap.String("receiver", req.Receiver.Username),
	)
	return nil
}

func (n *LogNotifier) FriendRequestAccepted(_ context.Context, req *models.FriendRequest) error {
	n.log.Info("friend request accepted",
		zap.String("request", req.UID),
		zap.String("sender", req.Sender.Username),
		zap.String("receiver", req.Receiver.Username),
	)
	return nil
}

// MailSender delivers composed messages; *gomail.Dialer satisfies it.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// MailNotifier emails the other side of a friend request.
type MailNotifier struct {
	sender MailSender
	from   string
}

// NewMailNotifier dials SMTP with cfg on every send.
func NewMailNotifier(cfg MailConfig) *MailNotifier {
	return &MailNotifier{
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// NewMailNotifierWithSender is NewMailNotifier with a custom transport.
func NewMailNotifierWithSender(sender MailSender, from string) *MailNotifier {
	return &MailNotifier{sender: sender, from: from}
}

func (n *MailNotifier) FriendRequestSent(ctx context.Context, req *models.FriendRequest) error {
	body := fmt.Sprintf("%s sent you a friend request.", displayName(req.Sender))
	if req.Message != "" {
		body += fmt.Sprintf("\n\n“%s”", req.Message)
	}
	return n.send(ctx, req.Receiver, "New friend request", body)
}

func (n *MailNotifier) FriendRequestAccepted(ctx context.Context, req *models.FriendRequest) error {
	body := fmt.Sprintf("%s accepted your friend request.", displayName(req.Receiver))
	return n.send(ctx, req.Sender, "Friend request accepted", body)
}

func (n *MailNotifier) send(ctx context.Context, to models.Account, subject, body string) error {
	if to.Email == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to.Email)
	m.SetHeader("Subject", "Feels - "+subject)
	m.SetBody("text/plain", body)

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", to.Email, err)
	}
	return nil
}

func displayName(a models.Account) string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Username
}
