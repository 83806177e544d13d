package social

import (
	"context"
	"errors"
	"time"

	"feels/backend/internal/models"
	"feels/backend/internal/store"

	"go.uber.org/zap"
)

// Action is a receiver's answer to a friend request.
type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

// FriendshipService evolves friend requests and the FRIENDS_WITH relation.
type FriendshipService struct {
	store interface {
		store.Accounts
		store.Friendships
	}
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
	strict   bool
	locks    *keyedMutex
}

// SendRequest creates a pending request from sender to receiverUID.
// Nothing is written when any precondition fails.
func (s *FriendshipService) SendRequest(ctx context.Context, sender *models.Account, receiverUID, message string) (*models.FriendRequest, error) {
	receiver, err := s.store.AccountByUID(ctx, receiverUID)
	if err != nil {
		return nil, storeErr(err, ErrReceiverNotFound, "load receiver")
	}
	if sender.UID == receiver.UID {
		return nil, ErrSelfRequest
	}

	unlock := s.locks.Lock(pairKey(sender.UID, receiver.UID))
	defer unlock()

	friends, err := s.store.IsFriend(ctx, sender.UID, receiver.UID)
	if err != nil {
		return nil, storeErr(err, nil, "check friendship")
	}
	if friends {
		return nil, ErrAlreadyFriends
	}

	if err := s.ensureNoPending(ctx, sender.UID, receiver.UID, ErrRequestAlreadySent); err != nil {
		return nil, err
	}
	if err := s.ensureNoPending(ctx, receiver.UID, sender.UID, ErrReverseRequestExists); err != nil {
		return nil, err
	}

	req := &models.FriendRequest{
		UID:         newUID(),
		SenderUID:   sender.UID,
		ReceiverUID: receiver.UID,
		Status:      models.StatusPending,
		Message:     message,
		CreatedAt:   s.now(),
	}
	if err := s.store.CreateFriendRequest(ctx, req); err != nil {
		return nil, storeErr(err, nil, "create friend request")
	}
	req.Sender = *sender
	req.Receiver = *receiver

	if err := s.notifier.FriendRequestSent(ctx, req); err != nil {
		s.log.Warn("friend request notification failed", zap.String("request", req.UID), zap.Error(err))
	}
	return req, nil
}

func (s *FriendshipService) ensureNoPending(ctx context.Context, senderUID, receiverUID string, conflict *Error) error {
	_, err := s.store.PendingRequest(ctx, senderUID, receiverUID)
	switch {
	case err == nil:
		return conflict
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return storeErr(err, nil, "check pending requests")
	}
}

// Respond lets the receiver accept or reject a request. Acceptance connects
// both accounts with FRIENDS_WITH in both directions.
func (s *FriendshipService) Respond(ctx context.Context, requestUID string, responder *models.Account, action Action) (*models.FriendRequest, error) {
	req, err := s.store.FriendRequestByUID(ctx, requestUID)
	if err != nil {
		return nil, storeErr(err, ErrRequestNotFound, "load friend request")
	}
	if req.ReceiverUID != responder.UID {
		return nil, ErrNotRequestReceiver
	}

	var status models.FriendRequestStatus
	switch action {
	case ActionAccept:
		status = models.StatusAccepted
	case ActionReject:
		status = models.StatusRejected
	default:
		return nil, ErrInvalidAction
	}

	unlock := s.locks.Lock(pairKey(req.SenderUID, req.ReceiverUID))
	defer unlock()

	if s.strict {
		// Re-read under the pair lock so two concurrent answers cannot both pass.
		req, err = s.store.FriendRequestByUID(ctx, requestUID)
		if err != nil {
			return nil, storeErr(err, ErrRequestNotFound, "load friend request")
		}
		if !req.IsPending() {
			return nil, ErrRequestResolved
		}
	}

	respondedAt := s.now()
	if err := s.store.ResolveFriendRequest(ctx, req.UID, status, respondedAt); err != nil {
		return nil, storeErr(err, ErrRequestNotFound, "resolve friend request")
	}
	req.Status = status
	req.RespondedAt = &respondedAt

	if status == models.StatusAccepted {
		if err := s.notifier.FriendRequestAccepted(ctx, req); err != nil {
			s.log.Warn("friend acceptance notification failed", zap.String("request", req.UID), zap.Error(err))
		}
	}
	return req, nil
}

// ListRequests returns the requests user received, sent, or both.
func (s *FriendshipService) ListRequests(ctx context.Context, user *models.Account, scope store.RequestScope) ([]models.FriendRequest, error) {
	reqs, err := s.store.FriendRequestsFor(ctx, user.UID, scope)
	if err != nil {
		return nil, storeErr(err, nil, "list friend requests")
	}
	return reqs, nil
}
