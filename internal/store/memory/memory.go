// Package memory provides a thread-safe, in-memory implementation of
// store.Store. It is the default development backend and the test double for
// the service and handler packages.
//
// All state lives behind a single RWMutex, so every method, including the
// compound writes, is atomic with respect to every other method. Secondary
// indexes (requests by sender and receiver, posts by author, messages by chat)
// keep lookups proportional to the entity's own relationships rather than
// to the size of the whole graph.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"feels/backend/internal/models"
	"feels/backend/internal/store"
)

// Store is an in-memory social graph.
type Store struct {
	mu sync.RWMutex

	accounts     map[string]*models.Account
	accountOrder []string
	usernames    map[string]string
	emails       map[string]string
	friends      map[string][]string

	requests           map[string]*models.FriendRequest
	requestsBySender   map[string][]string
	requestsByReceiver map[string][]string
	requestSeq         map[string]int

	feelingTypes     map[string]*models.FeelingType
	feelingTypeOrder []string
	feelings         map[string]*models.Feeling
	feelingOrder     []string

	posts         map[string]*models.Post
	postOrder     []string
	postsByAuthor map[string][]string
	postReads     map[string]map[string]bool

	chats          map[string]*models.Chat
	participants   map[string][]string
	chatsByAccount map[string][]string
	messages       map[string]*models.Message
	messagesByChat map[string][]string
}

var _ store.Store = (*Store)(nil)

// New creates a new, empty in-memory store.
func New() *Store {
	return &Store{
		accounts:           make(map[string]*models.Account),
		usernames:          make(map[string]string),
		emails:             make(map[string]string),
		friends:            make(map[string][]string),
		requests:           make(map[string]*models.FriendRequest),
		requestsBySender:   make(map[string][]string),
		requestsByReceiver: make(map[string][]string),
		requestSeq:         make(map[string]int),
		feelingTypes:       make(map[string]*models.FeelingType),
		feelings:           make(map[string]*models.Feeling),
		posts:              make(map[string]*models.Post),
		postsByAuthor:      make(map[string][]string),
		postReads:          make(map[string]map[string]bool),
		chats:              make(map[string]*models.Chat),
		participants:       make(map[string][]string),
		chatsByAccount:     make(map[string][]string),
		messages:           make(map[string]*models.Message),
		messagesByChat:     make(map[string][]string),
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// region --- Accounts ---

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.UID]; ok {
		return store.ErrDuplicate
	}
	if _, ok := s.usernames[account.Username]; ok {
		return store.ErrDuplicate
	}
	if _, ok := s.emails[account.Email]; ok {
		return store.ErrDuplicate
	}

	a := *account
	s.accounts[a.UID] = &a
	s.accountOrder = append(s.accountOrder, a.UID)
	s.usernames[a.Username] = a.UID
	s.emails[a.Email] = a.UID
	return nil
}

func (s *Store) AccountByUID(ctx context.Context, uid string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountLocked(uid)
}

func (s *Store) AccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uid, ok := s.usernames[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.accountLocked(uid)
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uid, ok := s.emails[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.accountLocked(uid)
}

func (s *Store) UpdateAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.accounts[account.UID]
	if !ok {
		return store.ErrNotFound
	}
	if owner, ok := s.usernames[account.Username]; ok && owner != account.UID {
		return store.ErrDuplicate
	}
	if owner, ok := s.emails[account.Email]; ok && owner != account.UID {
		return store.ErrDuplicate
	}

	delete(s.usernames, current.Username)
	delete(s.emails, current.Email)
	a := *account
	s.accounts[a.UID] = &a
	s.usernames[a.Username] = a.UID
	s.emails[a.Email] = a.UID
	return nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Account, 0, len(s.accountOrder))
	for _, uid := range s.accountOrder {
		out = append(out, *s.accounts[uid])
	}
	return out, nil
}

func (s *Store) accountLocked(uid string) (*models.Account, error) {
	a, ok := s.accounts[uid]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// endregion

// region --- Friendships ---

func (s *Store) IsFriend(ctx context.Context, accountUID, otherUID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.friends[accountUID], otherUID), nil
}

func (s *Store) Friends(ctx context.Context, accountUID string) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Account, 0, len(s.friends[accountUID]))
	for _, uid := range s.friends[accountUID] {
		if a, ok := s.accounts[uid]; ok {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *Store) CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[req.UID]; ok {
		return store.ErrDuplicate
	}
	if _, ok := s.accounts[req.SenderUID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := s.accounts[req.ReceiverUID]; !ok {
		return store.ErrNotFound
	}

	r := *req
	r.Sender, r.Receiver = models.Account{}, models.Account{}
	s.requests[r.UID] = &r
	s.requestSeq[r.UID] = len(s.requestSeq)
	s.requestsBySender[r.SenderUID] = append(s.requestsBySender[r.SenderUID], r.UID)
	s.requestsByReceiver[r.ReceiverUID] = append(s.requestsByReceiver[r.ReceiverUID], r.UID)
	return nil
}

func (s *Store) FriendRequestByUID(ctx context.Context, uid string) (*models.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[uid]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.populateRequestLocked(r), nil
}

func (s *Store) PendingRequest(ctx context.Context, senderUID, receiverUID string) (*models.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, uid := range s.requestsBySender[senderUID] {
		r := s.requests[uid]
		if r.ReceiverUID == receiverUID && r.IsPending() {
			return s.populateRequestLocked(r), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) FriendRequestsFor(ctx context.Context, accountUID string, scope store.RequestScope) ([]models.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var uids []string
	switch scope {
	case store.ScopeReceived:
		uids = slices.Clone(s.requestsByReceiver[accountUID])
	case store.ScopeSent:
		uids = slices.Clone(s.requestsBySender[accountUID])
	default:
		uids = append(slices.Clone(s.requestsBySender[accountUID]), s.requestsByReceiver[accountUID]...)
		// A request sent to oneself cannot exist, so there are no duplicates.
		sort.Slice(uids, func(i, j int) bool { return s.requestSeq[uids[i]] < s.requestSeq[uids[j]] })
	}

	out := make([]models.FriendRequest, 0, len(uids))
	for _, uid := range uids {
		out = append(out, *s.populateRequestLocked(s.requests[uid]))
	}
	return out, nil
}

func (s *Store) ResolveFriendRequest(ctx context.Context, uid string, status models.FriendRequestStatus, respondedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[uid]
	if !ok {
		return store.ErrNotFound
	}

	r.Status = status
	at := respondedAt
	r.RespondedAt = &at

	if status == models.StatusAccepted {
		s.addFriendLocked(r.SenderUID, r.ReceiverUID)
		s.addFriendLocked(r.ReceiverUID, r.SenderUID)
	}
	return nil
}

func (s *Store) addFriendLocked(accountUID, friendUID string) {
	if !slices.Contains(s.friends[accountUID], friendUID) {
		s.friends[accountUID] = append(s.friends[accountUID], friendUID)
	}
}

func (s *Store) populateRequestLocked(r *models.FriendRequest) *models.FriendRequest {
	cp := *r
	if r.RespondedAt != nil {
		at := *r.RespondedAt
		cp.RespondedAt = &at
	}
	if a, ok := s.accounts[r.SenderUID]; ok {
		cp.Sender = *a
	}
	if a, ok := s.accounts[r.ReceiverUID]; ok {
		cp.Receiver = *a
	}
	return &cp
}

// endregion

// region --- Feelings ---

func (s *Store) CreateFeelingType(ctx context.Context, ft *models.FeelingType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.feelingTypes[ft.Name]; ok {
		return store.ErrDuplicate
	}
	cp := *ft
	s.feelingTypes[cp.Name] = &cp
	s.feelingTypeOrder = append(s.feelingTypeOrder, cp.Name)
	return nil
}

func (s *Store) FeelingTypeByName(ctx context.Context, name string) (*models.FeelingType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ft, ok := s.feelingTypes[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *ft
	return &cp, nil
}

func (s *Store) FeelingTypes(ctx context.Context) ([]models.FeelingType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.FeelingType, 0, len(s.feelingTypeOrder))
	for _, name := range s.feelingTypeOrder {
		out = append(out, *s.feelingTypes[name])
	}
	return out, nil
}

func (s *Store) CreateFeeling(ctx context.Context, feeling *models.Feeling) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.feelings[feeling.Name]; ok {
		return store.ErrDuplicate
	}
	if feeling.FeelingTypeName != nil {
		if _, ok := s.feelingTypes[*feeling.FeelingTypeName]; !ok {
			return store.ErrNotFound
		}
	}
	cp := *feeling
	cp.FeelingType = nil
	s.feelings[cp.Name] = &cp
	s.feelingOrder = append(s.feelingOrder, cp.Name)
	return nil
}

func (s *Store) FeelingByName(ctx context.Context, name string) (*models.Feeling, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f := s.feelingLocked(name)
	if f == nil {
		return nil, store.ErrNotFound
	}
	return f, nil
}

func (s *Store) ListFeelings(ctx context.Context) ([]models.Feeling, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Feeling, 0, len(s.feelingOrder))
	for _, name := range s.feelingOrder {
		out = append(out, *s.feelingLocked(name))
	}
	return out, nil
}

func (s *Store) feelingLocked(name string) *models.Feeling {
	f, ok := s.feelings[name]
	if !ok {
		return nil
	}
	cp := *f
	if f.FeelingTypeName != nil {
		if ft, ok := s.feelingTypes[*f.FeelingTypeName]; ok {
			ftCopy := *ft
			cp.FeelingType = &ftCopy
		}
	}
	return &cp
}

func (s *Store) feelingRefLocked(name *string) *models.Feeling {
	if name == nil {
		return nil
	}
	return s.feelingLocked(*name)
}

// endregion

// region --- Posts ---

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	author, ok := s.accounts[post.AuthorUID]
	if !ok {
		return store.ErrNotFound
	}
	if _, ok := s.posts[post.UID]; ok {
		return store.ErrDuplicate
	}
	if post.FeelingName != nil {
		if _, ok := s.feelings[*post.FeelingName]; !ok {
			return store.ErrNotFound
		}
		author.FeelingsSharedCount++
	}

	cp := *post
	cp.Author, cp.Feeling = models.Account{}, nil
	s.posts[cp.UID] = &cp
	s.postOrder = append(s.postOrder, cp.UID)
	s.postsByAuthor[cp.AuthorUID] = append(s.postsByAuthor[cp.AuthorUID], cp.UID)
	return nil
}

func (s *Store) PostByUID(ctx context.Context, uid string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[uid]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.populatePostLocked(p), nil
}

func (s *Store) PostsByAuthor(ctx context.Context, authorUID string) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uids := s.postsByAuthor[authorUID]
	out := make([]models.Post, 0, len(uids))
	for i := len(uids) - 1; i >= 0; i-- {
		out = append(out, *s.populatePostLocked(s.posts[uids[i]]))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Post, 0, len(s.postOrder))
	for _, uid := range s.postOrder {
		out = append(out, *s.populatePostLocked(s.posts[uid]))
	}
	return out, nil
}

func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.posts[post.UID]
	if !ok {
		return store.ErrNotFound
	}
	current.Body = post.Body
	if post.UpdatedAt != nil {
		at := *post.UpdatedAt
		current.UpdatedAt = &at
	}
	return nil
}

func (s *Store) MarkPostRead(ctx context.Context, postUID, accountUID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postUID]; !ok {
		return false, store.ErrNotFound
	}
	reader, ok := s.accounts[accountUID]
	if !ok {
		return false, store.ErrNotFound
	}

	readers := s.postReads[postUID]
	if readers == nil {
		readers = make(map[string]bool)
		s.postReads[postUID] = readers
	}
	if readers[accountUID] {
		return false, nil
	}
	readers[accountUID] = true
	reader.PostsReadCount++
	return true, nil
}

func (s *Store) populatePostLocked(p *models.Post) *models.Post {
	cp := *p
	if a, ok := s.accounts[p.AuthorUID]; ok {
		cp.Author = *a
	}
	cp.Feeling = s.feelingRefLocked(p.FeelingName)
	return &cp
}

// endregion

// region --- Chats ---

func (s *Store) CreateChat(ctx context.Context, chat *models.Chat, participantUIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[chat.UID]; ok {
		return store.ErrDuplicate
	}
	for _, uid := range participantUIDs {
		if _, ok := s.accounts[uid]; !ok {
			return store.ErrNotFound
		}
	}

	cp := *chat
	cp.Participants, cp.LastMessage, cp.LastMessageUID = nil, nil, nil
	s.chats[cp.UID] = &cp
	for _, uid := range participantUIDs {
		if slices.Contains(s.participants[cp.UID], uid) {
			continue
		}
		s.participants[cp.UID] = append(s.participants[cp.UID], uid)
		s.chatsByAccount[uid] = append(s.chatsByAccount[uid], cp.UID)
	}
	return nil
}

func (s *Store) ChatByUID(ctx context.Context, uid string) (*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chats[uid]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.populateChatLocked(c), nil
}

func (s *Store) ChatsFor(ctx context.Context, accountUID string) ([]models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uids := s.chatsByAccount[accountUID]
	out := make([]models.Chat, 0, len(uids))
	for _, uid := range uids {
		out = append(out, *s.populateChatLocked(s.chats[uid]))
	}
	return out, nil
}

func (s *Store) IsParticipant(ctx context.Context, chatUID, accountUID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.chats[chatUID]; !ok {
		return false, store.ErrNotFound
	}
	return slices.Contains(s.participants[chatUID], accountUID), nil
}

func (s *Store) AppendMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[msg.ChatUID]
	if !ok {
		return store.ErrNotFound
	}
	if _, ok := s.accounts[msg.SenderUID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := s.messages[msg.UID]; ok {
		return store.ErrDuplicate
	}
	if msg.FeelingName != nil {
		if _, ok := s.feelings[*msg.FeelingName]; !ok {
			return store.ErrNotFound
		}
	}

	cp := *msg
	cp.Sender, cp.Feeling = models.Account{}, nil
	s.messages[cp.UID] = &cp
	s.messagesByChat[cp.ChatUID] = append(s.messagesByChat[cp.ChatUID], cp.UID)

	if chat.LastMessageUID != nil {
		if last := s.messages[*chat.LastMessageUID]; last != nil && last.CreatedAt.After(cp.CreatedAt) {
			return nil
		}
	}
	uid := cp.UID
	at := cp.CreatedAt
	chat.LastMessageUID = &uid
	chat.LastMessageAt = &at
	return nil
}

func (s *Store) MessageByUID(ctx context.Context, uid string) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.messages[uid]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.populateMessageLocked(m), nil
}

func (s *Store) MessagesByChat(ctx context.Context, chatUID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.chats[chatUID]; !ok {
		return nil, store.ErrNotFound
	}

	uids := s.messagesByChat[chatUID]
	out := make([]models.Message, 0, len(uids))
	for i := len(uids) - 1; i >= 0; i-- {
		out = append(out, *s.populateMessageLocked(s.messages[uids[i]]))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) MarkMessagesRead(ctx context.Context, uids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, uid := range uids {
		if m, ok := s.messages[uid]; ok {
			m.IsRead = true
		}
	}
	return nil
}

func (s *Store) ChatStats(ctx context.Context, chatUID, viewerUID string) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.chats[chatUID]; !ok {
		return 0, 0, store.ErrNotFound
	}

	uids := s.messagesByChat[chatUID]
	unread := 0
	for _, uid := range uids {
		m := s.messages[uid]
		if !m.IsRead && m.SenderUID != viewerUID {
			unread++
		}
	}
	return len(uids), unread, nil
}

func (s *Store) populateChatLocked(c *models.Chat) *models.Chat {
	cp := *c
	if c.LastMessageAt != nil {
		at := *c.LastMessageAt
		cp.LastMessageAt = &at
	}
	if c.LastMessageUID != nil {
		uid := *c.LastMessageUID
		cp.LastMessageUID = &uid
		if m, ok := s.messages[uid]; ok {
			cp.LastMessage = s.populateMessageLocked(m)
		}
	}
	cp.Participants = make([]models.Account, 0, len(s.participants[c.UID]))
	for _, uid := range s.participants[c.UID] {
		if a, ok := s.accounts[uid]; ok {
			cp.Participants = append(cp.Participants, *a)
		}
	}
	return &cp
}

func (s *Store) populateMessageLocked(m *models.Message) *models.Message {
	cp := *m
	if a, ok := s.accounts[m.SenderUID]; ok {
		cp.Sender = *a
	}
	cp.Feeling = s.feelingRefLocked(m.FeelingName)
	return &cp
}

// endregion
