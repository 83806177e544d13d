package graphdb

import (
	"context"
	"time"

	"feels/backend/internal/models"
	"feels/backend/internal/store"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// region --- Accounts ---

func accountProps(a *models.Account) map[string]any {
	return map[string]any{
		"uid":                   a.UID,
		"username":              a.Username,
		"email":                 a.Email,
		"display_name":          a.DisplayName,
		"bio":                   a.Bio,
		"avatar_url":            a.AvatarURL,
		"password_hash":         a.PasswordHash,
		"posts_read_count":      int64(a.PostsReadCount),
		"feelings_shared_count": int64(a.FeelingsSharedCount),
		"created_at":            a.CreatedAt,
		"last_active":           a.LastActive,
	}
}

func accountFromNode(n neo4j.Node) models.Account {
	p := n.Props
	return models.Account{
		UID:                 str(p, "uid"),
		Username:            str(p, "username"),
		Email:               str(p, "email"),
		DisplayName:         str(p, "display_name"),
		Bio:                 str(p, "bio"),
		AvatarURL:           str(p, "avatar_url"),
		PasswordHash:        str(p, "password_hash"),
		PostsReadCount:      integer(p, "posts_read_count"),
		FeelingsSharedCount: integer(p, "feelings_shared_count"),
		CreatedAt:           timestamp(p, "created_at"),
		LastActive:          timestamp(p, "last_active"),
	}
}

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		n, err := count(ctx, tx, `
			MATCH (a:Account)
			WHERE a.uid = $uid OR a.username = $username OR a.email = $email
			RETURN count(a) AS n`,
			map[string]any{"uid": account.UID, "username": account.Username, "email": account.Email})
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, store.ErrDuplicate
		}
		return nil, exec(ctx, tx, "CREATE (a:Account $props)", map[string]any{"props": accountProps(account)})
	})
	return err
}

func (s *Store) accountBy(ctx context.Context, field, value string) (*models.Account, error) {
	v, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		recs, err := collect(ctx, tx, "MATCH (a:Account) WHERE a."+field+" = $value RETURN a LIMIT 1",
			map[string]any{"value": value})
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, store.ErrNotFound
		}
		n, _ := node(recs[0], "a")
		a := accountFromNode(n)
		return &a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Account), nil
}

func (s *Store) AccountByUID(ctx context.Context, uid string) (*models.Account, error) {
	return s.accountBy(ctx, "uid", uid)
}

func (s *Store) AccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.accountBy(ctx, "username", username)
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.accountBy(ctx, "email", email)
}

func (s *Store) UpdateAccount(ctx context.Context, account *models.Account) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		params := map[string]any{"uid": account.UID, "username": account.Username, "email": account.Email}
		n, err := count(ctx, tx, "MATCH (a:Account {uid: $uid}) RETURN count(a) AS n", params)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, store.ErrNotFound
		}
		taken, err := count(ctx, tx, `
			MATCH (o:Account)
			WHERE o.uid <> $uid AND (o.username = $username OR o.email = $email)
			RETURN count(o) AS n`, params)
		if err != nil {
			return nil, err
		}
		if taken > 0 {
			return nil, store.ErrDuplicate
		}
		return nil, exec(ctx, tx, "MATCH (a:Account {uid: $uid}) SET a += $props",
			map[string]any{"uid": account.UID, "props": accountProps(account)})
	})
	return err
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.accounts(ctx, "MATCH (a:Account) RETURN a ORDER BY a.created_at, a.uid", nil)
}

func (s *Store) accounts(ctx context.Context, query string, params map[string]any) ([]models.Account, error) {
	v, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		recs, err := collect(ctx, tx, query, params)
		if err != nil {
			return nil, err
		}
		out := make([]models.Account, 0, len(recs))
		for _, rec := range recs {
			if n, ok := node(rec, "a"); ok {
				out = append(out, accountFromNode(n))
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Account), nil
}

// endregion

// region --- Friendships ---

const requestMatch = `
MATCH (s:Account)-[:SENT_FRIEND_REQUEST]->(r:FriendRequest)<-[:RECEIVED_FRIEND_REQUEST]-(rc:Account)`

func requestFromRecord(rec *neo4j.Record) models.FriendRequest {
	rn, _ := node(rec, "r")
	sn, _ := node(rec, "s")
	rcn, _ := node(rec, "rc")
	p := rn.Props
	sender, receiver := accountFromNode(sn), accountFromNode(rcn)
	return models.FriendRequest{
		UID:         str(p, "uid"),
		SenderUID:   sender.UID,
		ReceiverUID: receiver.UID,
		Status:      models.FriendRequestStatus(str(p, "status")),
		Message:     str(p, "message"),
		CreatedAt:   timestamp(p, "created_at"),
		RespondedAt: timestampPtr(p, "responded_at"),
		Sender:      sender,
		Receiver:    receiver,
	}
}

func (s *Store) IsFriend(ctx context.Context, accountUID, otherUID string) (bool, error) {
	v, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return count(ctx, tx, `
			MATCH (:Account {uid: $a})-[f:FRIENDS_WITH]->(:Account {uid: $b})
			RETURN count(f) AS n`,
			map[string]any{"a": accountUID, "b": otherUID})
	})
	if err != nil {
		return false, err
	}
	return v.(int) > 0, nil
}

func (s *Store) Friends(ctx context.Context, accountUID string) ([]models.Account, error) {
	return s.accounts(ctx, `
		MATCH (:Account {uid: $uid})-[f:FRIENDS_WITH]->(a:Account)
		RETURN a ORDER BY f.since, a.uid`,
		map[string]any{"uid": accountUID})
}

func (s *Store) CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		n, err := count(ctx, tx, "MATCH (r:FriendRequest {uid: $uid}) RETURN count(r) AS n",
			map[string]any{"uid": req.UID})
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, store.ErrDuplicate
		}
		recs, err := collect(ctx, tx, `
			MATCH (s:Account {uid: $sender}), (rc:Account {uid: $receiver})
			CREATE (s)-[:SENT_FRIEND_REQUEST]->(r:FriendRequest $props)<-[:RECEIVED_FRIEND_REQUEST]-(rc)
			RETURN r.uid AS uid`,
			map[string]any{
				"sender":   req.SenderUID,
				"receiver": req.ReceiverUID,
				"props": map[string]any{
					"uid":          req.UID,
					"status":       string(req.Status),
					"message":      req.Message,
					"created_at":   req.CreatedAt,
					"responded_at": optionalTime(req.RespondedAt),
				},
			})
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, store.ErrNotFound
		}
		return nil, nil
	})
	return err
}

func (s *Store) requests(ctx context.Context, query string, params map[string]any) ([]models.FriendRequest, error) {
	v, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		recs, err := collect(ctx, tx, query, params)
		if err != nil {
			return nil, err
		}
		out := make([]models.FriendRequest, 0, len(recs))
		for _, rec := range recs {
			out = append(out, requestFromRecord(rec))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.FriendRequest), nil
}

func (s *Store) FriendRequestByUID(ctx context.Context, uid string) (*models.FriendRequest, error) {
	reqs, err := s.requests(ctx, requestMatch+" WHERE r.uid = $uid RETURN r, s, rc",
		map[string]any{"uid": uid})
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, store.ErrNotFound
	}
	return &reqs[0], nil
}

func (s *Store) PendingRequest(ctx context.Context, senderUID, receiverUID string) (*models.FriendRequest, error) {
	reqs, err := s.requests(ctx, requestMatch+`
		WHERE s.uid = $sender AND rc.uid = $receiver AND r.status = $pending
		RETURN r, s, rc ORDER BY r.created_at LIMIT 1`,
		map[string]any{"sender": senderUID, "receiver": receiverUID, "pending": string(models.StatusPending)})
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, store.ErrNotFound
	}
	return &reqs[0], nil
}

func (s *Store) FriendRequestsFor(ctx context.Context, accountUID string, scope store.RequestScope) ([]models.FriendRequest, error) {
	var where string
	switch scope {
	case store.ScopeReceived:
		where = "rc.uid = $uid"
	case store.ScopeSent:
		where = "s.uid = $uid"
	default:
		where = "s.uid = $uid OR rc.uid = $uid"
	}
	return s.requests(ctx, requestMatch+" WHERE "+where+" RETURN r, s, rc ORDER BY r.created_at, r.uid",
		map[string]any{"uid": accountUID})
}

func (s *Store) ResolveFriendRequest(ctx context.Context, uid string, status models.FriendRequestStatus, respondedAt time.Time) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		recs, err := collect(ctx, tx, requestMatch+`
			WHERE r.uid = $uid
			SET r.status = $status, r.responded_at = $at
			RETURN s.uid AS sender, rc.uid AS receiver`,
			map[string]any{"uid": uid, "status": string(status), "at": respondedAt})
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, store.ErrNotFound
		}
		if status != models.StatusAccepted {
			return nil, nil
		}
		sender, _, _ := neo4j.GetRecordValue[string](recs[0], "sender")
		receiver, _, _ := neo4j.GetRecordValue[string](recs[0], "receiver")
		return nil, exec(ctx, tx, `
			MATCH (s:Account {uid: $sender}), (rc:Account {uid: $receiver})
			MERGE (s)-[f1:FRIENDS_WITH]->(rc) ON CREATE SET f1.since = $at
			MERGE (rc)-[f2:FRIENDS_WITH]->(s) ON CREATE SET f2.since = $at`,
			map[string]any{"sender": sender, "receiver": receiver, "at": respondedAt})
	})
	return err
}

// endregion

// region --- Feelings ---

func feelingTypeFromNode(n neo4j.Node) models.FeelingType {
	return models.FeelingType{
		Name:        str(n.Props, "name"),
		Description: str(n.Props, "description"),
		CreatedAt:   timestamp(n.Props, "created_at"),
	}
}

// feelingFromRecord decodes the feeling under key and its type under
// typeKey. It returns nil when the feeling column is null.
func feelingFromRecord(rec *neo4j.Record, key, typeKey string) *models.Feeling {
	n, ok := node(rec, key)
	if !ok {
		return nil
	}
	f := &models.Feeling{
		Name:        str(n.Props, "name"),
		Color:       str(n.Props, "color"),
		Description: str(n.Props, "description"),
		CreatedAt:   timestamp(n.Props, "created_at"),
	}
	if tn, ok := node(rec, typeKey); ok {
		ft := feelingTypeFromNode(tn)
		f.FeelingType = &ft
		f.FeelingTypeName = &ft.Name
	}
	return f
}

func (s *Store) CreateFeelingType(ctx context.Context, ft *models.FeelingType) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		n, err := count(ctx, tx, "MATCH (t:FeelingType) RETURN count(t) AS n", nil)
		if err != nil {
			return nil, err
		}
		taken, err := count(ctx, tx, "MATCH (t:FeelingType {name: $name}) RETURN count(t) AS n",
			map[string]any{"name": ft.Name})
		if err != nil {
			return nil, err
		}
		if taken > 0 {
			return nil, store.ErrDuplicate
		}
		return nil, exec(ctx, tx, "CREATE (:FeelingType $props)", map[string]any{"props": map[string]any{
			"name":        ft.Name,
			"description": ft.Description,
			"created_at":  ft.CreatedAt,
			"seq":         int64(n),
		}})
	})
	return err
}

func (s *Store) FeelingTypeByName(ctx context.Context, name string) (*models.FeelingType, error) {
	v, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		recs, err := collect(ctx, tx, "MATCH (t:FeelingType {name: $name}) RETURN t", map[string]any{"name": name})
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, store.ErrNotFound
		}
		n, _ := node(recs[0], "t")
		ft := feelingTypeFromNode(n)
		return &ft, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.FeelingType), nil
}

func (s *Store) FeelingTypes(ctx context.Context) ([]models.FeelingType, error) {
	v, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		recs, err := collect(ctx, tx, "MATCH (t:FeelingType) RETURN t ORDER BY t.seq, t.name", nil)
		if err != nil {
			return nil, err
		}
		out := make([]models.FeelingType, 0, len(recs))
		for _, rec := range recs {
			n, _ := node(rec, "t")
			out = append(out, feelingTypeFromNode(n))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.FeelingType), nil
}

func (s *Store) CreateFeeling(ctx context.Context, feeling *models.Feeling) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		params := map[string]any{"name": feeling.Name, "type": optionalString(feeling.FeelingTypeName)}
		taken, err := count(ctx, tx, "MATCH (f:Feeling {name: $name}) RETURN count(f) AS n", params)
		if err != nil {
			return nil, err
		}
		if taken > 0 {
			return nil, store.ErrDuplicate
		}
		if feeling.FeelingTypeName != nil {
			n, err := count(ctx, tx, "MATCH (t:FeelingType {name: $type}) RETURN count(t) AS n", params)
			if err != nil {
				return nil, err
			}
			if n == 0 {
				return nil, store.ErrNotFound
			}
		}
		seq, err := count(ctx, tx, "MATCH (f:Feeling) RETURN count(f) AS n", nil)
		if err != nil {
			return nil, err
		}
		err = exec(ctx, tx, "CREATE (:Feeling $props)", map[string]any{"props": map[string]any{
			"name":        feeling.Name,
			"color":       feeling.Color,
			"description": feeling.Description,
			"created_at":  feeling.CreatedAt,
			"seq":         int64(seq),
		}})
		if err != nil || feeling.FeelingTypeName == nil {
			return nil, err
		}
		return nil, exec(ctx, tx, `
			MATCH (f:Feeling {name: $name}), (t:FeelingType {name: $type})
			CREATE (f)-[:HAS_TYPE]->(t)`, params)
	})
	return err
}

const feelingProjection = `
OPTIONAL MATCH (f)-[:HAS_TYPE]->(t:FeelingType)
RETURN f, t`

func (s *Store) FeelingByName(ctx context.Context, name string) (*models.Feeling, error) {
	v, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		recs, err := collect(ctx, tx, "MATCH (f:Feeling {name: $name})"+feelingProjection,
			map[string]any{"name": name})
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, store.ErrNotFound
		}
		return feelingFromRecord(recs[0], "f", "t"), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Feeling), nil
}

func (s *Store) ListFeelings(ctx context.Context) ([]models.Feeling, error) {
	v, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		recs, err := collect(ctx, tx, "MATCH (f:Feeling)"+feelingProjection+" ORDER BY f.seq, f.name", nil)
		if err != nil {
			return nil, err
		}
		out := make([]models.Feeling, 0, len(recs))
		for _, rec := range recs {
			out = append(out, *feelingFromRecord(rec, "f", "t"))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Feeling), nil
}

// endregion

// region --- Posts ---

const postMatch = `
MATCH (p:Post)-[:CREATED_BY]->(a:Account)`

const postProjection = `
OPTIONAL MATCH (p)-[:EXPRESSES_FEELING]->(f:Feeling)
OPTIONAL MATCH (f)-[:HAS_TYPE]->(t:FeelingType)
RETURN p, a, f, t`

func postFromRecord(rec *neo4j.Record) models.Post {
	pn, _ := node(rec, "p")
	an, _ := node(rec, "a")
	author := accountFromNode(an)
	post := models.Post{
		UID:       str(pn.Props, "uid"),
		Body:      str(pn.Props, "body"),
		AuthorUID: author.UID,
		CreatedAt: timestamp(pn.Props, "created_at"),
		UpdatedAt: timestampPtr(pn.Props, "updated_at"),
		Author:    author,
	}
	if f := feelingFromRecord(rec, "f", "t"); f != nil {
		post.Feeling = f
		post.FeelingName = &f.Name
	}
	return post
}

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		params := map[string]any{
			"uid":     post.UID,
			"author":  post.AuthorUID,
			"feeling": optionalString(post.FeelingName),
			"props": map[string]any{
				"uid":        post.UID,
				"body":       post.Body,
				"created_at": post.CreatedAt,
				"updated_at": optionalTime(post.UpdatedAt),
			},
		}
		n, err := count(ctx, tx, "MATCH (a:Account {uid: $author}) RETURN count(a) AS n", params)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, store.ErrNotFound
		}
		if post.FeelingName != nil {
			n, err := count(ctx, tx, "MATCH (f:Feeling {name: $feeling}) RETURN count(f) AS n", params)
			if err != nil {
				return nil, err
			}
			if n == 0 {
				return nil, store.ErrNotFound
			}
		}
		taken, err := count(ctx, tx, "MATCH (p:Post {uid: $uid}) RETURN count(p) AS n", params)
		if err != nil {
			return nil, err
		}
		if taken > 0 {
			return nil, store.ErrDuplicate
		}

		if err := exec(ctx, tx, `
			MATCH (a:Account {uid: $author})
			CREATE (p:Post $props)-[:CREATED_BY]->(a)`, params); err != nil {
			return nil, err
		}
		if post.FeelingName == nil {
			return nil, nil
		}
		return nil, exec(ctx, tx, `
			MATCH (p:Post {uid: $uid})-[:CREATED_BY]->(a:Account), (f:Feeling {name: $feeling})
			CREATE (p)-[:EXPRESSES_FEELING]->(f)
			SET a.feelings_shared_count = coalesce(a.feelings_shared_count, 0) + 1`, params)
	})
	return err
}

func (s *Store) posts(ctx context.Context, query string, params map[string]any) ([]models.Post, error) {
	v, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		recs, err := collect(ctx, tx, query, params)
		if err != nil {
			return nil, err
		}
		out := make([]models.Post, 0, len(recs))
		for _, rec := range recs {
			out = append(out, postFromRecord(rec))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Post), nil
}

func (s *Store) PostByUID(ctx context.Context, uid string) (*models.Post, error) {
	posts, err := s.posts(ctx, postMatch+" WHERE p.uid = $uid"+postProjection, map[string]any{"uid": uid})
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, store.ErrNotFound
	}
	return &posts[0], nil
}

func (s *Store) PostsByAuthor(ctx context.Context, authorUID string) ([]models.Post, error) {
	return s.posts(ctx, postMatch+" WHERE a.uid = $uid"+postProjection+" ORDER BY p.created_at DESC, p.uid DESC",
		map[string]any{"uid": authorUID})
}

func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	return s.posts(ctx, postMatch+postProjection+" ORDER BY p.created_at, p.uid", nil)
}

func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		recs, err := collect(ctx, tx, `
			MATCH (p:Post {uid: $uid})
			SET p.body = $body, p.updated_at = coalesce($at, p.updated_at)
			RETURN p.uid AS uid`,
			map[string]any{"uid": post.UID, "body": post.Body, "at": optionalTime(post.UpdatedAt)})
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, store.ErrNotFound
		}
		return nil, nil
	})
	return err
}

func (s *Store) MarkPostRead(ctx context.Context, postUID, accountUID string) (bool, error) {
	v, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		params := map[string]any{"post": postUID, "account": accountUID}
		n, err := count(ctx, tx, `
			MATCH (a:Account {uid: $account}), (p:Post {uid: $post})
			RETURN count(*) AS n`, params)
		if err != nil {
			return false, err
		}
		if n == 0 {
			return false, store.ErrNotFound
		}
		// MERGE takes the write lock; created is 1 only for the first read.
		recs, err := collect(ctx, tx, `
			MATCH (a:Account {uid: $account}), (p:Post {uid: $post})
			MERGE (a)-[r:READ_POST]->(p)
			ON CREATE SET r.created_at = datetime(), r.fresh = true
			WITH a, r, coalesce(r.fresh, false) AS created
			REMOVE r.fresh
			FOREACH (_ IN CASE WHEN created THEN [1] ELSE [] END |
				SET a.posts_read_count = coalesce(a.posts_read_count, 0) + 1)
			RETURN created`, params)
		if err != nil {
			return false, err
		}
		if len(recs) == 0 {
			return false, nil
		}
		created, _, err := neo4j.GetRecordValue[bool](recs[0], "created")
		return created, err
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// endregion

// region --- Chats ---

const chatProjection = `
OPTIONAL MATCH (pa:Account)-[pi:PARTICIPATES_IN]->(c)
WITH c, pa, pi ORDER BY pi.position
WITH c, collect(pa) AS participants
OPTIONAL MATCH (c)-[:LAST_MESSAGE]->(m:Message)-[:SENT_BY]->(ms:Account)
OPTIONAL MATCH (m)-[:EXPRESSES_FEELING]->(mf:Feeling)
RETURN c, participants, m, ms, mf
ORDER BY c.created_at, c.uid`

const messageProjection = `
MATCH (m)-[:SENT_BY]->(ms:Account)
OPTIONAL MATCH (m)-[:EXPRESSES_FEELING]->(mf:Feeling)
RETURN m, ms, mf, c.uid AS chat_uid`

func chatFromRecord(rec *neo4j.Record) models.Chat {
	cn, _ := node(rec, "c")
	p := cn.Props
	chat := models.Chat{
		UID:           str(p, "uid"),
		Name:          str(p, "name"),
		IsGroupChat:   boolean(p, "is_group_chat"),
		CreatedAt:     timestamp(p, "created_at"),
		LastMessageAt: timestampPtr(p, "last_message_at"),
	}
	for _, n := range nodes(rec, "participants") {
		chat.Participants = append(chat.Participants, accountFromNode(n))
	}
	if _, ok := node(rec, "m"); ok {
		msg := messageFromRecord(rec, chat.UID)
		chat.LastMessage = &msg
		chat.LastMessageUID = &msg.UID
	}
	return chat
}

// messageFromRecord decodes m, its sender ms and feeling mf. chatUID is used
// when the record carries no chat_uid column.
func messageFromRecord(rec *neo4j.Record, chatUID string) models.Message {
	mn, _ := node(rec, "m")
	sn, _ := node(rec, "ms")
	if v, isNil, err := neo4j.GetRecordValue[string](rec, "chat_uid"); err == nil && !isNil {
		chatUID = v
	}
	sender := accountFromNode(sn)
	p := mn.Props
	msg := models.Message{
		UID:       str(p, "uid"),
		ChatUID:   chatUID,
		SenderUID: sender.UID,
		Type:      models.MessageType(str(p, "message_type")),
		Text:      str(p, "text"),
		IsRead:    boolean(p, "is_read"),
		CreatedAt: timestamp(p, "created_at"),
		Sender:    sender,
	}
	if f := feelingFromRecord(rec, "mf", "mft"); f != nil {
		msg.Feeling = f
		msg.FeelingName = &f.Name
	}
	return msg
}

func (s *Store) CreateChat(ctx context.Context, chat *models.Chat, participantUIDs []string) error {
	uids := make([]string, 0, len(participantUIDs))
	seen := make(map[string]bool, len(participantUIDs))
	for _, uid := range participantUIDs {
		if !seen[uid] {
			seen[uid] = true
			uids = append(uids, uid)
		}
	}

	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		params := map[string]any{
			"uid":  chat.UID,
			"uids": uids,
			"props": map[string]any{
				"uid":             chat.UID,
				"name":            chat.Name,
				"is_group_chat":   chat.IsGroupChat,
				"created_at":      chat.CreatedAt,
				"last_message_at": optionalTime(chat.LastMessageAt),
			},
		}
		taken, err := count(ctx, tx, "MATCH (c:Chat {uid: $uid}) RETURN count(c) AS n", params)
		if err != nil {
			return nil, err
		}
		if taken > 0 {
			return nil, store.ErrDuplicate
		}
		n, err := count(ctx, tx, "MATCH (a:Account) WHERE a.uid IN $uids RETURN count(a) AS n", params)
		if err != nil {
			return nil, err
		}
		if n != len(uids) {
			return nil, store.ErrNotFound
		}
		return nil, exec(ctx, tx, `
			CREATE (c:Chat $props)
			WITH c
			UNWIND range(0, size($uids) - 1) AS i
			MATCH (a:Account {uid: $uids[i]})
			CREATE (a)-[:PARTICIPATES_IN {position: i}]->(c)`, params)
	})
	return err
}

func (s *Store) chats(ctx context.Context, query string, params map[string]any) ([]models.Chat, error) {
	v, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		recs, err := collect(ctx, tx, query, params)
		if err != nil {
			return nil, err
		}
		out := make([]models.Chat, 0, len(recs))
		for _, rec := range recs {
			out = append(out, chatFromRecord(rec))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Chat), nil
}

func (s *Store) ChatByUID(ctx context.Context, uid string) (*models.Chat, error) {
	chats, err := s.chats(ctx, "MATCH (c:Chat {uid: $uid})"+chatProjection, map[string]any{"uid": uid})
	if err != nil {
		return nil, err
	}
	if len(chats) == 0 {
		return nil, store.ErrNotFound
	}
	return &chats[0], nil
}

func (s *Store) ChatsFor(ctx context.Context, accountUID string) ([]models.Chat, error) {
	return s.chats(ctx, "MATCH (:Account {uid: $uid})-[:PARTICIPATES_IN]->(c:Chat)"+chatProjection,
		map[string]any{"uid": accountUID})
}

func (s *Store) ensureChat(ctx context.Context, uid string) error {
	_, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		n, err := count(ctx, tx, "MATCH (c:Chat {uid: $chat}) RETURN count(c) AS n", map[string]any{"chat": uid})
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, store.ErrNotFound
		}
		return nil, nil
	})
	return err
}

func (s *Store) IsParticipant(ctx context.Context, chatUID, accountUID string) (bool, error) {
	v, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		params := map[string]any{"chat": chatUID, "account": accountUID}
		n, err := count(ctx, tx, "MATCH (c:Chat {uid: $chat}) RETURN count(c) AS n", params)
		if err != nil {
			return false, err
		}
		if n == 0 {
			return false, store.ErrNotFound
		}
		n, err = count(ctx, tx, `
			MATCH (:Account {uid: $account})-[pi:PARTICIPATES_IN]->(:Chat {uid: $chat})
			RETURN count(pi) AS n`, params)
		return n > 0, err
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (s *Store) AppendMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		params := map[string]any{
			"chat":    msg.ChatUID,
			"sender":  msg.SenderUID,
			"uid":     msg.UID,
			"feeling": optionalString(msg.FeelingName),
			"at":      msg.CreatedAt,
			"props": map[string]any{
				"uid":          msg.UID,
				"text":         msg.Text,
				"message_type": string(msg.Type),
				"is_read":      msg.IsRead,
				"created_at":   msg.CreatedAt,
			},
		}

		// Bumping version write-locks the chat so concurrent appends serialize.
		recs, err := collect(ctx, tx, `
			MATCH (c:Chat {uid: $chat})
			SET c.version = coalesce(c.version, 0) + 1
			RETURN c.last_message_at AS last`, params)
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, store.ErrNotFound
		}
		var last *time.Time
		if v, ok := recs[0].Get("last"); ok {
			if t, ok := v.(time.Time); ok {
				last = &t
			}
		}

		n, err := count(ctx, tx, "MATCH (a:Account {uid: $sender}) RETURN count(a) AS n", params)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, store.ErrNotFound
		}
		if msg.FeelingName != nil {
			n, err := count(ctx, tx, "MATCH (f:Feeling {name: $feeling}) RETURN count(f) AS n", params)
			if err != nil {
				return nil, err
			}
			if n == 0 {
				return nil, store.ErrNotFound
			}
		}
		taken, err := count(ctx, tx, "MATCH (m:Message {uid: $uid}) RETURN count(m) AS n", params)
		if err != nil {
			return nil, err
		}
		if taken > 0 {
			return nil, store.ErrDuplicate
		}

		if err := exec(ctx, tx, `
			MATCH (c:Chat {uid: $chat}), (a:Account {uid: $sender})
			CREATE (m:Message $props)-[:SENT_TO]->(c)
			CREATE (m)-[:SENT_BY]->(a)`, params); err != nil {
			return nil, err
		}
		if msg.FeelingName != nil {
			if err := exec(ctx, tx, `
				MATCH (m:Message {uid: $uid}), (f:Feeling {name: $feeling})
				CREATE (m)-[:EXPRESSES_FEELING]->(f)`, params); err != nil {
				return nil, err
			}
		}

		if last != nil && last.After(msg.CreatedAt) {
			return nil, nil
		}
		return nil, exec(ctx, tx, `
			MATCH (c:Chat {uid: $chat}), (m:Message {uid: $uid})
			OPTIONAL MATCH (c)-[old:LAST_MESSAGE]->()
			DELETE old
			WITH DISTINCT c, m
			CREATE (c)-[:LAST_MESSAGE]->(m)
			SET c.last_message_at = $at`, params)
	})
	return err
}

func (s *Store) messages(ctx context.Context, query string, params map[string]any) ([]models.Message, error) {
	v, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		recs, err := collect(ctx, tx, query, params)
		if err != nil {
			return nil, err
		}
		out := make([]models.Message, 0, len(recs))
		for _, rec := range recs {
			out = append(out, messageFromRecord(rec, ""))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Message), nil
}

func (s *Store) MessageByUID(ctx context.Context, uid string) (*models.Message, error) {
	msgs, err := s.messages(ctx, "MATCH (m:Message {uid: $uid})-[:SENT_TO]->(c:Chat)"+messageProjection,
		map[string]any{"uid": uid})
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, store.ErrNotFound
	}
	return &msgs[0], nil
}

func (s *Store) MessagesByChat(ctx context.Context, chatUID string) ([]models.Message, error) {
	if err := s.ensureChat(ctx, chatUID); err != nil {
		return nil, err
	}
	return s.messages(ctx, "MATCH (m:Message)-[:SENT_TO]->(c:Chat {uid: $uid})"+messageProjection+
		" ORDER BY m.created_at DESC, m.uid DESC", map[string]any{"uid": chatUID})
}

func (s *Store) MarkMessagesRead(ctx context.Context, uids []string) error {
	if len(uids) == 0 {
		return nil
	}
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, exec(ctx, tx, "MATCH (m:Message) WHERE m.uid IN $uids SET m.is_read = true",
			map[string]any{"uids": uids})
	})
	return err
}

func (s *Store) ChatStats(ctx context.Context, chatUID, viewerUID string) (int, int, error) {
	v, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		params := map[string]any{"chat": chatUID, "viewer": viewerUID}
		n, err := count(ctx, tx, "MATCH (c:Chat {uid: $chat}) RETURN count(c) AS n", params)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, store.ErrNotFound
		}
		recs, err := collect(ctx, tx, `
			MATCH (m:Message)-[:SENT_TO]->(:Chat {uid: $chat})
			MATCH (m)-[:SENT_BY]->(s:Account)
			RETURN count(m) AS total,
				sum(CASE WHEN NOT m.is_read AND s.uid <> $viewer THEN 1 ELSE 0 END) AS unread`, params)
		if err != nil {
			return nil, err
		}
		var stats [2]int
		if len(recs) > 0 {
			total, _, _ := neo4j.GetRecordValue[int64](recs[0], "total")
			unread, _, _ := neo4j.GetRecordValue[int64](recs[0], "unread")
			stats = [2]int{int(total), int(unread)}
		}
		return stats, nil
	})
	if err != nil {
		return 0, 0, err
	}
	stats := v.([2]int)
	return stats[0], stats[1], nil
}

// endregion
