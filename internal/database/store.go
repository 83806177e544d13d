package database

import (
	"context"
	"time"

	"feels/backend/internal/models"
	"feels/backend/internal/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// region --- Accounts ---

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	return mapErr(s.db.WithContext(ctx).Create(account).Error)
}

func (s *Store) AccountByUID(ctx context.Context, uid string) (*models.Account, error) {
	var a models.Account
	if err := s.db.WithContext(ctx).First(&a, "uid = ?", uid).Error; err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (s *Store) AccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	var a models.Account
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&a).Error; err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

var accountColumns = []string{
	"username", "email", "display_name", "bio", "avatar_url", "password_hash",
	"posts_read_count", "feelings_shared_count", "last_active",
}

func (s *Store) UpdateAccount(ctx context.Context, account *models.Account) error {
	return mapErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, "uid = ?", account.UID).Error; err != nil {
			return err
		}
		return tx.Model(&current).Select(accountColumns).Updates(account).Error
	}))
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.WithContext(ctx).Order("created_at, uid").Find(&accounts).Error
	return accounts, mapErr(err)
}

// endregion

// region --- Friendships ---

func (s *Store) IsFriend(ctx context.Context, accountUID, otherUID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("account_uid = ? AND friend_uid = ?", accountUID, otherUID).
		Count(&n).Error
	return n > 0, mapErr(err)
}

func (s *Store) Friends(ctx context.Context, accountUID string) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.WithContext(ctx).
		Joins("JOIN friendships ON friendships.friend_uid = accounts.uid").
		Where("friendships.account_uid = ?", accountUID).
		Order("friendships.created_at").
		Find(&accounts).Error
	return accounts, mapErr(err)
}

func (s *Store) CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error {
	return mapErr(s.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error)
}

func (s *Store) requests(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Sender").Preload("Receiver")
}

func (s *Store) FriendRequestByUID(ctx context.Context, uid string) (*models.FriendRequest, error) {
	var r models.FriendRequest
	if err := s.requests(ctx).First(&r, "uid = ?", uid).Error; err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

func (s *Store) PendingRequest(ctx context.Context, senderUID, receiverUID string) (*models.FriendRequest, error) {
	var r models.FriendRequest
	err := s.requests(ctx).
		Where("sender_uid = ? AND receiver_uid = ? AND status = ?", senderUID, receiverUID, models.StatusPending).
		First(&r).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

func (s *Store) FriendRequestsFor(ctx context.Context, accountUID string, scope store.RequestScope) ([]models.FriendRequest, error) {
	q := s.requests(ctx)
	switch scope {
	case store.ScopeReceived:
		q = q.Where("receiver_uid = ?", accountUID)
	case store.ScopeSent:
		q = q.Where("sender_uid = ?", accountUID)
	default:
		q = q.Where("sender_uid = ? OR receiver_uid = ?", accountUID, accountUID)
	}

	var reqs []models.FriendRequest
	err := q.Order("created_at, uid").Find(&reqs).Error
	return reqs, mapErr(err)
}

func (s *Store) ResolveFriendRequest(ctx context.Context, uid string, status models.FriendRequestStatus, respondedAt time.Time) error {
	return mapErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.FriendRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, "uid = ?", uid).Error; err != nil {
			return err
		}

		err := tx.Model(&req).Updates(map[string]any{"status": status, "responded_at": respondedAt}).Error
		if err != nil {
			return err
		}
		if status != models.StatusAccepted {
			return nil
		}

		edges := []models.Friendship{
			{AccountUID: req.SenderUID, FriendUID: req.ReceiverUID, CreatedAt: respondedAt},
			{AccountUID: req.ReceiverUID, FriendUID: req.SenderUID, CreatedAt: respondedAt},
		}
		return tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&edges).Error
	}))
}

// endregion

// region --- Feelings ---

func (s *Store) CreateFeelingType(ctx context.Context, ft *models.FeelingType) error {
	return mapErr(s.db.WithContext(ctx).Create(ft).Error)
}

func (s *Store) FeelingTypeByName(ctx context.Context, name string) (*models.FeelingType, error) {
	var ft models.FeelingType
	if err := s.db.WithContext(ctx).First(&ft, "name = ?", name).Error; err != nil {
		return nil, mapErr(err)
	}
	return &ft, nil
}

func (s *Store) FeelingTypes(ctx context.Context) ([]models.FeelingType, error) {
	var types []models.FeelingType
	err := s.db.WithContext(ctx).Order("created_at, name").Find(&types).Error
	return types, mapErr(err)
}

func (s *Store) CreateFeeling(ctx context.Context, feeling *models.Feeling) error {
	return mapErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if feeling.FeelingTypeName != nil {
			var ft models.FeelingType
			if err := tx.First(&ft, "name = ?", *feeling.FeelingTypeName).Error; err != nil {
				return err
			}
		}
		return tx.Omit(clause.Associations).Create(feeling).Error
	}))
}

func (s *Store) FeelingByName(ctx context.Context, name string) (*models.Feeling, error) {
	var f models.Feeling
	if err := s.db.WithContext(ctx).Preload("FeelingType").First(&f, "name = ?", name).Error; err != nil {
		return nil, mapErr(err)
	}
	return &f, nil
}

func (s *Store) ListFeelings(ctx context.Context) ([]models.Feeling, error) {
	var feelings []models.Feeling
	err := s.db.WithContext(ctx).Preload("FeelingType").Order("created_at, name").Find(&feelings).Error
	return feelings, mapErr(err)
}

// endregion

// region --- Posts ---

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	return mapErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var author models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&author, "uid = ?", post.AuthorUID).Error; err != nil {
			return err
		}
		if post.FeelingName != nil {
			var f models.Feeling
			if err := tx.First(&f, "name = ?", *post.FeelingName).Error; err != nil {
				return err
			}
		}
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		if post.FeelingName == nil {
			return nil
		}
		return tx.Model(&author).UpdateColumn("feelings_shared_count", gorm.Expr("feelings_shared_count + ?", 1)).Error
	}))
}

func (s *Store) posts(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Author").Preload("Feeling")
}

func (s *Store) PostByUID(ctx context.Context, uid string) (*models.Post, error) {
	var p models.Post
	if err := s.posts(ctx).First(&p, "uid = ?", uid).Error; err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *Store) PostsByAuthor(ctx context.Context, authorUID string) ([]models.Post, error) {
	var posts []models.Post
	err := s.posts(ctx).Where("author_uid = ?", authorUID).Order("created_at DESC").Find(&posts).Error
	return posts, mapErr(err)
}

func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := s.posts(ctx).Order("created_at").Find(&posts).Error
	return posts, mapErr(err)
}

func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("uid = ?", post.UID).
		Updates(map[string]any{"body": post.Body, "updated_at": post.UpdatedAt})
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) MarkPostRead(ctx context.Context, postUID, accountUID string) (bool, error) {
	counted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("uid").First(&post, "uid = ?", postUID).Error; err != nil {
			return err
		}
		var reader models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&reader, "uid = ?", accountUID).Error; err != nil {
			return err
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.PostRead{PostUID: postUID, AccountUID: accountUID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		counted = true
		return tx.Model(&reader).UpdateColumn("posts_read_count", gorm.Expr("posts_read_count + ?", 1)).Error
	})
	return counted, mapErr(err)
}

// endregion

// region --- Chats ---

func (s *Store) CreateChat(ctx context.Context, chat *models.Chat, participantUIDs []string) error {
	return mapErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		unique := make(map[string]bool, len(participantUIDs))
		for _, uid := range participantUIDs {
			unique[uid] = true
		}
		var found int64
		if err := tx.Model(&models.Account{}).Where("uid IN ?", participantUIDs).Count(&found).Error; err != nil {
			return err
		}
		if int(found) != len(unique) {
			return store.ErrNotFound
		}

		if err := tx.Omit(clause.Associations).Create(chat).Error; err != nil {
			return err
		}
		rows := make([]models.ChatParticipant, 0, len(unique))
		for _, uid := range participantUIDs {
			if unique[uid] {
				rows = append(rows, models.ChatParticipant{ChatUID: chat.UID, AccountUID: uid})
				unique[uid] = false
			}
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	}))
}

func (s *Store) chats(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Participants").
		Preload("LastMessage.Sender").
		Preload("LastMessage.Feeling")
}

func (s *Store) ChatByUID(ctx context.Context, uid string) (*models.Chat, error) {
	var c models.Chat
	if err := s.chats(ctx).First(&c, "uid = ?", uid).Error; err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (s *Store) ChatsFor(ctx context.Context, accountUID string) ([]models.Chat, error) {
	var chats []models.Chat
	err := s.chats(ctx).
		Joins("JOIN chat_participants ON chat_participants.chat_uid = chats.uid").
		Where("chat_participants.account_uid = ?", accountUID).
		Order("chats.created_at").
		Find(&chats).Error
	return chats, mapErr(err)
}

func (s *Store) IsParticipant(ctx context.Context, chatUID, accountUID string) (bool, error) {
	var chat models.Chat
	if err := s.db.WithContext(ctx).Select("uid").First(&chat, "uid = ?", chatUID).Error; err != nil {
		return false, mapErr(err)
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.ChatParticipant{}).
		Where("chat_uid = ? AND account_uid = ?", chatUID, accountUID).
		Count(&n).Error
	return n > 0, mapErr(err)
}

func (s *Store) AppendMessage(ctx context.Context, msg *models.Message) error {
	return mapErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chat models.Chat
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&chat, "uid = ?", msg.ChatUID).Error; err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(msg).Error; err != nil {
			return err
		}
		if chat.LastMessageAt != nil && chat.LastMessageAt.After(msg.CreatedAt) {
			return nil
		}
		return tx.Model(&chat).Updates(map[string]any{
			"last_message_uid": msg.UID,
			"last_message_at":  msg.CreatedAt,
		}).Error
	}))
}

func (s *Store) messages(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Sender").Preload("Feeling")
}

func (s *Store) MessageByUID(ctx context.Context, uid string) (*models.Message, error) {
	var m models.Message
	if err := s.messages(ctx).First(&m, "uid = ?", uid).Error; err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (s *Store) MessagesByChat(ctx context.Context, chatUID string) ([]models.Message, error) {
	var chat models.Chat
	if err := s.db.WithContext(ctx).Select("uid").First(&chat, "uid = ?", chatUID).Error; err != nil {
		return nil, mapErr(err)
	}
	var msgs []models.Message
	err := s.messages(ctx).Where("chat_uid = ?", chatUID).Order("created_at DESC").Find(&msgs).Error
	return msgs, mapErr(err)
}

func (s *Store) MarkMessagesRead(ctx context.Context, uids []string) error {
	if len(uids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("uid IN ?", uids).
		Update("is_read", true).Error
	return mapErr(err)
}

func (s *Store) ChatStats(ctx context.Context, chatUID, viewerUID string) (int, int, error) {
	var chat models.Chat
	if err := s.db.WithContext(ctx).Select("uid").First(&chat, "uid = ?", chatUID).Error; err != nil {
		return 0, 0, mapErr(err)
	}

	var total, unread int64
	base := s.db.WithContext(ctx).Model(&models.Message{}).Where("chat_uid = ?", chatUID)
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, 0, mapErr(err)
	}
	err := base.Session(&gorm.Session{}).
		Where("is_read = ? AND sender_uid <> ?", false, viewerUID).
		Count(&unread).Error
	return int(total), int(unread), mapErr(err)
}

// endregion
