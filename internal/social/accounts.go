package social

import (
	"context"
	"errors"
	"strings"
	"time"

	"feels/backend/internal/models"
	"feels/backend/internal/store"

	"golang.org/x/crypto/bcrypt"
)

// AccountService registers, authenticates and edits accounts.
type AccountService struct {
	store interface {
		store.Accounts
		store.Friendships
	}
	authz *Authorizer
	now   func() time.Time
	cost  int
}

type Registration struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	Bio         string
}

// Register creates an account with a bcrypt password hash. The display name
// defaults to the username.
func (s *AccountService) Register(ctx context.Context, in Registration) (*models.Account, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, ErrMissingField
	}

	if _, err := s.store.AccountByUsername(ctx, in.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, storeErr(err, nil, "check username")
	}
	if _, err := s.store.AccountByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, storeErr(err, nil, "check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, storeErr(err, nil, "hash password")
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = in.Username
	}
	now := s.now()
	account := &models.Account{
		UID:          newUID(),
		Username:     in.Username,
		Email:        in.Email,
		DisplayName:  displayName,
		Bio:          in.Bio,
		PasswordHash: string(hash),
		CreatedAt:    now,
		LastActive:   now,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Lost a race with a concurrent registration.
			return nil, ErrUsernameTaken
		}
		return nil, storeErr(err, nil, "create account")
	}
	return account, nil
}

// Authenticate checks a username and password and bumps last_active.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	account, err := s.store.AccountByUsername(ctx, username)
	if err != nil {
		return nil, storeErr(err, ErrBadCredentials, "load account")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}

	account.LastActive = s.now()
	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return nil, storeErr(err, nil, "update last active")
	}
	return account, nil
}

// ProfileUpdate holds the profile fields to change; nil fields are kept.
type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	Email       *string
	AvatarURL   *string
}

func (s *AccountService) UpdateProfile(ctx context.Context, account *models.Account, in ProfileUpdate) (*models.Account, error) {
	current, err := s.store.AccountByUID(ctx, account.UID)
	if err != nil {
		return nil, storeErr(err, ErrUserNotFound, "load account")
	}

	if in.DisplayName != nil {
		current.DisplayName = *in.DisplayName
	}
	if in.Bio != nil {
		current.Bio = *in.Bio
	}
	if in.AvatarURL != nil {
		current.AvatarURL = *in.AvatarURL
	}
	if in.Email != nil && *in.Email != current.Email {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			return nil, ErrMissingField
		}
		if _, err := s.store.AccountByEmail(ctx, email); err == nil {
			return nil, ErrEmailInUse
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, storeErr(err, nil, "check email")
		}
		current.Email = email
	}

	if err := s.store.UpdateAccount(ctx, current); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailInUse
		}
		return nil, storeErr(err, ErrUserNotFound, "update account")
	}
	return current, nil
}

func (s *AccountService) GetAccount(ctx context.Context, uid string) (*models.Account, error) {
	account, err := s.store.AccountByUID(ctx, uid)
	if err != nil {
		return nil, storeErr(err, ErrUserNotFound, "load account")
	}
	return account, nil
}

func (s *AccountService) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	account, err := s.store.AccountByUsername(ctx, username)
	if err != nil {
		return nil, storeErr(err, ErrUserNotFound, "load account")
	}
	return account, nil
}

func (s *AccountService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, storeErr(err, nil, "list accounts")
	}
	return accounts, nil
}

// Friends lists ownerUID's friends. Only the owner and their friends may look.
func (s *AccountService) Friends(ctx context.Context, viewer *models.Account, ownerUID string) ([]models.Account, error) {
	owner, err := s.GetAccount(ctx, ownerUID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireFriendList(ctx, viewer, owner); err != nil {
		return nil, err
	}
	friends, err := s.store.Friends(ctx, owner.UID)
	if err != nil {
		return nil, storeErr(err, nil, "list friends")
	}
	return friends, nil
}
