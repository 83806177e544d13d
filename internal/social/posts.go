package social

import (
	"context"
	"sort"
	"strings"
	"time"

	"feels/backend/internal/models"
	"feels/backend/internal/store"

	"go.uber.org/zap"
)

// previewLength is how much of a body the feed shows before truncating.
const previewLength = 100

// PostService publishes posts and serves them through the Authorizer.
type PostService struct {
	store interface {
		store.Accounts
		store.Friendships
		store.Feelings
		store.Posts
	}
	authz *Authorizer
	log   *zap.Logger
	now   func() time.Time
}

// PostResult is a created post plus the outcome of attaching its feeling.
type PostResult struct {
	Post    *models.Post
	Feeling FeelingOutcome
}

// CreatePost stores a post by author. The author's feelings_shared_count
// grows only when the feeling was actually attached.
func (s *PostService) CreatePost(ctx context.Context, author *models.Account, body, feelingName string) (*PostResult, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyPostBody
	}
	feeling, outcome := resolveFeeling(ctx, s.store, s.log, feelingName)

	post := &models.Post{
		UID:       newUID(),
		Body:      body,
		AuthorUID: author.UID,
		CreatedAt: s.now(),
	}
	if feeling != nil {
		post.FeelingName = &feeling.Name
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, storeErr(err, ErrUserNotFound, "create post")
	}
	post.Author = *author
	post.Feeling = feeling

	if outcome.Requested && !outcome.Attached {
		s.log.Info("post created without feeling", zap.String("post", post.UID), zap.String("feeling", feelingName))
	}
	return &PostResult{Post: post, Feeling: outcome}, nil
}

// GetPost returns a post the viewer is allowed to read.
func (s *PostService) GetPost(ctx context.Context, viewer *models.Account, uid string) (*models.Post, error) {
	post, err := s.store.PostByUID(ctx, uid)
	if err != nil {
		return nil, storeErr(err, ErrPostNotFound, "load post")
	}
	if err := s.authz.RequirePosts(ctx, viewer, &post.Author); err != nil {
		return nil, err
	}
	return post, nil
}

// Feed lists the viewer's posts and their friends' posts, newest first,
// with bodies cut to a preview.
func (s *PostService) Feed(ctx context.Context, viewer *models.Account) ([]models.Post, error) {
	friends, err := s.store.Friends(ctx, viewer.UID)
	if err != nil {
		return nil, storeErr(err, nil, "list friends")
	}
	authors := append([]string{viewer.UID}, uids(friends)...)

	var posts []models.Post
	for _, uid := range authors {
		ps, err := s.store.PostsByAuthor(ctx, uid)
		if err != nil {
			return nil, storeErr(err, nil, "list posts")
		}
		posts = append(posts, ps...)
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	for i := range posts {
		posts[i].Body = Preview(posts[i].Body)
	}
	return posts, nil
}

// Preview truncates body to the feed preview length.
func Preview(body string) string {
	r := []rune(body)
	if len(r) <= previewLength {
		return body
	}
	return string(r[:previewLength]) + "..."
}

// UserPosts is an author's full post list.
type UserPosts struct {
	Author *models.Account
	Posts  []models.Post
}

// PostsByUser lists targetUID's posts newest first, if the viewer may see them.
func (s *PostService) PostsByUser(ctx context.Context, viewer *models.Account, targetUID string) (*UserPosts, error) {
	target, err := s.store.AccountByUID(ctx, targetUID)
	if err != nil {
		return nil, storeErr(err, ErrUserNotFound, "load user")
	}
	if err := s.authz.RequirePosts(ctx, viewer, target); err != nil {
		return nil, err
	}
	posts, err := s.store.PostsByAuthor(ctx, target.UID)
	if err != nil {
		return nil, storeErr(err, nil, "list posts")
	}
	return &UserPosts{Author: target, Posts: posts}, nil
}

// UpdatePost replaces the body of one of the editor's own posts.
func (s *PostService) UpdatePost(ctx context.Context, editor *models.Account, uid, body string) (*models.Post, error) {
	post, err := s.store.PostByUID(ctx, uid)
	if err != nil {
		return nil, storeErr(err, ErrPostNotFound, "load post")
	}
	if post.AuthorUID != editor.UID {
		return nil, ErrNotPostAuthor
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyPostBody
	}

	now := s.now()
	post.Body = body
	post.UpdatedAt = &now
	if err := s.store.UpdatePost(ctx, post); err != nil {
		return nil, storeErr(err, ErrPostNotFound, "update post")
	}
	return post, nil
}

// MarkRead records that the viewer read a post. It reports false when the
// read had already been counted.
func (s *PostService) MarkRead(ctx context.Context, viewer *models.Account, uid string) (bool, error) {
	post, err := s.GetPost(ctx, viewer, uid)
	if err != nil {
		return false, err
	}
	counted, err := s.store.MarkPostRead(ctx, post.UID, viewer.UID)
	if err != nil {
		return false, storeErr(err, ErrPostNotFound, "mark post read")
	}
	return counted, nil
}

func uids(accounts []models.Account) []string {
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.UID)
	}
	return out
}
