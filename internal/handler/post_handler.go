package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

type PostInput struct {
	Body        string `json:"body" example:"Finally finished my thesis!"`
	FeelingName string `json:"feeling_name" example:"Grateful"`
}

type PostUpdateInput struct {
	Body string `json:"body"`
}

type PostCreatedResponse struct {
	UID     string `json:"uid"`
	Message string `json:"message" example:"Post created successfully"`
	FeelingOutcomeResponse
}

type PostListResponse struct {
	Posts []PostResponse `json:"posts"`
}

type UserPostsResponse struct {
	Posts  []PostResponse `json:"posts"`
	Author AccountSummary `json:"author"`
	Count  int            `json:"count"`
}

type PostReadResponse struct {
	Message string `json:"message" example:"Post marked as read"`
	Counted bool   `json:"counted"`
}

// endregion

// ListPosts godoc
// @Summary      List posts
// @Description  Without author_uid, returns the viewer's feed: their own and their friends' posts, newest first, with bodies cut to 100 characters. With author_uid, returns that author's posts if the viewer may see them.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        author_uid query string false "Author UID"
// @Success      200  {object}  PostListResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	if author := c.Query("author_uid"); author != "" {
		h.listUserPosts(c, author)
		return
	}
	posts, err := h.svc.Posts.Feed(c.Request.Context(), viewer(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, PostListResponse{Posts: newPostResponses(posts)})
}

// CreatePost godoc
// @Summary      Create a post
// @Description  A feeling_name that does not resolve is reported in warning; the post is created anyway.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body PostInput true "Post"
// @Success      201  {object}  PostCreatedResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var input PostInput
	if !bind(c, &input) {
		return
	}
	result, err := h.svc.Posts.CreatePost(c.Request.Context(), viewer(c), input.Body, input.FeelingName)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, PostCreatedResponse{
		UID:                    result.Post.UID,
		Message:                "Post created successfully",
		FeelingOutcomeResponse: newFeelingOutcome(result.Feeling),
	})
}

// GetPost godoc
// @Summary      Get a post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post UID"
// @Success      200  {object}  PostResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.svc.Posts.GetPost(c.Request.Context(), viewer(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPostResponse(*post))
}

// UpdatePost godoc
// @Summary      Edit a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string           true  "Post UID"
// @Param        input body  PostUpdateInput  true  "New body"
// @Success      200  {object}  PostResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Not the author"
// @Failure      404  {object}  ErrorResponse
// @Router       /posts/{id} [put]
func (h *Handler) UpdatePost(c *gin.Context) {
	var input PostUpdateInput
	if !bind(c, &input) {
		return
	}
	post, err := h.svc.Posts.UpdatePost(c.Request.Context(), viewer(c), c.Param("id"), input.Body)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPostResponse(*post))
}

// MarkPostRead godoc
// @Summary      Mark a post as read
// @Description  Counts towards the reader's posts_read_count once per post.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post UID"
// @Success      200  {object}  PostReadResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /posts/{id}/read [post]
func (h *Handler) MarkPostRead(c *gin.Context) {
	counted, err := h.svc.Posts.MarkRead(c.Request.Context(), viewer(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, PostReadResponse{Message: "Post marked as read", Counted: counted})
}

// GetUserPosts godoc
// @Summary      List a user's posts
// @Description  Visible to the user and their friends. Newest first.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User UID"
// @Success      200  {object}  UserPostsResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id}/posts [get]
func (h *Handler) GetUserPosts(c *gin.Context) {
	h.listUserPosts(c, c.Param("id"))
}

func (h *Handler) listUserPosts(c *gin.Context, authorUID string) {
	result, err := h.svc.Posts.PostsByUser(c.Request.Context(), viewer(c), authorUID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, UserPostsResponse{
		Posts:  newPostResponses(result.Posts),
		Author: newAccountSummary(*result.Author),
		Count:  len(result.Posts),
	})
}
