package handler

import (
	"context"
	"net/http"

	"feels/backend/internal/auth"
	"feels/backend/internal/middleware"
	"feels/backend/internal/models"
	"feels/backend/internal/social"
	"feels/backend/internal/store"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterOptions configures the middleware stack. A nil RateLimiter disables
// rate limiting.
type RouterOptions struct {
	RateLimiter *middleware.RateLimiter
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.Recovery(h.log),
		middleware.RequestLogger(h.log),
		middleware.SecurityHeaders(),
	)
	if opts.RateLimiter != nil {
		router.Use(opts.RateLimiter.Middleware())
	}

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	loader := accountLoader{h.svc.Accounts}
	requireAccount := auth.RequireAccount(h.sessions, loader)
	optionalAccount := auth.OptionalAccount(h.sessions, loader)

	apiV1 := router.Group("/api/v1")
	{
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", h.Register)
			authRoutes.POST("/login", h.Login)
			authRoutes.POST("/logout", requireAccount, h.Logout)
		}

		// Feeling catalog is public; creating one needs an account.
		apiV1.GET("/feelings", h.ListFeelings)
		apiV1.POST("/feelings", requireAccount, h.CreateFeeling)
		apiV1.GET("/feeling-types", h.ListFeelingTypes)
		apiV1.GET("/accounts/:id", optionalAccount, h.GetAccount)

		protected := apiV1.Group("")
		protected.Use(requireAccount)
		{
			protected.GET("/profile", h.GetProfile)
			protected.PUT("/profile", h.UpdateProfile)

			protected.GET("/accounts", h.ListAccounts)
			protected.GET("/accounts/:id/friends", h.GetFriends)

			protected.GET("/posts", h.ListPosts)
			protected.POST("/posts", h.CreatePost)
			protected.GET("/posts/:id", h.GetPost)
			protected.PUT("/posts/:id", h.UpdatePost)
			protected.POST("/posts/:id/read", h.MarkPostRead)
			protected.GET("/users/:id/posts", h.GetUserPosts)

			protected.GET("/friend-requests", h.ListFriendRequests)
			protected.POST("/friend-requests", h.SendFriendRequest)
			protected.PUT("/friend-requests/:id", h.RespondFriendRequest)

			protected.GET("/chats", h.ListChats)
			protected.POST("/chats", h.CreateChat)
			protected.GET("/chats/:id", h.GetChat)
			protected.GET("/chats/:id/messages", h.ListMessages)
			protected.POST("/chats/:id/messages", h.SendMessage)
			protected.GET("/chats/:id/events", h.StreamChatEvents)
		}
	}

	return router
}

// accountLoader lets the auth middleware resolve accounts through the service.
type accountLoader struct {
	accounts *social.AccountService
}

// AccountByUID reports a missing account as store.ErrNotFound, the sentinel
// the auth middleware checks for.
func (l accountLoader) AccountByUID(ctx context.Context, uid string) (*models.Account, error) {
	account, err := l.accounts.GetAccount(ctx, uid)
	if social.KindOf(err) == social.KindNotFound {
		return nil, store.ErrNotFound
	}
	return account, err
}
