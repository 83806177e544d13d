package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feels/backend/internal/config"
	"feels/backend/internal/database"
	"feels/backend/internal/graphdb"
	"feels/backend/internal/handler"
	"feels/backend/internal/hub"
	"feels/backend/internal/logging"
	"feels/backend/internal/middleware"
	"feels/backend/internal/notify"
	"feels/backend/internal/session"
	"feels/backend/internal/social"
	"feels/backend/internal/store"
	"feels/backend/internal/store/memory"

	"go.uber.org/zap"

	// Swagger imports
	_ "feels/backend/docs" // This is important for swag to find the generated docs
)

//go:generate go run github.com/swaggo/swag/cmd/swag@v1.16.6 init -d ../.. -g cmd/server/main.go -o ../../docs --outputTypes go

const shutdownTimeout = 10 * time.Second

// @title           Feels API
// @version         1.0
// @description     Social backend: friend requests, friendship-gated posts and chats.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := config.AppConfig

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := openSessions(cfg)
	if err != nil {
		return err
	}
	defer sessions.Close()

	events := hub.NewHub(logger.Named("hub"))
	svc := social.New(st, social.Options{
		Logger:            logger,
		Notifier:          newNotifier(cfg, logger),
		Publisher:         handler.NewHubPublisher(events),
		StrictTransitions: cfg.StrictFriendRequests,
	})

	if cfg.SeedFeelings {
		n, err := svc.Feelings.SeedDefaults(ctx)
		if err != nil {
			return fmt.Errorf("seed feelings: %w", err)
		}
		if n > 0 {
			logger.Info("seeded default feelings", zap.Int("count", n))
		}
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	go limiter.Run(ctx, time.Minute, 10*time.Minute)

	router := handler.NewRouter(handler.New(svc, sessions, events, logger), handler.RouterOptions{RateLimiter: limiter})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server is running",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.StoreBackend),
			zap.String("sessions", cfg.SessionBackend),
			zap.String("swagger", "http://localhost:"+cfg.Port+"/swagger/index.html"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case "postgres", "mysql":
		return database.Connect(cfg.StoreBackend, cfg.DatabaseURL, logger)
	case "neo4j":
		return graphdb.Connect(ctx, graphdb.Config{
			URI:      cfg.Neo4jURI,
			Username: cfg.Neo4jUsername,
			Password: cfg.Neo4jPassword,
		}, logger)
	default:
		logger.Warn("using the in-memory store; data is lost on restart")
		return memory.New(), nil
	}
}

func openSessions(cfg *config.Config) (session.Store, error) {
	if cfg.SessionBackend == "jwt" {
		return session.NewJWTStore(cfg.JWTSecret, cfg.TokenTTL, time.Now)
	}
	return session.NewMemoryStore(cfg.TokenTTL, time.Minute), nil
}

func newNotifier(cfg *config.Config, logger *zap.Logger) social.Notifier {
	if !cfg.MailEnabled() {
		return notify.NewLogNotifier(logger.Named("notify"))
	}
	return notify.NewMailNotifier(notify.MailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
}
