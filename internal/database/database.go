// Package database implements store.Store on a relational database through
// gorm. Postgres and MySQL are supported.
package database

import (
	"errors"
	"fmt"
	"time"

	"feels/backend/internal/models"
	"feels/backend/internal/store"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is a gorm-backed social graph.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Connect opens the database for driver ("postgres" or "mysql") and runs
// migrations.
func Connect(driver, dsn string, log *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	// Configure GORM logger
	customLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  logger.Warn,            // Log level
			IgnoreRecordNotFoundError: true,                   // Ignore ErrRecordNotFound error for logger
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         customLogger,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connection established", zap.String("driver", driver))

	s := New(db)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	log.Info("database migrated successfully")
	return s, nil
}

// New wraps an already open connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema.
func (s *Store) Migrate() error {
	if err := s.db.SetupJoinTable(&models.Chat{}, "Participants", &models.ChatParticipant{}); err != nil {
		return fmt.Errorf("setup chat participants: %w", err)
	}
	err := s.db.AutoMigrate(
		&models.Account{},
		&models.Friendship{},
		&models.FriendRequest{},
		&models.FeelingType{},
		&models.Feeling{},
		&models.Post{},
		&models.PostRead{},
		&models.Message{},
		&models.Chat{},
		&models.ChatParticipant{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// mapErr translates gorm errors into store errors.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return store.ErrNotFound
	default:
		return err
	}
}
