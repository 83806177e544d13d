package database

import (
	"os"
	"testing"

	"feels/backend/internal/models"
	"feels/backend/internal/store"
	"feels/backend/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// These tests need a live database and are skipped unless the DSN for the
// driver is set, e.g.
//
//	FEELS_TEST_POSTGRES_DSN="host=localhost user=feels password=feels dbname=feels_test sslmode=disable"
//	FEELS_TEST_MYSQL_DSN="feels:feels@tcp(localhost:3306)/feels_test?parseTime=true"
func TestStore(t *testing.T) {
	for driver, env := range map[string]string{
		"postgres": "FEELS_TEST_POSTGRES_DSN",
		"mysql":    "FEELS_TEST_MYSQL_DSN",
	} {
		t.Run(driver, func(t *testing.T) {
			dsn := os.Getenv(env)
			if dsn == "" {
				t.Skipf("%s not set", env)
			}
			storetest.Run(t, func(t *testing.T) store.Store {
				s, err := Connect(driver, dsn, zap.NewNop())
				require.NoError(t, err)
				resetSchema(t, s.db)
				require.NoError(t, s.Migrate())
				return s
			})
		})
	}
}

func resetSchema(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Migrator().DropTable(
		&models.ChatParticipant{},
		&models.Chat{},
		&models.Message{},
		&models.PostRead{},
		&models.Post{},
		&models.Feeling{},
		&models.FeelingType{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.Account{},
	)
	require.NoError(t, err)
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect("sqlite", "file::memory:", zap.NewNop())
	assert.Error(t, err)
}

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil))
	assert.ErrorIs(t, mapErr(gorm.ErrRecordNotFound), store.ErrNotFound)
	assert.ErrorIs(t, mapErr(gorm.ErrDuplicatedKey), store.ErrDuplicate)
	assert.ErrorIs(t, mapErr(gorm.ErrForeignKeyViolated), store.ErrNotFound)
	assert.ErrorIs(t, mapErr(store.ErrNotFound), store.ErrNotFound)
}
