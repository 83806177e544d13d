package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, "memory", cfg.SessionBackend)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.SeedFeelings)
	assert.False(t, cfg.StrictFriendRequests)
	assert.False(t, cfg.MailEnabled())
}

func TestLoadEnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	env := "PORT=9000\nSTORE_BACKEND=postgres\nDATABASE_URL=postgres://localhost/feels\nTOKEN_TTL=2h\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))
	t.Setenv("PORT", "9100")
	t.Setenv("STRICT_FRIEND_REQUESTS", "true")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port, "environment wins over .env")
	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.StrictFriendRequests)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{StoreBackend: "memory", SessionBackend: "memory"}, false},
		{"postgres without url", Config{StoreBackend: "postgres", SessionBackend: "memory"}, true},
		{"jwt without secret", Config{StoreBackend: "memory", SessionBackend: "jwt"}, true},
		{"unknown store", Config{StoreBackend: "redis", SessionBackend: "memory"}, true},
		{"neo4j", Config{StoreBackend: "neo4j", Neo4jURI: "neo4j://db:7687", SessionBackend: "jwt", JWTSecret: "s"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
