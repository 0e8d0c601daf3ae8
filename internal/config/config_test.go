package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/folioport/internal/config"
	"github.com/MrJamesThe3rd/folioport/internal/importer/dialect"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ACCOUNT_ID", "acc-1")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "Folioport", cfg.App.Name)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "REWARDS", cfg.Ledger.RewardAssetID)
	assert.Equal(t, 250*time.Millisecond, cfg.Resolver.Interval)
	assert.Equal(t, 24*time.Hour, cfg.Resolver.CacheTTL)
	assert.False(t, cfg.DB.Enabled)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "postgres://postgres:@localhost:5432/folioport?sslmode=disable", cfg.ConnectionString())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ACCOUNT_ID", "acc-2")
	t.Setenv("REWARD_ASSET_ID", "bp-rewards")
	t.Setenv("PORT", "9090")
	t.Setenv("RESOLVER_TIMEOUT", "3s")
	t.Setenv("DB_ENABLED", "true")
	t.Setenv("DB_HOST", "db")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://tracker.example")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, 3*time.Second, cfg.Resolver.Timeout)
	assert.True(t, cfg.DB.Enabled)
	assert.Equal(t, "db", cfg.DB.Host)
	assert.Equal(t, []string{"http://localhost:3000", "https://tracker.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, dialect.Settings{AccountID: "acc-2", RewardAssetID: "bp-rewards"}, cfg.Settings())
}

func TestLoad_MissingAccount(t *testing.T) {
	t.Setenv("ACCOUNT_ID", "")
	require.NoError(t, os.Unsetenv("ACCOUNT_ID"))

	_, err := config.Load()
	assert.Error(t, err)
}
