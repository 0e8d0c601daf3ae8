package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/MrJamesThe3rd/folioport/internal/importer/dialect"
)

type Config struct {
	App struct {
		Name      string `envconfig:"APP_NAME" default:"Folioport"`
		Port      int    `envconfig:"PORT" default:"8080"`
		LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
		LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	}

	Ledger struct {
		AccountID     string `envconfig:"ACCOUNT_ID" required:"true"`
		RewardAssetID string `envconfig:"REWARD_ASSET_ID" default:"REWARDS"`
	}

	Resolver struct {
		BaseURL      string        `envconfig:"RESOLVER_BASE_URL" default:"https://query1.finance.yahoo.com"`
		Timeout      time.Duration `envconfig:"RESOLVER_TIMEOUT" default:"10s"`
		Interval     time.Duration `envconfig:"RESOLVER_INTERVAL" default:"250ms"`
		Burst        int           `envconfig:"RESOLVER_BURST" default:"1"`
		CacheTTL     time.Duration `envconfig:"RESOLVER_CACHE_TTL" default:"24h"`
		MappingsFile string        `envconfig:"SYMBOL_MAPPINGS_FILE"`
	}

	DB struct {
		Enabled  bool   `envconfig:"DB_ENABLED" default:"false"`
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"folioport"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// Settings is the immutable slice of the configuration the converters see.
func (c *Config) Settings() dialect.Settings {
	return dialect.Settings{
		AccountID:     c.Ledger.AccountID,
		RewardAssetID: c.Ledger.RewardAssetID,
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
