package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Port string `mapstructure:"PORT"`

	StoreBackend  string `mapstructure:"STORE_BACKEND"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	Neo4jURI      string `mapstructure:"NEO4J_URI"`
	Neo4jUsername string `mapstructure:"NEO4J_USERNAME"`
	Neo4jPassword string `mapstructure:"NEO4J_PASSWORD"`

	SessionBackend string        `mapstructure:"SESSION_BACKEND"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`

	LogLevel       string `mapstructure:"LOG_LEVEL"`
	LogDevelopment bool   `mapstructure:"LOG_DEVELOPMENT"`

	RateLimitPerMinute int `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	RateLimitBurst     int `mapstructure:"RATE_LIMIT_BURST"`

	StrictFriendRequests bool `mapstructure:"STRICT_FRIEND_REQUESTS"`
	SeedFeelings         bool `mapstructure:"SEED_FEELINGS"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
}

var AppConfig *Config

var defaults = map[string]any{
	"PORT":                   "8080",
	"STORE_BACKEND":          "memory",
	"DATABASE_URL":           "",
	"NEO4J_URI":              "neo4j://localhost:7687",
	"NEO4J_USERNAME":         "neo4j",
	"NEO4J_PASSWORD":         "",
	"SESSION_BACKEND":        "memory",
	"JWT_SECRET":             "",
	"TOKEN_TTL":              "24h",
	"LOG_LEVEL":              "info",
	"LOG_DEVELOPMENT":        false,
	"RATE_LIMIT_PER_MINUTE":  120,
	"RATE_LIMIT_BURST":       20,
	"STRICT_FRIEND_REQUESTS": false,
	"SEED_FEELINGS":          true,
	"SMTP_HOST":              "",
	"SMTP_PORT":              587,
	"SMTP_USERNAME":          "",
	"SMTP_PASSWORD":          "",
	"MAIL_FROM":              "",
}

// Load reads the configuration from a .env file in dir (if present) and
// environment variables, which take precedence.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads the configuration from the working directory into AppConfig.
func LoadConfig() error {
	cfg, err := Load(".")
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "memory":
	case "postgres", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for store backend %q", c.StoreBackend)
		}
	case "neo4j":
		if c.Neo4jURI == "" {
			return errors.New("NEO4J_URI is required for store backend \"neo4j\"")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.SessionBackend {
	case "memory":
	case "jwt":
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET is required for session backend \"jwt\"")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	return nil
}

// MailEnabled reports whether friend request emails should be sent.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.MailFrom != ""
}
