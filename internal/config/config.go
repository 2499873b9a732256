// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"guestbook/internal/guestbook"
)

type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		PublicURL       string        `yaml:"public_url" split_words:"true"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`

	RabbitMQ struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
		Queue    string `yaml:"queue"`
	} `yaml:"rabbitmq"`

	Workers int `yaml:"workers"`

	Auth struct {
		JWTSecret  string        `yaml:"jwt_secret" split_words:"true"`
		SessionTTL time.Duration `yaml:"session_ttl" split_words:"true"`
		Secure     bool          `yaml:"secure_cookies"`
	} `yaml:"auth"`

	OAuth struct {
		Provider     string   `yaml:"provider"`
		ClientID     string   `yaml:"client_id" split_words:"true"`
		ClientSecret string   `yaml:"client_secret" split_words:"true"`
		AuthURL      string   `yaml:"auth_url" split_words:"true"`
		TokenURL     string   `yaml:"token_url" split_words:"true"`
		UserInfoURL  string   `yaml:"userinfo_url" split_words:"true"`
		Scopes       []string `yaml:"scopes"`
	} `yaml:"oauth"`

	Guestbook struct {
		WriteFailurePolicy string `yaml:"write_failure_policy" split_words:"true"`
		MaxMessageLength   int    `yaml:"max_message_length" split_words:"true"`
	} `yaml:"guestbook"`

	Log struct {
		Level      string `yaml:"level"`
		Production bool   `yaml:"production"`
	} `yaml:"log"`
}

// Default returns a configuration that runs locally against an in-memory store.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Server.PublicURL = "http://localhost:8080"
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Database.Driver = "memory"
	cfg.RabbitMQ.Exchange = "guestbook.events"
	cfg.RabbitMQ.Queue = "guestbook_feed_queue"
	cfg.Workers = 2
	cfg.Auth.SessionTTL = 30 * 24 * time.Hour
	cfg.OAuth.Provider = "discord"
	cfg.OAuth.AuthURL = "https://discord.com/oauth2/authorize"
	cfg.OAuth.TokenURL = "https://discord.com/api/oauth2/token"
	cfg.OAuth.UserInfoURL = "https://discord.com/api/users/@me"
	cfg.OAuth.Scopes = []string{"identify"}
	cfg.Guestbook.WriteFailurePolicy = string(guestbook.PolicyLogOnly)
	cfg.Guestbook.MaxMessageLength = 100
	cfg.Log.Level = "info"
	return cfg
}

// LoadConfig reads the YAML file at path on top of Default, then applies
// environment overrides such as DATABASE_URL or GUESTBOOK_WRITE_FAILURE_POLICY
// (a .env file is honoured when present).
// A missing file is not an error; the defaults and environment still apply.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory":
	case "postgres", "sqlite3":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if _, err := guestbook.ParseWritePolicy(c.Guestbook.WriteFailurePolicy); err != nil {
		return fmt.Errorf("guestbook.write_failure_policy: %w", err)
	}

	if c.Guestbook.MaxMessageLength <= 0 {
		return errors.New("guestbook.max_message_length must be positive")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("auth.session_ttl must be positive")
	}
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	return nil
}
