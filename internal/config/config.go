package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var validEnvs = map[string]bool{
	"local": true,
	"alpha": true,
	"beta":  true,
	"prod":  true,
}

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	ServerPort         string
	AppEnv             string
	AuthDevMode        bool
	LogLevel           string
	StorageDriver      string
	RateLimitPerMinute string
	DB                 DBConfig
	Redis              RedisConfig
	Cognito            CognitoConfig
}

func (c Config) ParseLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseRateLimit returns the allowed write requests per client and minute.
// Zero disables limiting.
func (c Config) ParseRateLimit() int {
	n, err := strconv.Atoi(c.RateLimitPerMinute)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid SERVER_PORT %q: %w", c.ServerPort, err)
	}
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}
	switch c.StorageDriver {
	case StoragePostgres:
	case StorageMemory:
		if c.AppEnv == "prod" {
			return fmt.Errorf("STORAGE_DRIVER=memory must not be used in prod environment")
		}
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q: must be one of postgres, memory", c.StorageDriver)
	}
	if n, err := strconv.Atoi(c.RateLimitPerMinute); err != nil || n < 0 {
		return fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE %q: must be a non-negative integer", c.RateLimitPerMinute)
	}
	if _, err := c.Redis.ParseTTL(); err != nil {
		return fmt.Errorf("invalid CACHE_TTL %q: %w", c.Redis.TTL, err)
	}
	if c.AuthDevMode && c.AppEnv != "local" {
		return fmt.Errorf("AUTH_DEV_MODE must not be enabled in %s environment", c.AppEnv)
	}
	if !c.AuthDevMode {
		if c.Cognito.UserPoolID == "" {
			return fmt.Errorf("COGNITO_USER_POOL_ID is required when AUTH_DEV_MODE is disabled")
		}
		if c.Cognito.AppClientID == "" {
			return fmt.Errorf("COGNITO_APP_CLIENT_ID is required when AUTH_DEV_MODE is disabled")
		}
	}
	return nil
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (d DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(d.SSLMode)),
	}
	return u.String()
}

// RedisConfig configures the item cache. An empty URL disables it.
type RedisConfig struct {
	URL string
	TTL string
}

func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

func (r RedisConfig) ParseTTL() (time.Duration, error) {
	d, err := time.ParseDuration(r.TTL)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}

type CognitoConfig struct {
	Region          string
	UserPoolID      string
	AppClientID     string
	AppClientSecret string
}

// LoadDotEnv seeds the process environment from the given .env files
// (default ".env"). Variables that are already set keep their value and a
// missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func Load() Config {
	return Config{
		ServerPort:         envOrDefault("SERVER_PORT", "8080"),
		AppEnv:             envOrDefault("APP_ENV", "local"),
		AuthDevMode:        strings.EqualFold(envOrDefault("AUTH_DEV_MODE", "false"), "true"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		StorageDriver:      strings.ToLower(envOrDefault("STORAGE_DRIVER", StoragePostgres)),
		RateLimitPerMinute: envOrDefault("RATE_LIMIT_PER_MINUTE", "120"),
		DB: DBConfig{
			Host:     envOrDefault("DB_HOST", "localhost"),
			Port:     envOrDefault("DB_PORT", "5432"),
			User:     envOrDefault("DB_USER", "todo"),
			Password: envOrDefault("DB_PASSWORD", "todo"),
			Name:     envOrDefault("DB_NAME", "todo"),
			SSLMode:  envOrDefault("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
			TTL: envOrDefault("CACHE_TTL", "5m"),
		},
		Cognito: CognitoConfig{
			Region:          envOrDefault("COGNITO_REGION", "ap-northeast-1"),
			UserPoolID:      os.Getenv("COGNITO_USER_POOL_ID"),
			AppClientID:     os.Getenv("COGNITO_APP_CLIENT_ID"),
			AppClientSecret: os.Getenv("COGNITO_APP_CLIENT_SECRET"),
		},
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
