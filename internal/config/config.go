// Package config assembles the application configuration.
//
// Values are resolved in three layers: built-in defaults, an optional YAML
// file (CONFIG_FILE) and finally environment variables, which always win.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"knowledgebase/pkg/config"
)

// minJWTSecretLength is the shortest server secret accepted at startup.
const minJWTSecretLength = 32

var weakSecrets = []string{"secret", "password", "test", "admin", "default", "changeme"}

// Config is the complete application configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Redis      RedisConfig      `yaml:"redis"`
	Storage    StorageConfig    `yaml:"storage"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Pagination PaginationConfig `yaml:"pagination"`
	LogLevel   string           `yaml:"log_level"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	// LoginRateLimit is the sustained login attempts per second allowed per client IP.
	LoginRateLimit float64 `yaml:"login_rate_limit"`
	LoginBurst     int     `yaml:"login_burst"`
	// TrustProxy enables X-Forwarded-For handling for peers in TrustedProxies.
	TrustProxy     bool     `yaml:"trust_proxy"`
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type StorageConfig struct {
	Endpoint      string `yaml:"endpoint"`
	Region        string `yaml:"region"`
	Bucket        string `yaml:"bucket"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	PublicBaseURL string `yaml:"public_base_url"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
}

type SummarizerConfig struct {
	// Type is one of openrouter, openai, claude or noop.
	Type             string        `yaml:"type"`
	Model            string        `yaml:"model"`
	OpenRouterAPIKey string        `yaml:"openrouter_api_key"`
	OpenRouterURL    string        `yaml:"openrouter_url"`
	OpenAIAPIKey     string        `yaml:"openai_api_key"`
	AnthropicAPIKey  string        `yaml:"anthropic_api_key"`
	MaxTokens        int           `yaml:"max_tokens"`
	Timeout          time.Duration `yaml:"timeout"`
	RequestsPerSec   float64       `yaml:"requests_per_second"`
}

type PaginationConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			LoginRateLimit:  1,
			LoginBurst:      5,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 30 * time.Minute,
			AutoMigrate:     true,
		},
		Auth: AuthConfig{
			AccessTokenTTL:  24 * time.Hour,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Redis: RedisConfig{URL: "redis://localhost:6379/0"},
		Storage: StorageConfig{
			Region:        "us-east-1",
			Bucket:        "knowledgebase-assets",
			MaxUploadSize: 10 << 20,
		},
		Summarizer: SummarizerConfig{
			Type:           "openrouter",
			Model:          "deepseek/deepseek-r1-0528:free",
			OpenRouterURL:  "https://openrouter.ai/api/v1",
			MaxTokens:      1024,
			Timeout:        60 * time.Second,
			RequestsPerSec: 1,
		},
		Pagination: PaginationConfig{DefaultLimit: 10, MaxLimit: 100},
		LogLevel:   "info",
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		// #nosec G304 -- path comes from the operator (flag or CONFIG_FILE), not request input
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides every field that has a matching environment variable.
func (c *Config) applyEnv() {
	c.HTTP.Addr = config.GetEnvString("HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.ReadTimeout = config.GetEnvDuration("HTTP_READ_TIMEOUT", c.HTTP.ReadTimeout)
	c.HTTP.WriteTimeout = config.GetEnvDuration("HTTP_WRITE_TIMEOUT", c.HTTP.WriteTimeout)
	c.HTTP.ShutdownTimeout = config.GetEnvDuration("HTTP_SHUTDOWN_TIMEOUT", c.HTTP.ShutdownTimeout)
	c.HTTP.AllowedOrigins = config.GetEnvStringList("CORS_ALLOWED_ORIGINS", c.HTTP.AllowedOrigins)
	c.HTTP.LoginRateLimit = config.GetEnvFloat("LOGIN_RATE_LIMIT", c.HTTP.LoginRateLimit)
	c.HTTP.LoginBurst = config.GetEnvInt("LOGIN_RATE_BURST", c.HTTP.LoginBurst)
	c.HTTP.TrustProxy = config.GetEnvBool("RATE_LIMIT_TRUST_PROXY", c.HTTP.TrustProxy)
	c.HTTP.TrustedProxies = config.GetEnvStringList("RATE_LIMIT_TRUSTED_PROXIES", c.HTTP.TrustedProxies)

	c.Database.URL = config.GetEnvString("DATABASE_URL", c.Database.URL)
	c.Database.MaxOpenConns = config.GetEnvInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = config.GetEnvInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetime = config.GetEnvDuration("DB_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime)
	c.Database.ConnMaxIdleTime = config.GetEnvDuration("DB_CONN_MAX_IDLE_TIME", c.Database.ConnMaxIdleTime)
	c.Database.AutoMigrate = config.GetEnvBool("DB_AUTO_MIGRATE", c.Database.AutoMigrate)

	c.Auth.JWTSecret = config.GetEnvString("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.AccessTokenTTL = config.GetEnvDuration("ACCESS_TOKEN_TTL", c.Auth.AccessTokenTTL)
	c.Auth.RefreshTokenTTL = config.GetEnvDuration("REFRESH_TOKEN_TTL", c.Auth.RefreshTokenTTL)

	c.Redis.URL = config.GetEnvString("REDIS_URL", c.Redis.URL)

	c.Storage.Endpoint = config.GetEnvString("S3_ENDPOINT", c.Storage.Endpoint)
	c.Storage.Region = config.GetEnvString("S3_REGION", c.Storage.Region)
	c.Storage.Bucket = config.GetEnvString("S3_BUCKET", c.Storage.Bucket)
	c.Storage.AccessKey = config.GetEnvString("S3_ACCESS_KEY", c.Storage.AccessKey)
	c.Storage.SecretKey = config.GetEnvString("S3_SECRET_KEY", c.Storage.SecretKey)
	c.Storage.PublicBaseURL = config.GetEnvString("ASSET_PUBLIC_BASE_URL", c.Storage.PublicBaseURL)

	c.Summarizer.Type = strings.ToLower(config.GetEnvString("SUMMARIZER_TYPE", c.Summarizer.Type))
	c.Summarizer.Model = config.GetEnvString("SUMMARIZER_MODEL", c.Summarizer.Model)
	c.Summarizer.OpenRouterAPIKey = config.GetEnvString("OPENROUTER_API_KEY", c.Summarizer.OpenRouterAPIKey)
	c.Summarizer.OpenAIAPIKey = config.GetEnvString("OPENAI_API_KEY", c.Summarizer.OpenAIAPIKey)
	c.Summarizer.AnthropicAPIKey = config.GetEnvString("ANTHROPIC_API_KEY", c.Summarizer.AnthropicAPIKey)
	c.Summarizer.Timeout = config.GetEnvDuration("SUMMARIZER_TIMEOUT", c.Summarizer.Timeout)
	c.Summarizer.RequestsPerSec = config.GetEnvFloat("SUMMARIZER_RPS", c.Summarizer.RequestsPerSec)

	c.Pagination.DefaultLimit = config.GetEnvInt("PAGINATION_DEFAULT_LIMIT", c.Pagination.DefaultLimit)
	c.Pagination.MaxLimit = config.GetEnvInt("PAGINATION_MAX_LIMIT", c.Pagination.MaxLimit)

	c.LogLevel = config.GetEnvString("LOG_LEVEL", c.LogLevel)
}

// Validate checks configuration correctness. It fails fast on anything that
// would make the server unsafe or unable to start.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if err := ValidateJWTSecret(c.Auth.JWTSecret); err != nil {
		return err
	}
	if err := config.ValidatePositiveDuration(c.Auth.AccessTokenTTL); err != nil {
		return fmt.Errorf("ACCESS_TOKEN_TTL: %w", err)
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		return fmt.Errorf("REFRESH_TOKEN_TTL must be longer than ACCESS_TOKEN_TTL")
	}
	if c.Pagination.DefaultLimit <= 0 || c.Pagination.DefaultLimit > c.Pagination.MaxLimit {
		return fmt.Errorf("PAGINATION_DEFAULT_LIMIT must be between 1 and PAGINATION_MAX_LIMIT")
	}
	switch c.Summarizer.Type {
	case "openrouter", "openai", "claude", "noop":
	default:
		return fmt.Errorf("SUMMARIZER_TYPE must be one of openrouter, openai, claude, noop (got %q)", c.Summarizer.Type)
	}
	if c.HTTP.TrustProxy && len(c.HTTP.TrustedProxies) == 0 {
		return fmt.Errorf("RATE_LIMIT_TRUST_PROXY is enabled but RATE_LIMIT_TRUSTED_PROXIES is empty")
	}
	if c.Storage.MaxUploadSize <= 0 {
		return fmt.Errorf("storage max_upload_size must be positive")
	}
	return nil
}

// ValidateJWTSecret rejects missing, short or well-known secrets.
func ValidateJWTSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(secret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	lower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if strings.HasPrefix(lower, weak) && strings.Trim(lower[len(weak):], "0123456789") == "" {
			return fmt.Errorf("JWT_SECRET must not be a common weak value")
		}
	}
	return nil
}
