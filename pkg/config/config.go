package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/entitykit/entityauth/pkg/observability"
	"github.com/entitykit/entityauth/pkg/storage"
)

// Config holds all server configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Auth configuration
	Auth AuthConfig

	// SSO configuration
	SSO SSOConfig

	// Storage configuration
	Storage storage.Config

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// AuthConfig holds token and session settings.
type AuthConfig struct {
	// TokenSecret signs access tokens. Required.
	TokenSecret string

	// TokenIssuer is the iss claim on minted access tokens.
	TokenIssuer string

	AccessTokenTTL time.Duration
	SessionTTL     time.Duration

	// SweepSchedule is the cron expression for the expired-session sweeper.
	SweepSchedule string

	// SweepRetention keeps revoked sessions around for audit before removal.
	SweepRetention time.Duration
}

// SSOConfig holds identity provider settings.
type SSOConfig struct {
	// ProvidersFile is the path to the YAML provider registry.
	ProvidersFile string
}

// RateLimitConfig holds request throttling settings.
type RateLimitConfig struct {
	Enabled           bool
	SignInPerMinute   int
	RequestsPerMinute int
}

// ObservabilityConfig holds logging, metrics, and audit log settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
	// AuditRetention is how long audit events are kept before the nightly
	// cleanup removes them.
	AuditRetention time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Auth:          loadAuthConfig(),
		SSO:           loadSSOConfig(),
		Storage:       loadStorageConfig(),
		RateLimit:     loadRateLimitConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("ENTITYAUTH_HOST", "0.0.0.0"),
		Port:            getEnv("ENTITYAUTH_PORT", "8080"),
		ReadTimeout:     getEnvDuration("ENTITYAUTH_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("ENTITYAUTH_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("ENTITYAUTH_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("ENTITYAUTH_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		TokenSecret:    getEnv("ENTITYAUTH_TOKEN_SECRET", ""),
		TokenIssuer:    getEnv("ENTITYAUTH_TOKEN_ISSUER", "entityauth"),
		AccessTokenTTL: getEnvDuration("ENTITYAUTH_ACCESS_TOKEN_TTL", 15*time.Minute),
		SessionTTL:     getEnvDuration("ENTITYAUTH_SESSION_TTL", 30*24*time.Hour),
		SweepSchedule:  getEnv("ENTITYAUTH_SWEEP_SCHEDULE", "15 0 * * *"),
		SweepRetention: getEnvDuration("ENTITYAUTH_SWEEP_RETENTION", 7*24*time.Hour),
	}
}

func loadSSOConfig() SSOConfig {
	return SSOConfig{
		ProvidersFile: getEnv("ENTITYAUTH_PROVIDERS_FILE", "providers.yaml"),
	}
}

func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	cfg.PostgresURL = getEnv("ENTITYAUTH_POSTGRES_URL", "")
	if maxConns := getEnvInt("ENTITYAUTH_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}
	if minConns := getEnvInt("ENTITYAUTH_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.PostgresMinConns = minConns
	}
	if timeout := getEnvDuration("ENTITYAUTH_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.PostgresTimeout = timeout
	}

	cfg.RedisURL = getEnv("ENTITYAUTH_REDIS_URL", "")
	cfg.RedisPassword = getEnv("ENTITYAUTH_REDIS_PASSWORD", "")
	if redisDB := getEnvInt("ENTITYAUTH_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if retries := getEnvInt("ENTITYAUTH_REDIS_MAX_RETRIES", 0); retries > 0 {
		cfg.RedisMaxRetries = retries
	}
	if poolSize := getEnvInt("ENTITYAUTH_REDIS_POOL_SIZE", 0); poolSize > 0 {
		cfg.RedisPoolSize = poolSize
	}

	if cacheEnabled := getEnv("ENTITYAUTH_CACHE_ENABLED", ""); cacheEnabled != "" {
		cfg.CacheEnabled = strings.ToLower(cacheEnabled) == "true"
	}
	if ttl := getEnvDuration("ENTITYAUTH_SNAPSHOT_CACHE_TTL", 0); ttl > 0 {
		cfg.CacheTTL["snapshot"] = ttl
	}

	return cfg
}

func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           getEnvBool("ENTITYAUTH_RATE_LIMIT_ENABLED", true),
		SignInPerMinute:   getEnvInt("ENTITYAUTH_RATE_LIMIT_SIGNIN", 20),
		RequestsPerMinute: getEnvInt("ENTITYAUTH_RATE_LIMIT_REQUESTS", 300),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       observability.ParseLogLevel(getEnv("ENTITYAUTH_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("ENTITYAUTH_METRICS_ENABLED", true),
		AuditRetention: getEnvDuration("ENTITYAUTH_AUDIT_RETENTION", 90*24*time.Hour),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("token secret is required (set ENTITYAUTH_TOKEN_SECRET)")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("access token TTL must be positive")
	}
	if c.Auth.SessionTTL < c.Auth.AccessTokenTTL {
		return fmt.Errorf("session TTL must be at least the access token TTL")
	}
	if c.Storage.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required (set ENTITYAUTH_POSTGRES_URL)")
	}
	if c.RateLimit.Enabled && c.Storage.RedisURL == "" {
		return fmt.Errorf("rate limiting requires a redis URL (set ENTITYAUTH_REDIS_URL or disable rate limiting)")
	}
	if c.Observability.AuditRetention <= 0 {
		return fmt.Errorf("audit retention must be positive")
	}
	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
