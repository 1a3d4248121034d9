package storage

import "time"

// Config holds persistence configuration for the server
type Config struct {
	// PostgreSQL config
	PostgresURL      string
	PostgresMaxConns int
	PostgresMinConns int
	PostgresTimeout  time.Duration

	// Redis config
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RedisMaxRetries int
	RedisPoolSize   int

	// Cache config
	CacheEnabled bool
	CacheTTL     map[string]time.Duration
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		PostgresMaxConns: 20,
		PostgresMinConns: 2,
		PostgresTimeout:  5 * time.Second,
		RedisDB:          -1,
		CacheEnabled:     true,
		CacheTTL: map[string]time.Duration{
			"snapshot": 30 * time.Second,
			"session":  5 * time.Minute,
		},
	}
}
