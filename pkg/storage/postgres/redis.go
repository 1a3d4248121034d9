package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/entitykit/entityauth/pkg/auth"
	"github.com/entitykit/entityauth/pkg/storage"
)

// RedisClient caches session snapshots so snapshot polls do not hit
// PostgreSQL on every request.
type RedisClient struct {
	client *redis.Client
	config storage.Config
}

// NewRedisClient creates a new Redis client
func NewRedisClient(config storage.Config) (*RedisClient, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if config.RedisPassword != "" {
		opts.Password = config.RedisPassword
	}
	if config.RedisDB >= 0 {
		opts.DB = config.RedisDB
	}
	if config.RedisMaxRetries > 0 {
		opts.MaxRetries = config.RedisMaxRetries
	}
	if config.RedisPoolSize > 0 {
		opts.PoolSize = config.RedisPoolSize
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client, config: config}, nil
}

// NewRedisClientFromConn wraps an existing client; used by tests with
// miniredis.
func NewRedisClientFromConn(client *redis.Client, config storage.Config) *RedisClient {
	return &RedisClient{client: client, config: config}
}

// Client exposes the underlying connection for components that share it,
// such as health checks and rate limiters.
func (c *RedisClient) Client() *redis.Client {
	return c.client
}

func snapshotKey(userID string) string { return fmt.Sprintf("snapshot:%s", userID) }

// GetSnapshot retrieves a cached snapshot, returning nil on a miss.
func (c *RedisClient) GetSnapshot(ctx context.Context, userID string) (*auth.SessionSnapshot, error) {
	data, err := c.client.Get(ctx, snapshotKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil // Cache miss
	} else if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var snap auth.SessionSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		// If unmarshal fails, delete corrupt data
		c.client.Del(ctx, snapshotKey(userID))
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// SetSnapshot stores a snapshot with the configured TTL.
func (c *RedisClient) SetSnapshot(ctx context.Context, userID string, snap auth.SessionSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	ttl := c.config.CacheTTL["snapshot"]
	return c.client.Set(ctx, snapshotKey(userID), data, ttl).Err()
}

// InvalidateSnapshot removes a cached snapshot after any session mutation.
func (c *RedisClient) InvalidateSnapshot(ctx context.Context, userID string) error {
	return c.client.Del(ctx, snapshotKey(userID)).Err()
}

// Ping verifies connectivity for health checks.
func (c *RedisClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *RedisClient) Close() error {
	return c.client.Close()
}
