package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entitykit/entityauth/pkg/observability"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("ENTITYAUTH_TOKEN_SECRET", "test-secret")
	t.Setenv("ENTITYAUTH_POSTGRES_URL", "postgres://localhost/entityauth")
	t.Setenv("ENTITYAUTH_REDIS_URL", "localhost:6379")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, "entityauth", cfg.Auth.TokenIssuer)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "15 0 * * *", cfg.Auth.SweepSchedule)

	assert.Equal(t, "providers.yaml", cfg.SSO.ProvidersFile)
	assert.Equal(t, 20, cfg.Storage.PostgresMaxConns)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 20, cfg.RateLimit.SignInPerMinute)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.Equal(t, 90*24*time.Hour, cfg.Observability.AuditRetention)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENTITYAUTH_PORT", "9000")
	t.Setenv("ENTITYAUTH_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("ENTITYAUTH_LOG_LEVEL", "debug")
	t.Setenv("ENTITYAUTH_RATE_LIMIT_ENABLED", "false")
	t.Setenv("ENTITYAUTH_SNAPSHOT_CACHE_TTL", "90s")
	t.Setenv("ENTITYAUTH_POSTGRES_MAX_CONNS", "50")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Storage.CacheTTL["snapshot"])
	assert.Equal(t, 50, cfg.Storage.PostgresMaxConns)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(t *testing.T)
		wantErr string
	}{
		{
			name:    "missing token secret",
			mutate:  func(t *testing.T) { t.Setenv("ENTITYAUTH_TOKEN_SECRET", "") },
			wantErr: "token secret",
		},
		{
			name:    "missing postgres URL",
			mutate:  func(t *testing.T) { t.Setenv("ENTITYAUTH_POSTGRES_URL", "") },
			wantErr: "postgres URL",
		},
		{
			name: "rate limiting without redis",
			mutate: func(t *testing.T) {
				t.Setenv("ENTITYAUTH_REDIS_URL", "")
			},
			wantErr: "redis URL",
		},
		{
			name: "session TTL shorter than access TTL",
			mutate: func(t *testing.T) {
				t.Setenv("ENTITYAUTH_ACCESS_TOKEN_TTL", "1h")
				t.Setenv("ENTITYAUTH_SESSION_TTL", "30m")
			},
			wantErr: "session TTL",
		},
		{
			name: "non-positive audit retention",
			mutate: func(t *testing.T) {
				t.Setenv("ENTITYAUTH_AUDIT_RETENTION", "0s")
			},
			wantErr: "audit retention",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			tc.mutate(t)

			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestRateLimitDisabledSkipsRedisRequirement(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENTITYAUTH_REDIS_URL", "")
	t.Setenv("ENTITYAUTH_RATE_LIMIT_ENABLED", "false")

	_, err := LoadConfig()
	require.NoError(t, err)
}
