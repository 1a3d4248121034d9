package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAndVerifyAccessToken(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), "entityauth-test", time.Minute)

	token, err := issuer.MintAccessToken("user-1", "sess-1", "tenant-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "tenant-1", claims.WorkspaceTenantID)
}

func TestVerifyAccessTokenFailures(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), "entityauth-test", time.Minute)

	t.Run("garbage token", func(t *testing.T) {
		_, err := issuer.VerifyAccessToken("not-a-jwt")
		require.Error(t, err)
		assert.Equal(t, KindAuthentication, KindOf(err))
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer([]byte("other-secret"), "entityauth-test", time.Minute)
		token, err := other.MintAccessToken("user-1", "sess-1", "")
		require.NoError(t, err)

		_, err = issuer.VerifyAccessToken(token)
		require.Error(t, err)
		assert.Equal(t, KindAuthentication, KindOf(err))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenIssuer([]byte("test-secret"), "someone-else", time.Minute)
		token, err := other.MintAccessToken("user-1", "sess-1", "")
		require.NoError(t, err)

		_, err = issuer.VerifyAccessToken(token)
		require.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		short := NewTokenIssuer([]byte("test-secret"), "entityauth-test", time.Nanosecond)
		token, err := short.MintAccessToken("user-1", "sess-1", "")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)

		_, err = short.VerifyAccessToken(token)
		require.Error(t, err)
		assert.Equal(t, KindAuthentication, KindOf(err))
	})
}

func TestGenerateRefreshToken(t *testing.T) {
	token, hash, err := GenerateRefreshToken()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(token, RefreshTokenPrefix))
	assert.Equal(t, HashRefreshToken(token), hash)
	require.NoError(t, ValidateRefreshTokenFormat(token))

	// Two tokens never collide
	token2, hash2, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)
	assert.NotEqual(t, hash, hash2)
}

func TestValidateRefreshTokenFormat(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"missing prefix", "abc123", true},
		{"prefix only", "ea_", true},
		{"invalid base64", "ea_!!!", true},
		{"valid", "ea_" + strings.Repeat("A", 43), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRefreshTokenFormat(tt.token)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
