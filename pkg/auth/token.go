package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// RefreshTokenPrefix identifies Entity Auth refresh tokens
	RefreshTokenPrefix = "ea_"
	// RefreshTokenLength is the total length of random bytes (32 bytes = 256 bits)
	RefreshTokenLength = 32

	// DefaultAccessTokenTTL bounds how long an access token verifies.
	DefaultAccessTokenTTL = 15 * time.Minute
)

// Claims are the JWT claims carried by an access token.
type Claims struct {
	SessionID         string `json:"sid"`
	WorkspaceTenantID string `json:"tenant,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies access tokens and generates refresh tokens.
type TokenIssuer struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
}

// NewTokenIssuer creates a token issuer signing with the given secret.
func NewTokenIssuer(secret []byte, issuer string, accessTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	return &TokenIssuer{secret: secret, issuer: issuer, accessTTL: accessTTL}
}

// MintAccessToken creates a signed HS256 access token for a session.
func (ti *TokenIssuer) MintAccessToken(userID, sessionID, tenantID string) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID:         sessionID,
		WorkspaceTenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    ti.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken parses and validates an access token, returning its
// claims. Expired, malformed, or badly signed tokens fail with an
// authentication AuthError.
func (ti *TokenIssuer) VerifyAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return ti.secret, nil
	}, jwt.WithIssuer(ti.issuer), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, WrapError(KindAuthentication, "invalid or expired access token", err)
	}
	if !token.Valid {
		return nil, NewAuthError(KindAuthentication, "invalid or expired access token")
	}
	return claims, nil
}

// GenerateRefreshToken creates a new opaque refresh token.
// Format: ea_<base64url(32 random bytes)>. The hash is what gets stored.
func GenerateRefreshToken() (token string, tokenHash string, err error) {
	randomBytes := make([]byte, RefreshTokenLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	fullToken := RefreshTokenPrefix + base64.RawURLEncoding.EncodeToString(randomBytes)
	return fullToken, HashRefreshToken(fullToken), nil
}

// HashRefreshToken computes the SHA256 hash of a refresh token for lookup.
func HashRefreshToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// ValidateRefreshTokenFormat checks that a token has the expected shape
// before any database lookup happens.
func ValidateRefreshTokenFormat(token string) error {
	if !strings.HasPrefix(token, RefreshTokenPrefix) {
		return fmt.Errorf("token must start with %q", RefreshTokenPrefix)
	}
	encodedPart := strings.TrimPrefix(token, RefreshTokenPrefix)
	if len(encodedPart) == 0 {
		return fmt.Errorf("token is too short")
	}
	if _, err := base64.RawURLEncoding.DecodeString(encodedPart); err != nil {
		return fmt.Errorf("invalid token encoding: %w", err)
	}
	return nil
}
