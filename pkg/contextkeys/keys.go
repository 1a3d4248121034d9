// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// ClaimsKey contains the verified access token claims
	// Set by: middleware.BearerAuth
	// Required by: all authenticated endpoints
	// Type: *auth.Claims
	ClaimsKey Key = "token_claims"

	// UserIDKey contains the authenticated user id
	// Set by: middleware.BearerAuth
	// Used by: handlers, logging
	// Type: string
	UserIDKey Key = "user_id"

	// RequestIDKey contains the request ID (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: logging
	// Type: string
	RequestIDKey Key = "request_id"
)

// WithClaims adds verified token claims to the context
func WithClaims(ctx context.Context, claims interface{}) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// WithUserID adds the authenticated user id to the context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WithRequestID adds the request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetUserID retrieves the authenticated user id from the context
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(UserIDKey).(string); ok {
		return userID
	}
	return ""
}

// GetRequestID retrieves the request ID from the context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
