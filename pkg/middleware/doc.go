// Package middleware contains the HTTP middleware specific to the auth
// service: bearer-token authentication and Redis-backed rate limiting for
// the sign-in endpoints.
package middleware
