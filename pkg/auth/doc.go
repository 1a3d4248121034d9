// Package auth defines the Entity Auth provider contract and its core types.
//
// # Overview
//
// This package owns the three interfaces every Entity Auth implementation
// agrees on (SessionProvider, OrganizationDirectory, and SSOExchange) plus
// the value types that cross them: the immutable SessionSnapshot, the
// TokenSet returned by a sign-in exchange, and the AuthError taxonomy that
// every provider failure collapses into.
//
// # Session Snapshots
//
// A SessionSnapshot is a point-in-time copy of session state. Providers
// replace snapshots wholesale; consumers never mutate one in place.
//
//	snap := provider.CurrentSnapshot(ctx)
//	sub, err := provider.SnapshotStream(ctx)
//	defer sub.Close()
//	for snap := range sub.Snapshots() {
//		// react to state changes
//	}
//
// # Tokens
//
// Access tokens are HS256 JWTs carrying the session, user and tenant claims.
// Refresh tokens are opaque: ea_[base64url(32 random bytes)], stored as a
// SHA256 hash so a database leak never exposes usable credentials.
//
// # Errors
//
// Every failure surfaced by a provider is an *AuthError with a Kind from a
// small closed set (authentication, validation, authorization, transport,
// configuration) and a single human-readable message. Callers display the
// message; they never retry automatically.
//
// # Related Packages
//
//   - pkg/orgs: organization summaries and membership roles
//   - pkg/flows: the workflows driving these interfaces
//   - pkg/client: the HTTP implementation of the contract
//   - pkg/session: the server-side implementation
package auth
