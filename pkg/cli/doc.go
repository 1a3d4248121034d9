// Package cli implements the entityauth command line client: sign-in,
// account management, and organization operations against a running server.
// State between invocations lives in a credentials file under the user's
// home directory.
package cli
