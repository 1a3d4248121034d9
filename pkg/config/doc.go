// Package config loads server configuration from ENTITYAUTH_* environment
// variables with sensible defaults. Only the token secret and the postgres
// URL are mandatory; everything else defaults to values suitable for local
// development.
package config
