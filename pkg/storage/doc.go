// Package storage holds the persistence configuration shared by the Entity
// Auth server: PostgreSQL for users, organizations, sessions and preference
// documents, and Redis for the hot snapshot/session cache.
//
// The concrete stores live in the postgres subpackage; this package only
// defines the Config consumed by them and by pkg/config.
package storage
