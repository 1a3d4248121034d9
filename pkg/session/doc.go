// Package session implements the server side of the Entity Auth session
// contract: snapshot assembly, token issuance and verification, preference
// documents, change notification, and expired-session cleanup.
//
// Snapshots are assembled from the user row plus the active organization and
// cached in Redis; any mutation invalidates the cache and broadcasts a fresh
// snapshot to that user's subscribers through the in-process Hub.
package session
