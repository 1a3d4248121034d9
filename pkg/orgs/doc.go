// Package orgs provides multi-tenant organization management for Entity Auth.
//
// # Overview
//
// This package manages organizations, membership, and the per-user active
// organization that acts as the tenant context for every other call. It owns
// the slug derivation rules that clients and the server must agree on.
//
// # Usage Example
//
// Create organization:
//
//	org := &orgs.Organization{
//		Name:    "Acme Corp",
//		OwnerID: userID,
//	}
//	service.CreateOrganization(ctx, org)
//	// org.Slug == "acme-corp"
//
// Switch the active organization for a user:
//
//	err := service.SwitchOrganization(ctx, userID, orgID)
//
// # Slugs
//
// Slugify derives a URL-safe identifier from a display name. The derivation
// is part of the wire contract: clients predict the slug of an organization
// they just created in order to select it after a refresh, so the rules must
// not drift between client and server.
//
// # Related Packages
//
//   - pkg/auth: session snapshots and the directory contract
//   - pkg/session: snapshot assembly and change notification
package orgs
