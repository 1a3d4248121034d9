package auth

import (
	"context"

	"github.com/entitykit/entityauth/pkg/orgs"
)

// SnapshotSubscription is a cancellable, restartable subscription to session
// snapshots. The channel is closed when the subscription ends; Close is safe
// to call more than once. Ownership is one-to-one with the consuming
// component: whoever opens the subscription closes it.
type SnapshotSubscription interface {
	// Snapshots yields successive snapshots. The sequence is lazy and
	// infinite until Close.
	Snapshots() <-chan SessionSnapshot

	// Close cancels the subscription and releases its resources.
	Close()
}

// SessionProvider exposes current-session state, a change stream, and the
// session mutations a signed-in user can perform.
type SessionProvider interface {
	// CurrentSnapshot returns the latest snapshot. It does not fail: an
	// unauthenticated provider returns a zero snapshot.
	CurrentSnapshot(ctx context.Context) SessionSnapshot

	// SnapshotStream opens a new subscription to snapshot changes.
	SnapshotStream(ctx context.Context) (SnapshotSubscription, error)

	// ApplyTokens installs a token set, establishing the session. Fails
	// with an authentication AuthError on invalid tokens.
	ApplyTokens(ctx context.Context, tokens TokenSet) error

	// SetUsername updates the display name. Fails with a validation
	// AuthError on rejection.
	SetUsername(ctx context.Context, name string) error

	// SetEmail updates the email address. Fails with a validation
	// AuthError on rejection.
	SetEmail(ctx context.Context, email string) error

	// Preferences returns the current preference document.
	Preferences(ctx context.Context) (Preferences, error)

	// SavePreferences overwrites the preference document wholesale.
	SavePreferences(ctx context.Context, prefs Preferences) error

	// WorkspaceTenantID returns the tenant this provider is bound to.
	// Absence is a configuration error.
	WorkspaceTenantID() (string, error)

	// BaseURL returns the provider endpoint.
	BaseURL() string
}

// OrganizationDirectory exposes list/create/switch/remove operations on
// organizations and their memberships, scoped to the authenticated user.
type OrganizationDirectory interface {
	// Organizations returns the user's organizations in a stable order.
	Organizations(ctx context.Context) ([]orgs.OrganizationSummary, error)

	// ActiveOrganization returns the currently selected organization, or
	// nil when none is selected.
	ActiveOrganization(ctx context.Context) (*orgs.OrganizationSummary, error)

	// SwitchOrganization selects the acting organization. Fails if the id
	// is unknown or the switch is rejected.
	SwitchOrganization(ctx context.Context, orgID string) error

	// CreateOrganization creates an organization owned by ownerID. Fails
	// with a validation AuthError on duplicate slug.
	CreateOrganization(ctx context.Context, name, slug, ownerID string) error

	// ListMembers returns an organization's members in a stable order.
	ListMembers(ctx context.Context, orgID string) ([]orgs.OrgMember, error)

	// RemoveMember removes a member. Fails with an authorization AuthError
	// when not permitted or the member is absent.
	RemoveMember(ctx context.Context, orgID, userID string) error
}

// SSOExchange performs a single asynchronous sign-in against an identity
// provider, returning tokens bound to a tenant.
type SSOExchange interface {
	// SignIn runs the sign-in flow for the named identity provider. Fails
	// with an AuthError on user cancellation, network failure, or
	// provider rejection.
	SignIn(ctx context.Context, provider, returnTo, workspaceTenantID string) (TokenSet, error)
}
