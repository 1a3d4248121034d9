package auth

import (
	"time"

	"github.com/entitykit/entityauth/pkg/orgs"
)

// SessionSnapshot is an immutable point-in-time copy of session state.
// Providers replace the snapshot wholesale on every update; at most one
// organization is active per snapshot.
type SessionSnapshot struct {
	UserID             string                    `json:"user_id"`
	Username           string                    `json:"username"`
	Email              string                    `json:"email"`
	ImageURL           string                    `json:"image_url,omitempty"`
	ActiveOrganization *orgs.OrganizationSummary `json:"active_organization,omitempty"`
	IsLoading          bool                      `json:"is_loading"`
	IsSaving           bool                      `json:"is_saving"`
	IssuedAt           time.Time                 `json:"issued_at"`
}

// SignedIn reports whether the snapshot carries an authenticated user.
func (s SessionSnapshot) SignedIn() bool {
	return s.UserID != ""
}

// TokenSet is the result of a sign-in exchange: tokens bound to a session
// and the user they authenticate.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SessionID    string `json:"session_id"`
	UserID       string `json:"user_id"`
}

// Preferences is the per-user preference document. Saves overwrite the whole
// value; there is no partial merge.
type Preferences struct {
	Chat              bool `json:"chat"`
	Notes             bool `json:"notes"`
	Tasks             bool `json:"tasks"`
	Feed              bool `json:"feed"`
	GlobalViewEnabled bool `json:"global_view_enabled"`
}

// Session represents a server-side session record
type Session struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	RefreshTokenHash string     `json:"-"` // Never expose hash
	CreatedAt        time.Time  `json:"created_at"`
	ExpiresAt        time.Time  `json:"expires_at"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
}

// Active reports whether the session is neither revoked nor expired.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// User represents a user account row
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	ImageURL    string    `json:"image_url,omitempty"`
	ActiveOrgID string    `json:"active_org_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
