package orgs

import "time"

// Role represents a user's role within an organization
type Role string

const (
	RoleOwner  Role = "owner"  // Full control, cannot be removed
	RoleAdmin  Role = "admin"  // Can manage members and settings
	RoleMember Role = "member" // Regular membership
)

// ValidRoles is used for checking whether a role value is part of the closed set.
var ValidRoles = map[Role]struct{}{
	RoleOwner:  {},
	RoleAdmin:  {},
	RoleMember: {},
}

// CanManageMembers reports whether the role may add or remove members.
func (r Role) CanManageMembers() bool {
	return r == RoleOwner || r == RoleAdmin
}

// OrgStatus represents organization status
type OrgStatus string

const (
	OrgStatusActive    OrgStatus = "active"
	OrgStatusSuspended OrgStatus = "suspended"
	OrgStatusDeleted   OrgStatus = "deleted"
)

// Organization represents an organization row as stored by the service
type Organization struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"`
	OwnerID           string    `json:"owner_id"`
	WorkspaceTenantID string    `json:"workspace_tenant_id"`
	Status            OrgStatus `json:"status"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// OrganizationSummary is the membership-scoped view of an organization
// returned to clients. Identity is the stable OrgID; Role and JoinedAt are
// relative to the requesting user.
type OrganizationSummary struct {
	OrgID             string    `json:"org_id"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"`
	MemberCount       int       `json:"member_count"`
	Role              Role      `json:"role"`
	JoinedAt          time.Time `json:"joined_at"`
	WorkspaceTenantID string    `json:"workspace_tenant_id"`
}

// OrgMember represents a member of an organization. UserID is unique within
// an organization's member list.
type OrgMember struct {
	UserID   string    `json:"user_id"`
	Role     Role      `json:"role"`
	Username string    `json:"username,omitempty"`
	Email    string    `json:"email,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

// CreateOrgRequest is the payload for creating an organization
type CreateOrgRequest struct {
	Name    string `json:"name"`
	Slug    string `json:"slug,omitempty"`
	OwnerID string `json:"owner_id"`
}
