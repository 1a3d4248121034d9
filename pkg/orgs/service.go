package orgs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Sentinel errors returned by the directory service. The API layer maps
// these onto the error envelope's kind field.
var (
	ErrOrgNotFound    = errors.New("organization not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrNotAMember     = errors.New("user is not a member of the organization")
	ErrNotPermitted   = errors.New("not permitted")
	ErrDuplicateSlug  = errors.New("slug already in use")
	ErrOwnerImmutable = errors.New("the owner cannot be removed")
)

// Directory is the server-side organization directory contract.
type Directory interface {
	CreateOrganization(ctx context.Context, org *Organization) error
	ListOrganizations(ctx context.Context, userID string) ([]*OrganizationSummary, error)
	ActiveOrganization(ctx context.Context, userID string) (*OrganizationSummary, error)
	SwitchOrganization(ctx context.Context, userID, orgID string) error
	GetOrganizationBySlug(ctx context.Context, slug string) (*Organization, error)
	ListMembers(ctx context.Context, orgID string) ([]*OrgMember, error)
	RemoveMember(ctx context.Context, orgID, actorID, userID string) error
}

// PostgresService implements the Directory interface using PostgreSQL
type PostgresService struct {
	db *sql.DB
}

var _ Directory = (*PostgresService)(nil)

// NewPostgresService creates a new PostgresService
func NewPostgresService(db *sql.DB) *PostgresService {
	return &PostgresService{db: db}
}

const summaryColumns = `
		o.id, o.name, o.slug, o.workspace_tenant_id, om.role, om.joined_at,
		(SELECT COUNT(*) FROM organization_members m WHERE m.organization_id = o.id) AS member_count`

// CreateOrganization creates a new organization and enrolls the owner as an
// owner-role member. The slug is derived from the name when not provided.
func (s *PostgresService) CreateOrganization(ctx context.Context, org *Organization) error {
	if org.Slug == "" {
		org.Slug = Slugify(org.Name)
	}
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	if org.WorkspaceTenantID == "" {
		org.WorkspaceTenantID = uuid.NewString()
	}
	if org.Status == "" {
		org.Status = OrgStatusActive
	}
	org.IsActive = true

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO organizations (id, name, slug, owner_id, workspace_tenant_id, status, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, query, org.ID, org.Name, org.Slug, org.OwnerID,
		org.WorkspaceTenantID, org.Status, org.IsActive).
		Scan(&org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}

	memberQuery := `
		INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.ExecContext(ctx, memberQuery, org.ID, org.OwnerID, RoleOwner); err != nil {
		return fmt.Errorf("failed to enroll owner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit organization: %w", err)
	}
	return nil
}

// ListOrganizations lists the organizations a user belongs to, oldest
// membership first.
func (s *PostgresService) ListOrganizations(ctx context.Context, userID string) ([]*OrganizationSummary, error) {
	query := `
		SELECT` + summaryColumns + `
		FROM organizations o
		JOIN organization_members om ON o.id = om.organization_id
		WHERE om.user_id = $1 AND o.is_active = true
		ORDER BY om.joined_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var summaries []*OrganizationSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// ActiveOrganization returns the user's currently selected organization, or
// nil when none is selected.
func (s *PostgresService) ActiveOrganization(ctx context.Context, userID string) (*OrganizationSummary, error) {
	query := `
		SELECT` + summaryColumns + `
		FROM users u
		JOIN organizations o ON o.id = u.active_org_id
		JOIN organization_members om ON om.organization_id = o.id AND om.user_id = u.id
		WHERE u.id = $1 AND o.is_active = true
	`
	summary, err := scanSummary(s.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// SwitchOrganization sets the user's active organization. The target must
// exist and the user must be a member of it.
func (s *PostgresService) SwitchOrganization(ctx context.Context, userID, orgID string) error {
	var role Role
	memberQuery := `
		SELECT om.role
		FROM organization_members om
		JOIN organizations o ON o.id = om.organization_id
		WHERE om.organization_id = $1 AND om.user_id = $2 AND o.is_active = true
	`
	err := s.db.QueryRowContext(ctx, memberQuery, orgID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotAMember
	}
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `UPDATE users SET active_org_id = $1 WHERE id = $2`, orgID, userID)
	if err != nil {
		return fmt.Errorf("failed to switch organization: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// GetOrganizationBySlug retrieves an organization by slug
func (s *PostgresService) GetOrganizationBySlug(ctx context.Context, slug string) (*Organization, error) {
	query := `
		SELECT id, name, slug, owner_id, workspace_tenant_id, status, is_active, created_at, updated_at
		FROM organizations
		WHERE slug = $1 AND is_active = true
	`
	org := &Organization{}
	err := s.db.QueryRowContext(ctx, query, slug).Scan(
		&org.ID, &org.Name, &org.Slug, &org.OwnerID, &org.WorkspaceTenantID,
		&org.Status, &org.IsActive, &org.CreatedAt, &org.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrgNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (*OrganizationSummary, error) {
	summary := &OrganizationSummary{}
	err := row.Scan(
		&summary.OrgID, &summary.Name, &summary.Slug, &summary.WorkspaceTenantID,
		&summary.Role, &summary.JoinedAt, &summary.MemberCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan organization: %w", err)
	}
	return summary, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
