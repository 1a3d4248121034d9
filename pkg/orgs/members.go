package orgs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ListMembers retrieves all members of an organization, oldest first.
func (s *PostgresService) ListMembers(ctx context.Context, orgID string) ([]*OrgMember, error) {
	query := `
		SELECT om.user_id, om.role, u.username, u.email, om.joined_at
		FROM organization_members om
		JOIN users u ON u.id = om.user_id
		WHERE om.organization_id = $1
		ORDER BY om.joined_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*OrgMember
	for rows.Next() {
		member := &OrgMember{}
		var email sql.NullString
		if err := rows.Scan(&member.UserID, &member.Role, &member.Username, &email, &member.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if email.Valid {
			member.Email = email.String
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// GetMemberRole returns the role a user holds in an organization.
func (s *PostgresService) GetMemberRole(ctx context.Context, orgID, userID string) (Role, error) {
	var role Role
	query := `SELECT role FROM organization_members WHERE organization_id = $1 AND user_id = $2`
	err := s.db.QueryRowContext(ctx, query, orgID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrMemberNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get member role: %w", err)
	}
	return role, nil
}

// AddMember adds a user to an organization with the given role.
func (s *PostgresService) AddMember(ctx context.Context, orgID, userID string, role Role) error {
	if _, ok := ValidRoles[role]; !ok {
		return fmt.Errorf("invalid role %q", role)
	}
	query := `
		INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (organization_id, user_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, orgID, userID, role); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveMember removes a member from an organization. The acting user must
// hold a role that can manage members, and the owner can never be removed.
func (s *PostgresService) RemoveMember(ctx context.Context, orgID, actorID, userID string) error {
	actorRole, err := s.GetMemberRole(ctx, orgID, actorID)
	if err != nil {
		return err
	}
	if !actorRole.CanManageMembers() {
		return ErrNotPermitted
	}

	targetRole, err := s.GetMemberRole(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if targetRole == RoleOwner {
		return ErrOwnerImmutable
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM organization_members WHERE organization_id = $1 AND user_id = $2`, orgID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMemberNotFound
	}

	// A removed member must not keep the org selected.
	_, err = s.db.ExecContext(ctx,
		`UPDATE users SET active_org_id = NULL WHERE id = $1 AND active_org_id = $2`, userID, orgID)
	if err != nil {
		return fmt.Errorf("failed to clear active organization: %w", err)
	}
	return nil
}
