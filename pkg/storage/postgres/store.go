package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/entitykit/entityauth/pkg/auth"
)

// Store errors surfaced to the session service.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrConflict        = errors.New("value already in use")
)

// Store persists users, sessions, and preference documents in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetUser retrieves a user by id
func (s *Store) GetUser(ctx context.Context, id string) (*auth.User, error) {
	query := `
		SELECT id, username, email, image_url, active_org_id, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	user := &auth.User{}
	var imageURL, activeOrgID sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Email, &imageURL, &activeOrgID,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.ImageURL = imageURL.String
	user.ActiveOrgID = activeOrgID.String
	return user, nil
}

// UpsertUser creates a user on first SSO sign-in or refreshes the profile
// fields on subsequent ones, keyed by email.
func (s *Store) UpsertUser(ctx context.Context, username, email, imageURL string) (*auth.User, error) {
	query := `
		INSERT INTO users (id, username, email, image_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET image_url = EXCLUDED.image_url, updated_at = NOW()
		RETURNING id, username, email, image_url, created_at, updated_at
	`
	user := &auth.User{}
	var image sql.NullString
	err := s.db.QueryRowContext(ctx, query, uuid.NewString(), username, email, imageURL).Scan(
		&user.ID, &user.Username, &user.Email, &image, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	user.ImageURL = image.String
	return user, nil
}

// UpdateUsername sets a user's display name.
func (s *Store) UpdateUsername(ctx context.Context, id, username string) error {
	return s.updateUserField(ctx, id, "username", username)
}

// UpdateEmail sets a user's email address.
func (s *Store) UpdateEmail(ctx context.Context, id, email string) error {
	return s.updateUserField(ctx, id, "email", email)
}

func (s *Store) updateUserField(ctx context.Context, id, column, value string) error {
	query := fmt.Sprintf(`UPDATE users SET %s = $1, updated_at = NOW() WHERE id = $2`, column)
	result, err := s.db.ExecContext(ctx, query, value, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetPreferences retrieves a user's preference document, zero-valued when
// the user has never saved one.
func (s *Store) GetPreferences(ctx context.Context, userID string) (auth.Preferences, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM user_preferences WHERE user_id = $1`, userID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Preferences{}, nil
	}
	if err != nil {
		return auth.Preferences{}, fmt.Errorf("failed to get preferences: %w", err)
	}

	var prefs auth.Preferences
	if err := json.Unmarshal(doc, &prefs); err != nil {
		return auth.Preferences{}, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	return prefs, nil
}

// SavePreferences overwrites a user's preference document wholesale.
func (s *Store) SavePreferences(ctx context.Context, userID string, prefs auth.Preferences) error {
	doc, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	query := `
		INSERT INTO user_preferences (user_id, document)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, userID, doc); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// CreateSession inserts a session record.
func (s *Store) CreateSession(ctx context.Context, session *auth.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	query := `
		INSERT INTO sessions (id, user_id, refresh_token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := s.db.QueryRowContext(ctx, query, session.ID, session.UserID,
		session.RefreshTokenHash, session.ExpiresAt).Scan(&session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by id
func (s *Store) GetSession(ctx context.Context, id string) (*auth.Session, error) {
	query := `
		SELECT id, user_id, refresh_token_hash, created_at, expires_at, revoked_at
		FROM sessions
		WHERE id = $1
	`
	session := &auth.Session{}
	var revokedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &session.UserID, &session.RefreshTokenHash,
		&session.CreatedAt, &session.ExpiresAt, &revokedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if revokedAt.Valid {
		session.RevokedAt = &revokedAt.Time
	}
	return session, nil
}

// RevokeSession marks a session revoked.
func (s *Store) RevokeSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry or revoked more
// than the retention window ago. Returns the number of rows removed.
func (s *Store) DeleteExpiredSessions(ctx context.Context, retention time.Duration) (int64, error) {
	query := `
		DELETE FROM sessions
		WHERE expires_at < NOW() OR (revoked_at IS NOT NULL AND revoked_at < NOW() - $1::interval)
	`
	result, err := s.db.ExecContext(ctx, query, fmt.Sprintf("%d seconds", int(retention.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
