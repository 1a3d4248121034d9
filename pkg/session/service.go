package session

import (
	"context"
	"errors"
	"time"

	"github.com/entitykit/entityauth/pkg/auth"
	"github.com/entitykit/entityauth/pkg/observability"
	"github.com/entitykit/entityauth/pkg/orgs"
	"github.com/entitykit/entityauth/pkg/storage/postgres"
)

// DefaultSessionTTL bounds how long a refresh token stays valid.
const DefaultSessionTTL = 30 * 24 * time.Hour

// Service assembles session snapshots and performs the session mutations the
// API surface exposes. All state lives in the store; the Redis cache and the
// hub are invalidated and notified on every mutation.
type Service struct {
	store      *postgres.Store
	dir        orgs.Directory
	cache      *postgres.RedisClient
	issuer     *auth.TokenIssuer
	hub        *Hub
	logger     *observability.Logger
	sessionTTL time.Duration
}

// NewService creates the session service. cache may be nil; logger may be
// nil.
func NewService(store *postgres.Store, dir orgs.Directory, cache *postgres.RedisClient,
	issuer *auth.TokenIssuer, hub *Hub, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		store:      store,
		dir:        dir,
		cache:      cache,
		issuer:     issuer,
		hub:        hub,
		logger:     logger,
		sessionTTL: DefaultSessionTTL,
	}
}

// Hub exposes the snapshot hub for the streaming handler.
func (s *Service) Hub() *Hub {
	return s.hub
}

// SetSessionTTL overrides the default session lifetime. Non-positive values
// are ignored.
func (s *Service) SetSessionTTL(ttl time.Duration) {
	if ttl > 0 {
		s.sessionTTL = ttl
	}
}

// Snapshot assembles the current snapshot for a user, serving from cache
// when possible.
func (s *Service) Snapshot(ctx context.Context, userID string) (auth.SessionSnapshot, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetSnapshot(ctx, userID); err == nil && cached != nil {
			return *cached, nil
		}
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return auth.SessionSnapshot{}, auth.NewAuthError(auth.KindAuthentication, "unknown user")
		}
		return auth.SessionSnapshot{}, auth.WrapError(auth.KindTransport, "session lookup failed", err)
	}

	snap := auth.SessionSnapshot{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		ImageURL: user.ImageURL,
		IssuedAt: time.Now().UTC(),
	}
	active, err := s.dir.ActiveOrganization(ctx, userID)
	if err != nil {
		s.logger.WithError(err).Warn("active organization lookup failed during snapshot assembly")
	} else {
		snap.ActiveOrganization = active
	}

	if s.cache != nil {
		if err := s.cache.SetSnapshot(ctx, userID, snap); err != nil {
			s.logger.WithError(err).Warn("snapshot cache write failed")
		}
	}
	return snap, nil
}

// IssueTokens establishes a session for a user and mints the token set the
// SSO callback hands back to the client.
func (s *Service) IssueTokens(ctx context.Context, userID, tenantID string) (auth.TokenSet, error) {
	refresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return auth.TokenSet{}, auth.WrapError(auth.KindTransport, "could not create session", err)
	}

	record := &auth.Session{
		UserID:           userID,
		RefreshTokenHash: refreshHash,
		ExpiresAt:        time.Now().Add(s.sessionTTL),
	}
	if err := s.store.CreateSession(ctx, record); err != nil {
		return auth.TokenSet{}, auth.WrapError(auth.KindTransport, "could not create session", err)
	}

	access, err := s.issuer.MintAccessToken(userID, record.ID, tenantID)
	if err != nil {
		return auth.TokenSet{}, auth.WrapError(auth.KindTransport, "could not mint access token", err)
	}

	return auth.TokenSet{
		AccessToken:  access,
		RefreshToken: refresh,
		SessionID:    record.ID,
		UserID:       userID,
	}, nil
}

// ApplyTokens validates a token set against its session record. Invalid or
// mismatched tokens fail with an authentication error.
func (s *Service) ApplyTokens(ctx context.Context, tokens auth.TokenSet) error {
	claims, err := s.issuer.VerifyAccessToken(tokens.AccessToken)
	if err != nil {
		return err
	}
	if claims.Subject != tokens.UserID || claims.SessionID != tokens.SessionID {
		return auth.NewAuthError(auth.KindAuthentication, "token set does not match its session")
	}
	if err := auth.ValidateRefreshTokenFormat(tokens.RefreshToken); err != nil {
		return auth.WrapError(auth.KindAuthentication, "malformed refresh token", err)
	}

	record, err := s.store.GetSession(ctx, tokens.SessionID)
	if err != nil {
		if errors.Is(err, postgres.ErrSessionNotFound) {
			return auth.NewAuthError(auth.KindAuthentication, "session not found")
		}
		return auth.WrapError(auth.KindTransport, "session lookup failed", err)
	}
	if !record.Active(time.Now()) {
		return auth.NewAuthError(auth.KindAuthentication, "session expired or revoked")
	}
	if record.RefreshTokenHash != auth.HashRefreshToken(tokens.RefreshToken) {
		return auth.NewAuthError(auth.KindAuthentication, "refresh token mismatch")
	}

	s.Invalidate(ctx, tokens.UserID)
	return nil
}

// SetUsername updates the display name and notifies subscribers.
func (s *Service) SetUsername(ctx context.Context, userID, username string) error {
	if username == "" {
		return auth.NewAuthError(auth.KindValidation, "display name cannot be empty")
	}
	if err := s.store.UpdateUsername(ctx, userID, username); err != nil {
		return mapStoreError(err, "that display name is already in use")
	}
	s.Invalidate(ctx, userID)
	return nil
}

// SetEmail updates the email address and notifies subscribers.
func (s *Service) SetEmail(ctx context.Context, userID, email string) error {
	if email == "" {
		return auth.NewAuthError(auth.KindValidation, "email cannot be empty")
	}
	if err := s.store.UpdateEmail(ctx, userID, email); err != nil {
		return mapStoreError(err, "that email is already in use")
	}
	s.Invalidate(ctx, userID)
	return nil
}

// Preferences returns the user's preference document.
func (s *Service) Preferences(ctx context.Context, userID string) (auth.Preferences, error) {
	prefs, err := s.store.GetPreferences(ctx, userID)
	if err != nil {
		return auth.Preferences{}, auth.WrapError(auth.KindTransport, "preferences lookup failed", err)
	}
	return prefs, nil
}

// SavePreferences overwrites the preference document and notifies
// subscribers.
func (s *Service) SavePreferences(ctx context.Context, userID string, prefs auth.Preferences) error {
	if err := s.store.SavePreferences(ctx, userID, prefs); err != nil {
		return auth.WrapError(auth.KindTransport, "saving preferences failed", err)
	}
	s.Invalidate(ctx, userID)
	return nil
}

// RevokeSession revokes a session record.
func (s *Service) RevokeSession(ctx context.Context, userID, sessionID string) error {
	if err := s.store.RevokeSession(ctx, sessionID); err != nil {
		if errors.Is(err, postgres.ErrSessionNotFound) {
			return auth.NewAuthError(auth.KindAuthentication, "session not found")
		}
		return auth.WrapError(auth.KindTransport, "revoking session failed", err)
	}
	s.Invalidate(ctx, userID)
	return nil
}

// Invalidate drops the cached snapshot for a user and broadcasts a freshly
// assembled one. Used after every mutation, including organization switches
// performed by the directory handler.
func (s *Service) Invalidate(ctx context.Context, userID string) {
	if s.cache != nil {
		if err := s.cache.InvalidateSnapshot(ctx, userID); err != nil {
			s.logger.WithError(err).Warn("snapshot cache invalidation failed")
		}
	}
	if s.hub == nil {
		return
	}
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		s.logger.WithError(err).Warn("snapshot rebuild after mutation failed")
		return
	}
	s.hub.Broadcast(userID, snap)
}

func mapStoreError(err error, conflictMessage string) error {
	switch {
	case errors.Is(err, postgres.ErrConflict):
		return auth.NewAuthError(auth.KindValidation, conflictMessage)
	case errors.Is(err, postgres.ErrUserNotFound):
		return auth.NewAuthError(auth.KindAuthentication, "unknown user")
	default:
		return auth.WrapError(auth.KindTransport, "update failed", err)
	}
}
