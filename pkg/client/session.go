package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/entitykit/entityauth/pkg/audit"
	"github.com/entitykit/entityauth/pkg/auth"
)

// CurrentSnapshot returns the latest session snapshot. It never fails: when
// the server is unreachable or the client holds no tokens, the last known
// snapshot is returned, a zero value if there is none.
func (c *Client) CurrentSnapshot(ctx context.Context) auth.SessionSnapshot {
	var snap auth.SessionSnapshot
	if _, err := c.do(ctx, http.MethodGet, "/v1/session", nil, &snap); err != nil {
		if c.logger != nil {
			c.logger.WithError(err).Debug("snapshot fetch failed, serving cached value")
		}
		c.mu.RLock()
		defer c.mu.RUnlock()
		return c.snapshot
	}

	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()
	return snap
}

// ApplyTokens installs a token set, validating it with the server first. On
// success the session snapshot is refreshed.
func (c *Client) ApplyTokens(ctx context.Context, tokens auth.TokenSet) error {
	if _, err := c.do(ctx, http.MethodPost, "/v1/session/tokens", tokens, nil); err != nil {
		return err
	}

	c.mu.Lock()
	c.tokens = tokens
	c.mu.Unlock()

	c.CurrentSnapshot(ctx)
	return nil
}

// SignOut revokes the current session on the server and clears local state.
func (c *Client) SignOut(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/v1/session/revoke", nil, nil)

	c.mu.Lock()
	c.tokens = auth.TokenSet{}
	c.snapshot = auth.SessionSnapshot{}
	c.mu.Unlock()
	c.members.Purge()

	return err
}

type updateFieldRequest struct {
	Value string `json:"value"`
}

// SetUsername updates the account display name.
func (c *Client) SetUsername(ctx context.Context, name string) error {
	if _, err := c.do(ctx, http.MethodPatch, "/v1/account/username",
		updateFieldRequest{Value: name}, nil); err != nil {
		return err
	}
	c.CurrentSnapshot(ctx)
	return nil
}

// SetEmail updates the account email address.
func (c *Client) SetEmail(ctx context.Context, email string) error {
	if _, err := c.do(ctx, http.MethodPatch, "/v1/account/email",
		updateFieldRequest{Value: email}, nil); err != nil {
		return err
	}
	c.CurrentSnapshot(ctx)
	return nil
}

// Preferences returns the user's preference document.
func (c *Client) Preferences(ctx context.Context) (auth.Preferences, error) {
	var prefs auth.Preferences
	_, err := c.do(ctx, http.MethodGet, "/v1/account/preferences", nil, &prefs)
	return prefs, err
}

// SavePreferences overwrites the preference document wholesale.
func (c *Client) SavePreferences(ctx context.Context, prefs auth.Preferences) error {
	_, err := c.do(ctx, http.MethodPut, "/v1/account/preferences", prefs, nil)
	return err
}

// RecentActivity returns the user's own audit trail, newest first. A
// non-positive limit uses the server default.
func (c *Client) RecentActivity(ctx context.Context, limit int) ([]*audit.Event, error) {
	path := "/v1/account/activity"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var events []*audit.Event
	if _, err := c.do(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}
