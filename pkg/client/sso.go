package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/entitykit/entityauth/pkg/auth"
)

// SignIn runs the identity-provider sign-in flow. The client builds the
// provider's start URL, hands it to the configured prompt for the user to
// complete in a browser, and parses the token set document the callback page
// produced. The resulting tokens are installed on the client.
func (c *Client) SignIn(ctx context.Context, provider, returnTo, workspaceTenantID string) (auth.TokenSet, error) {
	if strings.TrimSpace(provider) == "" {
		return auth.TokenSet{}, auth.NewAuthError(auth.KindValidation, "provider name is required")
	}
	if c.prompt == nil {
		return auth.TokenSet{}, auth.NewAuthError(auth.KindConfiguration, "no sign-in prompt configured")
	}

	query := url.Values{}
	if returnTo != "" {
		query.Set("return_to", returnTo)
	}
	if workspaceTenantID != "" {
		query.Set("tenant", workspaceTenantID)
	}
	startURL := c.baseURL + "/v1/sso/" + url.PathEscape(provider) + "/start"
	if encoded := query.Encode(); encoded != "" {
		startURL += "?" + encoded
	}

	document, err := c.prompt(ctx, startURL)
	if err != nil {
		return auth.TokenSet{}, auth.WrapError(auth.KindAuthentication, "sign-in was not completed", err)
	}

	var tokens auth.TokenSet
	if err := json.Unmarshal([]byte(document), &tokens); err != nil {
		return auth.TokenSet{}, auth.WrapError(auth.KindAuthentication, "sign-in produced an unreadable token set", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return auth.TokenSet{}, auth.NewAuthError(auth.KindAuthentication, "sign-in produced an incomplete token set")
	}

	if err := c.ApplyTokens(ctx, tokens); err != nil {
		return auth.TokenSet{}, err
	}
	return tokens, nil
}

// Providers lists the identity providers the server has enabled.
func (c *Client) Providers(ctx context.Context) ([]ProviderSummary, error) {
	var providers []ProviderSummary
	if _, err := c.do(ctx, http.MethodGet, "/v1/sso/providers", nil, &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// ProviderSummary mirrors the server's sanitized provider listing.
type ProviderSummary struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}
