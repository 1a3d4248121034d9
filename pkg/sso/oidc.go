package sso

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/entitykit/entityauth/pkg/auth"
)

// OIDCProvider runs the authorization-code flow against one issuer.
type OIDCProvider struct {
	config       *ProviderConfig
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
}

// NewOIDCProvider discovers the issuer's endpoints and builds a provider.
func NewOIDCProvider(ctx context.Context, config *ProviderConfig) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, config.IssuerURL)
	if err != nil {
		return nil, auth.WrapError(auth.KindConfiguration,
			fmt.Sprintf("failed to discover issuer for provider %q", config.Name), err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: config.ClientID})
	oauth2Config := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  config.RedirectURL,
		Scopes:       config.Scopes,
	}

	return &OIDCProvider{
		config:       config,
		verifier:     verifier,
		oauth2Config: oauth2Config,
	}, nil
}

// Name returns the registry name of the provider.
func (p *OIDCProvider) Name() string {
	return p.config.Name
}

// AuthCodeURL builds the provider's authorization URL for the given state.
func (p *OIDCProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange redeems an authorization code, verifies the ID token, and maps
// its claims onto an Identity.
func (p *OIDCProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	if code == "" {
		return nil, auth.NewAuthError(auth.KindAuthentication, "missing authorization code")
	}

	oauth2Token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, auth.WrapError(auth.KindAuthentication, "code exchange failed", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, auth.NewAuthError(auth.KindAuthentication, "provider response is missing an id_token")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, auth.WrapError(auth.KindAuthentication, "ID token verification failed", err)
	}

	var claims struct {
		Email             string `json:"email"`
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
		Picture           string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, auth.WrapError(auth.KindAuthentication, "failed to parse ID token claims", err)
	}

	identity := &Identity{
		Subject:  idToken.Subject,
		Provider: p.config.Name,
		Email:    claims.Email,
		Username: claims.PreferredUsername,
		ImageURL: claims.Picture,
	}
	if identity.Username == "" {
		identity.Username = claims.Name
	}
	if identity.Username == "" {
		identity.Username = claims.Email
	}

	if identity.Subject == "" {
		return nil, auth.NewAuthError(auth.KindAuthentication, "ID token is missing a subject")
	}
	if identity.Email == "" {
		return nil, auth.NewAuthError(auth.KindAuthentication, "ID token is missing an email claim")
	}
	return identity, nil
}
