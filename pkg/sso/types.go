package sso

// ProviderConfig describes one OpenID Connect provider in the registry.
type ProviderConfig struct {
	// Name is the URL-safe identifier used in routes, e.g. "google".
	Name string `yaml:"name" json:"name"`
	// Label is the human-readable name shown on sign-in buttons.
	Label string `yaml:"label" json:"label"`
	// Preset fills IssuerURL and Scopes for well-known providers. One of
	// "google", "okta", "azuread", or empty for a custom issuer.
	Preset       string   `yaml:"preset,omitempty" json:"preset,omitempty"`
	IssuerURL    string   `yaml:"issuer_url" json:"issuer_url"`
	ClientID     string   `yaml:"client_id" json:"-"`
	ClientSecret string   `yaml:"client_secret" json:"-"`
	RedirectURL  string   `yaml:"redirect_url" json:"redirect_url"`
	Scopes       []string `yaml:"scopes,omitempty" json:"scopes,omitempty"`
	Enabled      bool     `yaml:"enabled" json:"enabled"`
}

// Identity is the verified result of a provider sign-in.
type Identity struct {
	// Subject is the provider's stable identifier for the user.
	Subject  string
	Provider string
	Email    string
	Username string
	ImageURL string
}

// ProviderSummary is the sanitized view returned by the provider listing.
type ProviderSummary struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}
