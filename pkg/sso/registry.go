package sso

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry holds the configured identity providers, keyed by name.
type Registry struct {
	Providers []*ProviderConfig `yaml:"providers"`

	byName map[string]*ProviderConfig
}

var defaultScopes = []string{"openid", "profile", "email"}

// presetIssuers maps well-known preset names to their issuer URLs. Okta and
// Azure AD presets contain a placeholder filled from the config's issuer
// domain.
var presetIssuers = map[string]string{
	"google":  "https://accounts.google.com",
	"okta":    "", // requires issuer_url, e.g. https://<org>.okta.com
	"azuread": "", // requires issuer_url, e.g. https://login.microsoftonline.com/<tenant>/v2.0
}

// LoadRegistry reads and validates a YAML provider registry file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider registry: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry parses and validates YAML registry content.
func ParseRegistry(data []byte) (*Registry, error) {
	reg := &Registry{}
	if err := yaml.Unmarshal(data, reg); err != nil {
		return nil, fmt.Errorf("failed to parse provider registry: %w", err)
	}

	reg.byName = make(map[string]*ProviderConfig, len(reg.Providers))
	for _, p := range reg.Providers {
		if err := normalize(p); err != nil {
			return nil, err
		}
		if _, dup := reg.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate provider %q in registry", p.Name)
		}
		reg.byName[p.Name] = p
	}
	return reg, nil
}

// Get returns the named provider config, or nil if unknown.
func (r *Registry) Get(name string) *ProviderConfig {
	return r.byName[name]
}

// Enabled returns sanitized summaries of the enabled providers, in registry
// order.
func (r *Registry) Enabled() []ProviderSummary {
	out := make([]ProviderSummary, 0, len(r.Providers))
	for _, p := range r.Providers {
		if p.Enabled {
			out = append(out, ProviderSummary{Name: p.Name, Label: p.Label, Enabled: true})
		}
	}
	return out
}

func normalize(p *ProviderConfig) error {
	if p.Name == "" {
		return fmt.Errorf("provider is missing a name")
	}
	if p.Label == "" {
		p.Label = p.Name
	}

	if p.Preset != "" {
		issuer, known := presetIssuers[strings.ToLower(p.Preset)]
		if !known {
			return fmt.Errorf("provider %q: unknown preset %q", p.Name, p.Preset)
		}
		if p.IssuerURL == "" {
			p.IssuerURL = issuer
		}
	}

	if p.IssuerURL == "" {
		return fmt.Errorf("provider %q: issuer_url is required", p.Name)
	}
	if p.ClientID == "" {
		return fmt.Errorf("provider %q: client_id is required", p.Name)
	}
	if p.ClientSecret == "" {
		return fmt.Errorf("provider %q: client_secret is required", p.Name)
	}
	if p.RedirectURL == "" {
		return fmt.Errorf("provider %q: redirect_url is required", p.Name)
	}

	if len(p.Scopes) == 0 {
		p.Scopes = append([]string(nil), defaultScopes...)
	}
	hasOpenID := false
	for _, scope := range p.Scopes {
		if scope == "openid" {
			hasOpenID = true
			break
		}
	}
	if !hasOpenID {
		return fmt.Errorf("provider %q: the openid scope is required", p.Name)
	}
	return nil
}
