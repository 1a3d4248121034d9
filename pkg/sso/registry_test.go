package sso

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRegistry = `
providers:
  - name: google
    label: Google
    preset: google
    client_id: cid
    client_secret: secret
    redirect_url: https://auth.example.com/v1/sso/google/callback
    enabled: true
  - name: okta
    label: Okta
    preset: okta
    issuer_url: https://example.okta.com
    client_id: cid2
    client_secret: secret2
    redirect_url: https://auth.example.com/v1/sso/okta/callback
    enabled: false
`

func TestParseRegistry(t *testing.T) {
	reg, err := ParseRegistry([]byte(validRegistry))
	require.NoError(t, err)

	t.Run("google preset fills the issuer", func(t *testing.T) {
		google := reg.Get("google")
		require.NotNil(t, google)
		assert.Equal(t, "https://accounts.google.com", google.IssuerURL)
		assert.Equal(t, []string{"openid", "profile", "email"}, google.Scopes)
	})

	t.Run("okta keeps its configured issuer", func(t *testing.T) {
		okta := reg.Get("okta")
		require.NotNil(t, okta)
		assert.Equal(t, "https://example.okta.com", okta.IssuerURL)
	})

	t.Run("enabled listing is sanitized and ordered", func(t *testing.T) {
		enabled := reg.Enabled()
		require.Len(t, enabled, 1)
		assert.Equal(t, "google", enabled[0].Name)
		assert.Equal(t, "Google", enabled[0].Label)
	})

	t.Run("unknown name returns nil", func(t *testing.T) {
		assert.Nil(t, reg.Get("github"))
	})
}

func TestParseRegistryRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing client id", `
providers:
  - name: google
    preset: google
    client_secret: s
    redirect_url: https://cb
    enabled: true
`},
		{"missing issuer without preset", `
providers:
  - name: custom
    client_id: c
    client_secret: s
    redirect_url: https://cb
    enabled: true
`},
		{"unknown preset", `
providers:
  - name: x
    preset: pingfed
    client_id: c
    client_secret: s
    redirect_url: https://cb
`},
		{"scopes without openid", `
providers:
  - name: custom
    issuer_url: https://idp
    client_id: c
    client_secret: s
    redirect_url: https://cb
    scopes: [profile, email]
`},
		{"duplicate names", `
providers:
  - name: google
    preset: google
    client_id: c
    client_secret: s
    redirect_url: https://cb
  - name: google
    preset: google
    client_id: c
    client_secret: s
    redirect_url: https://cb
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRegistry([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseRegistryDefaultsLabel(t *testing.T) {
	reg, err := ParseRegistry([]byte(`
providers:
  - name: google
    preset: google
    client_id: c
    client_secret: s
    redirect_url: https://cb
    enabled: true
`))
	require.NoError(t, err)
	assert.Equal(t, "google", reg.Get("google").Label)
}
