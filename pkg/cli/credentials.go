package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/entitykit/entityauth/pkg/auth"
	"github.com/entitykit/entityauth/pkg/client"
)

// Credentials is the persisted CLI state: which server we talk to and the
// token set from the last sign-in.
type Credentials struct {
	Server string        `json:"server"`
	Tenant string        `json:"tenant,omitempty"`
	Tokens auth.TokenSet `json:"tokens"`
}

// credentialsPath resolves the credentials file location, honoring the
// ENTITYAUTH_CREDENTIALS override used by tests.
func credentialsPath() (string, error) {
	if path := os.Getenv("ENTITYAUTH_CREDENTIALS"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".entityauth", "credentials.json"), nil
}

// loadCredentials reads the persisted credentials. A missing file returns an
// empty value, not an error.
func loadCredentials() (*Credentials, error) {
	path, err := credentialsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Credentials{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("credentials file is corrupt: %w", err)
	}
	return &creds, nil
}

// saveCredentials writes the credentials file with owner-only permissions.
func saveCredentials(creds *Credentials) error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

// deleteCredentials removes the credentials file if present.
func deleteCredentials() error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

// newClient builds an SDK client from saved credentials. Commands that need
// an authenticated session call this.
func newClient(opts ...client.Option) (*client.Client, *Credentials, error) {
	creds, err := loadCredentials()
	if err != nil {
		return nil, nil, err
	}
	if creds.Server == "" {
		return nil, nil, fmt.Errorf("not logged in (run 'entityauth login' first)")
	}

	opts = append([]client.Option{client.WithTokens(creds.Tokens)}, opts...)
	c, err := client.New(creds.Server, creds.Tenant, opts...)
	if err != nil {
		return nil, nil, err
	}
	return c, creds, nil
}
