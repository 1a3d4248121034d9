package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entitykit/entityauth/pkg/auth"
)

func useTempCredentials(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	t.Setenv("ENTITYAUTH_CREDENTIALS", path)
	return path
}

func TestCredentialsRoundTrip(t *testing.T) {
	path := useTempCredentials(t)

	creds := &Credentials{
		Server: "https://auth.example.com",
		Tenant: "tenant-1",
		Tokens: auth.TokenSet{
			AccessToken:  "access",
			RefreshToken: "refresh",
			SessionID:    "sess-1",
			UserID:       "user-1",
		},
	}
	require.NoError(t, saveCredentials(creds))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := loadCredentials()
	require.NoError(t, err)
	assert.Equal(t, creds, loaded)
}

func TestLoadCredentialsMissingFile(t *testing.T) {
	useTempCredentials(t)

	creds, err := loadCredentials()
	require.NoError(t, err)
	assert.Empty(t, creds.Server)
	assert.Empty(t, creds.Tokens.AccessToken)
}

func TestLoadCredentialsCorruptFile(t *testing.T) {
	path := useTempCredentials(t)
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := loadCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt")
}

func TestDeleteCredentials(t *testing.T) {
	path := useTempCredentials(t)
	require.NoError(t, saveCredentials(&Credentials{Server: "https://auth.example.com"}))

	require.NoError(t, deleteCredentials())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Deleting again is not an error.
	require.NoError(t, deleteCredentials())
}

func TestNewClientRequiresLogin(t *testing.T) {
	useTempCredentials(t)

	_, _, err := newClient()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}
