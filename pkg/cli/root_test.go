package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	assert.Equal(t, "entityauth", root.Name)
	for _, name := range []string{
		"login", "logout", "whoami", "watch",
		"set-username", "set-email", "activity", "prefs",
		"orgs", "switch", "create-org", "members", "remove-member",
	} {
		cmd, ok := root.Subcommands[name]
		require.True(t, ok, "missing subcommand %q", name)
		assert.NotNil(t, cmd.Run, "subcommand %q has no run function", name)
	}
}
