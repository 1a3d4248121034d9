package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command
func NewRootCommand() *Command {
	root := &Command{
		Name:        "entityauth",
		Description: "entityauth - account and organization client",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("entityauth", flag.ExitOnError),
	}

	root.Subcommands["login"] = newLoginCommand()
	root.Subcommands["logout"] = newLogoutCommand()
	root.Subcommands["whoami"] = newWhoamiCommand()
	root.Subcommands["watch"] = newWatchCommand()
	root.Subcommands["set-username"] = newSetUsernameCommand()
	root.Subcommands["set-email"] = newSetEmailCommand()
	root.Subcommands["activity"] = newActivityCommand()
	root.Subcommands["prefs"] = newPrefsCommand()
	root.Subcommands["orgs"] = newOrgsCommand()
	root.Subcommands["switch"] = newSwitchCommand()
	root.Subcommands["create-org"] = newCreateOrgCommand()
	root.Subcommands["members"] = newMembersCommand()
	root.Subcommands["remove-member"] = newRemoveMemberCommand()

	return root
}

// Execute runs the command
func (c *Command) Execute() error {
	args := os.Args[1:]
	if len(args) == 0 {
		return c.usage()
	}

	if args[0] == "-h" || args[0] == "--help" {
		return c.usage()
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	fmt.Printf("Usage: %s <command> [args]\n\n", c.Name)
	fmt.Printf("Commands:\n")
	for name, cmd := range c.Subcommands {
		fmt.Printf("  %-15s %s\n", name, cmd.Description)
	}
	return nil
}

// newLog builds the diagnostic logger shared by commands. Verbose mode is
// driven by the ENTITYAUTH_VERBOSE environment variable so it works uniformly
// across subcommand flag sets.
func newLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	if os.Getenv("ENTITYAUTH_VERBOSE") != "" {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
