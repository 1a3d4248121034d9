package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/entitykit/entityauth/pkg/auth"
)

func newPrefsCommand() *Command {
	cmd := &Command{
		Name:        "prefs",
		Description: "Show or update feature preferences",
		Flags:       flag.NewFlagSet("prefs", flag.ExitOnError),
		Run:         runPrefs,
	}

	cmd.Flags.Bool("chat", false, "Enable the chat feature")
	cmd.Flags.Bool("notes", false, "Enable the notes feature")
	cmd.Flags.Bool("tasks", false, "Enable the tasks feature")
	cmd.Flags.Bool("feed", false, "Enable the feed feature")
	cmd.Flags.Bool("global-view", false, "Enable the global view")
	cmd.Flags.Bool("save", false, "Save the flag values as the new preference document")

	return cmd
}

func runPrefs(args []string) error {
	cmd := newPrefsCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	c, _, err := newClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if cmd.Flags.Lookup("save").Value.String() == "true" {
		// Saves are wholesale: the document is exactly the flags given, so
		// omitted flags disable their features.
		prefs := auth.Preferences{
			Chat:              cmd.Flags.Lookup("chat").Value.String() == "true",
			Notes:             cmd.Flags.Lookup("notes").Value.String() == "true",
			Tasks:             cmd.Flags.Lookup("tasks").Value.String() == "true",
			Feed:              cmd.Flags.Lookup("feed").Value.String() == "true",
			GlobalViewEnabled: cmd.Flags.Lookup("global-view").Value.String() == "true",
		}
		if err := c.SavePreferences(ctx, prefs); err != nil {
			return err
		}
		fmt.Println("Preferences saved.")
		return nil
	}

	prefs, err := c.Preferences(ctx)
	if err != nil {
		return err
	}
	printPref := func(name string, enabled bool) {
		state := "off"
		if enabled {
			state = "on"
		}
		fmt.Printf("  %-12s %s\n", name, state)
	}
	printPref("chat", prefs.Chat)
	printPref("notes", prefs.Notes)
	printPref("tasks", prefs.Tasks)
	printPref("feed", prefs.Feed)
	printPref("global-view", prefs.GlobalViewEnabled)
	return nil
}
