package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
)

func newLogoutCommand() *Command {
	return &Command{
		Name:        "logout",
		Description: "Revoke the current session and clear saved credentials",
		Flags:       flag.NewFlagSet("logout", flag.ExitOnError),
		Run:         runLogout,
	}
}

func runLogout(args []string) error {
	log := newLog()

	c, _, err := newClient()
	if err != nil {
		return err
	}
	if err := c.SignOut(context.Background()); err != nil {
		// The session may already be expired server-side; clearing local
		// state is still the right thing to do.
		log.WithError(err).Debug("server-side revoke failed")
	}
	if err := deleteCredentials(); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

func newWhoamiCommand() *Command {
	return &Command{
		Name:        "whoami",
		Description: "Show the current session",
		Flags:       flag.NewFlagSet("whoami", flag.ExitOnError),
		Run:         runWhoami,
	}
}

func runWhoami(args []string) error {
	c, _, err := newClient()
	if err != nil {
		return err
	}

	snap := c.CurrentSnapshot(context.Background())
	if snap.UserID == "" {
		return fmt.Errorf("not signed in")
	}

	fmt.Printf("User:     %s <%s>\n", snap.Username, snap.Email)
	if snap.ActiveOrganization != nil {
		fmt.Printf("Org:      %s (%s, %s)\n", snap.ActiveOrganization.Name,
			snap.ActiveOrganization.Slug, snap.ActiveOrganization.Role)
	} else {
		fmt.Println("Org:      none")
	}
	return nil
}

func newWatchCommand() *Command {
	return &Command{
		Name:        "watch",
		Description: "Stream session changes until interrupted",
		Flags:       flag.NewFlagSet("watch", flag.ExitOnError),
		Run:         runWatch,
	}
}

func runWatch(args []string) error {
	c, _, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	sub, err := c.SnapshotStream(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	for snap := range sub.Snapshots() {
		org := "none"
		if snap.ActiveOrganization != nil {
			org = snap.ActiveOrganization.Slug
		}
		fmt.Printf("%s <%s> org=%s\n", snap.Username, snap.Email, org)
	}
	return nil
}

func newSetUsernameCommand() *Command {
	return &Command{
		Name:        "set-username",
		Description: "Update the account display name",
		Flags:       flag.NewFlagSet("set-username", flag.ExitOnError),
		Run:         runSetUsername,
	}
}

func runSetUsername(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: entityauth set-username <name>")
	}

	c, _, err := newClient()
	if err != nil {
		return err
	}
	if err := c.SetUsername(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Username updated to %q.\n", args[0])
	return nil
}

func newSetEmailCommand() *Command {
	return &Command{
		Name:        "set-email",
		Description: "Update the account email address",
		Flags:       flag.NewFlagSet("set-email", flag.ExitOnError),
		Run:         runSetEmail,
	}
}

func runSetEmail(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: entityauth set-email <address>")
	}

	c, _, err := newClient()
	if err != nil {
		return err
	}
	if err := c.SetEmail(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Email updated to %q.\n", args[0])
	return nil
}

func newActivityCommand() *Command {
	cmd := &Command{
		Name:        "activity",
		Description: "Show recent account activity from the audit log",
		Flags:       flag.NewFlagSet("activity", flag.ExitOnError),
		Run:         runActivity,
	}
	cmd.Flags.Int("limit", 20, "Maximum number of events to show")
	return cmd
}

func runActivity(args []string) error {
	cmd := newActivityCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	limit, err := strconv.Atoi(cmd.Flags.Lookup("limit").Value.String())
	if err != nil {
		return fmt.Errorf("invalid limit: %w", err)
	}

	c, _, err := newClient()
	if err != nil {
		return err
	}

	events, err := c.RecentActivity(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No recent activity.")
		return nil
	}
	for _, ev := range events {
		line := fmt.Sprintf("%s  %-22s %s", ev.Timestamp.Local().Format("2006-01-02 15:04:05"),
			ev.EventType, ev.Status)
		if ev.Resource != "" {
			line += "  " + ev.Resource
		}
		fmt.Println(line)
	}
	return nil
}
