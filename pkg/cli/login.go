package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/entitykit/entityauth/pkg/client"
)

func newLoginCommand() *Command {
	cmd := &Command{
		Name:        "login",
		Description: "Sign in through an identity provider",
		Flags:       flag.NewFlagSet("login", flag.ExitOnError),
		Run:         runLogin,
	}

	cmd.Flags.String("server", "http://localhost:8080", "entityauth server URL")
	cmd.Flags.String("provider", "", "Identity provider name (see 'entityauth login -list')")
	cmd.Flags.String("tenant", "", "Workspace tenant to bind the session to")
	cmd.Flags.Bool("list", false, "List available identity providers and exit")

	return cmd
}

func runLogin(args []string) error {
	cmd := newLoginCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	log := newLog()

	server := cmd.Flags.Lookup("server").Value.String()
	provider := cmd.Flags.Lookup("provider").Value.String()
	tenant := cmd.Flags.Lookup("tenant").Value.String()
	list := cmd.Flags.Lookup("list").Value.String() == "true"

	c, err := client.New(server, tenant, client.WithPrompt(stdinPrompt))
	if err != nil {
		return err
	}
	ctx := context.Background()

	if list {
		providers, err := c.Providers(ctx)
		if err != nil {
			return err
		}
		if len(providers) == 0 {
			fmt.Println("No identity providers are enabled on this server.")
			return nil
		}
		for _, p := range providers {
			fmt.Printf("  %-15s %s\n", p.Name, p.Label)
		}
		return nil
	}

	if provider == "" {
		return fmt.Errorf("provider is required (try 'entityauth login -list')")
	}

	log.WithField("provider", provider).Debug("starting sign-in")
	tokens, err := c.SignIn(ctx, provider, "", tenant)
	if err != nil {
		return err
	}

	if err := saveCredentials(&Credentials{Server: server, Tenant: tenant, Tokens: tokens}); err != nil {
		return err
	}

	snap := c.CurrentSnapshot(ctx)
	fmt.Printf("Signed in as %s <%s>\n", snap.Username, snap.Email)
	return nil
}

// stdinPrompt directs the user to the authorization URL and reads the token
// document the browser flow printed.
func stdinPrompt(ctx context.Context, authURL string) (string, error) {
	fmt.Printf("Open the following URL in your browser to sign in:\n\n  %s\n\n", authURL)
	fmt.Print("Paste the token document shown after sign-in: ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
