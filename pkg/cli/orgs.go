package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/entitykit/entityauth/pkg/orgs"
)

// clientAPI is the slice of the SDK that org resolution needs; tests
// substitute a fake.
type clientAPI interface {
	GetOrganizationBySlug(ctx context.Context, slug string) (*orgs.Organization, error)
	ActiveOrganization(ctx context.Context) (*orgs.OrganizationSummary, error)
}

func newOrgsCommand() *Command {
	return &Command{
		Name:        "orgs",
		Description: "List your organizations",
		Flags:       flag.NewFlagSet("orgs", flag.ExitOnError),
		Run:         runOrgs,
	}
}

func runOrgs(args []string) error {
	c, _, err := newClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	summaries, err := c.Organizations(ctx)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("You are not a member of any organization.")
		return nil
	}

	active, err := c.ActiveOrganization(ctx)
	if err != nil {
		return err
	}

	for _, org := range summaries {
		marker := " "
		if active != nil && org.OrgID == active.OrgID {
			marker = "*"
		}
		fmt.Printf("%s %-20s %-20s %-8s %d members\n", marker, org.Slug, org.Name, org.Role, org.MemberCount)
	}
	return nil
}

func newSwitchCommand() *Command {
	return &Command{
		Name:        "switch",
		Description: "Switch the active organization",
		Flags:       flag.NewFlagSet("switch", flag.ExitOnError),
		Run:         runSwitch,
	}
}

func runSwitch(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: entityauth switch <slug>")
	}

	c, _, err := newClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	// Resolve the slug to an id; switch-by-slug is what humans type.
	org, err := c.GetOrganizationBySlug(ctx, args[0])
	if err != nil {
		return err
	}
	if err := c.SwitchOrganization(ctx, org.ID); err != nil {
		return err
	}
	fmt.Printf("Switched to %s.\n", org.Name)
	return nil
}

func newCreateOrgCommand() *Command {
	cmd := &Command{
		Name:        "create-org",
		Description: "Create an organization owned by you",
		Flags:       flag.NewFlagSet("create-org", flag.ExitOnError),
		Run:         runCreateOrg,
	}

	cmd.Flags.String("name", "", "Organization name")
	cmd.Flags.String("slug", "", "URL slug (derived from the name when empty)")

	return cmd
}

func runCreateOrg(args []string) error {
	cmd := newCreateOrgCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	name := cmd.Flags.Lookup("name").Value.String()
	slug := cmd.Flags.Lookup("slug").Value.String()
	if name == "" {
		return fmt.Errorf("name is required")
	}

	c, _, err := newClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if err := c.CreateOrganization(ctx, name, slug, ""); err != nil {
		return err
	}
	fmt.Printf("Organization %q created.\n", name)
	return nil
}

func newMembersCommand() *Command {
	cmd := &Command{
		Name:        "members",
		Description: "List members of an organization",
		Flags:       flag.NewFlagSet("members", flag.ExitOnError),
		Run:         runMembers,
	}

	cmd.Flags.String("org", "", "Organization slug (defaults to the active organization)")

	return cmd
}

func runMembers(args []string) error {
	cmd := newMembersCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	slug := cmd.Flags.Lookup("org").Value.String()

	c, _, err := newClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	orgID, err := resolveOrgID(ctx, c, slug)
	if err != nil {
		return err
	}

	members, err := c.ListMembers(ctx, orgID)
	if err != nil {
		return err
	}
	for _, m := range members {
		fmt.Printf("%-20s %-30s %s\n", m.Username, m.Email, m.Role)
	}
	return nil
}

func newRemoveMemberCommand() *Command {
	cmd := &Command{
		Name:        "remove-member",
		Description: "Remove a member from an organization",
		Flags:       flag.NewFlagSet("remove-member", flag.ExitOnError),
		Run:         runRemoveMember,
	}

	cmd.Flags.String("org", "", "Organization slug (defaults to the active organization)")
	cmd.Flags.String("user", "", "User id of the member to remove")

	return cmd
}

func runRemoveMember(args []string) error {
	cmd := newRemoveMemberCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	slug := cmd.Flags.Lookup("org").Value.String()
	userID := cmd.Flags.Lookup("user").Value.String()
	if userID == "" {
		return fmt.Errorf("user is required")
	}

	c, _, err := newClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	orgID, err := resolveOrgID(ctx, c, slug)
	if err != nil {
		return err
	}
	if err := c.RemoveMember(ctx, orgID, userID); err != nil {
		return err
	}
	fmt.Println("Member removed.")
	return nil
}

// resolveOrgID maps a slug to an organization id, falling back to the active
// organization when the slug is empty.
func resolveOrgID(ctx context.Context, c clientAPI, slug string) (string, error) {
	if slug != "" {
		org, err := c.GetOrganizationBySlug(ctx, slug)
		if err != nil {
			return "", err
		}
		return org.ID, nil
	}

	active, err := c.ActiveOrganization(ctx)
	if err != nil {
		return "", err
	}
	if active == nil {
		return "", fmt.Errorf("no active organization (pass -org or run 'entityauth switch')")
	}
	return active.OrgID, nil
}
