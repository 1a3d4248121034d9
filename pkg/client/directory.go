package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/entitykit/entityauth/pkg/orgs"
)

// Organizations returns the authenticated user's organizations.
func (c *Client) Organizations(ctx context.Context) ([]orgs.OrganizationSummary, error) {
	var summaries []orgs.OrganizationSummary
	if _, err := c.do(ctx, http.MethodGet, "/v1/orgs", nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// ActiveOrganization returns the currently selected organization, or nil when
// the user has none.
func (c *Client) ActiveOrganization(ctx context.Context) (*orgs.OrganizationSummary, error) {
	var active orgs.OrganizationSummary
	status, err := c.do(ctx, http.MethodGet, "/v1/orgs/active", nil, &active)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	return &active, nil
}

type switchOrgRequest struct {
	OrgID string `json:"org_id"`
}

// SwitchOrganization selects the acting organization.
func (c *Client) SwitchOrganization(ctx context.Context, orgID string) error {
	if _, err := c.do(ctx, http.MethodPut, "/v1/orgs/active",
		switchOrgRequest{OrgID: orgID}, nil); err != nil {
		return err
	}
	c.CurrentSnapshot(ctx)
	return nil
}

// CreateOrganization creates an organization owned by the authenticated user.
// The server derives the owner from the bearer token, so ownerID is advisory
// and an empty slug is derived from the name.
func (c *Client) CreateOrganization(ctx context.Context, name, slug, ownerID string) error {
	req := orgs.CreateOrgRequest{Name: name, Slug: slug, OwnerID: ownerID}
	if _, err := c.do(ctx, http.MethodPost, "/v1/orgs", req, nil); err != nil {
		return err
	}
	c.CurrentSnapshot(ctx)
	return nil
}

// GetOrganizationBySlug resolves an organization by its slug.
func (c *Client) GetOrganizationBySlug(ctx context.Context, slug string) (*orgs.Organization, error) {
	var org orgs.Organization
	path := "/v1/orgs/slug/" + url.PathEscape(slug)
	if _, err := c.do(ctx, http.MethodGet, path, nil, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// ListMembers returns an organization's members. Results are served from a
// small LRU cache; membership mutations through this client invalidate the
// cached entry.
func (c *Client) ListMembers(ctx context.Context, orgID string) ([]orgs.OrgMember, error) {
	if members, ok := c.members.Get(orgID); ok {
		return members, nil
	}

	var members []orgs.OrgMember
	path := "/v1/orgs/" + url.PathEscape(orgID) + "/members"
	if _, err := c.do(ctx, http.MethodGet, path, nil, &members); err != nil {
		return nil, err
	}
	c.members.Add(orgID, members)
	return members, nil
}

// RemoveMember removes a member from an organization.
func (c *Client) RemoveMember(ctx context.Context, orgID, userID string) error {
	path := "/v1/orgs/" + url.PathEscape(orgID) + "/members/" + url.PathEscape(userID)
	if _, err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	c.members.Remove(orgID)
	return nil
}
