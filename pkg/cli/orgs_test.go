package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entitykit/entityauth/pkg/orgs"
)

type fakeClientAPI struct {
	bySlug  *orgs.Organization
	slugErr error
	active  *orgs.OrganizationSummary
}

func (f *fakeClientAPI) GetOrganizationBySlug(ctx context.Context, slug string) (*orgs.Organization, error) {
	if f.slugErr != nil {
		return nil, f.slugErr
	}
	return f.bySlug, nil
}

func (f *fakeClientAPI) ActiveOrganization(ctx context.Context) (*orgs.OrganizationSummary, error) {
	return f.active, nil
}

func TestResolveOrgID(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit slug wins", func(t *testing.T) {
		c := &fakeClientAPI{
			bySlug: &orgs.Organization{ID: "org-1", Slug: "acme"},
			active: &orgs.OrganizationSummary{OrgID: "org-2"},
		}
		id, err := resolveOrgID(ctx, c, "acme")
		require.NoError(t, err)
		assert.Equal(t, "org-1", id)
	})

	t.Run("falls back to active organization", func(t *testing.T) {
		c := &fakeClientAPI{active: &orgs.OrganizationSummary{OrgID: "org-2"}}
		id, err := resolveOrgID(ctx, c, "")
		require.NoError(t, err)
		assert.Equal(t, "org-2", id)
	})

	t.Run("no slug and no active organization", func(t *testing.T) {
		c := &fakeClientAPI{}
		_, err := resolveOrgID(ctx, c, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no active organization")
	})

	t.Run("unknown slug", func(t *testing.T) {
		c := &fakeClientAPI{slugErr: orgs.ErrOrgNotFound}
		_, err := resolveOrgID(ctx, c, "ghost")
		assert.ErrorIs(t, err, orgs.ErrOrgNotFound)
	})
}
