package flows

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entitykit/entityauth/pkg/auth"
	"github.com/entitykit/entityauth/pkg/orgs"
)

func TestOrgSwitchLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("derived active takes precedence over snapshot", func(t *testing.T) {
		session := newFakeSession()
		cached := summary("org-1", "Acme", "acme")
		session.snapshot = auth.SessionSnapshot{UserID: "user-1", ActiveOrganization: &cached}

		derived := summary("org-2", "Beta", "beta")
		dir := &fakeDirectory{
			list:   []orgs.OrganizationSummary{cached, derived},
			active: &derived,
		}

		flow := NewOrgSwitchFlow(session, dir, nil)
		flow.Load(ctx)

		state := flow.State()
		assert.Equal(t, "org-2", state.ActiveOrgID)
		assert.Len(t, state.Organizations, 2)
		assert.Empty(t, state.ErrorMessage)
		assert.False(t, state.Loading)
	})

	t.Run("derived lookup failure keeps previous active id", func(t *testing.T) {
		session := newFakeSession()
		dir := &fakeDirectory{
			list:   []orgs.OrganizationSummary{summary("org-1", "Acme", "acme")},
			active: &orgs.OrganizationSummary{OrgID: "org-1"},
		}

		flow := NewOrgSwitchFlow(session, dir, nil)
		flow.Load(ctx)
		require.Equal(t, "org-1", flow.State().ActiveOrgID)

		dir.mu.Lock()
		dir.active = nil
		dir.activeErr = auth.NewAuthError(auth.KindTransport, "directory unreachable")
		dir.mu.Unlock()

		flow.Load(ctx)
		state := flow.State()
		assert.Equal(t, "org-1", state.ActiveOrgID, "prior active id must survive a failed derived lookup")
		assert.Empty(t, state.ErrorMessage)
	})

	t.Run("derived empty falls back to snapshot cached active", func(t *testing.T) {
		session := newFakeSession()
		cached := summary("org-3", "Gamma", "gamma")
		session.snapshot = auth.SessionSnapshot{UserID: "user-1", ActiveOrganization: &cached}
		dir := &fakeDirectory{list: []orgs.OrganizationSummary{cached}}

		flow := NewOrgSwitchFlow(session, dir, nil)
		flow.Load(ctx)
		assert.Equal(t, "org-3", flow.State().ActiveOrgID)
	})

	t.Run("list failure aborts refresh and retains prior state", func(t *testing.T) {
		session := newFakeSession()
		dir := &fakeDirectory{
			list:   []orgs.OrganizationSummary{summary("org-1", "Acme", "acme")},
			active: &orgs.OrganizationSummary{OrgID: "org-1"},
		}

		flow := NewOrgSwitchFlow(session, dir, nil)
		flow.Load(ctx)
		require.Len(t, flow.State().Organizations, 1)

		dir.mu.Lock()
		dir.listErr = auth.NewAuthError(auth.KindTransport, "network down")
		dir.mu.Unlock()

		flow.Load(ctx)
		state := flow.State()
		assert.Equal(t, "network down", state.ErrorMessage)
		assert.Len(t, state.Organizations, 1, "no rollback to empty")
		assert.Equal(t, "org-1", state.ActiveOrgID)
	})
}

func TestOrgSwitchSwitchTo(t *testing.T) {
	ctx := context.Background()

	t.Run("optimistic id persists through reload failure", func(t *testing.T) {
		session := newFakeSession()
		dir := &fakeDirectory{
			list:        []orgs.OrganizationSummary{summary("org-1", "Acme", "acme"), summary("org-2", "Beta", "beta")},
			listErr:     auth.NewAuthError(auth.KindTransport, "reload failed"),
			listErrOnce: false,
		}

		flow := NewOrgSwitchFlow(session, dir, nil)
		flow.SwitchTo(ctx, "org-2")

		state := flow.State()
		assert.Equal(t, "org-2", state.ActiveOrgID, "optimistic update stands")
		assert.Empty(t, state.ErrorMessage, "reload failures are silent")
		assert.Equal(t, []string{"org-2"}, dir.switchedTo)
	})

	t.Run("switch failure leaves active id unchanged", func(t *testing.T) {
		session := newFakeSession()
		dir := &fakeDirectory{
			list:   []orgs.OrganizationSummary{summary("org-1", "Acme", "acme")},
			active: &orgs.OrganizationSummary{OrgID: "org-1"},
		}
		flow := NewOrgSwitchFlow(session, dir, nil)
		flow.Load(ctx)

		dir.mu.Lock()
		dir.switchErr = auth.NewAuthError(auth.KindAuthorization, "switch rejected")
		dir.mu.Unlock()

		flow.SwitchTo(ctx, "org-9")
		state := flow.State()
		assert.Equal(t, "org-1", state.ActiveOrgID)
		assert.Equal(t, "switch rejected", state.ErrorMessage)
	})

	t.Run("successful reload refreshes the list", func(t *testing.T) {
		session := newFakeSession()
		dir := &fakeDirectory{
			list: []orgs.OrganizationSummary{summary("org-1", "Acme", "acme"), summary("org-2", "Beta", "beta")},
		}
		flow := NewOrgSwitchFlow(session, dir, nil)
		flow.SwitchTo(ctx, "org-1")

		state := flow.State()
		assert.Equal(t, "org-1", state.ActiveOrgID)
		assert.Len(t, state.Organizations, 2)
	})
}

func TestOrgSwitchCreateOrg(t *testing.T) {
	ctx := context.Background()

	t.Run("switches to organization matching derived slug", func(t *testing.T) {
		session := newFakeSession()
		session.snapshot = auth.SessionSnapshot{UserID: "user-1"}
		created := summary("org-new", "New Team", "new-team")
		dir := &fakeDirectory{
			list:          []orgs.OrganizationSummary{summary("org-1", "Acme", "acme")},
			createAppends: &created,
		}

		flow := NewOrgSwitchFlow(session, dir, nil)
		flow.SetNewOrgName("New Team")
		flow.CreateOrg(ctx)

		state := flow.State()
		assert.Equal(t, "org-new", state.ActiveOrgID)
		assert.Empty(t, state.NewOrgName, "input is cleared")
		require.Len(t, dir.createRequests, 1)
		assert.Equal(t, "New Team|new-team|user-1", dir.createRequests[0])
	})

	t.Run("no slug match falls back to first entry", func(t *testing.T) {
		session := newFakeSession()
		session.snapshot = auth.SessionSnapshot{UserID: "user-1"}
		// provider rewrote the slug server-side; no local match
		created := summary("org-new", "New Team", "new-team-7f3a")
		dir := &fakeDirectory{
			list:          []orgs.OrganizationSummary{summary("org-1", "Acme", "acme")},
			createAppends: &created,
		}

		flow := NewOrgSwitchFlow(session, dir, nil)
		flow.SetNewOrgName("New Team")
		flow.CreateOrg(ctx)

		assert.Equal(t, "org-1", flow.State().ActiveOrgID)
	})

	t.Run("stale refresh never clobbers a newer list", func(t *testing.T) {
		session := newFakeSession()
		session.snapshot = auth.SessionSnapshot{UserID: "user-1"}
		dir := &fakeDirectory{}
		flow := NewOrgSwitchFlow(session, dir, nil)

		newer := []orgs.OrganizationSummary{summary("org-9", "Niner", "niner")}
		dir.listHook = func() {
			// A fresher load completes while the post-create refresh is
			// still in flight.
			flow.mu.Lock()
			flow.nextGeneration()
			flow.state.Organizations = newer
			flow.mu.Unlock()
		}

		flow.SetNewOrgName("Latecomer")
		flow.CreateOrg(ctx)

		assert.Equal(t, newer, flow.State().Organizations)
	})

	t.Run("empty refreshed list is a silent no-op", func(t *testing.T) {
		session := newFakeSession()
		dir := &fakeDirectory{}

		flow := NewOrgSwitchFlow(session, dir, nil)
		flow.SetNewOrgName("Ghost Org")
		flow.CreateOrg(ctx)

		state := flow.State()
		assert.Empty(t, state.ActiveOrgID)
		assert.Empty(t, state.ErrorMessage)
		assert.Empty(t, dir.switchedTo)
	})

	t.Run("create failure surfaces error and keeps input", func(t *testing.T) {
		session := newFakeSession()
		dir := &fakeDirectory{createErr: auth.NewAuthError(auth.KindValidation, "duplicate slug")}

		flow := NewOrgSwitchFlow(session, dir, nil)
		flow.SetNewOrgName("Acme")
		flow.CreateOrg(ctx)

		state := flow.State()
		assert.Equal(t, "duplicate slug", state.ErrorMessage)
		assert.Equal(t, "Acme", state.NewOrgName)
		assert.False(t, state.Creating)
	})

	t.Run("switch failure after create does not roll back creation", func(t *testing.T) {
		session := newFakeSession()
		created := summary("org-new", "New Team", "new-team")
		dir := &fakeDirectory{createAppends: &created, switchErr: auth.NewAuthError(auth.KindTransport, "switch failed")}

		flow := NewOrgSwitchFlow(session, dir, nil)
		flow.SetNewOrgName("New Team")
		flow.CreateOrg(ctx)

		state := flow.State()
		require.Len(t, dir.createRequests, 1)
		assert.Equal(t, "switch failed", state.ErrorMessage)
		assert.Empty(t, state.NewOrgName, "creation already succeeded; input stays cleared")
	})
}
