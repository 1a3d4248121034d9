package flows

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/entitykit/entityauth/pkg/auth"
	"github.com/entitykit/entityauth/pkg/observability"
	"github.com/entitykit/entityauth/pkg/orgs"
)

// OrgSwitchState is the renderable state of the organization switcher.
type OrgSwitchState struct {
	Organizations []orgs.OrganizationSummary
	ActiveOrgID   string
	NewOrgName    string
	Loading       bool
	Creating      bool
	ErrorMessage  string
}

// OrgSwitchFlow lets a user view their organizations, switch the active one,
// or create a new one, keeping a locally cached list consistent with the
// provider's source of truth.
type OrgSwitchFlow struct {
	session auth.SessionProvider
	dir     auth.OrganizationDirectory
	logger  *observability.Logger

	mu         sync.Mutex
	state      OrgSwitchState
	generation uint64
}

// NewOrgSwitchFlow creates an organization switch flow. Both providers are
// required; logger may be nil.
func NewOrgSwitchFlow(session auth.SessionProvider, dir auth.OrganizationDirectory, logger *observability.Logger) *OrgSwitchFlow {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &OrgSwitchFlow{session: session, dir: dir, logger: logger}
}

// State returns a copy of the current flow state.
func (f *OrgSwitchFlow) State() OrgSwitchState {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := f.state
	state.Organizations = append([]orgs.OrganizationSummary(nil), f.state.Organizations...)
	return state
}

// SetNewOrgName updates the pending organization-name input.
func (f *OrgSwitchFlow) SetNewOrgName(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.NewOrgName = name
}

// nextGeneration invalidates any in-flight reload and returns the new
// generation token.
func (f *OrgSwitchFlow) nextGeneration() uint64 {
	f.generation++
	return f.generation
}

// Load refreshes the organization list and active organization. The snapshot
// and the list are fetched concurrently; the derived active organization (an
// explicit directory query) takes precedence over the snapshot's cached
// active organization. If the derived lookup fails or returns nothing, the
// previously displayed active id is kept. Any list or snapshot failure
// aborts the refresh and surfaces a display-only error; prior state is
// retained.
func (f *OrgSwitchFlow) Load(ctx context.Context) {
	f.mu.Lock()
	gen := f.nextGeneration()
	f.state.Loading = true
	f.mu.Unlock()

	var (
		list    []orgs.OrganizationSummary
		snap    auth.SessionSnapshot
		derived *orgs.OrganizationSummary
		derErr  error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = f.dir.Organizations(gctx)
		return err
	})
	g.Go(func() error {
		snap = f.session.CurrentSnapshot(gctx)
		derived, derErr = f.dir.ActiveOrganization(gctx)
		return nil
	})
	err := g.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		// A newer action superseded this reload; its result is stale.
		return
	}
	f.state.Loading = false
	if err != nil {
		f.state.ErrorMessage = auth.DisplayMessage(err)
		return
	}

	f.state.ErrorMessage = ""
	f.state.Organizations = list
	switch {
	case derived != nil:
		f.state.ActiveOrgID = derived.OrgID
	case derErr != nil:
		// Derived lookup failed: keep whatever was displayed before.
		f.logger.WithError(derErr).Warn("active organization lookup failed")
	case snap.ActiveOrganization != nil && f.state.ActiveOrgID == "":
		f.state.ActiveOrgID = snap.ActiveOrganization.OrgID
	}
}

// SwitchTo switches the active organization. On success the local active id
// is set optimistically to the requested id and the list is reloaded; reload
// failures are silently ignored so the optimistic id stands. On failure the
// error is surfaced and the local active id is left unchanged.
func (f *OrgSwitchFlow) SwitchTo(ctx context.Context, orgID string) {
	if err := f.dir.SwitchOrganization(ctx, orgID); err != nil {
		f.mu.Lock()
		f.state.ErrorMessage = auth.DisplayMessage(err)
		f.mu.Unlock()
		return
	}

	f.mu.Lock()
	f.nextGeneration()
	f.state.ActiveOrgID = orgID
	f.state.ErrorMessage = ""
	f.mu.Unlock()

	f.reloadList(ctx)
}

// reloadList refreshes the cached organization list without touching the
// active id. Errors are swallowed; the caller keeps its optimistic state.
func (f *OrgSwitchFlow) reloadList(ctx context.Context) {
	f.mu.Lock()
	gen := f.generation
	f.mu.Unlock()

	list, err := f.dir.Organizations(ctx)
	if err != nil {
		f.logger.WithError(err).Warn("organization reload failed")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		return
	}
	f.state.Organizations = list
}

// CreateOrg creates an organization named by the pending input, then selects
// it. The slug is derived locally with orgs.Slugify so the new organization
// can be found in the refreshed list; if no slug matches, the first entry of
// the refreshed list becomes active instead. An empty refreshed list is a
// silent no-op. The creation is never rolled back when a later step fails.
func (f *OrgSwitchFlow) CreateOrg(ctx context.Context) {
	f.mu.Lock()
	name := f.state.NewOrgName
	f.state.Creating = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.state.Creating = false
		f.mu.Unlock()
	}()

	slug := orgs.Slugify(name)
	snap := f.session.CurrentSnapshot(ctx)
	if err := f.dir.CreateOrganization(ctx, name, slug, snap.UserID); err != nil {
		f.mu.Lock()
		f.state.ErrorMessage = auth.DisplayMessage(err)
		f.mu.Unlock()
		return
	}

	f.mu.Lock()
	f.state.NewOrgName = ""
	f.state.ErrorMessage = ""
	gen := f.nextGeneration()
	f.mu.Unlock()

	list, err := f.dir.Organizations(ctx)
	if err != nil {
		f.logger.WithError(err).Warn("organization reload after create failed")
		return
	}
	f.mu.Lock()
	// A newer load may have finished while the refresh was in flight; its
	// list wins over this one.
	if gen == f.generation {
		f.state.Organizations = list
	}
	f.mu.Unlock()

	target := ""
	for _, org := range list {
		if org.Slug == slug {
			target = org.OrgID
			break
		}
	}
	if target == "" {
		if len(list) == 0 {
			return
		}
		target = list[0].OrgID
	}
	f.SwitchTo(ctx, target)
}
