package flows

import (
	"context"
	"sync"

	"github.com/entitykit/entityauth/pkg/auth"
	"github.com/entitykit/entityauth/pkg/orgs"
)

// fakeSubscription feeds snapshots pushed by the test.
type fakeSubscription struct {
	ch        chan auth.SessionSnapshot
	closeOnce sync.Once
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{ch: make(chan auth.SessionSnapshot, 16)}
}

func (s *fakeSubscription) Snapshots() <-chan auth.SessionSnapshot { return s.ch }

func (s *fakeSubscription) Close() {
	s.closeOnce.Do(func() { close(s.ch) })
}

func (s *fakeSubscription) push(snap auth.SessionSnapshot) {
	s.ch <- snap
}

// fakeSession is a scriptable SessionProvider.
type fakeSession struct {
	mu       sync.Mutex
	snapshot auth.SessionSnapshot
	sub      *fakeSubscription
	prefs    auth.Preferences

	setUsernameErr error
	setEmailErr    error
	savePrefsErr   error

	setUsernameCalls []string
	setEmailCalls    []string
}

func newFakeSession() *fakeSession {
	return &fakeSession{sub: newFakeSubscription()}
}

func (f *fakeSession) CurrentSnapshot(context.Context) auth.SessionSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

func (f *fakeSession) SnapshotStream(context.Context) (auth.SnapshotSubscription, error) {
	return f.sub, nil
}

func (f *fakeSession) ApplyTokens(context.Context, auth.TokenSet) error { return nil }

func (f *fakeSession) SetUsername(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setUsernameCalls = append(f.setUsernameCalls, name)
	return f.setUsernameErr
}

func (f *fakeSession) SetEmail(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setEmailCalls = append(f.setEmailCalls, email)
	return f.setEmailErr
}

func (f *fakeSession) Preferences(context.Context) (auth.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefs, nil
}

func (f *fakeSession) SavePreferences(_ context.Context, prefs auth.Preferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.savePrefsErr != nil {
		return f.savePrefsErr
	}
	f.prefs = prefs
	return nil
}

func (f *fakeSession) WorkspaceTenantID() (string, error) { return "tenant-1", nil }

func (f *fakeSession) BaseURL() string { return "https://auth.example.com" }

// fakeDirectory is a scriptable OrganizationDirectory.
type fakeDirectory struct {
	mu   sync.Mutex
	list []orgs.OrganizationSummary

	active    *orgs.OrganizationSummary
	activeErr error

	listErr        error
	listErrOnce    bool
	listHook       func() // runs once, before the next Organizations call returns
	switchErr      error
	createErr      error
	createAppends  *orgs.OrganizationSummary
	switchedTo     []string
	createRequests []string // "name|slug|owner"
}

func (f *fakeDirectory) Organizations(context.Context) ([]orgs.OrganizationSummary, error) {
	f.mu.Lock()
	hook := f.listHook
	f.listHook = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		err := f.listErr
		if f.listErrOnce {
			f.listErr = nil
		}
		return nil, err
	}
	return append([]orgs.OrganizationSummary(nil), f.list...), nil
}

func (f *fakeDirectory) ActiveOrganization(context.Context) (*orgs.OrganizationSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, f.activeErr
}

func (f *fakeDirectory) SwitchOrganization(_ context.Context, orgID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.switchErr != nil {
		return f.switchErr
	}
	f.switchedTo = append(f.switchedTo, orgID)
	return nil
}

func (f *fakeDirectory) CreateOrganization(_ context.Context, name, slug, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.createRequests = append(f.createRequests, name+"|"+slug+"|"+ownerID)
	if f.createAppends != nil {
		f.list = append(f.list, *f.createAppends)
	}
	return nil
}

func (f *fakeDirectory) ListMembers(context.Context, string) ([]orgs.OrgMember, error) {
	return nil, nil
}

func (f *fakeDirectory) RemoveMember(context.Context, string, string) error { return nil }

func summary(id, name, slug string) orgs.OrganizationSummary {
	return orgs.OrganizationSummary{OrgID: id, Name: name, Slug: slug, Role: orgs.RoleMember}
}
