package flows

import (
	"context"
	"sync"

	"github.com/entitykit/entityauth/pkg/auth"
)

// PreferencesState is the renderable state of the preferences panel.
type PreferencesState struct {
	Prefs        auth.Preferences
	Loading      bool
	Saving       bool
	ErrorMessage string
}

// PreferencesFlow edits the per-user preference document. Saves overwrite
// the whole value; there is no partial merge.
type PreferencesFlow struct {
	session auth.SessionProvider

	mu    sync.Mutex
	state PreferencesState
}

// NewPreferencesFlow creates a preferences flow.
func NewPreferencesFlow(session auth.SessionProvider) *PreferencesFlow {
	return &PreferencesFlow{session: session}
}

// State returns a copy of the current flow state.
func (f *PreferencesFlow) State() PreferencesState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Load fetches the current preference document. On failure the previous
// value is retained and the error surfaced for display.
func (f *PreferencesFlow) Load(ctx context.Context) {
	f.mu.Lock()
	f.state.Loading = true
	f.mu.Unlock()

	prefs, err := f.session.Preferences(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Loading = false
	if err != nil {
		f.state.ErrorMessage = auth.DisplayMessage(err)
		return
	}
	f.state.ErrorMessage = ""
	f.state.Prefs = prefs
}

// Set replaces the edited preference value locally.
func (f *PreferencesFlow) Set(prefs auth.Preferences) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Prefs = prefs
}

// Save overwrites the provider's preference document with the edited value.
// A save already in flight drops the redundant call.
func (f *PreferencesFlow) Save(ctx context.Context) {
	f.mu.Lock()
	if f.state.Saving {
		f.mu.Unlock()
		return
	}
	f.state.Saving = true
	prefs := f.state.Prefs
	f.mu.Unlock()

	err := f.session.SavePreferences(ctx, prefs)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Saving = false
	if err != nil {
		f.state.ErrorMessage = auth.DisplayMessage(err)
		return
	}
	f.state.ErrorMessage = ""
}
