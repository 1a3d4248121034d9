package flows

import (
	"context"
	"sync"

	"github.com/entitykit/entityauth/pkg/auth"
	"github.com/entitykit/entityauth/pkg/observability"
)

// AccountEditState is the renderable state of the account field editor.
type AccountEditState struct {
	Name         string
	Email        string
	ImageURL     string
	NameDirty    bool
	EmailDirty   bool
	SavingName   bool
	SavingEmail  bool
	ErrorMessage string
}

// AccountEditFlow maintains two independently editable fields (display name
// and email) against a continuously updating snapshot stream without
// clobbering in-progress edits.
//
// The first snapshot received while both edit buffers are empty seeds them.
// Every later snapshot updates only the baselines used for dirty-checking
// and the avatar URL; the live buffers belong to the user.
type AccountEditFlow struct {
	session auth.SessionProvider
	logger  *observability.Logger

	mu            sync.Mutex
	name, email   string // live edit buffers
	baseName      string
	baseEmail     string
	imageURL      string
	sawSnapshot   bool
	savingName    bool
	savingEmail   bool
	errorMessage  string
	sub           auth.SnapshotSubscription
	streamStopped chan struct{}
}

// NewAccountEditFlow creates an account edit flow. logger may be nil.
func NewAccountEditFlow(session auth.SessionProvider, logger *observability.Logger) *AccountEditFlow {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &AccountEditFlow{session: session, logger: logger}
}

// Start opens the snapshot subscription and begins applying snapshots. The
// subscription's lifetime is tied one-to-one to this flow: Close ends it.
func (f *AccountEditFlow) Start(ctx context.Context) error {
	sub, err := f.session.SnapshotStream(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.sub = sub
	f.streamStopped = make(chan struct{})
	f.mu.Unlock()

	go func() {
		defer close(f.streamStopped)
		for snap := range sub.Snapshots() {
			f.applySnapshot(snap)
		}
	}()
	return nil
}

// Close cancels the snapshot subscription. Safe to call more than once.
func (f *AccountEditFlow) Close() {
	f.mu.Lock()
	sub := f.sub
	stopped := f.streamStopped
	f.mu.Unlock()
	if sub == nil {
		return
	}
	sub.Close()
	<-stopped
}

// applySnapshot folds a provider snapshot into the flow. Exported state
// changes only through here and the user-facing setters.
func (f *AccountEditFlow) applySnapshot(snap auth.SessionSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.sawSnapshot && f.name == "" && f.email == "" {
		f.name = snap.Username
		f.email = snap.Email
	}
	f.sawSnapshot = true

	// Baselines and avatar always track the provider; live buffers never do.
	f.baseName = snap.Username
	f.baseEmail = snap.Email
	f.imageURL = snap.ImageURL
}

// State returns a copy of the current flow state.
func (f *AccountEditFlow) State() AccountEditState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return AccountEditState{
		Name:         f.name,
		Email:        f.email,
		ImageURL:     f.imageURL,
		NameDirty:    f.name != f.baseName && f.name != "",
		EmailDirty:   f.email != f.baseEmail && f.email != "",
		SavingName:   f.savingName,
		SavingEmail:  f.savingEmail,
		ErrorMessage: f.errorMessage,
	}
}

// SetName updates the live name buffer.
func (f *AccountEditFlow) SetName(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.name = name
}

// SetEmail updates the live email buffer.
func (f *AccountEditFlow) SetEmail(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.email = email
}

// SaveName persists the edited display name. Redundant saves while one is in
// flight are dropped. On failure the buffer reverts to its baseline and the
// error is logged; nothing is retried.
func (f *AccountEditFlow) SaveName(ctx context.Context) {
	f.mu.Lock()
	if f.savingName {
		f.mu.Unlock()
		return
	}
	name := f.name
	if name == "" || name == f.baseName {
		f.mu.Unlock()
		return
	}
	f.savingName = true
	f.mu.Unlock()

	err := f.session.SetUsername(ctx, name)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.savingName = false
	if err != nil {
		f.logger.WithError(err).Error("saving display name failed")
		f.errorMessage = auth.DisplayMessage(err)
		f.name = f.baseName
		return
	}
	f.errorMessage = ""
	f.baseName = name
}

// SaveEmail persists the edited email. Semantics mirror SaveName and the two
// saves are fully independent.
func (f *AccountEditFlow) SaveEmail(ctx context.Context) {
	f.mu.Lock()
	if f.savingEmail {
		f.mu.Unlock()
		return
	}
	email := f.email
	if email == "" || email == f.baseEmail {
		f.mu.Unlock()
		return
	}
	f.savingEmail = true
	f.mu.Unlock()

	err := f.session.SetEmail(ctx, email)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.savingEmail = false
	if err != nil {
		f.logger.WithError(err).Error("saving email failed")
		f.errorMessage = auth.DisplayMessage(err)
		f.email = f.baseEmail
		return
	}
	f.errorMessage = ""
	f.baseEmail = email
}
