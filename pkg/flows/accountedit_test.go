package flows

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entitykit/entityauth/pkg/auth"
)

func snap(name, email, image string) auth.SessionSnapshot {
	return auth.SessionSnapshot{UserID: "user-1", Username: name, Email: email, ImageURL: image}
}

func TestAccountEditSeeding(t *testing.T) {
	t.Run("first snapshot seeds empty buffers", func(t *testing.T) {
		flow := NewAccountEditFlow(newFakeSession(), nil)
		flow.applySnapshot(snap("alice", "alice@example.com", "https://img/1"))

		state := flow.State()
		assert.Equal(t, "alice", state.Name)
		assert.Equal(t, "alice@example.com", state.Email)
		assert.Equal(t, "https://img/1", state.ImageURL)
		assert.False(t, state.NameDirty)
		assert.False(t, state.EmailDirty)
	})

	t.Run("later snapshots never overwrite live edits", func(t *testing.T) {
		flow := NewAccountEditFlow(newFakeSession(), nil)
		flow.applySnapshot(snap("alice", "alice@example.com", ""))

		flow.SetName("alice cooper")
		flow.SetEmail("cooper@example.com")

		// S2 and S3 with distinct values arrive while edits are live
		flow.applySnapshot(snap("alice2", "a2@example.com", "https://img/2"))
		flow.applySnapshot(snap("alice3", "a3@example.com", "https://img/3"))

		state := flow.State()
		assert.Equal(t, "alice cooper", state.Name, "live buffer untouched")
		assert.Equal(t, "cooper@example.com", state.Email, "live buffer untouched")
		assert.Equal(t, "https://img/3", state.ImageURL, "avatar tracks the provider")
		assert.True(t, state.NameDirty)
		assert.True(t, state.EmailDirty)
	})

	t.Run("edits typed before first snapshot are not clobbered", func(t *testing.T) {
		flow := NewAccountEditFlow(newFakeSession(), nil)
		flow.SetName("typed-early")

		flow.applySnapshot(snap("alice", "alice@example.com", ""))

		state := flow.State()
		assert.Equal(t, "typed-early", state.Name)
		// email buffer was empty but the seeding moment has passed
		assert.Equal(t, "", state.Email)
	})

	t.Run("baselines track provider for dirty checks", func(t *testing.T) {
		flow := NewAccountEditFlow(newFakeSession(), nil)
		flow.applySnapshot(snap("alice", "alice@example.com", ""))
		flow.SetName("bob")

		// provider now reports the same value the user typed
		flow.applySnapshot(snap("bob", "alice@example.com", ""))

		state := flow.State()
		assert.False(t, state.NameDirty, "matching baseline clears dirtiness")
	})
}

func TestAccountEditSaves(t *testing.T) {
	ctx := context.Background()

	t.Run("name save updates baseline and does not touch email", func(t *testing.T) {
		session := newFakeSession()
		flow := NewAccountEditFlow(session, nil)
		flow.applySnapshot(snap("alice", "alice@example.com", ""))

		flow.SetName("bob")
		flow.SetEmail("edited@example.com")
		flow.SaveName(ctx)

		state := flow.State()
		assert.Equal(t, []string{"bob"}, session.setUsernameCalls)
		assert.Empty(t, session.setEmailCalls, "saves are independent per field")
		assert.False(t, state.NameDirty)
		assert.Equal(t, "edited@example.com", state.Email)
		assert.True(t, state.EmailDirty)
	})

	t.Run("failed save rolls buffer back to baseline", func(t *testing.T) {
		session := newFakeSession()
		session.setEmailErr = auth.NewAuthError(auth.KindValidation, "email already in use")
		flow := NewAccountEditFlow(session, nil)
		flow.applySnapshot(snap("alice", "alice@example.com", ""))

		flow.SetEmail("taken@example.com")
		flow.SaveEmail(ctx)

		state := flow.State()
		assert.Equal(t, "alice@example.com", state.Email, "rolled back to last known-good baseline")
		assert.Equal(t, "email already in use", state.ErrorMessage)
		assert.False(t, state.SavingEmail)
		// exactly one attempt, no automatic retry
		assert.Len(t, session.setEmailCalls, 1)
	})

	t.Run("clean or empty buffers do not save", func(t *testing.T) {
		session := newFakeSession()
		flow := NewAccountEditFlow(session, nil)
		flow.applySnapshot(snap("alice", "alice@example.com", ""))

		flow.SaveName(ctx) // not dirty
		flow.SetName("")
		flow.SaveName(ctx) // empty

		assert.Empty(t, session.setUsernameCalls)
	})
}

func TestAccountEditStreamLifecycle(t *testing.T) {
	session := newFakeSession()
	flow := NewAccountEditFlow(session, nil)
	require.NoError(t, flow.Start(context.Background()))

	session.sub.push(snap("alice", "alice@example.com", ""))
	require.Eventually(t, func() bool {
		return flow.State().Name == "alice"
	}, time.Second, 5*time.Millisecond)

	flow.Close()
	flow.Close() // idempotent
}
