package session

import (
	"sync"

	"github.com/entitykit/entityauth/pkg/auth"
)

// subscriberBuffer bounds how far a slow subscriber may lag before updates
// are dropped for it.
const subscriberBuffer = 8

// Hub fans session snapshots out to per-user subscribers. Broadcast never
// blocks: a subscriber that cannot keep up loses intermediate snapshots, not
// the stream itself.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan auth.SessionSnapshot]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan auth.SessionSnapshot]struct{})}
}

// Subscribe registers a subscriber for a user's snapshots. The returned
// cancel function closes the channel and removes the registration; it is
// safe to call more than once.
func (h *Hub) Subscribe(userID string) (<-chan auth.SessionSnapshot, func()) {
	ch := make(chan auth.SessionSnapshot, subscriberBuffer)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan auth.SessionSnapshot]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Broadcast delivers a snapshot to every subscriber of the user. Full
// subscriber buffers are skipped.
func (h *Hub) Broadcast(userID string, snap auth.SessionSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[userID] {
		select {
		case ch <- snap:
		default:
		}
	}
}

// SubscriberCount reports how many subscribers a user currently has.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
