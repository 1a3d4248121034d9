package audit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entitykit/entityauth/pkg/contextkeys"
)

type captureLogger struct {
	mu     sync.Mutex
	events []Event
}

func (l *captureLogger) Record(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *captureLogger) all() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func serve(t *testing.T, logger Logger, method, path string, status int, userID string) {
	t.Helper()
	handler := NewMiddleware(logger).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if userID != "" {
		req = req.WithContext(contextkeys.WithUserID(req.Context(), userID))
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestMiddlewareClassification(t *testing.T) {
	tests := []struct {
		name         string
		method, path string
		status       int
		wantType     EventType
		wantStatus   EventStatus
		wantResource string
	}{
		{"sign-in success", http.MethodGet, "/v1/sso/google/callback", 200, EventTypeSignIn, EventStatusSuccess, "google"},
		{"sign-in failure", http.MethodGet, "/v1/sso/google/callback", 401, EventTypeSignInFailed, EventStatusFailure, "google"},
		{"token apply", http.MethodPost, "/v1/session/tokens", 204, EventTypeTokenApply, EventStatusSuccess, ""},
		{"session revoke", http.MethodPost, "/v1/session/revoke", 204, EventTypeSessionRevoke, EventStatusSuccess, ""},
		{"username update", http.MethodPatch, "/v1/account/username", 204, EventTypeAccountUpdate, EventStatusSuccess, "username"},
		{"prefs update", http.MethodPut, "/v1/account/preferences", 204, EventTypePrefsUpdate, EventStatusSuccess, ""},
		{"org create", http.MethodPost, "/v1/orgs", 201, EventTypeOrgCreate, EventStatusSuccess, ""},
		{"org switch", http.MethodPut, "/v1/orgs/active", 204, EventTypeOrgSwitch, EventStatusSuccess, ""},
		{"member remove", http.MethodDelete, "/v1/orgs/org-1/members/user-9", 204, EventTypeMemberRemove, EventStatusSuccess, "org-1/members/user-9"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			logger := &captureLogger{}
			serve(t, logger, tc.method, tc.path, tc.status, "user-1")

			events := logger.all()
			require.Len(t, events, 1)
			assert.Equal(t, tc.wantType, events[0].EventType)
			assert.Equal(t, tc.wantStatus, events[0].Status)
			assert.Equal(t, tc.wantResource, events[0].Resource)
			assert.Equal(t, "user-1", events[0].UserID)
			assert.Equal(t, "203.0.113.7", events[0].IPAddress)
		})
	}
}

func TestMiddlewareIgnoresReads(t *testing.T) {
	logger := &captureLogger{}
	serve(t, logger, http.MethodGet, "/v1/session", 200, "user-1")
	serve(t, logger, http.MethodGet, "/v1/orgs", 200, "user-1")
	serve(t, logger, http.MethodGet, "/v1/orgs/org-1/members", 200, "user-1")

	assert.Empty(t, logger.all())
}
