package audit

import (
	"net/http"
	"strings"

	"github.com/entitykit/entityauth/pkg/contextkeys"
)

// Middleware records an audit event for every security-relevant request.
// Reads are not audited; sign-ins, token operations, and account or
// organization mutations are.
type Middleware struct {
	logger Logger
}

// NewMiddleware creates audit middleware around a logger.
func NewMiddleware(logger Logger) *Middleware {
	return &Middleware{logger: logger}
}

// Handler wraps an HTTP handler with audit recording
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		eventType, resource, ok := classify(r.Method, r.URL.Path, recorder.status)
		if !ok {
			return
		}

		status := EventStatusSuccess
		if recorder.status >= http.StatusBadRequest {
			status = EventStatusFailure
		}

		m.logger.Record(Event{
			EventType: eventType,
			Status:    status,
			UserID:    contextkeys.GetUserID(r.Context()),
			IPAddress: clientIP(r),
			RequestID: contextkeys.GetRequestID(r.Context()),
			Resource:  resource,
		})
	})
}

// classify maps a request onto an audit event type. The third return is
// false for requests that are not audited.
func classify(method, path string, status int) (EventType, string, bool) {
	switch {
	case method == http.MethodGet && strings.HasPrefix(path, "/v1/sso/") && strings.HasSuffix(path, "/callback"):
		provider := strings.TrimSuffix(strings.TrimPrefix(path, "/v1/sso/"), "/callback")
		if status >= http.StatusBadRequest {
			return EventTypeSignInFailed, provider, true
		}
		return EventTypeSignIn, provider, true
	case method == http.MethodPost && path == "/v1/session/tokens":
		return EventTypeTokenApply, "", true
	case method == http.MethodPost && path == "/v1/session/revoke":
		return EventTypeSessionRevoke, "", true
	case method == http.MethodPatch && strings.HasPrefix(path, "/v1/account/"):
		return EventTypeAccountUpdate, strings.TrimPrefix(path, "/v1/account/"), true
	case method == http.MethodPut && path == "/v1/account/preferences":
		return EventTypePrefsUpdate, "", true
	case method == http.MethodPost && path == "/v1/orgs":
		return EventTypeOrgCreate, "", true
	case method == http.MethodPut && path == "/v1/orgs/active":
		return EventTypeOrgSwitch, "", true
	case method == http.MethodDelete && strings.Contains(path, "/members/"):
		return EventTypeMemberRemove, strings.TrimPrefix(path, "/v1/orgs/"), true
	default:
		return "", "", false
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}
