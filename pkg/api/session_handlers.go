package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/entitykit/entityauth/pkg/audit"
	"github.com/entitykit/entityauth/pkg/auth"
	"github.com/entitykit/entityauth/pkg/contextkeys"
	"github.com/entitykit/entityauth/pkg/httputil"
	"github.com/entitykit/entityauth/pkg/middleware"
)

// getSession handles GET /v1/session
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	userID := contextkeys.GetUserID(r.Context())

	snap, err := s.sessions.Snapshot(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, snap)
}

// streamSession handles GET /v1/session/stream. Snapshots are pushed as
// server-sent events until the client disconnects.
func (s *Server) streamSession(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteInternalError(w, "streaming unsupported")
		return
	}
	userID := contextkeys.GetUserID(r.Context())

	snapshots, cancel := s.sessions.Hub().Subscribe(userID)
	defer cancel()
	if s.metrics != nil {
		s.metrics.StreamSubscribers.Inc()
		defer s.metrics.StreamSubscribers.Dec()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Send the current snapshot first so clients do not wait for the next
	// mutation.
	if snap, err := s.sessions.Snapshot(r.Context(), userID); err == nil {
		writeEvent(w, snap)
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, open := <-snapshots:
			if !open {
				return
			}
			writeEvent(w, snap)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, snap auth.SessionSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	w.Write([]byte("data: "))
	w.Write(data)
	w.Write([]byte("\n\n"))
}

// applyTokens handles POST /v1/session/tokens. It validates an externally
// held token set against its session record.
func (s *Server) applyTokens(w http.ResponseWriter, r *http.Request) {
	var tokens auth.TokenSet
	if !httputil.ParseJSONOrError(w, r, &tokens) {
		return
	}

	if err := s.sessions.ApplyTokens(r.Context(), tokens); err != nil {
		if s.metrics != nil {
			s.metrics.TokenValidations.WithLabelValues("invalid").Inc()
		}
		httputil.WriteError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.TokenValidations.WithLabelValues("valid").Inc()
	}
	httputil.WriteNoContent(w)
}

// revokeSession handles POST /v1/session/revoke. It revokes the session the
// presented token belongs to.
func (s *Server) revokeSession(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	if err := s.sessions.RevokeSession(r.Context(), claims.Subject, claims.SessionID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

type updateFieldRequest struct {
	Value string `json:"value"`
}

// setUsername handles PATCH /v1/account/username
func (s *Server) setUsername(w http.ResponseWriter, r *http.Request) {
	var req updateFieldRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	userID := contextkeys.GetUserID(r.Context())
	if err := s.sessions.SetUsername(r.Context(), userID, req.Value); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// setEmail handles PATCH /v1/account/email
func (s *Server) setEmail(w http.ResponseWriter, r *http.Request) {
	var req updateFieldRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	userID := contextkeys.GetUserID(r.Context())
	if err := s.sessions.SetEmail(r.Context(), userID, req.Value); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// getPreferences handles GET /v1/account/preferences
func (s *Server) getPreferences(w http.ResponseWriter, r *http.Request) {
	userID := contextkeys.GetUserID(r.Context())

	prefs, err := s.sessions.Preferences(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, prefs)
}

// savePreferences handles PUT /v1/account/preferences. The document is
// replaced wholesale.
func (s *Server) savePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs auth.Preferences
	if !httputil.ParseJSONOrError(w, r, &prefs) {
		return
	}

	userID := contextkeys.GetUserID(r.Context())
	if err := s.sessions.SavePreferences(r.Context(), userID, prefs); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// accountActivity handles GET /v1/account/activity. Results are scoped to
// the caller's own audit trail.
func (s *Server) accountActivity(w http.ResponseWriter, r *http.Request) {
	filter := audit.SearchFilter{UserID: contextkeys.GetUserID(r.Context())}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			httputil.WriteValidationError(w, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}
	if t := r.URL.Query().Get("type"); t != "" {
		filter.EventType = audit.EventType(t)
	}

	events, err := s.auditLog.Search(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []*audit.Event{}
	}
	httputil.WriteSuccess(w, events)
}
