package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/entitykit/entityauth/pkg/auth"
	"github.com/entitykit/entityauth/pkg/contextkeys"
	"github.com/entitykit/entityauth/pkg/httputil"
	"github.com/entitykit/entityauth/pkg/orgs"
)

// listOrgs handles GET /v1/orgs
func (s *Server) listOrgs(w http.ResponseWriter, r *http.Request) {
	userID := contextkeys.GetUserID(r.Context())

	summaries, err := s.dir.ListOrganizations(r.Context(), userID)
	if err != nil {
		writeOrgError(w, err)
		return
	}
	if summaries == nil {
		summaries = []*orgs.OrganizationSummary{}
	}
	httputil.WriteSuccess(w, summaries)
}

// createOrg handles POST /v1/orgs. The caller becomes the owner; the slug is
// derived from the name when absent.
func (s *Server) createOrg(w http.ResponseWriter, r *http.Request) {
	var req orgs.CreateOrgRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, strings.TrimSpace(req.Name), "name") {
		return
	}

	org := &orgs.Organization{
		Name:    strings.TrimSpace(req.Name),
		Slug:    req.Slug,
		OwnerID: contextkeys.GetUserID(r.Context()),
	}
	if err := s.dir.CreateOrganization(r.Context(), org); err != nil {
		writeOrgError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.OrgsCreatedTotal.Inc()
	}
	s.sessions.Invalidate(r.Context(), org.OwnerID)
	httputil.WriteCreated(w, org)
}

// activeOrg handles GET /v1/orgs/active. A user with no active organization
// gets a 204.
func (s *Server) activeOrg(w http.ResponseWriter, r *http.Request) {
	userID := contextkeys.GetUserID(r.Context())

	active, err := s.dir.ActiveOrganization(r.Context(), userID)
	if err != nil {
		writeOrgError(w, err)
		return
	}
	if active == nil {
		httputil.WriteNoContent(w)
		return
	}
	httputil.WriteSuccess(w, active)
}

type switchOrgRequest struct {
	OrgID string `json:"org_id"`
}

// switchOrg handles PUT /v1/orgs/active
func (s *Server) switchOrg(w http.ResponseWriter, r *http.Request) {
	var req switchOrgRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.OrgID, "org_id") {
		return
	}

	userID := contextkeys.GetUserID(r.Context())
	if err := s.dir.SwitchOrganization(r.Context(), userID, req.OrgID); err != nil {
		if s.metrics != nil {
			s.metrics.OrgSwitchesTotal.WithLabelValues("failure").Inc()
		}
		writeOrgError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.OrgSwitchesTotal.WithLabelValues("success").Inc()
	}
	s.sessions.Invalidate(r.Context(), userID)
	httputil.WriteNoContent(w)
}

// getOrgBySlug handles GET /v1/orgs/slug/{slug}
func (s *Server) getOrgBySlug(w http.ResponseWriter, r *http.Request) {
	slug, ok := httputil.PathString(w, r, "slug")
	if !ok {
		return
	}

	org, err := s.dir.GetOrganizationBySlug(r.Context(), slug)
	if err != nil {
		writeOrgError(w, err)
		return
	}
	httputil.WriteSuccess(w, org)
}

// listMembers handles GET /v1/orgs/{id}/members
func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.PathString(w, r, "id")
	if !ok {
		return
	}

	members, err := s.dir.ListMembers(r.Context(), orgID)
	if err != nil {
		writeOrgError(w, err)
		return
	}
	if members == nil {
		members = []*orgs.OrgMember{}
	}
	httputil.WriteSuccess(w, members)
}

// removeMember handles DELETE /v1/orgs/{id}/members/{userID}. The acting
// user needs a role that can manage members; owners cannot be removed.
func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.PathString(w, r, "id")
	if !ok {
		return
	}
	memberID, ok := httputil.PathString(w, r, "userID")
	if !ok {
		return
	}

	actorID := contextkeys.GetUserID(r.Context())
	if err := s.dir.RemoveMember(r.Context(), orgID, actorID, memberID); err != nil {
		writeOrgError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.MembershipChanges.WithLabelValues("remove").Inc()
	}
	s.sessions.Invalidate(r.Context(), memberID)
	httputil.WriteNoContent(w)
}

// writeOrgError maps directory sentinel errors onto the response envelope.
func writeOrgError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orgs.ErrOrgNotFound):
		httputil.WriteNotFoundError(w, "organization not found")
	case errors.Is(err, orgs.ErrMemberNotFound):
		httputil.WriteNotFoundError(w, "member not found")
	case errors.Is(err, orgs.ErrNotAMember):
		httputil.WriteForbidden(w, "not a member of this organization")
	case errors.Is(err, orgs.ErrNotPermitted):
		httputil.WriteForbidden(w, "insufficient role")
	case errors.Is(err, orgs.ErrOwnerImmutable):
		httputil.WriteForbidden(w, "the owner cannot be removed")
	case errors.Is(err, orgs.ErrDuplicateSlug):
		httputil.WriteConflict(w, "an organization with this slug already exists")
	default:
		httputil.WriteKindError(w, http.StatusInternalServerError, auth.KindTransport,
			"organization directory unavailable")
	}
}
