package sso

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/mux"

	"github.com/entitykit/entityauth/pkg/auth"
	"github.com/entitykit/entityauth/pkg/httputil"
	"github.com/entitykit/entityauth/pkg/observability"
	"github.com/entitykit/entityauth/pkg/session"
	"github.com/entitykit/entityauth/pkg/storage/postgres"
)

const (
	stateCookie    = "sso_state"
	returnToCookie = "sso_return_to"
	tenantCookie   = "sso_tenant"
	cookieTTL      = 600 // seconds
)

// Exchanger is the part of a provider the handlers need. Satisfied by
// OIDCProvider; swapped for a fake in tests.
type Exchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// Handlers serves the SSO authentication routes.
type Handlers struct {
	registry *Registry
	store    *postgres.Store
	sessions *session.Service
	logger   *observability.Logger

	mu        sync.Mutex
	providers map[string]Exchanger

	// newProvider builds an Exchanger from a config. Defaults to OIDC
	// discovery; tests replace it.
	newProvider func(ctx context.Context, cfg *ProviderConfig) (Exchanger, error)
}

// NewHandlers creates the SSO handlers backed by a provider registry.
func NewHandlers(registry *Registry, store *postgres.Store, sessions *session.Service,
	logger *observability.Logger) *Handlers {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Handlers{
		registry:  registry,
		store:     store,
		sessions:  sessions,
		logger:    logger,
		providers: make(map[string]Exchanger),
		newProvider: func(ctx context.Context, cfg *ProviderConfig) (Exchanger, error) {
			return NewOIDCProvider(ctx, cfg)
		},
	}
}

// RegisterRoutes registers SSO routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/sso/providers", h.listProviders).Methods("GET")
	router.HandleFunc("/sso/{provider}/start", h.start).Methods("GET")
	router.HandleFunc("/sso/{provider}/callback", h.callback).Methods("GET")
}

// listProviders handles GET /sso/providers
func (h *Handlers) listProviders(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, h.registry.Enabled())
}

// start handles GET /sso/{provider}/start. It binds the flow to the browser
// via a random state cookie and redirects to the provider.
func (h *Handlers) start(w http.ResponseWriter, r *http.Request) {
	name, ok := httputil.PathString(w, r, "provider")
	if !ok {
		return
	}

	provider, err := h.provider(r.Context(), name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	stateBytes := make([]byte, 32)
	if _, err := rand.Read(stateBytes); err != nil {
		httputil.WriteInternalError(w, "failed to generate state")
		return
	}
	state := base64.URLEncoding.EncodeToString(stateBytes)

	setFlowCookie(w, stateCookie, state)
	if returnTo := r.URL.Query().Get("return_to"); returnTo != "" && safeReturnTo(returnTo) {
		setFlowCookie(w, returnToCookie, url.QueryEscape(returnTo))
	}
	if tenant := r.URL.Query().Get("tenant"); tenant != "" {
		setFlowCookie(w, tenantCookie, tenant)
	}

	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
}

// callback handles GET /sso/{provider}/callback. On success it provisions
// the user if needed and returns a token set.
func (h *Handlers) callback(w http.ResponseWriter, r *http.Request) {
	name, ok := httputil.PathString(w, r, "provider")
	if !ok {
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil {
		httputil.WriteUnauthorized(w, "missing state cookie")
		return
	}
	if state := r.URL.Query().Get("state"); state == "" || state != cookie.Value {
		httputil.WriteUnauthorized(w, "state mismatch")
		return
	}

	provider, err := h.provider(r.Context(), name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	identity, err := provider.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.logger.WithError(err).WithField("provider", name).Warn("sso exchange failed")
		httputil.WriteError(w, err)
		return
	}

	user, err := h.store.UpsertUser(r.Context(), identity.Username, identity.Email, identity.ImageURL)
	if err != nil {
		h.logger.WithError(err).Error("user provisioning failed")
		httputil.WriteInternalError(w, "failed to provision user")
		return
	}

	tenant := ""
	if c, err := r.Cookie(tenantCookie); err == nil {
		tenant = c.Value
	}

	tokens, err := h.sessions.IssueTokens(r.Context(), user.ID, tenant)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	clearFlowCookie(w, stateCookie)
	clearFlowCookie(w, tenantCookie)

	if c, err := r.Cookie(returnToCookie); err == nil {
		clearFlowCookie(w, returnToCookie)
		if returnTo, err := url.QueryUnescape(c.Value); err == nil && safeReturnTo(returnTo) {
			http.Redirect(w, r, returnTo, http.StatusFound)
			return
		}
	}

	httputil.WriteSuccess(w, tokens)
}

func (h *Handlers) provider(ctx context.Context, name string) (Exchanger, error) {
	cfg := h.registry.Get(name)
	if cfg == nil || !cfg.Enabled {
		return nil, errUnknownProvider(name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if p, ok := h.providers[name]; ok {
		return p, nil
	}

	p, err := h.newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	h.providers[name] = p
	return p, nil
}

func setFlowCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   cookieTTL,
	})
}

func clearFlowCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, MaxAge: -1, Path: "/"})
}

func errUnknownProvider(name string) error {
	return auth.NewAuthError(auth.KindValidation, "unknown or disabled provider: "+name)
}

// safeReturnTo accepts only relative paths, keeping the callback from
// becoming an open redirect.
func safeReturnTo(returnTo string) bool {
	u, err := url.Parse(returnTo)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == "" && len(returnTo) > 0 && returnTo[0] == '/'
}
