package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/entitykit/entityauth/pkg/audit"
	"github.com/entitykit/entityauth/pkg/auth"
	"github.com/entitykit/entityauth/pkg/httputil"
	"github.com/entitykit/entityauth/pkg/middleware"
	"github.com/entitykit/entityauth/pkg/observability"
	"github.com/entitykit/entityauth/pkg/orgs"
	"github.com/entitykit/entityauth/pkg/session"
	"github.com/entitykit/entityauth/pkg/sso"
)

// Server is the HTTP server for the auth service.
type Server struct {
	router   *mux.Router
	sessions *session.Service
	dir      orgs.Directory
	issuer   *auth.TokenIssuer
	auditLog audit.Searcher
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// Config carries the server's dependencies. SSOHandlers, HealthChecker,
// the rate limiters, and Registry are optional. SignInRateLimiter guards
// the unauthenticated sign-in routes with its own, tighter per-IP budget;
// RateLimiter covers the authenticated surface.
type Config struct {
	Sessions          *session.Service
	Directory         orgs.Directory
	Issuer            *auth.TokenIssuer
	SSOHandlers       *sso.Handlers
	HealthChecker     *observability.HealthChecker
	RateLimiter       *middleware.RateLimitMiddleware
	SignInRateLimiter *middleware.RateLimitMiddleware
	Audit             *audit.Middleware
	AuditLog          audit.Searcher
	Registry          *prometheus.Registry
	Logger            *observability.Logger
}

// NewServer creates the API server and sets up its routes.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	s := &Server{
		router:   mux.NewRouter(),
		sessions: cfg.Sessions,
		dir:      cfg.Directory,
		issuer:   cfg.Issuer,
		auditLog: cfg.AuditLog,
		logger:   logger,
	}
	if cfg.Registry != nil {
		s.metrics = observability.NewMetrics(cfg.Registry)
	}

	s.setupRoutes(cfg)
	return s
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes(cfg Config) {
	s.router.Use(mux.MiddlewareFunc(httputil.RequestIDMiddleware))
	s.router.Use(mux.MiddlewareFunc(httputil.RecoveryMiddleware(s.logger)))
	s.router.Use(mux.MiddlewareFunc(httputil.LoggingMiddleware(s.logger)))
	if s.metrics != nil {
		s.router.Use(mux.MiddlewareFunc(observability.HTTPMetricsMiddleware(s.metrics)))
	}

	if cfg.HealthChecker != nil {
		s.router.HandleFunc("/health", cfg.HealthChecker.Readiness).Methods("GET")
		s.router.HandleFunc("/health/live", cfg.HealthChecker.Liveness).Methods("GET")
		s.router.HandleFunc("/health/ready", cfg.HealthChecker.Readiness).Methods("GET")
	}
	if cfg.Registry != nil {
		s.router.Handle("/metrics", observability.MetricsHandler(cfg.Registry)).Methods("GET")
	}

	v1 := s.router.PathPrefix("/v1").Subrouter()

	// Sign-in routes stay unauthenticated; they are what produces a token.
	// They get the dedicated per-IP limiter, not the per-user one.
	if cfg.SSOHandlers != nil {
		ssoRouter := v1.NewRoute().Subrouter()
		if cfg.SignInRateLimiter != nil {
			ssoRouter.Use(mux.MiddlewareFunc(cfg.SignInRateLimiter.Handler))
		}
		if cfg.Audit != nil {
			ssoRouter.Use(mux.MiddlewareFunc(cfg.Audit.Handler))
		}
		cfg.SSOHandlers.RegisterRoutes(ssoRouter)
	}

	applyTokens := http.Handler(http.HandlerFunc(s.applyTokens))
	if cfg.Audit != nil {
		applyTokens = cfg.Audit.Handler(applyTokens)
	}
	v1.Handle("/session/tokens", applyTokens).Methods("POST")

	authed := v1.NewRoute().Subrouter()
	authed.Use(mux.MiddlewareFunc(middleware.NewBearerAuth(s.issuer).Handler))
	if cfg.RateLimiter != nil {
		authed.Use(mux.MiddlewareFunc(cfg.RateLimiter.Handler))
	}
	if cfg.Audit != nil {
		authed.Use(mux.MiddlewareFunc(cfg.Audit.Handler))
	}

	authed.HandleFunc("/session", s.getSession).Methods("GET")
	authed.HandleFunc("/session/stream", s.streamSession).Methods("GET")
	authed.HandleFunc("/session/revoke", s.revokeSession).Methods("POST")

	authed.HandleFunc("/account/username", s.setUsername).Methods("PATCH")
	authed.HandleFunc("/account/email", s.setEmail).Methods("PATCH")
	authed.HandleFunc("/account/preferences", s.getPreferences).Methods("GET")
	authed.HandleFunc("/account/preferences", s.savePreferences).Methods("PUT")
	if s.auditLog != nil {
		authed.HandleFunc("/account/activity", s.accountActivity).Methods("GET")
	}

	authed.HandleFunc("/orgs", s.listOrgs).Methods("GET")
	authed.HandleFunc("/orgs", s.createOrg).Methods("POST")
	authed.HandleFunc("/orgs/active", s.activeOrg).Methods("GET")
	authed.HandleFunc("/orgs/active", s.switchOrg).Methods("PUT")
	authed.HandleFunc("/orgs/slug/{slug}", s.getOrgBySlug).Methods("GET")
	authed.HandleFunc("/orgs/{id}/members", s.listMembers).Methods("GET")
	authed.HandleFunc("/orgs/{id}/members/{userID}", s.removeMember).Methods("DELETE")
}
