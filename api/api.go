// Package api exposes the authorization catalog and security operations
// endpoints over HTTP.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"aegis/config"
	"aegis/rbac"
	"aegis/soc"
	"aegis/storage"
)

// rateLimiterEntry holds a per-IP rate limiter with its last seen time.
type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// API holds the HTTP server and its collaborators.
type API struct {
	router            *mux.Router
	server            *http.Server
	catalog           *rbac.Catalog
	recorder          *soc.Recorder
	dashboard         *soc.Dashboard
	assignmentStorage storage.AssignmentStorageInterface
	config            *config.Config
	logger            *zap.SugaredLogger
	validate          *validator.Validate
	rateLimiters      map[string]*rateLimiterEntry
	rateLimitersMu    sync.Mutex
	stopCh            chan struct{}
}

// NewAPI creates the API server and registers all routes.
func NewAPI(catalog *rbac.Catalog, recorder *soc.Recorder, dashboard *soc.Dashboard,
	assignmentStorage storage.AssignmentStorageInterface, cfg *config.Config, logger *zap.SugaredLogger) *API {
	api := &API{
		router:            mux.NewRouter(),
		catalog:           catalog,
		recorder:          recorder,
		dashboard:         dashboard,
		assignmentStorage: assignmentStorage,
		config:            cfg,
		logger:            logger,
		validate:          validator.New(),
		rateLimiters:      make(map[string]*rateLimiterEntry),
		stopCh:            make(chan struct{}),
	}
	api.setupRoutes()
	go api.cleanupRateLimiters()
	return api
}

// setupRoutes registers middleware and routes. Permission requirements per
// route group: the role catalog needs users.view, the event log needs
// reports.view, and triage updates need reports.generate.
func (a *API) setupRoutes() {
	a.router.Use(a.requestIDMiddleware)
	a.router.Use(a.corsMiddleware)
	a.router.Use(a.rateLimitMiddleware)
	a.router.Use(a.authMiddleware)

	v1 := a.router.PathPrefix("/api/v1").Subrouter()

	adminOnly := a.RequirePermissions(rbac.PermUsersView)
	v1.Handle("/roles", adminOnly(http.HandlerFunc(a.getRoles))).Methods("GET")
	v1.Handle("/roles/{id}", adminOnly(http.HandlerFunc(a.getRole))).Methods("GET")
	v1.Handle("/permissions", adminOnly(http.HandlerFunc(a.getPermissions))).Methods("GET")
	v1.Handle("/permissions/matrix", adminOnly(http.HandlerFunc(a.getPermissionMatrix))).Methods("GET")
	v1.Handle("/roles/assignments", adminOnly(http.HandlerFunc(a.assignRole))).Methods("POST")
	v1.Handle("/roles/assignments", adminOnly(http.HandlerFunc(a.getAssignments))).Methods("GET")

	socView := a.RequirePermissions(rbac.PermReportsView)
	v1.Handle("/soc/dashboard", socView(http.HandlerFunc(a.getDashboard))).Methods("GET")
	v1.Handle("/soc/events", socView(http.HandlerFunc(a.getEvents))).Methods("GET")

	socTriage := a.RequirePermissions(rbac.PermReportsGenerate)
	v1.Handle("/soc/events/{id}/status", socTriage(http.HandlerFunc(a.updateEventStatus))).Methods("PUT")

	a.router.HandleFunc("/healthz", a.healthCheck).Methods("GET")
	a.router.Handle("/metrics", promhttp.Handler())
}

// healthCheck reports liveness.
func (a *API) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, a.logger)
}

// Router exposes the configured router, primarily for tests.
func (a *API) Router() http.Handler {
	return a.router
}

// Start starts the API server. Blocks until the server stops.
func (a *API) Start(addr string) error {
	a.server = &http.Server{
		Addr:         addr,
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return a.server.ListenAndServe()
}

// Stop gracefully shuts down the API server.
func (a *API) Stop(ctx context.Context) error {
	close(a.stopCh)
	if a.server != nil {
		return a.server.Shutdown(ctx)
	}
	return nil
}
