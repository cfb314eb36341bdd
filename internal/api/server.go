// internal/api/server.go
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grantflow/internal/catalog"
	stderrors "grantflow/internal/common/errors"
	"grantflow/internal/common/logger"
	"grantflow/internal/common/observability"
	"grantflow/internal/notify"
	"grantflow/internal/store"
	"grantflow/pkg/registry"
)

// Server is the HTTP surface over the form engine and its stores. The
// engine stays a library; everything request-shaped lives here.
type Server struct {
	router chi.Router

	logger      logger.Logger
	errors      *stderrors.ErrorHandler
	catalog     *catalog.Service
	sessions    *SessionManager
	drafts      store.DraftStore
	submissions store.SubmissionStore
	users       store.UserStore
	notifier    *notify.Notifier
	templates   *registry.TemplateRegistry
	obs         *observability.Observability
}

// ServerDeps carries everything the server needs. Notifier, Templates and
// Observability may be nil; the endpoints that need them degrade.
type ServerDeps struct {
	Logger         logger.Logger
	Catalog        *catalog.Service
	Sessions       *SessionManager
	Drafts         store.DraftStore
	Submissions    store.SubmissionStore
	Users          store.UserStore
	Notifier       *notify.Notifier
	Templates      *registry.TemplateRegistry
	Observability  *observability.Observability
	MetricsEnabled bool
}

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		logger:      deps.Logger,
		errors:      stderrors.NewErrorHandler(deps.Logger),
		catalog:     deps.Catalog,
		sessions:    deps.Sessions,
		drafts:      deps.Drafts,
		submissions: deps.Submissions,
		users:       deps.Users,
		notifier:    deps.Notifier,
		templates:   deps.Templates,
		obs:         deps.Observability,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(deps.Logger, deps.Observability))

	r.Get("/healthz", s.handleHealth)
	if deps.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(requireIdentity)

		r.Get("/opportunities", s.handleListOpportunities)
		r.Get("/opportunities/{id}", s.handleGetOpportunity)

		r.Post("/applications", s.handleCreateApplication)
		r.Route("/applications/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetApplication)
			r.Delete("/", s.handleDeleteApplication)
			r.Put("/fields", s.handleSetField)
			r.Post("/advance", s.handleAdvance)
			r.Post("/retreat", s.handleRetreat)
			r.Post("/jump", s.handleJump)
			r.Post("/save", s.handleSave)
			r.Post("/prefill", s.handlePrefill)
		})

		r.Get("/submissions", s.handleListSubmissions)
		r.Patch("/submissions/{id}/status", s.handleUpdateSubmissionStatus)

		r.Get("/users", s.handleListUsers)
		r.Patch("/users/{id}/role", s.handleUpdateUserRole)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("response encode failed", nil)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
