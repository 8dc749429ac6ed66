package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hongminglow/spamid-be/internal/auth"
	"github.com/hongminglow/spamid-be/internal/config"
	"github.com/hongminglow/spamid-be/internal/contacts"
	"github.com/hongminglow/spamid-be/internal/disclosure"
	"github.com/hongminglow/spamid-be/internal/http/handlers"
	"github.com/hongminglow/spamid-be/internal/identity"
	"github.com/hongminglow/spamid-be/internal/metrics"
	"github.com/hongminglow/spamid-be/internal/middleware"
	"github.com/hongminglow/spamid-be/internal/search"
	"github.com/hongminglow/spamid-be/internal/spam"
	"github.com/hongminglow/spamid-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// Deps are the collaborators the router is built from.
type Deps struct {
	Store    storage.Store
	Logger   *zap.Logger
	Registry *prometheus.Registry
}

// NewHandler wires services, middleware and routes into one http.Handler.
func NewHandler(cfg config.Config, deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := metrics.New(reg)

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	resolver := identity.NewResolver(deps.Store, hasher, log.Named("identity"), m)
	graph := contacts.NewGraph(deps.Store, resolver, log.Named("contacts"), m)
	ledger := spam.NewLedger(deps.Store, resolver, log.Named("spam"), m)
	searcher := search.NewService(deps.Store, ledger, log.Named("search"), m)
	guard := disclosure.NewGuard(deps.Store, ledger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(log.Named("http")))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	handlers.NewHealthHandler(time.Now()).Register(r)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	handlers.NewAuthHandler(resolver, tokens, log).Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(tokens, resolver, log))
		handlers.NewGraphHandler(graph, ledger, guard, log, cfg.SearchMaxResults).Register(r)
		handlers.NewSearchHandler(searcher, log, cfg.SearchMaxResults).Register(r)
	})

	return r
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
