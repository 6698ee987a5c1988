// Package api exposes plan, apply, delete and get over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"otc-rds-operator/pkg/core"
)

type ServerConfig struct {
	Port           int
	Host           string
	Version        string
	StateDir       string
	AllowedOrigins []string
	Auth           AuthConfig

	// RateLimit is the number of requests per minute per client; 0 disables it.
	RateLimit int

	// Provider defaults to the OS_* environment.
	Provider *core.ProviderConfig
}

type Server struct {
	config   *ServerConfig
	router   *chi.Mux
	handlers *Handlers
	server   *http.Server
}

// NewServer authenticates with OTC and opens the state backend.
func NewServer(ctx context.Context, config *ServerConfig, newUseCase core.UseCaseFactory, newState core.StateFactory) (*Server, error) {
	provider := core.NewProviderConfigFromEnv()
	provider.Name = "api"
	if config.Provider != nil {
		provider.Merge(config.Provider)
	}

	useCase, err := newUseCase(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create RDS client: %w", err)
	}

	state, err := newState(ctx, provider, config.StateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open state: %w", err)
	}

	s := &Server{
		config:   config,
		router:   chi.NewRouter(),
		handlers: NewHandlers(config, provider, useCase, state, newUseCase),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(ContentTypeJSON)

	if len(s.config.AllowedOrigins) > 0 {
		r.Use(CORS(s.config.AllowedOrigins))
	}
	if s.config.RateLimit > 0 {
		r.Use(RateLimit(s.config.RateLimit))
	}

	r.Use(APIKeyAuth(s.config.Auth))

	r.Get("/health", s.handlers.Health)
	r.Get("/", s.handleRoot)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handlers.Health)

		r.Post("/plan", s.handlers.Plan)
		r.Post("/apply", s.handlers.Apply)
		r.Delete("/resources", s.handlers.Delete)
		// For clients that cannot send a body with DELETE
		r.Post("/delete", s.handlers.Delete)

		r.Get("/resources", s.handlers.Get)
		r.Get("/resources/{kind}", s.handlers.GetByKind)
		r.Get("/rds-instances", s.makeKindHandler(core.KindRDSInstance))

		r.Get("/config/otc", s.handlers.GetOTCConfig)
		r.Post("/config/otc", s.handlers.ConfigureOTC)

		r.Get("/samples", s.handlers.Samples)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "OTC RDS Operator API",
		"version": s.config.Version,
		"health":  "/health",
		"endpoints": map[string]string{
			"plan":      "POST /api/v1/plan",
			"apply":     "POST /api/v1/apply",
			"delete":    "DELETE /api/v1/resources",
			"resources": "GET /api/v1/resources",
			"config":    "GET|POST /api/v1/config/otc",
			"samples":   "GET /api/v1/samples",
		},
	}
	writeJSON(w, http.StatusOK, NewSuccessResponse(info))
}

func (s *Server) makeKindHandler(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.handlers.list(w, r, kind)
	}
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	logger.Info("starting API server", "address", "http://"+s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router returns the chi router, for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}
