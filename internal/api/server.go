// Package api provides the HTTP API server and handlers for Tabsverse.
package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tabsverse/tabsverse-server/internal/baas"
	"github.com/tabsverse/tabsverse-server/internal/blob"
	"github.com/tabsverse/tabsverse-server/internal/config"
	"github.com/tabsverse/tabsverse-server/internal/ratelimit"
	"github.com/tabsverse/tabsverse-server/internal/store"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	config   *config.Config
	store    store.Store
	services *Services
	verifier *baas.Verifier
	files    *blob.Local // nil unless covers are stored on local disk
	limiter  *ratelimit.KeyedRateLimiter
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// files may be nil when covers live in a remote object store.
func NewServer(cfg *config.Config, st store.Store, services *Services, verifier *baas.Verifier, files *blob.Local, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		config:   cfg,
		store:    st,
		services: services,
		verifier: verifier,
		files:    files,
		router:   router,
		logger:   logger,
	}
	if cfg.Server.RateLimitRPS > 0 {
		s.limiter = ratelimit.New(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	}

	s.setupMiddleware()
	s.api = humachi.New(router, newHumaConfig())
	RegisterErrorHandler()
	s.registerRoutes()

	return s
}

// newHumaConfig describes the API and its bearer auth scheme.
func newHumaConfig() huma.Config {
	humaConfig := huma.DefaultConfig("Tabsverse API", Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	return humaConfig
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Shutdown releases background resources.
func (s *Server) Shutdown() error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return nil
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.config.Server.TrustProxyHeaders {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.limiter != nil {
		s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
	}
	s.router.Use(authMiddleware(s.verifier))
}

// registerRoutes registers every route on the huma API and chi router.
func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerCurationRoutes()
	s.registerTabRoutes()
	s.registerCoverRoutes()
	s.registerMetadataRoutes()
	s.registerSearchRoutes()
	s.registerAdminRoutes()

	if s.files != nil {
		prefix := filesPrefix(s.config.Storage.LocalBaseURL)
		s.router.Get(prefix+"/*", s.handleServeFile)
	}
}

// filesPrefix returns the path component of the local public base URL.
func filesPrefix(baseURL string) string {
	prefix := "/files"
	if u, err := url.Parse(baseURL); err == nil && u.Path != "" && u.Path != "/" {
		prefix = u.Path
	}
	return "/" + strings.Trim(prefix, "/")
}
