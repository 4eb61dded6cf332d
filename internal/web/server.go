// Package web provides the HTTP server for the CPU comparison UI and API.
package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/cpucompare/internal/catalog"
	"github.com/JonMunkholm/cpucompare/internal/metrics"
	"github.com/JonMunkholm/cpucompare/internal/session"
	"github.com/JonMunkholm/cpucompare/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// Options configures the HTTP server.
type Options struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration

	TrustedProxies []string
	EnableCSP      bool

	RateLimit RateLimitOptions
}

// RateLimitOptions configures per-IP request limits.
type RateLimitOptions struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
	ReloadPerMinute   int
}

// Server is the HTTP server for the comparison application.
type Server struct {
	store    *catalog.Store
	sessions *session.Manager
	metrics  *metrics.Metrics
	opts     Options

	router *chi.Mux
	server *http.Server

	limiter       *rateLimiter
	reloadLimiter *rateLimiter
}

// NewServer wires routes and middleware. m may be nil.
func NewServer(store *catalog.Store, sessions *session.Manager, m *metrics.Metrics, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	s := &Server{
		store:    store,
		sessions: sessions,
		metrics:  m,
		opts:     opts,
		router:   chi.NewRouter(),
	}
	if opts.RateLimit.Enabled {
		s.limiter = newRateLimiter(opts.RateLimit.RequestsPerMinute, opts.RateLimit.Burst, m)
		s.reloadLimiter = newRateLimiter(opts.RateLimit.ReloadPerMinute, 1, m)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.opts.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.opts.RequestTimeout))
	s.router.Use(middleware.SecurityHeaders(s.opts.EnableCSP))

	if s.limiter != nil {
		s.router.Use(s.limiter.middleware(s))
	}
}

func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Pages
	s.router.Get("/", s.handlePage)
	s.router.Post("/select", s.handleSelectForm)
	s.router.Post("/deselect", s.handleDeselectForm)
	s.router.Post("/clear", s.handleClearForm)
	s.router.Post("/sort", s.handleSortForm)

	// The catalog file itself, at the path the browser UI has always fetched.
	s.router.Get("/tpu_cpus.csv", s.handleRawCatalog)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalogStatus)
		if s.reloadLimiter != nil {
			r.With(s.reloadLimiter.middleware(s)).Post("/catalog/reload", s.handleCatalogReload)
		} else {
			r.Post("/catalog/reload", s.handleCatalogReload)
		}

		r.Get("/search", s.handleSearch)

		r.Get("/selection", s.handleGetSelection)
		r.Delete("/selection", s.handleClearSelection)
		r.Post("/selection/{name}", s.handleAddSelection)
		r.Delete("/selection/{name}", s.handleRemoveSelection)

		r.Post("/sort/{column}", s.handleToggleSort)
		r.Get("/compare", s.handleCompare)
		r.Get("/export.csv", s.handleExport)
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, errNotFound, http.StatusNotFound)
	})
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Close()
	s.reloadLimiter.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
