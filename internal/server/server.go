// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"trendcast/internal/config"
	"trendcast/internal/server/handlers"
)

// Dependencies groups what the HTTP layer needs. Events may be nil, in
// which case the websocket feed is not mounted.
type Dependencies struct {
	Artifacts     handlers.ArtifactReader
	Runner        handlers.Runner
	Events        handlers.Subscriber
	EventsSubject string
	Logger        *slog.Logger
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, deps Dependencies) *Server {
	router := NewRouter(cfg, deps)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// NewRouter builds the API routes
func NewRouter(cfg config.ServerConfig, deps Dependencies) *chi.Mux {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CorsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	trendHandler := handlers.NewTrendHandler(deps.Artifacts, deps.Runner, deps.Logger)

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("OK")) //nolint:errcheck // client went away
		})

		r.Route("/v1/predictions", func(r chi.Router) {
			r.Get("/{feed}", trendHandler.GetFeed)
			r.With(middleware.Timeout(5*time.Minute)).Post("/rerun", trendHandler.Rerun)
		})
	})

	if deps.Events != nil {
		router.Get("/ws/predictions", handlers.PredictionsWebSocketHandler(deps.Events, deps.EventsSubject, deps.Logger))
	}

	return router
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
