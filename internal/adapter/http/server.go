package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/duskcircle/nightwatch/internal/adapter/identity"
	"github.com/duskcircle/nightwatch/internal/domain/service"
	"github.com/duskcircle/nightwatch/internal/pkg/telemetry"
)

type Server struct {
	router     *chi.Mux
	logger     *slog.Logger
	staticDir  string
	registry   *service.Registry
	dispatcher *service.Dispatcher
	lifecycle  *service.SessionLifecycle
	pipeline   *telemetry.Pipeline
	issuer     *identity.Issuer
}

func NewServer(logger *slog.Logger, staticDir string, registry *service.Registry, dispatcher *service.Dispatcher, lifecycle *service.SessionLifecycle, pipeline *telemetry.Pipeline, issuer *identity.Issuer) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		logger:     logger,
		staticDir:  staticDir,
		registry:   registry,
		dispatcher: dispatcher,
		lifecycle:  lifecycle,
		pipeline:   pipeline,
		issuer:     issuer,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Client-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
	})

	s.router.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Post("/join", s.handleJoinSession)
		r.Get("/", s.handleGetSessionState)
		r.Post("/{sessionId}/commands", s.handleCommand)
	})

	s.serveStaticFiles()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.pipeline.Store != nil {
		if err := s.pipeline.Store.Health(r.Context()); err != nil {
			s.logger.Warn("store health check failed", "error", err)
			status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
	})
}

func (s *Server) serveStaticFiles() {
	if _, err := os.Stat(s.staticDir); os.IsNotExist(err) {
		s.logger.Warn("static directory not found, skipping static file serving", "dir", s.staticDir)
		return
	}

	fileServer := http.FileServer(http.Dir(s.staticDir))

	s.router.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(s.staticDir, r.URL.Path)

		_, err := os.Stat(path)
		if os.IsNotExist(err) || isDir(path) {
			http.ServeFile(w, r, filepath.Join(s.staticDir, "index.html"))
			return
		}

		fileServer.ServeHTTP(w, r)
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Mount attaches an additional handler (the WebSocket upgrade endpoint) at
// the given path, ahead of the SPA catch-all.
func (s *Server) Mount(pattern string, handler http.Handler) {
	s.router.Handle(pattern, handler)
}
