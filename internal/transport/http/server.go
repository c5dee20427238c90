package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/toolgrid/toolgrid/internal/config"
	"github.com/toolgrid/toolgrid/internal/service"
	"github.com/toolgrid/toolgrid/internal/telemetry"
)

// Server represents the HTTP server
type Server struct {
	handler *Handler
	server  *http.Server
	logger  *zap.Logger
	port    string
}

// NewServer creates a new HTTP server with all routes and middleware wired
func NewServer(cfg *config.Config, duplicates service.DuplicateChecker, catalog service.Catalog, metrics *telemetry.Metrics, logger *zap.Logger) *Server {
	handler := NewHandler(duplicates, catalog, logger)

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(handler.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(handler.MethodNotAllowed)

	router.HandleFunc("/api/check-website-duplicate", handler.CheckDuplicate).Methods(http.MethodPost, http.MethodOptions)

	router.HandleFunc("/api/tools", handler.ListTools).Methods(http.MethodGet)
	router.HandleFunc("/api/tools", handler.SubmitTool).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/tools/{id}", handler.GetTool).Methods(http.MethodGet)
	router.HandleFunc("/api/tools/{id}/upvote", handler.UpvoteTool).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/tools/{id}/reviews", handler.ListReviews).Methods(http.MethodGet)
	router.HandleFunc("/api/tools/{id}/reviews", handler.AddReview).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/categories", handler.ListCategories).Methods(http.MethodGet)

	router.HandleFunc("/api/users/{id}/favorites", handler.ListFavorites).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{id}/favorites/{toolID}", handler.AddFavorite).Methods(http.MethodPut, http.MethodOptions)
	router.HandleFunc("/api/users/{id}/favorites/{toolID}", handler.RemoveFavorite).Methods(http.MethodDelete)

	router.HandleFunc("/api/admin/tools/{id}/approve", handler.ApproveTool).Methods(http.MethodPost)
	router.HandleFunc("/api/admin/tools/{id}/reject", handler.RejectTool).Methods(http.MethodPost)

	router.HandleFunc("/healthz", handler.Healthz).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	router.Use(RequestLogger(logger))
	router.Use(RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	router.Use(CORS)
	router.Use(RequestMetrics(metrics))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		handler: handler,
		server:  server,
		logger:  logger,
		port:    cfg.Server.Port,
	}
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("server starting", zap.String("port", s.port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.server.Shutdown(ctx)
}

// Port returns the server port
func (s *Server) Port() string {
	return s.port
}

// Router exposes the configured handler (useful for testing)
func (s *Server) Router() http.Handler {
	return s.server.Handler
}
