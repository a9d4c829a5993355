package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/adpilot/adpilot/internal/store"
)

type Server struct {
	store     *store.SQLiteStore
	port      int
	logger    *slog.Logger
	router    *http.ServeMux
	startTime time.Time
}

func New(s *store.SQLiteStore, port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	srv := &Server{
		store:     s,
		port:      port,
		logger:    logger,
		router:    http.NewServeMux(),
		startTime: time.Now(),
	}

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.Handle("/api/significance", cors(http.HandlerFunc(s.handleSignificance)))
	s.router.Handle("/api/experiments", cors(http.HandlerFunc(s.handleExperiments)))
	s.router.Handle("/api/experiments/", cors(http.HandlerFunc(s.handleExperiment)))
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)

	fmt.Println()
	fmt.Printf("adpilot running on http://localhost:%d\n", s.port)
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop")

	s.logger.Info("server starting", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// Handler returns the router wrapped with request logging
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.router)
}
