package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/fortuna/borealis/internal/backfill"
	"github.com/fortuna/borealis/internal/cache"
	"github.com/fortuna/borealis/internal/publisher"
	"github.com/fortuna/borealis/internal/reconciliation"
	"github.com/fortuna/borealis/internal/store"
	"github.com/fortuna/borealis/internal/team"
	"github.com/fortuna/borealis/internal/window"
)

// Deps carries everything the handlers need. Cache, Pub and Backfill may
// be nil; the matching routes degrade or go unregistered.
type Deps struct {
	DB       *store.Database
	Cache    *cache.RedisCache
	Resolver *window.Resolver
	Matcher  *reconciliation.Matcher
	Teams    team.Directory
	Pub      *publisher.StreamPublisher
	Backfill *backfill.Service
}

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server
func NewServer(port string, allowedOrigins []string, deps Deps) *Server {
	handler := NewHandler(deps.DB, deps.Cache, deps.Resolver, deps.Matcher, deps.Teams, deps.Pub)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Stats
	api.HandleFunc("/stats/teams", handler.GetTeamStats).Methods("GET")
	api.HandleFunc("/stats/teams/windows", handler.GetStoredTeamWindows).Methods("GET")
	api.HandleFunc("/stats/skaters", handler.GetSkaterStats).Methods("GET")
	api.HandleFunc("/stats/goalies/comparison", handler.GetGoalieComparison).Methods("GET")
	api.HandleFunc("/stats/goalies/{player}/rolling", handler.GetGoalieRolling).Methods("GET")

	// Lines
	api.HandleFunc("/lines", handler.GetLines).Methods("GET")
	api.HandleFunc("/lines/moneyline", handler.GetMoneylines).Methods("GET")
	api.HandleFunc("/lines/players/{player}", handler.GetPlayerLines).Methods("GET")

	// Games
	api.HandleFunc("/games", handler.GetGamesByDate).Methods("GET")
	api.HandleFunc("/games/cleanup", handler.CleanupStaleGames).Methods("POST")
	api.HandleFunc("/games/teams/{team}", handler.GetTeamSchedule).Methods("GET")
	api.HandleFunc("/games/{gameID:[0-9]+}", handler.GetGame).Methods("GET")

	// Backfill operations
	if deps.Backfill != nil {
		backfillHandler := NewBackfillHandler(deps.Backfill)
		api.HandleFunc("/backfill", backfillHandler.HandleBackfillRequest).Methods("POST")
		api.HandleFunc("/backfill/status", backfillHandler.HandleBackfillStatus).Methods("GET")
		api.HandleFunc("/backfill/jobs", backfillHandler.HandleBackfillJobs).Methods("GET")
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	})

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: c.Handler(router),
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
