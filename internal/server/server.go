// Package server exposes the coaching API over chi. Read endpoints are
// open (tsnet gates network access); write endpoints additionally
// require the API key.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"tailscale.com/client/tailscale"

	"github.com/claude/repcoach/internal/coach"
	"github.com/claude/repcoach/internal/storage"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	core   *coach.Core
	db     *storage.DB
	log    *slog.Logger
	apiKey string
	ts     *tailscale.LocalClient
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(core *coach.Core, db *storage.DB, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		core:   core,
		db:     db,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale enables per-request identity resolution via tsnet WhoIs.
// Without it every request maps to the default local user.
func (s *Server) SetTailscale(lc *tailscale.LocalClient) {
	s.ts = lc
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Catalog (read-only, no auth)
	s.router.Get("/api/v1/exercises", s.handleListExercises)
	s.router.Get("/api/v1/exercises/{id}", s.handleGetExercise)
	s.router.Get("/api/v1/exercises/{id}/alternatives", s.handleAlternatives)

	// Plans
	s.router.Get("/api/v1/plans", s.handlePlanHistory)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/plans/generate", s.handleGeneratePlan)
	})

	// Sessions
	s.router.Get("/api/v1/sessions", s.handleListSessions)
	s.router.Get("/api/v1/sessions/{id}", s.handleGetSession)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/sessions", s.handleStartSession)
		r.Post("/api/v1/sessions/{id}/sets", s.handleLogSets)
		r.Post("/api/v1/sessions/{id}/complete", s.handleCompleteSession)
	})

	// Analytics
	s.router.Get("/api/v1/analytics", s.handleAnalytics)
	s.router.Get("/api/v1/analytics/volume", s.handleWeeklyVolume)

	// Goals
	s.router.Get("/api/v1/goals", s.handleListGoals)
	s.router.Get("/api/v1/goals/{id}", s.handleGetGoal)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/goals", s.handleCreateGoal)
		r.Post("/api/v1/goals/{id}/progress", s.handleGoalProgress)
		r.Delete("/api/v1/goals/{id}", s.handleDeleteGoal)
	})
}

// userID resolves the requesting user. With tsnet enabled the Tailscale
// identity maps onto a user row; otherwise everything belongs to the
// default local user.
func (s *Server) userID(r *http.Request) int {
	if s.ts == nil {
		return 1
	}
	who, err := s.ts.WhoIs(r.Context(), r.RemoteAddr)
	if err != nil || who.UserProfile == nil {
		s.log.Warn("whois failed, using default user", "error", err)
		return 1
	}
	id, err := s.db.GetOrCreateUser(r.Context(), who.UserProfile.LoginName, who.UserProfile.DisplayName)
	if err != nil {
		s.log.Error("user lookup failed", "login", who.UserProfile.LoginName, "error", err)
		return 1
	}
	return id
}
