// Package mcp exposes the coaching core over the Model Context
// Protocol: plan generation, alternative suggestions, analytics, and
// goal status as tools, plus the exercise catalog and a progress
// summary as resources.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("RepCoach", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("RepCoach fitness coaching server. Generate workout plans, find exercise alternatives, and query training analytics and goal progress. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGenerateWorkout, Handler: h.generateWorkout},
		server.ServerTool{Tool: toolSuggestAlternatives, Handler: h.suggestAlternatives},
		server.ServerTool{Tool: toolGetProgressAnalytics, Handler: h.getProgressAnalytics},
		server.ServerTool{Tool: toolGetGoalStatus, Handler: h.getGoalStatus},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
		server.ServerResource{Resource: resProgressSummary, Handler: h.progressSummary},
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resExerciseCatalog = mcp.NewResource(
	"repcoach://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("All exercises with muscle groups, equipment, difficulty, and defaults"),
	mcp.WithMIMEType("application/json"),
)

var resProgressSummary = mcp.NewResource(
	"repcoach://progress_summary",
	"Progress Summary",
	mcp.WithResourceDescription("Training streaks, personal records, weekly volume trend, and goal status"),
	mcp.WithMIMEType("application/json"),
)

var resRecentSessions = mcp.NewResource(
	"repcoach://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("Workout sessions from the last 14 days with per-session metrics"),
	mcp.WithMIMEType("application/json"),
)
