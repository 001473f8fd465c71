package mcp

import (
	"context"
	"time"

	"github.com/claude/repcoach/internal/alternatives"
	"github.com/claude/repcoach/internal/analytics"
	"github.com/claude/repcoach/internal/coach"
	"github.com/claude/repcoach/internal/generation"
	"github.com/claude/repcoach/internal/taxonomy"
)

// DataSource abstracts the core for MCP tools so handlers can be
// tested against a fake.
type DataSource interface {
	Taxonomy() *taxonomy.Index
	GeneratePlan(ctx context.Context, userID int, req *generation.PlanRequest) (*generation.Result, error)
	Alternatives(ctx context.Context, exerciseID string, crit alternatives.Criteria) ([]alternatives.Suggestion, error)
	Analytics(ctx context.Context, userID int) (*analytics.Summary, error)
	Goals(ctx context.Context, userID int) ([]coach.GoalView, error)
	Sessions(ctx context.Context, userID int, start, end time.Time) ([]coach.SessionView, error)
}

// Compile-time check: *coach.Core satisfies DataSource.
var _ DataSource = (*coach.Core)(nil)
