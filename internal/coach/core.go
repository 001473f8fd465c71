// Package coach is the service layer tying generation, alternatives,
// analytics, and goals to storage. Both the HTTP handlers and the MCP
// tools call through here so the two surfaces cannot drift apart.
package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repcoach/internal/alternatives"
	"github.com/claude/repcoach/internal/analytics"
	"github.com/claude/repcoach/internal/generation"
	"github.com/claude/repcoach/internal/goals"
	"github.com/claude/repcoach/internal/llm"
	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/storage"
	"github.com/claude/repcoach/internal/taxonomy"
)

var (
	// ErrSessionCompleted means a write hit a finalized session.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrUnknownExercise means a set log referenced an exercise absent
	// from the taxonomy.
	ErrUnknownExercise = errors.New("unknown exercise")
)

// Core bundles the subsystems behind one API.
type Core struct {
	db   *storage.DB
	idx  *taxonomy.Index
	orch *generation.Orchestrator
	sugg *alternatives.Suggester
	loc  *time.Location
	log  *slog.Logger
}

// New wires the core. client and cache may be nil (generation then
// always falls back, reasons stay templated); loc nil means UTC.
func New(db *storage.DB, idx *taxonomy.Index, client llm.Client, cache *generation.Cache, cfg generation.OrchestratorConfig, loc *time.Location, log *slog.Logger) *Core {
	if loc == nil {
		loc = time.UTC
	}
	return &Core{
		db:   db,
		idx:  idx,
		orch: generation.NewOrchestrator(client, idx, cache, cfg, log),
		sugg: alternatives.NewSuggester(idx, client, log),
		loc:  loc,
		log:  log,
	}
}

// Taxonomy exposes the exercise catalog.
func (c *Core) Taxonomy() *taxonomy.Index { return c.idx }

// GeneratePlan runs the generation pipeline and persists the result in
// the user's plan history. A persistence failure is logged, not
// surfaced; the plan is already usable.
func (c *Core) GeneratePlan(ctx context.Context, userID int, req *generation.PlanRequest) (*generation.Result, error) {
	res, err := c.orch.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.db.InsertPlan(ctx, userID, res.Plan, res.Source); err != nil {
		c.log.Warn("plan history write failed", "plan_id", res.Plan.ID, "error", err)
	}
	return res, nil
}

// PlanHistory lists the user's saved plans, newest first.
func (c *Core) PlanHistory(ctx context.Context, userID, limit int) ([]storage.SavedPlan, error) {
	return c.db.ListPlans(ctx, userID, limit)
}

// Alternatives returns ranked substitutes for an exercise.
func (c *Core) Alternatives(ctx context.Context, exerciseID string, crit alternatives.Criteria) ([]alternatives.Suggestion, error) {
	return c.sugg.Suggest(ctx, exerciseID, crit)
}

// StartSession opens a new in-progress session.
func (c *Core) StartSession(ctx context.Context, userID int, startedAt time.Time) (*models.WorkoutSession, error) {
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	s := &models.WorkoutSession{
		ID:        uuid.New(),
		UserID:    userID,
		StartedAt: startedAt,
	}
	if err := c.db.CreateSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// LogSets appends sets for one exercise to an in-progress session.
func (c *Core) LogSets(ctx context.Context, userID int, sessionID uuid.UUID, exerciseID string, sets []models.SetEntry) (int64, error) {
	if _, err := c.idx.GetByID(exerciseID); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownExercise, exerciseID)
	}
	s, err := c.db.GetSession(ctx, sessionID, userID)
	if err != nil {
		return 0, err
	}
	if s.Completed {
		return 0, ErrSessionCompleted
	}

	now := time.Now()
	for i := range sets {
		if sets[i].CompletedAt.IsZero() {
			sets[i].CompletedAt = now
		}
	}

	next, err := c.db.NextSetNumber(ctx, sessionID, exerciseID)
	if err != nil {
		return 0, err
	}
	return c.db.InsertSets(ctx, sessionID, exerciseID, next, sets)
}

// SessionView is a session with its derived metrics attached.
type SessionView struct {
	models.WorkoutSession
	Metrics models.SessionMetrics `json:"metrics"`
}

// FinishSession finalizes a session and returns it with metrics.
func (c *Core) FinishSession(ctx context.Context, userID int, sessionID uuid.UUID, endedAt time.Time) (*SessionView, error) {
	if endedAt.IsZero() {
		endedAt = time.Now()
	}
	if err := c.db.CompleteSession(ctx, sessionID, userID, endedAt); err != nil {
		return nil, err
	}
	return c.Session(ctx, userID, sessionID)
}

// Session retrieves one session with metrics.
func (c *Core) Session(ctx context.Context, userID int, sessionID uuid.UUID) (*SessionView, error) {
	s, err := c.db.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	return &SessionView{WorkoutSession: *s, Metrics: models.ComputeSessionMetrics(s)}, nil
}

// Sessions lists sessions in a time range, newest first.
func (c *Core) Sessions(ctx context.Context, userID int, start, end time.Time) ([]SessionView, error) {
	list, err := c.db.ListSessions(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	views := make([]SessionView, len(list))
	for i := range list {
		views[i] = SessionView{WorkoutSession: list[i], Metrics: models.ComputeSessionMetrics(&list[i])}
	}
	return views, nil
}

// historyStart is early enough to cover any real training history.
var historyStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Analytics rescans the user's full session history and derives
// streaks, records, weekly volume, and trend.
func (c *Core) Analytics(ctx context.Context, userID int) (*analytics.Summary, error) {
	sessions, err := c.db.ListSessions(ctx, userID, historyStart, time.Now().AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return analytics.Compute(sessions, c.loc, time.Now(), c.log), nil
}

// GoalView is a goal with its derived progress and status.
type GoalView struct {
	models.Goal
	ProgressPct float64           `json:"progress_pct"`
	Status      models.GoalStatus `json:"status"`
}

// CreateGoal stores a new goal and returns its initial view.
func (c *Core) CreateGoal(ctx context.Context, g *models.Goal) (*GoalView, error) {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	// A decreasing goal starts at its anchor value, not at zero.
	if g.CurrentValue == 0 && g.Decreasing() {
		g.CurrentValue = g.StartValue
	}
	if err := c.db.CreateGoal(ctx, g); err != nil {
		return nil, err
	}
	return c.goalView(g), nil
}

// Goals lists the user's goals with derived status, oldest first.
func (c *Core) Goals(ctx context.Context, userID int) ([]GoalView, error) {
	list, err := c.db.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]GoalView, len(list))
	for i := range list {
		views[i] = *c.goalView(&list[i])
	}
	return views, nil
}

// Goal retrieves one goal with derived status.
func (c *Core) Goal(ctx context.Context, userID int, goalID uuid.UUID) (*GoalView, error) {
	g, err := c.db.GetGoal(ctx, goalID, userID)
	if err != nil {
		return nil, err
	}
	return c.goalView(g), nil
}

// GoalUpdate reports the outcome of a progress recompute.
type GoalUpdate struct {
	GoalView
	NewMilestones []int `json:"new_milestones,omitempty"`
}

// UpdateGoalValue records a fresh current value, recomputes status, and
// persists the latched milestones. Milestones fire exactly once per
// goal; callers can rely on NewMilestones never repeating a threshold.
func (c *Core) UpdateGoalValue(ctx context.Context, userID int, goalID uuid.UUID, value float64) (*GoalUpdate, error) {
	g, err := c.db.GetGoal(ctx, goalID, userID)
	if err != nil {
		return nil, err
	}

	status, fired := goals.Recompute(g, value, time.Now())
	if err := c.db.UpdateGoalProgress(ctx, g); err != nil {
		return nil, err
	}

	if len(fired) > 0 {
		c.log.Info("goal milestones reached", "goal_id", g.ID, "milestones", fired)
	}
	return &GoalUpdate{
		GoalView:      GoalView{Goal: *g, ProgressPct: goals.Progress(g, g.CurrentValue), Status: status},
		NewMilestones: fired,
	}, nil
}

// DeleteGoal removes a goal.
func (c *Core) DeleteGoal(ctx context.Context, userID int, goalID uuid.UUID) error {
	return c.db.DeleteGoal(ctx, goalID, userID)
}

func (c *Core) goalView(g *models.Goal) *GoalView {
	pct := goals.Progress(g, g.CurrentValue)
	return &GoalView{
		Goal:        *g,
		ProgressPct: pct,
		Status:      goals.DeriveStatus(pct, time.Now(), g.Deadline),
	}
}
