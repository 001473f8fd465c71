package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/repcoach/internal/alternatives"
	"github.com/claude/repcoach/internal/generation"
	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/taxonomy"
)

// defaultTimeRange returns start/end defaulting to the last 30 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -30)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// splitCSV splits a comma-separated parameter into trimmed non-empty
// parts.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// --- Tool definitions ---

var toolGenerateWorkout = mcp.NewTool("generate_workout",
	mcp.WithDescription("Generate a validated workout plan for the user's constraints. Always returns a usable plan; when the model path fails it falls back to a rule-based template and reports the source."),
	mcp.WithString("goal", mcp.Required(), mcp.Description("Training goal"), mcp.Enum("strength", "hypertrophy", "endurance", "weight_loss", "general_fitness")),
	mcp.WithString("level", mcp.Required(), mcp.Description("Experience level"), mcp.Enum("beginner", "intermediate", "advanced", "expert")),
	mcp.WithString("equipment", mcp.Required(), mcp.Description("Comma-separated available equipment (e.g. 'barbell,dumbbell,bench'). Use 'bodyweight' for none.")),
	mcp.WithNumber("duration_min", mcp.Required(), mcp.Description("Target workout duration in minutes (10-180)")),
	mcp.WithString("target_muscles", mcp.Description("Comma-separated muscle groups to focus on (e.g. 'chest,triceps')")),
	mcp.WithString("exclusions", mcp.Description("Comma-separated exercise names or IDs to avoid")),
	mcp.WithString("preferences", mcp.Description("Free-form preferences passed to the model")),
)

var toolSuggestAlternatives = mcp.NewTool("suggest_alternatives",
	mcp.WithDescription("Rank substitute exercises for a given exercise by muscle overlap, mechanics, and difficulty. Accepts an exercise ID or a common name/abbreviation."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise ID or name (e.g. 'barbell-bench-press', 'OHP')")),
	mcp.WithString("equipment", mcp.Description("Comma-separated available equipment; results are restricted to it")),
	mcp.WithString("difficulty", mcp.Description("Preferred difficulty tier"), mcp.Enum("beginner", "intermediate", "advanced", "expert")),
	mcp.WithNumber("limit", mcp.Description("Maximum suggestions (default 5)")),
)

var toolGetProgressAnalytics = mcp.NewTool("get_progress_analytics",
	mcp.WithDescription("Training streaks, personal records (max weight/reps/volume, estimated 1RM), weekly volume buckets, and trend classification derived from the full session history."),
)

var toolGetGoalStatus = mcp.NewTool("get_goal_status",
	mcp.WithDescription("All goals with derived progress percentage and status (not_started, just_started, on_track, almost_there, completed, failed)."),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("Browse the exercise catalog with optional filters."),
	mcp.WithString("muscle", mcp.Description("Filter by muscle group (primary or secondary)")),
	mcp.WithString("equipment", mcp.Description("Comma-separated equipment; only exercises doable with it")),
	mcp.WithString("difficulty", mcp.Description("Filter by difficulty tier"), mcp.Enum("beginner", "intermediate", "advanced", "expert")),
	mcp.WithString("tag", mcp.Description("Filter by type tag (e.g. 'push', 'pull', 'legs')")),
)

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("Query logged workout sessions with per-session volume, set, and rep totals."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

// --- Tool handlers ---

func (h *handlers) generateWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	goalStr, err := req.RequireString("goal")
	if err != nil {
		return mcp.NewToolResultError("goal parameter is required"), nil
	}
	levelStr, err := req.RequireString("level")
	if err != nil {
		return mcp.NewToolResultError("level parameter is required"), nil
	}
	equipStr, err := req.RequireString("equipment")
	if err != nil {
		return mcp.NewToolResultError("equipment parameter is required"), nil
	}
	duration, err := req.RequireInt("duration_min")
	if err != nil {
		return mcp.NewToolResultError("duration_min parameter is required"), nil
	}

	goal, err := models.ParseTrainingGoal(goalStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	level, err := models.ParseDifficulty(levelStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	planReq := &generation.PlanRequest{
		UserID:      UserIDFromContext(ctx),
		Goal:        goal,
		Level:       level,
		DurationMin: duration,
		Exclusions:  splitCSV(req.GetString("exclusions", "")),
		Preferences: req.GetString("preferences", ""),
	}
	for _, raw := range splitCSV(equipStr) {
		eq, err := models.ParseEquipment(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		planReq.Equipment = append(planReq.Equipment, eq)
	}
	for _, raw := range splitCSV(req.GetString("target_muscles", "")) {
		mg, err := models.ParseMuscleGroup(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		planReq.TargetMuscles = append(planReq.TargetMuscles, mg)
	}

	result, err := h.ds.GeneratePlan(ctx, planReq.UserID, planReq)
	if err != nil {
		h.log.Error("mcp generate_workout", "error", err)
		return mcp.NewToolResultError("generation failed: " + err.Error()), nil
	}

	out, err := mcp.NewToolResultJSON(result)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) suggestAlternatives(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	idx := h.ds.Taxonomy()
	exerciseID := raw
	if _, lookErr := idx.GetByID(raw); lookErr != nil {
		resolved, ok := idx.Resolve(raw)
		if !ok {
			return mcp.NewToolResultError("unknown exercise: " + raw), nil
		}
		exerciseID = resolved
	}

	crit := alternatives.Criteria{Limit: req.GetInt("limit", 0)}
	for _, part := range splitCSV(req.GetString("equipment", "")) {
		eq, err := models.ParseEquipment(part)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		crit.AvailableEquipment = append(crit.AvailableEquipment, eq)
	}
	if v := req.GetString("difficulty", ""); v != "" {
		d, err := models.ParseDifficulty(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		crit.Difficulty = &d
	}

	suggestions, err := h.ds.Alternatives(ctx, exerciseID, crit)
	if err != nil {
		h.log.Error("mcp suggest_alternatives", "error", err)
		return mcp.NewToolResultError("suggestion failed: " + err.Error()), nil
	}

	out, err := mcp.NewToolResultJSON(suggestions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) getProgressAnalytics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := h.ds.Analytics(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_progress_analytics", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out, err := mcp.NewToolResultJSON(summary)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) getGoalStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	views, err := h.ds.Goals(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_goal_status", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out, err := mcp.NewToolResultJSON(views)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var crit taxonomy.FilterCriteria
	if v := req.GetString("muscle", ""); v != "" {
		mg, err := models.ParseMuscleGroup(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		crit.Muscle = &mg
	}
	if v := req.GetString("difficulty", ""); v != "" {
		d, err := models.ParseDifficulty(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		crit.Difficulty = &d
	}
	for _, part := range splitCSV(req.GetString("equipment", "")) {
		eq, err := models.ParseEquipment(part)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		crit.Equipment = append(crit.Equipment, eq)
	}
	crit.Tag = req.GetString("tag", "")

	out, err := mcp.NewToolResultJSON(h.ds.Taxonomy().Filter(crit))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	sessions, err := h.ds.Sessions(ctx, UserIDFromContext(ctx), start, end)
	if err != nil {
		h.log.Error("mcp get_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}
