package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/repcoach/internal/models"
)

// CreateGoal inserts a new goal. The start value anchors progress for
// decreasing targets and never changes afterwards.
func (db *DB) CreateGoal(ctx context.Context, g *models.Goal) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO goals (id, user_id, type, title, target_value, start_value, current_value, unit, deadline, fired_milestones)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		g.ID, g.UserID, string(g.Type), g.Title,
		g.TargetValue, g.StartValue, g.CurrentValue, g.Unit, g.Deadline,
		milestoneSlice(g.FiredMilestones))
	if err != nil {
		return fmt.Errorf("inserting goal: %w", err)
	}
	return nil
}

// GetGoal retrieves one goal.
func (db *DB) GetGoal(ctx context.Context, goalID uuid.UUID, userID int) (*models.Goal, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, type, title, target_value, start_value, current_value, unit, deadline, created_at, fired_milestones
		 FROM goals WHERE id = $1 AND user_id = $2`,
		goalID, userID)
	g, err := scanGoal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying goal: %w", err)
	}
	return g, nil
}

// ListGoals retrieves all goals for a user, oldest first.
func (db *DB) ListGoals(ctx context.Context, userID int) ([]models.Goal, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, type, title, target_value, start_value, current_value, unit, deadline, created_at, fired_milestones
		 FROM goals WHERE user_id = $1
		 ORDER BY created_at, id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// UpdateGoalProgress persists a recomputed current value and the
// latched milestone set.
func (db *DB) UpdateGoalProgress(ctx context.Context, g *models.Goal) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE goals SET current_value = $3, fired_milestones = $4
		 WHERE id = $1 AND user_id = $2`,
		g.ID, g.UserID, g.CurrentValue, milestoneSlice(g.FiredMilestones))
	if err != nil {
		return fmt.Errorf("updating goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteGoal removes a goal.
func (db *DB) DeleteGoal(ctx context.Context, goalID uuid.UUID, userID int) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err != nil {
		return fmt.Errorf("deleting goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanGoal(row pgx.Row) (*models.Goal, error) {
	var g models.Goal
	var typ string
	var fired []int32
	err := row.Scan(&g.ID, &g.UserID, &typ, &g.Title,
		&g.TargetValue, &g.StartValue, &g.CurrentValue, &g.Unit,
		&g.Deadline, &g.CreatedAt, &fired)
	if err != nil {
		return nil, err
	}
	g.Type = models.GoalType(typ)
	g.FiredMilestones = make(map[int]bool, len(fired))
	for _, m := range fired {
		g.FiredMilestones[int(m)] = true
	}
	return &g, nil
}

// milestoneSlice flattens the latched milestone set into a sorted
// integer array for storage.
func milestoneSlice(fired map[int]bool) []int32 {
	var out []int32
	for _, threshold := range models.MilestoneThresholds {
		if fired[threshold] {
			out = append(out, int32(threshold))
		}
	}
	if out == nil {
		out = []int32{}
	}
	return out
}
