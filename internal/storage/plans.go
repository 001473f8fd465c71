package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/repcoach/internal/models"
)

// SavedPlan is a generated plan with its persistence envelope.
type SavedPlan struct {
	Plan      models.WorkoutPlan `json:"plan"`
	Source    models.PlanSource  `json:"source"`
	CreatedAt time.Time          `json:"created_at"`
}

// InsertPlan persists a generated plan for the user's history. Plans
// are immutable once saved; re-inserting the same plan ID is a no-op.
func (db *DB) InsertPlan(ctx context.Context, userID int, plan *models.WorkoutPlan, source models.PlanSource) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO workout_plans (id, user_id, source, plan_json)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		plan.ID, userID, string(source), payload)
	if err != nil {
		return fmt.Errorf("inserting plan: %w", err)
	}
	return nil
}

// GetPlan retrieves one saved plan.
func (db *DB) GetPlan(ctx context.Context, planID uuid.UUID, userID int) (*SavedPlan, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT source, plan_json, created_at
		 FROM workout_plans WHERE id = $1 AND user_id = $2`,
		planID, userID)

	var source string
	var payload []byte
	var created time.Time
	err := row.Scan(&source, &payload, &created)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying plan: %w", err)
	}

	sp := &SavedPlan{Source: models.PlanSource(source), CreatedAt: created}
	if err := json.Unmarshal(payload, &sp.Plan); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	return sp, nil
}

// ListPlans retrieves a user's saved plans, newest first.
func (db *DB) ListPlans(ctx context.Context, userID int, limit int) ([]SavedPlan, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT source, plan_json, created_at
		 FROM workout_plans WHERE user_id = $1
		 ORDER BY created_at DESC, id LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	var plans []SavedPlan
	for rows.Next() {
		var source string
		var payload []byte
		var sp SavedPlan
		if err := rows.Scan(&source, &payload, &sp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		sp.Source = models.PlanSource(source)
		if err := json.Unmarshal(payload, &sp.Plan); err != nil {
			return nil, fmt.Errorf("decoding plan: %w", err)
		}
		plans = append(plans, sp)
	}
	return plans, rows.Err()
}
