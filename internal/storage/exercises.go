package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/repcoach/internal/models"
)

// UpsertExercises batch-syncs the exercise catalog into the database.
// Called at startup with the embedded seed so session sets have a
// referential anchor; re-running with unchanged data is a no-op from
// the caller's point of view. Returns the number of rows written.
func (db *DB) UpsertExercises(ctx context.Context, exercises []*models.Exercise) (int64, error) {
	if len(exercises) == 0 {
		return 0, nil
	}

	query := `INSERT INTO exercises (id, name, primary_muscles, secondary_muscles, equipment, difficulty, mechanics, tags, default_sets, default_reps, default_rest_sec) VALUES `
	args := make([]any, 0, len(exercises)*11)
	valueStrings := make([]string, 0, len(exercises))

	for i, e := range exercises {
		base := i * 11
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10, base+11,
		))
		args = append(args, e.ID, e.Name,
			muscleStrings(e.PrimaryMuscles), muscleStrings(e.SecondaryMuscles),
			equipmentStrings(e.Equipment), e.DifficultyName, string(e.Mechanics),
			e.Tags, e.DefaultSets, e.DefaultReps, e.DefaultRestSec)
	}

	query += strings.Join(valueStrings, ",") + ` ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		primary_muscles = EXCLUDED.primary_muscles,
		secondary_muscles = EXCLUDED.secondary_muscles,
		equipment = EXCLUDED.equipment,
		difficulty = EXCLUDED.difficulty,
		mechanics = EXCLUDED.mechanics,
		tags = EXCLUDED.tags,
		default_sets = EXCLUDED.default_sets,
		default_reps = EXCLUDED.default_reps,
		default_rest_sec = EXCLUDED.default_rest_sec`

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("upserting exercises: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ExerciseIDs returns the catalog IDs currently present, for validating
// incoming set logs against known exercises.
func (db *DB) ExerciseIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id FROM exercises`)
	if err != nil {
		return nil, fmt.Errorf("querying exercise ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning exercise id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func muscleStrings(mgs []models.MuscleGroup) []string {
	out := make([]string, len(mgs))
	for i, m := range mgs {
		out[i] = string(m)
	}
	return out
}

func equipmentStrings(eqs []models.Equipment) []string {
	out := make([]string, len(eqs))
	for i, e := range eqs {
		out[i] = string(e)
	}
	return out
}
