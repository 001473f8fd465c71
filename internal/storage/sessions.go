package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/repcoach/internal/models"
)

// ErrNotFound is returned when a session or goal does not exist for the
// requesting user.
var ErrNotFound = errors.New("not found")

// CreateSession inserts a new in-progress session row.
func (db *DB) CreateSession(ctx context.Context, s *models.WorkoutSession) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO workout_sessions (id, user_id, started_at, completed)
		 VALUES ($1, $2, $3, false)`,
		s.ID, s.UserID, s.StartedAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// setRow is the flat per-set shape stored in session_sets.
type setRow struct {
	SessionID   uuid.UUID
	ExerciseID  string
	SetNumber   int
	Weight      float64
	Reps        int
	RPE         *float64
	CompletedAt time.Time
}

// InsertSets batch-inserts logged sets for a session. Set numbering is
// per exercise within the session; re-sending the same numbered set is
// a duplicate and is dropped. Returns count inserted.
func (db *DB) InsertSets(ctx context.Context, sessionID uuid.UUID, exerciseID string, startNumber int, sets []models.SetEntry) (int64, error) {
	if len(sets) == 0 {
		return 0, nil
	}

	query := `INSERT INTO session_sets (session_id, exercise_id, set_number, weight_kg, reps, rpe, completed_at) VALUES `
	args := make([]any, 0, len(sets)*7)
	valueStrings := make([]string, 0, len(sets))

	for i, s := range sets {
		base := i * 7
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args, sessionID, exerciseID, startNumber+i, s.Weight, s.Reps, s.RPE, s.CompletedAt)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting sets: %w", err)
	}
	return tag.RowsAffected(), nil
}

// NextSetNumber returns the next free set number for an exercise within
// a session.
func (db *DB) NextSetNumber(ctx context.Context, sessionID uuid.UUID, exerciseID string) (int, error) {
	var next int
	err := db.Pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(set_number), 0) + 1
		 FROM session_sets WHERE session_id = $1 AND exercise_id = $2`,
		sessionID, exerciseID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("querying next set number: %w", err)
	}
	return next, nil
}

// CompleteSession finalizes a session. Completing an already-completed
// or unknown session returns ErrNotFound.
func (db *DB) CompleteSession(ctx context.Context, sessionID uuid.UUID, userID int, endedAt time.Time) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE workout_sessions SET completed = true, ended_at = $3
		 WHERE id = $1 AND user_id = $2 AND NOT completed`,
		sessionID, userID, endedAt)
	if err != nil {
		return fmt.Errorf("completing session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetSession retrieves one session with its sets grouped by exercise.
func (db *DB) GetSession(ctx context.Context, sessionID uuid.UUID, userID int) (*models.WorkoutSession, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, started_at, ended_at, completed
		 FROM workout_sessions WHERE id = $1 AND user_id = $2`,
		sessionID, userID)

	var s models.WorkoutSession
	err := row.Scan(&s.ID, &s.UserID, &s.StartedAt, &s.EndedAt, &s.Completed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	if err := db.attachSets(ctx, []*models.WorkoutSession{&s}); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions retrieves a user's sessions in a time range, newest
// first, with sets attached. The analytics engine calls this with an
// open-ended range to rescan the full history.
func (db *DB) ListSessions(ctx context.Context, userID int, start, end time.Time) ([]models.WorkoutSession, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, started_at, ended_at, completed
		 FROM workout_sessions
		 WHERE user_id = $1 AND started_at >= $2 AND started_at < $3
		 ORDER BY started_at DESC, id`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.WorkoutSession
	for rows.Next() {
		var s models.WorkoutSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.StartedAt, &s.EndedAt, &s.Completed); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*models.WorkoutSession, len(sessions))
	for i := range sessions {
		refs[i] = &sessions[i]
	}
	if err := db.attachSets(ctx, refs); err != nil {
		return nil, err
	}
	return sessions, nil
}

// attachSets loads session_sets for the given sessions in one query and
// groups them per exercise in logged order.
func (db *DB) attachSets(ctx context.Context, sessions []*models.WorkoutSession) error {
	if len(sessions) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*models.WorkoutSession, len(sessions))
	ids := make([]uuid.UUID, 0, len(sessions))
	for _, s := range sessions {
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT session_id, exercise_id, weight_kg, reps, rpe, completed_at
		 FROM session_sets
		 WHERE session_id = ANY($1)
		 ORDER BY session_id, exercise_id, set_number`,
		ids)
	if err != nil {
		return fmt.Errorf("querying sets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sid uuid.UUID
		var exerciseID string
		var set models.SetEntry
		if err := rows.Scan(&sid, &exerciseID, &set.Weight, &set.Reps, &set.RPE, &set.CompletedAt); err != nil {
			return fmt.Errorf("scanning set: %w", err)
		}
		s := byID[sid]
		if s == nil {
			continue
		}
		if n := len(s.Exercises); n > 0 && s.Exercises[n-1].ExerciseID == exerciseID {
			s.Exercises[n-1].Sets = append(s.Exercises[n-1].Sets, set)
		} else {
			s.Exercises = append(s.Exercises, models.SessionExercise{
				ExerciseID: exerciseID,
				Sets:       []models.SetEntry{set},
			})
		}
	}
	return rows.Err()
}
