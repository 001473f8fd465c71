package models

import (
	"time"

	"github.com/google/uuid"
)

// SetEntry is one completed set within a session.
type SetEntry struct {
	Weight      float64   `json:"weight_kg"`
	Reps        int       `json:"reps"`
	RPE         *float64  `json:"rpe,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// Volume returns weight × reps for the set.
func (s SetEntry) Volume() float64 {
	return s.Weight * float64(s.Reps)
}

// SessionExercise groups the sets logged for one exercise within a
// session, in completion order.
type SessionExercise struct {
	ExerciseID string     `json:"exercise_id"`
	Sets       []SetEntry `json:"sets"`
}

// WorkoutSession is one logged training session. Mutated by each
// logged set while in progress, immutable once finalized. From the
// analytics engine's point of view history is append-only: past
// sessions are read, never rewritten.
type WorkoutSession struct {
	ID        uuid.UUID         `json:"id"`
	UserID    int               `json:"user_id"`
	StartedAt time.Time         `json:"started_at"`
	EndedAt   *time.Time        `json:"ended_at,omitempty"`
	Exercises []SessionExercise `json:"exercises"`
	Completed bool              `json:"completed"`
}

// SessionMetrics are derived values. They are always recomputed from
// the logged sets via ComputeSessionMetrics and never stored as
// independently mutable fields.
type SessionMetrics struct {
	TotalVolume float64  `json:"total_volume_kg"`
	TotalSets   int      `json:"total_sets"`
	TotalReps   int      `json:"total_reps"`
	AvgRPE      *float64 `json:"avg_rpe,omitempty"`
}

// ComputeSessionMetrics derives session metrics as a pure function of
// the logged sets.
func ComputeSessionMetrics(s *WorkoutSession) SessionMetrics {
	var m SessionMetrics
	var rpeSum float64
	var rpeCount int
	for _, ex := range s.Exercises {
		for _, set := range ex.Sets {
			m.TotalVolume += set.Volume()
			m.TotalSets++
			m.TotalReps += set.Reps
			if set.RPE != nil {
				rpeSum += *set.RPE
				rpeCount++
			}
		}
	}
	if rpeCount > 0 {
		avg := rpeSum / float64(rpeCount)
		m.AvgRPE = &avg
	}
	return m
}

// HasSets reports whether the session contains at least one logged set.
// Sessions without sets are skipped by analytics aggregation.
func (s *WorkoutSession) HasSets() bool {
	for _, ex := range s.Exercises {
		if len(ex.Sets) > 0 {
			return true
		}
	}
	return false
}
