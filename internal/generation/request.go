// Package generation turns user constraints into a validated workout
// plan. The external model call is isolated behind the orchestrator's
// retry/repair/fallback state machine so everything else in the
// package is deterministic and testable without a live model.
package generation

import (
	"errors"
	"fmt"

	"github.com/claude/repcoach/internal/models"
)

// ErrInvalidRequest indicates malformed caller input. It is reported
// to the caller and never retried.
var ErrInvalidRequest = errors.New("invalid generation request")

// Domain bounds enforced on every plan, model-generated or not.
const (
	MinSets    = 1
	MaxSets    = 10
	MinReps    = 1
	MaxReps    = 50
	MinRestSec = 30
	MaxRestSec = 1000

	MinDurationMin = 10
	MaxDurationMin = 180
)

// PlanRequest carries the validated constraints for one generation.
type PlanRequest struct {
	UserID        int                  `json:"user_id"`
	Goal          models.TrainingGoal  `json:"goal"`
	Level         models.Difficulty    `json:"level"`
	Equipment     []models.Equipment   `json:"equipment"`
	DurationMin   int                  `json:"duration_min"`
	TargetMuscles []models.MuscleGroup `json:"target_muscles,omitempty"`
	Exclusions    []string             `json:"exclusions,omitempty"`
	Preferences   string               `json:"preferences,omitempty"`
}

// Validate checks required fields and bounds. All failures wrap
// ErrInvalidRequest.
func (r *PlanRequest) Validate() error {
	if _, err := models.ParseTrainingGoal(string(r.Goal)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if r.Level < models.DifficultyBeginner || r.Level > models.DifficultyExpert {
		return fmt.Errorf("%w: level out of range", ErrInvalidRequest)
	}
	if r.DurationMin < MinDurationMin || r.DurationMin > MaxDurationMin {
		return fmt.Errorf("%w: duration %d min outside [%d,%d]",
			ErrInvalidRequest, r.DurationMin, MinDurationMin, MaxDurationMin)
	}
	if len(r.Equipment) == 0 {
		return fmt.Errorf("%w: at least one equipment kind is required (use bodyweight for none)", ErrInvalidRequest)
	}
	return nil
}

// ExerciseCountBounds returns the sane exercise-count range for a
// requested duration: roughly one exercise per 5-15 minutes, clamped
// to [3,10].
func ExerciseCountBounds(durationMin int) (min, max int) {
	min = durationMin / 15
	if min < 3 {
		min = 3
	}
	max = durationMin / 5
	if max > 10 {
		max = 10
	}
	if max < min {
		max = min
	}
	return min, max
}
