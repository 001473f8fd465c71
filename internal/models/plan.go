package models

import (
	"fmt"

	"github.com/google/uuid"
)

// PlanSource records whether a plan came from the model or from the
// rule-based fallback. Observable to callers for UX and metrics only.
type PlanSource string

const (
	SourceModel    PlanSource = "model"
	SourceFallback PlanSource = "fallback"
)

// PlannedExercise is one slot in a workout plan. ExerciseID always
// resolves in the taxonomy; the validator guarantees this before a
// plan leaves the generation pipeline.
type PlannedExercise struct {
	ExerciseID string `json:"exercise_id"`
	Name       string `json:"name"`
	Sets       int    `json:"sets"`
	Reps       int    `json:"reps"`
	RestSec    int    `json:"rest_sec"`
	Notes      string `json:"notes,omitempty"`
}

// WorkoutPlan is the output of the generation pipeline. Immutable once
// returned; persistence is handled by an external collaborator.
type WorkoutPlan struct {
	ID                uuid.UUID         `json:"id"`
	Name              string            `json:"name"`
	Exercises         []PlannedExercise `json:"exercises"`
	EstimatedDuration int               `json:"estimated_duration_min"`
	EstimatedCalories float64           `json:"estimated_calories"`
	Rationale         string            `json:"rationale,omitempty"`
}

// TrainingGoal enumerates what a generated plan optimizes for.
type TrainingGoal string

const (
	GoalStrength    TrainingGoal = "strength"
	GoalHypertrophy TrainingGoal = "hypertrophy"
	GoalEndurance   TrainingGoal = "endurance"
	GoalWeightLoss  TrainingGoal = "weight_loss"
	GoalGeneral     TrainingGoal = "general_fitness"
)

var trainingGoals = map[TrainingGoal]bool{
	GoalStrength: true, GoalHypertrophy: true, GoalEndurance: true,
	GoalWeightLoss: true, GoalGeneral: true,
}

// ParseTrainingGoal validates a raw string against the closed set.
func ParseTrainingGoal(s string) (TrainingGoal, error) {
	g := TrainingGoal(s)
	if !trainingGoals[g] {
		return "", fmt.Errorf("unknown training goal %q", s)
	}
	return g, nil
}
