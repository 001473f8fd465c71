package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GoalType enumerates what a goal measures.
type GoalType string

const (
	GoalTypeWeight    GoalType = "weight"
	GoalTypeStrength  GoalType = "strength"
	GoalTypeVolume    GoalType = "volume"
	GoalTypeFrequency GoalType = "frequency"
	GoalTypeEndurance GoalType = "endurance"
	GoalTypeCustom    GoalType = "custom"
)

var goalTypes = map[GoalType]bool{
	GoalTypeWeight: true, GoalTypeStrength: true, GoalTypeVolume: true,
	GoalTypeFrequency: true, GoalTypeEndurance: true, GoalTypeCustom: true,
}

// ParseGoalType validates a raw string against the closed set.
func ParseGoalType(s string) (GoalType, error) {
	g := GoalType(s)
	if !goalTypes[g] {
		return "", fmt.Errorf("unknown goal type %q", s)
	}
	return g, nil
}

// GoalStatus is always derived from progress and deadline, never set
// directly. Storing a status that disagrees with the derivation is a
// data inconsistency.
type GoalStatus string

const (
	StatusNotStarted  GoalStatus = "not_started"
	StatusJustStarted GoalStatus = "just_started"
	StatusOnTrack     GoalStatus = "on_track"
	StatusAlmostThere GoalStatus = "almost_there"
	StatusCompleted   GoalStatus = "completed"
	StatusFailed      GoalStatus = "failed"
)

// MilestoneThresholds are the fixed percentage checkpoints. Each fires
// exactly once per goal.
var MilestoneThresholds = []int{25, 50, 75, 100}

// Goal tracks a user target. CurrentValue is kept in sync with
// analytics output; StartValue anchors progress for decreasing goals
// (e.g. bodyweight loss).
type Goal struct {
	ID              uuid.UUID    `json:"id"`
	UserID          int          `json:"user_id"`
	Type            GoalType     `json:"type"`
	Title           string       `json:"title"`
	TargetValue     float64      `json:"target_value"`
	StartValue      float64      `json:"start_value"`
	CurrentValue    float64      `json:"current_value"`
	Unit            string       `json:"unit"`
	Deadline        time.Time    `json:"deadline"`
	CreatedAt       time.Time    `json:"created_at"`
	FiredMilestones map[int]bool `json:"fired_milestones,omitempty"`
}

// Decreasing reports whether progress means moving the value down
// (target below start, as in weight loss).
func (g *Goal) Decreasing() bool {
	return g.TargetValue < g.StartValue
}
