package models

import "time"

// RecordKind enumerates the personal-record categories tracked per
// (user, exercise).
type RecordKind string

const (
	RecordMaxWeight    RecordKind = "max_weight"
	RecordMaxReps      RecordKind = "max_reps"
	RecordMaxVolume    RecordKind = "max_volume"
	RecordEstimated1RM RecordKind = "estimated_1rm"
)

// PersonalRecord is the best value for one (exercise, kind) pair.
// Improvement holds the delta over the previous best; zero for a
// first-time record.
type PersonalRecord struct {
	ExerciseID string     `json:"exercise_id"`
	Kind       RecordKind `json:"kind"`
	Value      float64    `json:"value"`
	AchievedAt time.Time  `json:"achieved_at"`
	Improvement float64   `json:"improvement"`
}
