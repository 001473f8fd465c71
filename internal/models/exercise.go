package models

import (
	"fmt"
	"strings"
)

// MuscleGroup is a closed enumeration of trainable muscle groups.
// Values are validated once at the boundary (taxonomy load, request
// decode) so core logic can assume well-formed values.
type MuscleGroup string

const (
	MuscleChest      MuscleGroup = "chest"
	MuscleBack       MuscleGroup = "back"
	MuscleShoulders  MuscleGroup = "shoulders"
	MuscleBiceps     MuscleGroup = "biceps"
	MuscleTriceps    MuscleGroup = "triceps"
	MuscleForearms   MuscleGroup = "forearms"
	MuscleCore       MuscleGroup = "core"
	MuscleQuads      MuscleGroup = "quads"
	MuscleHamstrings MuscleGroup = "hamstrings"
	MuscleGlutes     MuscleGroup = "glutes"
	MuscleCalves     MuscleGroup = "calves"
	MuscleFullBody   MuscleGroup = "full_body"
)

var muscleGroups = map[MuscleGroup]bool{
	MuscleChest: true, MuscleBack: true, MuscleShoulders: true,
	MuscleBiceps: true, MuscleTriceps: true, MuscleForearms: true,
	MuscleCore: true, MuscleQuads: true, MuscleHamstrings: true,
	MuscleGlutes: true, MuscleCalves: true, MuscleFullBody: true,
}

// ParseMuscleGroup validates a raw string against the closed set.
func ParseMuscleGroup(s string) (MuscleGroup, error) {
	mg := MuscleGroup(strings.ToLower(strings.TrimSpace(s)))
	if !muscleGroups[mg] {
		return "", fmt.Errorf("unknown muscle group %q", s)
	}
	return mg, nil
}

// Equipment is a closed enumeration of equipment kinds.
type Equipment string

const (
	EquipmentBarbell    Equipment = "barbell"
	EquipmentDumbbell   Equipment = "dumbbell"
	EquipmentKettlebell Equipment = "kettlebell"
	EquipmentMachine    Equipment = "machine"
	EquipmentCable      Equipment = "cable"
	EquipmentBand       Equipment = "band"
	EquipmentPullupBar  Equipment = "pullup_bar"
	EquipmentBench      Equipment = "bench"
	EquipmentBodyweight Equipment = "bodyweight"
)

var equipmentKinds = map[Equipment]bool{
	EquipmentBarbell: true, EquipmentDumbbell: true, EquipmentKettlebell: true,
	EquipmentMachine: true, EquipmentCable: true, EquipmentBand: true,
	EquipmentPullupBar: true, EquipmentBench: true, EquipmentBodyweight: true,
}

// ParseEquipment validates a raw string against the closed set.
func ParseEquipment(s string) (Equipment, error) {
	eq := Equipment(strings.ToLower(strings.TrimSpace(s)))
	if !equipmentKinds[eq] {
		return "", fmt.Errorf("unknown equipment %q", s)
	}
	return eq, nil
}

// Difficulty is an ordered tier. The numeric value is the tier index,
// used for distance calculations in alternative scoring.
type Difficulty int

const (
	DifficultyBeginner Difficulty = iota
	DifficultyIntermediate
	DifficultyAdvanced
	DifficultyExpert
)

var difficultyNames = map[Difficulty]string{
	DifficultyBeginner:     "beginner",
	DifficultyIntermediate: "intermediate",
	DifficultyAdvanced:     "advanced",
	DifficultyExpert:       "expert",
}

func (d Difficulty) String() string {
	if name, ok := difficultyNames[d]; ok {
		return name
	}
	return fmt.Sprintf("difficulty(%d)", int(d))
}

// ParseDifficulty validates a raw string against the ordered tiers.
func ParseDifficulty(s string) (Difficulty, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for d, name := range difficultyNames {
		if name == needle {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown difficulty %q", s)
}

// Distance returns the absolute tier distance between two difficulties.
func (d Difficulty) Distance(other Difficulty) int {
	diff := int(d) - int(other)
	if diff < 0 {
		diff = -diff
	}
	return diff
}

// Mechanics distinguishes compound from isolation movements.
type Mechanics string

const (
	MechanicsCompound  Mechanics = "compound"
	MechanicsIsolation Mechanics = "isolation"
)

// ParseMechanics validates a raw string.
func ParseMechanics(s string) (Mechanics, error) {
	m := Mechanics(strings.ToLower(strings.TrimSpace(s)))
	if m != MechanicsCompound && m != MechanicsIsolation {
		return "", fmt.Errorf("unknown mechanics %q", s)
	}
	return m, nil
}

// Exercise is immutable reference data owned by the taxonomy. It is
// looked up by ID and never duplicated into plans or sessions.
type Exercise struct {
	ID               string        `json:"id" yaml:"id"`
	Name             string        `json:"name" yaml:"name"`
	PrimaryMuscles   []MuscleGroup `json:"primary_muscles" yaml:"primary_muscles"`
	SecondaryMuscles []MuscleGroup `json:"secondary_muscles,omitempty" yaml:"secondary_muscles"`
	Equipment        []Equipment   `json:"equipment,omitempty" yaml:"equipment"`
	Difficulty       Difficulty    `json:"-" yaml:"-"`
	DifficultyName   string        `json:"difficulty" yaml:"difficulty"`
	Mechanics        Mechanics     `json:"mechanics" yaml:"mechanics"`
	Tags             []string      `json:"tags,omitempty" yaml:"tags"`
	Aliases          []string      `json:"-" yaml:"aliases"`
	DefaultSets      int           `json:"default_sets" yaml:"default_sets"`
	DefaultReps      int           `json:"default_reps" yaml:"default_reps"`
	DefaultRestSec   int           `json:"default_rest_sec" yaml:"default_rest_sec"`
	CaloriesPerMin   float64       `json:"calories_per_min" yaml:"calories_per_min"`
	CaloriesPerRep   float64       `json:"calories_per_rep" yaml:"calories_per_rep"`
}

// HasTag reports whether the exercise carries the given type tag.
func (e *Exercise) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// RequiresOnly reports whether every piece of required equipment is in
// the available set. Bodyweight exercises always pass.
func (e *Exercise) RequiresOnly(available map[Equipment]bool) bool {
	for _, eq := range e.Equipment {
		if eq == EquipmentBodyweight {
			continue
		}
		if !available[eq] {
			return false
		}
	}
	return true
}
