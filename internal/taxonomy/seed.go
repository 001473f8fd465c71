package taxonomy

import (
	"embed"
	"fmt"

	"github.com/claude/repcoach/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed data/exercises.yaml
var seedFS embed.FS

type seedFile struct {
	Exercises []seedExercise `yaml:"exercises"`
}

type seedExercise struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	PrimaryMuscles   []string `yaml:"primary_muscles"`
	SecondaryMuscles []string `yaml:"secondary_muscles"`
	Equipment        []string `yaml:"equipment"`
	Difficulty       string   `yaml:"difficulty"`
	Mechanics        string   `yaml:"mechanics"`
	Tags             []string `yaml:"tags"`
	Aliases          []string `yaml:"aliases"`
	DefaultSets      int      `yaml:"default_sets"`
	DefaultReps      int      `yaml:"default_reps"`
	DefaultRestSec   int      `yaml:"default_rest_sec"`
	CaloriesPerMin   float64  `yaml:"calories_per_min"`
	CaloriesPerRep   float64  `yaml:"calories_per_rep"`
}

// LoadEmbedded parses the embedded seed catalog and builds the index.
// Every enum value is validated here so the rest of the core can
// assume well-formed exercises.
func LoadEmbedded() (*Index, error) {
	data, err := seedFS.ReadFile("data/exercises.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded seed: %w", err)
	}
	return loadYAML(data)
}

func loadYAML(data []byte) (*Index, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing exercise seed: %w", err)
	}
	if len(f.Exercises) == 0 {
		return nil, fmt.Errorf("exercise seed is empty")
	}

	exercises := make([]models.Exercise, 0, len(f.Exercises))
	for _, raw := range f.Exercises {
		ex, err := convertSeed(raw)
		if err != nil {
			return nil, fmt.Errorf("exercise %q: %w", raw.ID, err)
		}
		exercises = append(exercises, ex)
	}
	return NewIndex(exercises)
}

func convertSeed(raw seedExercise) (models.Exercise, error) {
	ex := models.Exercise{
		ID:             raw.ID,
		Name:           raw.Name,
		Tags:           raw.Tags,
		Aliases:        raw.Aliases,
		DefaultSets:    raw.DefaultSets,
		DefaultReps:    raw.DefaultReps,
		DefaultRestSec: raw.DefaultRestSec,
		CaloriesPerMin: raw.CaloriesPerMin,
		CaloriesPerRep: raw.CaloriesPerRep,
	}

	for _, s := range raw.PrimaryMuscles {
		mg, err := models.ParseMuscleGroup(s)
		if err != nil {
			return ex, err
		}
		ex.PrimaryMuscles = append(ex.PrimaryMuscles, mg)
	}
	if len(ex.PrimaryMuscles) == 0 {
		return ex, fmt.Errorf("at least one primary muscle is required")
	}
	for _, s := range raw.SecondaryMuscles {
		mg, err := models.ParseMuscleGroup(s)
		if err != nil {
			return ex, err
		}
		ex.SecondaryMuscles = append(ex.SecondaryMuscles, mg)
	}
	for _, s := range raw.Equipment {
		eq, err := models.ParseEquipment(s)
		if err != nil {
			return ex, err
		}
		ex.Equipment = append(ex.Equipment, eq)
	}

	diff, err := models.ParseDifficulty(raw.Difficulty)
	if err != nil {
		return ex, err
	}
	ex.Difficulty = diff
	ex.DifficultyName = diff.String()

	mech, err := models.ParseMechanics(raw.Mechanics)
	if err != nil {
		return ex, err
	}
	ex.Mechanics = mech

	return ex, nil
}
