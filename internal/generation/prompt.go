package generation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/taxonomy"
)

// BuildPrompt renders the model instruction for a request. It is a
// pure function: identical requests produce byte-identical prompts, so
// retries are reproducible and the generation cache can key on the
// prompt hash. Only a malformed request can make it fail.
func BuildPrompt(req *PlanRequest, idx *taxonomy.Index) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	vocabulary := allowedExerciseNames(req, idx)
	minCount, maxCount := ExerciseCountBounds(req.DurationMin)

	var b strings.Builder
	b.WriteString("You are a certified strength and conditioning coach. Create a single workout plan.\n\n")

	fmt.Fprintf(&b, "Goal: %s\n", req.Goal)
	fmt.Fprintf(&b, "Experience level: %s\n", req.Level)
	fmt.Fprintf(&b, "Target duration: %d minutes\n", req.DurationMin)
	fmt.Fprintf(&b, "Available equipment: %s\n", joinEquipment(req.Equipment))
	if len(req.TargetMuscles) > 0 {
		fmt.Fprintf(&b, "Focus muscles: %s\n", joinMuscles(req.TargetMuscles))
	}
	if len(req.Exclusions) > 0 {
		sorted := append([]string(nil), req.Exclusions...)
		sort.Strings(sorted)
		fmt.Fprintf(&b, "Never include these exercises: %s\n", strings.Join(sorted, ", "))
	}
	if req.Preferences != "" {
		fmt.Fprintf(&b, "Athlete preferences: %s\n", req.Preferences)
	}

	fmt.Fprintf(&b, "\nChoose %d to %d exercises, only from this list:\n", minCount, maxCount)
	for _, name := range vocabulary {
		fmt.Fprintf(&b, "- %s\n", name)
	}

	b.WriteString("\nRespond with exactly one JSON object and nothing else, matching this shape:\n")
	b.WriteString(`{
  "name": "string, short plan title",
  "rationale": "string, one or two sentences",
  "exercises": [
    {
      "name": "string, one of the listed exercise names",
      "sets": "integer 1-10",
      "reps": "integer 1-50",
      "rest_sec": "integer 30-1000",
      "notes": "string, optional coaching cue"
    }
  ]
}
`)
	fmt.Fprintf(&b, "All numeric fields must be JSON numbers, not strings. The plan must fit the %d minute target.\n", req.DurationMin)

	return b.String(), nil
}

// allowedExerciseNames returns the sorted vocabulary the model may use:
// exercises doable with the requested equipment, minus exclusions,
// narrowed to focus muscles when given.
func allowedExerciseNames(req *PlanRequest, idx *taxonomy.Index) []string {
	excluded := make(map[string]bool, len(req.Exclusions))
	for _, id := range req.Exclusions {
		excluded[id] = true
	}

	seen := make(map[string]bool)
	var names []string
	collect := func(exs []*models.Exercise) {
		for _, ex := range exs {
			if excluded[ex.ID] || seen[ex.ID] {
				continue
			}
			seen[ex.ID] = true
			names = append(names, ex.Name)
		}
	}

	if len(req.TargetMuscles) > 0 {
		for _, mg := range req.TargetMuscles {
			m := mg
			collect(idx.Filter(taxonomy.FilterCriteria{Muscle: &m, Equipment: req.Equipment}))
		}
	} else {
		collect(idx.Filter(taxonomy.FilterCriteria{Equipment: req.Equipment}))
	}

	sort.Strings(names)
	return names
}

func joinEquipment(eqs []models.Equipment) string {
	strs := make([]string, len(eqs))
	for i, e := range eqs {
		strs[i] = string(e)
	}
	sort.Strings(strs)
	return strings.Join(strs, ", ")
}

func joinMuscles(mgs []models.MuscleGroup) string {
	strs := make([]string, len(mgs))
	for i, m := range mgs {
		strs[i] = string(m)
	}
	sort.Strings(strs)
	return strings.Join(strs, ", ")
}
