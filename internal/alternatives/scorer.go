// Package alternatives ranks substitute exercises by biomechanical and
// practical similarity. Scoring is reproducible and works with zero
// external dependencies; the model only ever decorates reasons,
// best-effort.
package alternatives

import (
	"sort"
	"strings"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/taxonomy"
)

// Similarity weights. Primary-muscle overlap dominates; the difficulty
// multiplier softens candidates far from the desired tier.
const (
	weightPrimaryMuscle   = 3.0
	weightSecondaryMuscle = 1.0
	weightMechanics       = 1.5
	weightTypeTag         = 1.0

	difficultyPenaltyPerTier = 0.35

	// DefaultLimit caps the ranked output.
	DefaultLimit = 5
)

// Criteria narrows and re-weights the candidate set. Zero value means
// "closest matches to the source exercise".
type Criteria struct {
	// AvailableEquipment, when non-empty, is a hard filter: candidates
	// needing anything else are excluded, not merely penalized.
	AvailableEquipment []models.Equipment
	// Difficulty, when set, is the tier to minimize distance to;
	// otherwise the source exercise's own tier is used.
	Difficulty *models.Difficulty
	// Limit caps results; 0 means DefaultLimit.
	Limit int
}

// Suggestion is one ranked substitute with an explainable score.
type Suggestion struct {
	Exercise         *models.Exercise `json:"exercise"`
	Score            float64          `json:"similarity_score"`
	Reason           string           `json:"reason"`
	EquipmentRelaxed bool             `json:"equipment_relaxed,omitempty"`
}

// Suggest returns ranked substitutes for the target exercise, never
// including the target itself. When the equipment filter removes every
// candidate, the single closest equipment-relaxed match is returned
// with an explicit caveat. An empty result means no other exercise
// shares any muscle group with the target.
func Suggest(idx *taxonomy.Index, exerciseID string, c Criteria) ([]Suggestion, error) {
	target, err := idx.GetByID(exerciseID)
	if err != nil {
		return nil, err
	}

	limit := c.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	wantTier := target.Difficulty
	if c.Difficulty != nil {
		wantTier = *c.Difficulty
	}
	available := make(map[models.Equipment]bool, len(c.AvailableEquipment))
	for _, eq := range c.AvailableEquipment {
		available[eq] = true
	}
	hardFilter := len(c.AvailableEquipment) > 0

	var kept []Suggestion
	var relaxed []Suggestion // scored but equipment-incompatible

	for _, cand := range idx.All() {
		if cand.ID == target.ID {
			continue
		}
		score, facets := similarity(target, cand, wantTier)
		if score <= 0 {
			continue // no shared muscle group
		}
		s := Suggestion{Exercise: cand, Score: score, Reason: reasonString(facets)}
		if hardFilter && !cand.RequiresOnly(available) {
			relaxed = append(relaxed, s)
			continue
		}
		kept = append(kept, s)
	}

	sortSuggestions(kept)

	if len(kept) == 0 && len(relaxed) > 0 {
		// Equipment filter removed everything: surface the single
		// closest relaxed match, clearly flagged.
		sortSuggestions(relaxed)
		best := relaxed[0]
		best.EquipmentRelaxed = true
		best.Reason += "; needs equipment you marked unavailable"
		return []Suggestion{best}, nil
	}

	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept, nil
}

// facets records which similarity components matched, for the
// templated reason string.
type facets struct {
	primary   []models.MuscleGroup
	secondary []models.MuscleGroup
	mechanics bool
	tags      []string
}

// similarity computes the weighted overlap score and the matched
// facets. A zero score means the candidate shares no muscle group with
// the target.
func similarity(target, cand *models.Exercise, wantTier models.Difficulty) (float64, facets) {
	var f facets

	f.primary = intersectMuscles(target.PrimaryMuscles, cand.PrimaryMuscles)
	f.secondary = intersectMuscles(target.SecondaryMuscles, cand.SecondaryMuscles)
	crossover := len(intersectMuscles(target.PrimaryMuscles, cand.SecondaryMuscles)) +
		len(intersectMuscles(target.SecondaryMuscles, cand.PrimaryMuscles))

	muscleScore := weightPrimaryMuscle*float64(len(f.primary)) +
		weightSecondaryMuscle*float64(len(f.secondary)) +
		weightSecondaryMuscle*float64(crossover)
	if muscleScore == 0 {
		return 0, f
	}

	score := muscleScore
	if target.Mechanics == cand.Mechanics {
		f.mechanics = true
		score += weightMechanics
	}
	for _, tag := range target.Tags {
		if cand.HasTag(tag) {
			f.tags = append(f.tags, tag)
		}
	}
	score += weightTypeTag * float64(len(f.tags))

	dist := cand.Difficulty.Distance(wantTier)
	score /= 1 + difficultyPenaltyPerTier*float64(dist)

	return score, f
}

// sortSuggestions orders by descending score, then ascending
// difficulty, then name, fully deterministic.
func sortSuggestions(s []Suggestion) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		if s[i].Exercise.Difficulty != s[j].Exercise.Difficulty {
			return s[i].Exercise.Difficulty < s[j].Exercise.Difficulty
		}
		return s[i].Exercise.Name < s[j].Exercise.Name
	})
}

// reasonString renders the matched facets as a short human-readable
// explanation. Template-only: this path must work with no model.
func reasonString(f facets) string {
	var parts []string
	if len(f.primary) > 0 {
		parts = append(parts, "works the same primary muscles ("+joinMuscles(f.primary)+")")
	} else if len(f.secondary) > 0 {
		parts = append(parts, "hits overlapping secondary muscles ("+joinMuscles(f.secondary)+")")
	} else {
		parts = append(parts, "trains overlapping muscles")
	}
	if f.mechanics {
		parts = append(parts, "same movement mechanics")
	}
	if len(f.tags) > 0 {
		parts = append(parts, "shares the "+strings.Join(f.tags, "/")+" focus")
	}
	return upperFirst(strings.Join(parts, "; "))
}

func intersectMuscles(a, b []models.MuscleGroup) []models.MuscleGroup {
	set := make(map[models.MuscleGroup]bool, len(b))
	for _, m := range b {
		set[m] = true
	}
	var out []models.MuscleGroup
	for _, m := range a {
		if set[m] {
			out = append(out, m)
		}
	}
	return out
}

func joinMuscles(mgs []models.MuscleGroup) string {
	strs := make([]string, len(mgs))
	for i, m := range mgs {
		strs[i] = string(m)
	}
	return strings.Join(strs, ", ")
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
