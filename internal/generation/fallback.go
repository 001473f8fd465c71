package generation

import (
	"fmt"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/taxonomy"
	"github.com/google/uuid"
)

// fallbackScheme fixes sets/reps per training goal for template plans.
type fallbackScheme struct {
	sets int
	reps int
}

var fallbackSchemes = map[models.TrainingGoal]fallbackScheme{
	models.GoalStrength:    {sets: 4, reps: 5},
	models.GoalHypertrophy: {sets: 3, reps: 10},
	models.GoalEndurance:   {sets: 3, reps: 15},
	models.GoalWeightLoss:  {sets: 3, reps: 12},
	models.GoalGeneral:     {sets: 3, reps: 10},
}

// BuildFallbackPlan deterministically constructs a rule-based plan
// from taxonomy data alone, keyed by (goal, level, duration). It is
// the guarantee that generation never fails while the taxonomy is
// non-empty: compound movements first, name order within a tier, rest
// scaled to land on the requested duration.
func BuildFallbackPlan(req *PlanRequest, idx *taxonomy.Index) *models.WorkoutPlan {
	pool := fallbackPool(req, idx)
	if len(pool) == 0 {
		// Equipment constraints filtered everything; relax to the full
		// catalog rather than returning an empty plan.
		pool = rankPool(idx.All(), req)
	}

	count := clampInt(req.DurationMin/10, 3, 8)
	if count > len(pool) {
		count = len(pool)
	}
	picked := pool[:count]

	scheme := fallbackSchemes[req.Goal]
	// A short request can be impossible for the full scheme even with
	// every rest slot at the floor. The model path trips the duration
	// check and lands here, so the template shrinks instead: fewer
	// sets first, then fewer reps.
	maxSec := int(float64(req.DurationMin*60) * (1 + durationTolerance))
	for minScheduleSec(count, scheme) > maxSec {
		if scheme.sets > 2 {
			scheme.sets--
		} else if scheme.reps > 5 {
			scheme.reps--
		} else {
			break
		}
	}

	cand := &candidatePlan{
		Name:      defaultPlanName(req),
		Rationale: fmt.Sprintf("Template plan for %s at %s level, built from the exercise catalog.", req.Goal, req.Level),
	}
	for _, ex := range picked {
		cand.Exercises = append(cand.Exercises, candidateExercise{
			Name: ex.Name,
			Sets: flexInt(scheme.sets),
			Reps: flexInt(scheme.reps),
		})
	}
	fitDuration(cand, req.DurationMin)

	v := NewValidator(idx)
	plan := v.Finalize(cand, req)
	plan.ID = uuid.New()
	return plan
}

// minScheduleSec is the shortest runtime a scheme can produce across
// count exercises, with every rest slot at the floor.
func minScheduleSec(count int, s fallbackScheme) int {
	return count * s.sets * (s.reps*secondsPerRep + MinRestSec)
}

// fallbackPool selects and orders candidate exercises for the
// template: equipment-compatible, near the requested level, compounds
// before isolations, deterministic name order inside each band.
func fallbackPool(req *PlanRequest, idx *taxonomy.Index) []*models.Exercise {
	var filtered []*models.Exercise
	if len(req.TargetMuscles) > 0 {
		seen := make(map[string]bool)
		for _, mg := range req.TargetMuscles {
			m := mg
			for _, ex := range idx.Filter(taxonomy.FilterCriteria{Muscle: &m, Equipment: req.Equipment}) {
				if !seen[ex.ID] {
					seen[ex.ID] = true
					filtered = append(filtered, ex)
				}
			}
		}
	} else {
		filtered = idx.Filter(taxonomy.FilterCriteria{Equipment: req.Equipment})
	}

	excluded := make(map[string]bool, len(req.Exclusions))
	for _, id := range req.Exclusions {
		excluded[id] = true
	}
	var pool []*models.Exercise
	for _, ex := range filtered {
		if !excluded[ex.ID] {
			pool = append(pool, ex)
		}
	}
	return rankPool(pool, req)
}

// rankPool orders exercises for template selection. Filter already
// returns name order, so a stable re-sort on (mechanics, level
// distance) keeps the final order fully deterministic.
func rankPool(pool []*models.Exercise, req *PlanRequest) []*models.Exercise {
	ranked := append([]*models.Exercise(nil), pool...)
	// Insertion sort keeps the incoming name order as the final
	// tie-break without needing an extra comparison key.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && fallbackLess(ranked[j], ranked[j-1], req); j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return ranked
}

func fallbackLess(a, b *models.Exercise, req *PlanRequest) bool {
	aCompound := a.Mechanics == models.MechanicsCompound
	bCompound := b.Mechanics == models.MechanicsCompound
	if aCompound != bCompound {
		return aCompound
	}
	return a.Difficulty.Distance(req.Level) < b.Difficulty.Distance(req.Level)
}
