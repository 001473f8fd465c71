package generation

import (
	"reflect"
	"testing"

	"github.com/claude/repcoach/internal/models"
)

// TestBuildFallbackPlan verifies the template plan resolves entirely
// from the taxonomy and lands inside the duration band.
func TestBuildFallbackPlan(t *testing.T) {
	idx := testIndex(t)
	req := validRequest()

	plan := BuildFallbackPlan(req, idx)

	if len(plan.Exercises) == 0 {
		t.Fatal("fallback plan is empty")
	}
	for _, pe := range plan.Exercises {
		if _, err := idx.GetByID(pe.ExerciseID); err != nil {
			t.Errorf("fallback exercise %q unresolved: %v", pe.Name, err)
		}
	}

	lo := float64(req.DurationMin) * 0.8
	hi := float64(req.DurationMin) * 1.2
	if d := float64(plan.EstimatedDuration); d < lo || d > hi {
		t.Errorf("EstimatedDuration = %d, want within ±20%% of %d", plan.EstimatedDuration, req.DurationMin)
	}
}

// TestBuildFallbackPlanDurationAcrossGoals verifies the template stays
// inside the duration band for every goal, including short requests
// where the full scheme plus minimum rest would overshoot and the
// template has to shrink sets or reps.
func TestBuildFallbackPlanDurationAcrossGoals(t *testing.T) {
	idx := testIndex(t)
	goals := []models.TrainingGoal{
		models.GoalStrength, models.GoalHypertrophy, models.GoalEndurance,
		models.GoalWeightLoss, models.GoalGeneral,
	}
	for _, goal := range goals {
		for _, dur := range []int{10, 12, 15, 30, 60} {
			req := validRequest()
			req.Goal = goal
			req.DurationMin = dur

			plan := BuildFallbackPlan(req, idx)
			if len(plan.Exercises) == 0 {
				t.Fatalf("goal=%s dur=%d: empty fallback plan", goal, dur)
			}
			lo := float64(dur) * 0.8
			hi := float64(dur) * 1.2
			if d := float64(plan.EstimatedDuration); d < lo || d > hi {
				t.Errorf("goal=%s dur=%d: EstimatedDuration = %d, want within ±20%%",
					goal, dur, plan.EstimatedDuration)
			}
		}
	}
}

// TestBuildFallbackPlanDeterministic verifies identical requests yield
// identical exercise selections.
func TestBuildFallbackPlanDeterministic(t *testing.T) {
	idx := testIndex(t)
	req := validRequest()

	first := BuildFallbackPlan(req, idx)
	for i := 0; i < 5; i++ {
		again := BuildFallbackPlan(req, idx)
		if !reflect.DeepEqual(exerciseIDs(first), exerciseIDs(again)) {
			t.Fatalf("fallback selection differs: %v vs %v", exerciseIDs(first), exerciseIDs(again))
		}
	}
}

// TestBuildFallbackPlanHonorsExclusions verifies excluded exercises
// never appear.
func TestBuildFallbackPlanHonorsExclusions(t *testing.T) {
	idx := testIndex(t)
	req := validRequest()

	withoutExclusion := BuildFallbackPlan(req, idx)
	target := withoutExclusion.Exercises[0].ExerciseID

	req.Exclusions = []string{target}
	plan := BuildFallbackPlan(req, idx)
	for _, pe := range plan.Exercises {
		if pe.ExerciseID == target {
			t.Errorf("excluded exercise %q present in fallback", target)
		}
	}
}

// TestBuildFallbackPlanRestrictiveEquipment verifies bodyweight-only
// requests still produce a plan.
func TestBuildFallbackPlanRestrictiveEquipment(t *testing.T) {
	idx := testIndex(t)
	req := validRequest()
	req.Equipment = []models.Equipment{models.EquipmentBodyweight}

	plan := BuildFallbackPlan(req, idx)
	if len(plan.Exercises) == 0 {
		t.Fatal("no plan for bodyweight-only request")
	}
	for _, pe := range plan.Exercises {
		ex, err := idx.GetByID(pe.ExerciseID)
		if err != nil {
			t.Fatalf("unresolved: %v", err)
		}
		for _, eq := range ex.Equipment {
			if eq != models.EquipmentBodyweight {
				t.Errorf("%s requires %s in bodyweight-only plan", ex.ID, eq)
			}
		}
	}
}

func exerciseIDs(p *models.WorkoutPlan) []string {
	ids := make([]string, len(p.Exercises))
	for i, pe := range p.Exercises {
		ids[i] = pe.ExerciseID
	}
	return ids
}
