package generation

import (
	"reflect"
	"testing"
)

func goodCandidate() *candidatePlan {
	return &candidatePlan{
		Name:      "Push Day",
		Rationale: "Chest-focused hypertrophy work.",
		Exercises: []candidateExercise{
			{Name: "Barbell Bench Press", Sets: 3, Reps: 10, RestSec: 180},
			{Name: "Incline Dumbbell Press", Sets: 3, Reps: 10, RestSec: 180},
			{Name: "Dumbbell Shoulder Press", Sets: 3, Reps: 10, RestSec: 180},
			{Name: "Push-Up", Sets: 3, Reps: 10, RestSec: 180},
		},
	}
}

// TestCheckValidCandidate verifies a well-formed candidate passes with
// zero violations.
func TestCheckValidCandidate(t *testing.T) {
	v := NewValidator(testIndex(t))
	violations := v.Check(goodCandidate(), validRequest())
	if len(violations) != 0 {
		t.Fatalf("unexpected violations: %+v", violations)
	}
}

// TestCheckViolations verifies each invariant produces its violation
// code.
func TestCheckViolations(t *testing.T) {
	v := NewValidator(testIndex(t))

	tests := []struct {
		name     string
		mut      func(*candidatePlan)
		wantCode string
	}{
		{"missing plan name", func(c *candidatePlan) { c.Name = "" }, "missing_name"},
		{"no exercises", func(c *candidatePlan) { c.Exercises = nil }, "no_exercises"},
		{"unknown exercise", func(c *candidatePlan) { c.Exercises[0].Name = "Quantum Flux Press" }, "unknown_exercise"},
		{"sets too high", func(c *candidatePlan) { c.Exercises[0].Sets = 15 }, "sets_out_of_range"},
		{"zero reps", func(c *candidatePlan) { c.Exercises[0].Reps = 0 }, "reps_out_of_range"},
		{"rest too short", func(c *candidatePlan) { c.Exercises[0].RestSec = 5 }, "rest_out_of_range"},
		{"equipment unavailable", func(c *candidatePlan) { c.Exercises[0].Name = "Cable Fly" }, "equipment_unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand := goodCandidate()
			tt.mut(cand)
			violations := v.Check(cand, validRequest())
			if !hasCode(violations, tt.wantCode) {
				t.Errorf("violations %+v missing code %q", violations, tt.wantCode)
			}
		})
	}
}

// TestCheckDeterministic verifies identical input yields identical
// violations in identical order.
func TestCheckDeterministic(t *testing.T) {
	v := NewValidator(testIndex(t))
	cand := goodCandidate()
	cand.Name = ""
	cand.Exercises[0].Sets = 99
	cand.Exercises[2].Name = "Mystery Machine"

	first := v.Check(cand, validRequest())
	for i := 0; i < 5; i++ {
		again := v.Check(cand, validRequest())
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("violations differ between identical calls:\n%+v\n%+v", first, again)
		}
	}
}

// TestRepair verifies repair clamps numbers, drops unresolvable
// exercises without inventing replacements, and leaves the input
// untouched.
func TestRepair(t *testing.T) {
	idx := testIndex(t)
	v := NewValidator(idx)
	req := validRequest()

	cand := &candidatePlan{
		Exercises: []candidateExercise{
			{Name: "bench press", Sets: 15, Reps: 0, RestSec: 5},
			{Name: "Quantum Flux Press", Sets: 3, Reps: 10, RestSec: 90},
			{Name: "DB Shoulder Press", Sets: 3, Reps: 10, RestSec: 90},
			{Name: "push up", Sets: 3, Reps: 12, RestSec: 60},
		},
	}
	orig := *cand

	repaired := v.Repair(cand, req)

	// Input untouched (repair is side-effect free).
	if cand.Exercises[0].Sets != orig.Exercises[0].Sets || cand.Name != orig.Name {
		t.Error("repair mutated its input")
	}

	if repaired.Name == "" {
		t.Error("repair did not default the plan name")
	}
	if len(repaired.Exercises) != 3 {
		t.Fatalf("repaired has %d exercises, want 3 (unknown dropped): %+v", len(repaired.Exercises), repaired.Exercises)
	}
	for _, ce := range repaired.Exercises {
		if int(ce.Sets) < MinSets || int(ce.Sets) > MaxSets {
			t.Errorf("sets %d not clamped", int(ce.Sets))
		}
		if int(ce.Reps) < MinReps || int(ce.Reps) > MaxReps {
			t.Errorf("reps %d not clamped", int(ce.Reps))
		}
		if int(ce.RestSec) < MinRestSec || int(ce.RestSec) > MaxRestSec {
			t.Errorf("rest %d not clamped", int(ce.RestSec))
		}
	}

	// Repaired candidate must now pass validation end to end.
	if violations := v.Check(repaired, req); len(violations) != 0 {
		t.Errorf("repaired candidate still invalid: %+v", violations)
	}
}

// TestParseCandidateCoercion verifies numeric strings in model output
// are coerced rather than rejected.
func TestParseCandidateCoercion(t *testing.T) {
	raw := "Sure! Here is the plan:\n```json\n" +
		`{"name":"Plan","rationale":"r","exercises":[{"name":"Push-Up","sets":"3","reps":12.0,"rest_sec":"60"}]}` +
		"\n```"
	cand, err := parseCandidate(raw)
	if err != nil {
		t.Fatalf("parseCandidate: %v", err)
	}
	ex := cand.Exercises[0]
	if int(ex.Sets) != 3 || int(ex.Reps) != 12 || int(ex.RestSec) != 60 {
		t.Errorf("coerced values = %d/%d/%d, want 3/12/60", int(ex.Sets), int(ex.Reps), int(ex.RestSec))
	}
}

func TestFinalizeEstimates(t *testing.T) {
	idx := testIndex(t)
	v := NewValidator(idx)
	plan := v.Finalize(goodCandidate(), validRequest())

	if len(plan.Exercises) != 4 {
		t.Fatalf("exercises = %d", len(plan.Exercises))
	}
	for _, pe := range plan.Exercises {
		if pe.ExerciseID == "" {
			t.Errorf("exercise %q has no resolved id", pe.Name)
		}
		if _, err := idx.GetByID(pe.ExerciseID); err != nil {
			t.Errorf("exercise id %q does not resolve: %v", pe.ExerciseID, err)
		}
	}
	// 4 exercises × 3 sets × (10 reps × 4s + 180s rest) = 2640s = 44 min.
	if plan.EstimatedDuration != 44 {
		t.Errorf("EstimatedDuration = %d, want 44", plan.EstimatedDuration)
	}
	if plan.EstimatedCalories <= 0 {
		t.Errorf("EstimatedCalories = %.1f, want > 0", plan.EstimatedCalories)
	}
}

func hasCode(violations []Violation, code string) bool {
	for _, v := range violations {
		if v.Code == code {
			return true
		}
	}
	return false
}
