package generation

import (
	"fmt"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/taxonomy"
	"github.com/google/uuid"
)

// secondsPerRep is the assumed working time of one repetition, used
// for duration and calorie estimates.
const secondsPerRep = 4

// durationTolerance is the allowed relative deviation of a plan's
// estimated duration from the requested duration.
const durationTolerance = 0.20

// Violation describes one invariant the candidate plan breaks. The
// orchestrator feeds violations into the repair step; identical input
// always yields identical violations in identical order.
type Violation struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator checks candidate plans against the taxonomy and the domain
// bounds. It is stateless and safe for concurrent use.
type Validator struct {
	idx *taxonomy.Index
}

// NewValidator creates a Validator over the given taxonomy.
func NewValidator(idx *taxonomy.Index) *Validator {
	return &Validator{idx: idx}
}

// Check returns every violation in the candidate. An empty slice means
// the candidate can be finalized into a trustworthy plan.
func (v *Validator) Check(cand *candidatePlan, req *PlanRequest) []Violation {
	var out []Violation

	if cand.Name == "" {
		out = append(out, Violation{Code: "missing_name", Field: "name", Message: "plan name is required"})
	}
	if len(cand.Exercises) == 0 {
		out = append(out, Violation{Code: "no_exercises", Field: "exercises", Message: "plan contains no exercises"})
		return out
	}

	excluded := make(map[string]bool, len(req.Exclusions))
	for _, id := range req.Exclusions {
		excluded[id] = true
	}
	available := make(map[models.Equipment]bool, len(req.Equipment))
	for _, eq := range req.Equipment {
		available[eq] = true
	}

	for i, ce := range cand.Exercises {
		field := fmt.Sprintf("exercises[%d]", i)
		if ce.Name == "" {
			out = append(out, Violation{Code: "missing_exercise_name", Field: field, Message: "exercise name is required"})
			continue
		}
		id, ok := v.idx.Resolve(ce.Name)
		if !ok {
			out = append(out, Violation{Code: "unknown_exercise", Field: field,
				Message: fmt.Sprintf("%q does not resolve to a known exercise", ce.Name)})
			continue
		}
		if excluded[id] {
			out = append(out, Violation{Code: "excluded_exercise", Field: field,
				Message: fmt.Sprintf("%q was explicitly excluded", ce.Name)})
		}
		ex, err := v.idx.GetByID(id)
		if err == nil && !ex.RequiresOnly(available) {
			out = append(out, Violation{Code: "equipment_unavailable", Field: field,
				Message: fmt.Sprintf("%q needs equipment the athlete lacks", ce.Name)})
		}
		if int(ce.Sets) < MinSets || int(ce.Sets) > MaxSets {
			out = append(out, Violation{Code: "sets_out_of_range", Field: field + ".sets",
				Message: fmt.Sprintf("sets %d outside [%d,%d]", int(ce.Sets), MinSets, MaxSets)})
		}
		if int(ce.Reps) < MinReps || int(ce.Reps) > MaxReps {
			out = append(out, Violation{Code: "reps_out_of_range", Field: field + ".reps",
				Message: fmt.Sprintf("reps %d outside [%d,%d]", int(ce.Reps), MinReps, MaxReps)})
		}
		if int(ce.RestSec) < MinRestSec || int(ce.RestSec) > MaxRestSec {
			out = append(out, Violation{Code: "rest_out_of_range", Field: field + ".rest_sec",
				Message: fmt.Sprintf("rest %ds outside [%d,%d]", int(ce.RestSec), MinRestSec, MaxRestSec)})
		}
	}

	minCount, maxCount := ExerciseCountBounds(req.DurationMin)
	if len(cand.Exercises) < minCount || len(cand.Exercises) > maxCount {
		out = append(out, Violation{Code: "exercise_count", Field: "exercises",
			Message: fmt.Sprintf("%d exercises outside [%d,%d] for %d min", len(cand.Exercises), minCount, maxCount, req.DurationMin)})
	}

	if len(out) == 0 {
		est := estimateMinutes(cand)
		lo := float64(req.DurationMin) * (1 - durationTolerance)
		hi := float64(req.DurationMin) * (1 + durationTolerance)
		if float64(est) < lo || float64(est) > hi {
			out = append(out, Violation{Code: "duration_band", Field: "exercises",
				Message: fmt.Sprintf("estimated %d min outside ±20%% of requested %d min", est, req.DurationMin)})
		}
	}

	return out
}

// Repair applies bounded local fixes: resolve names, drop exercises
// that cannot resolve (never invent replacements), fill zero values
// from taxonomy defaults, clamp numbers, trim excess exercises, and
// rescale rest to land inside the duration band. Side-effect free: the
// input candidate is not modified.
func (v *Validator) Repair(cand *candidatePlan, req *PlanRequest) *candidatePlan {
	excluded := make(map[string]bool, len(req.Exclusions))
	for _, id := range req.Exclusions {
		excluded[id] = true
	}
	available := make(map[models.Equipment]bool, len(req.Equipment))
	for _, eq := range req.Equipment {
		available[eq] = true
	}

	repaired := &candidatePlan{
		Name:      cand.Name,
		Rationale: cand.Rationale,
	}
	if repaired.Name == "" {
		repaired.Name = defaultPlanName(req)
	}

	for _, ce := range cand.Exercises {
		id, ok := v.idx.Resolve(ce.Name)
		if !ok || excluded[id] {
			continue
		}
		ex, err := v.idx.GetByID(id)
		if err != nil || !ex.RequiresOnly(available) {
			continue
		}

		fixed := candidateExercise{Name: ex.Name, Notes: ce.Notes}
		fixed.Sets = flexInt(clampInt(orDefault(int(ce.Sets), ex.DefaultSets), MinSets, MaxSets))
		fixed.Reps = flexInt(clampInt(orDefault(int(ce.Reps), ex.DefaultReps), MinReps, MaxReps))
		fixed.RestSec = flexInt(clampInt(orDefault(int(ce.RestSec), ex.DefaultRestSec), MinRestSec, MaxRestSec))
		repaired.Exercises = append(repaired.Exercises, fixed)
	}

	_, maxCount := ExerciseCountBounds(req.DurationMin)
	if len(repaired.Exercises) > maxCount {
		repaired.Exercises = repaired.Exercises[:maxCount]
	}

	fitDuration(repaired, req.DurationMin)
	return repaired
}

// Finalize converts a violation-free candidate into a typed plan with
// derived duration and calorie estimates.
func (v *Validator) Finalize(cand *candidatePlan, req *PlanRequest) *models.WorkoutPlan {
	plan := &models.WorkoutPlan{
		ID:        uuid.New(),
		Name:      cand.Name,
		Rationale: cand.Rationale,
	}

	var calories float64
	for _, ce := range cand.Exercises {
		id, _ := v.idx.Resolve(ce.Name)
		pe := models.PlannedExercise{
			ExerciseID: id,
			Name:       ce.Name,
			Sets:       int(ce.Sets),
			Reps:       int(ce.Reps),
			RestSec:    int(ce.RestSec),
			Notes:      ce.Notes,
		}
		plan.Exercises = append(plan.Exercises, pe)

		if ex, err := v.idx.GetByID(id); err == nil {
			workMin := float64(pe.Sets*pe.Reps*secondsPerRep) / 60
			calories += ex.CaloriesPerRep*float64(pe.Sets*pe.Reps) + ex.CaloriesPerMin*workMin
		}
	}

	plan.EstimatedDuration = estimateMinutes(cand)
	plan.EstimatedCalories = roundTo(calories, 1)
	return plan
}

// estimateMinutes derives total planned minutes: working time plus
// rest between sets, per exercise.
func estimateMinutes(cand *candidatePlan) int {
	total := 0
	for _, ce := range cand.Exercises {
		total += int(ce.Sets) * (int(ce.Reps)*secondsPerRep + int(ce.RestSec))
	}
	return (total + 30) / 60
}

// fitDuration rescales rest periods so the estimate lands inside the
// requested band. Clamping can keep a degenerate plan outside the
// band; Check will catch that and the orchestrator falls back.
func fitDuration(cand *candidatePlan, durationMin int) {
	if len(cand.Exercises) == 0 {
		return
	}
	targetSec := durationMin * 60
	workSec := 0
	restSlots := 0
	for _, ce := range cand.Exercises {
		workSec += int(ce.Sets) * int(ce.Reps) * secondsPerRep
		restSlots += int(ce.Sets)
	}
	if restSlots == 0 {
		return
	}
	restEach := (targetSec - workSec) / restSlots
	restEach = clampInt(restEach, MinRestSec, MaxRestSec)
	for i := range cand.Exercises {
		cand.Exercises[i].RestSec = flexInt(restEach)
	}
}

func defaultPlanName(req *PlanRequest) string {
	return fmt.Sprintf("%d-Minute %s Workout", req.DurationMin, titleGoal(req.Goal))
}

func titleGoal(g models.TrainingGoal) string {
	switch g {
	case models.GoalStrength:
		return "Strength"
	case models.GoalHypertrophy:
		return "Hypertrophy"
	case models.GoalEndurance:
		return "Endurance"
	case models.GoalWeightLoss:
		return "Fat Loss"
	default:
		return "Fitness"
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func roundTo(v float64, places int) float64 {
	scale := 1.0
	for i := 0; i < places; i++ {
		scale *= 10
	}
	if v >= 0 {
		return float64(int(v*scale+0.5)) / scale
	}
	return float64(int(v*scale-0.5)) / scale
}
