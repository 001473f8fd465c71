package generation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/claude/repcoach/internal/llm"
)

// flexInt unmarshals JSON numbers and numeric strings alike. Models
// occasionally quote numbers ("sets": "3") despite instructions.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	// Accept floats like 3.0 by truncating.
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", string(data))
	}
	*f = flexInt(int(v))
	return nil
}

// candidateExercise is the untrusted per-exercise shape from the model.
type candidateExercise struct {
	Name    string  `json:"name"`
	Sets    flexInt `json:"sets"`
	Reps    flexInt `json:"reps"`
	RestSec flexInt `json:"rest_sec"`
	Notes   string  `json:"notes"`
}

// candidatePlan is the untrusted plan shape parsed from raw model
// text. It becomes a models.WorkoutPlan only after validation.
type candidatePlan struct {
	Name      string              `json:"name"`
	Rationale string              `json:"rationale"`
	Exercises []candidateExercise `json:"exercises"`
}

// parseCandidate extracts and decodes a candidate plan from raw model
// output. Deterministic: identical text yields an identical candidate
// or an identical error.
func parseCandidate(raw string) (*candidatePlan, error) {
	jsonStr, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var cand candidatePlan
	if err := json.Unmarshal([]byte(jsonStr), &cand); err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrInvalidOutput, err)
	}
	return &cand, nil
}
