package alternatives

import (
	"errors"
	"reflect"
	"testing"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/taxonomy"
)

func testIndex(t *testing.T) *taxonomy.Index {
	t.Helper()
	idx, err := taxonomy.LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	return idx
}

// TestSuggestBasics verifies the target is never in its own results
// and output is capped.
func TestSuggestBasics(t *testing.T) {
	idx := testIndex(t)
	got, err := Suggest(idx, "barbell-bench-press", Criteria{})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) == 0 || len(got) > DefaultLimit {
		t.Fatalf("result count = %d, want 1..%d", len(got), DefaultLimit)
	}
	for _, s := range got {
		if s.Exercise.ID == "barbell-bench-press" {
			t.Error("target included in its own alternatives")
		}
		if s.Reason == "" {
			t.Errorf("%s has no reason string", s.Exercise.ID)
		}
		if s.Score <= 0 {
			t.Errorf("%s score = %f", s.Exercise.ID, s.Score)
		}
	}
}

// TestSuggestRankedByMuscleOverlap verifies chest pressing variants
// outrank unrelated movements for a bench press target.
func TestSuggestRankedByMuscleOverlap(t *testing.T) {
	idx := testIndex(t)
	got, err := Suggest(idx, "barbell-bench-press", Criteria{})
	if err != nil {
		t.Fatal(err)
	}
	top := got[0].Exercise
	if top.PrimaryMuscles[0] != models.MuscleChest && !hasChest(top.SecondaryMuscles) {
		t.Errorf("top alternative %q does not involve chest", top.ID)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("results not sorted: %f after %f", got[i].Score, got[i-1].Score)
		}
	}
}

// TestSuggestDeterministic verifies repeated calls yield identical
// ordering.
func TestSuggestDeterministic(t *testing.T) {
	idx := testIndex(t)
	first, err := Suggest(idx, "barbell-back-squat", Criteria{})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, _ := Suggest(idx, "barbell-back-squat", Criteria{})
		if !reflect.DeepEqual(ids(first), ids(again)) {
			t.Fatalf("ordering changed: %v vs %v", ids(first), ids(again))
		}
	}
}

// TestSuggestEquipmentHardFilter verifies no result requires
// unavailable equipment when a filter is set.
func TestSuggestEquipmentHardFilter(t *testing.T) {
	idx := testIndex(t)
	got, err := Suggest(idx, "barbell-bench-press", Criteria{
		AvailableEquipment: []models.Equipment{models.EquipmentBodyweight},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 {
		t.Fatal("expected bodyweight alternatives for bench press")
	}
	for _, s := range got {
		if s.EquipmentRelaxed {
			t.Errorf("%s flagged relaxed despite surviving candidates", s.Exercise.ID)
		}
		for _, eq := range s.Exercise.Equipment {
			if eq != models.EquipmentBodyweight {
				t.Errorf("%s requires %s under bodyweight-only filter", s.Exercise.ID, eq)
			}
		}
	}
}

// TestSuggestEquipmentRelaxedFallback verifies that when the hard
// filter removes every candidate, exactly one flagged relaxed match
// comes back.
func TestSuggestEquipmentRelaxedFallback(t *testing.T) {
	idx := testIndex(t)
	// Every exercise sharing a muscle group with the barbell curl
	// needs barbells, dumbbells, cables, or a bar, so a band-only filter
	// removes all of them.
	got, err := Suggest(idx, "barbell-curl", Criteria{
		AvailableEquipment: []models.Equipment{models.EquipmentBand},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("result count = %d, want exactly 1 relaxed match", len(got))
	}
	if !got[0].EquipmentRelaxed {
		t.Error("relaxed fallback not flagged")
	}
}

// TestSuggestDifficultyPreference verifies an explicit difficulty
// criterion pulls matching tiers up the ranking.
func TestSuggestDifficultyPreference(t *testing.T) {
	idx := testIndex(t)
	beginner := models.DifficultyBeginner
	got, err := Suggest(idx, "barbell-back-squat", Criteria{Difficulty: &beginner})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 {
		t.Fatal("no alternatives for squat")
	}
	if got[0].Exercise.Difficulty != models.DifficultyBeginner {
		t.Errorf("top alternative difficulty = %v, want beginner", got[0].Exercise.Difficulty)
	}
}

func TestSuggestUnknownTarget(t *testing.T) {
	idx := testIndex(t)
	_, err := Suggest(idx, "no-such-exercise", Criteria{})
	if !errors.Is(err, taxonomy.ErrNotFound) {
		t.Errorf("err = %v, want taxonomy.ErrNotFound", err)
	}
}

func ids(s []Suggestion) []string {
	out := make([]string, len(s))
	for i, x := range s {
		out[i] = x.Exercise.ID
	}
	return out
}

func hasChest(mgs []models.MuscleGroup) bool {
	for _, m := range mgs {
		if m == models.MuscleChest {
			return true
		}
	}
	return false
}
