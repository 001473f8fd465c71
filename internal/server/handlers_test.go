package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/repcoach/internal/alternatives"
	"github.com/claude/repcoach/internal/coach"
	"github.com/claude/repcoach/internal/generation"
	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/taxonomy"
)

// testServer builds a Server over the embedded taxonomy without a
// database; only endpoints that never touch storage are exercised.
func testServer(t *testing.T) *Server {
	t.Helper()
	idx, err := taxonomy.LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	core := coach.New(nil, idx, nil, nil, generation.DefaultOrchestratorConfig(), time.UTC, log)
	return New(core, nil, "testkey", log)
}

func TestListExercises(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exercises", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var list []models.Exercise
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(list) == 0 {
		t.Error("empty exercise list")
	}
}

func TestListExercisesMuscleFilter(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exercises?muscle=chest", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var list []models.Exercise
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	for _, ex := range list {
		if !involvesChest(&ex) {
			t.Errorf("%s does not involve chest", ex.ID)
		}
	}
}

func TestListExercisesBadFilter(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exercises?muscle=wings", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetExercise(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exercises/barbell-bench-press", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var ex models.Exercise
	if err := json.NewDecoder(rec.Body).Decode(&ex); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if ex.Name != "Barbell Bench Press" {
		t.Errorf("name = %q", ex.Name)
	}
}

func TestGetExerciseNotFound(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exercises/no-such-thing", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAlternativesEndpoint(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exercises/barbell-bench-press/alternatives?equipment=bodyweight", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []alternatives.Suggestion
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("no alternatives returned")
	}
	for _, sug := range got {
		if sug.Exercise.ID == "barbell-bench-press" {
			t.Error("target returned as its own alternative")
		}
	}
}

func TestAlternativesUnknownExercise(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exercises/nope/alternatives", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGeneratePlanRequiresAPIKey(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/plans/generate", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestGeneratePlanInvalidBody(t *testing.T) {
	s := testServer(t)
	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"unknown goal", `{"goal":"bulking","level":"beginner","equipment":["barbell"],"duration_min":45}`},
		{"unknown level", `{"goal":"strength","level":"god","equipment":["barbell"],"duration_min":45}`},
		{"no equipment", `{"goal":"strength","level":"beginner","duration_min":45}`},
		{"duration too short", `{"goal":"strength","level":"beginner","equipment":["barbell"],"duration_min":5}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/plans/generate", strings.NewReader(tc.body))
			req.Header.Set("X-API-Key", "testkey")
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestLogSetsInvalidSessionID(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/not-a-uuid/sets",
		strings.NewReader(`{"exercise_id":"barbell-bench-press","sets":[{"weight_kg":60,"reps":10}]}`))
	req.Header.Set("X-API-Key", "testkey")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestParseTimeRangeDefaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	start, end, err := parseTimeRange(req)
	if err != nil {
		t.Fatal(err)
	}
	if !start.Before(end) {
		t.Errorf("start %v not before end %v", start, end)
	}
	if end.Sub(start) < 29*24*time.Hour {
		t.Errorf("default range too short: %v", end.Sub(start))
	}
}

func TestParseTimeRangeDateOnly(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions?start=2026-03-01&end=2026-03-07", nil)
	start, end, err := parseTimeRange(req)
	if err != nil {
		t.Fatal(err)
	}
	if start.Day() != 1 {
		t.Errorf("start day = %d, want 1", start.Day())
	}
	// Date-only end is inclusive of the whole day.
	if end.Day() != 8 {
		t.Errorf("end day = %d, want 8", end.Day())
	}
}

func involvesChest(ex *models.Exercise) bool {
	for _, m := range ex.PrimaryMuscles {
		if m == models.MuscleChest {
			return true
		}
	}
	for _, m := range ex.SecondaryMuscles {
		if m == models.MuscleChest {
			return true
		}
	}
	return false
}
