package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/repcoach/internal/alternatives"
	"github.com/claude/repcoach/internal/coach"
	"github.com/claude/repcoach/internal/generation"
	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/storage"
	"github.com/claude/repcoach/internal/taxonomy"
)

// --- Catalog ---

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	var crit taxonomy.FilterCriteria
	q := r.URL.Query()

	if v := q.Get("muscle"); v != "" {
		mg, err := models.ParseMuscleGroup(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		crit.Muscle = &mg
	}
	if v := q.Get("difficulty"); v != "" {
		d, err := models.ParseDifficulty(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		crit.Difficulty = &d
	}
	if v := q.Get("tag"); v != "" {
		crit.Tag = v
	}
	for _, raw := range q["equipment"] {
		eq, err := models.ParseEquipment(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		crit.Equipment = append(crit.Equipment, eq)
	}

	writeJSON(w, http.StatusOK, s.core.Taxonomy().Filter(crit))
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	ex, err := s.core.Taxonomy().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "exercise not found"})
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleAlternatives(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	crit := alternatives.Criteria{}

	for _, raw := range q["equipment"] {
		eq, err := models.ParseEquipment(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		crit.AvailableEquipment = append(crit.AvailableEquipment, eq)
	}
	if v := q.Get("difficulty"); v != "" {
		d, err := models.ParseDifficulty(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		crit.Difficulty = &d
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			crit.Limit = n
		}
	}

	suggestions, err := s.core.Alternatives(r.Context(), chi.URLParam(r, "id"), crit)
	if err != nil {
		if errors.Is(err, taxonomy.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "exercise not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

// --- Plans ---

// generateRequest is the wire shape for plan generation; enums arrive
// as strings and are validated here at the boundary.
type generateRequest struct {
	Goal          string   `json:"goal"`
	Level         string   `json:"level"`
	Equipment     []string `json:"equipment"`
	DurationMin   int      `json:"duration_min"`
	TargetMuscles []string `json:"target_muscles"`
	Exclusions    []string `json:"exclusions"`
	Preferences   string   `json:"preferences"`
}

func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	req, err := buildPlanRequest(&body, s.userID(r))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := s.core.GeneratePlan(r.Context(), req.UserID, req)
	if err != nil {
		if errors.Is(err, generation.ErrInvalidRequest) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.log.Error("plan generation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func buildPlanRequest(body *generateRequest, userID int) (*generation.PlanRequest, error) {
	req := &generation.PlanRequest{
		UserID:      userID,
		DurationMin: body.DurationMin,
		Exclusions:  body.Exclusions,
		Preferences: body.Preferences,
	}

	goal, err := models.ParseTrainingGoal(body.Goal)
	if err != nil {
		return nil, err
	}
	req.Goal = goal

	level, err := models.ParseDifficulty(body.Level)
	if err != nil {
		return nil, err
	}
	req.Level = level

	for _, raw := range body.Equipment {
		eq, err := models.ParseEquipment(raw)
		if err != nil {
			return nil, err
		}
		req.Equipment = append(req.Equipment, eq)
	}
	for _, raw := range body.TargetMuscles {
		mg, err := models.ParseMuscleGroup(raw)
		if err != nil {
			return nil, err
		}
		req.TargetMuscles = append(req.TargetMuscles, mg)
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Server) handlePlanHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	plans, err := s.core.PlanHistory(r.Context(), s.userID(r), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if plans == nil {
		plans = []storage.SavedPlan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

// --- Sessions ---

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StartedAt *time.Time `json:"started_at"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return
		}
	}
	var startedAt time.Time
	if body.StartedAt != nil {
		startedAt = *body.StartedAt
	}

	session, err := s.core.StartSession(r.Context(), s.userID(r), startedAt)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleLogSets(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	var body struct {
		ExerciseID string            `json:"exercise_id"`
		Sets       []models.SetEntry `json:"sets"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if body.ExerciseID == "" || len(body.Sets) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise_id and sets are required"})
		return
	}

	inserted, err := s.core.LogSets(r.Context(), s.userID(r), sessionID, body.ExerciseID, body.Sets)
	if err != nil {
		switch {
		case errors.Is(err, coach.ErrUnknownExercise):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, coach.ErrSessionCompleted):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, storage.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"inserted": inserted})
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	view, err := s.core.FinishSession(r.Context(), s.userID(r), sessionID, time.Now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found or already completed"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sessions, err := s.core.Sessions(r.Context(), s.userID(r), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if sessions == nil {
		sessions = []coach.SessionView{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	view, err := s.core.Session(r.Context(), s.userID(r), sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// --- Analytics ---

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	summary, err := s.core.Analytics(r.Context(), s.userID(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleWeeklyVolume(w http.ResponseWriter, r *http.Request) {
	summary, err := s.core.Analytics(r.Context(), s.userID(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summary.WeeklyVolume)
}

// --- Goals ---

// goalRequest is the wire shape for goal creation.
type goalRequest struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	TargetValue float64   `json:"target_value"`
	StartValue  float64   `json:"start_value"`
	Unit        string    `json:"unit"`
	Deadline    time.Time `json:"deadline"`
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var body goalRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	goalType, err := models.ParseGoalType(body.Type)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if body.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	view, err := s.core.CreateGoal(r.Context(), &models.Goal{
		UserID:      s.userID(r),
		Type:        goalType,
		Title:       body.Title,
		TargetValue: body.TargetValue,
		StartValue:  body.StartValue,
		Unit:        body.Unit,
		Deadline:    body.Deadline,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	views, err := s.core.Goals(r.Context(), s.userID(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if views == nil {
		views = []coach.GoalView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	goalID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid goal ID"})
		return
	}

	view, err := s.core.Goal(r.Context(), s.userID(r), goalID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "goal not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	goalID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid goal ID"})
		return
	}

	var body struct {
		CurrentValue *float64 `json:"current_value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if body.CurrentValue == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "current_value is required"})
		return
	}

	update, err := s.core.UpdateGoalValue(r.Context(), s.userID(r), goalID, *body.CurrentValue)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "goal not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, update)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	goalID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid goal ID"})
		return
	}

	if err := s.core.DeleteGoal(r.Context(), s.userID(r), goalID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "goal not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 30 days
		end = time.Now()
		start = end.AddDate(0, 0, -30)
		return
	}

	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	}
	return
}
