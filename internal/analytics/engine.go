package analytics

import (
	"log/slog"
	"time"

	"github.com/claude/repcoach/internal/models"
)

// trendWindowWeeks is the default K for trend classification.
const trendWindowWeeks = 4

// Summary is the combined analytics output for one user's history.
type Summary struct {
	Streaks         Streaks                 `json:"streaks"`
	PersonalRecords []models.PersonalRecord `json:"personal_records"`
	WeeklyVolume    []VolumePoint           `json:"weekly_volume"`
	TrendChangePct  *float64                `json:"trend_change_pct,omitempty"`
	Trend           TrendClassification     `json:"trend"`
}

// Compute derives the full analytics summary. Sessions may arrive in
// any order; sessions without sets are skipped with a warning rather
// than aborting the pass. A user with no history gets zeroed, empty
// structures, never an error.
func Compute(sessions []models.WorkoutSession, loc *time.Location, now time.Time, log *slog.Logger) *Summary {
	if loc == nil {
		loc = time.UTC
	}

	usable := make([]models.WorkoutSession, 0, len(sessions))
	for i := range sessions {
		s := sessions[i]
		if !s.Completed {
			continue
		}
		if !s.HasSets() {
			log.Warn("skipping session with no sets", "session_id", s.ID, "user_id", s.UserID)
			continue
		}
		usable = append(usable, s)
	}

	summary := &Summary{
		Streaks:         ComputeStreaks(usable, loc, now),
		PersonalRecords: ComputePersonalRecords(usable),
		WeeklyVolume:    WeeklyVolume(usable, loc),
	}
	if summary.PersonalRecords == nil {
		summary.PersonalRecords = []models.PersonalRecord{}
	}
	if summary.WeeklyVolume == nil {
		summary.WeeklyVolume = []VolumePoint{}
	}

	summary.Trend = ClassifyTrend(summary.WeeklyVolume, trendWindowWeeks)
	if change, ok := TrendChange(summary.WeeklyVolume, trendWindowWeeks); ok {
		summary.TrendChangePct = &change
	}
	return summary
}
