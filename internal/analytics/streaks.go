// Package analytics derives streaks, personal records, and volume
// trends from a user's completed session history. Everything here is a
// pure function over the supplied sessions: recomputing over the same
// history yields bit-identical output, and a session backfilled into
// the past is picked up exactly as if it had always been present.
package analytics

import (
	"sort"
	"time"

	"github.com/claude/repcoach/internal/models"
)

// Streaks summarizes consecutive training days.
type Streaks struct {
	CurrentDays int        `json:"current_days"`
	LongestDays int        `json:"longest_days"`
	LastActive  *time.Time `json:"last_active,omitempty"`
}

// ComputeStreaks derives the current and longest run of calendar days
// with at least one completed session. Day boundaries are normalized
// to loc. The current streak is the run containing the most recent
// active day, and it is broken (zero) once now is more than one day
// past that day.
func ComputeStreaks(sessions []models.WorkoutSession, loc *time.Location, now time.Time) Streaks {
	days := activeDays(sessions, loc)
	if len(days) == 0 {
		return Streaks{}
	}

	longest, lastRun := 1, 1
	for i := 1; i < len(days); i++ {
		// AddDate survives DST transitions where a fixed 24h does not.
		if days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			lastRun++
		} else {
			lastRun = 1
		}
		if lastRun > longest {
			longest = lastRun
		}
	}

	lastDay := days[len(days)-1]
	current := lastRun
	today := dayStart(now, loc)
	if today.After(lastDay.AddDate(0, 0, 1)) {
		current = 0
	}

	lastActive := lastDay
	return Streaks{CurrentDays: current, LongestDays: longest, LastActive: &lastActive}
}

// activeDays returns the sorted, deduplicated day-start times of all
// completed sessions.
func activeDays(sessions []models.WorkoutSession, loc *time.Location) []time.Time {
	seen := make(map[time.Time]bool)
	var days []time.Time
	for i := range sessions {
		s := &sessions[i]
		if !s.Completed {
			continue
		}
		d := dayStart(s.StartedAt, loc)
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func dayStart(t time.Time, loc *time.Location) time.Time {
	tl := t.In(loc)
	return time.Date(tl.Year(), tl.Month(), tl.Day(), 0, 0, 0, 0, loc)
}
