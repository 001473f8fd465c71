// Package goals derives progress percentages, status labels, and
// milestone events for user goals. Status is never stored as truth; it
// is recomputed from the numbers every time, so a corrected current
// value or a passed deadline is reflected immediately.
package goals

import (
	"sort"
	"time"

	"github.com/claude/repcoach/internal/models"
)

// Status band boundaries, in percent.
const (
	justStartedBelow = 10.0
	onTrackBelow     = 75.0
	almostThereBelow = 100.0
)

// Progress returns the completion percentage for a goal at the given
// current value. For increasing goals it is current/target; for
// decreasing goals (target below start) the distance already covered
// from the start value. The result is clamped to [0, 100] except that
// reaching or passing the target reports at least 100.
func Progress(g *models.Goal, currentValue float64) float64 {
	var pct float64
	if g.Decreasing() {
		span := g.StartValue - g.TargetValue
		if span <= 0 {
			return 0
		}
		pct = (g.StartValue - currentValue) / span * 100
	} else {
		if g.TargetValue <= 0 {
			return 0
		}
		pct = currentValue / g.TargetValue * 100
	}
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// DeriveStatus maps a progress percentage and deadline onto the status
// ladder. A completed goal stays completed even past its deadline; an
// incomplete goal past its deadline is failed regardless of progress.
func DeriveStatus(progressPct float64, now, deadline time.Time) models.GoalStatus {
	if progressPct >= almostThereBelow {
		return models.StatusCompleted
	}
	if !deadline.IsZero() && now.After(deadline) {
		return models.StatusFailed
	}
	switch {
	case progressPct <= 0:
		return models.StatusNotStarted
	case progressPct < justStartedBelow:
		return models.StatusJustStarted
	case progressPct < onTrackBelow:
		return models.StatusOnTrack
	default:
		return models.StatusAlmostThere
	}
}

// Recompute updates the goal in place with a fresh current value,
// derived status, and progress. It returns the milestone thresholds
// newly crossed by this update, in ascending order; each threshold
// fires at most once over the goal's lifetime, so a value that dips
// back under a fired threshold never re-arms it.
func Recompute(g *models.Goal, currentValue float64, now time.Time) (models.GoalStatus, []int) {
	g.CurrentValue = currentValue
	pct := Progress(g, currentValue)
	status := DeriveStatus(pct, now, g.Deadline)

	if g.FiredMilestones == nil {
		g.FiredMilestones = make(map[int]bool)
	}
	var fired []int
	for _, threshold := range models.MilestoneThresholds {
		if pct >= float64(threshold) && !g.FiredMilestones[threshold] {
			g.FiredMilestones[threshold] = true
			fired = append(fired, threshold)
		}
	}
	sort.Ints(fired)
	return status, fired
}
