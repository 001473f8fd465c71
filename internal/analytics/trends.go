package analytics

import (
	"sort"
	"time"

	"github.com/claude/repcoach/internal/models"
)

// plateauBandPct is the symmetric band inside which a volume change
// counts as a plateau.
const plateauBandPct = 5.0

// TrendClassification labels the direction of recent training volume.
type TrendClassification string

const (
	TrendImproving TrendClassification = "improving"
	TrendPlateau   TrendClassification = "plateau"
	TrendDeclining TrendClassification = "declining"
	TrendNoData    TrendClassification = "no_data"
)

// VolumePoint is the summed training volume for one ISO-week bucket.
type VolumePoint struct {
	WeekStart time.Time `json:"week_start"`
	Volume    float64   `json:"volume_kg"`
	Sessions  int       `json:"sessions"`
}

// WeeklyVolume groups completed sessions into ISO weeks (Monday start,
// normalized to loc) and sums Σ weight×reps. Buckets come back in
// chronological order; weeks without training are absent.
func WeeklyVolume(sessions []models.WorkoutSession, loc *time.Location) []VolumePoint {
	byWeek := make(map[time.Time]*VolumePoint)
	for i := range sessions {
		s := &sessions[i]
		if !s.Completed || !s.HasSets() {
			continue
		}
		week := weekStart(s.StartedAt, loc)
		p, ok := byWeek[week]
		if !ok {
			p = &VolumePoint{WeekStart: week}
			byWeek[week] = p
		}
		p.Volume += models.ComputeSessionMetrics(s).TotalVolume
		p.Sessions++
	}

	out := make([]VolumePoint, 0, len(byWeek))
	for _, p := range byWeek {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.Before(out[j].WeekStart) })
	return out
}

// TrendChange returns the percentage volume change across the last k
// buckets (first vs last of that window). ok is false with fewer than
// two buckets or a zero baseline.
func TrendChange(points []VolumePoint, k int) (float64, bool) {
	if k < 2 {
		k = 2
	}
	if len(points) < 2 {
		return 0, false
	}
	window := points
	if len(window) > k {
		window = window[len(window)-k:]
	}
	base := window[0].Volume
	if base == 0 {
		return 0, false
	}
	return (window[len(window)-1].Volume - base) / base * 100, true
}

// ClassifyTrend buckets the percentage change: within ±5% is a
// plateau, above improving, below declining.
func ClassifyTrend(points []VolumePoint, k int) TrendClassification {
	change, ok := TrendChange(points, k)
	if !ok {
		return TrendNoData
	}
	switch {
	case change > plateauBandPct:
		return TrendImproving
	case change < -plateauBandPct:
		return TrendDeclining
	default:
		return TrendPlateau
	}
}

// weekStart returns the Monday 00:00 of t's ISO week in loc.
func weekStart(t time.Time, loc *time.Location) time.Time {
	d := dayStart(t, loc)
	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the week that started 6 days earlier
	}
	return d.AddDate(0, 0, -(weekday - 1))
}
