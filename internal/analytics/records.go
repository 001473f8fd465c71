package analytics

import (
	"sort"

	"github.com/claude/repcoach/internal/models"
)

// brzycki1RMMaxReps is the exclusive upper bound for reps in the
// Brzycki estimate; at 37 the denominator hits zero.
const brzycki1RMMaxReps = 36

// Brzycki1RM estimates a one-rep max from a submaximal set:
// 1RM = weight × 36 / (37 − reps). Defined only for reps in [1,36);
// callers get (0, false) outside that range.
func Brzycki1RM(weight float64, reps int) (float64, bool) {
	if reps < 1 || reps >= brzycki1RMMaxReps {
		return 0, false
	}
	return weight * 36 / float64(37-reps), true
}

// ComputePersonalRecords rescans the full history and returns the best
// value per (exercise, record kind), with the improvement delta over
// the previous best. Sessions are re-sorted by start time internally,
// so backfilled sessions land in the right place and the output is
// independent of input order.
func ComputePersonalRecords(sessions []models.WorkoutSession) []models.PersonalRecord {
	ordered := make([]*models.WorkoutSession, 0, len(sessions))
	for i := range sessions {
		if sessions[i].Completed && sessions[i].HasSets() {
			ordered = append(ordered, &sessions[i])
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].StartedAt.Equal(ordered[j].StartedAt) {
			return ordered[i].StartedAt.Before(ordered[j].StartedAt)
		}
		return ordered[i].ID.String() < ordered[j].ID.String()
	})

	type key struct {
		exercise string
		kind     models.RecordKind
	}
	best := make(map[key]*models.PersonalRecord)

	observe := func(exerciseID string, kind models.RecordKind, value float64, at models.SetEntry) {
		k := key{exerciseID, kind}
		rec, ok := best[k]
		if !ok {
			best[k] = &models.PersonalRecord{
				ExerciseID: exerciseID, Kind: kind, Value: value, AchievedAt: at.CompletedAt,
			}
			return
		}
		if value > rec.Value {
			rec.Improvement = value - rec.Value
			rec.Value = value
			rec.AchievedAt = at.CompletedAt
		}
	}

	for _, s := range ordered {
		for _, ex := range s.Exercises {
			var sessionVolume float64
			var lastSet *models.SetEntry
			for i := range ex.Sets {
				set := ex.Sets[i]
				sessionVolume += set.Volume()
				lastSet = &ex.Sets[i]

				if set.Weight > 0 {
					observe(ex.ExerciseID, models.RecordMaxWeight, set.Weight, set)
				}
				if set.Reps > 0 {
					observe(ex.ExerciseID, models.RecordMaxReps, float64(set.Reps), set)
				}
				if est, ok := Brzycki1RM(set.Weight, set.Reps); ok && set.Weight > 0 {
					observe(ex.ExerciseID, models.RecordEstimated1RM, est, set)
				}
			}
			if sessionVolume > 0 && lastSet != nil {
				observe(ex.ExerciseID, models.RecordMaxVolume, sessionVolume, *lastSet)
			}
		}
	}

	out := make([]models.PersonalRecord, 0, len(best))
	for _, rec := range best {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExerciseID != out[j].ExerciseID {
			return out[i].ExerciseID < out[j].ExerciseID
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
