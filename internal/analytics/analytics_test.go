package analytics

import (
	"io"
	"log/slog"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repcoach/internal/models"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sessionOn builds a completed session starting on the given day with
// one bench press exercise of the given sets.
func sessionOn(day time.Time, sets ...models.SetEntry) models.WorkoutSession {
	return models.WorkoutSession{
		ID:        uuid.New(),
		UserID:    1,
		StartedAt: day,
		Completed: true,
		Exercises: []models.SessionExercise{
			{ExerciseID: "barbell-bench-press", Sets: sets},
		},
	}
}

func set(weight float64, reps int, at time.Time) models.SetEntry {
	return models.SetEntry{Weight: weight, Reps: reps, CompletedAt: at}
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 9, 0, 0, 0, time.UTC)
}

func TestComputeStreaksGapBreaksRun(t *testing.T) {
	// Active on days 1,2,3,5,6 of March; day 4 missing. Longest run is
	// the three days 1..3; the current run ending on day 6 has two.
	var sessions []models.WorkoutSession
	for _, d := range []int{1, 2, 3, 5, 6} {
		sessions = append(sessions, sessionOn(day(d), set(60, 10, day(d))))
	}
	now := time.Date(2026, 3, 6, 20, 0, 0, 0, time.UTC)

	got := ComputeStreaks(sessions, time.UTC, now)
	if got.CurrentDays != 2 {
		t.Errorf("CurrentDays = %d, want 2", got.CurrentDays)
	}
	if got.LongestDays != 3 {
		t.Errorf("LongestDays = %d, want 3", got.LongestDays)
	}
	if got.LastActive == nil || got.LastActive.Day() != 6 {
		t.Errorf("LastActive = %v, want March 6", got.LastActive)
	}
}

func TestComputeStreaksCurrentExpires(t *testing.T) {
	sessions := []models.WorkoutSession{sessionOn(day(1), set(60, 10, day(1)))}

	// Still current the day after the last active day.
	got := ComputeStreaks(sessions, time.UTC, day(2))
	if got.CurrentDays != 1 {
		t.Errorf("next-day CurrentDays = %d, want 1", got.CurrentDays)
	}

	// Broken two days after.
	got = ComputeStreaks(sessions, time.UTC, day(3))
	if got.CurrentDays != 0 {
		t.Errorf("stale CurrentDays = %d, want 0", got.CurrentDays)
	}
	if got.LongestDays != 1 {
		t.Errorf("LongestDays = %d, want 1", got.LongestDays)
	}
}

func TestComputeStreaksMultipleSessionsSameDay(t *testing.T) {
	morning := sessionOn(day(1), set(60, 10, day(1)))
	evening := sessionOn(day(1).Add(9*time.Hour), set(40, 12, day(1)))
	got := ComputeStreaks([]models.WorkoutSession{morning, evening}, time.UTC, day(1))
	if got.CurrentDays != 1 || got.LongestDays != 1 {
		t.Errorf("same-day sessions counted twice: %+v", got)
	}
}

func TestComputeStreaksEmpty(t *testing.T) {
	got := ComputeStreaks(nil, time.UTC, day(1))
	if got.CurrentDays != 0 || got.LongestDays != 0 || got.LastActive != nil {
		t.Errorf("empty history streaks = %+v", got)
	}
}

func TestBrzycki1RM(t *testing.T) {
	tests := []struct {
		weight float64
		reps   int
		want   float64
		ok     bool
	}{
		{100, 5, 112.5, true}, // 100 × 36/32
		{100, 1, 100, true},
		{80, 35, 1440, true}, // 80 × 36/2
		{100, 36, 0, false},  // formula undefined at and past 36
		{100, 0, 0, false},
		{100, -1, 0, false},
	}
	for _, tc := range tests {
		got, ok := Brzycki1RM(tc.weight, tc.reps)
		if ok != tc.ok {
			t.Errorf("Brzycki1RM(%v, %d) ok = %v, want %v", tc.weight, tc.reps, ok, tc.ok)
			continue
		}
		if ok && math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Brzycki1RM(%v, %d) = %v, want %v", tc.weight, tc.reps, got, tc.want)
		}
	}
}

func TestPersonalRecordsKindsAndImprovement(t *testing.T) {
	s1 := sessionOn(day(1), set(100, 5, day(1)), set(90, 8, day(1)))
	s2 := sessionOn(day(3), set(105, 5, day(3)))

	recs := ComputePersonalRecords([]models.WorkoutSession{s1, s2})

	find := func(kind models.RecordKind) *models.PersonalRecord {
		for i := range recs {
			if recs[i].Kind == kind {
				return &recs[i]
			}
		}
		t.Fatalf("no %s record in %+v", kind, recs)
		return nil
	}

	if r := find(models.RecordMaxWeight); r.Value != 105 || r.Improvement != 5 {
		t.Errorf("max weight = %+v, want value 105 improvement 5", r)
	}
	if r := find(models.RecordMaxReps); r.Value != 8 {
		t.Errorf("max reps = %+v, want 8", r)
	}
	// Session 1 volume 100×5 + 90×8 = 1220 beats session 2's 525.
	if r := find(models.RecordMaxVolume); r.Value != 1220 {
		t.Errorf("max volume = %+v, want 1220", r)
	}
	// Best estimate is 105 × 36/32 = 118.125 from session 2.
	if r := find(models.RecordEstimated1RM); math.Abs(r.Value-118.125) > 1e-9 {
		t.Errorf("estimated 1RM = %+v, want 118.125", r)
	}
}

func TestPersonalRecordsHighRepSetExcludedFrom1RM(t *testing.T) {
	s := sessionOn(day(1), set(50, 36, day(1)))
	recs := ComputePersonalRecords([]models.WorkoutSession{s})
	for _, r := range recs {
		if r.Kind == models.RecordEstimated1RM {
			t.Errorf("36-rep set produced a 1RM record: %+v", r)
		}
		if r.Kind == models.RecordMaxReps && r.Value != 36 {
			t.Errorf("max reps = %v, want 36", r.Value)
		}
	}
}

func TestPersonalRecordsBackfillOrderIndependent(t *testing.T) {
	s1 := sessionOn(day(1), set(100, 5, day(1)))
	s2 := sessionOn(day(3), set(105, 5, day(3)))

	forward := ComputePersonalRecords([]models.WorkoutSession{s1, s2})
	backfilled := ComputePersonalRecords([]models.WorkoutSession{s2, s1})
	if !reflect.DeepEqual(forward, backfilled) {
		t.Errorf("records depend on input order:\n%+v\nvs\n%+v", forward, backfilled)
	}
}

func TestWeeklyVolumeBuckets(t *testing.T) {
	// March 2026: the 2nd is a Monday. Sessions on Mon 2 and Sun 8 share
	// a bucket; Tue 10 starts the next one.
	sessions := []models.WorkoutSession{
		sessionOn(day(2), set(100, 10, day(2))), // 1000
		sessionOn(day(8), set(50, 10, day(8))),  // 500
		sessionOn(day(10), set(80, 10, day(10))),
	}
	got := WeeklyVolume(sessions, time.UTC)
	if len(got) != 2 {
		t.Fatalf("bucket count = %d, want 2", len(got))
	}
	if !got[0].WeekStart.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first week start = %v, want March 2", got[0].WeekStart)
	}
	if got[0].Volume != 1500 || got[0].Sessions != 2 {
		t.Errorf("first bucket = %+v, want volume 1500 over 2 sessions", got[0])
	}
	if got[1].Volume != 800 || got[1].Sessions != 1 {
		t.Errorf("second bucket = %+v, want volume 800 over 1 session", got[1])
	}
}

func TestClassifyTrend(t *testing.T) {
	mk := func(volumes ...float64) []VolumePoint {
		out := make([]VolumePoint, len(volumes))
		for i, v := range volumes {
			out[i] = VolumePoint{WeekStart: day(2).AddDate(0, 0, 7*i), Volume: v}
		}
		return out
	}

	tests := []struct {
		name   string
		points []VolumePoint
		want   TrendClassification
	}{
		{"improving", mk(1000, 1100, 1200), TrendImproving},
		{"declining", mk(1200, 1000, 900), TrendDeclining},
		{"plateau within band", mk(1000, 990, 1030), TrendPlateau},
		{"single point", mk(1000), TrendNoData},
		{"empty", nil, TrendNoData},
		{"zero baseline", mk(0, 500), TrendNoData},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyTrend(tc.points, 4); got != tc.want {
				t.Errorf("ClassifyTrend = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestTrendChangeWindow(t *testing.T) {
	points := []VolumePoint{
		{Volume: 9000}, {Volume: 1000}, {Volume: 1100}, {Volume: 1150}, {Volume: 1200},
	}
	// k=4 looks at the last four buckets only, so the 9000 outlier is out
	// of the window.
	got, ok := TrendChange(points, 4)
	if !ok {
		t.Fatal("TrendChange not ok")
	}
	if math.Abs(got-20) > 1e-9 {
		t.Errorf("change = %v%%, want 20%%", got)
	}
}

func TestComputeSkipsSetlessSessions(t *testing.T) {
	empty := models.WorkoutSession{
		ID: uuid.New(), UserID: 1, StartedAt: day(1), Completed: true,
		Exercises: []models.SessionExercise{{ExerciseID: "plank"}},
	}
	full := sessionOn(day(2), set(100, 5, day(2)))

	got := Compute([]models.WorkoutSession{empty, full}, time.UTC, day(2), discard())
	if got.Streaks.CurrentDays != 1 {
		t.Errorf("setless session counted toward streak: %+v", got.Streaks)
	}
	if len(got.WeeklyVolume) != 1 || got.WeeklyVolume[0].Sessions != 1 {
		t.Errorf("setless session counted toward volume: %+v", got.WeeklyVolume)
	}
}

func TestComputeIdempotent(t *testing.T) {
	sessions := []models.WorkoutSession{
		sessionOn(day(1), set(100, 5, day(1)), set(90, 8, day(1))),
		sessionOn(day(3), set(105, 5, day(3))),
		sessionOn(day(9), set(110, 4, day(9))),
	}
	now := day(10)
	first := Compute(sessions, time.UTC, now, discard())
	second := Compute(sessions, time.UTC, now, discard())
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Compute not idempotent:\n%+v\nvs\n%+v", first, second)
	}
}

func TestComputeEmptyHistory(t *testing.T) {
	got := Compute(nil, time.UTC, day(1), discard())
	if got.Trend != TrendNoData {
		t.Errorf("trend = %s, want no_data", got.Trend)
	}
	if got.PersonalRecords == nil || got.WeeklyVolume == nil {
		t.Error("empty history should yield empty slices, not nil")
	}
}
