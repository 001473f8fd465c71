// Package importer backfills session history from JSON export files.
// Exercises are referenced by name or ID and resolved against the
// taxonomy; unknown names are skipped and reported rather than
// aborting the run.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/storage"
	"github.com/claude/repcoach/internal/taxonomy"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	SessionsInserted int
	SessionsSkipped  int
	SetsInserted     int64

	UnknownExercises []string
}

// exportSet mirrors one set in the export format.
type exportSet struct {
	WeightKg    float64    `json:"weight_kg"`
	Reps        int        `json:"reps"`
	RPE         *float64   `json:"rpe,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// exportExercise groups sets under an exercise name or ID.
type exportExercise struct {
	Exercise string      `json:"exercise"`
	Sets     []exportSet `json:"sets"`
}

// exportSession is one historical session in the export format.
type exportSession struct {
	StartedAt time.Time        `json:"started_at"`
	EndedAt   *time.Time       `json:"ended_at,omitempty"`
	Exercises []exportExercise `json:"exercises"`
}

type exportFile struct {
	Sessions []exportSession `json:"sessions"`
}

// Importer reads session export files and inserts history into the DB.
type Importer struct {
	db     *storage.DB
	idx    *taxonomy.Index
	log    *slog.Logger
	userID int
	dryRun bool
	stats  Stats
}

// New creates a new Importer. In dry-run mode nothing touches the
// database; counts are reported as if the import had run.
func New(db *storage.DB, idx *taxonomy.Index, userID int, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{db: db, idx: idx, userID: userID, log: log, dryRun: dryRun}
}

// Import processes a single .json file or every .json file in a
// directory, in name order.
func (imp *Importer) Import(ctx context.Context, path string) (*Stats, error) {
	info, err := os.Stat(path)
	if err != nil {
		return &imp.stats, fmt.Errorf("stat %s: %w", path, err)
	}

	files := []string{path}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return &imp.stats, fmt.Errorf("reading %s: %w", path, err)
		}
		files = files[:0]
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				imp.stats.FilesSkipped++
				continue
			}
			files = append(files, filepath.Join(path, entry.Name()))
		}
		sort.Strings(files)
	}

	unknown := map[string]bool{}
	for _, file := range files {
		if err := imp.importFile(ctx, file, unknown); err != nil {
			imp.stats.FilesErrored++
			imp.log.Error("file import failed", "file", file, "error", err)
			continue
		}
		imp.stats.FilesProcessed++
	}

	for name := range unknown {
		imp.stats.UnknownExercises = append(imp.stats.UnknownExercises, name)
	}
	sort.Strings(imp.stats.UnknownExercises)

	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path string, unknown map[string]bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var export exportFile
	if err := json.Unmarshal(data, &export); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	for i := range export.Sessions {
		if err := imp.importSession(ctx, &export.Sessions[i], unknown); err != nil {
			return fmt.Errorf("session %d: %w", i, err)
		}
	}
	return nil
}

func (imp *Importer) importSession(ctx context.Context, es *exportSession, unknown map[string]bool) error {
	if es.StartedAt.IsZero() {
		imp.stats.SessionsSkipped++
		imp.log.Warn("skipping session without start time")
		return nil
	}

	resolved := imp.resolveExercises(es, unknown)
	if len(resolved) == 0 {
		imp.stats.SessionsSkipped++
		imp.log.Warn("skipping session with no resolvable exercises", "started_at", es.StartedAt)
		return nil
	}

	if imp.dryRun {
		imp.stats.SessionsInserted++
		for _, ex := range resolved {
			imp.stats.SetsInserted += int64(len(ex.Sets))
		}
		return nil
	}

	session := &models.WorkoutSession{
		ID:        uuid.New(),
		UserID:    imp.userID,
		StartedAt: es.StartedAt,
	}
	if err := imp.db.CreateSession(ctx, session); err != nil {
		return err
	}

	for _, ex := range resolved {
		inserted, err := imp.db.InsertSets(ctx, session.ID, ex.ExerciseID, 1, ex.Sets)
		if err != nil {
			return err
		}
		imp.stats.SetsInserted += inserted
	}

	endedAt := es.StartedAt.Add(time.Hour)
	if es.EndedAt != nil {
		endedAt = *es.EndedAt
	}
	if err := imp.db.CompleteSession(ctx, session.ID, imp.userID, endedAt); err != nil {
		return err
	}
	imp.stats.SessionsInserted++
	return nil
}

// resolveExercises maps export exercise references onto catalog IDs,
// dropping unknowns and empty set lists.
func (imp *Importer) resolveExercises(es *exportSession, unknown map[string]bool) []models.SessionExercise {
	var out []models.SessionExercise
	for _, ex := range es.Exercises {
		if len(ex.Sets) == 0 {
			continue
		}

		id := ex.Exercise
		if _, err := imp.idx.GetByID(id); err != nil {
			resolved, ok := imp.idx.Resolve(ex.Exercise)
			if !ok {
				unknown[ex.Exercise] = true
				continue
			}
			id = resolved
		}

		sets := make([]models.SetEntry, 0, len(ex.Sets))
		for _, s := range ex.Sets {
			at := es.StartedAt
			if s.CompletedAt != nil {
				at = *s.CompletedAt
			}
			sets = append(sets, models.SetEntry{
				Weight:      s.WeightKg,
				Reps:        s.Reps,
				RPE:         s.RPE,
				CompletedAt: at,
			})
		}
		out = append(out, models.SessionExercise{ExerciseID: id, Sets: sets})
	}
	return out
}
