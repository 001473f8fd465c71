package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/repcoach/internal/config"
	"github.com/claude/repcoach/internal/importer"
	"github.com/claude/repcoach/internal/storage"
	"github.com/claude/repcoach/internal/taxonomy"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	historyPath := flag.String("path", "", "path to a session export file or directory (required)")
	userID := flag.Int("user", 1, "user ID to import history into")
	dryRun := flag.Bool("dry-run", false, "report counts without inserting into database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *historyPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: repcoach-import -config config.yaml -path /path/to/export.json [-user 1] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	idx, err := taxonomy.LoadEmbedded()
	if err != nil {
		log.Error("failed to load exercise taxonomy", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var db *storage.DB
	if *dryRun {
		log.Info("DRY RUN mode: no data will be written to the database")
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		dsn := cfg.Database.DSN()

		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

		db, err = storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		log.Info("database connected")

		if _, err := db.UpsertExercises(ctx, idx.All()); err != nil {
			log.Error("exercise catalog sync failed", "error", err)
			os.Exit(1)
		}
	}

	imp := importer.New(db, idx, *userID, log, *dryRun)
	stats, err := imp.Import(ctx, *historyPath)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"sessions_inserted", stats.SessionsInserted,
		"sessions_skipped", stats.SessionsSkipped,
		"sets_inserted", stats.SetsInserted,
	)
	if len(stats.UnknownExercises) > 0 {
		log.Info("unknown exercises (not in taxonomy)", "exercises", stats.UnknownExercises)
	}
}
