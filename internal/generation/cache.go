package generation

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/claude/repcoach/internal/models"
	_ "modernc.org/sqlite"
)

// Cache stores recently generated plans keyed by the SHA-256 of the
// canonical prompt. Because the prompt builder is deterministic,
// identical requests hash identically. The cache is an optimization,
// never a correctness requirement: every error is swallowed by the
// orchestrator.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (or creates) the SQLite cache database at
// dir/gencache.db.
func OpenCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "gencache.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS generated_plans (
		prompt_hash TEXT PRIMARY KEY,
		source      TEXT NOT NULL,
		plan_json   TEXT NOT NULL,
		created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache table: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// PromptHash returns the cache key for a prompt.
func PromptHash(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached plan for a prompt hash, if present.
func (c *Cache) Get(hash string) (*models.WorkoutPlan, models.PlanSource, bool, error) {
	var source, planJSON string
	err := c.db.QueryRow(
		`SELECT source, plan_json FROM generated_plans WHERE prompt_hash = ?`, hash,
	).Scan(&source, &planJSON)
	if err == sql.ErrNoRows {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, err
	}

	var plan models.WorkoutPlan
	if err := json.Unmarshal([]byte(planJSON), &plan); err != nil {
		return nil, "", false, fmt.Errorf("decoding cached plan: %w", err)
	}
	return &plan, models.PlanSource(source), true, nil
}

// Put records a generated plan. Replaces any previous entry for the
// same hash.
func (c *Cache) Put(hash string, plan *models.WorkoutPlan, source models.PlanSource) error {
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	_, err = c.db.Exec(
		`INSERT INTO generated_plans (prompt_hash, source, plan_json) VALUES (?, ?, ?)
		 ON CONFLICT(prompt_hash) DO UPDATE SET source = excluded.source, plan_json = excluded.plan_json`,
		hash, string(source), string(planJSON),
	)
	if err != nil {
		return fmt.Errorf("storing cached plan: %w", err)
	}
	return nil
}
