// Package sqlite provides the SQLite-backed extraction cache and run log.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/config"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Repository implements ports.ExtractionCache and ports.RunLog using SQLite.
type Repository struct {
	db   *sql.DB
	path string
	ttl  time.Duration
}

// NewRepository opens the database at cfg.Path. A zero TTL never expires
// cache entries.
func NewRepository(cfg config.CacheConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// Extraction workers share this handle; one connection serializes
	// writes and keeps a :memory: database alive.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
		ttl:  cfg.TTL,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Validated records per chunk, keyed by ontology fingerprint + chunk hash
	CREATE TABLE IF NOT EXISTS extraction_cache (
		key TEXT PRIMARY KEY,
		records TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_extraction_cache_created ON extraction_cache(created_at);

	-- End-of-run summaries
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		ontology TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		summary TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Get returns the cached records for key. Expired entries are misses.
func (r *Repository) Get(ctx context.Context, key string) ([]entities.ExtractedRecord, bool, error) {
	var data string
	var createdAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT records, created_at FROM extraction_cache WHERE key = ?`, key,
	).Scan(&data, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying cache: %w", err)
	}

	if r.ttl > 0 && timeNow().Sub(time.Unix(0, createdAt)) > r.ttl {
		return nil, false, nil
	}

	var records []entities.ExtractedRecord
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, false, fmt.Errorf("decoding cached records: %w", err)
	}
	return records, true, nil
}

// Put stores records under key, replacing any previous entry.
func (r *Repository) Put(ctx context.Context, key string, records []entities.ExtractedRecord) error {
	if records == nil {
		records = []entities.ExtractedRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO extraction_cache (key, records, created_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET records = excluded.records, created_at = excluded.created_at`,
		key, string(data), timeNow().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving cache entry: %w", err)
	}
	return nil
}

// Purge deletes expired cache entries and returns how many were removed.
func (r *Repository) Purge(ctx context.Context) (int64, error) {
	if r.ttl <= 0 {
		return 0, nil
	}
	cutoff := timeNow().Add(-r.ttl).UnixNano()
	res, err := r.db.ExecContext(ctx, `DELETE FROM extraction_cache WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return res.RowsAffected()
}

// CacheSize returns the number of cache entries, expired ones included.
func (r *Repository) CacheSize(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM extraction_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

// RecordRun stores a run summary. A summary without an ID gets one.
func (r *Repository) RecordRun(ctx context.Context, summary entities.RunSummary) error {
	if summary.ID == "" {
		summary.ID = uuid.New().String()
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding run summary: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO runs (id, ontology, started_at, finished_at, summary) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET finished_at = excluded.finished_at, summary = excluded.summary`,
		summary.ID, summary.Ontology, summary.StartedAt.UnixNano(), summary.FinishedAt.UnixNano(), string(data),
	)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]entities.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT summary FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []entities.RunSummary
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		var summary entities.RunSummary
		if err := json.Unmarshal([]byte(data), &summary); err != nil {
			return nil, fmt.Errorf("decoding run: %w", err)
		}
		runs = append(runs, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}
