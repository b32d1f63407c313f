// Package store keeps a SQLite history of classification runs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/classifier"
)

// Run is one recorded classification.
type Run struct {
	ID        string
	StartedAt time.Time
	RuleTable string
	Seed      uint64
	Rows      int
	Input     string
}

// Row is the stored outcome of one record.
type Row struct {
	RecordID    string
	DamageType  string
	Severity    float64
	HasSeverity bool
	Anomaly     string
}

// Count is the number of rows assigned one damage type in a run.
type Count struct {
	DamageType   string
	Rows         int
	MeanSeverity float64
	HasSeverity  bool
}

// timeLayout is fixed width so that text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite backed history. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// Open opens (creating when needed) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logf("opened %s", path)
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		rule_table TEXT NOT NULL,
		seed TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		input TEXT
	);
	CREATE TABLE IF NOT EXISTS assessments (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		record_id TEXT NOT NULL,
		damage_type TEXT NOT NULL,
		severity REAL,
		anomaly TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_assessments_run ON assessments(run_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create history tables: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RowsFromResults converts batch results into stored rows.
func RowsFromResults(results []classifier.Result) []Row {
	out := make([]Row, 0, len(results))
	for _, r := range results {
		a := r.Assessment
		row := Row{
			RecordID:    a.RecordID,
			DamageType:  a.DamageType,
			Severity:    a.Severity,
			HasSeverity: a.HasSeverity,
		}
		switch {
		case r.Err != nil:
			row.Anomaly = "rejected: " + r.Err.Error()
		case len(a.Anomalies) > 0:
			row.Anomaly = joinAnomalies(a.Anomalies)
		}
		out = append(out, row)
	}
	return out
}

func joinAnomalies(list []string) string {
	out := list[0]
	for _, a := range list[1:] {
		out += "; " + a
	}
	return out
}

// SaveRun records a run and its rows in one transaction. An empty ID is
// replaced by a new UUID and a zero StartedAt by the current time.
func (s *Store) SaveRun(ctx context.Context, run Run, rows []Row) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.StartedAt = run.StartedAt.UTC()
	run.Rows = len(rows)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("begin history transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, rule_table, seed, row_count, input) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.Format(timeLayout), run.RuleTable, strconv.FormatUint(run.Seed, 10), run.Rows, run.Input)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO assessments (run_id, record_id, damage_type, severity, anomaly) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("prepare assessment insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range rows {
		sev := sql.NullFloat64{Float64: r.Severity, Valid: r.HasSeverity}
		anomaly := sql.NullString{String: r.Anomaly, Valid: r.Anomaly != ""}
		if _, err := stmt.ExecContext(ctx, run.ID, r.RecordID, r.DamageType, sev, anomaly); err != nil {
			return Run{}, fmt.Errorf("insert assessment %s: %w", r.RecordID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit history: %w", err)
	}
	logf("saved run %s with %d row(s)", run.ID, run.Rows)
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, started_at, rule_table, seed, row_count, COALESCE(input, '') FROM runs ORDER BY started_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started, seed string
		if err := rows.Scan(&r.ID, &started, &r.RuleTable, &seed, &r.Rows, &r.Input); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("run %s: bad timestamp %q: %w", r.ID, started, err)
		}
		if r.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
			return nil, fmt.Errorf("run %s: bad seed %q: %w", r.ID, seed, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun looks up one run by id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		return Run{}, err
	}
	for _, r := range runs {
		if r.ID == id {
			return r, nil
		}
	}
	return Run{}, apperr.Userf("run %q not found in history", id)
}

// Distribution counts the rows of a run per damage type, most frequent first.
func (s *Store) Distribution(ctx context.Context, runID string) ([]Count, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Userf("run %q not found in history", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("look up run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT damage_type, COUNT(*) AS n, AVG(severity)
		FROM assessments
		WHERE run_id = ?
		GROUP BY damage_type
		ORDER BY n DESC, damage_type`, runID)
	if err != nil {
		return nil, fmt.Errorf("query distribution: %w", err)
	}
	defer rows.Close()

	var out []Count
	for rows.Next() {
		var c Count
		var mean sql.NullFloat64
		if err := rows.Scan(&c.DamageType, &c.Rows, &mean); err != nil {
			return nil, fmt.Errorf("scan distribution: %w", err)
		}
		c.MeanSeverity, c.HasSeverity = mean.Float64, mean.Valid
		out = append(out, c)
	}
	return out, rows.Err()
}
