// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/subcrack/internal/bigram"
	"github.com/verte-zerg/subcrack/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a run or model does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps SQLite access for runs and cached models.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			source TEXT NOT NULL,
			ciphertext TEXT NOT NULL,
			iterations INTEGER NOT NULL,
			trials INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			best_key TEXT NOT NULL,
			best_score REAL NOT NULL,
			baseline_score REAL NOT NULL,
			decrypted TEXT NOT NULL,
			expect_key TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_trials (
			run_id INTEGER NOT NULL,
			trial INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			best_key TEXT NOT NULL,
			best_score REAL NOT NULL,
			explored INTEGER NOT NULL,
			accepted INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			trace TEXT NOT NULL,
			PRIMARY KEY (run_id, trial)
		);`,
		`CREATE TABLE IF NOT EXISTS models (
			name TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS model_pairs (
			model_name TEXT NOT NULL,
			pair TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (model_name, pair)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ended_at ON runs(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores a completed run and its trials.
func (s *Store) InsertRun(ctx context.Context, run model.RunRecord, trials []model.TrialRecord) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, ended_at, source, ciphertext, iterations, trials, seed, best_key, best_score, baseline_score, decrypted, expect_key)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt.Format(time.RFC3339Nano),
		run.EndedAt.Format(time.RFC3339Nano),
		run.Source,
		run.Ciphertext,
		run.Iterations,
		run.Trials,
		run.Seed,
		run.BestKey,
		run.BestScore,
		run.BaselineScore,
		run.Decrypted,
		run.ExpectKey,
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(trials) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO run_trials (run_id, trial, seed, best_key, best_score, explored, accepted, duration_ms, trace)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, tr := range trials {
			trace, merr := json.Marshal(traceOrEmpty(tr.Trace))
			if merr != nil {
				err = merr
				return 0, err
			}
			if _, err = stmt.ExecContext(ctx, id, tr.Trial, tr.Seed, tr.BestKey, tr.BestScore, tr.Explored, tr.Accepted, tr.DurationMs, string(trace)); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func traceOrEmpty(trace []float64) []float64 {
	if trace == nil {
		return []float64{}
	}
	return trace
}

const runColumns = `id, started_at, ended_at, source, ciphertext, iterations, trials, seed, best_key, best_score, baseline_score, decrypted, expect_key`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (model.RunRecord, error) {
	var run model.RunRecord
	var startedAt, endedAt string
	if err := row.Scan(&run.ID, &startedAt, &endedAt, &run.Source, &run.Ciphertext, &run.Iterations, &run.Trials,
		&run.Seed, &run.BestKey, &run.BestScore, &run.BaselineScore, &run.Decrypted, &run.ExpectKey); err != nil {
		return model.RunRecord{}, err
	}
	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return model.RunRecord{}, err
	}
	if run.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all;
// a non-empty source keeps runs whose source contains it.
func (s *Store) ListRuns(ctx context.Context, filter model.HistoryConfig) ([]model.RunRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	source := strings.TrimSpace(filter.Source)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs
		WHERE ? = '' OR instr(source, ?) > 0
		ORDER BY ended_at DESC, id DESC LIMIT ?`, source, source, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetRun loads a run and its trials ordered by trial index.
func (s *Store) GetRun(ctx context.Context, id int64) (model.RunDetail, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.RunDetail{}, fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.RunDetail{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT trial, seed, best_key, best_score, explored, accepted, duration_ms, trace
		 FROM run_trials WHERE run_id = ? ORDER BY trial ASC`, id)
	if err != nil {
		return model.RunDetail{}, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	detail := model.RunDetail{Run: run}
	for rows.Next() {
		var tr model.TrialRecord
		var trace string
		if err := rows.Scan(&tr.Trial, &tr.Seed, &tr.BestKey, &tr.BestScore, &tr.Explored, &tr.Accepted, &tr.DurationMs, &trace); err != nil {
			return model.RunDetail{}, err
		}
		if err := json.Unmarshal([]byte(trace), &tr.Trace); err != nil {
			return model.RunDetail{}, fmt.Errorf("failed to decode trace for trial %d: %w", tr.Trial, err)
		}
		detail.Trials = append(detail.Trials, tr)
	}
	if err := rows.Err(); err != nil {
		return model.RunDetail{}, err
	}
	return detail, nil
}

// SaveModel stores a bigram table under name, replacing any previous one.
func (s *Store) SaveModel(ctx context.Context, name, source string, table *bigram.Table) (err error) {
	if name == "" {
		return fmt.Errorf("model name is empty")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM model_pairs WHERE model_name = ?`, name); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO models (name, source, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET source = excluded.source, created_at = excluded.created_at`,
		name, source, time.Now().Format(time.RFC3339Nano)); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO model_pairs (model_name, pair, count) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, pc := range table.Pairs() {
		if _, err = stmt.ExecContext(ctx, name, pc.Pair, pc.Count); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadModel rebuilds a cached bigram table.
func (s *Store) LoadModel(ctx context.Context, name string) (*bigram.Table, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM models WHERE name = ?`, name).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("model %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT pair, count FROM model_pairs WHERE model_name = ?`, name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	counts := map[string]int{}
	for rows.Next() {
		var pair string
		var count int
		if err := rows.Scan(&pair, &count); err != nil {
			return nil, err
		}
		counts[pair] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bigram.FromCounts(counts)
}

// ListModels summarizes cached models by name.
func (s *Store) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.name, m.source, m.created_at, COUNT(p.pair), COALESCE(SUM(p.count), 0)
		 FROM models m
		 LEFT JOIN model_pairs p ON p.model_name = m.name
		 GROUP BY m.name
		 ORDER BY m.name ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ModelInfo
	for rows.Next() {
		var info model.ModelInfo
		var createdAt string
		if err := rows.Scan(&info.Name, &info.Source, &createdAt, &info.Pairs, &info.Total); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		info.CreatedAt = parsed
		result = append(result, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
