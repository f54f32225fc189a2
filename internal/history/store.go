// Package history archives completed runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/GoSim-25-26J-441/optimization-center/internal/notify"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/logger"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
)

// ErrNotFound is returned by Get for an unknown run
var ErrNotFound = errors.New("run not found")

// MemoryPath opens a private in-memory archive
const MemoryPath = ":memory:"

const recordTimeout = 5 * time.Second

// fixed width so stored timestamps sort lexicographically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the completed-run archive
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// Open opens or creates the archive at path
func Open(path string) (*Store, error) {
	dsn := MemoryPath
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create history directory: %w", err)
			}
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the archive location
func (s *Store) Path() string {
	return s.path
}

// Record stores a completion event, replacing an earlier record of the same run
func (s *Store) Record(ctx context.Context, ev models.CompletionEvent) error {
	params, err := json.Marshal(ev.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	best, err := json.Marshal(ev.Best)
	if err != nil {
		return fmt.Errorf("failed to marshal best candidate: %w", err)
	}
	result, err := json.Marshal(ev.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (
			run_id, session_id, started_at, completed_at, iterations, seed,
			strength, best_score, params, best, result
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.RunID, ev.SessionID,
		ev.StartedAt.UTC().Format(timeLayout), ev.CompletedAt.UTC().Format(timeLayout),
		ev.Iterations, ev.Seed, ev.Params.Strength, ev.Best.Score,
		string(params), string(best), string(result))
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", ev.RunID, err)
	}
	return nil
}

const selectColumns = `run_id, session_id, started_at, completed_at, iterations, seed, params, best, result`

// List returns the most recently completed runs first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]models.CompletionEvent, error) {
	query := `SELECT ` + selectColumns + ` FROM runs ORDER BY completed_at DESC, run_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]models.CompletionEvent, 0)
	for rows.Next() {
		ev, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Get returns one archived run
func (s *Store) Get(ctx context.Context, runID string) (models.CompletionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM runs WHERE run_id = ?`, runID)
	ev, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CompletionEvent{}, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return ev, err
}

// Count returns the number of archived runs
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (models.CompletionEvent, error) {
	var (
		ev                     models.CompletionEvent
		startedAt, completedAt string
		params, best, result   string
	)
	if err := row.Scan(&ev.RunID, &ev.SessionID, &startedAt, &completedAt, &ev.Iterations, &ev.Seed, &params, &best, &result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ev, err
		}
		return ev, fmt.Errorf("failed to scan run: %w", err)
	}

	var err error
	if ev.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return ev, fmt.Errorf("invalid started_at for run %s: %w", ev.RunID, err)
	}
	if ev.CompletedAt, err = time.Parse(timeLayout, completedAt); err != nil {
		return ev, fmt.Errorf("invalid completed_at for run %s: %w", ev.RunID, err)
	}
	if err := json.Unmarshal([]byte(params), &ev.Params); err != nil {
		return ev, fmt.Errorf("invalid params for run %s: %w", ev.RunID, err)
	}
	if err := json.Unmarshal([]byte(best), &ev.Best); err != nil {
		return ev, fmt.Errorf("invalid best candidate for run %s: %w", ev.RunID, err)
	}
	if err := json.Unmarshal([]byte(result), &ev.Result); err != nil {
		return ev, fmt.Errorf("invalid result for run %s: %w", ev.RunID, err)
	}
	return ev, nil
}

// Attach records every completion published on bus. The returned function
// detaches the archive.
func (s *Store) Attach(bus *notify.Bus) func() {
	return bus.Subscribe(func(ev models.CompletionEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := s.Record(ctx, ev); err != nil {
			logger.Error("Failed to archive run", "run_id", ev.RunID, "error", err)
			return
		}
		logger.Debug("Run archived", "run_id", ev.RunID, "session_id", ev.SessionID)
	})
}

// Close closes the database
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
