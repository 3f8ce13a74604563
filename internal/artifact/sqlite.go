package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore persists runs and artifacts in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database at path in WAL mode.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("artifact: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("artifact: open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("artifact: set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("artifact: initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			slug        TEXT NOT NULL,
			started_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS artifacts (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			stage       TEXT NOT NULL,
			name        TEXT NOT NULL,
			mime_type   TEXT NOT NULL,
			data        BLOB,
			created_at  TEXT NOT NULL,
			UNIQUE(run_id, name),
			FOREIGN KEY (run_id) REFERENCES runs(id)
		);

		CREATE TABLE IF NOT EXISTS stage_statuses (
			run_id       TEXT NOT NULL,
			stage        TEXT NOT NULL,
			completed    INTEGER NOT NULL,
			error        TEXT NOT NULL DEFAULT '',
			finished_at  TEXT NOT NULL,
			PRIMARY KEY (run_id, stage),
			FOREIGN KEY (run_id) REFERENCES runs(id)
		);

		CREATE INDEX IF NOT EXISTS idx_artifacts_run ON artifacts(run_id);
	`)
	return err
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, slug, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Slug, run.StartedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("artifact: insert run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, slug, started_at FROM runs WHERE id = ?`, runID)

	var run Run
	var started string
	if err := row.Scan(&run.ID, &run.Slug, &started); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: run %q", ErrNotFound, runID)
		}
		return nil, fmt.Errorf("artifact: get run: %w", err)
	}
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	return &run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, slug, started_at FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("artifact: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started string
		if err := rows.Scan(&run.ID, &run.Slug, &started); err != nil {
			return nil, fmt.Errorf("artifact: scan run: %w", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) SetRunSlug(ctx context.Context, runID, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET slug = ? WHERE id = ?`, slug, runID)
	if err != nil {
		return fmt.Errorf("artifact: set run slug: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: run %q", ErrNotFound, runID)
	}
	return nil
}

func (s *SQLiteStore) PutArtifact(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (run_id, stage, name, mime_type, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, name) DO UPDATE SET
			stage = excluded.stage,
			mime_type = excluded.mime_type,
			data = excluded.data,
			created_at = excluded.created_at`,
		rec.RunID, rec.Stage, rec.Name, rec.MIMEType, rec.Data,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("artifact: put artifact %q: %w", rec.Name, err)
	}
	return nil
}

func (s *SQLiteStore) GetArtifact(ctx context.Context, runID, name string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, stage, name, mime_type, data, created_at
		FROM artifacts WHERE run_id = ? AND name = ?`, runID, name)

	rec, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: artifact %q in run %q", ErrNotFound, name, runID)
		}
		return nil, fmt.Errorf("artifact: get artifact: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) ListArtifacts(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, stage, name, mime_type, data, created_at
		FROM artifacts WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("artifact: list artifacts: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("artifact: scan artifact: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) SetStageStatus(ctx context.Context, st StageStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	completed := 0
	if st.Completed {
		completed = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stage_statuses (run_id, stage, completed, error, finished_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, stage) DO UPDATE SET
			completed = excluded.completed,
			error = excluded.error,
			finished_at = excluded.finished_at`,
		st.RunID, st.Stage, completed, st.Error,
		st.FinishedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("artifact: set stage status: %w", err)
	}
	return nil
}

func (s *SQLiteStore) StageStatuses(ctx context.Context, runID string) ([]StageStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, stage, completed, error, finished_at
		FROM stage_statuses WHERE run_id = ? ORDER BY finished_at`, runID)
	if err != nil {
		return nil, fmt.Errorf("artifact: stage statuses: %w", err)
	}
	defer rows.Close()

	var statuses []StageStatus
	for rows.Next() {
		var st StageStatus
		var completed int
		var finished string
		if err := rows.Scan(&st.RunID, &st.Stage, &completed, &st.Error, &finished); err != nil {
			return nil, fmt.Errorf("artifact: scan stage status: %w", err)
		}
		st.Completed = completed != 0
		st.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		statuses = append(statuses, st)
	}
	return statuses, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanRecord(scan func(dest ...any) error) (*Record, error) {
	var rec Record
	var created string
	if err := scan(&rec.RunID, &rec.Stage, &rec.Name, &rec.MIMEType, &rec.Data, &created); err != nil {
		return nil, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &rec, nil
}
