package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	cerrors "github.com/cordonlabs/cordon/internal/errors"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteRepository implements ReportRepository on a local SQLite file.
// This is the single-station default: no extra infrastructure.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database at path (":memory:" for
// tests), runs migrations, and returns the repository.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, cerrors.NewStorageUnavailable(err)
	}
	db.SetMaxOpenConns(1)

	if err := NewMigrationRunner(db, DialectSQLite).Run(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
}

// SaveRun stores a completed run.
func (r *SQLiteRepository) SaveRun(ctx context.Context, run *Run) error {
	findings, err := encodeFindings(run.Findings)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO screening_runs (id, source, started_at, duration_ms, subjects, findings)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID.String(),
		run.Source,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Duration.Milliseconds(),
		run.Subjects,
		findings,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (r *SQLiteRepository) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, source, started_at, duration_ms, subjects, findings
		 FROM screening_runs WHERE id = ?`,
		id.String(),
	)

	run, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, cerrors.NewRunNotFound(id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (r *SQLiteRepository) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source, started_at, duration_ms, subjects, findings
		 FROM screening_runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*Run, 0)
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// CheckConnectivity verifies the database is reachable.
func (r *SQLiteRepository) CheckConnectivity(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return cerrors.NewStorageUnavailable(err)
	}
	return nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// scanRun decodes one screening_runs row. SQLite stores timestamps as
// RFC 3339 text and durations as milliseconds.
func scanRun(scan func(dest ...interface{}) error) (*Run, error) {
	var (
		idText     string
		source     string
		startedAt  string
		durationMS int64
		subjects   int
		findings   string
	)
	if err := scan(&idText, &source, &startedAt, &durationMS, &subjects, &findings); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idText)
	if err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", idText, err)
	}
	started, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
	}
	decoded, err := decodeFindings(findings)
	if err != nil {
		return nil, err
	}

	return &Run{
		ID:        id,
		Source:    source,
		StartedAt: started,
		Duration:  time.Duration(durationMS) * time.Millisecond,
		Subjects:  subjects,
		Findings:  decoded,
	}, nil
}

var _ ReportRepository = (*SQLiteRepository)(nil)
