package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	cerrors "github.com/cordonlabs/cordon/internal/errors"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresRepository implements ReportRepository on PostgreSQL. This is
// the shared control-plane deployment: several gateways, one history.
type PostgresRepository struct {
	db *sql.DB
}

// PostgresConfig configures the PostgreSQL repository.
type PostgresConfig struct {
	// DSN is the PostgreSQL connection string.
	DSN string

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime.
	ConnMaxLifetime time.Duration
}

// NewPostgresRepository connects, runs migrations, and returns the
// repository.
func NewPostgresRepository(ctx context.Context, config PostgresConfig) (*PostgresRepository, error) {
	if config.DSN == "" {
		return nil, fmt.Errorf("postgres repository: dsn is required")
	}
	if config.MaxOpenConns <= 0 {
		config.MaxOpenConns = 10
	}
	if config.MaxIdleConns <= 0 {
		config.MaxIdleConns = 5
	}
	if config.ConnMaxLifetime <= 0 {
		config.ConnMaxLifetime = 5 * time.Minute
	}

	db, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, cerrors.NewStorageUnavailable(err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, cerrors.NewStorageUnavailable(err)
	}
	if err := NewMigrationRunner(db, DialectPostgres).Run(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresRepository{db: db}, nil
}

// SaveRun stores a completed run.
func (r *PostgresRepository) SaveRun(ctx context.Context, run *Run) error {
	findings, err := encodeFindings(run.Findings)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO screening_runs (id, source, started_at, duration_ms, subjects, findings)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID,
		run.Source,
		run.StartedAt.UTC(),
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
func (r *PostgresRepository) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var (
		idText     string
		source     string
		startedAt  time.Time
		durationMS int64
		subjects   int
		findings   string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, source, started_at, duration_ms, subjects, findings
		 FROM screening_runs WHERE id = $1`,
		id,
	).Scan(&idText, &source, &startedAt, &durationMS, &subjects, &findings)
	if err == sql.ErrNoRows {
		return nil, cerrors.NewRunNotFound(id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return buildRun(idText, source, startedAt, durationMS, subjects, findings)
}

// ListRuns returns the most recent runs, newest first.
func (r *PostgresRepository) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source, started_at, duration_ms, subjects, findings
		 FROM screening_runs ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*Run, 0)
	for rows.Next() {
		var (
			idText     string
			source     string
			startedAt  time.Time
			durationMS int64
			subjects   int
			findings   string
		)
		if err := rows.Scan(&idText, &source, &startedAt, &durationMS, &subjects, &findings); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run, err := buildRun(idText, source, startedAt, durationMS, subjects, findings)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// CheckConnectivity verifies the database is reachable.
func (r *PostgresRepository) CheckConnectivity(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return cerrors.NewStorageUnavailable(err)
	}
	return nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func buildRun(idText, source string, startedAt time.Time, durationMS int64, subjects int, findings string) (*Run, error) {
	id, err := uuid.Parse(idText)
	if err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", idText, err)
	}
	decoded, err := decodeFindings(findings)
	if err != nil {
		return nil, err
	}
	return &Run{
		ID:        id,
		Source:    source,
		StartedAt: startedAt,
		Duration:  time.Duration(durationMS) * time.Millisecond,
		Subjects:  subjects,
		Findings:  decoded,
	}, nil
}

var _ ReportRepository = (*PostgresRepository)(nil)
