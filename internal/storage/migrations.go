package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	cerrors "github.com/cordonlabs/cordon/internal/errors"
	"github.com/cordonlabs/cordon/migrations"
)

// Dialect selects the SQL flavor of a repository and its migrations.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// MigrationRunner applies the embedded schema migrations for one
// dialect. Runs automatically on startup; startup fails if a migration
// fails.
type MigrationRunner struct {
	db      *sql.DB
	dialect Dialect
}

// NewMigrationRunner creates a migration runner for the given dialect.
func NewMigrationRunner(db *sql.DB, dialect Dialect) *MigrationRunner {
	return &MigrationRunner{db: db, dialect: dialect}
}

// Run executes all pending migrations in version order.
func (r *MigrationRunner) Run(ctx context.Context) error {
	if err := r.ensureMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := r.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	pending, err := r.getMigrationFiles()
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, m := range pending {
		if applied[m.version] {
			continue
		}
		if err := r.applyMigration(ctx, m); err != nil {
			return cerrors.NewMigrationFailed(m.name, err)
		}
	}
	return nil
}

type migration struct {
	version string
	name    string
	content []byte
}

func (r *MigrationRunner) ensureMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

func (r *MigrationRunner) getAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// getMigrationFiles reads the .up.sql files for this dialect from the
// embedded filesystem, sorted by version prefix.
func (r *MigrationRunner) getMigrationFiles() ([]migration, error) {
	dir := string(r.dialect)

	entries, err := fs.ReadDir(migrations.FS, dir)
	if err != nil {
		return nil, fmt.Errorf("no migrations for dialect %q: %w", r.dialect, err)
	}

	var list []migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		// Filenames look like "000001_create_screening_runs.up.sql".
		parts := strings.SplitN(name, "_", 2)
		if len(parts) < 2 {
			continue
		}

		content, err := fs.ReadFile(migrations.FS, dir+"/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		list = append(list, migration{
			version: parts[0],
			name:    strings.TrimSuffix(name, ".up.sql"),
			content: content,
		})
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].version < list[j].version
	})
	return list, nil
}

func (r *MigrationRunner) applyMigration(ctx context.Context, m migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(m.content)); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}

	record := `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`
	if r.dialect == DialectPostgres {
		record = `INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`
	}
	if _, err := tx.ExecContext(ctx, record, m.version, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}
