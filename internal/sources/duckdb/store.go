// Package duckdb provides the DuckDB source store for local analytical
// files. Embedded engine, file or in-memory database, seedable.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/cordonlabs/cordon/internal/sources"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
)

// Config configures the DuckDB store.
type Config struct {
	// Name is the source name this store registers under.
	Name string

	// Path is the database file path. Empty means in-memory.
	Path string
}

// Store implements the source store interface for DuckDB.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	name   string
	closed bool
}

// NewStore creates a new DuckDB store.
func NewStore(config Config) (*Store, error) {
	name := config.Name
	if name == "" {
		name = "duckdb"
	}

	db, err := sql.Open("duckdb", config.Path)
	if err != nil {
		return nil, fmt.Errorf("duckdb store: open: %w", err)
	}

	return &Store{
		db:   db,
		name: name,
	}, nil
}

// Name returns the configured source name.
func (s *Store) Name() string {
	return s.name
}

// Engine returns "duckdb".
func (s *Store) Engine() string {
	return "duckdb"
}

// Capabilities returns READ and SEED.
func (s *Store) Capabilities() []sources.Capability {
	return []sources.Capability{
		sources.CapabilityRead,
		sources.CapabilitySeed,
	}
}

// Query runs a feed query and returns the result.
func (s *Store) Query(ctx context.Context, query string) (*sources.RecordSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("duckdb store: context error: %w", err)
	}
	if query == "" {
		return nil, fmt.Errorf("duckdb store: query is empty")
	}

	s.mu.RLock()
	if s.closed || s.db == nil {
		s.mu.RUnlock()
		return nil, fmt.Errorf("duckdb store: connection is closed")
	}
	db := s.db
	s.mu.RUnlock()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("duckdb store: query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("duckdb store: failed to get columns: %w", err)
	}

	resultRows := make([][]interface{}, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("duckdb store: failed to scan row: %w", err)
		}
		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("duckdb store: error during row iteration: %w", err)
	}

	return &sources.RecordSet{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
		Metadata: map[string]string{"engine": "duckdb"},
	}, nil
}

// Exec runs a seed statement.
func (s *Store) Exec(ctx context.Context, statement string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.db == nil {
		return fmt.Errorf("duckdb store: connection is closed")
	}
	if _, err := s.db.ExecContext(ctx, statement); err != nil {
		return fmt.Errorf("duckdb store: exec failed: %w", err)
	}
	return nil
}

// Ping checks if the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.db == nil {
		return fmt.Errorf("duckdb store: connection is closed")
	}
	return s.db.PingContext(ctx)
}

// CheckHealth verifies the store can answer queries.
func (s *Store) CheckHealth(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.db == nil {
		return fmt.Errorf("duckdb store: connection is closed")
	}

	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("duckdb store: health probe failed: %w", err)
	}
	return nil
}

// Close releases the database handle. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
