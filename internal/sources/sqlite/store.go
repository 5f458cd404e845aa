// Package sqlite provides the SQLite source store. SQLite is the default
// local source: pure Go driver, file or in-memory database, seedable.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/cordonlabs/cordon/internal/sources"

	_ "modernc.org/sqlite" // SQLite driver
)

// Config configures the SQLite store.
type Config struct {
	// Name is the source name this store registers under.
	Name string

	// Path is the database file path. Use ":memory:" for an in-memory
	// database.
	Path string
}

// Store implements the source store interface for SQLite.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	name   string
	path   string
	closed bool
}

// NewStore creates a new SQLite store.
func NewStore(config Config) (*Store, error) {
	name := config.Name
	if name == "" {
		name = "sqlite"
	}
	path := config.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open %s: %w", path, err)
	}
	// The modernc driver serializes writes; a single connection avoids
	// table-lock errors when seeding an in-memory database.
	db.SetMaxOpenConns(1)

	return &Store{
		db:   db,
		name: name,
		path: path,
	}, nil
}

// Name returns the configured source name.
func (s *Store) Name() string {
	return s.name
}

// Engine returns "sqlite".
func (s *Store) Engine() string {
	return "sqlite"
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
		return nil, fmt.Errorf("sqlite store: context error: %w", err)
	}
	if query == "" {
		return nil, fmt.Errorf("sqlite store: query is empty")
	}

	s.mu.RLock()
	if s.closed || s.db == nil {
		s.mu.RUnlock()
		return nil, fmt.Errorf("sqlite store: connection is closed")
	}
	db := s.db
	s.mu.RUnlock()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite store: failed to get columns: %w", err)
	}

	resultRows := make([][]interface{}, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("sqlite store: failed to scan row: %w", err)
		}
		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite store: error during row iteration: %w", err)
	}

	return &sources.RecordSet{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
		Metadata: map[string]string{"engine": "sqlite"},
	}, nil
}

// Exec runs a seed statement.
func (s *Store) Exec(ctx context.Context, statement string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.db == nil {
		return fmt.Errorf("sqlite store: connection is closed")
	}
	if _, err := s.db.ExecContext(ctx, statement); err != nil {
		return fmt.Errorf("sqlite store: exec failed: %w", err)
	}
	return nil
}

// Ping checks if the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.db == nil {
		return fmt.Errorf("sqlite store: connection is closed")
	}
	return s.db.PingContext(ctx)
}

// CheckHealth verifies the store can answer queries.
func (s *Store) CheckHealth(ctx context.Context) error {
	if err := s.Ping(ctx); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("sqlite store: health probe failed: %w", err)
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
