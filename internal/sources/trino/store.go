// Package trino provides the Trino source store for reading screening
// feeds out of a federated lakehouse. Read-only: seeding goes through
// whatever pipeline owns the underlying tables.
package trino

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/cordonlabs/cordon/internal/sources"

	_ "github.com/trinodb/trino-go-client/trino" // Trino driver
)

// Config configures the Trino store.
type Config struct {
	// Name is the source name this store registers under.
	Name string

	// Host is the Trino coordinator hostname.
	Host string

	// Port is the Trino coordinator port.
	Port int

	// Catalog is the default Trino catalog.
	Catalog string

	// Schema is the default Trino schema.
	Schema string

	// User is the Trino user for queries.
	User string

	// SSLMode controls SSL/TLS: "", "disable", "require"
	SSLMode string

	// Connection pool settings.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// ConnectTimeout bounds pings and health probes. Default: 10 seconds.
	ConnectTimeout time.Duration
}

// DefaultConfig returns a configuration with defaults applied.
func DefaultConfig() Config {
	return Config{
		Catalog:         "memory",
		Schema:          "default",
		User:            "cordon",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("trino: host is required")
	}
	if c.Port <= 0 {
		return fmt.Errorf("trino: port is required")
	}
	return nil
}

// DSN builds the driver connection string.
// Format: http[s]://user@host:port?catalog=X&schema=Y
func (c Config) DSN() string {
	scheme := "http"
	if c.SSLMode == "require" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s@%s:%d?catalog=%s&schema=%s",
		scheme, c.User, c.Host, c.Port, c.Catalog, c.Schema)
}

// Store implements the source store interface for Trino.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	config Config
	name   string
	closed bool
}

// NewStore creates a new Trino store. Connectivity is verified lazily;
// the coordinator may not be reachable at startup.
func NewStore(config Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	name := config.Name
	if name == "" {
		name = "trino"
	}
	if config.User == "" {
		config.User = "cordon"
	}
	if config.Catalog == "" {
		config.Catalog = "memory"
	}
	if config.Schema == "" {
		config.Schema = "default"
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
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 10 * time.Second
	}

	db, err := sql.Open("trino", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("trino store: open: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	return &Store{
		db:     db,
		config: config,
		name:   name,
	}, nil
}

// Name returns the configured source name.
func (s *Store) Name() string {
	return s.name
}

// Engine returns "trino".
func (s *Store) Engine() string {
	return "trino"
}

// Capabilities returns READ only.
func (s *Store) Capabilities() []sources.Capability {
	return []sources.Capability{sources.CapabilityRead}
}

// Query runs a feed query and returns the result.
func (s *Store) Query(ctx context.Context, query string) (*sources.RecordSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("trino store: context error: %w", err)
	}
	if query == "" {
		return nil, fmt.Errorf("trino store: query is empty")
	}

	s.mu.RLock()
	if s.closed || s.db == nil {
		s.mu.RUnlock()
		return nil, fmt.Errorf("trino store: connection is closed")
	}
	db := s.db
	s.mu.RUnlock()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("trino store: query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("trino store: failed to get columns: %w", err)
	}

	resultRows := make([][]interface{}, 0)
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("trino store: context error during row iteration: %w", err)
		}
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("trino store: failed to scan row: %w", err)
		}
		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trino store: error during row iteration: %w", err)
	}

	return &sources.RecordSet{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
		Metadata: map[string]string{
			"engine":  "trino",
			"catalog": s.config.Catalog,
			"schema":  s.config.Schema,
		},
	}, nil
}

// Exec is not supported: Trino sources are read-only.
func (s *Store) Exec(ctx context.Context, statement string) error {
	return fmt.Errorf("trino store: writes are not supported")
}

// Ping checks if the coordinator is reachable.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.db == nil {
		return fmt.Errorf("trino store: connection is closed")
	}
	return s.db.PingContext(ctx)
}

// CheckHealth verifies the coordinator can answer queries.
func (s *Store) CheckHealth(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.db == nil {
		return fmt.Errorf("trino store: connection is closed")
	}

	healthCtx, cancel := context.WithTimeout(ctx, s.config.ConnectTimeout)
	defer cancel()

	var one int
	if err := s.db.QueryRowContext(healthCtx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("trino store: health probe failed: %w", err)
	}
	return nil
}

// Close releases the connection pool. Idempotent.
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
