// Package snowflake provides the Snowflake source store for stations
// that keep their intake and surveillance feeds in the warehouse.
// Read-only.
package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/cordonlabs/cordon/internal/sources"

	_ "github.com/snowflakedb/gosnowflake" // Snowflake driver
)

// Config configures the Snowflake store.
type Config struct {
	// Name is the source name this store registers under.
	Name string

	// Account is the Snowflake account identifier.
	Account string

	// User is the Snowflake username.
	User string

	// Password for basic auth.
	Password string

	// Database is the default database.
	Database string

	// Schema is the default schema.
	Schema string

	// Warehouse is the compute warehouse.
	Warehouse string

	// Role is the Snowflake role.
	Role string

	// ConnectTimeout bounds the startup ping. Default: 30 seconds.
	ConnectTimeout time.Duration

	// QueryTimeout bounds individual feed queries. Default: 5 minutes.
	QueryTimeout time.Duration
}

// DefaultConfig returns a configuration with timeout defaults applied.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 30 * time.Second,
		QueryTimeout:   5 * time.Minute,
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Account == "" {
		return fmt.Errorf("snowflake: account is required")
	}
	if c.User == "" {
		return fmt.Errorf("snowflake: user is required")
	}
	if c.Password == "" {
		return fmt.Errorf("snowflake: password is required")
	}
	if c.Warehouse == "" {
		return fmt.Errorf("snowflake: warehouse is required")
	}
	return nil
}

// DSN builds the driver connection string.
// Format: user:password@account/database/schema?warehouse=X&role=Y
func (c Config) DSN() string {
	dsn := fmt.Sprintf("%s:%s@%s/%s/%s?warehouse=%s",
		c.User, c.Password, c.Account, c.Database, c.Schema, c.Warehouse)
	if c.Role != "" {
		dsn += fmt.Sprintf("&role=%s", c.Role)
	}
	if c.ConnectTimeout > 0 {
		dsn += fmt.Sprintf("&loginTimeout=%d", int(c.ConnectTimeout.Seconds()))
	}
	return dsn
}

// Store implements the source store interface for Snowflake.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	config Config
	name   string
	closed bool
}

// NewStore creates a new Snowflake store and verifies connectivity.
func NewStore(ctx context.Context, config Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 30 * time.Second
	}
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = 5 * time.Minute
	}

	name := config.Name
	if name == "" {
		name = "snowflake"
	}

	db, err := sql.Open("snowflake", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("snowflake store: open: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("snowflake store: connection test failed: %w", err)
	}

	return &Store{
		db:     db,
		config: config,
		name:   name,
	}, nil
}

// NewStoreWithoutConnect creates a Snowflake store without establishing
// a connection. Useful for configuration validation in tests.
func NewStoreWithoutConnect(config Config) *Store {
	name := config.Name
	if name == "" {
		name = "snowflake"
	}
	return &Store{config: config, name: name}
}

// Name returns the configured source name.
func (s *Store) Name() string {
	return s.name
}

// Engine returns "snowflake".
func (s *Store) Engine() string {
	return "snowflake"
}

// Capabilities returns READ only.
func (s *Store) Capabilities() []sources.Capability {
	return []sources.Capability{sources.CapabilityRead}
}

// Query runs a feed query and returns the result.
func (s *Store) Query(ctx context.Context, query string) (*sources.RecordSet, error) {
	if query == "" {
		return nil, fmt.Errorf("snowflake store: query is empty")
	}

	s.mu.RLock()
	if s.closed || s.db == nil {
		s.mu.RUnlock()
		return nil, fmt.Errorf("snowflake store: connection is closed")
	}
	db := s.db
	s.mu.RUnlock()

	queryCtx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	rows, err := db.QueryContext(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("snowflake store: query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("snowflake store: failed to get columns: %w", err)
	}

	resultRows := make([][]interface{}, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("snowflake store: failed to scan row: %w", err)
		}
		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snowflake store: error during row iteration: %w", err)
	}

	return &sources.RecordSet{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
		Metadata: map[string]string{
			"engine":    "snowflake",
			"account":   s.config.Account,
			"warehouse": s.config.Warehouse,
		},
	}, nil
}

// Exec is not supported: Snowflake sources are read-only.
func (s *Store) Exec(ctx context.Context, statement string) error {
	return fmt.Errorf("snowflake store: writes are not supported")
}

// Ping checks if Snowflake is reachable.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.db == nil {
		return fmt.Errorf("snowflake store: connection is closed")
	}
	return s.db.PingContext(ctx)
}

// CheckHealth verifies the warehouse can answer queries.
func (s *Store) CheckHealth(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.db == nil {
		return fmt.Errorf("snowflake store: connection is closed")
	}

	healthCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var one int
	if err := s.db.QueryRowContext(healthCtx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("snowflake store: health probe failed: %w", err)
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
