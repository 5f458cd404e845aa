// Package bigquery provides the BigQuery source store. Read-only;
// feeds are expected to use fully qualified table names or rely on the
// configured default dataset.
package bigquery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/cordonlabs/cordon/internal/sources"
)

// Config configures the BigQuery store.
type Config struct {
	// Name is the source name this store registers under.
	Name string

	// Project is the GCP project ID.
	Project string

	// Dataset is the default dataset for unqualified table names.
	Dataset string

	// Location is the dataset location, e.g. "US".
	Location string

	// CredentialsJSON holds a service account key. Empty means
	// application default credentials.
	CredentialsJSON string

	// QueryTimeout bounds individual feed queries. Default: 5 minutes.
	QueryTimeout time.Duration
}

// DefaultConfig returns a configuration with timeout defaults applied.
func DefaultConfig() Config {
	return Config{
		QueryTimeout: 5 * time.Minute,
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Project == "" {
		return fmt.Errorf("bigquery: project is required")
	}
	return nil
}

// Store implements the source store interface for BigQuery.
type Store struct {
	mu     sync.RWMutex
	client *bigquery.Client
	config Config
	name   string
	closed bool
}

// NewStore creates a new BigQuery store.
func NewStore(ctx context.Context, config Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = 5 * time.Minute
	}

	name := config.Name
	if name == "" {
		name = "bigquery"
	}

	var opts []option.ClientOption
	if config.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(config.CredentialsJSON)))
	}

	client, err := bigquery.NewClient(ctx, config.Project, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery store: create client: %w", err)
	}
	if config.Location != "" {
		client.Location = config.Location
	}

	return &Store{
		client: client,
		config: config,
		name:   name,
	}, nil
}

// Name returns the configured source name.
func (s *Store) Name() string {
	return s.name
}

// Engine returns "bigquery".
func (s *Store) Engine() string {
	return "bigquery"
}

// Capabilities returns READ only.
func (s *Store) Capabilities() []sources.Capability {
	return []sources.Capability{sources.CapabilityRead}
}

// Query runs a feed query and returns the result.
func (s *Store) Query(ctx context.Context, query string) (*sources.RecordSet, error) {
	if query == "" {
		return nil, fmt.Errorf("bigquery store: query is empty")
	}

	s.mu.RLock()
	if s.closed || s.client == nil {
		s.mu.RUnlock()
		return nil, fmt.Errorf("bigquery store: client is closed")
	}
	client := s.client
	s.mu.RUnlock()

	queryCtx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	q := client.Query(query)
	if s.config.Dataset != "" {
		q.DefaultDatasetID = s.config.Dataset
		q.DefaultProjectID = s.config.Project
	}

	it, err := q.Read(queryCtx)
	if err != nil {
		return nil, fmt.Errorf("bigquery store: query failed: %w", err)
	}

	var columns []string
	resultRows := make([][]interface{}, 0)
	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bigquery store: failed to read row: %w", err)
		}

		// Schema is populated once the first page is fetched.
		if columns == nil {
			for _, field := range it.Schema {
				columns = append(columns, field.Name)
			}
		}

		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		resultRows = append(resultRows, values)
	}
	if columns == nil {
		for _, field := range it.Schema {
			columns = append(columns, field.Name)
		}
	}

	return &sources.RecordSet{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
		Metadata: map[string]string{
			"engine":  "bigquery",
			"project": s.config.Project,
			"dataset": s.config.Dataset,
		},
	}, nil
}

// Exec is not supported: BigQuery sources are read-only.
func (s *Store) Exec(ctx context.Context, statement string) error {
	return fmt.Errorf("bigquery store: writes are not supported")
}

// Ping verifies the client is usable by probing dataset metadata.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.client == nil {
		return fmt.Errorf("bigquery store: client is closed")
	}
	if s.config.Dataset == "" {
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.client.Dataset(s.config.Dataset).Metadata(pingCtx); err != nil {
		return fmt.Errorf("bigquery store: ping failed: %w", err)
	}
	return nil
}

// CheckHealth verifies the service can answer queries.
func (s *Store) CheckHealth(ctx context.Context) error {
	s.mu.RLock()
	if s.closed || s.client == nil {
		s.mu.RUnlock()
		return fmt.Errorf("bigquery store: client is closed")
	}
	client := s.client
	s.mu.RUnlock()

	healthCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	it, err := client.Query("SELECT 1").Read(healthCtx)
	if err != nil {
		return fmt.Errorf("bigquery store: health probe failed: %w", err)
	}
	var row []bigquery.Value
	if err := it.Next(&row); err != nil && err != iterator.Done {
		return fmt.Errorf("bigquery store: health probe failed: %w", err)
	}
	return nil
}

// Close releases the client. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
