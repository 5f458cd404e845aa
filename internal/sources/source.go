// Package sources defines where the three screening feeds live and how their
// rows become subject records. A source is any store that can answer the
// intake, surveillance, and biometrics feed queries.
//
// Stores are stateless, replaceable, thin. No silent retries, no hidden
// fallbacks - transient-failure retries exist but are explicit and opt-in.
package sources

import (
	"context"
	"sort"
	"sync"

	"github.com/cordonlabs/cordon/internal/errors"
)

// RecordSet is the generic result of one feed query.
type RecordSet struct {
	// Columns are the column names in the result.
	Columns []string

	// Rows are the result rows, each row is a slice of values.
	Rows [][]interface{}

	// RowCount is the number of rows returned.
	RowCount int

	// Metadata contains additional execution information.
	Metadata map[string]string
}

// Store is the interface all source stores must implement.
// Stores must be:
// - Stateless: each operation is independent
// - Thin: minimal logic, just translation to the driver
// - Explicit: propagate errors, never swallow
type Store interface {
	// Name returns the configured name of this source.
	Name() string

	// Engine returns the engine kind, e.g. "sqlite", "trino".
	Engine() string

	// Capabilities returns the capabilities this source supports.
	Capabilities() []Capability

	// Query runs a read query and returns the result.
	Query(ctx context.Context, query string) (*RecordSet, error)

	// Exec runs a write statement. Only SEED-capable stores accept it.
	Exec(ctx context.Context, statement string) error

	// Ping checks if the source is reachable.
	Ping(ctx context.Context) error

	// CheckHealth verifies the source is healthy and can answer queries.
	// Returns nil if healthy, an error with details if not.
	CheckHealth(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Registry manages named source stores and their feed queries.
type Registry struct {
	mu          sync.RWMutex
	stores      map[string]Store
	feeds       map[string]FeedQueries
	defaultName string
}

// NewRegistry creates a new source registry.
func NewRegistry() *Registry {
	return &Registry{
		stores: make(map[string]Store),
		feeds:  make(map[string]FeedQueries),
	}
}

// Register adds a store to the registry.
func (r *Registry) Register(store Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[store.Name()] = store
}

// SetFeeds records validated feed query overrides for a source. Overrides
// must already be merged over the defaults.
func (r *Registry) SetFeeds(name string, feeds FeedQueries) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feeds[name] = feeds
}

// FeedsFor returns the feed queries for a source. Sources without
// overrides get the defaults.
func (r *Registry) FeedsFor(name string) FeedQueries {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if feeds, ok := r.feeds[name]; ok {
		return feeds
	}
	return DefaultFeeds()
}

// SetDefault marks a registered source as the default for screenings that
// name no source. Returns an error if the source is unknown.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stores[name]; !ok {
		return errors.NewSourceNotFound(name)
	}
	r.defaultName = name
	return nil
}

// Get returns a store by name.
func (r *Registry) Get(name string) (Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	store, ok := r.stores[name]
	return store, ok
}

// Resolve returns the store for name, or the default store when name is
// empty. With no default configured and exactly one source registered, that
// source is the default.
func (r *Registry) Resolve(name string) (Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name != "" {
		store, ok := r.stores[name]
		if !ok {
			return nil, errors.NewSourceNotFound(name)
		}
		return store, nil
	}

	if r.defaultName != "" {
		if store, ok := r.stores[r.defaultName]; ok {
			return store, nil
		}
		return nil, errors.NewSourceNotFound(r.defaultName)
	}

	if len(r.stores) == 1 {
		for _, store := range r.stores {
			return store, nil
		}
	}

	return nil, errors.NewQueryRejected("",
		"no source named and no default configured",
		"pass --source or set screening.source in the configuration")
}

// Available returns the names of all registered sources, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckAllHealth checks the health of all registered sources.
// A nil error value indicates the source is healthy.
func (r *Registry) CheckAllHealth(ctx context.Context) map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	results := make(map[string]error)
	for name, store := range r.stores {
		results[name] = store.CheckHealth(ctx)
	}
	return results
}

// CloseAll closes all registered sources.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var lastErr error
	for _, store := range r.stores {
		if err := store.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// IsEmpty returns true if no sources are registered.
func (r *Registry) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores) == 0
}
