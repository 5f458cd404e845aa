package sources

import (
	"context"
	"fmt"

	"github.com/cordonlabs/cordon/internal/errors"
	"github.com/cordonlabs/cordon/internal/screening"
)

// Loader runs the three feed queries against one store and assembles the
// joined subject records. This is the whole execution plan of a screening:
// three reads plus one hash join, nothing dynamic.
type Loader struct {
	store Store
	feeds FeedQueries

	// retry, when non-nil, wraps each feed query in explicit retry logic
	// for transient warehouse failures.
	retry *RetryConfig
}

// NewLoader creates a loader over a store with the given feed queries.
func NewLoader(store Store, feeds FeedQueries) *Loader {
	return &Loader{store: store, feeds: feeds}
}

// WithRetry enables explicit retries for the feed queries.
func (l *Loader) WithRetry(config RetryConfig) *Loader {
	l.retry = &config
	return l
}

// Load runs the three feeds and joins them into subject records.
// Output order follows the intake feed.
func (l *Loader) Load(ctx context.Context) ([]screening.Record, error) {
	if l.store == nil {
		return nil, fmt.Errorf("loader: store is required")
	}
	set := NewCapabilitySet(l.store.Capabilities())
	if !set.Has(CapabilityRead) {
		return nil, errors.NewQueryRejected("",
			fmt.Sprintf("source %s lacks the READ capability", l.store.Name()),
			"configure a readable source for screening")
	}

	intake, err := l.query(ctx, l.feeds.Intake)
	if err != nil {
		return nil, fmt.Errorf("intake feed: %w", err)
	}
	surveillance, err := l.query(ctx, l.feeds.Surveillance)
	if err != nil {
		return nil, fmt.Errorf("surveillance feed: %w", err)
	}
	biometrics, err := l.query(ctx, l.feeds.Biometrics)
	if err != nil {
		return nil, fmt.Errorf("biometrics feed: %w", err)
	}

	return Assemble(intake, surveillance, biometrics)
}

func (l *Loader) query(ctx context.Context, q string) (*RecordSet, error) {
	if l.retry == nil {
		return l.store.Query(ctx, q)
	}

	var rs *RecordSet
	result := ExecuteWithRetry(ctx, *l.retry, func() error {
		var err error
		rs, err = l.store.Query(ctx, q)
		return err
	})
	if !result.Success {
		return nil, &RetryableError{Result: result}
	}
	return rs, nil
}
