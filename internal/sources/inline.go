package sources

import (
	"context"
	"strings"
	"sync"

	"github.com/cordonlabs/cordon/internal/errors"
)

// DefaultInlineName is the name the bundled demo source registers under.
const DefaultInlineName = "demo"

// InlineStore serves the canonical four-subject roster from memory. It backs
// the quickstart, the CLI default, and tests - no database required. The
// store answers exactly the three default feed queries and nothing else.
type InlineStore struct {
	mu     sync.RWMutex
	name   string
	closed bool
	feeds  map[string]*RecordSet
}

// NewInlineStore creates the in-memory demo source.
func NewInlineStore(name string) *InlineStore {
	if name == "" {
		name = DefaultInlineName
	}
	defaults := DefaultFeeds()
	return &InlineStore{
		name: name,
		feeds: map[string]*RecordSet{
			normalizeQuery(defaults.Intake): {
				Columns: IntakeColumns,
				Rows: [][]interface{}{
					{int64(1), "Mina Cho", "Female", "Wears sunglasses indoors"},
					{int64(2), "Yuna Park", "Female", "Unusually broad shoulders"},
					{int64(3), "Sora Kim", "Female", "Skin cold to the touch"},
					{int64(4), "Hana Lee", "Female", "Very prominent larynx"},
				},
				RowCount: 4,
				Metadata: map[string]string{"engine": "inline"},
			},
			normalizeQuery(defaults.Surveillance): {
				Columns: SurveillanceColumns,
				Rows: [][]interface{}{
					{int64(1), "Humanoid", "Normal Back", "Visible"},
					{int64(2), "Two People", "Normal Back", "Visible"},
					{int64(3), "Humanoid", "Normal Back", "Visible"},
					{int64(4), "Humanoid", "Normal Back", "Visible"},
				},
				RowCount: 4,
				Metadata: map[string]string{"engine": "inline"},
			},
			normalizeQuery(defaults.Biometrics): {
				Columns: BiometricsColumns,
				Rows: [][]interface{}{
					{int64(1), "Soft Soprano", true},
					{int64(2), "Normal", true},
					{int64(3), "Normal", false},
					{int64(4), "Ultra-Deep Bass", true},
				},
				RowCount: 4,
				Metadata: map[string]string{"engine": "inline"},
			},
		},
	}
}

// Name returns the configured source name.
func (s *InlineStore) Name() string {
	return s.name
}

// Engine returns "inline".
func (s *InlineStore) Engine() string {
	return "inline"
}

// Capabilities returns READ. The roster is baked in; seeding is meaningless.
func (s *InlineStore) Capabilities() []Capability {
	return []Capability{CapabilityRead}
}

// Query answers the three default feed queries from memory.
func (s *InlineStore) Query(ctx context.Context, query string) (*RecordSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errors.NewSourceUnavailable(s.name, nil)
	}

	rs, ok := s.feeds[normalizeQuery(query)]
	if !ok {
		return nil, errors.NewQueryRejected(query,
			"the inline source only answers the default feed queries",
			"remove feed overrides from the inline source or use a database-backed source")
	}

	// Copy rows so callers cannot mutate the shared roster.
	out := &RecordSet{
		Columns:  append([]string(nil), rs.Columns...),
		Rows:     make([][]interface{}, len(rs.Rows)),
		RowCount: rs.RowCount,
		Metadata: map[string]string{"engine": "inline"},
	}
	for i, row := range rs.Rows {
		out.Rows[i] = append([]interface{}(nil), row...)
	}
	return out, nil
}

// Exec always fails: the inline roster is read-only.
func (s *InlineStore) Exec(ctx context.Context, statement string) error {
	return errors.NewSeedNotSupported(s.name, s.Engine())
}

// Ping reports whether the store is open.
func (s *InlineStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.NewSourceUnavailable(s.name, nil)
	}
	return nil
}

// CheckHealth is equivalent to Ping for an in-memory store.
func (s *InlineStore) CheckHealth(ctx context.Context) error {
	return s.Ping(ctx)
}

// Close marks the store closed. Idempotent.
func (s *InlineStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// normalizeQuery collapses whitespace so trivially reformatted default
// queries still match.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(q), " ")
}
