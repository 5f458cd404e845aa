package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	cerrors "github.com/cordonlabs/cordon/internal/errors"
)

// MockRepository is an in-memory ReportRepository for tests. It is
// thread-safe and respects context cancellation.
type MockRepository struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*Run

	// Test helpers for simulating failures.
	connectivityFailure bool
	persistenceFailure  bool
}

// NewMockRepository creates a new mock repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs: make(map[uuid.UUID]*Run),
	}
}

// SetConnectivityFailure makes CheckConnectivity fail.
func (r *MockRepository) SetConnectivityFailure(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectivityFailure = fail
}

// SetPersistenceFailure makes SaveRun fail.
func (r *MockRepository) SetPersistenceFailure(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persistenceFailure = fail
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// SaveRun stores a completed run.
func (r *MockRepository) SaveRun(ctx context.Context, run *Run) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.persistenceFailure {
		return cerrors.NewStorageUnavailable(nil)
	}

	stored := *run
	r.runs[run.ID] = &stored
	return nil
}

// GetRun retrieves a run by ID.
func (r *MockRepository) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, cerrors.NewRunNotFound(id.String())
	}
	copied := *run
	return &copied, nil
}

// ListRuns returns stored runs, newest first.
func (r *MockRepository) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]*Run, 0, len(r.runs))
	for _, run := range r.runs {
		copied := *run
		runs = append(runs, &copied)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// CheckConnectivity reports the simulated connectivity state.
func (r *MockRepository) CheckConnectivity(ctx context.Context) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.connectivityFailure {
		return cerrors.NewStorageUnavailable(nil)
	}
	return nil
}

// Close is a no-op.
func (r *MockRepository) Close() error {
	return nil
}

var _ ReportRepository = (*MockRepository)(nil)
