package sqlite

import (
	"context"
	"testing"

	"github.com/cordonlabs/cordon/internal/screening"
	"github.com/cordonlabs/cordon/internal/sources"
)

func newSeededStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(Config{Name: "local", Path: ":memory:"})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := sources.Seed(context.Background(), store); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return store
}

// End to end over a real database: seed, load the three feeds, join,
// classify.
func TestSQLiteSeedLoadReport(t *testing.T) {
	store := newSeededStore(t)
	loader := sources.NewLoader(store, sources.DefaultFeeds())

	records, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}

	findings, err := screening.BuildReport(records)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	want := map[int64]screening.Verdict{
		2: screening.VerdictBodyDouble,
		3: screening.VerdictNoHeartbeat,
		4: screening.VerdictVoiceMismatch,
	}
	if len(findings) != len(want) {
		t.Fatalf("got %d findings, want %d", len(findings), len(want))
	}
	for i := 1; i < len(findings); i++ {
		if findings[i-1].SubjectID >= findings[i].SubjectID {
			t.Errorf("findings out of intake order: %d before %d",
				findings[i-1].SubjectID, findings[i].SubjectID)
		}
	}
	for _, f := range findings {
		if f.Verdict != want[f.SubjectID] {
			t.Errorf("subject %d: verdict %q, want %q", f.SubjectID, f.Verdict, want[f.SubjectID])
		}
	}
}

func TestSQLiteSeedIsIdempotent(t *testing.T) {
	store := newSeededStore(t)
	if err := sources.Seed(context.Background(), store); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	result, err := store.Query(context.Background(), sources.DefaultFeeds().Intake)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if result.RowCount != 4 {
		t.Errorf("reseeding duplicated rows: got %d, want 4", result.RowCount)
	}
}

func TestSQLiteCapabilities(t *testing.T) {
	store := newSeededStore(t)
	if !sources.CanSeed(store) {
		t.Error("sqlite store must report SEED")
	}
	if store.Engine() != "sqlite" {
		t.Errorf("Engine = %q", store.Engine())
	}
}

func TestSQLiteHealth(t *testing.T) {
	store := newSeededStore(t)
	if err := store.CheckHealth(context.Background()); err != nil {
		t.Errorf("CheckHealth on open store: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close must be a no-op: %v", err)
	}
	if err := store.CheckHealth(context.Background()); err == nil {
		t.Error("CheckHealth on closed store must fail")
	}
	if _, err := store.Query(context.Background(), sources.DefaultFeeds().Intake); err == nil {
		t.Error("Query on closed store must fail")
	}
}

func TestSQLiteEmptyQueryRejected(t *testing.T) {
	store := newSeededStore(t)
	if _, err := store.Query(context.Background(), ""); err == nil {
		t.Error("empty query must fail")
	}
}
