package sources

import (
	"context"
	"testing"

	"github.com/cordonlabs/cordon/internal/screening"
)

// The full demo path: inline store, three feeds, hash join, report.
func TestLoaderOverInlineStore(t *testing.T) {
	loader := NewLoader(NewInlineStore("demo"), DefaultFeeds())

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
	for _, f := range findings {
		if f.Verdict != want[f.SubjectID] {
			t.Errorf("subject %d: verdict %q, want %q", f.SubjectID, f.Verdict, want[f.SubjectID])
		}
	}
}

func TestInlineStoreRejectsOverriddenFeeds(t *testing.T) {
	feeds := DefaultFeeds().Merge(FeedQueries{
		Intake: "SELECT subject_id, name, reported_gender, appearance_notes FROM elsewhere",
	})
	loader := NewLoader(NewInlineStore("demo"), feeds)

	if _, err := loader.Load(context.Background()); err == nil {
		t.Error("inline store must reject non-default feed queries")
	}
}

func TestInlineStoreQueryCopiesRows(t *testing.T) {
	store := NewInlineStore("demo")
	first, err := store.Query(context.Background(), DefaultFeeds().Intake)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	first.Rows[0][1] = "tampered"

	second, err := store.Query(context.Background(), DefaultFeeds().Intake)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if second.Rows[0][1] == "tampered" {
		t.Error("mutating a result leaked into the shared roster")
	}
}

func TestInlineStoreClosedFailsQueries(t *testing.T) {
	store := NewInlineStore("demo")
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := store.Query(context.Background(), DefaultFeeds().Intake); err == nil {
		t.Error("closed store must fail queries")
	}
	if err := store.Ping(context.Background()); err == nil {
		t.Error("closed store must fail pings")
	}
}

func TestInlineStoreExecRejected(t *testing.T) {
	store := NewInlineStore("demo")
	if err := store.Exec(context.Background(), "DELETE FROM intake_reports"); err == nil {
		t.Error("inline store must reject writes")
	}
}
