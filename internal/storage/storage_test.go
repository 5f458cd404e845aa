package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	cerrors "github.com/cordonlabs/cordon/internal/errors"
	"github.com/cordonlabs/cordon/internal/screening"
)

func sampleRun(source string, startedAt time.Time) *Run {
	return NewRun(source, startedAt, 42*time.Millisecond, 4, []screening.Finding{
		{SubjectID: 3, Name: "Sora Kim", Verdict: screening.VerdictNoHeartbeat},
	})
}

func TestMockRepositoryRoundTrip(t *testing.T) {
	repo := NewMockRepository()
	defer repo.Close()
	ctx := context.Background()

	run := sampleRun("demo", time.Now())
	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := repo.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Source != "demo" || got.Subjects != 4 || len(got.Findings) != 1 {
		t.Errorf("round trip mangled run: %+v", got)
	}

	_, err = repo.GetRun(ctx, uuid.New())
	if _, ok := err.(*cerrors.ErrRunNotFound); !ok {
		t.Errorf("missing run returned %T, want *errors.ErrRunNotFound", err)
	}
}

func TestMockRepositoryListOrderAndLimit(t *testing.T) {
	repo := NewMockRepository()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		run := sampleRun("demo", base.Add(time.Duration(i)*time.Minute))
		if err := repo.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	runs, err := repo.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if !runs[0].StartedAt.After(runs[1].StartedAt) {
		t.Error("runs not sorted newest first")
	}
}

func TestMockRepositorySimulatedFailures(t *testing.T) {
	repo := NewMockRepository()
	ctx := context.Background()

	repo.SetPersistenceFailure(true)
	if err := repo.SaveRun(ctx, sampleRun("demo", time.Now())); err == nil {
		t.Error("simulated persistence failure did not surface")
	}

	repo.SetConnectivityFailure(true)
	if err := repo.CheckConnectivity(ctx); err == nil {
		t.Error("simulated connectivity failure did not surface")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := repo.SaveRun(cancelled, sampleRun("demo", time.Now())); err == nil {
		t.Error("cancelled context must fail")
	}
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteRepository(ctx, ":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	defer repo.Close()

	if err := repo.CheckConnectivity(ctx); err != nil {
		t.Fatalf("CheckConnectivity: %v", err)
	}

	startedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	run := sampleRun("local", startedAt)
	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := repo.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.ID != run.ID || got.Source != "local" {
		t.Errorf("got %+v", got)
	}
	if !got.StartedAt.Equal(startedAt) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, startedAt)
	}
	if got.Duration != 42*time.Millisecond {
		t.Errorf("Duration = %v", got.Duration)
	}
	if len(got.Findings) != 1 || got.Findings[0].Verdict != screening.VerdictNoHeartbeat {
		t.Errorf("Findings = %+v", got.Findings)
	}

	_, err = repo.GetRun(ctx, uuid.New())
	if _, ok := err.(*cerrors.ErrRunNotFound); !ok {
		t.Errorf("missing run returned %T", err)
	}
}

func TestSQLiteRepositoryList(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteRepository(ctx, ":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	defer repo.Close()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := repo.SaveRun(ctx, sampleRun("local", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	runs, err := repo.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i-1].StartedAt.Before(runs[i].StartedAt) {
			t.Error("runs not sorted newest first")
		}
	}
}

// Migrations must be idempotent: a second runner over the same database
// applies nothing and fails nothing.
func TestMigrationsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteRepository(ctx, ":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	defer repo.Close()

	if err := NewMigrationRunner(repo.db, DialectSQLite).Run(ctx); err != nil {
		t.Fatalf("second migration run: %v", err)
	}

	var applied int
	if err := repo.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != 1 {
		t.Errorf("schema_migrations has %d rows, want 1", applied)
	}
}

func TestEncodeDecodeFindings(t *testing.T) {
	encoded, err := encodeFindings(nil)
	if err != nil {
		t.Fatalf("encodeFindings(nil): %v", err)
	}
	if encoded != "[]" {
		t.Errorf("nil findings encoded as %q, want []", encoded)
	}

	decoded, err := decodeFindings(encoded)
	if err != nil {
		t.Fatalf("decodeFindings: %v", err)
	}
	if decoded == nil || len(decoded) != 0 {
		t.Errorf("decoded = %#v, want empty slice", decoded)
	}
}
