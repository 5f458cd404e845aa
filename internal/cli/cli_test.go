package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cordonlabs/cordon/internal/config"
	cerrors "github.com/cordonlabs/cordon/internal/errors"
	"github.com/cordonlabs/cordon/pkg/models"
)

func testCLI() *CLI {
	return &CLI{cfg: config.DefaultConfig(), quiet: true}
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", cerrors.NewMissingField("name"), ExitValidation},
		{"auth", cerrors.NewAuthFailed("bad token"), ExitAuth},
		{"source", cerrors.NewSourceNotFound("x"), ExitSource},
		{"storage", cerrors.NewStorageUnavailable(nil), ExitStorage},
		{"untyped", errors.New("boom"), ExitInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCode(tc.err); got != tc.want {
				t.Errorf("exitCode = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestScreenLocallyDemoSource(t *testing.T) {
	c := testCLI()

	resp, err := c.screenLocally(context.Background(), models.ScreeningRequest{Source: "demo"})
	if err != nil {
		t.Fatalf("screenLocally: %v", err)
	}
	if resp.Subjects != 4 {
		t.Errorf("subjects = %d, want 4", resp.Subjects)
	}
	if len(resp.Findings) != 3 {
		t.Fatalf("findings = %d, want 3", len(resp.Findings))
	}

	want := map[int64]string{
		2: "BODY DOUBLE DETECTED",
		3: "NO HEARTBEAT (CLASS-S)",
		4: "VOICE-GENDER MISMATCH",
	}
	for _, f := range resp.Findings {
		if f.Verdict != want[f.SubjectID] {
			t.Errorf("subject %d: verdict %q, want %q", f.SubjectID, f.Verdict, want[f.SubjectID])
		}
	}
}

func TestScreenLocallySaveRoundTrip(t *testing.T) {
	c := testCLI()
	c.cfg.Storage = config.StorageConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "runs.db"),
	}

	resp, err := c.screenLocally(context.Background(),
		models.ScreeningRequest{Source: "demo", Save: true})
	if err != nil {
		t.Fatalf("screenLocally: %v", err)
	}
	if !resp.Saved {
		t.Fatal("run not saved")
	}

	// The persisted run must come back through the report path.
	if err := c.runReportShow(context.Background(), resp.RunID); err != nil {
		t.Errorf("runReportShow: %v", err)
	}
}

func TestScreenLocallyInlineRecords(t *testing.T) {
	c := testCLI()

	resp, err := c.screenLocally(context.Background(), models.ScreeningRequest{
		Records: []models.SubjectRecord{
			{SubjectID: 7, Name: "Test Subject", ReportedGender: "Female", CamFront: "Humanoid",
				CamBack: "Black Holes", NightVision: "Visible", VoicePitch: "Soprano", HasPulse: true},
		},
	})
	if err != nil {
		t.Fatalf("screenLocally: %v", err)
	}
	if resp.Source != "inline" {
		t.Errorf("source = %q", resp.Source)
	}
	if len(resp.Findings) != 1 || resp.Findings[0].Verdict != "BACK MUTATION" {
		t.Errorf("findings = %+v", resp.Findings)
	}
}

func TestScreenLocallyUnknownSource(t *testing.T) {
	c := testCLI()

	_, err := c.screenLocally(context.Background(), models.ScreeningRequest{Source: "missing"})
	if err == nil {
		t.Fatal("unknown source accepted")
	}
	if exitCode(err) != ExitSource {
		t.Errorf("exit code = %d, want %d", exitCode(err), ExitSource)
	}
}

func TestLoadRecordsFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "records.json")
	records := []models.SubjectRecord{
		{SubjectID: 1, Name: "A", ReportedGender: "Female", CamFront: "Humanoid",
			CamBack: "Normal Back", NightVision: "Visible", VoicePitch: "Soprano", HasPulse: true},
	}
	data, _ := json.Marshal(records)
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := loadRecordsFile(jsonPath)
	if err != nil {
		t.Fatalf("loadRecordsFile(json): %v", err)
	}
	if len(loaded) != 1 || loaded[0].Name != "A" {
		t.Errorf("loaded = %+v", loaded)
	}

	yamlPath := filepath.Join(dir, "records.yaml")
	yamlBody := "- subject_id: 2\n  name: B\n  reported_gender: Female\n  cam_front: Humanoid\n  cam_back: Normal Back\n  night_vision: Visible\n  voice_pitch: Alto\n  has_pulse: true\n"
	if err := os.WriteFile(yamlPath, []byte(yamlBody), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err = loadRecordsFile(yamlPath)
	if err != nil {
		t.Fatalf("loadRecordsFile(yaml): %v", err)
	}
	if len(loaded) != 1 || loaded[0].SubjectID != 2 {
		t.Errorf("loaded = %+v", loaded)
	}

	if _, err := loadRecordsFile(filepath.Join(dir, "absent.json")); err == nil {
		t.Error("missing file accepted")
	}

	emptyPath := filepath.Join(dir, "empty.json")
	os.WriteFile(emptyPath, []byte("[]"), 0644) //nolint:errcheck
	if _, err := loadRecordsFile(emptyPath); err == nil {
		t.Error("empty record list accepted")
	}
}

func TestGatewayClientScreening(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(models.ErrorResponse{ //nolint:errcheck
				Error: "authentication failed", Code: int(cerrors.CodeAuth),
			})
			return
		}
		if r.URL.Path != "/v1/screenings" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(models.ScreeningResponse{ //nolint:errcheck
			RunID: "r1", Source: "demo", Subjects: 4,
		})
	}))
	defer server.Close()

	client := NewGatewayClient(server.URL, "secret")
	resp, err := client.RunScreening(context.Background(), models.ScreeningRequest{Source: "demo"})
	if err != nil {
		t.Fatalf("RunScreening: %v", err)
	}
	if resp.RunID != "r1" || resp.Subjects != 4 {
		t.Errorf("resp = %+v", resp)
	}

	// Wrong token surfaces as a typed auth error.
	bad := NewGatewayClient(server.URL, "wrong")
	_, err = bad.RunScreening(context.Background(), models.ScreeningRequest{Source: "demo"})
	if err == nil {
		t.Fatal("bad token accepted")
	}
	if exitCode(err) != ExitAuth {
		t.Errorf("exit code = %d, want %d", exitCode(err), ExitAuth)
	}
}

func TestGatewayClientNoEndpoint(t *testing.T) {
	client := NewGatewayClient("", "")
	if _, err := client.ListSources(context.Background()); err == nil {
		t.Fatal("empty endpoint accepted")
	}
}

func TestInitCommandGeneratesWorkingSetup(t *testing.T) {
	dir := t.TempDir()
	c := testCLI()

	if err := c.runInit(context.Background(), dir, true); err != nil {
		t.Fatalf("runInit: %v", err)
	}

	cfg, err := config.Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if len(cfg.Sources) == 0 {
		t.Fatal("generated config has no sources")
	}

	// The seeded database must screen with the canonical findings.
	c.cfg = cfg
	c.cfg.Sources[0].Path = filepath.Join(dir, "screening.db")
	resp, err := c.screenLocally(context.Background(), models.ScreeningRequest{Source: "local"})
	if err != nil {
		t.Fatalf("screen seeded db: %v", err)
	}
	if resp.Subjects != 4 || len(resp.Findings) != 3 {
		t.Errorf("resp = %+v", resp)
	}

	// Re-running must refuse to overwrite.
	if err := c.runInit(context.Background(), dir, false); err == nil {
		t.Error("init overwrote existing config")
	}
}
