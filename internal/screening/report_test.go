package screening

import (
	"reflect"
	"testing"

	cerrors "github.com/cordonlabs/cordon/internal/errors"
)

// roster is the canonical four-subject fixture.
func roster() []Record {
	return []Record{
		{
			SubjectID: 1, Name: "Mina Cho", ReportedGender: "Female",
			AppearanceNotes: "Wears sunglasses indoors",
			CamFront:        CamFrontHumanoid, CamBack: CamBackNormal,
			NightVision: NightVisionVisible, VoicePitch: "Soft Soprano", HasPulse: true,
		},
		{
			SubjectID: 2, Name: "Yuna Park", ReportedGender: "Female",
			AppearanceNotes: "Unusually broad shoulders",
			CamFront:        CamFrontTwoPeople, CamBack: CamBackNormal,
			NightVision: NightVisionVisible, VoicePitch: "Normal", HasPulse: true,
		},
		{
			SubjectID: 3, Name: "Sora Kim", ReportedGender: "Female",
			AppearanceNotes: "Skin cold to the touch",
			CamFront:        CamFrontHumanoid, CamBack: CamBackNormal,
			NightVision: NightVisionVisible, VoicePitch: "Normal", HasPulse: false,
		},
		{
			SubjectID: 4, Name: "Hana Lee", ReportedGender: "Female",
			AppearanceNotes: "Very prominent larynx",
			CamFront:        CamFrontHumanoid, CamBack: CamBackNormal,
			NightVision: NightVisionVisible, VoicePitch: "Ultra-Deep Bass", HasPulse: true,
		},
	}
}

func TestBuildReportCanonicalRoster(t *testing.T) {
	findings, err := BuildReport(roster())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	want := []Finding{
		{SubjectID: 2, Name: "Yuna Park", AppearanceNotes: "Unusually broad shoulders", Verdict: VerdictBodyDouble},
		{SubjectID: 3, Name: "Sora Kim", AppearanceNotes: "Skin cold to the touch", Verdict: VerdictNoHeartbeat},
		{SubjectID: 4, Name: "Hana Lee", AppearanceNotes: "Very prominent larynx", Verdict: VerdictVoiceMismatch},
	}
	if !reflect.DeepEqual(findings, want) {
		t.Errorf("BuildReport =\n%+v\nwant\n%+v", findings, want)
	}
}

// Subject 1 passes every check and must never surface in the report.
func TestNonAnomalousRecordsExcluded(t *testing.T) {
	findings, err := BuildReport(roster())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	for _, f := range findings {
		if f.SubjectID == 1 {
			t.Errorf("subject 1 is not anomalous but appears in the report")
		}
	}
}

// Every finding must come from a record the inclusion predicate accepts.
func TestReportInclusionConsistency(t *testing.T) {
	records := roster()
	findings, err := BuildReport(records)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	byID := make(map[int64]Record, len(records))
	for _, r := range records {
		byID[r.SubjectID] = r
	}
	for _, f := range findings {
		ok, err := Anomalous(byID[f.SubjectID])
		if err != nil {
			t.Fatalf("Anomalous: %v", err)
		}
		if !ok {
			t.Errorf("subject %d in report but not anomalous", f.SubjectID)
		}
	}
}

func TestBuildReportPreservesInputOrder(t *testing.T) {
	records := roster()
	// Reverse the roster; the report must follow the new order.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	findings, err := BuildReport(records)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	wantOrder := []int64{4, 3, 2}
	if len(findings) != len(wantOrder) {
		t.Fatalf("got %d findings, want %d", len(findings), len(wantOrder))
	}
	for i, f := range findings {
		if f.SubjectID != wantOrder[i] {
			t.Errorf("finding %d: subject %d, want %d", i, f.SubjectID, wantOrder[i])
		}
	}
}

func TestBuildReportIsIdempotent(t *testing.T) {
	first, err := BuildReport(roster())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	second, err := BuildReport(roster())
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("BuildReport not idempotent across identical inputs")
	}
}

func TestMalformedRecordFailsValidation(t *testing.T) {
	cases := []struct {
		name      string
		mutate    func(*Record)
		wantField string
	}{
		{"zero subject id", func(r *Record) { r.SubjectID = 0 }, "subject_id"},
		{"missing name", func(r *Record) { r.Name = "" }, "name"},
		{"missing gender", func(r *Record) { r.ReportedGender = "" }, "reported_gender"},
		{"missing front cam", func(r *Record) { r.CamFront = "" }, "cam_front"},
		{"missing back cam", func(r *Record) { r.CamBack = "" }, "cam_back"},
		{"missing night vision", func(r *Record) { r.NightVision = "" }, "night_vision"},
		{"missing voice pitch", func(r *Record) { r.VoicePitch = "" }, "voice_pitch"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := roster()[0]
			tc.mutate(&r)

			_, err := Classify(r)
			verr, ok := err.(*cerrors.ValidationError)
			if !ok {
				t.Fatalf("Classify error = %T (%v), want *errors.ValidationError", err, err)
			}
			if verr.Field != tc.wantField {
				t.Errorf("ValidationError.Field = %q, want %q", verr.Field, tc.wantField)
			}

			// The report aborts on the same malformed record.
			if _, err := BuildReport([]Record{r}); err == nil {
				t.Error("BuildReport accepted a malformed record")
			}
		})
	}
}

// Empty appearance notes are allowed: the field is display-only.
func TestEmptyAppearanceNotesAllowed(t *testing.T) {
	r := roster()[0]
	r.AppearanceNotes = ""
	if _, err := Classify(r); err != nil {
		t.Errorf("Classify rejected empty appearance_notes: %v", err)
	}
}
