package sources

import (
	"testing"

	cerrors "github.com/cordonlabs/cordon/internal/errors"
)

func intakeSet(rows ...[]interface{}) *RecordSet {
	return &RecordSet{Columns: IntakeColumns, Rows: rows, RowCount: len(rows)}
}

func surveillanceSet(rows ...[]interface{}) *RecordSet {
	return &RecordSet{Columns: SurveillanceColumns, Rows: rows, RowCount: len(rows)}
}

func biometricsSet(rows ...[]interface{}) *RecordSet {
	return &RecordSet{Columns: BiometricsColumns, Rows: rows, RowCount: len(rows)}
}

func TestAssembleInnerJoin(t *testing.T) {
	intake := intakeSet(
		[]interface{}{int64(1), "Mina Cho", "Female", "notes"},
		[]interface{}{int64(2), "Yuna Park", "Female", "notes"},
		[]interface{}{int64(3), "Sora Kim", "Female", "notes"},
	)
	surveillance := surveillanceSet(
		[]interface{}{int64(1), "Humanoid", "Normal Back", "Visible"},
		[]interface{}{int64(3), "Humanoid", "Normal Back", "Visible"},
	)
	biometrics := biometricsSet(
		[]interface{}{int64(1), "Normal", true},
		[]interface{}{int64(2), "Normal", true},
		[]interface{}{int64(3), "Normal", false},
	)

	records, err := Assemble(intake, surveillance, biometrics)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	// Subject 2 is missing from surveillance and must be dropped.
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].SubjectID != 1 || records[1].SubjectID != 3 {
		t.Errorf("join kept wrong subjects: %d, %d", records[0].SubjectID, records[1].SubjectID)
	}
	if records[1].HasPulse {
		t.Error("subject 3 should have has_pulse=false")
	}
}

func TestAssembleIntakeOrderDrivesOutput(t *testing.T) {
	intake := intakeSet(
		[]interface{}{int64(4), "Hana Lee", "Female", ""},
		[]interface{}{int64(1), "Mina Cho", "Female", ""},
	)
	surveillance := surveillanceSet(
		[]interface{}{int64(1), "Humanoid", "Normal Back", "Visible"},
		[]interface{}{int64(4), "Humanoid", "Normal Back", "Visible"},
	)
	biometrics := biometricsSet(
		[]interface{}{int64(1), "Normal", true},
		[]interface{}{int64(4), "Normal", true},
	)

	records, err := Assemble(intake, surveillance, biometrics)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if records[0].SubjectID != 4 || records[1].SubjectID != 1 {
		t.Errorf("output order %d,%d does not follow intake order 4,1", records[0].SubjectID, records[1].SubjectID)
	}
}

func TestAssembleColumnOrderIndependent(t *testing.T) {
	// Shuffled column order plus uppercase names, as warehouses return them.
	intake := &RecordSet{
		Columns:  []string{"NAME", "SUBJECT_ID", "APPEARANCE_NOTES", "REPORTED_GENDER"},
		Rows:     [][]interface{}{{"Mina Cho", int64(1), "notes", "Female"}},
		RowCount: 1,
	}
	surveillance := surveillanceSet([]interface{}{int64(1), "Humanoid", "Normal Back", "Visible"})
	biometrics := biometricsSet([]interface{}{int64(1), "Normal", true})

	records, err := Assemble(intake, surveillance, biometrics)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if records[0].Name != "Mina Cho" || records[0].ReportedGender != "Female" {
		t.Errorf("columns mismapped: %+v", records[0])
	}
}

func TestAssembleDriverTypeCoercions(t *testing.T) {
	// int32 ids, []byte strings, integer booleans - the driver zoo.
	intake := intakeSet([]interface{}{int32(7), []byte("Rei Sato"), []byte("Female"), nil})
	surveillance := surveillanceSet([]interface{}{float64(7), "Humanoid", "Normal Back", "Visible"})
	biometrics := biometricsSet([]interface{}{int64(7), "Normal", int64(1)})

	records, err := Assemble(intake, surveillance, biometrics)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	rec := records[0]
	if rec.SubjectID != 7 {
		t.Errorf("SubjectID = %d, want 7", rec.SubjectID)
	}
	if rec.Name != "Rei Sato" {
		t.Errorf("Name = %q", rec.Name)
	}
	if rec.AppearanceNotes != "" {
		t.Errorf("NULL appearance_notes should decode to empty, got %q", rec.AppearanceNotes)
	}
	if !rec.HasPulse {
		t.Error("integer 1 should decode to has_pulse=true")
	}
}

func TestAssembleNullRequiredFieldFails(t *testing.T) {
	intake := intakeSet([]interface{}{int64(1), "Mina Cho", "Female", ""})
	surveillance := surveillanceSet([]interface{}{int64(1), nil, "Normal Back", "Visible"})
	biometrics := biometricsSet([]interface{}{int64(1), "Normal", true})

	_, err := Assemble(intake, surveillance, biometrics)
	verr, ok := err.(*cerrors.ValidationError)
	if !ok {
		t.Fatalf("err = %T (%v), want *errors.ValidationError", err, err)
	}
	if verr.Field != "cam_front" {
		t.Errorf("Field = %q, want cam_front", verr.Field)
	}
}

func TestAssembleNullPulseFails(t *testing.T) {
	intake := intakeSet([]interface{}{int64(1), "Mina Cho", "Female", ""})
	surveillance := surveillanceSet([]interface{}{int64(1), "Humanoid", "Normal Back", "Visible"})
	biometrics := biometricsSet([]interface{}{int64(1), "Normal", nil})

	_, err := Assemble(intake, surveillance, biometrics)
	verr, ok := err.(*cerrors.ValidationError)
	if !ok {
		t.Fatalf("err = %T (%v), want *errors.ValidationError", err, err)
	}
	if verr.Field != "has_pulse" {
		t.Errorf("Field = %q, want has_pulse", verr.Field)
	}
}

func TestAssembleMissingColumnFails(t *testing.T) {
	broken := &RecordSet{
		Columns:  []string{"subject_id", "name"},
		Rows:     [][]interface{}{{int64(1), "Mina Cho"}},
		RowCount: 1,
	}
	surveillance := surveillanceSet([]interface{}{int64(1), "Humanoid", "Normal Back", "Visible"})
	biometrics := biometricsSet([]interface{}{int64(1), "Normal", true})

	if _, err := Assemble(broken, surveillance, biometrics); err == nil {
		t.Error("a feed missing required columns must fail")
	}
}

func TestAssembleDuplicateSubjectFails(t *testing.T) {
	intake := intakeSet([]interface{}{int64(1), "Mina Cho", "Female", ""})
	surveillance := surveillanceSet(
		[]interface{}{int64(1), "Humanoid", "Normal Back", "Visible"},
		[]interface{}{int64(1), "Two People", "Normal Back", "Visible"},
	)
	biometrics := biometricsSet([]interface{}{int64(1), "Normal", true})

	if _, err := Assemble(intake, surveillance, biometrics); err == nil {
		t.Error("duplicate subject_id within a feed must fail")
	}
}
