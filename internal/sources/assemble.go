package sources

import (
	"fmt"
	"strings"

	"github.com/cordonlabs/cordon/internal/errors"
	"github.com/cordonlabs/cordon/internal/screening"
)

// Assemble joins the three feed result sets on subject_id with inner-join
// semantics: a subject present in all three feeds produces exactly one
// record, anyone missing from any feed is dropped. The intake feed is the
// probe side and drives output order; the smaller surveillance and biometrics
// feeds are the build sides of the hash join.
//
// Column values are decoded from whatever the driver returned; a NULL in a
// required column fails with a validation error naming the column.
func Assemble(intake, surveillance, biometrics *RecordSet) ([]screening.Record, error) {
	if intake == nil || surveillance == nil || biometrics == nil {
		return nil, fmt.Errorf("assemble: all three feeds are required")
	}

	intakeIdx, err := columnIndex(intake, IntakeColumns, "intake")
	if err != nil {
		return nil, err
	}
	survIdx, err := columnIndex(surveillance, SurveillanceColumns, "surveillance")
	if err != nil {
		return nil, err
	}
	bioIdx, err := columnIndex(biometrics, BiometricsColumns, "biometrics")
	if err != nil {
		return nil, err
	}

	// Build phase: hash the surveillance and biometrics rows by subject_id.
	survByID, err := hashBySubject(surveillance, survIdx["subject_id"], "surveillance")
	if err != nil {
		return nil, err
	}
	bioByID, err := hashBySubject(biometrics, bioIdx["subject_id"], "biometrics")
	if err != nil {
		return nil, err
	}

	// Probe phase: walk the intake rows in order.
	records := make([]screening.Record, 0, len(intake.Rows))
	for _, row := range intake.Rows {
		id, err := decodeSubjectID(row[intakeIdx["subject_id"]])
		if err != nil {
			return nil, err
		}

		survRow, ok := survByID[id]
		if !ok {
			continue
		}
		bioRow, ok := bioByID[id]
		if !ok {
			continue
		}

		rec := screening.Record{SubjectID: id}
		if rec.Name, err = decodeString(row[intakeIdx["name"]], "name", true); err != nil {
			return nil, err
		}
		if rec.ReportedGender, err = decodeString(row[intakeIdx["reported_gender"]], "reported_gender", true); err != nil {
			return nil, err
		}
		// Display-only, NULL allowed.
		if rec.AppearanceNotes, err = decodeString(row[intakeIdx["appearance_notes"]], "appearance_notes", false); err != nil {
			return nil, err
		}
		if rec.CamFront, err = decodeString(survRow[survIdx["cam_front"]], "cam_front", true); err != nil {
			return nil, err
		}
		if rec.CamBack, err = decodeString(survRow[survIdx["cam_back"]], "cam_back", true); err != nil {
			return nil, err
		}
		if rec.NightVision, err = decodeString(survRow[survIdx["night_vision"]], "night_vision", true); err != nil {
			return nil, err
		}
		if rec.VoicePitch, err = decodeString(bioRow[bioIdx["voice_pitch"]], "voice_pitch", true); err != nil {
			return nil, err
		}
		if rec.HasPulse, err = decodeBool(bioRow[bioIdx["has_pulse"]], "has_pulse"); err != nil {
			return nil, err
		}

		records = append(records, rec)
	}

	return records, nil
}

// columnIndex maps required column names to their positions in the result.
// Column name matching is case-insensitive; engines disagree on case.
func columnIndex(rs *RecordSet, required []string, feed string) (map[string]int, error) {
	idx := make(map[string]int, len(rs.Columns))
	for i, col := range rs.Columns {
		idx[strings.ToLower(col)] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("assemble: %s feed is missing column %q", feed, col)
		}
	}
	return idx, nil
}

// hashBySubject builds the join hash table for one feed. A duplicate
// subject_id within a feed is a data error, not a join case.
func hashBySubject(rs *RecordSet, keyIdx int, feed string) (map[int64][]interface{}, error) {
	byID := make(map[int64][]interface{}, len(rs.Rows))
	for _, row := range rs.Rows {
		id, err := decodeSubjectID(row[keyIdx])
		if err != nil {
			return nil, err
		}
		if _, exists := byID[id]; exists {
			return nil, fmt.Errorf("assemble: %s feed has duplicate subject_id %d", feed, id)
		}
		byID[id] = row
	}
	return byID, nil
}

func decodeSubjectID(v interface{}) (int64, error) {
	switch x := v.(type) {
	case int64:
		if x <= 0 {
			return 0, errors.NewInvalidField("subject_id", "must be a positive integer")
		}
		return x, nil
	case int32:
		return decodeSubjectID(int64(x))
	case int:
		return decodeSubjectID(int64(x))
	case float64:
		// BigQuery and some drivers hand integers back as floats.
		if x != float64(int64(x)) {
			return 0, errors.NewInvalidField("subject_id", "must be an integer")
		}
		return decodeSubjectID(int64(x))
	case nil:
		return 0, errors.NewMissingField("subject_id")
	default:
		return 0, errors.NewInvalidField("subject_id", fmt.Sprintf("unexpected type %T", v))
	}
}

func decodeString(v interface{}, field string, required bool) (string, error) {
	switch x := v.(type) {
	case string:
		if required && x == "" {
			return "", errors.NewMissingField(field)
		}
		return x, nil
	case []byte:
		return decodeString(string(x), field, required)
	case nil:
		if required {
			return "", errors.NewMissingField(field)
		}
		return "", nil
	default:
		return "", errors.NewInvalidField(field, fmt.Sprintf("unexpected type %T", v))
	}
}

func decodeBool(v interface{}, field string) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case int64:
		// SQLite stores booleans as integers.
		return x != 0, nil
	case int32:
		return x != 0, nil
	case int:
		return x != 0, nil
	case float64:
		return x != 0, nil
	case string:
		switch strings.ToLower(x) {
		case "true", "t", "1":
			return true, nil
		case "false", "f", "0":
			return false, nil
		}
		return false, errors.NewInvalidField(field, fmt.Sprintf("unparsable boolean %q", x))
	case []byte:
		return decodeBool(string(x), field)
	case nil:
		return false, errors.NewMissingField(field)
	default:
		return false, errors.NewInvalidField(field, fmt.Sprintf("unexpected type %T", v))
	}
}
