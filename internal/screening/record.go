// Package screening implements the subject screening core: a fixed, ordered
// rule set that classifies joined subject records, and an inclusion predicate
// that decides whether a record surfaces in the anomaly report at all.
//
// Every operation in this package is a pure function over in-memory records.
// Evaluation performs no I/O, holds no state, and never recovers from a
// malformed record - validation errors propagate to the caller.
package screening

import (
	"github.com/cordonlabs/cordon/internal/errors"
)

// Canonical observation values. The classifier compares against these
// literally; matching is case-sensitive throughout.
const (
	CamFrontHumanoid  = "Humanoid"
	CamFrontTwoPeople = "Two People"

	CamBackNormal     = "Normal Back"
	CamBackBlackHoles = "Black Holes"

	NightVisionVisible    = "Visible"
	NightVisionDisappears = "Disappears"

	GenderFemale = "Female"

	// deepPitchMarker is matched as a case-sensitive substring of voice_pitch.
	// "deep" and "DEEP" deliberately do not match.
	deepPitchMarker = "Deep"
)

// Record is one subject as seen through all three fixture sources, joined on
// the subject identifier. Records are read-only inputs to the classifier.
type Record struct {
	// SubjectID is the unique join key linking the three sources.
	SubjectID int64

	// Name is the subject's reported name.
	Name string

	// ReportedGender is the self-reported gender, e.g. "Male", "Female".
	ReportedGender string

	// AppearanceNotes is free text for display only. Never used in rule logic.
	AppearanceNotes string

	// CamFront is the front camera observation, e.g. "Humanoid", "Two People".
	CamFront string

	// CamBack is the back camera observation, e.g. "Normal Back", "Black Holes".
	CamBack string

	// NightVision is the night vision observation, e.g. "Visible", "Disappears".
	NightVision string

	// VoicePitch is the biometric voice reading, e.g. "Normal", "Ultra-Deep Bass".
	VoicePitch string

	// HasPulse reports whether a pulse was detected.
	HasPulse bool
}

// Validate checks that every required field is present.
// Returns a *errors.ValidationError naming the first missing field.
// AppearanceNotes is display-only and may be empty.
func (r Record) Validate() error {
	if r.SubjectID <= 0 {
		return errors.NewInvalidField("subject_id", "must be a positive integer")
	}
	required := []struct {
		field string
		value string
	}{
		{"name", r.Name},
		{"reported_gender", r.ReportedGender},
		{"cam_front", r.CamFront},
		{"cam_back", r.CamBack},
		{"night_vision", r.NightVision},
		{"voice_pitch", r.VoicePitch},
	}
	for _, f := range required {
		if f.value == "" {
			return errors.NewMissingField(f.field)
		}
	}
	return nil
}

// Finding is one row of the anomaly report: an anomalous subject and the
// verdict the rule set assigned to it.
type Finding struct {
	SubjectID       int64
	Name            string
	AppearanceNotes string
	Verdict         Verdict
}
