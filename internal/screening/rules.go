package screening

import (
	"strings"
)

// Verdict is the human-readable category the ordered rule set assigns to a
// subject record.
type Verdict string

const (
	VerdictNoHeartbeat   Verdict = "NO HEARTBEAT (CLASS-S)"
	VerdictVanishing     Verdict = "VANISHING ENTITY"
	VerdictBodyDouble    Verdict = "BODY DOUBLE DETECTED"
	VerdictBackMutation  Verdict = "BACK MUTATION"
	VerdictVoiceMismatch Verdict = "VOICE-GENDER MISMATCH"
	VerdictLikelyHuman   Verdict = "LIKELY HUMAN"
)

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	return string(v)
}

// Rule describes one entry of the ordered rule table for introspection.
// Position is 1-based and significant: classification is first-match-wins.
type Rule struct {
	Position  int     `json:"position"`
	Name      string  `json:"name"`
	Condition string  `json:"condition"`
	Verdict   Verdict `json:"verdict"`
}

// Rules returns the ordered rule table, highest precedence first.
// The order is load-bearing: an earlier rule masks every later one.
// A record matching no rule receives VerdictLikelyHuman.
func Rules() []Rule {
	return []Rule{
		{1, "no-heartbeat", "has_pulse = false", VerdictNoHeartbeat},
		{2, "vanishing-entity", `night_vision = "Disappears"`, VerdictVanishing},
		{3, "body-double", `cam_front = "Two People"`, VerdictBodyDouble},
		{4, "back-mutation", `cam_back = "Black Holes"`, VerdictBackMutation},
		{5, "voice-gender-mismatch", `reported_gender = "Female" AND voice_pitch contains "Deep"`, VerdictVoiceMismatch},
	}
}

// Classify evaluates the ordered rules against one record and returns the
// verdict of the first match. Evaluation short-circuits: a pulseless subject
// is always VerdictNoHeartbeat no matter what the cameras saw.
//
// Returns a validation error (and an empty verdict) for a malformed record.
func Classify(r Record) (Verdict, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	switch {
	case !r.HasPulse:
		return VerdictNoHeartbeat, nil
	case r.NightVision == NightVisionDisappears:
		return VerdictVanishing, nil
	case r.CamFront == CamFrontTwoPeople:
		return VerdictBodyDouble, nil
	case r.CamBack == CamBackBlackHoles:
		return VerdictBackMutation, nil
	case r.ReportedGender == GenderFemale && strings.Contains(r.VoicePitch, deepPitchMarker):
		return VerdictVoiceMismatch, nil
	default:
		return VerdictLikelyHuman, nil
	}
}

// Anomalous is the inclusion predicate: it reports whether the record belongs
// in the anomaly report at all. The conditions are a logical OR with no
// ordering requirement, and they are deliberately wider than the rule table -
// any deviation from the baseline observations counts, not only the ones the
// rules name.
func Anomalous(r Record) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}

	if r.NightVision != NightVisionVisible {
		return true, nil
	}
	if r.CamFront != CamFrontHumanoid {
		return true, nil
	}
	if r.CamBack != CamBackNormal {
		return true, nil
	}
	if !r.HasPulse {
		return true, nil
	}
	if r.ReportedGender == GenderFemale && strings.Contains(r.VoicePitch, deepPitchMarker) {
		return true, nil
	}
	return false, nil
}

// BuildReport filters records through Anomalous, classifies each survivor,
// and returns the findings in input order. The first malformed record aborts
// the report with its validation error.
func BuildReport(records []Record) ([]Finding, error) {
	findings := make([]Finding, 0, len(records))
	for _, r := range records {
		include, err := Anomalous(r)
		if err != nil {
			return nil, err
		}
		if !include {
			continue
		}

		verdict, err := Classify(r)
		if err != nil {
			return nil, err
		}
		findings = append(findings, Finding{
			SubjectID:       r.SubjectID,
			Name:            r.Name,
			AppearanceNotes: r.AppearanceNotes,
			Verdict:         verdict,
		})
	}
	return findings, nil
}
