package sources

import (
	"github.com/xwb1989/sqlparser"

	"github.com/cordonlabs/cordon/internal/errors"
)

// Feed column contracts. Every source must expose these columns, in any
// order, from its three feed queries.
var (
	// IntakeColumns are required from the intake feed.
	IntakeColumns = []string{"subject_id", "name", "reported_gender", "appearance_notes"}

	// SurveillanceColumns are required from the surveillance feed.
	SurveillanceColumns = []string{"subject_id", "cam_front", "cam_back", "night_vision"}

	// BiometricsColumns are required from the biometrics feed.
	BiometricsColumns = []string{"subject_id", "voice_pitch", "has_pulse"}
)

// FeedQueries holds the three per-source SELECTs that produce the raw feeds.
// Sources may override any of them in configuration; overrides are validated
// before any store sees them.
type FeedQueries struct {
	Intake       string `json:"intake" yaml:"intake" mapstructure:"intake"`
	Surveillance string `json:"surveillance" yaml:"surveillance" mapstructure:"surveillance"`
	Biometrics   string `json:"biometrics" yaml:"biometrics" mapstructure:"biometrics"`
}

// DefaultFeeds returns the feed queries against the bundled fixture schema.
// The intake feed is ordered: its order drives report order.
func DefaultFeeds() FeedQueries {
	return FeedQueries{
		Intake:       "SELECT subject_id, name, reported_gender, appearance_notes FROM intake_reports ORDER BY subject_id",
		Surveillance: "SELECT subject_id, cam_front, cam_back, night_vision FROM surveillance_feed",
		Biometrics:   "SELECT subject_id, voice_pitch, has_pulse FROM biometrics_log",
	}
}

// Merge overlays non-empty overrides on the defaults.
func (f FeedQueries) Merge(overrides FeedQueries) FeedQueries {
	merged := f
	if overrides.Intake != "" {
		merged.Intake = overrides.Intake
	}
	if overrides.Surveillance != "" {
		merged.Surveillance = overrides.Surveillance
	}
	if overrides.Biometrics != "" {
		merged.Biometrics = overrides.Biometrics
	}
	return merged
}

// Validate checks every feed query. Defaults always pass; this exists for
// configured overrides.
func (f FeedQueries) Validate() error {
	for _, query := range []string{f.Intake, f.Surveillance, f.Biometrics} {
		if err := ValidateFeedQuery(query); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFeedQuery checks that a feed query override is a single plain
// SELECT. Write statements, multi-statement input, and unparsable SQL are
// rejected before any store sees them.
func ValidateFeedQuery(query string) error {
	if query == "" {
		return errors.NewQueryRejected(query, "empty query", "provide a SELECT over the feed columns")
	}

	stmt, err := sqlparser.Parse(query)
	if err != nil {
		return errors.NewQueryRejected(query,
			"query does not parse: "+err.Error(),
			"provide a single valid SELECT statement")
	}

	if _, ok := stmt.(*sqlparser.Select); !ok {
		return errors.NewQueryRejected(query,
			"only plain SELECT statements may serve as feeds",
			"remove write, DDL, or set-operation statements from the override")
	}
	return nil
}
