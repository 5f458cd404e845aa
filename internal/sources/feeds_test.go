package sources

import (
	"testing"
)

func TestValidateFeedQuery(t *testing.T) {
	cases := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{"default intake", DefaultFeeds().Intake, false},
		{"default surveillance", DefaultFeeds().Surveillance, false},
		{"default biometrics", DefaultFeeds().Biometrics, false},
		{"plain select", "SELECT subject_id, name, reported_gender, appearance_notes FROM staging_intake", false},
		{"select with where", "SELECT subject_id, cam_front, cam_back, night_vision FROM feed WHERE active = 1", false},
		{"empty", "", true},
		{"insert", "INSERT INTO intake_reports (subject_id) VALUES (99)", true},
		{"update", "UPDATE biometrics_log SET has_pulse = TRUE", true},
		{"delete", "DELETE FROM surveillance_feed", true},
		{"drop", "DROP TABLE intake_reports", true},
		{"union", "SELECT 1 UNION SELECT 2", true},
		{"garbage", "SELEKT * FORM nowhere", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFeedQuery(tc.query)
			if tc.wantErr && err == nil {
				t.Errorf("ValidateFeedQuery(%q) accepted, want rejection", tc.query)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("ValidateFeedQuery(%q) rejected: %v", tc.query, err)
			}
		})
	}
}

func TestFeedQueriesMerge(t *testing.T) {
	defaults := DefaultFeeds()
	merged := defaults.Merge(FeedQueries{
		Surveillance: "SELECT subject_id, cam_front, cam_back, night_vision FROM cams",
	})

	if merged.Intake != defaults.Intake {
		t.Error("intake should keep the default")
	}
	if merged.Biometrics != defaults.Biometrics {
		t.Error("biometrics should keep the default")
	}
	if merged.Surveillance == defaults.Surveillance {
		t.Error("surveillance should take the override")
	}
}

func TestDefaultFeedsValidate(t *testing.T) {
	if err := DefaultFeeds().Validate(); err != nil {
		t.Fatalf("default feeds must validate: %v", err)
	}
}

func TestMergedOverrideValidationCatchesWrites(t *testing.T) {
	merged := DefaultFeeds().Merge(FeedQueries{Biometrics: "DELETE FROM biometrics_log"})
	if err := merged.Validate(); err == nil {
		t.Error("a write override must be rejected")
	}
}
