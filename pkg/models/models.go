// Package models provides shared data models for the cordon public API.
package models

import (
	"time"
)

// SubjectRecord is the external representation of one joined subject
// record, as accepted by screening requests.
type SubjectRecord struct {
	SubjectID       int64  `json:"subject_id" yaml:"subject_id"`
	Name            string `json:"name" yaml:"name"`
	ReportedGender  string `json:"reported_gender" yaml:"reported_gender"`
	AppearanceNotes string `json:"appearance_notes,omitempty" yaml:"appearance_notes,omitempty"`
	CamFront        string `json:"cam_front" yaml:"cam_front"`
	CamBack         string `json:"cam_back" yaml:"cam_back"`
	NightVision     string `json:"night_vision" yaml:"night_vision"`
	VoicePitch      string `json:"voice_pitch" yaml:"voice_pitch"`
	HasPulse        bool   `json:"has_pulse" yaml:"has_pulse"`
}

// Finding is the external representation of one flagged subject.
type Finding struct {
	SubjectID       int64  `json:"subject_id"`
	Name            string `json:"name"`
	AppearanceNotes string `json:"appearance_notes,omitempty"`
	Verdict         string `json:"verdict"`
}

// ScreeningRequest is the API request for running a screening. Either
// Source names a registered source to load records from, or Records
// carries the records inline.
type ScreeningRequest struct {
	Source  string          `json:"source,omitempty"`
	Records []SubjectRecord `json:"records,omitempty"`

	// Save persists the run to report storage.
	Save bool `json:"save,omitempty"`
}

// ScreeningResponse is the API response for a screening run.
type ScreeningResponse struct {
	RunID    string    `json:"run_id"`
	Source   string    `json:"source"`
	Subjects int       `json:"subjects"`
	Findings []Finding `json:"findings"`
	Duration string    `json:"duration"`
	Saved    bool      `json:"saved"`
}

// RunInfo is the API response for a persisted run.
type RunInfo struct {
	RunID     string    `json:"run_id"`
	Source    string    `json:"source"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Subjects  int       `json:"subjects"`
	Findings  []Finding `json:"findings"`
}

// SourceInfo is the API response for source information.
type SourceInfo struct {
	Name         string   `json:"name"`
	Engine       string   `json:"engine"`
	Capabilities []string `json:"capabilities"`
	Healthy      bool     `json:"healthy"`
	Error        string   `json:"error,omitempty"`
}

// RuleInfo is the API response describing one classification rule.
type RuleInfo struct {
	Position  int    `json:"position"`
	Name      string `json:"name"`
	Condition string `json:"condition"`
	Verdict   string `json:"verdict"`
}

// StatusResult is the API response for gateway status.
type StatusResult struct {
	Ready            bool   `json:"ready"`
	Reason           string `json:"reason,omitempty"`
	GatewayReady     bool   `json:"gateway_ready"`
	StorageHealth    string `json:"storage_health"`
	SourcesAvailable int    `json:"sources_available"`
	SourcesMessage   string `json:"sources_message"`
	Version          string `json:"version"`
}

// AuthStatus is the API response for authentication status.
type AuthStatus struct {
	Authenticated bool      `json:"authenticated"`
	UserID        string    `json:"user_id,omitempty"`
	UserName      string    `json:"user_name,omitempty"`
	Roles         []string  `json:"roles,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
}

// ErrorResponse is the API response for errors.
type ErrorResponse struct {
	Error      string `json:"error"`
	Reason     string `json:"reason,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Code       int    `json:"code"`
}
