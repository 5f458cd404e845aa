// Package storage persists screening runs so operators can audit past
// reports. SQLite for single-station deployments, PostgreSQL for the
// shared control plane.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cordonlabs/cordon/internal/screening"
)

// Run is one completed screening: the subjects examined and the
// findings the rules produced.
type Run struct {
	// ID uniquely identifies the run.
	ID uuid.UUID `json:"id"`

	// Source is the name of the source the records came from.
	Source string `json:"source"`

	// StartedAt is when the screening began.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long loading and classification took.
	Duration time.Duration `json:"duration"`

	// Subjects is the number of records screened.
	Subjects int `json:"subjects"`

	// Findings are the flagged subjects, in intake order.
	Findings []screening.Finding `json:"findings"`
}

// NewRun builds a Run with a fresh ID.
func NewRun(source string, startedAt time.Time, duration time.Duration, subjects int, findings []screening.Finding) *Run {
	if findings == nil {
		findings = []screening.Finding{}
	}
	return &Run{
		ID:        uuid.New(),
		Source:    source,
		StartedAt: startedAt,
		Duration:  duration,
		Subjects:  subjects,
		Findings:  findings,
	}
}

// ReportRepository persists screening runs.
// All implementations must be thread-safe, context-aware, and explicit
// about errors.
type ReportRepository interface {
	// SaveRun stores a completed run.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun retrieves a run by ID. Returns ErrRunNotFound if absent.
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)

	// ListRuns returns the most recent runs, newest first, capped at
	// limit. A limit <= 0 uses the default of 50.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// CheckConnectivity verifies the backing store is reachable.
	// Gateway startup fails if persistence is unavailable.
	CheckConnectivity(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}

// DefaultListLimit caps ListRuns when the caller does not.
const DefaultListLimit = 50

func encodeFindings(findings []screening.Finding) (string, error) {
	if findings == nil {
		findings = []screening.Finding{}
	}
	data, err := json.Marshal(findings)
	if err != nil {
		return "", fmt.Errorf("encode findings: %w", err)
	}
	return string(data), nil
}

func decodeFindings(data string) ([]screening.Finding, error) {
	var findings []screening.Finding
	if err := json.Unmarshal([]byte(data), &findings); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}
	if findings == nil {
		findings = []screening.Finding{}
	}
	return findings, nil
}
