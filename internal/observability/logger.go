// Package observability provides structured run logging and Prometheus
// metrics for the cordon gateway.
//
// Every screening run must emit: run_id, user, source, subject count,
// finding count, execution time, and error (if any).
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// RunLogEntry contains all required fields for run logging.
type RunLogEntry struct {
	// RunID is the unique identifier for this screening run.
	RunID string

	// User is the authenticated user who triggered the run.
	User string

	// Source is the source the records were loaded from.
	Source string

	// Subjects is the number of records screened.
	Subjects int

	// Findings is the number of subjects flagged.
	Findings int

	// Verdicts maps verdict labels to counts for this run.
	Verdicts map[string]int

	// ExecutionTime is how long loading and classification took.
	// Must be non-negative.
	ExecutionTime time.Duration

	// Outcome is the result status: "success", "error", "rejected".
	Outcome string

	// Error contains the error message if the run failed.
	// Empty string for successful runs.
	Error string
}

// Validate checks that all required fields are present.
func (e *RunLogEntry) Validate() error {
	if e.RunID == "" {
		return fmt.Errorf("observability: run_id is required")
	}
	if e.User == "" {
		return fmt.Errorf("observability: user is required")
	}
	if e.ExecutionTime < 0 {
		return fmt.Errorf("observability: execution_time cannot be negative")
	}
	return nil
}

// RunLogger is the interface for run logging.
type RunLogger interface {
	// LogRun logs a screening run event.
	// Returns an error if logging fails or the entry is invalid.
	LogRun(ctx context.Context, entry RunLogEntry) error

	// GetAuditSummary returns aggregated audit statistics. Only
	// aggregates leave the gateway; raw entries stay internal.
	GetAuditSummary() *AuditSummary
}

// AuditSummary represents aggregated audit statistics.
type AuditSummary struct {
	AcceptedCount     int                 `json:"accepted_count"`
	RejectedCount     int                 `json:"rejected_count"`
	TopFailureReasons []FailureReasonStat `json:"top_failure_reasons"`
	TopVerdicts       []VerdictStat       `json:"top_verdicts"`
}

// FailureReasonStat represents failure reason statistics.
type FailureReasonStat struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// VerdictStat represents verdict statistics.
type VerdictStat struct {
	Verdict string `json:"verdict"`
	Count   int    `json:"count"`
}

// jsonLogOutput is the structured format for JSON logs.
type jsonLogOutput struct {
	Timestamp       string         `json:"timestamp"`
	Level           string         `json:"level"`
	RunID           string         `json:"run_id"`
	User            string         `json:"user"`
	Source          string         `json:"source"`
	Subjects        int            `json:"subjects"`
	Findings        int            `json:"findings"`
	Verdicts        map[string]int `json:"verdicts,omitempty"`
	ExecutionTimeMs int64          `json:"execution_time_ms"`
	Outcome         string         `json:"outcome,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// JSONLogger implements RunLogger with JSON output.
//
// Only running aggregates are retained in memory; raw entries go to the
// writer and are never kept, so a long-lived gateway does not grow with
// its run count.
type JSONLogger struct {
	writer         io.Writer
	mu             sync.RWMutex
	accepted       int
	rejected       int
	failureReasons map[string]int
	verdictCounts  map[string]int
}

// NewJSONLogger creates a new JSON logger writing to the given writer.
func NewJSONLogger(w io.Writer) *JSONLogger {
	return &JSONLogger{
		writer:         w,
		failureReasons: make(map[string]int),
		verdictCounts:  make(map[string]int),
	}
}

// LogRun logs a screening run event as one JSON object per line.
func (l *JSONLogger) LogRun(ctx context.Context, entry RunLogEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("observability: context error: %w", err)
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	level := "info"
	if entry.Error != "" {
		level = "error"
	}

	output := jsonLogOutput{
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		Level:           level,
		RunID:           entry.RunID,
		User:            entry.User,
		Source:          entry.Source,
		Subjects:        entry.Subjects,
		Findings:        entry.Findings,
		Verdicts:        entry.Verdicts,
		ExecutionTimeMs: entry.ExecutionTime.Milliseconds(),
		Outcome:         entry.Outcome,
		Error:           entry.Error,
	}

	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("observability: failed to marshal log: %w", err)
	}
	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("observability: failed to write log: %w", err)
	}

	l.mu.Lock()
	if entry.Error == "" {
		l.accepted++
	} else {
		l.rejected++
		l.failureReasons[entry.Error]++
	}
	for verdict, count := range entry.Verdicts {
		l.verdictCounts[verdict] += count
	}
	l.mu.Unlock()

	return nil
}

// GetAuditSummary returns aggregated audit statistics.
func (l *JSONLogger) GetAuditSummary() *AuditSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	summary := &AuditSummary{
		AcceptedCount:     l.accepted,
		RejectedCount:     l.rejected,
		TopFailureReasons: []FailureReasonStat{},
		TopVerdicts:       []VerdictStat{},
	}

	for reason, count := range l.failureReasons {
		summary.TopFailureReasons = append(summary.TopFailureReasons, FailureReasonStat{
			Reason: reason,
			Count:  count,
		})
	}
	sort.Slice(summary.TopFailureReasons, func(i, j int) bool {
		if summary.TopFailureReasons[i].Count != summary.TopFailureReasons[j].Count {
			return summary.TopFailureReasons[i].Count > summary.TopFailureReasons[j].Count
		}
		return summary.TopFailureReasons[i].Reason < summary.TopFailureReasons[j].Reason
	})
	if len(summary.TopFailureReasons) > 5 {
		summary.TopFailureReasons = summary.TopFailureReasons[:5]
	}

	for verdict, count := range l.verdictCounts {
		summary.TopVerdicts = append(summary.TopVerdicts, VerdictStat{
			Verdict: verdict,
			Count:   count,
		})
	}
	sort.Slice(summary.TopVerdicts, func(i, j int) bool {
		if summary.TopVerdicts[i].Count != summary.TopVerdicts[j].Count {
			return summary.TopVerdicts[i].Count > summary.TopVerdicts[j].Count
		}
		return summary.TopVerdicts[i].Verdict < summary.TopVerdicts[j].Verdict
	})
	if len(summary.TopVerdicts) > 5 {
		summary.TopVerdicts = summary.TopVerdicts[:5]
	}

	return summary
}

// NoopLogger is a logger that discards all logs.
// Useful for testing or when logging is disabled.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

// LogRun does nothing and always succeeds.
func (l *NoopLogger) LogRun(ctx context.Context, entry RunLogEntry) error {
	return nil
}

// GetAuditSummary returns an empty summary for the no-op logger.
func (l *NoopLogger) GetAuditSummary() *AuditSummary {
	return &AuditSummary{
		TopFailureReasons: []FailureReasonStat{},
		TopVerdicts:       []VerdictStat{},
	}
}
