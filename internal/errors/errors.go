// Package errors provides explicit, human-readable error types for cordon.
// All errors must include a Reason and Suggestion for actionable feedback.
package errors

import (
	"fmt"
)

// CordonError is the base error type for all cordon errors.
// Every error must provide a human-readable reason and suggestion.
type CordonError struct {
	Code       ErrorCode
	Message    string
	Reason     string
	Suggestion string
	Cause      error
}

// ErrorCode represents the category of error for exit code mapping.
type ErrorCode int

const (
	CodeValidation ErrorCode = 1
	CodeAuth       ErrorCode = 2
	CodeSource     ErrorCode = 3
	CodeStorage    ErrorCode = 4
	CodeInternal   ErrorCode = 5
)

func (e *CordonError) Error() string {
	msg := e.Message
	if e.Reason != "" {
		msg = fmt.Sprintf("%s\nReason: %s", msg, e.Reason)
	}
	if e.Suggestion != "" {
		msg = fmt.Sprintf("%s\nSuggestion: %s", msg, e.Suggestion)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s\nCaused by: %v", msg, e.Cause)
	}
	return msg
}

func (e *CordonError) Unwrap() error {
	return e.Cause
}

// Base returns the embedded CordonError. Typed wrappers embed CordonError
// by value, so callers holding a wrapper use Base to reach the shared
// Code/Reason/Suggestion fields.
func (e *CordonError) Base() *CordonError {
	return e
}

// Coded is implemented by every cordon error through the embedded CordonError.
type Coded interface {
	Base() *CordonError
}

// ValidationError is returned when a subject record is malformed:
// a required field is absent, empty, or of the wrong type.
// Validation errors propagate to the caller and are never recovered internally.
type ValidationError struct {
	CordonError
	Field string
}

// NewMissingField creates a ValidationError for an absent required field.
func NewMissingField(field string) *ValidationError {
	return &ValidationError{
		CordonError: CordonError{
			Code:       CodeValidation,
			Message:    fmt.Sprintf("subject record invalid: missing field %s", field),
			Reason:     fmt.Sprintf("required field '%s' is absent or empty", field),
			Suggestion: "verify the source feeds populate every required column",
		},
		Field: field,
	}
}

// NewInvalidField creates a ValidationError for a field of the wrong type or value.
func NewInvalidField(field, reason string) *ValidationError {
	return &ValidationError{
		CordonError: CordonError{
			Code:       CodeValidation,
			Message:    fmt.Sprintf("subject record invalid: field %s", field),
			Reason:     fmt.Sprintf("field '%s': %s", field, reason),
			Suggestion: "verify the source feeds return the documented column types",
		},
		Field: field,
	}
}

// ErrSourceNotFound is returned when a referenced source does not exist.
type ErrSourceNotFound struct {
	CordonError
	Source string
}

// NewSourceNotFound creates a new ErrSourceNotFound.
func NewSourceNotFound(source string) *ErrSourceNotFound {
	return &ErrSourceNotFound{
		CordonError: CordonError{
			Code:       CodeSource,
			Message:    fmt.Sprintf("source not found: %s", source),
			Reason:     "no source registered with this name",
			Suggestion: "list configured sources with 'cordon sources list'",
		},
		Source: source,
	}
}

// ErrSourceUnavailable is returned when a configured source cannot be reached.
type ErrSourceUnavailable struct {
	CordonError
	Source string
}

// NewSourceUnavailable creates a new ErrSourceUnavailable.
func NewSourceUnavailable(source string, cause error) *ErrSourceUnavailable {
	return &ErrSourceUnavailable{
		CordonError: CordonError{
			Code:       CodeSource,
			Message:    fmt.Sprintf("source unavailable: %s", source),
			Reason:     "the source did not respond to a connectivity check",
			Suggestion: fmt.Sprintf("check connectivity with 'cordon sources ping %s'", source),
			Cause:      cause,
		},
		Source: source,
	}
}

// ErrSeedNotSupported is returned when seeding is requested on a read-only source.
type ErrSeedNotSupported struct {
	CordonError
	Source string
	Engine string
}

// NewSeedNotSupported creates a new ErrSeedNotSupported.
func NewSeedNotSupported(source, engine string) *ErrSeedNotSupported {
	return &ErrSeedNotSupported{
		CordonError: CordonError{
			Code:       CodeValidation,
			Message:    fmt.Sprintf("seed forbidden on %s", source),
			Reason:     fmt.Sprintf("%s sources lack the SEED capability", engine),
			Suggestion: "seed a sqlite, duckdb, or postgres source instead",
		},
		Source: source,
		Engine: engine,
	}
}

// ErrQueryRejected is returned when a feed query override is rejected before execution.
type ErrQueryRejected struct {
	CordonError
	Query string
}

// NewQueryRejected creates a new ErrQueryRejected.
func NewQueryRejected(query, reason, suggestion string) *ErrQueryRejected {
	return &ErrQueryRejected{
		CordonError: CordonError{
			Code:       CodeValidation,
			Message:    "feed query rejected",
			Reason:     reason,
			Suggestion: suggestion,
		},
		Query: query,
	}
}

// ErrRunNotFound is returned when a referenced screening run does not exist.
type ErrRunNotFound struct {
	CordonError
	RunID string
}

// NewRunNotFound creates a new ErrRunNotFound.
func NewRunNotFound(runID string) *ErrRunNotFound {
	return &ErrRunNotFound{
		CordonError: CordonError{
			Code:       CodeValidation,
			Message:    fmt.Sprintf("run not found: %s", runID),
			Reason:     "no persisted screening run with this id",
			Suggestion: "list persisted runs with 'cordon report list'",
		},
		RunID: runID,
	}
}

// ErrAuthFailed is returned when authentication fails.
type ErrAuthFailed struct {
	CordonError
}

// NewAuthFailed creates a new ErrAuthFailed.
func NewAuthFailed(reason string) *ErrAuthFailed {
	return &ErrAuthFailed{
		CordonError: CordonError{
			Code:       CodeAuth,
			Message:    "authentication failed",
			Reason:     reason,
			Suggestion: "pass a valid token with --token or the auth.token config key",
		},
	}
}

// NewAuthExpired creates an ErrAuthFailed for an expired token.
func NewAuthExpired() *ErrAuthFailed {
	return &ErrAuthFailed{
		CordonError: CordonError{
			Code:       CodeAuth,
			Message:    "authentication expired",
			Reason:     "token has expired",
			Suggestion: "request a new token from the gateway operator",
		},
	}
}

// ErrAccessDenied is returned when an authenticated user lacks a required role.
type ErrAccessDenied struct {
	CordonError
	Action string
}

// NewAccessDenied creates a new ErrAccessDenied.
func NewAccessDenied(action, reason string) *ErrAccessDenied {
	return &ErrAccessDenied{
		CordonError: CordonError{
			Code:       CodeAuth,
			Message:    fmt.Sprintf("%s forbidden", action),
			Reason:     reason,
			Suggestion: "ask the gateway operator to grant the required role",
		},
		Action: action,
	}
}

// ErrStorageUnavailable is returned when the report store cannot be reached.
type ErrStorageUnavailable struct {
	CordonError
}

// NewStorageUnavailable creates a new ErrStorageUnavailable.
func NewStorageUnavailable(cause error) *ErrStorageUnavailable {
	return &ErrStorageUnavailable{
		CordonError: CordonError{
			Code:       CodeStorage,
			Message:    "report storage unavailable",
			Reason:     "the report database did not respond",
			Suggestion: "check the storage.driver and storage.dsn configuration",
			Cause:      cause,
		},
	}
}

// ErrMigrationFailed is returned when a storage migration cannot be applied.
type ErrMigrationFailed struct {
	CordonError
	Migration string
}

// NewMigrationFailed creates a new ErrMigrationFailed.
func NewMigrationFailed(migration string, cause error) *ErrMigrationFailed {
	return &ErrMigrationFailed{
		CordonError: CordonError{
			Code:       CodeStorage,
			Message:    fmt.Sprintf("migration failed: %s", migration),
			Reason:     "the migration statement did not apply cleanly",
			Suggestion: "inspect the report database schema before retrying",
			Cause:      cause,
		},
		Migration: migration,
	}
}

// ErrGatewayUnavailable is returned when the CLI cannot reach the gateway.
type ErrGatewayUnavailable struct {
	CordonError
	Endpoint string
}

// NewGatewayUnavailable creates a new ErrGatewayUnavailable.
func NewGatewayUnavailable(endpoint, reason string) *ErrGatewayUnavailable {
	msg := "gateway unavailable"
	if endpoint != "" {
		msg = fmt.Sprintf("gateway unavailable: %s", endpoint)
	}
	return &ErrGatewayUnavailable{
		CordonError: CordonError{
			Code:       CodeSource,
			Message:    msg,
			Reason:     reason,
			Suggestion: "set --endpoint to a running cordon-gateway or omit it to screen locally",
		},
		Endpoint: endpoint,
	}
}
