package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestCordonErrorFormat(t *testing.T) {
	err := &CordonError{
		Code:       CodeSource,
		Message:    "source unavailable: warehouse",
		Reason:     "connection refused",
		Suggestion: "check connectivity",
	}

	msg := err.Error()
	for _, want := range []string{"source unavailable: warehouse", "Reason: connection refused", "Suggestion: check connectivity"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() missing %q:\n%s", want, msg)
		}
	}
}

func TestValidationErrorNamesField(t *testing.T) {
	err := NewMissingField("has_pulse")
	if err.Field != "has_pulse" {
		t.Errorf("Field = %q, want has_pulse", err.Field)
	}
	if err.Code != CodeValidation {
		t.Errorf("Code = %d, want %d", err.Code, CodeValidation)
	}
	if !strings.Contains(err.Error(), "has_pulse") {
		t.Errorf("Error() does not name the field: %s", err.Error())
	}
}

func TestInvalidFieldCarriesReason(t *testing.T) {
	err := NewInvalidField("subject_id", "must be a positive integer")
	if !strings.Contains(err.Error(), "must be a positive integer") {
		t.Errorf("Error() missing reason: %s", err.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := NewSourceUnavailable("warehouse", cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause through Unwrap")
	}
}

func TestErrorCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{"validation", NewMissingField("name"), CodeValidation},
		{"auth", NewAuthFailed("invalid token"), CodeAuth},
		{"auth expired", NewAuthExpired(), CodeAuth},
		{"access denied", NewAccessDenied("seed", "missing admin role"), CodeAuth},
		{"source not found", NewSourceNotFound("nope"), CodeSource},
		{"seed not supported", NewSeedNotSupported("bq", "bigquery"), CodeValidation},
		{"query rejected", NewQueryRejected("DROP TABLE x", "write statement", "use a SELECT"), CodeValidation},
		{"run not found", NewRunNotFound("abc"), CodeValidation},
		{"storage", NewStorageUnavailable(nil), CodeStorage},
		{"migration", NewMigrationFailed("000001_create_runs", fmt.Errorf("boom")), CodeStorage},
		{"gateway", NewGatewayUnavailable("http://localhost:8080", "connection refused"), CodeSource},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			coded, ok := tc.err.(Coded)
			if !ok {
				t.Fatal("error does not embed CordonError")
			}
			base := coded.Base()
			if base.Code != tc.code {
				t.Errorf("Code = %d, want %d", base.Code, tc.code)
			}
			if base.Reason == "" || base.Suggestion == "" {
				t.Error("Reason and Suggestion are mandatory")
			}
		})
	}
}
