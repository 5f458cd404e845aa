package bigquery

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	if err := (Config{Project: "station-ops"}).Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
	if err := (Config{}).Validate(); err == nil {
		t.Error("missing project accepted")
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.QueryTimeout != 5*time.Minute {
		t.Errorf("QueryTimeout = %v", config.QueryTimeout)
	}
}
