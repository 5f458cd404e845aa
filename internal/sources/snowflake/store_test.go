package snowflake

import (
	"context"
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Account:   "xy12345.eu-west-1",
		User:      "screener",
		Password:  "secret",
		Warehouse: "SCREENING_WH",
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing account", func(c *Config) { c.Account = "" }},
		{"missing user", func(c *Config) { c.User = "" }},
		{"missing password", func(c *Config) { c.Password = "" }},
		{"missing warehouse", func(c *Config) { c.Warehouse = "" }},
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := valid
			tc.mutate(&config)
			if err := config.Validate(); err == nil {
				t.Error("invalid config accepted")
			}
		})
	}
}

func TestConfigDSN(t *testing.T) {
	config := Config{
		Account:   "xy12345",
		User:      "screener",
		Password:  "secret",
		Database:  "STATION",
		Schema:    "SCREENING",
		Warehouse: "SCREENING_WH",
		Role:      "ANALYST",
	}

	dsn := config.DSN()
	if !strings.HasPrefix(dsn, "screener:secret@xy12345/STATION/SCREENING?warehouse=SCREENING_WH") {
		t.Errorf("DSN = %q", dsn)
	}
	if !strings.Contains(dsn, "&role=ANALYST") {
		t.Errorf("DSN missing role: %q", dsn)
	}
}

func TestStoreWithoutConnect(t *testing.T) {
	store := NewStoreWithoutConnect(Config{Account: "xy12345"})
	defer store.Close()

	if store.Name() != "snowflake" {
		t.Errorf("Name = %q", store.Name())
	}
	if store.Engine() != "snowflake" {
		t.Errorf("Engine = %q", store.Engine())
	}

	caps := store.Capabilities()
	if len(caps) != 1 || caps[0] != "READ" {
		t.Errorf("Capabilities = %v, want [READ]", caps)
	}

	// No connection: queries and pings must fail, not panic.
	if _, err := store.Query(context.Background(), "SELECT 1"); err == nil {
		t.Error("query without a connection must fail")
	}
	if err := store.Exec(context.Background(), "DELETE FROM intake_reports"); err == nil {
		t.Error("read-only store must reject Exec")
	}
}
