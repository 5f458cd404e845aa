package trino

import (
	"context"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{Host: "trino.local", Port: 8080}, false},
		{"missing host", Config{Port: 8080}, true},
		{"missing port", Config{Host: "trino.local"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestConfigDSN(t *testing.T) {
	config := Config{Host: "trino.local", Port: 8080, Catalog: "hive", Schema: "ops", User: "cordon"}
	want := "http://cordon@trino.local:8080?catalog=hive&schema=ops"
	if got := config.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}

	config.SSLMode = "require"
	if got := config.DSN(); got != "https://cordon@trino.local:8080?catalog=hive&schema=ops" {
		t.Errorf("DSN with SSL = %q", got)
	}
}

func TestNewStoreDefaults(t *testing.T) {
	store, err := NewStore(Config{Host: "trino.local", Port: 8080})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	if store.Name() != "trino" {
		t.Errorf("Name = %q, want trino", store.Name())
	}
	if store.Engine() != "trino" {
		t.Errorf("Engine = %q", store.Engine())
	}
	if store.config.Catalog != "memory" || store.config.Schema != "default" || store.config.User != "cordon" {
		t.Errorf("defaults not applied: %+v", store.config)
	}

	caps := store.Capabilities()
	if len(caps) != 1 || caps[0] != "READ" {
		t.Errorf("Capabilities = %v, want [READ]", caps)
	}
}

func TestExecRejected(t *testing.T) {
	store, err := NewStore(Config{Host: "trino.local", Port: 8080})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	if err := store.Exec(context.Background(), "DELETE FROM intake_reports"); err == nil {
		t.Error("read-only store must reject Exec")
	}
}
