package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Endpoint != "http://localhost:8080" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.Screening.Source != "demo" {
		t.Errorf("Screening.Source = %q", cfg.Screening.Source)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q", cfg.Storage.Driver)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Engine != "inline" {
		t.Errorf("Sources = %+v", cfg.Sources)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
endpoint: http://gate.example:9090
auth:
  token: station-token
screening:
  source: local
sources:
  - name: local
    engine: sqlite
    path: /var/lib/cordon/feeds.db
  - name: warehouse
    engine: trino
    host: trino.example
    port: 8080
    feeds:
      intake: SELECT subject_id, name, reported_gender, appearance_notes FROM ops.intake
storage:
  driver: postgres
  dsn: postgres://cordon@db/cordon?sslmode=disable
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Endpoint != "http://gate.example:9090" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.Auth.Token != "station-token" {
		t.Errorf("Auth.Token = %q", cfg.Auth.Token)
	}
	if cfg.Screening.Source != "local" {
		t.Errorf("Screening.Source = %q", cfg.Screening.Source)
	}
	if len(cfg.Sources) != 2 {
		t.Fatalf("Sources = %+v", cfg.Sources)
	}
	if cfg.Sources[0].Engine != "sqlite" || cfg.Sources[0].Path != "/var/lib/cordon/feeds.db" {
		t.Errorf("Sources[0] = %+v", cfg.Sources[0])
	}
	if cfg.Sources[1].Feeds.Intake == "" {
		t.Error("feed override not loaded")
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("Storage.Driver = %q", cfg.Storage.Driver)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	// Defaults survive partial files.
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err == nil {
		// viper treats an explicit missing file as an error; both
		// behaviors are acceptable as long as defaults load without a
		// path.
		_ = cfg
	}

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load with no path: %v", err)
	}
	if cfg.Screening.Source != "demo" {
		t.Errorf("Screening.Source = %q", cfg.Screening.Source)
	}
	if len(cfg.Sources) == 0 {
		t.Error("default sources missing")
	}
}

func TestWatchReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("screening:\n  source: demo\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("screening:\n  source: local\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Screening.Source != "local" {
			t.Errorf("reloaded source = %q, want local", cfg.Screening.Source)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload did not fire")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not stop on cancel")
	}
}
