// Package bootstrap assembles the cordon runtime from configuration:
// the source registry, the report repository, and the process logger.
// Both the CLI and the gateway build their world through this package,
// so a config file means the same thing everywhere.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cordonlabs/cordon/internal/config"
	"github.com/cordonlabs/cordon/internal/sources"
	"github.com/cordonlabs/cordon/internal/sources/bigquery"
	"github.com/cordonlabs/cordon/internal/sources/duckdb"
	"github.com/cordonlabs/cordon/internal/sources/postgres"
	"github.com/cordonlabs/cordon/internal/sources/snowflake"
	"github.com/cordonlabs/cordon/internal/sources/sqlite"
	"github.com/cordonlabs/cordon/internal/sources/trino"
	"github.com/cordonlabs/cordon/internal/storage"
)

// BuildRegistry creates and registers a store for every configured
// source. Feed query overrides are validated before any store is
// created; one bad source fails the whole build, with already-created
// stores closed.
func BuildRegistry(ctx context.Context, cfgs []config.SourceConfig) (*sources.Registry, error) {
	registry := sources.NewRegistry()

	for _, sc := range cfgs {
		feeds := sources.DefaultFeeds().Merge(feedsFromConfig(sc.Feeds))
		if err := feeds.Validate(); err != nil {
			registry.CloseAll() //nolint:errcheck
			return nil, fmt.Errorf("source %s: %w", sc.Name, err)
		}

		store, err := buildStore(ctx, sc)
		if err != nil {
			registry.CloseAll() //nolint:errcheck
			return nil, fmt.Errorf("source %s: %w", sc.Name, err)
		}

		registry.Register(store)
		registry.SetFeeds(store.Name(), feeds)
	}

	return registry, nil
}

func buildStore(ctx context.Context, sc config.SourceConfig) (sources.Store, error) {
	switch strings.ToLower(sc.Engine) {
	case "inline", "":
		return sources.NewInlineStore(sc.Name), nil

	case "sqlite":
		return sqlite.NewStore(sqlite.Config{Name: sc.Name, Path: sc.Path})

	case "duckdb":
		return duckdb.NewStore(duckdb.Config{Name: sc.Name, Path: sc.Path})

	case "postgres":
		cfg := postgres.DefaultConfig()
		cfg.Name = sc.Name
		cfg.DSN = sc.DSN
		return postgres.NewStore(ctx, cfg)

	case "trino":
		cfg := trino.DefaultConfig()
		cfg.Name = sc.Name
		cfg.Host = sc.Host
		cfg.Port = sc.Port
		if sc.Catalog != "" {
			cfg.Catalog = sc.Catalog
		}
		if sc.Schema != "" {
			cfg.Schema = sc.Schema
		}
		if sc.User != "" {
			cfg.User = sc.User
		}
		return trino.NewStore(cfg)

	case "snowflake":
		cfg := snowflake.DefaultConfig()
		cfg.Name = sc.Name
		cfg.Account = sc.Account
		cfg.User = sc.User
		cfg.Password = sc.Password
		cfg.Database = sc.Database
		cfg.Schema = sc.Schema
		cfg.Warehouse = sc.Warehouse
		cfg.Role = sc.Role
		return snowflake.NewStore(ctx, cfg)

	case "bigquery":
		cfg := bigquery.DefaultConfig()
		cfg.Name = sc.Name
		cfg.Project = sc.Project
		cfg.Dataset = sc.Dataset
		cfg.Location = sc.Location
		cfg.CredentialsJSON = sc.CredentialsJSON
		return bigquery.NewStore(ctx, cfg)

	default:
		return nil, fmt.Errorf("unknown source engine %q", sc.Engine)
	}
}

func feedsFromConfig(fc config.FeedsConfig) sources.FeedQueries {
	return sources.FeedQueries{
		Intake:       fc.Intake,
		Surveillance: fc.Surveillance,
		Biometrics:   fc.Biometrics,
	}
}

// OpenRepository opens the configured run history backend.
func OpenRepository(ctx context.Context, sc config.StorageConfig) (storage.ReportRepository, error) {
	switch strings.ToLower(sc.Driver) {
	case "sqlite", "":
		path := sc.Path
		if path == "" {
			path = "cordon.db"
		}
		return storage.NewSQLiteRepository(ctx, path)

	case "postgres":
		return storage.NewPostgresRepository(ctx, storage.PostgresConfig{DSN: sc.DSN})

	case "mock":
		// Used by tests and -dev mode; runs vanish on restart.
		return storage.NewMockRepository(), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", sc.Driver)
	}
}

// NewLogger builds the process logger from configuration. Unknown
// levels and formats fall back to info and JSON.
func NewLogger(lc config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(lc.Format) == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
