// Package main is the entrypoint for the cordon gateway server. The
// gateway authenticates requests, runs screenings over the configured
// sources, persists runs, and pushes live events to WebSocket clients.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cordonlabs/cordon/internal/auth"
	"github.com/cordonlabs/cordon/internal/bootstrap"
	"github.com/cordonlabs/cordon/internal/config"
	"github.com/cordonlabs/cordon/internal/gateway"
	"github.com/cordonlabs/cordon/internal/observability"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "config file (default: ~/.cordon/config.yaml)")
		addr       = flag.String("addr", "", "HTTP listen address (overrides config)")
		token      = flag.String("token", "", "static admin token (or CORDON_TOKEN)")
		devMode    = flag.Bool("dev", false, "development mode: in-memory run history")
		showVer    = flag.Bool("version", false, "show version")
	)
	flag.Parse()

	if *showVer {
		fmt.Printf("cordon-gateway %s (commit: %s, built: %s)\n", version, commit, date)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger := bootstrap.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	if *token == "" {
		*token = os.Getenv("CORDON_TOKEN")
	}
	if *token == "" {
		*token = cfg.Auth.Token
	}
	if *token == "" {
		return fmt.Errorf("auth token required: use -token, CORDON_TOKEN, or auth.token in config")
	}

	authenticator := auth.NewStaticTokenAuthenticator()
	authenticator.RegisterToken(*token, &auth.User{
		ID:    "admin",
		Name:  "Administrator",
		Roles: []string{auth.RoleAdmin},
	})
	// Role-scoped tokens: CORDON_OPERATOR_TOKEN screens and reads
	// reports, CORDON_AUDITOR_TOKEN only reads.
	if t := os.Getenv("CORDON_OPERATOR_TOKEN"); t != "" {
		authenticator.RegisterToken(t, &auth.User{ID: "operator", Name: "Operator", Roles: []string{"operator"}})
	}
	if t := os.Getenv("CORDON_AUDITOR_TOKEN"); t != "" {
		authenticator.RegisterToken(t, &auth.User{ID: "auditor", Name: "Auditor", Roles: []string{"auditor"}})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry, err := bootstrap.BuildRegistry(ctx, cfg.Sources)
	if err != nil {
		return fmt.Errorf("building source registry: %w", err)
	}
	defer registry.CloseAll() //nolint:errcheck
	logger.Info("sources registered", "sources", registry.Available())

	storageCfg := cfg.Storage
	if *devMode {
		logger.Warn("development mode: run history is in-memory and lost on restart")
		storageCfg = config.StorageConfig{Driver: "mock"}
	}
	repo, err := bootstrap.OpenRepository(ctx, storageCfg)
	if err != nil {
		return fmt.Errorf("opening report storage: %w", err)
	}
	defer repo.Close() //nolint:errcheck
	logger.Info("report storage ready", "driver", storageCfg.Driver)

	// One JSON line per screening, appended next to the run history.
	runLogFile, err := os.OpenFile("cordon-runs.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer runLogFile.Close() //nolint:errcheck
	runLogger := observability.NewJSONLogger(runLogFile)

	gw, err := gateway.NewGateway(
		authenticator,
		auth.DefaultAuthorizationService(),
		registry,
		repo,
		runLogger,
		prometheus.NewRegistry(),
		gateway.Config{
			Version:       version,
			DefaultSource: cfg.Screening.Source,
		},
	)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}
	defer gw.Close()

	// Hot-reload sources when the config file changes. The old registry
	// is closed only after the swap, so in-flight screenings finish.
	if *configPath != "" {
		go func() {
			err := config.Watch(ctx, *configPath, func(next *config.Config) {
				replacement, err := bootstrap.BuildRegistry(ctx, next.Sources)
				if err != nil {
					logger.Error("config reload: keeping previous sources", "err", err)
					return
				}
				old, err := gw.ReplaceRegistry(replacement)
				if err != nil {
					logger.Error("config reload: registry swap rejected", "err", err)
					replacement.CloseAll() //nolint:errcheck
					return
				}
				old.CloseAll() //nolint:errcheck
				logger.Info("sources reloaded", "sources", replacement.Available())
			})
			if err != nil {
				logger.Error("config watcher stopped", "err", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      gw,
		ReadTimeout:  parseTimeout(cfg.Server.ReadTimeout, 30*time.Second),
		WriteTimeout: parseTimeout(cfg.Server.WriteTimeout, 30*time.Second),
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "err", err)
		}
		cancel()
		close(done)
	}()

	logger.Info("cordon gateway starting",
		"addr", cfg.Server.Addr,
		"version", version,
		"default_source", cfg.Screening.Source)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("gateway stopped")
	return nil
}

func parseTimeout(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
