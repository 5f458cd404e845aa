package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cordonlabs/cordon/internal/bootstrap"
	"github.com/cordonlabs/cordon/internal/config"
	"github.com/cordonlabs/cordon/internal/sources"
)

const starterConfig = `# Cordon configuration
# Generated by 'cordon init'

# Gateway endpoint for --remote commands.
endpoint: http://localhost:8080

auth:
  token: ""

screening:
  # Default source for 'cordon screen'.
  source: local

sources:
  - name: local
    engine: sqlite
    path: screening.db

  # The built-in demo roster, no database required:
  # - name: demo
  #   engine: inline

  # Warehouse sources:
  # - name: warehouse
  #   engine: trino
  #   host: trino.internal
  #   port: 8080
  #   catalog: hive
  #   schema: screening

storage:
  driver: sqlite
  path: cordon.db

server:
  addr: :8080

logging:
  level: info
  format: json
`

func (c *CLI) newInitCmd() *cobra.Command {
	var dir string
	var seed bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a starter configuration",
		Long: `Generate a starter config file and, with --seed, a local SQLite
source pre-loaded with the demo roster. The result screens out of the
box: 'cordon init --seed && cordon screen'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInit(cmd.Context(), dir, seed)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "directory for the generated files")
	cmd.Flags().BoolVar(&seed, "seed", false, "create and seed the local SQLite source")

	return cmd
}

func (c *CLI) runInit(ctx context.Context, dir string, seed bool) error {
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("refusing to overwrite existing %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(starterConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	c.printf("✓ Wrote %s\n", configPath)

	if seed {
		dbPath := filepath.Join(dir, "screening.db")
		registry, err := bootstrap.BuildRegistry(ctx, []config.SourceConfig{
			{Name: "local", Engine: "sqlite", Path: dbPath},
		})
		if err != nil {
			return err
		}
		defer registry.CloseAll() //nolint:errcheck

		store, _ := registry.Get("local")
		if err := sources.Seed(ctx, store); err != nil {
			return err
		}
		c.printf("✓ Seeded %s with the demo roster\n", dbPath)
	}

	c.println("")
	c.println("Next steps:")
	c.printf("  cordon --config %s screen\n", configPath)
	return nil
}
