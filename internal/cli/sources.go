package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cordonlabs/cordon/internal/bootstrap"
	"github.com/cordonlabs/cordon/internal/sources"
	"github.com/cordonlabs/cordon/pkg/models"
)

func (c *CLI) newSourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage screening sources",
		Long:  `List configured sources, check their connectivity, and seed demo data.`,
	}

	cmd.AddCommand(c.newSourcesListCmd())
	cmd.AddCommand(c.newSourcesPingCmd())
	cmd.AddCommand(c.newSourcesSeedCmd())

	return cmd
}

func (c *CLI) newSourcesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured sources with capabilities and health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSourcesList(cmd.Context())
		},
	}
}

func (c *CLI) runSourcesList(ctx context.Context) error {
	if c.remote {
		infos, err := c.newGatewayClient().ListSources(ctx)
		if err != nil {
			return err
		}
		return c.renderSources(infos)
	}

	registry, err := bootstrap.BuildRegistry(ctx, c.cfg.Sources)
	if err != nil {
		return err
	}
	defer registry.CloseAll() //nolint:errcheck

	health := registry.CheckAllHealth(ctx)
	infos := make([]models.SourceInfo, 0)
	for _, name := range registry.Available() {
		store, ok := registry.Get(name)
		if !ok {
			continue
		}
		caps := make([]string, 0)
		for _, capability := range store.Capabilities() {
			caps = append(caps, string(capability))
		}
		info := models.SourceInfo{
			Name:         name,
			Engine:       store.Engine(),
			Capabilities: caps,
			Healthy:      health[name] == nil,
		}
		if health[name] != nil {
			info.Error = health[name].Error()
		}
		infos = append(infos, info)
	}
	return c.renderSources(infos)
}

func (c *CLI) newSourcesPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping <name>",
		Short: "Check connectivity to one source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSourcesPing(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runSourcesPing(ctx context.Context, name string) error {
	registry, err := bootstrap.BuildRegistry(ctx, c.cfg.Sources)
	if err != nil {
		return err
	}
	defer registry.CloseAll() //nolint:errcheck

	store, err := registry.Resolve(name)
	if err != nil {
		return err
	}

	if err := store.CheckHealth(ctx); err != nil {
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"source":  store.Name(),
			"engine":  store.Engine(),
			"healthy": true,
		})
	}
	c.printf("✓ %s (%s) is healthy\n", store.Name(), store.Engine())
	return nil
}

func (c *CLI) newSourcesSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <name>",
		Short: "Load the demo roster into a seedable source",
		Long: `Load the bundled demo schema and four-subject roster into a source.

Only sources with the SEED capability (sqlite, duckdb, postgres) accept
seeding. Existing roster rows are replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSourcesSeed(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runSourcesSeed(ctx context.Context, name string) error {
	if c.remote {
		if err := c.newGatewayClient().SeedSource(ctx, name); err != nil {
			return err
		}
		c.printf("✓ Seeded %s\n", name)
		return nil
	}

	registry, err := bootstrap.BuildRegistry(ctx, c.cfg.Sources)
	if err != nil {
		return err
	}
	defer registry.CloseAll() //nolint:errcheck

	store, err := registry.Resolve(name)
	if err != nil {
		return err
	}

	if err := sources.Seed(ctx, store); err != nil {
		return err
	}
	c.printf("✓ Seeded %s with the demo roster\n", store.Name())
	return nil
}
