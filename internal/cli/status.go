package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cordonlabs/cordon/internal/bootstrap"
	"github.com/cordonlabs/cordon/pkg/models"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Display system status",
		Long: `Display source and storage health.

In remote mode this reports the gateway's own status; locally it checks
the configured sources and report storage directly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStatus(cmd.Context())
		},
	}
}

func (c *CLI) runStatus(ctx context.Context) error {
	var status models.StatusResult

	if c.remote {
		remote, err := c.newGatewayClient().GetStatus(ctx)
		if err != nil {
			return err
		}
		status = *remote
	} else {
		status = c.localStatus(ctx)
	}

	if c.jsonOutput {
		return c.outputJSON(status)
	}

	ready := "✓ ready"
	if !status.Ready {
		ready = "✗ not ready: " + status.Reason
	}
	c.printf("Status:   %s\n", ready)
	c.printf("Storage:  %s\n", status.StorageHealth)
	c.printf("Sources:  %s\n", status.SourcesMessage)
	if status.Version != "" {
		c.printf("Version:  %s\n", status.Version)
	}
	return nil
}

// localStatus checks sources and storage in-process.
func (c *CLI) localStatus(ctx context.Context) models.StatusResult {
	status := models.StatusResult{
		Ready:         true,
		GatewayReady:  false,
		StorageHealth: "connected",
		Version:       Version,
	}

	registry, err := bootstrap.BuildRegistry(ctx, c.cfg.Sources)
	if err != nil {
		status.Ready = false
		status.Reason = "sources: " + err.Error()
		status.SourcesMessage = err.Error()
	} else {
		defer registry.CloseAll() //nolint:errcheck
		health := registry.CheckAllHealth(ctx)
		healthy := 0
		for _, err := range health {
			if err == nil {
				healthy++
			}
		}
		status.SourcesAvailable = healthy
		status.SourcesMessage = countMessage(healthy, len(health))
		if healthy == 0 && len(health) > 0 {
			status.Ready = false
			status.Reason = "no healthy sources"
		}
	}

	repo, err := bootstrap.OpenRepository(ctx, c.cfg.Storage)
	if err != nil {
		status.Ready = false
		status.StorageHealth = err.Error()
		if status.Reason == "" {
			status.Reason = "storage: " + err.Error()
		}
		return status
	}
	defer repo.Close() //nolint:errcheck

	if err := repo.CheckConnectivity(ctx); err != nil {
		status.Ready = false
		status.StorageHealth = err.Error()
		if status.Reason == "" {
			status.Reason = "storage: " + err.Error()
		}
	}
	return status
}

func countMessage(healthy, total int) string {
	return strconv.Itoa(healthy) + " of " + strconv.Itoa(total) + " sources healthy"
}
