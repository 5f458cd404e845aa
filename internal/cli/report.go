package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cordonlabs/cordon/internal/bootstrap"
	cerrors "github.com/cordonlabs/cordon/internal/errors"
	"github.com/cordonlabs/cordon/internal/storage"
	"github.com/cordonlabs/cordon/pkg/models"
)

func (c *CLI) newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect persisted screening runs",
		Long:  `List and show screening runs persisted with --save.`,
	}

	cmd.AddCommand(c.newReportListCmd())
	cmd.AddCommand(c.newReportShowCmd())

	return cmd
}

func (c *CLI) newReportListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List persisted screening runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReportList(cmd.Context(), limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", storage.DefaultListLimit, "maximum runs to list")

	return cmd
}

func (c *CLI) runReportList(ctx context.Context, limit int) error {
	if c.remote {
		runs, err := c.newGatewayClient().ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		return c.renderRuns(runs)
	}

	repo, err := bootstrap.OpenRepository(ctx, c.cfg.Storage)
	if err != nil {
		return err
	}
	defer repo.Close() //nolint:errcheck

	runs, err := repo.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	infos := make([]models.RunInfo, 0, len(runs))
	for _, run := range runs {
		infos = append(infos, runInfoFromRun(run))
	}
	return c.renderRuns(infos)
}

func (c *CLI) newReportShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one persisted run with its findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReportShow(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runReportShow(ctx context.Context, rawID string) error {
	var info models.RunInfo

	if c.remote {
		remote, err := c.newGatewayClient().GetRun(ctx, rawID)
		if err != nil {
			return err
		}
		info = *remote
	} else {
		id, err := uuid.Parse(rawID)
		if err != nil {
			return cerrors.NewInvalidField("run-id", "must be a UUID")
		}

		repo, err := bootstrap.OpenRepository(ctx, c.cfg.Storage)
		if err != nil {
			return err
		}
		defer repo.Close() //nolint:errcheck

		run, err := repo.GetRun(ctx, id)
		if err != nil {
			return err
		}
		info = runInfoFromRun(run)
	}

	if c.jsonOutput {
		return c.outputJSON(info)
	}

	c.printf("Run:      %s\n", info.RunID)
	c.printf("Source:   %s\n", info.Source)
	c.printf("Started:  %s\n", info.StartedAt.Format("2006-01-02 15:04:05 MST"))
	c.printf("Duration: %s\n", info.Duration)
	c.printf("Subjects: %d\n", info.Subjects)
	c.println("")

	return c.renderFindings(FormatTable, &models.ScreeningResponse{
		RunID:    info.RunID,
		Source:   info.Source,
		Subjects: info.Subjects,
		Findings: info.Findings,
		Duration: info.Duration,
	})
}

func runInfoFromRun(run *storage.Run) models.RunInfo {
	findings := make([]models.Finding, 0, len(run.Findings))
	for _, f := range run.Findings {
		findings = append(findings, models.Finding{
			SubjectID:       f.SubjectID,
			Name:            f.Name,
			AppearanceNotes: f.AppearanceNotes,
			Verdict:         string(f.Verdict),
		})
	}
	return models.RunInfo{
		RunID:     run.ID.String(),
		Source:    run.Source,
		StartedAt: run.StartedAt,
		Duration:  fmt.Sprint(run.Duration),
		Subjects:  run.Subjects,
		Findings:  findings,
	}
}
