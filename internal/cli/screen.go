package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cordonlabs/cordon/internal/bootstrap"
	cerrors "github.com/cordonlabs/cordon/internal/errors"
	"github.com/cordonlabs/cordon/internal/screening"
	"github.com/cordonlabs/cordon/internal/sources"
	"github.com/cordonlabs/cordon/internal/storage"
	"github.com/cordonlabs/cordon/pkg/models"
)

func (c *CLI) newScreenCmd() *cobra.Command {
	var (
		source      string
		recordsFile string
		save        bool
		format      string
	)

	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Run a screening and report anomalies",
		Long: `Run the ordered rule set over subject records and report anomalies.

Records come from a configured source (--source), or from a JSON/YAML
file of inline records (--records). Without either, the default source
from the configuration is screened. Use --save to persist the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScreen(cmd.Context(), source, recordsFile, save, format)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "source to screen (default: screening.source from config)")
	cmd.Flags().StringVar(&recordsFile, "records", "", "JSON or YAML file with inline subject records")
	cmd.Flags().BoolVar(&save, "save", false, "persist the run to report storage")
	cmd.Flags().StringVar(&format, "format", FormatTable, "output format: table, json, yaml")

	return cmd
}

func (c *CLI) runScreen(ctx context.Context, source, recordsFile string, save bool, format string) error {
	req := models.ScreeningRequest{Source: source, Save: save}
	if recordsFile != "" {
		records, err := loadRecordsFile(recordsFile)
		if err != nil {
			return err
		}
		req.Records = records
	}

	if c.remote {
		client := c.newGatewayClient()
		resp, err := client.RunScreening(ctx, req)
		if err != nil {
			return err
		}
		return c.renderFindings(format, resp)
	}

	resp, err := c.screenLocally(ctx, req)
	if err != nil {
		return err
	}
	return c.renderFindings(format, resp)
}

// screenLocally builds the registry from config and runs the screening
// in-process, mirroring what the gateway does on a request.
func (c *CLI) screenLocally(ctx context.Context, req models.ScreeningRequest) (*models.ScreeningResponse, error) {
	started := time.Now()
	sourceName := req.Source
	var records []screening.Record

	if len(req.Records) > 0 {
		if sourceName == "" {
			sourceName = "inline"
		}
		records = make([]screening.Record, 0, len(req.Records))
		for _, rec := range req.Records {
			records = append(records, screening.Record{
				SubjectID:       rec.SubjectID,
				Name:            rec.Name,
				ReportedGender:  rec.ReportedGender,
				AppearanceNotes: rec.AppearanceNotes,
				CamFront:        rec.CamFront,
				CamBack:         rec.CamBack,
				NightVision:     rec.NightVision,
				VoicePitch:      rec.VoicePitch,
				HasPulse:        rec.HasPulse,
			})
		}
	} else {
		registry, err := bootstrap.BuildRegistry(ctx, c.cfg.Sources)
		if err != nil {
			return nil, err
		}
		defer registry.CloseAll() //nolint:errcheck

		if sourceName == "" {
			sourceName = c.cfg.Screening.Source
		}
		store, err := registry.Resolve(sourceName)
		if err != nil {
			return nil, err
		}
		sourceName = store.Name()
		c.debugf("screening source %s (%s)\n", sourceName, store.Engine())

		loader := sources.NewLoader(store, registry.FeedsFor(sourceName)).
			WithRetry(sources.DefaultRetryConfig())
		records, err = loader.Load(ctx)
		if err != nil {
			return nil, cerrors.NewSourceUnavailable(sourceName, err)
		}
	}

	findings, err := screening.BuildReport(records)
	if err != nil {
		return nil, err
	}
	duration := time.Since(started)

	run := storage.NewRun(sourceName, started, duration, len(records), findings)
	saved := false
	if req.Save {
		repo, err := bootstrap.OpenRepository(ctx, c.cfg.Storage)
		if err != nil {
			return nil, err
		}
		defer repo.Close() //nolint:errcheck
		if err := repo.SaveRun(ctx, run); err != nil {
			return nil, err
		}
		saved = true
	}

	out := make([]models.Finding, 0, len(findings))
	for _, f := range findings {
		out = append(out, models.Finding{
			SubjectID:       f.SubjectID,
			Name:            f.Name,
			AppearanceNotes: f.AppearanceNotes,
			Verdict:         string(f.Verdict),
		})
	}
	return &models.ScreeningResponse{
		RunID:    run.ID.String(),
		Source:   sourceName,
		Subjects: len(records),
		Findings: out,
		Duration: duration.String(),
		Saved:    saved,
	}, nil
}

// loadRecordsFile reads inline subject records from a JSON or YAML file.
func loadRecordsFile(path string) ([]models.SubjectRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}

	var records []models.SubjectRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	default:
		err = json.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, cerrors.NewInvalidField("records", fmt.Sprintf("file %s does not parse: %v", path, err))
	}
	if len(records) == 0 {
		return nil, cerrors.NewInvalidField("records", "file contains no subject records")
	}
	return records, nil
}
