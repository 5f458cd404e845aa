package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/cordonlabs/cordon/pkg/models"
)

// Output formats accepted by --format.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

func (c *CLI) outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *CLI) outputYAML(v interface{}) error {
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close() //nolint:errcheck
	return enc.Encode(v)
}

// renderFindings prints a findings table, or the structured equivalent
// for machine formats.
func (c *CLI) renderFindings(format string, resp *models.ScreeningResponse) error {
	switch format {
	case FormatJSON:
		return c.outputJSON(resp)
	case FormatYAML:
		return c.outputYAML(resp)
	case FormatTable, "":
	default:
		return fmt.Errorf("unknown format %q (use table, json, or yaml)", format)
	}

	if len(resp.Findings) == 0 {
		c.printf("Screened %d subject(s) from %s: no anomalies.\n", resp.Subjects, resp.Source)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVERDICT\tNOTES")
	for _, f := range resp.Findings {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", f.SubjectID, f.Name, f.Verdict, f.AppearanceNotes)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	c.printf("\n%d of %d subject(s) flagged from %s in %s", len(resp.Findings), resp.Subjects, resp.Source, resp.Duration)
	if resp.Saved {
		c.printf(" (saved as %s)", resp.RunID)
	}
	c.printf("\n")
	return nil
}

// renderRuns prints a run listing table.
func (c *CLI) renderRuns(runs []models.RunInfo) error {
	if c.jsonOutput {
		return c.outputJSON(runs)
	}

	if len(runs) == 0 {
		c.println("No persisted screening runs.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tSOURCE\tSTARTED\tSUBJECTS\tFINDINGS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
			run.RunID, run.Source, run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Subjects, len(run.Findings))
	}
	return w.Flush()
}

// renderSources prints a source listing table.
func (c *CLI) renderSources(infos []models.SourceInfo) error {
	if c.jsonOutput {
		return c.outputJSON(infos)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tENGINE\tCAPABILITIES\tHEALTH")
	for _, info := range infos {
		health := "healthy"
		if !info.Healthy {
			health = "unhealthy: " + info.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			info.Name, info.Engine, strings.Join(info.Capabilities, ","), health)
	}
	return w.Flush()
}
