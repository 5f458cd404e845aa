package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cordonlabs/cordon/internal/screening"
	"github.com/cordonlabs/cordon/pkg/models"
)

func (c *CLI) newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Display the ordered classification rules",
		Long: `Display the ordered rule table used to classify anomalous subjects.

Order matters: classification is first-match-wins, so an earlier rule
masks every later one. Subjects matching no rule are LIKELY HUMAN.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRules(cmd.Context())
		},
	}
}

func (c *CLI) runRules(ctx context.Context) error {
	var rules []models.RuleInfo

	if c.remote {
		remote, err := c.newGatewayClient().GetRules(ctx)
		if err != nil {
			return err
		}
		rules = remote
	} else {
		for _, rule := range screening.Rules() {
			rules = append(rules, models.RuleInfo{
				Position:  rule.Position,
				Name:      rule.Name,
				Condition: rule.Condition,
				Verdict:   string(rule.Verdict),
			})
		}
	}

	if c.jsonOutput {
		return c.outputJSON(rules)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tRULE\tCONDITION\tVERDICT")
	for _, rule := range rules {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", rule.Position, rule.Name, rule.Condition, rule.Verdict)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	c.println("\nUnmatched subjects: LIKELY HUMAN")
	return nil
}
