package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cordonlabs/cordon/internal/bootstrap"
)

func (c *CLI) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run system diagnostics",
		Long: `Run comprehensive system diagnostics.

Checks:
  - configuration and sources
  - report storage connectivity
  - authentication token
  - gateway reachability (when an endpoint is configured)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDoctor(cmd.Context())
		},
	}
}

// DiagnosticCheck represents a single diagnostic check result.
type DiagnosticCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (c *CLI) runDoctor(ctx context.Context) error {
	c.println("Cordon System Diagnostics")
	c.println("=========================")
	c.println("")

	checks := []DiagnosticCheck{
		c.checkSources(ctx),
		c.checkStorage(ctx),
		c.checkAuth(),
		c.checkGateway(ctx),
	}

	allPassed := true
	for _, check := range checks {
		if !check.Passed {
			allPassed = false
		}
		c.printCheck(check)
	}
	c.println("")

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"checks":     checks,
			"all_passed": allPassed,
		})
	}

	if allPassed {
		c.println("✓ All checks passed")
	} else {
		c.println("✗ Some checks failed - see above for details")
	}

	return nil
}

func (c *CLI) printCheck(check DiagnosticCheck) {
	status := "✗"
	if check.Passed {
		status = "✓"
	}
	c.printf("%s %s: %s\n", status, check.Name, check.Message)
	if check.Details != "" && !check.Passed {
		c.printf("  → %s\n", check.Details)
	}
}

func (c *CLI) checkSources(ctx context.Context) DiagnosticCheck {
	check := DiagnosticCheck{Name: "Sources"}

	if len(c.cfg.Sources) == 0 {
		check.Message = "No sources configured"
		check.Details = "Add a sources section to the config or run 'cordon init'"
		return check
	}

	registry, err := bootstrap.BuildRegistry(ctx, c.cfg.Sources)
	if err != nil {
		check.Message = "Source registry failed to build"
		check.Details = err.Error()
		return check
	}
	defer registry.CloseAll() //nolint:errcheck

	health := registry.CheckAllHealth(ctx)
	healthy := 0
	var firstErr string
	for name, err := range health {
		if err == nil {
			healthy++
		} else if firstErr == "" {
			firstErr = fmt.Sprintf("%s: %v", name, err)
		}
	}

	if healthy == 0 {
		check.Message = "No healthy sources"
		check.Details = firstErr
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("%d of %d source(s) healthy", healthy, len(health))
	if firstErr != "" {
		check.Details = firstErr
	}
	return check
}

func (c *CLI) checkStorage(ctx context.Context) DiagnosticCheck {
	check := DiagnosticCheck{Name: "Report Storage"}

	repo, err := bootstrap.OpenRepository(ctx, c.cfg.Storage)
	if err != nil {
		check.Message = "Cannot open report storage"
		check.Details = err.Error()
		return check
	}
	defer repo.Close() //nolint:errcheck

	if err := repo.CheckConnectivity(ctx); err != nil {
		check.Message = "Storage connectivity failed"
		check.Details = err.Error()
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("Connected (%s)", c.cfg.Storage.Driver)
	return check
}

func (c *CLI) checkAuth() DiagnosticCheck {
	check := DiagnosticCheck{Name: "Authentication"}

	token := c.getToken()
	if token == "" {
		// Local screening needs no token; only remote mode does.
		check.Passed = !c.remote
		check.Message = "No token (local commands unaffected)"
		if c.remote {
			check.Message = "Not authenticated"
			check.Details = "Run 'cordon auth login' or pass --token"
		}
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("Token present (source: %s)", c.getTokenSource())
	return check
}

func (c *CLI) checkGateway(ctx context.Context) DiagnosticCheck {
	check := DiagnosticCheck{Name: "Gateway"}

	if c.cfg.Endpoint == "" {
		check.Passed = !c.remote
		check.Message = "No endpoint configured (local mode)"
		if c.remote {
			check.Message = "No endpoint configured"
			check.Details = "Set endpoint in config or use --endpoint"
		}
		return check
	}

	healthy, err := c.newGatewayClient().CheckHealth(ctx)
	if err != nil || !healthy {
		// Only fatal when the user asked for remote mode.
		check.Passed = !c.remote
		check.Message = "Gateway unreachable"
		if err != nil {
			check.Details = err.Error()
		}
		return check
	}

	check.Passed = true
	check.Message = fmt.Sprintf("Connected to %s", c.cfg.Endpoint)
	return check
}
