// Package cli provides the cordon command-line interface: screenings,
// persisted reports, source management, and diagnostics. Commands run
// locally against the configured sources by default; --remote sends
// them through a running gateway instead.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cordonlabs/cordon/internal/config"
	cerrors "github.com/cordonlabs/cordon/internal/errors"
)

// Exit codes, aligned with the error code taxonomy.
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitAuth       = 2
	ExitSource     = 3
	ExitStorage    = 4
	ExitInternal   = 5
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// CLI holds the command-line interface state.
type CLI struct {
	rootCmd *cobra.Command
	cfg     *config.Config

	// Global flags
	configPath string
	endpoint   string
	token      string
	remote     bool
	jsonOutput bool
	quiet      bool
	debug      bool
}

// New creates a new CLI instance.
func New() *CLI {
	cli := &CLI{}
	cli.rootCmd = cli.newRootCmd()
	return cli
}

// Execute runs the CLI and returns the process exit code.
func (c *CLI) Execute() int {
	if err := c.rootCmd.Execute(); err != nil {
		c.errorf("Error: %v\n", err)
		return exitCode(err)
	}
	return ExitSuccess
}

// exitCode maps a typed error to its exit code. Untyped errors are
// internal.
func exitCode(err error) int {
	if coded, ok := err.(cerrors.Coded); ok {
		switch coded.Base().Code {
		case cerrors.CodeValidation:
			return ExitValidation
		case cerrors.CodeAuth:
			return ExitAuth
		case cerrors.CodeSource:
			return ExitSource
		case cerrors.CodeStorage:
			return ExitStorage
		}
	}
	return ExitInternal
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cordon",
		Short: "Cordon - entry screening control plane",
		Long: `Cordon screens subject records from intake, surveillance, and
biometrics feeds through an ordered rule set and reports anomalies.

It provides:
  • Screening over local databases, warehouses, or inline records
  • A persisted run history with typed reports
  • Source management: list, ping, seed demo data
  • Gateway client mode for shared deployments (--remote)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ~/.cordon/config.yaml)")
	cmd.PersistentFlags().StringVar(&c.endpoint, "endpoint", "", "gateway endpoint (implies --remote when set)")
	cmd.PersistentFlags().StringVar(&c.token, "token", "", "auth token (overrides config)")
	cmd.PersistentFlags().BoolVar(&c.remote, "remote", false, "run through the gateway instead of locally")
	cmd.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "machine-readable JSON output")
	cmd.PersistentFlags().BoolVar(&c.quiet, "quiet", false, "suppress non-essential output")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "verbose debug logs")

	// Command groups
	cmd.AddCommand(c.newScreenCmd())
	cmd.AddCommand(c.newReportCmd())
	cmd.AddCommand(c.newSourcesCmd())
	cmd.AddCommand(c.newRulesCmd())
	cmd.AddCommand(c.newStatusCmd())
	cmd.AddCommand(c.newAuthCmd())
	cmd.AddCommand(c.newInitCmd())
	cmd.AddCommand(c.newDoctorCmd())
	cmd.AddCommand(c.newVersionCmd())

	return cmd
}

func (c *CLI) initConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	// Flags override config.
	if c.endpoint != "" {
		c.cfg.Endpoint = c.endpoint
		c.remote = true
	}
	if c.token != "" {
		c.cfg.Auth.Token = c.token
	}

	return nil
}

// Helper functions for output

func (c *CLI) printf(format string, args ...interface{}) {
	if !c.quiet {
		fmt.Printf(format, args...)
	}
}

func (c *CLI) println(args ...interface{}) {
	if !c.quiet {
		fmt.Println(args...)
	}
}

func (c *CLI) errorf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}

func (c *CLI) debugf(format string, args ...interface{}) {
	if c.debug {
		fmt.Printf("[DEBUG] "+format, args...)
	}
}

// newGatewayClient creates a gateway client with the current config.
func (c *CLI) newGatewayClient() *GatewayClient {
	return NewGatewayClient(c.cfg.Endpoint, c.cfg.Auth.Token)
}
