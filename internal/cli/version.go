package cli

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  `Display CLI and gateway version information.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVersion(cmd.Context())
		},
	}
}

func (c *CLI) runVersion(ctx context.Context) error {
	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	// Query gateway version when an endpoint is configured.
	var serverVersion string
	serverStatus := "not configured"
	if c.cfg != nil && c.cfg.Endpoint != "" {
		if status, err := c.newGatewayClient().GetStatus(ctx); err == nil {
			serverVersion = status.Version
			serverStatus = "ready"
			if !status.Ready {
				serverStatus = "not ready"
			}
		} else {
			serverStatus = "unavailable"
		}
	}

	if c.jsonOutput {
		output := struct {
			VersionInfo
			Gateway struct {
				Version string `json:"version,omitempty"`
				Status  string `json:"status"`
			} `json:"gateway"`
		}{
			VersionInfo: info,
		}
		output.Gateway.Version = serverVersion
		output.Gateway.Status = serverStatus
		return c.outputJSON(output)
	}

	c.println("Cordon CLI")
	c.printf("  Version:    %s\n", info.Version)
	c.printf("  Git Commit: %s\n", info.GitCommit)
	c.printf("  Build Date: %s\n", info.BuildDate)
	c.printf("  Go Version: %s\n", info.GoVersion)
	c.printf("  OS/Arch:    %s/%s\n", info.OS, info.Arch)

	c.println("")
	c.println("Gateway:")
	if serverVersion != "" {
		c.printf("  Version: %s\n", serverVersion)
	}
	c.printf("  Status: %s\n", serverStatus)

	return nil
}

// VersionInfo represents version information for JSON output.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// SetVersionInfo sets the version information (called from main).
func SetVersionInfo(version, commit, date string) {
	if version != "" {
		Version = version
	}
	if commit != "" {
		GitCommit = commit
	}
	if date != "" {
		BuildDate = date
	}
}

// GetVersionString returns a formatted version string.
func GetVersionString() string {
	return fmt.Sprintf("cordon version %s (commit: %s, built: %s)",
		Version, GitCommit, BuildDate)
}
