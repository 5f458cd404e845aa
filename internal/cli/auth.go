package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func (c *CLI) newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
		Long:  `Manage authentication with the cordon gateway.`,
	}

	cmd.AddCommand(c.newAuthLoginCmd())
	cmd.AddCommand(c.newAuthStatusCmd())
	cmd.AddCommand(c.newAuthLogoutCmd())

	return cmd
}

func (c *CLI) newAuthLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Store a gateway token locally",
		Long:  `Store a static gateway token in ~/.cordon/token for later commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAuthLogin()
		},
	}
}

func (c *CLI) runAuthLogin() error {
	var token string
	if c.token != "" {
		token = c.token
	} else {
		c.printf("Enter authentication token: ")
		if _, err := fmt.Scanln(&token); err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}

	if token == "" {
		c.errorf("Error: token required\n")
		c.errorf("Suggestion: provide token via --token flag or enter when prompted\n")
		return fmt.Errorf("token required")
	}

	configDir, err := c.getConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tokenFile := filepath.Join(configDir, "token")
	if err := os.WriteFile(tokenFile, []byte(token), 0600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	c.println("✓ Token saved")
	c.printf("  Location: %s\n", tokenFile)

	return nil
}

func (c *CLI) newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Display authentication status",
		Long:  `Display identity, roles, and token expiry as reported by the gateway.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAuthStatus(cmd.Context())
		},
	}
}

func (c *CLI) runAuthStatus(ctx context.Context) error {
	token := c.getToken()

	if token == "" {
		if c.jsonOutput {
			return c.outputJSON(map[string]interface{}{
				"authenticated": false,
				"error":         "no token found",
			})
		}
		c.errorf("Not authenticated\n")
		c.errorf("Suggestion: run 'cordon auth login' to store a token\n")
		return fmt.Errorf("not authenticated")
	}

	// The gateway is the authority on identity: ask it when reachable.
	if c.remote || c.cfg.Endpoint != "" {
		client := NewGatewayClient(c.cfg.Endpoint, token)
		status, err := client.GetAuthStatus(ctx)
		if err == nil {
			if c.jsonOutput {
				return c.outputJSON(status)
			}
			c.println("Authentication Status:")
			c.println("  Authenticated: ✓")
			c.printf("  User:  %s (%s)\n", status.UserName, status.UserID)
			c.printf("  Roles: %v\n", status.Roles)
			if !status.ExpiresAt.IsZero() {
				c.printf("  Expires: %s\n", status.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
			}
			return nil
		}
		c.debugf("gateway auth check failed: %v\n", err)
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"authenticated": true,
			"token_source":  c.getTokenSource(),
		})
	}
	c.println("Authentication Status:")
	c.println("  Token present: ✓")
	c.printf("  Token source: %s\n", c.getTokenSource())
	return nil
}

func (c *CLI) newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAuthLogout()
		},
	}
}

func (c *CLI) runAuthLogout() error {
	configDir, err := c.getConfigDir()
	if err != nil {
		return err
	}

	tokenFile := filepath.Join(configDir, "token")
	if err := os.Remove(tokenFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token: %w", err)
	}

	c.println("✓ Logged out")
	return nil
}

// Helper functions

func (c *CLI) getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".cordon"), nil
}

func (c *CLI) getToken() string {
	// Priority: flag > config > token file
	if c.token != "" {
		return c.token
	}
	if c.cfg != nil && c.cfg.Auth.Token != "" {
		return c.cfg.Auth.Token
	}

	configDir, err := c.getConfigDir()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(configDir, "token"))
	if err != nil {
		return ""
	}
	return string(data)
}

func (c *CLI) getTokenSource() string {
	if c.token != "" {
		return "command-line flag"
	}
	if c.cfg != nil && c.cfg.Auth.Token != "" {
		return "config file"
	}
	return "token file (~/.cordon/token)"
}
