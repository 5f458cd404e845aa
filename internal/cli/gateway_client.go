package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cordonlabs/cordon/internal/errors"
	"github.com/cordonlabs/cordon/pkg/models"
)

// GatewayClient is the HTTP client for a remote cordon gateway. In
// remote mode the CLI is a client, not an emulator: every command goes
// over the wire and displays the gateway's real responses.
type GatewayClient struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewGatewayClient creates a new gateway client.
func NewGatewayClient(endpoint, token string) *GatewayClient {
	return &GatewayClient{
		endpoint: endpoint,
		token:    token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Endpoint returns the configured gateway endpoint.
func (c *GatewayClient) Endpoint() string {
	return c.endpoint
}

// RunScreening runs a screening on the gateway.
func (c *GatewayClient) RunScreening(ctx context.Context, req models.ScreeningRequest) (*models.ScreeningResponse, error) {
	var result models.ScreeningResponse
	if err := c.post(ctx, "/v1/screenings", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListRuns retrieves persisted screening runs.
func (c *GatewayClient) ListRuns(ctx context.Context, limit int) ([]models.RunInfo, error) {
	path := "/v1/screenings"
	if limit > 0 {
		path += "?limit=" + url.QueryEscape(fmt.Sprint(limit))
	}
	var result []models.RunInfo
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetRun retrieves one persisted run by id.
func (c *GatewayClient) GetRun(ctx context.Context, runID string) (*models.RunInfo, error) {
	var result models.RunInfo
	if err := c.get(ctx, "/v1/screenings/"+url.PathEscape(runID), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListSources retrieves the gateway's registered sources with health.
func (c *GatewayClient) ListSources(ctx context.Context) ([]models.SourceInfo, error) {
	var result []models.SourceInfo
	if err := c.get(ctx, "/v1/sources", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// SeedSource seeds the demo roster into a gateway source.
func (c *GatewayClient) SeedSource(ctx context.Context, name string) error {
	return c.post(ctx, "/v1/sources/"+url.PathEscape(name)+"/seed", nil, nil)
}

// GetRules retrieves the ordered rule table from the gateway.
func (c *GatewayClient) GetRules(ctx context.Context) ([]models.RuleInfo, error) {
	var result []models.RuleInfo
	if err := c.get(ctx, "/v1/rules", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetStatus retrieves the gateway status.
func (c *GatewayClient) GetStatus(ctx context.Context) (*models.StatusResult, error) {
	var result models.StatusResult
	if err := c.get(ctx, "/v1/status", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetAuthStatus retrieves the caller's authentication status.
func (c *GatewayClient) GetAuthStatus(ctx context.Context) (*models.AuthStatus, error) {
	var result models.AuthStatus
	if err := c.get(ctx, "/v1/auth/status", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CheckHealth verifies gateway connectivity.
func (c *GatewayClient) CheckHealth(ctx context.Context) (bool, error) {
	if c.endpoint == "" {
		return false, errors.NewGatewayUnavailable("", "no gateway endpoint configured")
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}

func (c *GatewayClient) get(ctx context.Context, path string, out interface{}) error {
	return c.call(ctx, http.MethodGet, path, nil, out)
}

func (c *GatewayClient) post(ctx context.Context, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	return c.call(ctx, http.MethodPost, path, body, out)
}

func (c *GatewayClient) call(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	if c.endpoint == "" {
		return errors.NewGatewayUnavailable("", "no gateway endpoint configured")
	}

	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request to the gateway.
func (c *GatewayClient) doRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewGatewayUnavailable(c.endpoint, err.Error())
	}

	return resp, nil
}

// parseErrorResponse turns a gateway error envelope back into a typed
// error, so exit codes survive the round trip.
func (c *GatewayClient) parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp models.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return fmt.Errorf("gateway error: %d - %s", resp.StatusCode, string(body))
	}

	base := errors.CordonError{
		Code:       errors.ErrorCode(errResp.Code),
		Message:    errResp.Error,
		Reason:     errResp.Reason,
		Suggestion: errResp.Suggestion,
	}
	if base.Code == 0 {
		base.Code = errors.CodeInternal
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		base.Code = errors.CodeAuth
	}
	return &base
}
