// Package gateway provides the HTTP control plane for cordon. The
// gateway authenticates requests, runs screenings over registered
// sources, persists runs, and pushes live screening events over
// WebSocket.
package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cordonlabs/cordon/internal/auth"
	cerrors "github.com/cordonlabs/cordon/internal/errors"
	"github.com/cordonlabs/cordon/internal/observability"
	"github.com/cordonlabs/cordon/internal/sources"
	"github.com/cordonlabs/cordon/internal/storage"
	"github.com/cordonlabs/cordon/pkg/models"
)

// Config configures the gateway.
type Config struct {
	// Version is reported by /v1/status.
	Version string

	// DefaultSource is used when a screening request names no source.
	DefaultSource string
}

// Gateway is the cordon HTTP control plane.
type Gateway struct {
	authenticator auth.Authenticator
	authorizer    *auth.AuthorizationService
	repo          storage.ReportRepository
	logger        observability.RunLogger
	metrics       *observability.ScreeningMetrics
	promRegistry  *prometheus.Registry
	hub           *Hub
	config        Config

	mu       sync.RWMutex
	registry *sources.Registry

	mux *http.ServeMux
}

// NewGateway creates a gateway. The authenticator, source registry,
// repository, and logger are mandatory; startup fails without them.
func NewGateway(
	authenticator auth.Authenticator,
	authorizer *auth.AuthorizationService,
	registry *sources.Registry,
	repo storage.ReportRepository,
	logger observability.RunLogger,
	promRegistry *prometheus.Registry,
	config Config,
) (*Gateway, error) {
	if authenticator == nil {
		return nil, fmt.Errorf("gateway: authenticator is required")
	}
	if authorizer == nil {
		return nil, fmt.Errorf("gateway: authorizer is required")
	}
	if registry == nil || registry.IsEmpty() {
		return nil, fmt.Errorf("gateway: at least one source is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("gateway: report repository is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("gateway: run logger is required")
	}

	g := &Gateway{
		authenticator: authenticator,
		authorizer:    authorizer,
		registry:      registry,
		repo:          repo,
		logger:        logger,
		promRegistry:  promRegistry,
		hub:           NewHub(),
		config:        config,
	}

	if promRegistry != nil {
		metrics, err := observability.NewScreeningMetrics(promRegistry)
		if err != nil {
			return nil, err
		}
		g.metrics = metrics
	}

	g.mux = http.NewServeMux()
	g.routes()
	return g, nil
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mux.ServeHTTP(w, r)
}

// Hub returns the live event hub.
func (g *Gateway) Hub() *Hub {
	return g.hub
}

// Registry returns the current source registry.
func (g *Gateway) Registry() *sources.Registry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.registry
}

// ReplaceRegistry swaps the source registry, e.g. after a config
// reload. The old registry is returned so the caller can close it.
func (g *Gateway) ReplaceRegistry(registry *sources.Registry) (*sources.Registry, error) {
	if registry == nil || registry.IsEmpty() {
		return nil, fmt.Errorf("gateway: replacement registry has no sources")
	}

	g.mu.Lock()
	old := g.registry
	g.registry = registry
	g.mu.Unlock()
	return old, nil
}

// Close disconnects live clients.
func (g *Gateway) Close() {
	g.hub.Close()
}

func (g *Gateway) routes() {
	g.mux.HandleFunc("GET /health", g.handleHealth)
	g.mux.HandleFunc("GET /readyz", g.handleReadyz)
	if g.promRegistry != nil {
		g.mux.Handle("GET /metrics", promhttp.HandlerFor(g.promRegistry, promhttp.HandlerOpts{}))
	}

	g.mux.HandleFunc("POST /v1/screenings", g.requireAuth(g.handleRunScreening))
	g.mux.HandleFunc("GET /v1/screenings", g.requireAuth(g.handleListRuns))
	g.mux.HandleFunc("GET /v1/screenings/{id}", g.requireAuth(g.handleGetRun))
	g.mux.HandleFunc("GET /v1/sources", g.requireAuth(g.handleListSources))
	g.mux.HandleFunc("POST /v1/sources/{name}/seed", g.requireAuth(g.handleSeedSource))
	g.mux.HandleFunc("GET /v1/rules", g.requireAuth(g.handleRules))
	g.mux.HandleFunc("GET /v1/status", g.requireAuth(g.handleStatus))
	g.mux.HandleFunc("GET /v1/audit", g.requireAuth(g.handleAuditSummary))
	g.mux.HandleFunc("GET /v1/auth/status", g.requireAuth(g.handleAuthStatus))
	g.mux.HandleFunc("GET /v1/live", g.requireAuth(g.handleLive))
}

// requireAuth wraps a handler with bearer-token authentication and puts
// the user on the request context. WebSocket clients may pass the token
// as a query parameter instead of a header.
func (g *Gateway) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		user, err := g.authenticator.ValidateToken(r.Context(), token)
		if err != nil {
			g.writeError(w, err)
			return
		}

		next(w, r.WithContext(auth.ContextWithUser(r.Context(), user)))
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// writeError maps typed errors to status codes and a structured
// ErrorResponse envelope. Unknown errors become 500s without leaking
// internals.
func (g *Gateway) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	response := models.ErrorResponse{
		Error: "internal error",
		Code:  int(cerrors.CodeInternal),
	}

	switch err.(type) {
	case *cerrors.ValidationError, *cerrors.ErrQueryRejected, *cerrors.ErrSeedNotSupported:
		status = http.StatusBadRequest
	case *cerrors.ErrAuthFailed:
		status = http.StatusUnauthorized
	case *cerrors.ErrAccessDenied:
		status = http.StatusForbidden
	case *cerrors.ErrSourceNotFound, *cerrors.ErrRunNotFound:
		status = http.StatusNotFound
	case *cerrors.ErrSourceUnavailable:
		status = http.StatusBadGateway
	case *cerrors.ErrStorageUnavailable:
		status = http.StatusServiceUnavailable
	}

	if coded, ok := err.(cerrors.Coded); ok {
		base := coded.Base()
		response = models.ErrorResponse{
			Error:      base.Message,
			Reason:     base.Reason,
			Suggestion: base.Suggestion,
			Code:       int(base.Code),
		}
	} else if status != http.StatusInternalServerError {
		response.Error = err.Error()
	}

	g.writeJSON(w, status, response)
}
