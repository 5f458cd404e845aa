package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/cordonlabs/cordon/internal/auth"
	cerrors "github.com/cordonlabs/cordon/internal/errors"
	"github.com/cordonlabs/cordon/internal/observability"
	"github.com/cordonlabs/cordon/internal/screening"
	"github.com/cordonlabs/cordon/internal/sources"
	"github.com/cordonlabs/cordon/internal/status"
	"github.com/cordonlabs/cordon/internal/storage"
	"github.com/cordonlabs/cordon/pkg/models"
)

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	g.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readiness checks storage connectivity and source health. Shared by
// /readyz and /v1/status so both report the same picture.
func (g *Gateway) readiness(ctx context.Context) *status.ReadinessResult {
	result := &status.ReadinessResult{
		Ready:      true,
		Components: make(map[string]status.ComponentStatus),
	}

	if err := g.repo.CheckConnectivity(ctx); err != nil {
		result.Components["storage"] = status.ComponentStatus{Ready: false, Message: err.Error()}
		result.Ready = false
	} else {
		result.Components["storage"] = status.ComponentStatus{Ready: true, Message: "connected"}
	}

	health := g.Registry().CheckAllHealth(ctx)
	healthy := 0
	for name, err := range health {
		if g.metrics != nil {
			g.metrics.SetSourceUp(name, err == nil)
		}
		if err == nil {
			healthy++
		}
	}
	result.SourcesAvailable = healthy
	msg := strconv.Itoa(healthy) + " of " + strconv.Itoa(len(health)) + " sources healthy"
	if healthy == 0 && len(health) > 0 {
		// All sources down means no screening can run.
		result.Components["sources"] = status.ComponentStatus{Ready: false, Message: "no healthy sources"}
		result.Ready = false
	} else {
		result.Components["sources"] = status.ComponentStatus{Ready: true, Message: msg}
	}

	return result
}

// handleReadyz reports per-component readiness. Not ready returns 503
// so load balancers drain.
func (g *Gateway) handleReadyz(w http.ResponseWriter, r *http.Request) {
	readiness := g.readiness(r.Context())

	code := http.StatusOK
	if !readiness.Ready {
		code = http.StatusServiceUnavailable
	}

	type component struct {
		Ready   bool   `json:"ready"`
		Message string `json:"message"`
	}
	components := make(map[string]component, len(readiness.Components))
	for name, c := range readiness.Components {
		components[name] = component{Ready: c.Ready, Message: c.Message}
	}
	g.writeJSON(w, code, map[string]interface{}{
		"ready":      readiness.Ready,
		"components": components,
	})
}

// handleRunScreening runs the classifier over inline records or records
// loaded from a registered source, optionally persisting the run.
func (g *Gateway) handleRunScreening(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if err := g.authorizer.Authorize(r.Context(), user, auth.ActionScreen); err != nil {
		g.writeError(w, err)
		return
	}

	var req models.ScreeningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.writeError(w, cerrors.NewInvalidField("body", "request body is not valid JSON"))
		return
	}

	started := time.Now()
	sourceName := req.Source
	var records []screening.Record

	if len(req.Records) > 0 {
		if sourceName == "" {
			sourceName = "inline"
		}
		records = make([]screening.Record, 0, len(req.Records))
		for _, rec := range req.Records {
			records = append(records, recordFromModel(rec))
		}
	} else {
		if sourceName == "" {
			sourceName = g.config.DefaultSource
		}
		registry := g.Registry()
		store, err := registry.Resolve(sourceName)
		if err != nil {
			g.writeError(w, err)
			return
		}
		sourceName = store.Name()

		loader := sources.NewLoader(store, registry.FeedsFor(sourceName)).
			WithRetry(sources.DefaultRetryConfig())
		records, err = loader.Load(r.Context())
		if err != nil {
			g.recordOutcome(uuid.NewString(), user, sourceName, started, 0, nil, err)
			g.writeError(w, cerrors.NewSourceUnavailable(sourceName, err))
			return
		}
	}

	findings, err := screening.BuildReport(records)
	if err != nil {
		g.recordOutcome(uuid.NewString(), user, sourceName, started, len(records), nil, err)
		g.writeError(w, err)
		return
	}
	duration := time.Since(started)

	run := storage.NewRun(sourceName, started, duration, len(records), findings)
	saved := false
	if req.Save {
		if err := g.repo.SaveRun(r.Context(), run); err != nil {
			g.writeError(w, err)
			return
		}
		saved = true
	}

	g.recordOutcome(run.ID.String(), user, sourceName, started, len(records), findings, nil)

	response := models.ScreeningResponse{
		RunID:    run.ID.String(),
		Source:   sourceName,
		Subjects: len(records),
		Findings: findingsToModel(findings),
		Duration: duration.String(),
		Saved:    saved,
	}
	g.hub.Broadcast("screening", response)
	g.writeJSON(w, http.StatusOK, response)
}

// recordOutcome feeds the run logger and metrics for one screening
// attempt, successful or not.
func (g *Gateway) recordOutcome(runID string, user *auth.User, source string, started time.Time, subjects int, findings []screening.Finding, runErr error) {
	duration := time.Since(started)

	outcome := "success"
	errMsg := ""
	if runErr != nil {
		outcome = "error"
		errMsg = runErr.Error()
	}

	verdicts := make(map[string]int)
	for _, f := range findings {
		verdicts[string(f.Verdict)]++
		if g.metrics != nil {
			g.metrics.RecordFinding(string(f.Verdict))
		}
	}
	if g.metrics != nil {
		g.metrics.RecordScreening(outcome, subjects, duration.Seconds())
	}

	userID := "unknown"
	if user != nil {
		userID = user.ID
	}
	entry := observability.RunLogEntry{
		RunID:         runID,
		User:          userID,
		Source:        source,
		Subjects:      subjects,
		Findings:      len(findings),
		Verdicts:      verdicts,
		ExecutionTime: duration,
		Outcome:       outcome,
		Error:         errMsg,
	}
	// Logging failures must not fail the request.
	_ = g.logger.LogRun(context.Background(), entry)
}

func (g *Gateway) handleListRuns(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if err := g.authorizer.Authorize(r.Context(), user, auth.ActionReportRead); err != nil {
		g.writeError(w, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			g.writeError(w, cerrors.NewInvalidField("limit", "must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	runs, err := g.repo.ListRuns(r.Context(), limit)
	if err != nil {
		g.writeError(w, err)
		return
	}

	infos := make([]models.RunInfo, 0, len(runs))
	for _, run := range runs {
		infos = append(infos, runToModel(run))
	}
	g.writeJSON(w, http.StatusOK, infos)
}

func (g *Gateway) handleGetRun(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if err := g.authorizer.Authorize(r.Context(), user, auth.ActionReportRead); err != nil {
		g.writeError(w, err)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		g.writeError(w, cerrors.NewInvalidField("id", "run id must be a UUID"))
		return
	}

	run, err := g.repo.GetRun(r.Context(), id)
	if err != nil {
		g.writeError(w, err)
		return
	}
	g.writeJSON(w, http.StatusOK, runToModel(run))
}

func (g *Gateway) handleListSources(w http.ResponseWriter, r *http.Request) {
	registry := g.Registry()
	health := registry.CheckAllHealth(r.Context())

	infos := make([]models.SourceInfo, 0)
	for _, name := range registry.Available() {
		store, ok := registry.Get(name)
		if !ok {
			continue
		}
		caps := make([]string, 0)
		for _, c := range store.Capabilities() {
			caps = append(caps, string(c))
		}
		info := models.SourceInfo{
			Name:         name,
			Engine:       store.Engine(),
			Capabilities: caps,
			Healthy:      health[name] == nil,
		}
		if health[name] != nil {
			info.Error = health[name].Error()
		}
		infos = append(infos, info)
	}
	g.writeJSON(w, http.StatusOK, infos)
}

// handleSeedSource loads the demo roster into a seedable source.
// Admin-only: seeding writes tables.
func (g *Gateway) handleSeedSource(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if err := g.authorizer.Authorize(r.Context(), user, auth.ActionSeed); err != nil {
		g.writeError(w, err)
		return
	}

	store, ok := g.Registry().Get(r.PathValue("name"))
	if !ok {
		g.writeError(w, cerrors.NewSourceNotFound(r.PathValue("name")))
		return
	}

	if err := sources.Seed(r.Context(), store); err != nil {
		g.writeError(w, err)
		return
	}
	g.writeJSON(w, http.StatusOK, map[string]string{
		"status": "seeded",
		"source": store.Name(),
	})
}

func (g *Gateway) handleRules(w http.ResponseWriter, r *http.Request) {
	rules := screening.Rules()
	infos := make([]models.RuleInfo, 0, len(rules))
	for _, rule := range rules {
		infos = append(infos, models.RuleInfo{
			Position:  rule.Position,
			Name:      rule.Name,
			Condition: rule.Condition,
			Verdict:   string(rule.Verdict),
		})
	}
	g.writeJSON(w, http.StatusOK, infos)
}

func (g *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	checker := status.NewFuncStatusChecker(g.readiness, func() string { return g.config.Version })
	result, err := checker.GetStatus(r.Context())
	if err != nil {
		g.writeError(w, err)
		return
	}

	g.writeJSON(w, http.StatusOK, models.StatusResult{
		Ready:            result.Ready,
		Reason:           result.Reason,
		GatewayReady:     result.GatewayReady,
		StorageHealth:    result.StorageHealth,
		SourcesAvailable: result.SourcesAvailable,
		SourcesMessage:   result.SourcesMessage,
		Version:          result.Version,
	})
}

// handleAuditSummary returns aggregated run statistics. Counts only;
// raw run entries never leave the gateway.
func (g *Gateway) handleAuditSummary(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if err := g.authorizer.Authorize(r.Context(), user, auth.ActionReportRead); err != nil {
		g.writeError(w, err)
		return
	}
	g.writeJSON(w, http.StatusOK, g.logger.GetAuditSummary())
}

func (g *Gateway) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	g.writeJSON(w, http.StatusOK, models.AuthStatus{
		Authenticated: true,
		UserID:        user.ID,
		UserName:      user.Name,
		Roles:         user.Roles,
		ExpiresAt:     user.ExpiresAt,
	})
}

func (g *Gateway) handleLive(w http.ResponseWriter, r *http.Request) {
	g.hub.ServeHTTP(w, r)
}

func recordFromModel(rec models.SubjectRecord) screening.Record {
	return screening.Record{
		SubjectID:       rec.SubjectID,
		Name:            rec.Name,
		ReportedGender:  rec.ReportedGender,
		AppearanceNotes: rec.AppearanceNotes,
		CamFront:        rec.CamFront,
		CamBack:         rec.CamBack,
		NightVision:     rec.NightVision,
		VoicePitch:      rec.VoicePitch,
		HasPulse:        rec.HasPulse,
	}
}

func findingsToModel(findings []screening.Finding) []models.Finding {
	out := make([]models.Finding, 0, len(findings))
	for _, f := range findings {
		out = append(out, models.Finding{
			SubjectID:       f.SubjectID,
			Name:            f.Name,
			AppearanceNotes: f.AppearanceNotes,
			Verdict:         string(f.Verdict),
		})
	}
	return out
}

func runToModel(run *storage.Run) models.RunInfo {
	return models.RunInfo{
		RunID:     run.ID.String(),
		Source:    run.Source,
		StartedAt: run.StartedAt,
		Duration:  run.Duration.String(),
		Subjects:  run.Subjects,
		Findings:  findingsToModel(run.Findings),
	}
}
