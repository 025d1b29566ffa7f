package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/openupi/kingfisher/internal/assess"
	"github.com/openupi/kingfisher/internal/audit"
	"github.com/openupi/kingfisher/internal/domain"
	"github.com/openupi/kingfisher/internal/metrics"
	"github.com/openupi/kingfisher/internal/rules"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	assessor      *assess.Assessor
	auditLog      *audit.Log
	cache         domain.Cache
	bus           domain.EventBus
	engine        *rules.Engine
	version       string
	assessmentTTL time.Duration
}

// NewHandler creates a new API handler.
func NewHandler(assessor *assess.Assessor, auditLog *audit.Log, cache domain.Cache, bus domain.EventBus, engine *rules.Engine, version string) *Handler {
	return &Handler{
		assessor:      assessor,
		auditLog:      auditLog,
		cache:         cache,
		bus:           bus,
		engine:        engine,
		version:       version,
		assessmentTTL: 5 * time.Minute,
	}
}

// AssessResponse is the response for POST /assess.
type AssessResponse struct {
	AssessmentID  string   `json:"assessmentId"`
	Decision      string   `json:"decision"`
	FinalRisk     float64  `json:"finalRisk"`
	MLProbability float64  `json:"mlProbability"`
	Signals       []string `json:"signals,omitempty"`
	Timestamp     string   `json:"timestamp"`
	Metadata      struct {
		TraceID string `json:"traceId"`
		TotalMs int64  `json:"totalMs"`
		Version string `json:"version"`
		Replay  bool   `json:"replay,omitempty"`
	} `json:"metadata"`
}

// Assess handles POST /assess requests. A repeated X-Request-ID within the
// cache TTL replays the original assessment instead of recomputing.
func (h *Handler) Assess(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	traceID := GetTraceID(ctx)

	// Replay check before touching the body
	clientRequestID := r.Header.Get(RequestIDHeader)
	if h.cache != nil && clientRequestID != "" {
		if cached, err := h.cache.GetAssessment(ctx, clientRequestID); err == nil && cached != nil {
			metrics.IdempotentReplaysTotal.Inc()
			h.writeAssessment(w, cached, traceID, time.Since(start).Milliseconds(), true)
			return
		}
	}

	var req domain.AssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "amount must be positive",
		})
		return
	}
	if req.HourOfDay != nil && (*req.HourOfDay < 0 || *req.HourOfDay > 23) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "hourOfDay must be between 0 and 23",
		})
		return
	}

	assessment, err := h.assessor.Assess(ctx, &req)
	if err != nil {
		slog.Error("assessment failed", "error", err, "trace_id", traceID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "assessment failed",
		})
		return
	}

	if h.cache != nil && clientRequestID != "" {
		if err := h.cache.SetAssessment(ctx, clientRequestID, assessment, h.assessmentTTL); err != nil {
			slog.Warn("failed to cache assessment", "request_id", clientRequestID, "error", err)
		}
	}

	h.writeAssessment(w, assessment, traceID, time.Since(start).Milliseconds(), false)
}

func (h *Handler) writeAssessment(w http.ResponseWriter, a *domain.Assessment, traceID string, totalMs int64, replay bool) {
	resp := AssessResponse{
		AssessmentID:  a.ID,
		Decision:      string(a.Decision),
		FinalRisk:     a.FinalRisk,
		MLProbability: a.MLProbability,
		Signals:       a.Signals,
		Timestamp:     a.Timestamp.Format(time.RFC3339Nano),
	}
	resp.Metadata.TraceID = traceID
	resp.Metadata.TotalMs = totalMs
	resp.Metadata.Version = h.version
	resp.Metadata.Replay = replay

	writeJSON(w, http.StatusOK, resp)
}

// Audit handles GET /audit, returning the session risk monitor entries in
// append order.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	entries := h.auditLog.Entries()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// Rules handles GET /rules, reporting the loaded custom rule count.
func (h *Handler) Rules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"builtinRules": 3,
		"customRules":  h.engine.CustomRulesCount(),
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.bus != nil {
		if err := h.bus.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic. Readiness
// requires loaded model artifacts, which the assessor guarantees.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.assessor == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"ready": "false",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
