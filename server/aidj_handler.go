package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"SipSound/core/aidj"
	"SipSound/core/recommender"
	"SipSound/logger"
	"SipSound/model"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// SessionBuilder 由 aidj.Engine 实现
type SessionBuilder interface {
	BuildSession(ctx context.Context, req aidj.Request) (*aidj.SessionResult, error)
}

// HealthChecker reports the recommendation service status.
type HealthChecker interface {
	Health(ctx context.Context) (*recommender.Health, error)
}

// CoverSigner rewrites stored cover keys into client-facing URLs.
type CoverSigner interface {
	SignTracks(ctx context.Context, tracks []*model.Track) []*model.Track
}

// AIDJHandler 处理 AI DJ 相关请求
type AIDJHandler struct {
	sessions    SessionBuilder
	recommender HealthChecker
	covers      CoverSigner
	pingDB      func(ctx context.Context) error
}

// NewAIDJHandler wires the handler. recommender, covers and pingDB may be nil.
func NewAIDJHandler(sessions SessionBuilder, rec HealthChecker, covers CoverSigner, pingDB func(ctx context.Context) error) *AIDJHandler {
	return &AIDJHandler{sessions: sessions, recommender: rec, covers: covers, pingDB: pingDB}
}

// SessionHandler GET /api/ai-dj/session?limit=N
func (h *AIDJHandler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, requestID)

	// 非法或缺省的 limit 交给引擎按默认值处理
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.sessions.BuildSession(r.Context(), aidj.Request{
		UserID:    UserIDFromContext(r.Context()),
		Limit:     limit,
		RequestID: requestID,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build AI DJ session")
		return
	}

	out := *result
	if h.covers != nil {
		out.Tracks = h.covers.SignTracks(r.Context(), result.Tracks)
	}
	writeJSON(w, http.StatusOK, &out)
}

type healthResponse struct {
	Status      string              `json:"status"`
	Database    string              `json:"database"`
	Recommender *recommender.Health `json:"recommender,omitempty"`
	Error       string              `json:"recommenderError,omitempty"`
}

// HealthHandler GET /api/ai-dj/health. An unreachable recommender only
// degrades the service since sessions still fall back to the catalog; a
// database failure makes it unavailable.
func (h *AIDJHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "ok"}
	status := http.StatusOK

	if h.pingDB != nil {
		if err := h.pingDB(ctx); err != nil {
			logger.Warn("Database health check failed", logger.ErrorField(err))
			resp.Status = "unavailable"
			resp.Database = "error"
			status = http.StatusServiceUnavailable
		}
	}

	if h.recommender == nil {
		resp.Error = "recommender not configured"
	} else {
		health, err := h.recommender.Health(ctx)
		if err != nil {
			resp.Error = recommender.OutcomeOf(nil, err)
		} else {
			resp.Recommender = health
		}
	}
	if resp.Error != "" && resp.Status == "ok" {
		resp.Status = "degraded"
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
