package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/analytics"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/middleware"
	"github.com/WhiteTorn/Wandero-Client-Simulation/pkg/logger"
)

// AnalyticsHandler serves aggregated run statistics.
type AnalyticsHandler struct {
	recorder *analytics.Recorder
	logger   *logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(rec *analytics.Recorder, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		recorder: rec,
		logger:   log,
	}
}

// Summary handles GET /api/v1/analytics/summary
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.recorder.Summary())
}

// Session handles GET /api/v1/analytics/sessions/:id
func (h *AnalyticsHandler) Session(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, ok := h.recorder.Session(sessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "no record for session")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
