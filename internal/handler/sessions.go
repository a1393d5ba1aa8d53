// Package handler provides HTTP handlers for the ops API.
package handler

import (
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/middleware"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/registry"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/sim"
	"github.com/WhiteTorn/Wandero-Client-Simulation/pkg/logger"
)

// SessionHandler exposes the session registry over HTTP.
type SessionHandler struct {
	registry *registry.Registry
	runner   *sim.Runner
	logger   *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(reg *registry.Registry, runner *sim.Runner, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		registry: reg,
		runner:   runner,
		logger:   log,
	}
}

type sessionSummary struct {
	ID            string               `json:"id"`
	PersonaID     string               `json:"persona_id"`
	Phase         model.Phase          `json:"phase"`
	Terminal      bool                 `json:"terminal"`
	Reason        model.TerminalReason `json:"reason,omitempty"`
	Messages      int                  `json:"messages"`
	InterestLevel float64              `json:"interest_level"`
	UpdatedAt     string               `json:"updated_at"`
}

// List handles GET /api/v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.registry.List()
	if r.URL.Query().Get("live") == "true" {
		sessions = h.registry.Live()
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	out := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionSummary{
			ID:            s.ID,
			PersonaID:     s.PersonaID,
			Phase:         s.Phase,
			Terminal:      s.TerminalFlag,
			Reason:        s.Reason,
			Messages:      len(s.Messages),
			InterestLevel: s.InterestLevel,
			UpdatedAt:     s.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": out,
		"total":    len(out),
	})
}

// Get handles GET /api/v1/sessions/:id
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, err := h.registry.Get(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeJSON(w, http.StatusOK, s)
}

// Cancel handles DELETE /api/v1/sessions/:id
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.runner.Cancel(sessionID); err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error("failed to cancel session")
		writeError(w, http.StatusInternalServerError, "failed to cancel session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
