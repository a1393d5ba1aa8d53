package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/middleware"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/persona"
	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/sim"
	"github.com/WhiteTorn/Wandero-Client-Simulation/pkg/logger"
)

// PersonaHandler exposes the persona catalog and session spawning.
type PersonaHandler struct {
	catalog persona.Catalog
	runner  *sim.Runner
	logger  *logger.Logger
}

// NewPersonaHandler creates a new persona handler.
func NewPersonaHandler(catalog persona.Catalog, runner *sim.Runner, log *logger.Logger) *PersonaHandler {
	return &PersonaHandler{
		catalog: catalog,
		runner:  runner,
		logger:  log,
	}
}

// List handles GET /api/v1/personas
func (h *PersonaHandler) List(w http.ResponseWriter, r *http.Request) {
	items := h.catalog.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"personas": items,
		"total":    len(items),
	})
}

// Spawn handles POST /api/v1/personas/:id/sessions
func (h *PersonaHandler) Spawn(w http.ResponseWriter, r *http.Request) {
	personaID := chi.URLParam(r, "id")
	if err := middleware.ValidatePersonaID(personaID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, ok := h.catalog.FindByID(personaID)
	if !ok {
		writeError(w, http.StatusNotFound, "persona not found")
		return
	}

	s := h.runner.Spawn(p)
	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": s.ID,
		"persona_id": p.ID,
	})
}
