package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/faction-ai/internal/auth"
	"github.com/freeeve/faction-ai/internal/service"
	"github.com/freeeve/faction-ai/pkg/sector"
)

// SectorHandler exposes sectors and their AI turn pipeline over HTTP.
type SectorHandler struct {
	turnSvc *service.TurnService
}

// NewSectorHandler creates a SectorHandler.
func NewSectorHandler(turnSvc *service.TurnService) *SectorHandler {
	return &SectorHandler{turnSvc: turnSvc}
}

type createSectorRequest struct {
	Name       string          `json:"name"`
	Difficulty string          `json:"difficulty"`
	State      sector.Snapshot `json:"state"`
}

// CreateSector handles POST /api/v1/sectors.
func (h *SectorHandler) CreateSector(w http.ResponseWriter, r *http.Request) {
	var req createSectorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	sec, err := h.turnSvc.CreateSector(r.Context(), req.Name, req.Difficulty, req.State)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	log.Info().Str("sectorId", sec.ID).Str("subject", auth.SubjectFromContext(r.Context())).Msg("Sector created via API")
	writeJSON(w, http.StatusCreated, sec)
}

// ListSectors handles GET /api/v1/sectors.
func (h *SectorHandler) ListSectors(w http.ResponseWriter, r *http.Request) {
	sectors, err := h.turnSvc.ListSectors(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if sectors == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, sectors)
}

// GetSector handles GET /api/v1/sectors/{id}.
func (h *SectorHandler) GetSector(w http.ResponseWriter, r *http.Request) {
	view, err := h.turnSvc.GetSector(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// StartAITurns handles POST /api/v1/sectors/{id}/ai-turns. The batch runs in
// the background; progress arrives over the WebSocket.
func (h *SectorHandler) StartAITurns(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.turnSvc.StartAITurns(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "sector_id": id})
}

// AdvanceTurn handles POST /api/v1/sectors/{id}/advance.
func (h *SectorHandler) AdvanceTurn(w http.ResponseWriter, r *http.Request) {
	turn, err := h.turnSvc.AdvanceTurn(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"turn": turn})
}

// ListTurns handles GET /api/v1/sectors/{id}/turns.
func (h *SectorHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.turnSvc.GetSector(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	turns, err := h.turnSvc.ListTurns(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if turns == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, turns)
}

// FactionTurns handles GET /api/v1/turns/{turnId}/factions.
func (h *SectorHandler) FactionTurns(w http.ResponseWriter, r *http.Request) {
	results, err := h.turnSvc.FactionTurns(r.Context(), r.PathValue("turnId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if results == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// GetPlan handles GET /api/v1/sectors/{id}/factions/{factionId}/plan.
func (h *SectorHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.turnSvc.GetPlan(r.Context(), r.PathValue("id"), r.PathValue("factionId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}
