package handler

import (
	"net/http"

	"github.com/freeeve/faction-ai/internal/auth"
)

// Register mounts the sector routes on an authenticated API mux. Mutations
// require the operator role.
func (h *SectorHandler) Register(api *http.ServeMux) {
	operator := auth.RequireRole(auth.RoleOperator)

	api.Handle("POST /sectors", operator(http.HandlerFunc(h.CreateSector)))
	api.HandleFunc("GET /sectors", h.ListSectors)
	api.HandleFunc("GET /sectors/{id}", h.GetSector)
	api.Handle("POST /sectors/{id}/ai-turns", operator(http.HandlerFunc(h.StartAITurns)))
	api.Handle("POST /sectors/{id}/advance", operator(http.HandlerFunc(h.AdvanceTurn)))
	api.HandleFunc("GET /sectors/{id}/turns", h.ListTurns)
	api.HandleFunc("GET /turns/{turnId}/factions", h.FactionTurns)
	api.HandleFunc("GET /sectors/{id}/factions/{factionId}/plan", h.GetPlan)
}
