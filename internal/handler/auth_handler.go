package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/faction-ai/internal/auth"
)

// AuthHandler issues bearer tokens for local development.
type AuthHandler struct {
	jwtMgr  *auth.JWTManager
	devMode bool
}

// NewAuthHandler creates an AuthHandler. DevToken only answers when devMode is set.
func NewAuthHandler(jwtMgr *auth.JWTManager, devMode bool) *AuthHandler {
	return &AuthHandler{jwtMgr: jwtMgr, devMode: devMode}
}

// DevToken handles GET /auth/dev?name=&role= and returns a signed token.
// The role defaults to observer.
func (h *AuthHandler) DevToken(w http.ResponseWriter, r *http.Request) {
	if !h.devMode {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing name parameter")
		return
	}

	roleParam := r.URL.Query().Get("role")
	if roleParam == "" {
		roleParam = string(auth.RoleObserver)
	}
	role, err := auth.ParseRole(roleParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.jwtMgr.Issue(name, role)
	if err != nil {
		log.Error().Err(err).Str("name", name).Msg("Failed to issue dev token")
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, token)
}
