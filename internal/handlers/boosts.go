package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/alicelovescake/cashapp/internal/models"
)

// ListBoosts handles GET /api/v1/accounts/{id}/boosts.
func (s *Server) ListBoosts(w http.ResponseWriter, r *http.Request) {
	account, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"boosts": account.Boosts()})
}

// AddBoost handles POST /api/v1/accounts/{id}/boosts. Adding a third
// boost, or a variant already held, is a conflict.
func (s *Server) AddBoost(w http.ResponseWriter, r *http.Request) {
	account, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	var req struct {
		Type models.BoostType `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Type.Valid() {
		writeError(w, http.StatusBadRequest, "type must be high_roller, shopaholic, or foodie")
		return
	}
	if !account.AddBoost(req.Type) {
		writeError(w, http.StatusConflict, "boost limit reached or variant already held")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"boosts": account.Boosts()})
}

// RemoveBoost handles DELETE /api/v1/accounts/{id}/boosts/{type}.
func (s *Server) RemoveBoost(w http.ResponseWriter, r *http.Request) {
	account, ok := s.accountFromPath(w, r)
	if !ok {
		return
	}
	boost := models.BoostType(r.PathValue("type"))
	if !account.RemoveBoost(boost) {
		writeError(w, http.StatusNotFound, "boost not held")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"boosts": account.Boosts()})
}
