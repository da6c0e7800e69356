package handlers

import "net/http"

// SaveSnapshot handles POST /api/v1/snapshot: the full ledger state is
// written to the configured store.
func (s *Server) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Save(r.Context(), s.ledger.Snapshot()); err != nil {
		s.logger.WithError(err).Error("save snapshot")
		writeError(w, http.StatusInternalServerError, "could not save snapshot")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "snapshot saved"})
}
