package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSettlementView(w http.ResponseWriter, r *http.Request) {
	memberID := strings.TrimSpace(r.URL.Query().Get("member"))
	if memberID == "" {
		badRequest(w, "missing member query parameter")
		return
	}
	currency := strings.TrimSpace(r.URL.Query().Get("currency"))

	view, err := s.settlements.View(r.Context(), chi.URLParam(r, "budgetID"), memberID, currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementViewDTO(view))
}
