package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type registerMemberRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) handleRegisterMember(w http.ResponseWriter, r *http.Request) {
	var req registerMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m, err := s.budgets.RegisterMember(r.Context(), req.Name, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberDTO(m))
}

type createBudgetRequest struct {
	Name      string   `json:"name"`
	Currency  string   `json:"currency"`
	OwnerID   string   `json:"owner_id"`
	MemberIDs []string `json:"member_ids"`
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	b, err := s.budgets.CreateBudget(r.Context(), req.Name, req.Currency, req.OwnerID, req.MemberIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetDTO(b))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	memberID := strings.TrimSpace(r.URL.Query().Get("member"))
	if memberID == "" {
		badRequest(w, "missing member query parameter")
		return
	}

	budgets, err := s.budgets.ListBudgets(r.Context(), memberID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]budgetDTO, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetDTO(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	snap, err := s.budgets.GetSnapshot(r.Context(), chi.URLParam(r, "budgetID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetSnapshotDTO(snap))
}

type addMemberRequest struct {
	MemberID string `json:"member_id"`
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.MemberID) == "" {
		badRequest(w, "missing member_id")
		return
	}

	if err := s.budgets.AddMember(r.Context(), chi.URLParam(r, "budgetID"), req.MemberID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	err := s.budgets.RemoveMember(r.Context(), chi.URLParam(r, "budgetID"), chi.URLParam(r, "memberID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.totals.GetMemberTotals(r.Context(), chi.URLParam(r, "budgetID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]memberTotalDTO, 0, len(totals))
	for _, t := range totals {
		out = append(out, toMemberTotalDTO(t))
	}
	writeJSON(w, http.StatusOK, out)
}
