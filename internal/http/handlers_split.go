package http

import (
	"net/http"

	"conti/internal/core"
)

// The split endpoints are stateless helpers for clients building an expense
// form: they compute shares without touching storage.

type splitPreviewRequest struct {
	Total        string   `json:"total"`
	Participants []string `json:"participants"`
}

type splitResponse struct {
	Total        moneyDTO            `json:"total"`
	Participants []string            `json:"participants"`
	Shares       map[string]moneyDTO `json:"shares"`
}

func (s *Server) handleSplitPreview(w http.ResponseWriter, r *http.Request) {
	var req splitPreviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if len(req.Participants) == 0 {
		writeError(w, r, core.ErrNoParticipants)
		return
	}

	cents, err := core.ParseDecimalToCents(req.Total)
	if err != nil {
		writeError(w, r, err)
		return
	}
	total := core.Money{Cents: cents}

	shares, err := core.EqualSplit(total, req.Participants)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, splitResponse{
		Total:        toMoneyDTO(total),
		Participants: req.Participants,
		Shares:       toSharesDTO(shares),
	})
}

type splitEditRequest struct {
	Total        string            `json:"total"`
	Participants []string          `json:"participants"`
	Shares       map[string]string `json:"shares"`
	EditedID     string            `json:"edited_id"`
	Value        string            `json:"value"`
}

func (s *Server) handleSplitEdit(w http.ResponseWriter, r *http.Request) {
	var req splitEditRequest
	if !decodeBody(w, r, &req) {
		return
	}

	totalCents, err := core.ParseDecimalToCents(req.Total)
	if err != nil {
		writeError(w, r, err)
		return
	}
	valueCents, err := core.ParseDecimalToCents(req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}

	current := make(map[string]core.Money, len(req.Shares))
	for id, v := range req.Shares {
		c, err := core.ParseDecimalToCents(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		current[id] = core.Money{Cents: c}
	}

	total := core.Money{Cents: totalCents}
	shares, err := core.ApplyManualEdit(current, req.Participants, req.EditedID, core.Money{Cents: valueCents}, total)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, splitResponse{
		Total:        toMoneyDTO(total),
		Participants: req.Participants,
		Shares:       toSharesDTO(shares),
	})
}
