package http

import (
	"net/http"
	"strings"

	"conti/internal/core"
)

type convertResponse struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	Amount    moneyDTO `json:"amount"`
	Converted moneyDTO `json:"converted"`
	RateDate  string   `json:"rate_date"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	amount := strings.TrimSpace(q.Get("amount"))
	from := strings.ToUpper(strings.TrimSpace(q.Get("from")))
	to := strings.ToUpper(strings.TrimSpace(q.Get("to")))
	if amount == "" || from == "" || to == "" {
		badRequest(w, "missing amount, from or to query parameter")
		return
	}

	cents, err := core.ParseDecimalToCents(amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	asOf := strings.TrimSpace(q.Get("date"))
	if asOf == "" {
		asOf = "latest"
	}
	if asOf != "latest" {
		if _, err := core.ParseDate(asOf); err != nil {
			badRequest(w, "invalid date, expected YYYY-MM-DD or latest")
			return
		}
	}

	snapshot, err := s.rates.GetRates(r.Context(), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}

	in := core.Money{Cents: cents}
	out, err := core.Convert(in, from, to, snapshot)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, convertResponse{
		From:      from,
		To:        to,
		Amount:    toMoneyDTO(in),
		Converted: toMoneyDTO(out),
		RateDate:  snapshot.AsOf,
	})
}
