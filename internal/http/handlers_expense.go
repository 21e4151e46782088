package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"conti/internal/core"
	"conti/internal/services"
)

// expenseRequest is the create/update payload. Amounts are decimal strings;
// shares may be omitted to request an equal split over paid_for.
type expenseRequest struct {
	Kind        string            `json:"kind"`
	Description string            `json:"description"`
	Amount      string            `json:"amount"`
	Currency    string            `json:"currency"`
	Date        string            `json:"date"`
	CreatedBy   string            `json:"created_by"`
	PaidFor     []string          `json:"paid_for"`
	Shares      map[string]string `json:"shares"`
}

func (req expenseRequest) toInput(budgetID string) (services.ExpenseInput, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return services.ExpenseInput{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return services.ExpenseInput{}, err
	}

	in := services.ExpenseInput{
		BudgetID:    budgetID,
		Kind:        core.ExpenseKind(req.Kind),
		Description: req.Description,
		Amount:      core.Money{Cents: cents},
		Currency:    req.Currency,
		Date:        date,
		CreatedBy:   req.CreatedBy,
		PaidFor:     req.PaidFor,
	}
	if req.Shares != nil {
		in.Shares = make(map[string]core.Money, len(req.Shares))
		for id, v := range req.Shares {
			c, err := core.ParseDecimalToCents(v)
			if err != nil {
				return services.ExpenseInput{}, err
			}
			in.Shares[id] = core.Money{Cents: c}
		}
	}
	return in, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in, err := req.toInput(chi.URLParam(r, "budgetID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, err := s.expenses.CreateExpense(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseDTO(e))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in, err := req.toInput(chi.URLParam(r, "budgetID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, err := s.expenses.UpdateExpense(r.Context(), chi.URLParam(r, "expenseID"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(e))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.expenses.GetExpense(r.Context(), chi.URLParam(r, "expenseID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(e))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.DeleteExpense(r.Context(), chi.URLParam(r, "expenseID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.expenses.ListExpenses(r.Context(), chi.URLParam(r, "budgetID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]expenseDTO, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// editShareRequest pins one participant's share of a stored expense; the
// other shares are rebalanced automatically.
type editShareRequest struct {
	MemberID string `json:"member_id"`
	Value    string `json:"value"`
}

func (s *Server) handleEditShare(w http.ResponseWriter, r *http.Request) {
	var req editShareRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cents, err := core.ParseDecimalToCents(req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, err := s.expenses.EditShare(r.Context(), chi.URLParam(r, "expenseID"), req.MemberID, core.Money{Cents: cents})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(e))
}

type recordSettlementRequest struct {
	FromID   string `json:"from_id"`
	ToID     string `json:"to_id"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Date     string `json:"date"`
}

func (s *Server) handleRecordSettlement(w http.ResponseWriter, r *http.Request) {
	var req recordSettlementRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, err := s.expenses.RecordSettlement(r.Context(), chi.URLParam(r, "budgetID"), req.FromID, req.ToID, core.Money{Cents: cents}, req.Currency, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseDTO(e))
}
