// Package http exposes the JSON API: budgets and membership, expenses with
// share splitting, settlement views and currency conversion.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"conti/internal/core"
	"conti/internal/services"
	"conti/internal/storage"
)

// Ports for the services the handlers drive.
type (
	BudgetAPI interface {
		RegisterMember(ctx context.Context, name, email string) (core.Member, error)
		CreateBudget(ctx context.Context, name, currency, ownerID string, memberIDs []string) (core.Budget, error)
		GetSnapshot(ctx context.Context, budgetID string) (services.BudgetSnapshot, error)
		ListBudgets(ctx context.Context, memberID string) ([]core.Budget, error)
		AddMember(ctx context.Context, budgetID, memberID string) error
		RemoveMember(ctx context.Context, budgetID, memberID string) error
	}

	ExpenseAPI interface {
		CreateExpense(ctx context.Context, in services.ExpenseInput) (core.Expense, error)
		UpdateExpense(ctx context.Context, expenseID string, in services.ExpenseInput) (core.Expense, error)
		EditShare(ctx context.Context, expenseID, editedID string, newValue core.Money) (core.Expense, error)
		DeleteExpense(ctx context.Context, expenseID string) error
		GetExpense(ctx context.Context, expenseID string) (core.Expense, error)
		ListExpenses(ctx context.Context, budgetID string) ([]core.Expense, error)
		RecordSettlement(ctx context.Context, budgetID, fromID, toID string, amount core.Money, currency string, date core.Date) (core.Expense, error)
	}

	SettlementAPI interface {
		View(ctx context.Context, budgetID, currentUserID, displayCurrency string) (services.SettlementView, error)
	}

	RateAPI interface {
		GetRates(ctx context.Context, asOf string) (core.RateSnapshot, error)
	}

	TotalsReader interface {
		GetMemberTotals(ctx context.Context, budgetID string) ([]storage.MemberTotal, error)
	}
)

type Server struct {
	budgets     BudgetAPI
	expenses    ExpenseAPI
	settlements SettlementAPI
	rates       RateAPI
	totals      TotalsReader
}

// NewServer wires the router and returns a configured *http.Server.
func NewServer(addr string, budgets BudgetAPI, expenses ExpenseAPI, settlements SettlementAPI, rates RateAPI, totals TotalsReader) *http.Server {
	s := &Server{
		budgets:     budgets,
		expenses:    expenses,
		settlements: settlements,
		rates:       rates,
		totals:      totals,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/members", s.handleRegisterMember)

		r.Route("/budgets", func(r chi.Router) {
			r.Post("/", s.handleCreateBudget)
			r.Get("/", s.handleListBudgets)

			r.Route("/{budgetID}", func(r chi.Router) {
				r.Get("/", s.handleGetBudget)
				r.Post("/members", s.handleAddMember)
				r.Delete("/members/{memberID}", s.handleRemoveMember)

				r.Get("/expenses", s.handleListExpenses)
				r.Post("/expenses", s.handleCreateExpense)
				r.Route("/expenses/{expenseID}", func(r chi.Router) {
					r.Get("/", s.handleGetExpense)
					r.Put("/", s.handleUpdateExpense)
					r.Delete("/", s.handleDeleteExpense)
					r.Post("/shares", s.handleEditShare)
				})

				r.Get("/settlement", s.handleSettlementView)
				r.Post("/settlements", s.handleRecordSettlement)
				r.Get("/totals", s.handleTotals)
			})
		})

		r.Post("/split/preview", s.handleSplitPreview)
		r.Post("/split/edit", s.handleSplitEdit)

		r.Get("/rates/convert", s.handleConvert)
	})

	return &http.Server{
		Addr:           addr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one line per request with status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.InfoContext(r.Context(), "Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
