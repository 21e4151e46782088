package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/storage"
)

// TotalsWorker keeps each budget's running per-member totals in step with
// its expense history. Events carry only identifiers, so handling is a full
// recompute of the affected budget and therefore idempotent: replaying or
// reordering deliveries converges on the same rows.
type TotalsWorker struct {
	storage *storage.SQLiteRepository
}

func NewTotalsWorker(storage *storage.SQLiteRepository) *TotalsWorker {
	return &TotalsWorker{storage: storage}
}

// HandleExpenseEvent processes one expense change notification.
func (w *TotalsWorker) HandleExpenseEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	slog.InfoContext(ctx, "Processing expense event",
		"budget_id", msg.BudgetID,
		"expense_id", msg.ExpenseID,
		"action", msg.Action)

	return w.RecomputeBudget(ctx, msg.BudgetID)
}

// RecomputeBudget rebuilds the running totals for one budget from its full
// non-deleted history.
func (w *TotalsWorker) RecomputeBudget(ctx context.Context, budgetID string) error {
	expenses, err := w.storage.ListExpenses(ctx, budgetID)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}

	totals := ComputeMemberTotals(budgetID, expenses)
	if err := w.storage.ReplaceMemberTotals(ctx, budgetID, totals); err != nil {
		return fmt.Errorf("replace member totals: %w", err)
	}

	slog.InfoContext(ctx, "Budget totals recomputed",
		"budget_id", budgetID,
		"members", len(totals),
		"expenses", len(expenses))
	return nil
}

// RecomputeAll sweeps every budget, catching up on any events missed while
// the worker was down. At most limit budgets are recomputed concurrently.
// A failed budget is logged and skipped so the sweep always finishes.
func (w *TotalsWorker) RecomputeAll(ctx context.Context, limit int) error {
	ids, err := w.storage.ListBudgetIDs(ctx)
	if err != nil {
		return fmt.Errorf("list budget ids: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := w.RecomputeBudget(ctx, id); err != nil {
				slog.ErrorContext(ctx, "Budget totals sweep failed",
					"budget_id", id,
					"error", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ComputeMemberTotals folds a budget's history into per-member running
// totals. Expense records add to the payer's paid total and each
// participant's share total; settlement records add to the payer's
// settled-out and the receiver's settled-in totals. Income records touch
// neither side of the debt picture and are skipped.
func ComputeMemberTotals(budgetID string, expenses []core.Expense) []storage.MemberTotal {
	acc := make(map[string]*storage.MemberTotal)
	get := func(memberID string) *storage.MemberTotal {
		t, ok := acc[memberID]
		if !ok {
			t = &storage.MemberTotal{BudgetID: budgetID, MemberID: memberID}
			acc[memberID] = t
		}
		return t
	}

	for _, e := range expenses {
		switch e.Kind {
		case core.KindExpense:
			if e.CreatedBy == "" {
				continue
			}
			get(e.CreatedBy).PaidCents += e.Amount.Cents
			for uid, share := range e.Shares {
				get(uid).ShareCents += share.Cents
			}
		case core.KindSettlement:
			if e.CreatedBy == "" || len(e.PaidFor) != 1 {
				continue
			}
			get(e.CreatedBy).SettledOutCents += e.Amount.Cents
			get(e.PaidFor[0]).SettledInCents += e.Amount.Cents
		}
	}

	totals := make([]storage.MemberTotal, 0, len(acc))
	for _, t := range acc {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].MemberID < totals[j].MemberID })
	return totals
}
