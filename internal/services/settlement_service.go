package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"conti/internal/core"
)

// UnknownMemberName is shown for share-map entries whose member id is no
// longer in the roster.
const UnknownMemberName = "Unknown"

// BalanceView is one row of the settlement view. Converted is only set when
// a display currency was requested and the conversion succeeded; when the
// rate is unavailable Unavailable is true and the caller must render a
// placeholder instead of a number.
type BalanceView struct {
	MemberID    string
	Name        string
	Amount      core.Money
	Converted   core.Money
	Unavailable bool
}

// SettlementView is the full settlement summary for one member of a budget.
type SettlementView struct {
	BudgetID        string
	Currency        string // budget currency the balances are in
	DisplayCurrency string // empty when no conversion was requested
	Balances        []BalanceView
	TotalReceivable core.Money
	TotalOwed       core.Money
}

// SettlementService aggregates a budget's history into the settlement view.
type SettlementService struct {
	budgets  BudgetStore
	members  MemberStore
	expenses ExpenseStore
	rates    RateSource
}

func NewSettlementService(budgets BudgetStore, members MemberStore, expenses ExpenseStore, rates RateSource) *SettlementService {
	return &SettlementService{budgets: budgets, members: members, expenses: expenses, rates: rates}
}

// View computes who owes whom relative to currentUserID. The budget, its
// member roster and its expense history are fetched in parallel and joined
// before the fold runs. displayCurrency optionally converts every amount at
// the latest rates; a failed conversion marks the row unavailable rather
// than failing the view or showing a wrong number.
func (s *SettlementService) View(ctx context.Context, budgetID, currentUserID, displayCurrency string) (SettlementView, error) {
	var (
		budget   core.Budget
		members  map[string]core.Member
		expenses []core.Expense
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.budgets.GetBudget(gctx, budgetID)
		if err != nil {
			return fmt.Errorf("get budget: %w", err)
		}
		budget = b
		return nil
	})
	g.Go(func() error {
		m, err := s.members.GetBudgetMembers(gctx, budgetID)
		if err != nil {
			return fmt.Errorf("get members: %w", err)
		}
		members = m
		return nil
	})
	g.Go(func() error {
		e, err := s.expenses.ListExpenses(gctx, budgetID)
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		expenses = e
		return nil
	})
	if err := g.Wait(); err != nil {
		return SettlementView{}, err
	}

	if !budget.HasMember(currentUserID) {
		return SettlementView{}, fmt.Errorf("%w: %s is not a member of this budget", ErrForbidden, currentUserID)
	}

	balances := core.ComputeSettlement(currentUserID, expenses, members)
	summary := core.Summarize(balances)

	view := SettlementView{
		BudgetID:        budgetID,
		Currency:        budget.Currency,
		Balances:        make([]BalanceView, 0, len(balances)),
		TotalReceivable: summary.TotalReceivable,
		TotalOwed:       summary.TotalOwed,
	}

	var snapshot core.RateSnapshot
	convert := false
	if displayCurrency != "" && displayCurrency != budget.Currency {
		view.DisplayCurrency = displayCurrency
		rs, err := s.rates.GetRates(ctx, "")
		if err != nil {
			// Balances still render; every conversion is just unavailable.
			slog.WarnContext(ctx, "Settlement conversion unavailable",
				"budget_id", budgetID,
				"currency", displayCurrency,
				"error", err)
			if !errors.Is(err, core.ErrRateUnavailable) {
				return SettlementView{}, err
			}
		} else {
			snapshot = rs
			convert = true
		}
	}

	for _, b := range balances {
		row := BalanceView{MemberID: b.MemberID, Name: b.Name, Amount: b.Amount}
		if row.Name == "" {
			row.Name = UnknownMemberName
		}
		if view.DisplayCurrency != "" {
			if convert {
				converted, err := core.Convert(b.Amount, budget.Currency, view.DisplayCurrency, snapshot)
				if err != nil {
					row.Unavailable = true
				} else {
					row.Converted = converted
				}
			} else {
				row.Unavailable = true
			}
		}
		view.Balances = append(view.Balances, row)
	}

	return view, nil
}
