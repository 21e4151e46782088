package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"conti/internal/core"
)

// ExpenseInput carries a new or edited expense before shares are resolved.
// When Shares is nil the amount is split equally over PaidFor; a manual map
// must already satisfy the sum invariant.
type ExpenseInput struct {
	BudgetID    string
	Kind        core.ExpenseKind
	Description string
	Amount      core.Money
	Currency    string
	Date        core.Date
	CreatedBy   string
	PaidFor     []string
	Shares      map[string]core.Money
}

// ExpenseService orchestrates expense writes: share resolution through the
// splitter, validation, persistence and the change event for the totals
// worker. Event publishing never fails the request; the expense is already
// saved locally.
type ExpenseService struct {
	expenses  ExpenseStore
	budgets   BudgetStore
	publisher EventPublisher
}

func NewExpenseService(expenses ExpenseStore, budgets BudgetStore, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{expenses: expenses, budgets: budgets, publisher: publisher}
}

func (s *ExpenseService) CreateExpense(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	b, err := s.budgets.GetBudget(ctx, in.BudgetID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get budget: %w", err)
	}
	if err := s.checkParticipants(b, in); err != nil {
		return core.Expense{}, err
	}

	shares := in.Shares
	if shares == nil && in.Kind == core.KindExpense {
		shares, err = core.EqualSplit(in.Amount, in.PaidFor)
		if err != nil {
			return core.Expense{}, fmt.Errorf("split amount: %w", err)
		}
	}

	e := core.Expense{
		ID:          uuid.NewString(),
		BudgetID:    in.BudgetID,
		Kind:        in.Kind,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Currency:    in.Currency,
		Date:        in.Date,
		CreatedBy:   in.CreatedBy,
		PaidFor:     in.PaidFor,
		Shares:      shares,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if err := s.expenses.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, e.BudgetID, e.ID, "created")
	return e, nil
}

// UpdateExpense replaces an expense's editable fields. When the selection
// changed and no manual shares were supplied the split is re-equalized over
// the new selection; partial retention of old shares is never attempted.
func (s *ExpenseService) UpdateExpense(ctx context.Context, expenseID string, in ExpenseInput) (core.Expense, error) {
	prev, err := s.expenses.GetExpense(ctx, expenseID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	b, err := s.budgets.GetBudget(ctx, prev.BudgetID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get budget: %w", err)
	}
	in.BudgetID = prev.BudgetID
	if err := s.checkParticipants(b, in); err != nil {
		return core.Expense{}, err
	}

	shares := in.Shares
	if shares == nil && prev.Kind == core.KindExpense {
		shares, err = core.RecomputeOnSelectionChange(in.Amount, in.PaidFor)
		if err != nil {
			return core.Expense{}, fmt.Errorf("split amount: %w", err)
		}
	}

	e := prev
	e.Description = strings.TrimSpace(in.Description)
	e.Amount = in.Amount
	e.Currency = in.Currency
	e.Date = in.Date
	e.PaidFor = in.PaidFor
	e.Shares = shares
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if err := s.expenses.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.publish(ctx, e.BudgetID, e.ID, "updated")
	return e, nil
}

// EditShare pins one participant's share and rebalances the others,
// persisting the result. The rejection cases of the splitter (value too
// large, unknown participant) surface unchanged so the caller can keep the
// prior state.
func (s *ExpenseService) EditShare(ctx context.Context, expenseID, editedID string, newValue core.Money) (core.Expense, error) {
	e, err := s.expenses.GetExpense(ctx, expenseID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}

	shares, err := core.ApplyManualEdit(e.Shares, e.PaidFor, editedID, newValue, e.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	e.Shares = shares

	if err := s.expenses.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.publish(ctx, e.BudgetID, e.ID, "updated")
	return e, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, expenseID string) error {
	e, err := s.expenses.GetExpense(ctx, expenseID)
	if err != nil {
		return fmt.Errorf("get expense: %w", err)
	}
	if err := s.expenses.SoftDeleteExpense(ctx, expenseID); err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}
	s.publish(ctx, e.BudgetID, e.ID, "deleted")
	return nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, expenseID string) (core.Expense, error) {
	return s.expenses.GetExpense(ctx, expenseID)
}

func (s *ExpenseService) ListExpenses(ctx context.Context, budgetID string) ([]core.Expense, error) {
	return s.expenses.ListExpenses(ctx, budgetID)
}

// RecordSettlement stores a payment from one member to another as a
// settlement record: it never moves the pairwise ledger, only the running
// totals maintained by the worker.
func (s *ExpenseService) RecordSettlement(ctx context.Context, budgetID, fromID, toID string, amount core.Money, currency string, date core.Date) (core.Expense, error) {
	if fromID == toID {
		return core.Expense{}, fmt.Errorf("%w: cannot settle with yourself", core.ErrInvalidAmount)
	}
	return s.CreateExpense(ctx, ExpenseInput{
		BudgetID:    budgetID,
		Kind:        core.KindSettlement,
		Description: "settlement",
		Amount:      amount,
		Currency:    currency,
		Date:        date,
		CreatedBy:   fromID,
		PaidFor:     []string{toID},
		Shares:      map[string]core.Money{toID: amount},
	})
}

// checkParticipants verifies the payer and every selected participant are
// budget members and that the expense is recorded in the budget's currency.
func (s *ExpenseService) checkParticipants(b core.Budget, in ExpenseInput) error {
	if in.Currency != b.Currency {
		return fmt.Errorf("%w: expenses are recorded in the budget currency %s", core.ErrInvalidCurrency, b.Currency)
	}
	if !b.HasMember(in.CreatedBy) {
		return fmt.Errorf("%w: payer %s", ErrForbidden, in.CreatedBy)
	}
	for _, id := range in.PaidFor {
		if !b.HasMember(id) {
			return fmt.Errorf("%w: participant %s", ErrForbidden, id)
		}
	}
	if in.Kind == core.KindExpense && len(in.PaidFor) == 0 {
		return core.ErrNoParticipants
	}
	return nil
}

func (s *ExpenseService) publish(ctx context.Context, budgetID, expenseID, action string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping expense event",
			"budget_id", budgetID,
			"expense_id", expenseID)
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, budgetID, expenseID, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"budget_id", budgetID,
			"expense_id", expenseID,
			"action", action,
			"error", err)
	}
}
