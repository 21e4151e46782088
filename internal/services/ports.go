package services

import (
	"context"

	"conti/internal/core"
	"conti/internal/storage"
)

// Ports for the stores and collaborators the services drive. The SQLite
// repository satisfies the store interfaces; the AMQP client satisfies
// EventPublisher; the rates client satisfies RateSource.
type (
	MemberStore interface {
		CreateMember(ctx context.Context, m core.Member) error
		GetMember(ctx context.Context, id string) (core.Member, error)
		GetBudgetMembers(ctx context.Context, budgetID string) (map[string]core.Member, error)
	}

	BudgetStore interface {
		CreateBudget(ctx context.Context, b core.Budget) error
		GetBudget(ctx context.Context, id string) (core.Budget, error)
		ListBudgetsByMember(ctx context.Context, memberID string) ([]core.Budget, error)
		AddBudgetMember(ctx context.Context, budgetID, memberID string) error
		RemoveBudgetMember(ctx context.Context, budgetID, memberID string) error
	}

	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) error
		UpdateExpense(ctx context.Context, e core.Expense) error
		SoftDeleteExpense(ctx context.Context, id string) error
		GetExpense(ctx context.Context, id string) (core.Expense, error)
		ListExpenses(ctx context.Context, budgetID string) ([]core.Expense, error)
	}

	TotalsStore interface {
		GetMemberTotals(ctx context.Context, budgetID string) ([]storage.MemberTotal, error)
	}

	RateSource interface {
		GetRates(ctx context.Context, asOf string) (core.RateSnapshot, error)
	}

	EventPublisher interface {
		PublishExpenseEvent(ctx context.Context, budgetID, expenseID, action string) error
	}
)
