package services

import (
	"context"
	"fmt"
	"sort"

	"conti/internal/core"
	"conti/internal/storage"
)

// fakeStore is an in-memory implementation of the store ports.
type fakeStore struct {
	members  map[string]core.Member
	budgets  map[string]core.Budget
	expenses map[string]core.Expense
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:  make(map[string]core.Member),
		budgets:  make(map[string]core.Budget),
		expenses: make(map[string]core.Expense),
	}
}

func (f *fakeStore) CreateMember(_ context.Context, m core.Member) error {
	f.members[m.ID] = m
	return nil
}

func (f *fakeStore) GetMember(_ context.Context, id string) (core.Member, error) {
	m, ok := f.members[id]
	if !ok {
		return core.Member{}, storage.ErrNotFound
	}
	return m, nil
}

func (f *fakeStore) GetBudgetMembers(_ context.Context, budgetID string) (map[string]core.Member, error) {
	b, ok := f.budgets[budgetID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make(map[string]core.Member)
	for _, id := range b.MemberIDs {
		if m, ok := f.members[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (f *fakeStore) CreateBudget(_ context.Context, b core.Budget) error {
	f.budgets[b.ID] = b
	return nil
}

func (f *fakeStore) GetBudget(_ context.Context, id string) (core.Budget, error) {
	b, ok := f.budgets[id]
	if !ok {
		return core.Budget{}, storage.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) ListBudgetsByMember(_ context.Context, memberID string) ([]core.Budget, error) {
	var out []core.Budget
	for _, b := range f.budgets {
		if b.HasMember(memberID) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) AddBudgetMember(_ context.Context, budgetID, memberID string) error {
	b, ok := f.budgets[budgetID]
	if !ok {
		return storage.ErrNotFound
	}
	if !b.HasMember(memberID) {
		b.MemberIDs = append(b.MemberIDs, memberID)
		f.budgets[budgetID] = b
	}
	return nil
}

func (f *fakeStore) RemoveBudgetMember(_ context.Context, budgetID, memberID string) error {
	b, ok := f.budgets[budgetID]
	if !ok {
		return storage.ErrNotFound
	}
	kept := b.MemberIDs[:0]
	for _, id := range b.MemberIDs {
		if id != memberID {
			kept = append(kept, id)
		}
	}
	b.MemberIDs = kept
	f.budgets[budgetID] = b
	return nil
}

func (f *fakeStore) CreateExpense(_ context.Context, e core.Expense) error {
	f.expenses[e.ID] = e
	return nil
}

func (f *fakeStore) UpdateExpense(_ context.Context, e core.Expense) error {
	if _, ok := f.expenses[e.ID]; !ok {
		return storage.ErrNotFound
	}
	f.expenses[e.ID] = e
	return nil
}

func (f *fakeStore) SoftDeleteExpense(_ context.Context, id string) error {
	if _, ok := f.expenses[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.expenses, id)
	return nil
}

func (f *fakeStore) GetExpense(_ context.Context, id string) (core.Expense, error) {
	e, ok := f.expenses[id]
	if !ok {
		return core.Expense{}, storage.ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) ListExpenses(_ context.Context, budgetID string) ([]core.Expense, error) {
	var out []core.Expense
	for _, e := range f.expenses {
		if e.BudgetID == budgetID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeRates serves a fixed snapshot or fails.
type fakeRates struct {
	snapshot core.RateSnapshot
	fail     bool
}

func (f *fakeRates) GetRates(_ context.Context, _ string) (core.RateSnapshot, error) {
	if f.fail {
		return core.RateSnapshot{}, fmt.Errorf("%w: provider down", core.ErrRateUnavailable)
	}
	return f.snapshot, nil
}

// fakePublisher records published events.
type fakePublisher struct {
	events []string
	fail   bool
}

func (f *fakePublisher) PublishExpenseEvent(_ context.Context, budgetID, expenseID, action string) error {
	if f.fail {
		return fmt.Errorf("broker unavailable")
	}
	f.events = append(f.events, action+":"+expenseID)
	return nil
}

// seedBudget registers three members and a budget they all belong to.
func seedBudget(f *fakeStore) core.Budget {
	for _, m := range []core.Member{
		{ID: "u1", Name: "Anna", Email: "anna@example.com"},
		{ID: "u2", Name: "Bruno", Email: "bruno@example.com"},
		{ID: "u3", Name: "Carla", Email: "carla@example.com"},
	} {
		f.members[m.ID] = m
	}
	b := core.Budget{
		ID:        "b1",
		Name:      "Casa",
		Currency:  "EUR",
		OwnerID:   "u1",
		MemberIDs: []string{"u1", "u2", "u3"},
	}
	f.budgets[b.ID] = b
	return b
}
