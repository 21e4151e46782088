package worker

import (
	"testing"

	"conti/internal/core"
)

func expense(payer string, cents int64, shares map[string]int64) core.Expense {
	sm := make(map[string]core.Money, len(shares))
	order := make([]string, 0, len(shares))
	for id, c := range shares {
		sm[id] = core.Money{Cents: c}
		order = append(order, id)
	}
	return core.Expense{
		Kind:      core.KindExpense,
		Amount:    core.Money{Cents: cents},
		CreatedBy: payer,
		PaidFor:   order,
		Shares:    sm,
	}
}

func TestComputeMemberTotals(t *testing.T) {
	settle := core.Expense{
		Kind:      core.KindSettlement,
		Amount:    core.Money{Cents: 1500},
		CreatedBy: "u2",
		PaidFor:   []string{"u1"},
		Shares:    map[string]core.Money{"u1": {Cents: 1500}},
	}
	income := core.Expense{
		Kind:      core.KindIncome,
		Amount:    core.Money{Cents: 99999},
		CreatedBy: "u1",
	}
	expenses := []core.Expense{
		expense("u1", 9000, map[string]int64{"u1": 3000, "u2": 3000, "u3": 3000}),
		expense("u2", 3000, map[string]int64{"u1": 1500, "u2": 1500}),
		settle,
		income,
	}

	totals := ComputeMemberTotals("b1", expenses)
	if len(totals) != 3 {
		t.Fatalf("expected 3 members, got %d", len(totals))
	}

	byID := map[string]int{}
	for i, tt := range totals {
		byID[tt.MemberID] = i
		if tt.BudgetID != "b1" {
			t.Fatalf("unexpected budget id: %+v", tt)
		}
	}

	u1 := totals[byID["u1"]]
	if u1.PaidCents != 9000 || u1.ShareCents != 4500 {
		t.Fatalf("u1 totals: %+v", u1)
	}
	if u1.SettledInCents != 1500 || u1.SettledOutCents != 0 {
		t.Fatalf("u1 settlement totals: %+v", u1)
	}

	u2 := totals[byID["u2"]]
	if u2.PaidCents != 3000 || u2.ShareCents != 4500 {
		t.Fatalf("u2 totals: %+v", u2)
	}
	if u2.SettledOutCents != 1500 || u2.SettledInCents != 0 {
		t.Fatalf("u2 settlement totals: %+v", u2)
	}

	u3 := totals[byID["u3"]]
	if u3.PaidCents != 0 || u3.ShareCents != 3000 {
		t.Fatalf("u3 totals: %+v", u3)
	}
}

func TestComputeMemberTotalsIdempotent(t *testing.T) {
	expenses := []core.Expense{
		expense("u1", 5000, map[string]int64{"u1": 2500, "u2": 2500}),
	}
	first := ComputeMemberTotals("b1", expenses)
	second := ComputeMemberTotals("b1", expenses)
	if len(first) != len(second) {
		t.Fatal("recompute must be stable")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("recompute drifted: %+v vs %+v", first[i], second[i])
		}
	}
}

func TestComputeMemberTotalsSkipsMalformed(t *testing.T) {
	orphan := expense("", 5000, map[string]int64{"u1": 5000})
	totals := ComputeMemberTotals("b1", []core.Expense{orphan})
	if len(totals) != 0 {
		t.Fatalf("payerless records must be skipped: %+v", totals)
	}
}
