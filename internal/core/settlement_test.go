package core

import (
	"reflect"
	"testing"
)

func testMembers() map[string]Member {
	return map[string]Member{
		"u1": {ID: "u1", Name: "Anna", Email: "anna@example.com"},
		"u2": {ID: "u2", Name: "bruno", Email: "bruno@example.com"},
		"u3": {ID: "u3", Name: "Carla", Email: "carla@example.com"},
	}
}

func expenseOf(payer string, cents int64, shares map[string]int64) Expense {
	sm := make(map[string]Money, len(shares))
	order := make([]string, 0, len(shares))
	for id, c := range shares {
		sm[id] = Money{Cents: c}
		order = append(order, id)
	}
	return Expense{
		ID:          "e-" + payer,
		Kind:        KindExpense,
		Description: "test",
		Amount:      Money{Cents: cents},
		Currency:    "EUR",
		Date:        NewDate(2026, 1, 15),
		CreatedBy:   payer,
		PaidFor:     order,
		Shares:      sm,
	}
}

func TestComputeSettlementPayerReceives(t *testing.T) {
	expenses := []Expense{
		expenseOf("u1", 9000, map[string]int64{"u1": 3000, "u2": 3000, "u3": 3000}),
	}
	balances := ComputeSettlement("u1", expenses, testMembers())
	if len(balances) != 2 {
		t.Fatalf("expected 2 balances, got %d", len(balances))
	}
	// sorted case-insensitively by display name: bruno before Carla
	if balances[0].MemberID != "u2" || balances[0].Amount.Cents != 3000 {
		t.Fatalf("unexpected first balance: %+v", balances[0])
	}
	if balances[1].MemberID != "u3" || balances[1].Amount.Cents != 3000 {
		t.Fatalf("unexpected second balance: %+v", balances[1])
	}

	s := Summarize(balances)
	if s.TotalReceivable.Cents != 6000 || s.TotalOwed.Cents != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestComputeSettlementTwoMemberHalves(t *testing.T) {
	amounts := []int64{1000, 2450, 7600, 50}
	var expenses []Expense
	var wantHalf int64
	for _, a := range amounts {
		shares, _ := EqualSplit(Money{Cents: a}, []string{"u1", "u2"})
		e := expenseOf("u1", a, nil)
		e.Shares = shares
		e.PaidFor = []string{"u1", "u2"}
		expenses = append(expenses, e)
		wantHalf += a / 2
	}
	balances := ComputeSettlement("u1", expenses, testMembers())
	if len(balances) != 1 || balances[0].MemberID != "u2" {
		t.Fatalf("unexpected balances: %+v", balances)
	}
	if balances[0].Amount.Cents != wantHalf {
		t.Fatalf("u2 owes %d, want %d", balances[0].Amount.Cents, wantHalf)
	}

	// from u2's point of view the same history nets to the negative
	other := ComputeSettlement("u2", expenses, testMembers())
	if len(other) != 1 || other[0].Amount.Cents != -wantHalf {
		t.Fatalf("unexpected mirror balances: %+v", other)
	}
	s := Summarize(other)
	if s.TotalOwed.Cents != wantHalf || s.TotalReceivable.Cents != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestComputeSettlementExcludesNonExpenseKinds(t *testing.T) {
	income := expenseOf("u2", 5000, map[string]int64{"u1": 5000})
	income.Kind = KindIncome
	payment := expenseOf("u2", 3000, map[string]int64{"u1": 3000})
	payment.Kind = KindSettlement

	balances := ComputeSettlement("u1", []Expense{income, payment}, testMembers())
	if len(balances) != 0 {
		t.Fatalf("income and settlement records must not move the ledger: %+v", balances)
	}
}

func TestComputeSettlementSkipsMalformedRecords(t *testing.T) {
	noShares := expenseOf("u2", 5000, nil)
	noShares.Shares = nil
	noPayer := expenseOf("", 5000, map[string]int64{"u1": 5000})
	ok := expenseOf("u2", 4000, map[string]int64{"u1": 2000, "u2": 2000})

	balances := ComputeSettlement("u1", []Expense{noShares, noPayer, ok}, testMembers())
	if len(balances) != 1 || balances[0].MemberID != "u2" || balances[0].Amount.Cents != -2000 {
		t.Fatalf("malformed records must be skipped, not fatal: %+v", balances)
	}
}

func TestComputeSettlementUnknownMemberTolerated(t *testing.T) {
	e := expenseOf("u1", 2000, map[string]int64{"u1": 1000, "ghost": 1000})
	balances := ComputeSettlement("u1", []Expense{e}, testMembers())
	if len(balances) != 1 || balances[0].MemberID != "ghost" {
		t.Fatalf("unknown member must still be balanced: %+v", balances)
	}
	if balances[0].Name != "" {
		t.Fatalf("unknown member must have no resolved name, got %q", balances[0].Name)
	}
	if balances[0].Amount.Cents != 1000 {
		t.Fatalf("unexpected amount: %+v", balances[0])
	}
}

func TestComputeSettlementIdempotent(t *testing.T) {
	expenses := []Expense{
		expenseOf("u1", 9000, map[string]int64{"u1": 3000, "u2": 3000, "u3": 3000}),
		expenseOf("u3", 6000, map[string]int64{"u1": 2000, "u2": 2000, "u3": 2000}),
	}
	first := ComputeSettlement("u1", expenses, testMembers())
	second := ComputeSettlement("u1", expenses, testMembers())
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("settlement is not idempotent: %+v vs %+v", first, second)
	}
	// u3 paid 6000 split three ways: u1 owes u3 2000, u3 owes u1 3000 -> net +1000
	for _, b := range first {
		if b.MemberID == "u3" && b.Amount.Cents != 1000 {
			t.Fatalf("u3 net expected 1000, got %d", b.Amount.Cents)
		}
	}
}

func TestSummarizeSettledMembersCountForNeither(t *testing.T) {
	balances := []MemberBalance{
		{MemberID: "u2", Amount: Money{Cents: 0}},
		{MemberID: "u3", Amount: Money{Cents: 1500}},
		{MemberID: "u4", Amount: Money{Cents: -700}},
	}
	s := Summarize(balances)
	if s.TotalReceivable.Cents != 1500 || s.TotalOwed.Cents != 700 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}
