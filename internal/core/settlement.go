package core

import (
	"sort"
	"strings"
)

// MemberBalance is the net position of one other member relative to the
// current user. Positive Amount means they owe the current user, negative
// means the current user owes them.
type MemberBalance struct {
	MemberID string
	Name     string
	Amount   Money
}

// SettlementSummary nets a balance list into the two headline figures.
type SettlementSummary struct {
	TotalReceivable Money
	TotalOwed       Money
}

// ComputeSettlement folds a budget's expense history into net pairwise
// balances between currentUserID and every other member.
//
// Only kind=expense records participate; income records and settlement
// payments are excluded here (settlements feed the running totals instead).
// Records with no payer or no share map are skipped rather than failing the
// whole computation. Share-map keys that are missing from members are still
// balanced; their Name is left empty for the caller to substitute a
// placeholder.
//
// The result is sorted by display name, case-insensitive, with the member id
// as tiebreak, so the fold order over expenses never shows through.
func ComputeSettlement(currentUserID string, expenses []Expense, members map[string]Member) []MemberBalance {
	ledger := make(map[string]int64)

	for _, e := range expenses {
		if e.Kind != KindExpense {
			continue
		}
		if e.CreatedBy == "" || e.Shares == nil {
			continue
		}
		if e.CreatedBy == currentUserID {
			for uid, share := range e.Shares {
				if uid == currentUserID {
					continue
				}
				ledger[uid] += share.Cents
			}
			continue
		}
		if share, ok := e.Shares[currentUserID]; ok && share.Cents > 0 {
			ledger[e.CreatedBy] -= share.Cents
		}
	}

	balances := make([]MemberBalance, 0, len(ledger))
	for uid, cents := range ledger {
		b := MemberBalance{MemberID: uid, Amount: Money{Cents: cents}}
		if m, ok := members[uid]; ok {
			b.Name = m.Name
		}
		balances = append(balances, b)
	}

	sort.Slice(balances, func(i, j int) bool {
		ni := strings.ToLower(balances[i].Name)
		nj := strings.ToLower(balances[j].Name)
		if ni != nj {
			return ni < nj
		}
		return balances[i].MemberID < balances[j].MemberID
	})

	return balances
}

// Summarize nets a balance list into what the current user receives in
// total and what they owe in total. Members with an exactly zero balance
// are settled and contribute to neither figure.
func Summarize(balances []MemberBalance) SettlementSummary {
	var s SettlementSummary
	for _, b := range balances {
		switch {
		case b.Amount.Cents > 0:
			s.TotalReceivable.Cents += b.Amount.Cents
		case b.Amount.Cents < 0:
			s.TotalOwed.Cents += -b.Amount.Cents
		}
	}
	return s
}
