package http

import (
	"conti/internal/core"
	"conti/internal/services"
	"conti/internal/storage"
)

// Amounts travel as decimal strings ("33.34") plus exact cents so clients
// never re-round.

type moneyDTO struct {
	Amount string `json:"amount"`
	Cents  int64  `json:"cents"`
}

func toMoneyDTO(m core.Money) moneyDTO {
	return moneyDTO{Amount: m.String(), Cents: m.Cents}
}

type memberDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

func toMemberDTO(m core.Member) memberDTO {
	return memberDTO{ID: m.ID, Name: m.Name, Email: m.Email}
}

type budgetDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Currency  string   `json:"currency"`
	OwnerID   string   `json:"owner_id"`
	MemberIDs []string `json:"member_ids"`
}

func toBudgetDTO(b core.Budget) budgetDTO {
	return budgetDTO{ID: b.ID, Name: b.Name, Currency: b.Currency, OwnerID: b.OwnerID, MemberIDs: b.MemberIDs}
}

type budgetSnapshotDTO struct {
	budgetDTO
	Members []memberDTO `json:"members"`
}

func toBudgetSnapshotDTO(snap services.BudgetSnapshot) budgetSnapshotDTO {
	out := budgetSnapshotDTO{budgetDTO: toBudgetDTO(snap.Budget)}
	for _, id := range snap.Budget.MemberIDs {
		if m, ok := snap.Members[id]; ok {
			out.Members = append(out.Members, toMemberDTO(m))
		}
	}
	return out
}

type expenseDTO struct {
	ID          string              `json:"id"`
	BudgetID    string              `json:"budget_id"`
	Kind        string              `json:"kind"`
	Description string              `json:"description"`
	Amount      moneyDTO            `json:"amount"`
	Currency    string              `json:"currency"`
	Date        string              `json:"date"`
	CreatedBy   string              `json:"created_by"`
	PaidFor     []string            `json:"paid_for,omitempty"`
	Shares      map[string]moneyDTO `json:"shares,omitempty"`
}

func toExpenseDTO(e core.Expense) expenseDTO {
	dto := expenseDTO{
		ID:          e.ID,
		BudgetID:    e.BudgetID,
		Kind:        string(e.Kind),
		Description: e.Description,
		Amount:      toMoneyDTO(e.Amount),
		Currency:    e.Currency,
		Date:        e.Date.String(),
		CreatedBy:   e.CreatedBy,
		PaidFor:     e.PaidFor,
	}
	if e.Shares != nil {
		dto.Shares = make(map[string]moneyDTO, len(e.Shares))
		for id, share := range e.Shares {
			dto.Shares[id] = toMoneyDTO(share)
		}
	}
	return dto
}

func toSharesDTO(shares map[string]core.Money) map[string]moneyDTO {
	out := make(map[string]moneyDTO, len(shares))
	for id, share := range shares {
		out[id] = toMoneyDTO(share)
	}
	return out
}

type balanceDTO struct {
	MemberID    string    `json:"member_id"`
	Name        string    `json:"name"`
	Amount      moneyDTO  `json:"amount"`
	Converted   *moneyDTO `json:"converted,omitempty"`
	Unavailable bool      `json:"conversion_unavailable,omitempty"`
}

type settlementViewDTO struct {
	BudgetID        string       `json:"budget_id"`
	Currency        string       `json:"currency"`
	DisplayCurrency string       `json:"display_currency,omitempty"`
	Balances        []balanceDTO `json:"balances"`
	TotalReceivable moneyDTO     `json:"total_receivable"`
	TotalOwed       moneyDTO     `json:"total_owed"`
}

func toSettlementViewDTO(v services.SettlementView) settlementViewDTO {
	out := settlementViewDTO{
		BudgetID:        v.BudgetID,
		Currency:        v.Currency,
		DisplayCurrency: v.DisplayCurrency,
		Balances:        make([]balanceDTO, 0, len(v.Balances)),
		TotalReceivable: toMoneyDTO(v.TotalReceivable),
		TotalOwed:       toMoneyDTO(v.TotalOwed),
	}
	for _, b := range v.Balances {
		dto := balanceDTO{
			MemberID:    b.MemberID,
			Name:        b.Name,
			Amount:      toMoneyDTO(b.Amount),
			Unavailable: b.Unavailable,
		}
		if v.DisplayCurrency != "" && !b.Unavailable {
			converted := toMoneyDTO(b.Converted)
			dto.Converted = &converted
		}
		out.Balances = append(out.Balances, dto)
	}
	return out
}

type memberTotalDTO struct {
	MemberID   string   `json:"member_id"`
	Paid       moneyDTO `json:"paid"`
	Share      moneyDTO `json:"share"`
	SettledOut moneyDTO `json:"settled_out"`
	SettledIn  moneyDTO `json:"settled_in"`
}

func toMemberTotalDTO(t storage.MemberTotal) memberTotalDTO {
	return memberTotalDTO{
		MemberID:   t.MemberID,
		Paid:       toMoneyDTO(core.Money{Cents: t.PaidCents}),
		Share:      toMoneyDTO(core.Money{Cents: t.ShareCents}),
		SettledOut: toMoneyDTO(core.Money{Cents: t.SettledOutCents}),
		SettledIn:  toMoneyDTO(core.Money{Cents: t.SettledInCents}),
	}
}
