package core

import (
	"github.com/shopspring/decimal"
)

// RateSnapshot is a day-stamped exchange-rate table anchored to a base
// currency: Rates[code] is how much of code one unit of Base buys.
// Snapshots come from the external rate provider and are never mutated.
type RateSnapshot struct {
	AsOf  string // YYYY-MM-DD
	Base  string
	Rates map[string]float64
}

// ToBase converts an amount in the given currency to the snapshot's base
// currency without rounding. Returns ErrRateUnavailable when the snapshot
// has no rate for the code.
func ToBase(amount Money, fromCode string, rs RateSnapshot) (decimal.Decimal, error) {
	d := decimal.New(amount.Cents, -2)
	if fromCode == rs.Base {
		return d, nil
	}
	rate, ok := rs.Rates[fromCode]
	if !ok || rate == 0 {
		return decimal.Zero, ErrRateUnavailable
	}
	return d.Div(decimal.NewFromFloat(rate)), nil
}

// FromBase converts a base-currency amount to the given currency without
// rounding.
func FromBase(amountBase decimal.Decimal, toCode string, rs RateSnapshot) (decimal.Decimal, error) {
	if toCode == rs.Base {
		return amountBase, nil
	}
	rate, ok := rs.Rates[toCode]
	if !ok || rate == 0 {
		return decimal.Zero, ErrRateUnavailable
	}
	return amountBase.Mul(decimal.NewFromFloat(rate)), nil
}

// Convert converts an amount between two currencies via the snapshot's
// base, rounding to cents (half-up) only at the very end. A missing rate on
// either leg fails the whole conversion; the caller must render a
// placeholder rather than a zero or mislabeled amount.
func Convert(amount Money, fromCode, toCode string, rs RateSnapshot) (Money, error) {
	if fromCode == toCode {
		return amount, nil
	}
	base, err := ToBase(amount, fromCode, rs)
	if err != nil {
		return Money{}, err
	}
	out, err := FromBase(base, toCode, rs)
	if err != nil {
		return Money{}, err
	}
	// Round half away from zero on the second decimal, then shift to cents.
	return Money{Cents: out.Round(2).Shift(2).IntPart()}, nil
}
