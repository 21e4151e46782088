package core

import (
	"errors"
	"testing"
)

func testSnapshot() RateSnapshot {
	return RateSnapshot{
		AsOf: "2026-01-15",
		Base: "EUR",
		Rates: map[string]float64{
			"EUR": 1.0,
			"USD": 1.1,
			"GBP": 0.9,
			"JPY": 162.5,
		},
	}
}

func TestConvertSameCodeIsIdentity(t *testing.T) {
	got, err := Convert(Money{Cents: 12345}, "USD", "USD", testSnapshot())
	if err != nil || got.Cents != 12345 {
		t.Fatalf("expected identity, got %v (err=%v)", got, err)
	}
}

func TestConvertViaBase(t *testing.T) {
	// 100.00 USD -> EUR -> GBP: 100 / 1.1 * 0.9 = 81.8181... -> 81.82
	got, err := Convert(Money{Cents: 10000}, "USD", "GBP", testSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cents != 8182 {
		t.Fatalf("expected 8182 cents, got %d", got.Cents)
	}
}

func TestConvertFromAndToBase(t *testing.T) {
	// base -> code uses the table directly
	got, err := Convert(Money{Cents: 10000}, "EUR", "USD", testSnapshot())
	if err != nil || got.Cents != 11000 {
		t.Fatalf("EUR->USD expected 11000, got %d (err=%v)", got.Cents, err)
	}
	// code -> base inverts it
	got, err = Convert(Money{Cents: 11000}, "USD", "EUR", testSnapshot())
	if err != nil || got.Cents != 10000 {
		t.Fatalf("USD->EUR expected 10000, got %d (err=%v)", got.Cents, err)
	}
}

func TestConvertMissingRate(t *testing.T) {
	if _, err := Convert(Money{Cents: 100}, "CHF", "EUR", testSnapshot()); !errors.Is(err, ErrRateUnavailable) {
		t.Fatalf("expected ErrRateUnavailable for missing source code, got %v", err)
	}
	if _, err := Convert(Money{Cents: 100}, "EUR", "CHF", testSnapshot()); !errors.Is(err, ErrRateUnavailable) {
		t.Fatalf("expected ErrRateUnavailable for missing target code, got %v", err)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	rs := testSnapshot()
	for _, cents := range []int64{1, 99, 12345, 1000000} {
		there, err := Convert(Money{Cents: cents}, "USD", "JPY", rs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		back, err := Convert(there, "JPY", "USD", rs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := back.Cents - cents; diff > 1 || diff < -1 {
			t.Fatalf("round trip of %d drifted to %d", cents, back.Cents)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(Money{Cents: 3334}, "EUR"); got != "EUR 33.34" {
		t.Fatalf("unexpected format: %q", got)
	}
	if got := FormatAmount(Money{Cents: -1250}, "USD"); got != "USD -12.50" {
		t.Fatalf("unexpected format: %q", got)
	}
}
