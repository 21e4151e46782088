package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	KindExpense    ExpenseKind = "expense"
	KindIncome     ExpenseKind = "income"
	KindSettlement ExpenseKind = "settlement"
)

type (
	ExpenseKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Member is a snapshot of a user account fetched from the identity
	// collaborator. Immutable once loaded.
	Member struct {
		ID    string
		Name  string
		Email string
	}

	// Budget is a named shared wallet. MemberIDs always contains OwnerID.
	Budget struct {
		ID        string
		Name      string
		Currency  string // preferred display currency, ISO-4217 code
		OwnerID   string
		MemberIDs []string
	}

	// Expense is one monetary record in a budget. PaidFor preserves the
	// insertion order of the selected participants; Shares, when present,
	// maps each participant to their portion of Amount.
	Expense struct {
		ID          string
		BudgetID    string
		Kind        ExpenseKind
		Description string
		Amount      Money
		Currency    string
		Date        Date
		CreatedBy   string
		PaidFor     []string
		Shares      map[string]Money
	}
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrInvalidKind      = errors.New("invalid expense kind")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrNoParticipants   = errors.New("no participants selected")
	ErrUnknownEditor    = errors.New("edited member is not a participant")
	ErrShareTooLarge    = errors.New("share exceeds remaining total")
	ErrShareMismatch    = errors.New("shares do not sum to the expense amount")
	ErrMissingPayer     = errors.New("missing payer")
	ErrRateUnavailable  = errors.New("exchange rate unavailable")
)

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: zero date", ErrInvalidDate)
	}
	return nil
}

// ValidCurrencyCode reports whether s looks like an ISO-4217 code:
// exactly three uppercase ASCII letters.
func ValidCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

func (k ExpenseKind) Validate() error {
	switch k {
	case KindExpense, KindIncome, KindSettlement:
		return nil
	}
	return ErrInvalidKind
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("%w: empty member id", ErrInvalidInput)
	}
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if len(b.Name) > 100 {
		return fmt.Errorf("%w: name too long (max 100 characters)", ErrInvalidInput)
	}
	if !ValidCurrencyCode(b.Currency) {
		return ErrInvalidCurrency
	}
	if strings.TrimSpace(b.OwnerID) == "" {
		return fmt.Errorf("%w: empty owner id", ErrInvalidInput)
	}
	for _, id := range b.MemberIDs {
		if id == b.OwnerID {
			return nil
		}
	}
	return fmt.Errorf("%w: owner must be a member", ErrInvalidInput)
}

// HasMember reports whether id is in the budget's member list.
func (b Budget) HasMember(id string) bool {
	for _, m := range b.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

func (e Expense) Validate() error {
	if err := e.Kind.Validate(); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrInvalidInput)
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !ValidCurrencyCode(e.Currency) {
		return ErrInvalidCurrency
	}
	if strings.TrimSpace(e.CreatedBy) == "" {
		return ErrMissingPayer
	}
	if e.Shares != nil {
		if err := e.validateShares(); err != nil {
			return err
		}
	}
	return nil
}

// validateShares enforces the sum invariant: shares cover exactly the
// selected participants and sum to the amount within one cent.
func (e Expense) validateShares() error {
	if len(e.PaidFor) == 0 {
		return ErrNoParticipants
	}
	var sum int64
	for _, id := range e.PaidFor {
		share, ok := e.Shares[id]
		if !ok {
			return ErrShareMismatch
		}
		if share.Cents < 0 {
			return ErrInvalidAmount
		}
		sum += share.Cents
	}
	if len(e.Shares) != len(e.PaidFor) {
		return ErrShareMismatch
	}
	if diff := sum - e.Amount.Cents; diff > 1 || diff < -1 {
		return ErrShareMismatch
	}
	return nil
}
