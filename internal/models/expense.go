package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SplitType selects how an expense is divided among participants.
type SplitType string

const (
	SplitTypeEqual      SplitType = "EQUAL"
	SplitTypePercentage SplitType = "PERCENTAGE"
	SplitTypeExact      SplitType = "EXACT"
	SplitTypeBetween    SplitType = "BETWEEN"
)

// SplitTypes lists every supported split type.
var SplitTypes = []SplitType{SplitTypeEqual, SplitTypePercentage, SplitTypeExact, SplitTypeBetween}

// ParseSplitType converts a string (case-insensitive) into a SplitType.
// An empty string means EQUAL.
func ParseSplitType(s string) (SplitType, error) {
	if s == "" {
		return SplitTypeEqual, nil
	}
	t := SplitType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range SplitTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown split type %q", s)
}

// Expense represents an amount paid by one participant.
//
// Group expenses carry one Split per participant the cost was divided over.
// Personal expenses (GroupID empty) have no splits and never reach a ledger.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Description is what the money was spent on (e.g., "Dinner", "Groceries").
	Description string

	// Amount is the total paid, always positive.
	Amount decimal.Decimal

	// PayerID is the participant who paid.
	PayerID string

	// GroupID is the owning group, empty for personal expenses.
	GroupID string

	// SplitType is the policy used to compute Splits.
	SplitType SplitType

	// Splits are the computed per-participant shares.
	// The payer's own share may be present; it never creates a debt.
	Splits []Split

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// IsPersonal reports whether the expense lives outside any group ledger.
func (e *Expense) IsPersonal() bool {
	return e.GroupID == ""
}

// Split is one participant's owed share of one expense.
type Split struct {
	ExpenseID     string
	ParticipantID string
	Amount        decimal.Decimal
}
