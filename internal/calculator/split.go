// Package calculator holds the pure money math: split policies and debt
// simplification. Nothing here touches storage or a ledger.
package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// ErrInvalidSplit is returned when a policy's preconditions are violated.
var ErrInvalidSplit = errors.New("invalid split")

var (
	// Epsilon is the tolerance for money comparisons (one cent).
	Epsilon = decimal.New(1, -2)

	hundred = decimal.NewFromInt(100)
)

// Policy computes how much each participant owes of a total amount.
// values, when a policy uses them, are aligned index-by-index with participants.
type Policy interface {
	ComputeShares(total decimal.Decimal, participants []string, values []decimal.Decimal) (map[string]decimal.Decimal, error)
}

// PolicyFor returns the policy for a split type.
func PolicyFor(t models.SplitType) (Policy, error) {
	switch t {
	case models.SplitTypeEqual:
		return EqualPolicy{}, nil
	case models.SplitTypePercentage:
		return PercentagePolicy{}, nil
	case models.SplitTypeExact:
		return ExactPolicy{}, nil
	case models.SplitTypeBetween:
		return BetweenPolicy{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown split type %q", ErrInvalidSplit, t)
	}
}

// EqualPolicy divides the total evenly across all participants.
type EqualPolicy struct{}

// ComputeShares gives every participant total / len(participants). The last
// participant also carries the division remainder.
func (EqualPolicy) ComputeShares(total decimal.Decimal, participants []string, _ []decimal.Decimal) (map[string]decimal.Decimal, error) {
	if err := validateBase(total, participants); err != nil {
		return nil, err
	}

	share := total.Div(decimal.NewFromInt(int64(len(participants))))
	shares := make(map[string]decimal.Decimal, len(participants))
	for _, p := range participants {
		shares[p] = share
	}
	return shares, absorbRemainder(total, participants, shares)
}

// BetweenPolicy is an equal split over an explicit subset of a group.
// Choosing the subset is the caller's job; the math is EqualPolicy's.
type BetweenPolicy struct{}

// ComputeShares splits total evenly across the given subset.
func (BetweenPolicy) ComputeShares(total decimal.Decimal, participants []string, values []decimal.Decimal) (map[string]decimal.Decimal, error) {
	return EqualPolicy{}.ComputeShares(total, participants, values)
}

// PercentagePolicy assigns each participant a percentage of the total.
type PercentagePolicy struct{}

// ComputeShares gives each participant total * value / 100.
// The percentages must add up to 100 within Epsilon.
func (PercentagePolicy) ComputeShares(total decimal.Decimal, participants []string, values []decimal.Decimal) (map[string]decimal.Decimal, error) {
	if err := validateValues(total, participants, values); err != nil {
		return nil, err
	}

	sum := decimal.Sum(decimal.Zero, values...)
	if !WithinEpsilon(sum, hundred) {
		return nil, fmt.Errorf("%w: percentages sum to %s, want 100", ErrInvalidSplit, sum)
	}

	shares := make(map[string]decimal.Decimal, len(participants))
	for i, p := range participants {
		shares[p] = total.Mul(values[i]).Div(hundred)
	}
	return shares, absorbRemainder(total, participants, shares)
}

// ExactPolicy takes each participant's share as given.
type ExactPolicy struct{}

// ComputeShares returns the values once they are known to add up to the total
// within Epsilon. The tolerated difference goes to the largest share.
func (ExactPolicy) ComputeShares(total decimal.Decimal, participants []string, values []decimal.Decimal) (map[string]decimal.Decimal, error) {
	if err := validateValues(total, participants, values); err != nil {
		return nil, err
	}

	sum := decimal.Sum(decimal.Zero, values...)
	if !WithinEpsilon(sum, total) {
		return nil, fmt.Errorf("%w: exact amounts sum to %s, want %s", ErrInvalidSplit, sum, total)
	}

	shares := make(map[string]decimal.Decimal, len(participants))
	for i, p := range participants {
		shares[p] = values[i]
	}
	return shares, absorbRemainder(total, participants, shares)
}

// absorbRemainder adjusts shares so they add up to exactly total. The
// difference goes to the largest share, the later participant on ties, so
// rounding noise never turns into money nobody owes.
func absorbRemainder(total decimal.Decimal, participants []string, shares map[string]decimal.Decimal) error {
	sum := decimal.Zero
	for _, p := range participants {
		sum = sum.Add(shares[p])
	}
	rem := total.Sub(sum)
	if rem.IsZero() {
		return nil
	}

	target := participants[0]
	for _, p := range participants[1:] {
		if shares[p].GreaterThanOrEqual(shares[target]) {
			target = p
		}
	}
	adjusted := shares[target].Add(rem)
	if adjusted.IsNegative() {
		return fmt.Errorf("%w: shares sum to %s, cannot balance against %s", ErrInvalidSplit, sum, total)
	}
	shares[target] = adjusted
	return nil
}

// WithinEpsilon reports whether a and b differ by less than Epsilon.
func WithinEpsilon(a, b decimal.Decimal) bool {
	return IsNegligible(a.Sub(b))
}

// IsNegligible reports whether v is closer to zero than Epsilon.
func IsNegligible(v decimal.Decimal) bool {
	return v.Abs().LessThan(Epsilon)
}

func validateBase(total decimal.Decimal, participants []string) error {
	if !total.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidSplit, total)
	}
	if len(participants) == 0 {
		return fmt.Errorf("%w: must have at least one participant", ErrInvalidSplit)
	}

	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if p == "" {
			return fmt.Errorf("%w: empty participant id", ErrInvalidSplit)
		}
		if seen[p] {
			return fmt.Errorf("%w: participant %s listed twice", ErrInvalidSplit, p)
		}
		seen[p] = true
	}
	return nil
}

func validateValues(total decimal.Decimal, participants []string, values []decimal.Decimal) error {
	if err := validateBase(total, participants); err != nil {
		return err
	}
	if len(values) != len(participants) {
		return fmt.Errorf("%w: got %d values for %d participants", ErrInvalidSplit, len(values), len(participants))
	}
	for i, v := range values {
		if v.IsNegative() {
			return fmt.Errorf("%w: negative value %s for %s", ErrInvalidSplit, v, participants[i])
		}
	}
	return nil
}
