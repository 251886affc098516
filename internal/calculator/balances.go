package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// Transfer is one settlement instruction: From pays To the Amount.
type Transfer struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// NetBalances sums each row of a pairwise balance matrix.
// Positive = owed money overall, negative = owes money overall.
func NetBalances(matrix map[string]map[string]decimal.Decimal) map[string]decimal.Decimal {
	net := make(map[string]decimal.Decimal, len(matrix))
	for id, row := range matrix {
		sum := decimal.Zero
		for _, v := range row {
			sum = sum.Add(v)
		}
		net[id] = sum
	}
	return net
}

// ReplayNetBalances computes net positions from persisted history alone.
//
// Algorithm:
//   - For each group expense: payer gets +amount, each split's participant gets -share
//   - For each settlement: payer (From) gets +amount, receiver (To) gets -amount
//
// Personal expenses are ignored. The result includes every participant that
// appears in the history, members or not.
func ReplayNetBalances(expenses []models.Expense, settlements []models.Settlement) map[string]decimal.Decimal {
	net := make(map[string]decimal.Decimal)

	for _, exp := range expenses {
		if exp.IsPersonal() {
			continue
		}
		net[exp.PayerID] = net[exp.PayerID].Add(exp.Amount)
		for _, s := range exp.Splits {
			net[s.ParticipantID] = net[s.ParticipantID].Sub(s.Amount)
		}
	}

	for _, s := range settlements {
		net[s.FromID] = net[s.FromID].Add(s.Amount)
		net[s.ToID] = net[s.ToID].Sub(s.Amount)
	}

	return net
}

// Diverging returns the ids whose balances differ by more than Epsilon between
// a and b. An id missing on one side counts as zero there.
func Diverging(a, b map[string]decimal.Decimal) []string {
	ids := make(map[string]struct{}, len(a)+len(b))
	for id := range a {
		ids[id] = struct{}{}
	}
	for id := range b {
		ids[id] = struct{}{}
	}

	var out []string
	for id := range ids {
		if !WithinEpsilon(a[id], b[id]) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
