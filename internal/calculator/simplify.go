package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

type position struct {
	id     string
	amount decimal.Decimal // always positive
}

// SimplifyDebts reduces a pairwise balance matrix to a settlement plan.
// Only net positions matter; who originally owed whom is discarded.
func SimplifyDebts(matrix map[string]map[string]decimal.Decimal) []Transfer {
	return SimplifyNetBalances(NetBalances(matrix))
}

// SimplifyNetBalances turns net positions into transfers that zero every balance.
//
// Algorithm (greedy, largest first):
//   - Split into debtors (net < 0) and creditors (net > 0), ignoring |net| <= Epsilon
//   - Sort both by amount descending, ties by participant id
//   - Match the largest debtor with the largest creditor for min(debt, credit)
//   - Move past whoever has at most Epsilon left
//
// The plan has at most n-1 transfers. It is not guaranteed to be the true
// minimum; that needs a subset-sum search.
func SimplifyNetBalances(net map[string]decimal.Decimal) []Transfer {
	var debtors, creditors []position
	for id, bal := range net {
		if bal.Abs().LessThanOrEqual(Epsilon) {
			continue
		}
		if bal.IsNegative() {
			debtors = append(debtors, position{id: id, amount: bal.Neg()})
		} else {
			creditors = append(creditors, position{id: id, amount: bal})
		}
	}
	sortPositions(debtors)
	sortPositions(creditors)

	var plan []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		amount := decimal.Min(d.amount, c.amount)
		plan = append(plan, Transfer{From: d.id, To: c.id, Amount: amount})

		d.amount = d.amount.Sub(amount)
		c.amount = c.amount.Sub(amount)

		if d.amount.LessThanOrEqual(Epsilon) {
			i++
		}
		if c.amount.LessThanOrEqual(Epsilon) {
			j++
		}
	}

	return plan
}

func sortPositions(ps []position) {
	sort.Slice(ps, func(a, b int) bool {
		if cmp := ps[a].amount.Cmp(ps[b].amount); cmp != 0 {
			return cmp > 0
		}
		return ps[a].id < ps[b].id
	})
}
