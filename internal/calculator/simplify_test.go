package calculator

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// matrixFromDebts builds an anti-symmetric matrix where each entry
// [debtor, creditor, amount] means debtor owes creditor amount.
func matrixFromDebts(debts [][3]string) map[string]map[string]decimal.Decimal {
	m := make(map[string]map[string]decimal.Decimal)
	for _, debt := range debts {
		from, to, amount := debt[0], debt[1], d(debt[2])
		if m[from] == nil {
			m[from] = make(map[string]decimal.Decimal)
		}
		if m[to] == nil {
			m[to] = make(map[string]decimal.Decimal)
		}
		m[from][to] = m[from][to].Sub(amount)
		m[to][from] = m[to][from].Add(amount)
	}
	return m
}

// execute applies a plan to net balances and returns the result.
func execute(net map[string]decimal.Decimal, plan []Transfer) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(net))
	for id, v := range net {
		out[id] = v
	}
	for _, tr := range plan {
		out[tr.From] = out[tr.From].Add(tr.Amount)
		out[tr.To] = out[tr.To].Sub(tr.Amount)
	}
	return out
}

func TestSimplifyDebts(t *testing.T) {
	tests := []struct {
		name  string
		debts [][3]string
		want  []Transfer
	}{
		{
			name: "empty matrix",
			want: nil,
		},
		{
			name:  "dinner paid by A split three ways",
			debts: [][3]string{{"B", "A", "30"}, {"C", "A", "30"}},
			want: []Transfer{
				{From: "B", To: "A", Amount: d("30")},
				{From: "C", To: "A", Amount: d("30")},
			},
		},
		{
			name:  "cycle cancels out",
			debts: [][3]string{{"A", "B", "10"}, {"B", "C", "10"}, {"C", "A", "10"}},
			want:  nil,
		},
		{
			name:  "chain collapses to one transfer",
			debts: [][3]string{{"A", "B", "25"}, {"B", "C", "25"}},
			want:  []Transfer{{From: "A", To: "C", Amount: d("25")}},
		},
		{
			name:  "largest debtor pays largest creditor first",
			debts: [][3]string{{"A", "X", "50"}, {"B", "X", "20"}, {"B", "Y", "30"}},
			want: []Transfer{
				{From: "A", To: "X", Amount: d("50")},
				{From: "B", To: "X", Amount: d("20")},
				{From: "B", To: "Y", Amount: d("30")},
			},
		},
		{
			name:  "ties broken by participant id",
			debts: [][3]string{{"D", "B", "10"}, {"C", "A", "10"}},
			want: []Transfer{
				{From: "C", To: "A", Amount: d("10")},
				{From: "D", To: "B", Amount: d("10")},
			},
		},
		{
			name:  "sub-cent noise ignored",
			debts: [][3]string{{"A", "B", "0.004"}},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SimplifyDebts(matrixFromDebts(tt.debts))
			if len(got) != len(tt.want) {
				t.Fatalf("got %d transfers %v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i].From != tt.want[i].From || got[i].To != tt.want[i].To || !got[i].Amount.Equal(tt.want[i].Amount) {
					t.Errorf("transfer %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSimplifyNetBalancesZeroesEveryone(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ids := []string{"a", "b", "c", "d", "e", "f", "g"}

	for round := 0; round < 200; round++ {
		// Random expenses keep the vector summing to zero.
		var expenses []models.Expense
		n := 1 + rng.Intn(6)
		for k := 0; k < n; k++ {
			payer := ids[rng.Intn(len(ids))]
			participants := ids[:1+rng.Intn(len(ids))]
			amount := decimal.New(int64(1+rng.Intn(50000)), -2)
			shares, err := EqualPolicy{}.ComputeShares(amount, participants, nil)
			if err != nil {
				t.Fatalf("ComputeShares() error = %v", err)
			}
			exp := models.Expense{GroupID: "g", PayerID: payer, Amount: amount}
			for p, s := range shares {
				exp.Splits = append(exp.Splits, models.Split{ParticipantID: p, Amount: s})
			}
			expenses = append(expenses, exp)
		}
		net := ReplayNetBalances(expenses, nil)

		plan := SimplifyNetBalances(net)
		if len(net) > 0 && len(plan) > len(net)-1 {
			t.Fatalf("round %d: plan has %d transfers for %d participants", round, len(plan), len(net))
		}
		for _, tr := range plan {
			if !tr.Amount.GreaterThan(Epsilon) {
				t.Fatalf("round %d: transfer %+v is not positive", round, tr)
			}
		}
		for id, left := range execute(net, plan) {
			if left.Abs().GreaterThan(Epsilon.Mul(decimal.NewFromInt(2))) {
				t.Fatalf("round %d: %s left with %s after settling", round, id, left)
			}
		}
	}
}

func TestSimplifyNetBalancesDeterministic(t *testing.T) {
	net := map[string]decimal.Decimal{
		"p1": d("-10"), "p2": d("-10"), "p3": d("-10"),
		"p4": d("15"), "p5": d("15"),
	}

	first := SimplifyNetBalances(net)
	for i := 0; i < 50; i++ {
		again := SimplifyNetBalances(net)
		if !samePlan(first, again) {
			t.Fatalf("run %d: plan %v differs from %v", i, again, first)
		}
	}
}

func samePlan(a, b []Transfer) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].From != b[i].From || a[i].To != b[i].To || !a[i].Amount.Equal(b[i].Amount) {
			return false
		}
	}
	return true
}

func TestReplayNetBalances(t *testing.T) {
	expenses := []models.Expense{
		{
			ID: "e1", GroupID: "g", PayerID: "A", Amount: d("90"),
			Splits: []models.Split{
				{ParticipantID: "A", Amount: d("30")},
				{ParticipantID: "B", Amount: d("30")},
				{ParticipantID: "C", Amount: d("30")},
			},
		},
		{ID: "personal", PayerID: "B", Amount: d("500")},
	}
	settlements := []models.Settlement{{FromID: "B", ToID: "A", Amount: d("10")}}

	got := ReplayNetBalances(expenses, settlements)
	want := map[string]string{"A": "50", "B": "-20", "C": "-30"}
	for id, w := range want {
		if !got[id].Equal(d(w)) {
			t.Errorf("%s = %s, want %s", id, got[id], w)
		}
	}

	if div := Diverging(got, map[string]decimal.Decimal{"A": d("50"), "B": d("-20"), "C": d("-30.001")}); len(div) != 0 {
		t.Errorf("Diverging() = %v, want none", div)
	}
	if div := Diverging(got, map[string]decimal.Decimal{"A": d("50"), "B": d("-20")}); !reflect.DeepEqual(div, []string{"C"}) {
		t.Errorf("Diverging() = %v, want [C]", div)
	}
}
