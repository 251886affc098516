package ledger

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	if !calculator.WithinEpsilon(d(want), got) {
		assert.Fail(t, fmt.Sprintf("amount mismatch: want %s, got %s", want, got), msgAndArgs...)
	}
}

func TestLedger_DinnerScenario(t *testing.T) {
	l := New("g1", "Trip", []string{"A", "B", "C"}, nil)

	shares, err := l.AddExpense(
		models.Expense{Description: "dinner", Amount: d("90"), PayerID: "A"},
		calculator.EqualPolicy{}, []string{"A", "B", "C"}, nil,
	)
	require.NoError(t, err)
	require.Len(t, shares, 3)

	net := l.NetBalances()
	assertAmount(t, "60", net["A"])
	assertAmount(t, "-30", net["B"])
	assertAmount(t, "-30", net["C"])

	// A is owed by B and C.
	assertAmount(t, "30", l.Balance("A", "B"))
	assertAmount(t, "-30", l.Balance("B", "A"))

	plan := calculator.SimplifyDebts(l.Balances())
	require.Len(t, plan, 2)
	assert.Equal(t, "B", plan[0].From)
	assert.Equal(t, "A", plan[0].To)
	assertAmount(t, "30", plan[0].Amount)
	assert.Equal(t, "C", plan[1].From)
	assert.Equal(t, "A", plan[1].To)
	assertAmount(t, "30", plan[1].Amount)
}

func TestLedger_SettleReducesDebt(t *testing.T) {
	l := New("g1", "Flat", []string{"A", "B"}, nil)
	_, err := l.AddExpense(models.Expense{Description: "rent", Amount: d("100"), PayerID: "A"},
		calculator.EqualPolicy{}, []string{"A", "B"}, nil)
	require.NoError(t, err)
	assertAmount(t, "50", l.Balance("A", "B"))

	require.NoError(t, l.Settle("B", "A", d("20")))
	assertAmount(t, "30", l.Balance("A", "B"))

	require.NoError(t, l.Settle("B", "A", d("30")))
	assert.Empty(t, l.Balances()["A"], "fully settled entries are removed")
	assert.Empty(t, l.Balances()["B"])

	assert.ErrorIs(t, l.Settle("B", "A", d("0")), ErrInvalidAmount)
	assert.ErrorIs(t, l.Settle("A", "A", d("5")), ErrInvalidAmount)
	assert.ErrorIs(t, l.Settle("B", "Z", d("5")), ErrNotMember)
}

func TestLedger_CreditNetsAgainstDebt(t *testing.T) {
	l := New("g1", "Flat", []string{"A", "B"}, nil)
	_, err := l.AddExpense(models.Expense{Amount: d("40"), PayerID: "A"}, calculator.EqualPolicy{}, []string{"A", "B"}, nil)
	require.NoError(t, err)
	_, err = l.AddExpense(models.Expense{Amount: d("40"), PayerID: "B"}, calculator.EqualPolicy{}, []string{"A", "B"}, nil)
	require.NoError(t, err)

	assert.Empty(t, l.Balances()["A"])
	assertAmount(t, "0", l.NetBalances()["A"])
}

func TestLedger_AddMemberIsIdempotent(t *testing.T) {
	feed := NewFeed()
	events, cancel := feed.Subscribe(10)
	defer cancel()

	l := New("g1", "Trip", nil, feed)
	assert.True(t, l.AddMember("A"))
	assert.False(t, l.AddMember("A"))
	assert.Equal(t, []string{"A"}, l.Members())

	require.Len(t, events, 1)
	e := <-events
	assert.Equal(t, EventMemberAdded, e.Kind)
	assert.Equal(t, "g1", e.GroupID)
	assert.Contains(t, e.Message, "Trip")
}

func TestLedger_RemoveMemberDropsBalances(t *testing.T) {
	l := New("g1", "Trip", []string{"A", "B", "C"}, nil)
	_, err := l.AddExpense(models.Expense{Amount: d("90"), PayerID: "A"}, calculator.EqualPolicy{}, []string{"A", "B", "C"}, nil)
	require.NoError(t, err)

	assert.True(t, l.RemoveMember("B"))
	assert.False(t, l.RemoveMember("B"))

	m := l.Balances()
	assert.NotContains(t, m, "B")
	assert.NotContains(t, m["A"], "B")
	assertAmount(t, "30", m["A"]["C"])
	require.NoError(t, l.Check())
}

func TestLedger_InvalidSplitLeavesMatrixUntouched(t *testing.T) {
	l := New("g1", "Trip", []string{"A", "B"}, nil)
	_, err := l.AddExpense(models.Expense{Amount: d("10"), PayerID: "A"}, calculator.EqualPolicy{}, []string{"A", "B"}, nil)
	require.NoError(t, err)
	before := l.Balances()

	_, err = l.AddExpense(models.Expense{Amount: d("100"), PayerID: "A"},
		calculator.ExactPolicy{}, []string{"A", "B"}, []decimal.Decimal{d("60"), d("39.99")})
	assert.ErrorIs(t, err, calculator.ErrInvalidSplit)

	_, err = l.AddExpense(models.Expense{Amount: d("100"), PayerID: "A"},
		calculator.EqualPolicy{}, []string{"A", "B", "stranger"}, nil)
	assert.ErrorIs(t, err, ErrNotMember)

	_, err = l.AddExpense(models.Expense{Amount: d("100"), PayerID: "stranger"},
		calculator.EqualPolicy{}, []string{"A", "B"}, nil)
	assert.ErrorIs(t, err, ErrNotMember)

	assert.Equal(t, len(before["A"]), len(l.Balances()["A"]))
	assertAmount(t, before["A"]["B"].String(), l.Balance("A", "B"))
}

func TestLedger_BetweenSubsetExcludingPayer(t *testing.T) {
	l := New("g1", "Trip", []string{"A", "B", "C", "D"}, nil)
	_, err := l.AddExpense(models.Expense{Amount: d("50"), PayerID: "A"}, calculator.BetweenPolicy{}, []string{"B", "C"}, nil)
	require.NoError(t, err)

	net := l.NetBalances()
	assertAmount(t, "50", net["A"])
	assertAmount(t, "-25", net["B"])
	assertAmount(t, "-25", net["C"])
	assertAmount(t, "0", net["D"])
}

func TestLedger_InvariantsHoldUnderRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ids := []string{"a", "b", "c", "d", "e"}
	l := New("g1", "Random", ids, nil)

	for i := 0; i < 500; i++ {
		payer := ids[rng.Intn(len(ids))]
		amount := decimal.New(int64(1+rng.Intn(100000)), -2)

		switch rng.Intn(3) {
		case 0:
			_, err := l.AddExpense(models.Expense{Amount: amount, PayerID: payer}, calculator.EqualPolicy{}, ids, nil)
			require.NoError(t, err)
		case 1:
			subset := ids[:1+rng.Intn(len(ids))]
			_, err := l.AddExpense(models.Expense{Amount: amount, PayerID: payer}, calculator.BetweenPolicy{}, subset, nil)
			require.NoError(t, err)
		case 2:
			to := ids[rng.Intn(len(ids))]
			if to == payer {
				continue
			}
			require.NoError(t, l.Settle(payer, to, amount))
		}

		require.NoError(t, l.Check(), "after operation %d", i)

		sum := decimal.Zero
		for _, v := range l.NetBalances() {
			sum = sum.Add(v)
		}
		require.True(t, calculator.IsNegligible(sum), "net balances sum to %s", sum)

		m := l.Balances()
		for a, row := range m {
			for b, v := range row {
				require.True(t, v.Equal(m[b][a].Neg()), "[%s][%s]=%s vs [%s][%s]=%s", a, b, v, b, a, m[b][a])
			}
		}
	}
}

func TestLedger_RebuildMatchesLiveAndReplay(t *testing.T) {
	ids := []string{"A", "B", "C"}
	live := New("g1", "Trip", ids, nil)

	var history []models.Expense
	record := func(payer string, amount string, policy calculator.Policy, participants []string, values []decimal.Decimal) {
		exp := models.Expense{GroupID: "g1", Amount: d(amount), PayerID: payer}
		shares, err := live.AddExpense(exp, policy, participants, values)
		require.NoError(t, err)
		for _, p := range participants {
			exp.Splits = append(exp.Splits, models.Split{ParticipantID: p, Amount: shares[p]})
		}
		history = append(history, exp)
	}

	record("A", "90", calculator.EqualPolicy{}, ids, nil)
	record("B", "100", calculator.PercentagePolicy{}, ids, []decimal.Decimal{d("20"), d("30"), d("50")})
	record("C", "45.50", calculator.ExactPolicy{}, ids, []decimal.Decimal{d("10"), d("30.50"), d("5")})
	record("A", "10", calculator.BetweenPolicy{}, []string{"B", "C"}, nil)

	settlements := []models.Settlement{{GroupID: "g1", FromID: "C", ToID: "A", Amount: d("12.25")}}
	require.NoError(t, live.Settle("C", "A", d("12.25")))

	rebuilt := New("g1", "Trip", ids, nil)
	require.NoError(t, rebuilt.Rebuild(history, settlements))

	replayed := calculator.ReplayNetBalances(history, settlements)
	liveNet := live.NetBalances()
	for id, v := range rebuilt.NetBalances() {
		assertAmount(t, liveNet[id].String(), v, "rebuilt vs live for %s", id)
		assertAmount(t, replayed[id].String(), v, "rebuilt vs replay for %s", id)
	}
}

func TestLedger_ConcurrentWritersAndReaders(t *testing.T) {
	ids := []string{"A", "B", "C", "D"}
	l := New("g1", "Busy", ids, nil)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				payer := ids[(w+i)%len(ids)]
				_, err := l.AddExpense(models.Expense{Amount: d("12"), PayerID: payer}, calculator.EqualPolicy{}, ids, nil)
				assert.NoError(t, err)
				_ = l.NetBalances()
			}
		}(w)
	}
	wg.Wait()

	require.NoError(t, l.Check())
	// Each payer paid 8*50/4 = 100 times 12, and owed a quarter of all 400 expenses.
	for _, id := range ids {
		assertAmount(t, "0", l.NetBalances()[id], "participant %s", id)
	}
}

func TestFeed_DropsWhenSubscriberIsFull(t *testing.T) {
	feed := NewFeed()
	events, cancel := feed.Subscribe(1)

	feed.Publish(Event{Message: "first", At: time.Now()})
	feed.Publish(Event{Message: "second", At: time.Now()})

	e := <-events
	assert.Equal(t, "first", e.Message)
	assert.Len(t, events, 0)

	cancel()
	cancel()
	_, ok := <-events
	assert.False(t, ok, "channel closed after cancel")

	feed.Close()
	late, _ := feed.Subscribe(1)
	_, ok = <-late
	assert.False(t, ok)
}
