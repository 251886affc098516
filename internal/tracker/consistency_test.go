package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/cache"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// gate holds one store call until the test opens it.
type gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gate) open() {
	g.once.Do(func() { close(g.release) })
}

// gatedStore pauses selected store calls so a test can interleave other
// tracker operations with them. Writes pause before reaching the store,
// ListExpensesByGroup pauses after reading it.
type gatedStore struct {
	storage.Store

	mu    sync.Mutex
	gates map[string]*gate
}

// arm pauses the next call to op.
func (s *gatedStore) arm(t *testing.T, op string) *gate {
	t.Helper()
	g := &gate{entered: make(chan struct{}), release: make(chan struct{})}
	t.Cleanup(g.open)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gates == nil {
		s.gates = make(map[string]*gate)
	}
	s.gates[op] = g
	return g
}

func (s *gatedStore) pause(op string) {
	s.mu.Lock()
	g := s.gates[op]
	delete(s.gates, op)
	s.mu.Unlock()

	if g == nil {
		return
	}
	close(g.entered)
	<-g.release
}

func (s *gatedStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	s.pause("CreateExpense")
	return s.Store.CreateExpense(ctx, e)
}

func (s *gatedStore) CreateSettlement(ctx context.Context, st *models.Settlement) error {
	s.pause("CreateSettlement")
	return s.Store.CreateSettlement(ctx, st)
}

func (s *gatedStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	out, err := s.Store.ListExpensesByGroup(ctx, groupID)
	s.pause("ListExpensesByGroup")
	return out, err
}

// newGatedFixture is newFixture with the tracker built over a gatedStore.
func newGatedFixture(t *testing.T, opts ...Option) (*fixture, *gatedStore) {
	t.Helper()
	f := newFixture(t)
	gs := &gatedStore{Store: f.store}
	opts = append([]Option{WithLogger(quietLogger), WithMetrics(f.metrics)}, opts...)
	f.tracker = New(gs, opts...)
	return f, gs
}

func waitEntered(t *testing.T, g *gate) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("store call never reached the gate")
	}
}

func TestTracker_WriteRacingEvictionReachesLedger(t *testing.T) {
	tests := []struct {
		name  string
		op    string
		write func(f *fixture, gid, a, b string) error
		want  map[int]string
	}{
		{
			name: "expense",
			op:   "CreateExpense",
			write: func(f *fixture, gid, a, b string) error {
				_, err := f.tracker.RecordExpense(context.Background(), ExpenseInput{Description: "Groceries", Amount: d("100"), PayerID: a, GroupID: gid})
				return err
			},
			want: map[int]string{0: "50", 1: "-50"},
		},
		{
			name: "settlement",
			op:   "CreateSettlement",
			write: func(f *fixture, gid, a, b string) error {
				_, err := f.tracker.Settle(context.Background(), gid, b, a, d("20"), "")
				return err
			},
			want: map[int]string{0: "-20", 1: "20"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, gs := newGatedFixture(t)
			ctx := context.Background()
			ids := f.people(t, "alice", "bob")
			a, b := ids[0], ids[1]
			gid := f.group(t, "Flat", ids)

			first, err := f.tracker.RecordExpense(ctx, ExpenseInput{Description: "Rent", Amount: d("100"), PayerID: a, GroupID: gid})
			require.NoError(t, err)

			g := gs.arm(t, tt.op)
			done := make(chan error, 1)
			go func() { done <- tt.write(f, gid, a, b) }()
			waitEntered(t, g)

			// Evict while the write is between ledger and store, then let a
			// read install a replacement ledger that cannot contain it.
			require.NoError(t, f.tracker.DeleteExpense(ctx, first.ID))
			net, err := f.tracker.NetBalances(ctx, gid)
			require.NoError(t, err)
			assertAmount(t, "0", net[a])

			g.open()
			require.NoError(t, <-done)

			net, err = f.tracker.NetBalances(ctx, gid)
			require.NoError(t, err)
			for i, want := range tt.want {
				assertAmount(t, want, net[ids[i]], "participant %d", i)
			}

			report, err := f.tracker.Reconcile(ctx, gid)
			require.NoError(t, err)
			assert.True(t, report.Consistent(), "diverging: %v", report.Diverging)
			assert.False(t, report.Rebuilt)
		})
	}
}

func TestTracker_StaleRecomputeIsNotCached(t *testing.T) {
	mc := cache.NewMemoryCache()
	f, gs := newGatedFixture(t, WithCache(mc))
	ctx := context.Background()
	ids := f.people(t, "alice", "bob")
	a, b := ids[0], ids[1]
	gid := f.group(t, "Flat", ids)

	// Warm the ledger so the write below does not read expenses itself.
	_, err := f.tracker.NetBalances(ctx, gid)
	require.NoError(t, err)

	g := gs.arm(t, "ListExpensesByGroup")
	type result struct {
		net map[string]decimal.Decimal
		err error
	}
	done := make(chan result, 1)
	go func() {
		net, err := f.tracker.RecomputeNetBalances(ctx, gid)
		done <- result{net, err}
	}()
	waitEntered(t, g)

	_, err = f.tracker.RecordExpense(ctx, ExpenseInput{Description: "Power", Amount: d("100"), PayerID: a, GroupID: gid})
	require.NoError(t, err)

	g.open()
	stale := <-done
	require.NoError(t, stale.err)
	assertAmount(t, "0", stale.net[a], "read before the expense was stored")

	_, ok, err := mc.Get(ctx, gid)
	require.NoError(t, err)
	assert.False(t, ok, "a result computed before the write must not be cached")

	net, err := f.tracker.RecomputeNetBalances(ctx, gid)
	require.NoError(t, err)
	assertAmount(t, "50", net[a])
	assertAmount(t, "-50", net[b])
}

func TestTracker_InvalidateDuringCacheWriteWins(t *testing.T) {
	mc := cache.NewMemoryCache()
	f := newFixture(t, WithCache(mc))
	ctx := context.Background()
	ids := f.people(t, "alice", "bob")
	gid := f.group(t, "Flat", ids)

	gen := f.tracker.generationOf(gid)
	f.tracker.invalidate(ctx, gid)
	f.tracker.cacheIfCurrent(ctx, gid, gen, map[string]decimal.Decimal{ids[0]: d("1")})

	_, ok, err := mc.Get(ctx, gid)
	require.NoError(t, err)
	assert.False(t, ok)

	gen = f.tracker.generationOf(gid)
	f.tracker.cacheIfCurrent(ctx, gid, gen, map[string]decimal.Decimal{ids[0]: d("1")})
	cached, ok, err := mc.Get(ctx, gid)
	require.NoError(t, err)
	require.True(t, ok)
	assertAmount(t, "1", cached[ids[0]])
}

func TestTracker_ToleratedExactSplitsStayConsistent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := f.people(t, "alice", "bob")
	a, b := ids[0], ids[1]
	gid := f.group(t, "Flat", ids)

	for i := 0; i < 3; i++ {
		exp, err := f.tracker.RecordExpense(ctx, ExpenseInput{
			Description:  "Bills",
			Amount:       d("100"),
			PayerID:      a,
			GroupID:      gid,
			SplitType:    models.SplitTypeExact,
			Participants: []string{a, b},
			Values:       []decimal.Decimal{d("60"), d("39.995")},
		})
		require.NoError(t, err)

		sum := decimal.Zero
		for _, s := range exp.Splits {
			sum = sum.Add(s.Amount)
		}
		assert.True(t, sum.Equal(exp.Amount), "splits sum to %s, want %s", sum, exp.Amount)
	}

	recomputed, err := f.tracker.RecomputeNetBalances(ctx, gid)
	require.NoError(t, err)
	assert.True(t, recomputed[a].Add(recomputed[b]).IsZero(), "nets must cancel exactly: %v", recomputed)
	assertAmount(t, "119.985", recomputed[a])

	for i := 0; i < 2; i++ {
		report, err := f.tracker.Reconcile(ctx, gid)
		require.NoError(t, err)
		assert.True(t, report.Consistent(), "round %d diverging: %v", i, report.Diverging)
		assert.False(t, report.Rebuilt)
	}
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.Divergences))
}

func TestTracker_RejoiningMemberGetsHistoryBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := f.people(t, "alice", "bob", "carol", "dave")
	a, b, c, dv := ids[0], ids[1], ids[2], ids[3]
	gid := f.group(t, "Trip", ids[:3])

	_, err := f.tracker.RecordExpense(ctx, ExpenseInput{Description: "Fuel", Amount: d("30"), PayerID: c, GroupID: gid})
	require.NoError(t, err)

	require.NoError(t, f.tracker.RemoveMember(ctx, gid, c))
	net, err := f.tracker.NetBalances(ctx, gid)
	require.NoError(t, err)
	assert.NotContains(t, net, c)

	require.NoError(t, f.tracker.AddMember(ctx, gid, c))
	net, err = f.tracker.NetBalances(ctx, gid)
	require.NoError(t, err)
	assertAmount(t, "20", net[c])
	assertAmount(t, "-10", net[a])
	assertAmount(t, "-10", net[b])

	report, err := f.tracker.Reconcile(ctx, gid)
	require.NoError(t, err)
	assert.True(t, report.Consistent(), "diverging: %v", report.Diverging)
	assert.False(t, report.Rebuilt)

	// A newcomer has no history, so the warm ledger is kept.
	warmups := testutil.ToFloat64(f.metrics.LedgerRebuilds.WithLabelValues(metrics.ReasonWarmup))
	require.NoError(t, f.tracker.AddMember(ctx, gid, dv))
	net, err = f.tracker.NetBalances(ctx, gid)
	require.NoError(t, err)
	assertAmount(t, "0", net[dv])
	assert.Equal(t, warmups, testutil.ToFloat64(f.metrics.LedgerRebuilds.WithLabelValues(metrics.ReasonWarmup)))
}

func TestTracker_ParticipantBalances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := f.people(t, "alice", "bob", "carol")
	a, b, c := ids[0], ids[1], ids[2]
	trip := f.group(t, "Trip", ids)
	flat := f.group(t, "Flat", []string{a, b})

	_, err := f.tracker.RecordExpense(ctx, ExpenseInput{Description: "Hotel", Amount: d("90"), PayerID: a, GroupID: trip})
	require.NoError(t, err)
	_, err = f.tracker.RecordExpense(ctx, ExpenseInput{Description: "Internet", Amount: d("40"), PayerID: b, GroupID: flat})
	require.NoError(t, err)
	_, err = f.tracker.Settle(ctx, trip, c, a, d("30"), "")
	require.NoError(t, err)

	pb, err := f.tracker.ParticipantBalances(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, a, pb.ParticipantID)
	require.Len(t, pb.Groups, 2)
	assertAmount(t, "10", pb.Net)
	assertAmount(t, "50", pb.Shares)

	byGroup := make(map[string]GroupPosition)
	for _, g := range pb.Groups {
		byGroup[g.GroupID] = g
	}
	assert.Equal(t, "Trip", byGroup[trip].GroupName)
	assertAmount(t, "30", byGroup[trip].Net)
	assertAmount(t, "30", byGroup[trip].Counterparties[b])
	assert.NotContains(t, byGroup[trip].Counterparties, c, "carol settled up")
	assertAmount(t, "-20", byGroup[flat].Net)
	assertAmount(t, "-20", byGroup[flat].Counterparties[b])

	pb, err = f.tracker.ParticipantBalances(ctx, c)
	require.NoError(t, err)
	require.Len(t, pb.Groups, 1)
	assertAmount(t, "0", pb.Net)

	_, err = f.tracker.ParticipantBalances(ctx, "missing")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestTracker_DeleteSettlement(t *testing.T) {
	mc := cache.NewMemoryCache()
	f := newFixture(t, WithCache(mc))
	ctx := context.Background()
	ids := f.people(t, "alice", "bob")
	a, b := ids[0], ids[1]
	gid := f.group(t, "Flat", ids)

	_, err := f.tracker.RecordExpense(ctx, ExpenseInput{Description: "Rent", Amount: d("100"), PayerID: a, GroupID: gid})
	require.NoError(t, err)
	s, err := f.tracker.Settle(ctx, gid, b, a, d("50"), "rent")
	require.NoError(t, err)

	got, err := f.tracker.GetSettlement(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "rent", got.Note)

	// Populate the cache so the delete has something to invalidate.
	cached, err := f.tracker.RecomputeNetBalances(ctx, gid)
	require.NoError(t, err)
	assertAmount(t, "0", cached[a])

	require.NoError(t, f.tracker.DeleteSettlement(ctx, s.ID))
	_, err = f.tracker.GetSettlement(ctx, s.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	assert.True(t, errors.Is(f.tracker.DeleteSettlement(ctx, s.ID), storage.ErrNotFound))

	net, err := f.tracker.NetBalances(ctx, gid)
	require.NoError(t, err)
	assertAmount(t, "50", net[a])
	assertAmount(t, "-50", net[b])

	recomputed, err := f.tracker.RecomputeNetBalances(ctx, gid)
	require.NoError(t, err)
	assert.Empty(t, calculator.Diverging(net, recomputed))
}

func TestTracker_FindParticipantByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := f.people(t, "alice")

	p, err := f.tracker.FindParticipantByEmail(ctx, "  alice@example.com ")
	require.NoError(t, err)
	assert.Equal(t, ids[0], p.ID)

	_, err = f.tracker.FindParticipantByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	_, err = f.tracker.FindParticipantByEmail(ctx, " ")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestTracker_ConcurrentDeletesAndWritesStayConsistent(t *testing.T) {
	mc := cache.NewMemoryCache()
	f := newFixture(t, WithCache(mc))
	ctx := context.Background()
	ids := f.people(t, "alice", "bob", "carol")
	gid := f.group(t, "Trip", ids)

	recorded := make(chan string, 64)
	var writers sync.WaitGroup
	for w := 0; w < 4; w++ {
		writers.Add(1)
		go func(w int) {
			defer writers.Done()
			for i := 0; i < 8; i++ {
				exp, err := f.tracker.RecordExpense(ctx, ExpenseInput{
					Description: "Round",
					Amount:      decimal.NewFromInt(int64(10 + i)),
					PayerID:     ids[(w+i)%3],
					GroupID:     gid,
				})
				if assert.NoError(t, err) {
					recorded <- exp.ID
				}
				if i%2 == 0 {
					_, err := f.tracker.Settle(ctx, gid, ids[(w+1)%3], ids[w%3], d("1"), "")
					assert.NoError(t, err)
				}
			}
		}(w)
	}

	stop := make(chan struct{})
	var others sync.WaitGroup
	others.Add(2)
	go func() {
		defer others.Done()
		n := 0
		for id := range recorded {
			if n%3 == 0 {
				assert.NoError(t, f.tracker.DeleteExpense(ctx, id))
			}
			n++
		}
	}()
	go func() {
		defer others.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			_, err := f.tracker.NetBalances(ctx, gid)
			assert.NoError(t, err)
			_, err = f.tracker.RecomputeNetBalances(ctx, gid)
			assert.NoError(t, err)
		}
	}()

	writers.Wait()
	close(recorded)
	close(stop)
	others.Wait()

	report, err := f.tracker.Reconcile(ctx, gid)
	require.NoError(t, err)
	assert.True(t, report.Consistent(), "diverging: %v", report.Diverging)
	assert.False(t, report.Rebuilt)

	live, err := f.tracker.NetBalances(ctx, gid)
	require.NoError(t, err)
	cached, err := f.tracker.RecomputeNetBalances(ctx, gid)
	require.NoError(t, err)
	assert.Empty(t, calculator.Diverging(live, cached), "cache must not hold a stale result")
}
