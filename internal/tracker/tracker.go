// Package tracker coordinates persisted history with the live group ledgers.
//
// Every write goes to the ledger first and then to the store. Ledgers are
// loaded lazily from the store the first time a group is touched and are
// dropped again whenever persisted history changes underneath them.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mmynk/splitledger/internal/cache"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var (
	// ErrInvalidInput is returned for malformed requests that are not split
	// problems: blank names, non-positive amounts, missing ids.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateGroupName is returned when another group already uses the
	// name, compared case-insensitively.
	ErrDuplicateGroupName = errors.New("group name already taken")
)

const defaultReconcileConcurrency = 4

// Tracker is safe for concurrent use.
type Tracker struct {
	store   storage.Store
	logger  *slog.Logger
	cache   cache.BalanceCache
	metrics *metrics.Metrics
	feed    *ledger.Feed
	now     func() time.Time

	reconcileConcurrency int

	mu      sync.Mutex
	ledgers map[string]*ledger.Ledger
	// epochs counts evictions per group so a warm-up that raced with an
	// eviction does not install a ledger built from stale history.
	epochs map[string]uint64
	// generations counts cache invalidations per group so a recompute that
	// read history before a write never caches its stale result.
	generations map[string]uint64
	warmup      singleflight.Group
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// WithCache serves recomputed balances through c.
func WithCache(c cache.BalanceCache) Option {
	return func(t *Tracker) { t.cache = c }
}

// WithMetrics records activity in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

// WithFeed publishes ledger change messages to f. A private feed is created otherwise.
func WithFeed(f *ledger.Feed) Option {
	return func(t *Tracker) { t.feed = f }
}

// WithClock overrides the time source for created-at timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithReconcileConcurrency bounds how many groups ReconcileAll checks at once.
func WithReconcileConcurrency(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.reconcileConcurrency = n
		}
	}
}

// New creates a Tracker over store.
func New(store storage.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:                store,
		logger:               slog.Default(),
		now:                  time.Now,
		reconcileConcurrency: defaultReconcileConcurrency,
		ledgers:              make(map[string]*ledger.Ledger),
		epochs:               make(map[string]uint64),
		generations:          make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.feed == nil {
		t.feed = ledger.NewFeed()
	}
	return t
}

// Subscribe returns a channel of ledger change messages and a cancel func.
// Delivery is best effort: a subscriber that falls behind misses messages.
func (t *Tracker) Subscribe(buffer int) (<-chan ledger.Event, func()) {
	return t.feed.Subscribe(buffer)
}

// ledgerFor returns the warm ledger for groupID, replaying it from the store
// on first use. Concurrent warm-ups of one group share a single replay.
func (t *Tracker) ledgerFor(ctx context.Context, groupID string) (*ledger.Ledger, error) {
	t.mu.Lock()
	l, ok := t.ledgers[groupID]
	epoch := t.epochs[groupID]
	t.mu.Unlock()
	if ok {
		return l, nil
	}

	v, err, _ := t.warmup.Do(groupID, func() (any, error) {
		if l, ok := t.warmLedger(groupID); ok {
			return l, nil
		}
		l, err := t.loadLedger(ctx, groupID)
		if err != nil {
			return nil, err
		}

		t.mu.Lock()
		defer t.mu.Unlock()
		if existing, ok := t.ledgers[groupID]; ok {
			return existing, nil
		}
		if t.epochs[groupID] == epoch {
			t.ledgers[groupID] = l
			t.metrics.SetWarmLedgers(len(t.ledgers))
		}
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ledger.Ledger), nil
}

// loadLedger builds a ledger from the group's persisted history.
func (t *Tracker) loadLedger(ctx context.Context, groupID string) (*ledger.Ledger, error) {
	group, err := t.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	expenses, settlements, err := t.history(ctx, groupID)
	if err != nil {
		return nil, err
	}

	l := ledger.New(group.ID, group.Name, group.Members, t.feed)
	if err := l.Rebuild(expenses, settlements); err != nil {
		return nil, fmt.Errorf("failed to replay group %s: %w", groupID, err)
	}

	t.metrics.Rebuilt(metrics.ReasonWarmup)
	t.logger.Debug("Ledger loaded",
		"group_id", groupID,
		"expenses", len(expenses),
		"settlements", len(settlements),
	)
	return l, nil
}

// history reads a group's expenses and settlements.
func (t *Tracker) history(ctx context.Context, groupID string) ([]models.Expense, []models.Settlement, error) {
	expenses, err := t.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	settlements, err := t.store.ListSettlementsByGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}

	es := make([]models.Expense, len(expenses))
	for i, e := range expenses {
		es[i] = *e
	}
	ss := make([]models.Settlement, len(settlements))
	for i, s := range settlements {
		ss[i] = *s
	}
	return es, ss, nil
}

// warmLedger returns the ledger for groupID only if it is already loaded.
func (t *Tracker) warmLedger(groupID string) (*ledger.Ledger, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.ledgers[groupID]
	return l, ok
}

// epochOf returns the group's eviction count.
func (t *Tracker) epochOf(groupID string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.epochs[groupID]
}

// evict drops the warm ledger so the next access replays persisted history.
func (t *Tracker) evict(groupID string) {
	t.mu.Lock()
	n := t.evictLocked(groupID)
	t.mu.Unlock()

	t.warmup.Forget(groupID)
	t.metrics.SetWarmLedgers(n)
}

func (t *Tracker) evictLocked(groupID string) int {
	delete(t.ledgers, groupID)
	t.epochs[groupID]++
	return len(t.ledgers)
}

// dropIfReplaced is called after a write applied to l has been persisted.
// If l stopped being the group's warm ledger in the meantime, its successor
// may have been replayed before the write landed, so it is evicted too.
func (t *Tracker) dropIfReplaced(groupID string, l *ledger.Ledger, epoch uint64) {
	t.mu.Lock()
	if t.ledgers[groupID] == l && t.epochs[groupID] == epoch {
		t.mu.Unlock()
		return
	}
	n := t.evictLocked(groupID)
	t.mu.Unlock()

	t.warmup.Forget(groupID)
	t.metrics.SetWarmLedgers(n)
	t.logger.Debug("Ledger replaced during write, dropped", "group_id", groupID)
}

// generationOf returns how often the group's cached balances were invalidated.
func (t *Tracker) generationOf(groupID string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generations[groupID]
}

// invalidate drops cached recomputed balances for groupID. Failures are logged:
// the cache TTL bounds how long a stale entry can survive.
func (t *Tracker) invalidate(ctx context.Context, groupID string) {
	if t.cache == nil {
		return
	}
	t.mu.Lock()
	t.generations[groupID]++
	t.mu.Unlock()

	if err := t.cache.Invalidate(ctx, groupID); err != nil {
		t.logger.Warn("Failed to invalidate balance cache", "group_id", groupID, "error", err)
	}
}
