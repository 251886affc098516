// Package metrics exposes Prometheus collectors for ledger activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "splitledger"

// Metrics groups the collectors the tracker updates. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	ExpensesRecorded *prometheus.CounterVec
	ExpensesDeleted  prometheus.Counter
	Settlements      prometheus.Counter
	LedgerRebuilds   *prometheus.CounterVec
	Divergences      prometheus.Counter
	WarmLedgers      prometheus.Gauge
	CacheLookups     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ExpensesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_recorded_total",
			Help:      "Expenses recorded, by split type. Personal expenses use split type PERSONAL.",
		}, []string{"split_type"}),
		ExpensesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_deleted_total",
			Help:      "Expenses deleted.",
		}),
		Settlements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Payments recorded between group members.",
		}),
		LedgerRebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_rebuilds_total",
			Help:      "Ledgers replayed from the store, by reason.",
		}, []string{"reason"}),
		Divergences: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_divergences_total",
			Help:      "Reconciliations where the live ledger disagreed with the store.",
		}),
		WarmLedgers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "warm_ledgers",
			Help:      "Group ledgers currently held in memory.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_cache_lookups_total",
			Help:      "Balance cache lookups, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.ExpensesRecorded,
		m.ExpensesDeleted,
		m.Settlements,
		m.LedgerRebuilds,
		m.Divergences,
		m.WarmLedgers,
		m.CacheLookups,
	)
	return m
}

// Rebuild reasons.
const (
	ReasonWarmup    = "warmup"
	ReasonDivergent = "divergent"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// ExpenseRecorded counts a recorded expense by split type. Like every
// recorder below it is a no-op on a nil *Metrics.
func (m *Metrics) ExpenseRecorded(splitType string) {
	if m == nil {
		return
	}
	m.ExpensesRecorded.WithLabelValues(splitType).Inc()
}

// ExpenseDeleted counts a deleted expense.
func (m *Metrics) ExpenseDeleted() {
	if m == nil {
		return
	}
	m.ExpensesDeleted.Inc()
}

// Settled counts a recorded settlement.
func (m *Metrics) Settled() {
	if m == nil {
		return
	}
	m.Settlements.Inc()
}

// Rebuilt counts a ledger replay from the store, labelled ReasonWarmup or ReasonDivergent.
func (m *Metrics) Rebuilt(reason string) {
	if m == nil {
		return
	}
	m.LedgerRebuilds.WithLabelValues(reason).Inc()
}

// Diverged counts a reconcile that found live and recomputed balances apart.
func (m *Metrics) Diverged() {
	if m == nil {
		return
	}
	m.Divergences.Inc()
}

// SetWarmLedgers reports how many group ledgers are held in memory.
func (m *Metrics) SetWarmLedgers(n int) {
	if m == nil {
		return
	}
	m.WarmLedgers.Set(float64(n))
}

// CacheLookup counts a balance cache read by result: CacheHit, CacheMiss or CacheError.
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
