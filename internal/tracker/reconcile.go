package tracker

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
)

// Report is the outcome of comparing a live ledger with persisted history.
type Report struct {
	GroupID    string
	Live       map[string]decimal.Decimal
	Recomputed map[string]decimal.Decimal

	// Diverging lists participants whose live and recomputed balances differ
	// by more than calculator.Epsilon, sorted.
	Diverging []string

	// Rebuilt is set when the live ledger was replayed because of divergence.
	Rebuilt bool
}

// Consistent reports whether no participant diverged.
func (r *Report) Consistent() bool {
	return len(r.Diverging) == 0
}

// Reconcile compares the live ledger for groupID against a fresh recompute
// that bypasses the cache. On divergence the ledger is replayed in place.
//
// Members removed from the group keep their persisted history but no longer
// appear in the live ledger, so a group that removed a member with an open
// balance keeps reporting that member as diverging until they rejoin, at
// which point their history is replayed into the ledger.
func (t *Tracker) Reconcile(ctx context.Context, groupID string) (*Report, error) {
	l, err := t.ledgerFor(ctx, groupID)
	if err != nil {
		return nil, err
	}

	recomputed, err := t.recompute(ctx, groupID)
	if err != nil {
		return nil, err
	}
	live := l.NetBalances()

	report := &Report{
		GroupID:    groupID,
		Live:       live,
		Recomputed: recomputed,
		Diverging:  calculator.Diverging(live, recomputed),
	}
	if report.Consistent() {
		return report, nil
	}

	t.metrics.Diverged()
	t.logger.Warn("Ledger diverged from store",
		"group_id", groupID,
		"participants", report.Diverging,
	)

	expenses, settlements, err := t.history(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := l.Rebuild(expenses, settlements); err != nil {
		return nil, fmt.Errorf("failed to rebuild group %s: %w", groupID, err)
	}
	report.Rebuilt = true
	t.metrics.Rebuilt(metrics.ReasonDivergent)

	return report, nil
}

// ReconcileAll reconciles every group, a bounded number at a time.
// Reports are returned in the store's group order.
func (t *Tracker) ReconcileAll(ctx context.Context) ([]*Report, error) {
	groups, err := t.store.ListGroups(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]*Report, len(groups))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.reconcileConcurrency)
	for i, group := range groups {
		g.Go(func() error {
			r, err := t.Reconcile(ctx, group.ID)
			if err != nil {
				return fmt.Errorf("reconcile group %s: %w", group.ID, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	diverged := 0
	for _, r := range reports {
		if !r.Consistent() {
			diverged++
		}
	}
	t.logger.Info("Reconciliation finished", "groups", len(reports), "diverged", diverged)
	return reports, nil
}
