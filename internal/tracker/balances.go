package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
)

// Settle records a payment from one member to another and reduces what from
// owes to. The payment is applied to the live ledger and then persisted.
func (t *Tracker) Settle(ctx context.Context, groupID, from, to string, amount decimal.Decimal, note string) (*models.Settlement, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: settlement amount must be positive, got %s", ErrInvalidInput, amount)
	}

	l, err := t.ledgerFor(ctx, groupID)
	if err != nil {
		return nil, err
	}
	epoch := t.epochOf(groupID)
	if err := l.Settle(from, to, amount); err != nil {
		return nil, err
	}

	settlement := &models.Settlement{
		GroupID:   groupID,
		FromID:    from,
		ToID:      to,
		Amount:    amount,
		Note:      strings.TrimSpace(note),
		CreatedAt: t.now().Unix(),
	}
	if err := t.store.CreateSettlement(ctx, settlement); err != nil {
		t.evict(groupID)
		t.logger.Error("Failed to persist settlement, ledger dropped", "group_id", groupID, "error", err)
		return nil, err
	}
	t.dropIfReplaced(groupID, l, epoch)
	t.invalidate(ctx, groupID)
	t.metrics.Settled()

	t.logger.Info("Payment settled",
		"settlement_id", settlement.ID,
		"group_id", groupID,
		"from", from,
		"to", to,
		"amount", amount.String(),
	)
	return settlement, nil
}

// ListSettlements returns a group's recorded payments, oldest first.
func (t *Tracker) ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	if _, err := t.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return t.store.ListSettlementsByGroup(ctx, groupID)
}

// GetSettlement returns a recorded payment.
func (t *Tracker) GetSettlement(ctx context.Context, id string) (*models.Settlement, error) {
	return t.store.GetSettlement(ctx, id)
}

// DeleteSettlement removes a recorded payment. Like DeleteExpense, the
// group's ledger is dropped and replayed from the remaining history.
func (t *Tracker) DeleteSettlement(ctx context.Context, id string) error {
	settlement, err := t.store.GetSettlement(ctx, id)
	if err != nil {
		return err
	}
	if err := t.store.DeleteSettlement(ctx, id); err != nil {
		return err
	}
	t.evict(settlement.GroupID)
	t.invalidate(ctx, settlement.GroupID)

	t.logger.Info("Settlement deleted", "settlement_id", id, "group_id", settlement.GroupID)
	return nil
}

// NetBalances returns each member's net position from the live ledger.
// Positive means the member is owed money overall.
func (t *Tracker) NetBalances(ctx context.Context, groupID string) (map[string]decimal.Decimal, error) {
	l, err := t.ledgerFor(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return l.NetBalances(), nil
}

// BalanceMatrix returns a copy of the live pairwise matrix, where m[A][B] > 0
// means B owes A.
func (t *Tracker) BalanceMatrix(ctx context.Context, groupID string) (map[string]map[string]decimal.Decimal, error) {
	l, err := t.ledgerFor(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return l.Balances(), nil
}

// SimplifyGroupDebts returns a settlement plan for the live ledger.
func (t *Tracker) SimplifyGroupDebts(ctx context.Context, groupID string) ([]calculator.Transfer, error) {
	l, err := t.ledgerFor(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return calculator.SimplifyDebts(l.Balances()), nil
}

// SimplifyRecomputed returns a settlement plan for the balances recomputed
// from persisted history.
func (t *Tracker) SimplifyRecomputed(ctx context.Context, groupID string) ([]calculator.Transfer, error) {
	net, err := t.RecomputeNetBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return calculator.SimplifyNetBalances(net), nil
}

// RecomputeNetBalances derives net balances from persisted expenses, splits
// and settlements without touching the live ledger. Current members with no
// history read zero. Results are served through the balance cache when one
// is configured; cache failures fall back to the store.
func (t *Tracker) RecomputeNetBalances(ctx context.Context, groupID string) (map[string]decimal.Decimal, error) {
	if t.cache != nil {
		cached, ok, err := t.cache.Get(ctx, groupID)
		switch {
		case err != nil:
			t.metrics.CacheLookup(metrics.CacheError)
			t.logger.Warn("Balance cache read failed", "group_id", groupID, "error", err)
		case ok:
			t.metrics.CacheLookup(metrics.CacheHit)
			return cached, nil
		default:
			t.metrics.CacheLookup(metrics.CacheMiss)
		}
	}

	gen := t.generationOf(groupID)
	net, err := t.recompute(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if t.cache != nil {
		t.cacheIfCurrent(ctx, groupID, gen, net)
	}
	return net, nil
}

// cacheIfCurrent stores net unless the group was invalidated after gen was
// read. An invalidation racing with the write is caught by the second check,
// since invalidate bumps the generation before it deletes the entry.
func (t *Tracker) cacheIfCurrent(ctx context.Context, groupID string, gen uint64, net map[string]decimal.Decimal) {
	if t.generationOf(groupID) != gen {
		return
	}
	if err := t.cache.Set(ctx, groupID, net); err != nil {
		t.logger.Warn("Balance cache write failed", "group_id", groupID, "error", err)
		return
	}
	if t.generationOf(groupID) != gen {
		t.invalidate(ctx, groupID)
	}
}

func (t *Tracker) recompute(ctx context.Context, groupID string) (map[string]decimal.Decimal, error) {
	group, err := t.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	expenses, settlements, err := t.history(ctx, groupID)
	if err != nil {
		return nil, err
	}

	net := calculator.ReplayNetBalances(expenses, settlements)
	for _, m := range group.Members {
		if _, ok := net[m]; !ok {
			net[m] = decimal.Zero
		}
	}
	return net, nil
}
