package tracker

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/storage"
)

// GroupPosition is one participant's standing inside one group.
type GroupPosition struct {
	GroupID   string
	GroupName string
	Net       decimal.Decimal

	// Counterparties maps another member to what they owe the participant.
	// Negative amounts are owed by the participant. Settled pairs are absent.
	Counterparties map[string]decimal.Decimal
}

// ParticipantBalances answers who owes whom for one participant across every
// group they belong to.
type ParticipantBalances struct {
	ParticipantID string
	Groups        []GroupPosition

	// Net sums the participant's net position over all groups.
	Net decimal.Decimal

	// Shares totals the participant's own splits: what they consumed, whoever paid.
	Shares decimal.Decimal
}

// ParticipantBalances reads the participant's row from each group's live
// ledger, in the store's group order.
func (t *Tracker) ParticipantBalances(ctx context.Context, participantID string) (*ParticipantBalances, error) {
	if _, err := t.store.GetParticipant(ctx, participantID); err != nil {
		return nil, err
	}
	groups, err := t.store.ListGroupsByParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	splits, err := t.store.ListSplitsByParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}

	out := &ParticipantBalances{
		ParticipantID: participantID,
		Groups:        make([]GroupPosition, 0, len(groups)),
		Net:           decimal.Zero,
		Shares:        decimal.Zero,
	}
	for _, g := range groups {
		l, err := t.ledgerFor(ctx, g.ID)
		if errors.Is(err, storage.ErrNotFound) {
			// deleted since it was listed
			continue
		}
		if err != nil {
			return nil, err
		}

		pos := GroupPosition{
			GroupID:        g.ID,
			GroupName:      g.Name,
			Net:            decimal.Zero,
			Counterparties: make(map[string]decimal.Decimal),
		}
		for other, amount := range l.Balances()[participantID] {
			pos.Counterparties[other] = amount
			pos.Net = pos.Net.Add(amount)
		}
		out.Groups = append(out.Groups, pos)
		out.Net = out.Net.Add(pos.Net)
	}
	for _, s := range splits {
		out.Shares = out.Shares.Add(s.Amount)
	}
	return out, nil
}
