package service

import (
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/tracker"
	"github.com/mmynk/splitledger/pkg/rpc"
)

// toConnectError maps domain errors onto Connect codes.
func toConnectError(err error) *connect.Error {
	switch {
	case errors.Is(err, calculator.ErrInvalidSplit),
		errors.Is(err, tracker.ErrInvalidInput),
		errors.Is(err, ledger.ErrNotMember),
		errors.Is(err, ledger.ErrInvalidAmount):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, tracker.ErrDuplicateGroupName),
		errors.Is(err, storage.ErrAlreadyExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// requireField rejects an empty request field before it reaches the tracker.
func requireField(name, value string) error {
	if value == "" {
		return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%s required", name))
	}
	return nil
}

// parseAmount reads a decimal string from a request.
func parseAmount(field, s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%s: malformed amount %q", field, s))
	}
	return v, nil
}

func participantToRPC(p *models.Participant) *rpc.Participant {
	return &rpc.Participant{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		CreatedAt: p.CreatedAt,
	}
}

func groupToRPC(g *models.Group) *rpc.Group {
	members := g.Members
	if members == nil {
		members = []string{}
	}
	return &rpc.Group{
		ID:        g.ID,
		Name:      g.Name,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}

func expenseToRPC(e *models.Expense) *rpc.Expense {
	out := &rpc.Expense{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount.String(),
		PayerID:     e.PayerID,
		GroupID:     e.GroupID,
		SplitType:   string(e.SplitType),
		CreatedAt:   e.CreatedAt,
	}
	for _, s := range e.Splits {
		out.Splits = append(out.Splits, &rpc.Split{
			ParticipantID: s.ParticipantID,
			Amount:        s.Amount.String(),
		})
	}
	return out
}

func settlementToRPC(s *models.Settlement) *rpc.Settlement {
	return &rpc.Settlement{
		ID:        s.ID,
		GroupID:   s.GroupID,
		FromID:    s.FromID,
		ToID:      s.ToID,
		Amount:    s.Amount.String(),
		Note:      s.Note,
		CreatedAt: s.CreatedAt,
	}
}

func transfersToRPC(plan []calculator.Transfer) []*rpc.Transfer {
	out := make([]*rpc.Transfer, len(plan))
	for i, t := range plan {
		out[i] = &rpc.Transfer{From: t.From, To: t.To, Amount: t.Amount.String()}
	}
	return out
}

func reportToRPC(r *tracker.Report) *rpc.ReconcileReport {
	return &rpc.ReconcileReport{
		GroupID:   r.GroupID,
		Diverging: r.Diverging,
		Rebuilt:   r.Rebuilt,
	}
}

func participantBalancesToRPC(b *tracker.ParticipantBalances) *rpc.GetParticipantBalancesResponse {
	out := &rpc.GetParticipantBalancesResponse{
		ParticipantID: b.ParticipantID,
		Groups:        make([]*rpc.GroupPosition, len(b.Groups)),
		Net:           b.Net.StringFixed(2),
		Shares:        b.Shares.StringFixed(2),
	}
	for i, g := range b.Groups {
		out.Groups[i] = &rpc.GroupPosition{
			GroupID:        g.GroupID,
			GroupName:      g.GroupName,
			Net:            g.Net.StringFixed(2),
			Counterparties: amountsToRPC(g.Counterparties),
		}
	}
	return out
}

// amountsToRPC renders amounts rounded to cents, the resolution of Epsilon.
func amountsToRPC(in map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v.StringFixed(2)
	}
	return out
}

func matrixToRPC(in map[string]map[string]decimal.Decimal) map[string]map[string]string {
	out := make(map[string]map[string]string, len(in))
	for k, row := range in {
		out[k] = amountsToRPC(row)
	}
	return out
}
