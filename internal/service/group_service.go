package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/tracker"
	"github.com/mmynk/splitledger/pkg/rpc"
)

// GroupService implements the Connect GroupService
type GroupService struct {
	tracker *tracker.Tracker
	logger  *slog.Logger
}

var _ rpc.GroupServiceHandler = (*GroupService)(nil)

// NewGroupService creates a new GroupService backed by t.
func NewGroupService(t *tracker.Tracker, logger *slog.Logger) *GroupService {
	return &GroupService{tracker: t, logger: logger}
}

// CreateGroup creates a new group.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[rpc.CreateGroupRequest]) (*connect.Response[rpc.CreateGroupResponse], error) {
	s.logger.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	group, err := s.tracker.CreateGroup(ctx, req.Msg.Name, req.Msg.Members)
	if err != nil {
		s.logger.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.CreateGroupResponse{Group: groupToRPC(group)}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[rpc.GetGroupRequest]) (*connect.Response[rpc.GetGroupResponse], error) {
	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, err
	}

	group, err := s.tracker.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		s.logger.Error("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.GetGroupResponse{Group: groupToRPC(group)}), nil
}

// ListGroups retrieves all groups, or the groups of one participant.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[rpc.ListGroupsRequest]) (*connect.Response[rpc.ListGroupsResponse], error) {
	var (
		groups []*models.Group
		err    error
	)
	if req.Msg.ParticipantID != "" {
		groups, err = s.tracker.ListParticipantGroups(ctx, req.Msg.ParticipantID)
	} else {
		groups, err = s.tracker.ListGroups(ctx)
	}
	if err != nil {
		s.logger.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*rpc.Group, len(groups))
	for i, g := range groups {
		out[i] = groupToRPC(g)
	}

	s.logger.Debug("ListGroups successful", "count", len(groups))
	return connect.NewResponse(&rpc.ListGroupsResponse{Groups: out}), nil
}

// RenameGroup changes a group's name.
func (s *GroupService) RenameGroup(ctx context.Context, req *connect.Request[rpc.RenameGroupRequest]) (*connect.Response[rpc.RenameGroupResponse], error) {
	s.logger.Info("RenameGroup request received", "group_id", req.Msg.GroupID, "name", req.Msg.Name)
	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, err
	}

	group, err := s.tracker.RenameGroup(ctx, req.Msg.GroupID, req.Msg.Name)
	if err != nil {
		s.logger.Error("RenameGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.RenameGroupResponse{Group: groupToRPC(group)}), nil
}

// DeleteGroup removes a group by ID.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[rpc.DeleteGroupRequest]) (*connect.Response[rpc.DeleteGroupResponse], error) {
	s.logger.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)
	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, err
	}

	if err := s.tracker.DeleteGroup(ctx, req.Msg.GroupID); err != nil {
		s.logger.Error("DeleteGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.DeleteGroupResponse{}), nil
}

// AddMember adds a participant to a group.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[rpc.AddMemberRequest]) (*connect.Response[rpc.AddMemberResponse], error) {
	s.logger.Info("AddMember request received", "group_id", req.Msg.GroupID, "participant_id", req.Msg.ParticipantID)
	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, err
	}
	if err := requireField("participant_id", req.Msg.ParticipantID); err != nil {
		return nil, err
	}

	if err := s.tracker.AddMember(ctx, req.Msg.GroupID, req.Msg.ParticipantID); err != nil {
		s.logger.Error("AddMember failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.AddMemberResponse{}), nil
}

// RemoveMember removes a participant from a group.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[rpc.RemoveMemberRequest]) (*connect.Response[rpc.RemoveMemberResponse], error) {
	s.logger.Info("RemoveMember request received", "group_id", req.Msg.GroupID, "participant_id", req.Msg.ParticipantID)
	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, err
	}
	if err := requireField("participant_id", req.Msg.ParticipantID); err != nil {
		return nil, err
	}

	if err := s.tracker.RemoveMember(ctx, req.Msg.GroupID, req.Msg.ParticipantID); err != nil {
		s.logger.Error("RemoveMember failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.RemoveMemberResponse{}), nil
}

// GetBalances returns net balances, live or recomputed from history.
func (s *GroupService) GetBalances(ctx context.Context, req *connect.Request[rpc.GetBalancesRequest]) (*connect.Response[rpc.GetBalancesResponse], error) {
	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, err
	}

	if req.Msg.Recomputed {
		net, err := s.tracker.RecomputeNetBalances(ctx, req.Msg.GroupID)
		if err != nil {
			s.logger.Error("GetBalances failed", "group_id", req.Msg.GroupID, "error", err)
			return nil, toConnectError(err)
		}
		return connect.NewResponse(&rpc.GetBalancesResponse{Net: amountsToRPC(net)}), nil
	}

	matrix, err := s.tracker.BalanceMatrix(ctx, req.Msg.GroupID)
	if err != nil {
		s.logger.Error("GetBalances failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&rpc.GetBalancesResponse{
		Net:    amountsToRPC(calculator.NetBalances(matrix)),
		Matrix: matrixToRPC(matrix),
	}), nil
}

// SimplifyDebts returns a settlement plan for the group.
func (s *GroupService) SimplifyDebts(ctx context.Context, req *connect.Request[rpc.SimplifyDebtsRequest]) (*connect.Response[rpc.SimplifyDebtsResponse], error) {
	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, err
	}

	var (
		plan []calculator.Transfer
		err  error
	)
	if req.Msg.Recomputed {
		plan, err = s.tracker.SimplifyRecomputed(ctx, req.Msg.GroupID)
	} else {
		plan, err = s.tracker.SimplifyGroupDebts(ctx, req.Msg.GroupID)
	}
	if err != nil {
		s.logger.Error("SimplifyDebts failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("SimplifyDebts successful", "group_id", req.Msg.GroupID, "transfers", len(plan))
	return connect.NewResponse(&rpc.SimplifyDebtsResponse{Transfers: transfersToRPC(plan)}), nil
}

// Settle records a payment between two members.
func (s *GroupService) Settle(ctx context.Context, req *connect.Request[rpc.SettleRequest]) (*connect.Response[rpc.SettleResponse], error) {
	s.logger.Info("Settle request received",
		"group_id", req.Msg.GroupID,
		"from", req.Msg.FromID,
		"to", req.Msg.ToID,
		"amount", req.Msg.Amount,
	)
	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", req.Msg.Amount)
	if err != nil {
		return nil, err
	}

	settlement, err := s.tracker.Settle(ctx, req.Msg.GroupID, req.Msg.FromID, req.Msg.ToID, amount, req.Msg.Note)
	if err != nil {
		s.logger.Error("Settle failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.SettleResponse{Settlement: settlementToRPC(settlement)}), nil
}

// ListSettlements returns a group's recorded payments.
func (s *GroupService) ListSettlements(ctx context.Context, req *connect.Request[rpc.ListSettlementsRequest]) (*connect.Response[rpc.ListSettlementsResponse], error) {
	if err := requireField("group_id", req.Msg.GroupID); err != nil {
		return nil, err
	}

	list, err := s.tracker.ListSettlements(ctx, req.Msg.GroupID)
	if err != nil {
		s.logger.Error("ListSettlements failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*rpc.Settlement, len(list))
	for i, st := range list {
		out[i] = settlementToRPC(st)
	}
	return connect.NewResponse(&rpc.ListSettlementsResponse{Settlements: out}), nil
}

// GetSettlement retrieves a recorded payment.
func (s *GroupService) GetSettlement(ctx context.Context, req *connect.Request[rpc.GetSettlementRequest]) (*connect.Response[rpc.GetSettlementResponse], error) {
	if err := requireField("settlement_id", req.Msg.SettlementID); err != nil {
		return nil, err
	}

	settlement, err := s.tracker.GetSettlement(ctx, req.Msg.SettlementID)
	if err != nil {
		s.logger.Error("GetSettlement failed", "settlement_id", req.Msg.SettlementID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&rpc.GetSettlementResponse{Settlement: settlementToRPC(settlement)}), nil
}

// DeleteSettlement removes a recorded payment, reopening the debt it paid.
func (s *GroupService) DeleteSettlement(ctx context.Context, req *connect.Request[rpc.DeleteSettlementRequest]) (*connect.Response[rpc.DeleteSettlementResponse], error) {
	s.logger.Info("DeleteSettlement request received", "settlement_id", req.Msg.SettlementID)
	if err := requireField("settlement_id", req.Msg.SettlementID); err != nil {
		return nil, err
	}

	if err := s.tracker.DeleteSettlement(ctx, req.Msg.SettlementID); err != nil {
		s.logger.Error("DeleteSettlement failed", "settlement_id", req.Msg.SettlementID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&rpc.DeleteSettlementResponse{}), nil
}

// Reconcile checks live ledgers against persisted history.
func (s *GroupService) Reconcile(ctx context.Context, req *connect.Request[rpc.ReconcileRequest]) (*connect.Response[rpc.ReconcileResponse], error) {
	s.logger.Info("Reconcile request received", "group_id", req.Msg.GroupID)

	var reports []*tracker.Report
	if req.Msg.GroupID != "" {
		r, err := s.tracker.Reconcile(ctx, req.Msg.GroupID)
		if err != nil {
			s.logger.Error("Reconcile failed", "group_id", req.Msg.GroupID, "error", err)
			return nil, toConnectError(err)
		}
		reports = append(reports, r)
	} else {
		all, err := s.tracker.ReconcileAll(ctx)
		if err != nil {
			s.logger.Error("Reconcile failed", "error", err)
			return nil, toConnectError(err)
		}
		reports = all
	}

	out := make([]*rpc.ReconcileReport, len(reports))
	for i, r := range reports {
		out[i] = reportToRPC(r)
	}
	return connect.NewResponse(&rpc.ReconcileResponse{Reports: out}), nil
}
