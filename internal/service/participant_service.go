package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/tracker"
	"github.com/mmynk/splitledger/pkg/rpc"
)

// ParticipantService implements the Connect ParticipantService.
type ParticipantService struct {
	tracker *tracker.Tracker
	logger  *slog.Logger
}

var _ rpc.ParticipantServiceHandler = (*ParticipantService)(nil)

// NewParticipantService creates a ParticipantService backed by t.
func NewParticipantService(t *tracker.Tracker, logger *slog.Logger) *ParticipantService {
	return &ParticipantService{tracker: t, logger: logger}
}

// CreateParticipant registers a participant.
func (s *ParticipantService) CreateParticipant(ctx context.Context, req *connect.Request[rpc.CreateParticipantRequest]) (*connect.Response[rpc.CreateParticipantResponse], error) {
	s.logger.Info("CreateParticipant request received", "name", req.Msg.Name)

	p, err := s.tracker.CreateParticipant(ctx, req.Msg.Name, req.Msg.Email)
	if err != nil {
		s.logger.Error("CreateParticipant failed", "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.CreateParticipantResponse{Participant: participantToRPC(p)}), nil
}

// GetParticipant retrieves a participant by ID, or by email when no ID is given.
func (s *ParticipantService) GetParticipant(ctx context.Context, req *connect.Request[rpc.GetParticipantRequest]) (*connect.Response[rpc.GetParticipantResponse], error) {
	var (
		p   *models.Participant
		err error
	)
	switch {
	case req.Msg.ParticipantID != "":
		p, err = s.tracker.GetParticipant(ctx, req.Msg.ParticipantID)
	case req.Msg.Email != "":
		p, err = s.tracker.FindParticipantByEmail(ctx, req.Msg.Email)
	default:
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("participant_id or email required"))
	}
	if err != nil {
		s.logger.Error("GetParticipant failed", "participant_id", req.Msg.ParticipantID, "email", req.Msg.Email, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.GetParticipantResponse{Participant: participantToRPC(p)}), nil
}

// GetParticipantBalances reports who owes whom for one participant across groups.
func (s *ParticipantService) GetParticipantBalances(ctx context.Context, req *connect.Request[rpc.GetParticipantBalancesRequest]) (*connect.Response[rpc.GetParticipantBalancesResponse], error) {
	if err := requireField("participant_id", req.Msg.ParticipantID); err != nil {
		return nil, err
	}

	balances, err := s.tracker.ParticipantBalances(ctx, req.Msg.ParticipantID)
	if err != nil {
		s.logger.Error("GetParticipantBalances failed", "participant_id", req.Msg.ParticipantID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(participantBalancesToRPC(balances)), nil
}

// UpdateParticipant changes a participant's name or email.
func (s *ParticipantService) UpdateParticipant(ctx context.Context, req *connect.Request[rpc.UpdateParticipantRequest]) (*connect.Response[rpc.UpdateParticipantResponse], error) {
	s.logger.Info("UpdateParticipant request received", "participant_id", req.Msg.ParticipantID)
	if err := requireField("participant_id", req.Msg.ParticipantID); err != nil {
		return nil, err
	}

	p, err := s.tracker.UpdateParticipant(ctx, req.Msg.ParticipantID, req.Msg.Name, req.Msg.Email)
	if err != nil {
		s.logger.Error("UpdateParticipant failed", "participant_id", req.Msg.ParticipantID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.UpdateParticipantResponse{Participant: participantToRPC(p)}), nil
}

// DeleteParticipant removes a participant and their memberships.
func (s *ParticipantService) DeleteParticipant(ctx context.Context, req *connect.Request[rpc.DeleteParticipantRequest]) (*connect.Response[rpc.DeleteParticipantResponse], error) {
	s.logger.Info("DeleteParticipant request received", "participant_id", req.Msg.ParticipantID)
	if err := requireField("participant_id", req.Msg.ParticipantID); err != nil {
		return nil, err
	}

	if err := s.tracker.DeleteParticipant(ctx, req.Msg.ParticipantID); err != nil {
		s.logger.Error("DeleteParticipant failed", "participant_id", req.Msg.ParticipantID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.DeleteParticipantResponse{}), nil
}

// ListParticipants returns every participant.
func (s *ParticipantService) ListParticipants(ctx context.Context, req *connect.Request[rpc.ListParticipantsRequest]) (*connect.Response[rpc.ListParticipantsResponse], error) {
	list, err := s.tracker.ListParticipants(ctx)
	if err != nil {
		s.logger.Error("ListParticipants failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*rpc.Participant, len(list))
	for i, p := range list {
		out[i] = participantToRPC(p)
	}
	return connect.NewResponse(&rpc.ListParticipantsResponse{Participants: out}), nil
}
