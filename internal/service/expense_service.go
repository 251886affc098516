package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/tracker"
	"github.com/mmynk/splitledger/pkg/rpc"
)

// ExpenseService implements the Connect ExpenseService.
type ExpenseService struct {
	tracker *tracker.Tracker
	logger  *slog.Logger
}

var _ rpc.ExpenseServiceHandler = (*ExpenseService)(nil)

// NewExpenseService creates an ExpenseService backed by t.
func NewExpenseService(t *tracker.Tracker, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{tracker: t, logger: logger}
}

// RecordExpense records a group or personal expense.
func (s *ExpenseService) RecordExpense(ctx context.Context, req *connect.Request[rpc.RecordExpenseRequest]) (*connect.Response[rpc.RecordExpenseResponse], error) {
	s.logger.Info("RecordExpense request received",
		"group_id", req.Msg.GroupID,
		"payer_id", req.Msg.PayerID,
		"split_type", req.Msg.SplitType,
		"participants_count", len(req.Msg.Participants),
	)

	in, err := expenseInput(req.Msg)
	if err != nil {
		return nil, err
	}

	expense, err := s.tracker.RecordExpense(ctx, in)
	if err != nil {
		s.logger.Error("RecordExpense failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.RecordExpenseResponse{Expense: expenseToRPC(expense)}), nil
}

func expenseInput(msg *rpc.RecordExpenseRequest) (tracker.ExpenseInput, error) {
	amount, err := parseAmount("amount", msg.Amount)
	if err != nil {
		return tracker.ExpenseInput{}, err
	}

	splitType, err := models.ParseSplitType(msg.SplitType)
	if err != nil {
		return tracker.ExpenseInput{}, toConnectError(fmt.Errorf("%w: %v", calculator.ErrInvalidSplit, err))
	}

	values := make([]decimal.Decimal, len(msg.Values))
	for i, v := range msg.Values {
		values[i], err = parseAmount(fmt.Sprintf("values[%d]", i), v)
		if err != nil {
			return tracker.ExpenseInput{}, err
		}
	}

	return tracker.ExpenseInput{
		Description:  msg.Description,
		Amount:       amount,
		PayerID:      msg.PayerID,
		GroupID:      msg.GroupID,
		SplitType:    splitType,
		Participants: msg.Participants,
		Values:       values,
	}, nil
}

// GetExpense retrieves an expense with its splits.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[rpc.GetExpenseRequest]) (*connect.Response[rpc.GetExpenseResponse], error) {
	if err := requireField("expense_id", req.Msg.ExpenseID); err != nil {
		return nil, err
	}

	expense, err := s.tracker.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		s.logger.Error("GetExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.GetExpenseResponse{Expense: expenseToRPC(expense)}), nil
}

// ListExpenses lists a group's expenses, the expenses a participant paid,
// or every expense when no filter is given.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[rpc.ListExpensesRequest]) (*connect.Response[rpc.ListExpensesResponse], error) {
	var (
		expenses []*models.Expense
		err      error
	)
	switch {
	case req.Msg.GroupID != "" && req.Msg.PayerID != "":
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("group_id and payer_id are exclusive"))
	case req.Msg.GroupID != "":
		expenses, err = s.tracker.ListGroupExpenses(ctx, req.Msg.GroupID)
	case req.Msg.PayerID != "":
		expenses, err = s.tracker.ListParticipantExpenses(ctx, req.Msg.PayerID)
	default:
		expenses, err = s.tracker.ListExpenses(ctx)
	}
	if err != nil {
		s.logger.Error("ListExpenses failed", "group_id", req.Msg.GroupID, "payer_id", req.Msg.PayerID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*rpc.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = expenseToRPC(e)
	}
	return connect.NewResponse(&rpc.ListExpensesResponse{Expenses: out}), nil
}

// DeleteExpense removes an expense.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[rpc.DeleteExpenseRequest]) (*connect.Response[rpc.DeleteExpenseResponse], error) {
	s.logger.Info("DeleteExpense request received", "expense_id", req.Msg.ExpenseID)
	if err := requireField("expense_id", req.Msg.ExpenseID); err != nil {
		return nil, err
	}

	if err := s.tracker.DeleteExpense(ctx, req.Msg.ExpenseID); err != nil {
		s.logger.Error("DeleteExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.DeleteExpenseResponse{}), nil
}
