package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

// ExpenseInput describes an expense to record.
type ExpenseInput struct {
	Description string
	Amount      decimal.Decimal
	PayerID     string

	// GroupID is empty for a personal expense, which is stored without splits.
	GroupID string

	// SplitType defaults to EQUAL.
	SplitType models.SplitType

	// Participants the amount is divided over. Defaults to the group members
	// in join order; required for BETWEEN.
	Participants []string

	// Values align with Participants: percentages for PERCENTAGE, amounts for EXACT.
	Values []decimal.Decimal
}

// RecordExpense records an expense. Group expenses are applied to the live
// ledger first and persisted afterwards with the ledger lock released.
// If persisting fails the error is returned and the group's ledger is dropped,
// so the next read replays what was actually stored.
func (t *Tracker) RecordExpense(ctx context.Context, in ExpenseInput) (*models.Expense, error) {
	in.Description = strings.TrimSpace(in.Description)
	if in.PayerID == "" {
		return nil, fmt.Errorf("%w: payer is required", ErrInvalidInput)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidInput, in.Amount)
	}
	if in.SplitType == "" {
		in.SplitType = models.SplitTypeEqual
	}

	if in.GroupID == "" {
		return t.recordPersonal(ctx, in)
	}

	policy, err := calculator.PolicyFor(in.SplitType)
	if err != nil {
		return nil, err
	}

	participants := in.Participants
	if len(participants) == 0 {
		if in.SplitType == models.SplitTypeBetween {
			return nil, fmt.Errorf("%w: BETWEEN needs an explicit participant subset", calculator.ErrInvalidSplit)
		}
		group, err := t.store.GetGroup(ctx, in.GroupID)
		if err != nil {
			return nil, err
		}
		participants = group.Members
	}

	l, err := t.ledgerFor(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}
	epoch := t.epochOf(in.GroupID)

	expense := &models.Expense{
		Description: in.Description,
		Amount:      in.Amount,
		PayerID:     in.PayerID,
		GroupID:     in.GroupID,
		SplitType:   in.SplitType,
		CreatedAt:   t.now().Unix(),
	}

	shares, err := l.AddExpense(*expense, policy, participants, in.Values)
	if err != nil {
		return nil, err
	}

	expense.Splits = make([]models.Split, 0, len(participants))
	for _, p := range participants {
		expense.Splits = append(expense.Splits, models.Split{ParticipantID: p, Amount: shares[p]})
	}

	if err := t.store.CreateExpense(ctx, expense); err != nil {
		t.evict(in.GroupID)
		t.logger.Error("Failed to persist expense, ledger dropped", "group_id", in.GroupID, "error", err)
		return nil, err
	}
	t.dropIfReplaced(in.GroupID, l, epoch)
	t.invalidate(ctx, in.GroupID)
	t.metrics.ExpenseRecorded(string(in.SplitType))

	t.logger.Info("Expense recorded",
		"expense_id", expense.ID,
		"group_id", expense.GroupID,
		"payer_id", expense.PayerID,
		"amount", expense.Amount.String(),
		"split_type", expense.SplitType,
	)
	return expense, nil
}

func (t *Tracker) recordPersonal(ctx context.Context, in ExpenseInput) (*models.Expense, error) {
	if _, err := models.ParseSplitType(string(in.SplitType)); err != nil {
		return nil, fmt.Errorf("%w: %v", calculator.ErrInvalidSplit, err)
	}
	if _, err := t.store.GetParticipant(ctx, in.PayerID); err != nil {
		return nil, err
	}

	expense := &models.Expense{
		Description: in.Description,
		Amount:      in.Amount,
		PayerID:     in.PayerID,
		SplitType:   in.SplitType,
		CreatedAt:   t.now().Unix(),
	}
	if err := t.store.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}
	t.metrics.ExpenseRecorded("PERSONAL")

	t.logger.Info("Personal expense recorded",
		"expense_id", expense.ID,
		"payer_id", expense.PayerID,
		"amount", expense.Amount.String(),
	)
	return expense, nil
}

// GetExpense returns an expense with its splits.
func (t *Tracker) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	return t.store.GetExpense(ctx, id)
}

// ListExpenses returns every expense, group and personal, oldest first.
func (t *Tracker) ListExpenses(ctx context.Context) ([]*models.Expense, error) {
	return t.store.ListExpenses(ctx)
}

// ListGroupExpenses returns a group's expenses, oldest first.
func (t *Tracker) ListGroupExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	if _, err := t.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return t.store.ListExpensesByGroup(ctx, groupID)
}

// ListParticipantExpenses returns every expense a participant paid, personal
// ones included, oldest first.
func (t *Tracker) ListParticipantExpenses(ctx context.Context, participantID string) ([]*models.Expense, error) {
	if _, err := t.store.GetParticipant(ctx, participantID); err != nil {
		return nil, err
	}
	return t.store.ListExpensesByPayer(ctx, participantID)
}

// DeleteExpense removes an expense and its splits. The group's live ledger is
// dropped and rebuilt from the remaining history on next use.
func (t *Tracker) DeleteExpense(ctx context.Context, id string) error {
	expense, err := t.store.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if err := t.store.DeleteExpense(ctx, id); err != nil {
		return err
	}

	if !expense.IsPersonal() {
		t.evict(expense.GroupID)
		t.invalidate(ctx, expense.GroupID)
	}
	t.metrics.ExpenseDeleted()

	t.logger.Info("Expense deleted", "expense_id", id, "group_id", expense.GroupID)
	return nil
}
