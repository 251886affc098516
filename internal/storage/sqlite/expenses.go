package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const expenseColumns = `e.id, e.description, e.amount, e.payer_id, e.group_id, e.split_type, e.created_at`

// CreateExpense persists an expense and its splits in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = s.now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, description, amount, payer_id, group_id, split_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Description, expense.Amount.String(), expense.PayerID,
		nullable(expense.GroupID), string(expense.SplitType), expense.CreatedAt,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: group %s", storage.ErrNotFound, expense.GroupID)
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: expense %s", storage.ErrAlreadyExists, expense.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i := range expense.Splits {
		split := &expense.Splits[i]
		split.ExpenseID = expense.ID
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO splits (expense_id, participant_id, amount) VALUES (?, ?, ?)`,
			split.ExpenseID, split.ParticipantID, split.Amount.String(),
		); err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense with its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := scanExpense(s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses e WHERE e.id = ?`, expenseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: expense %s", storage.ErrNotFound, expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	expenses := []*models.Expense{expense}
	if err := s.attachSplits(ctx, expenses,
		`SELECT expense_id, participant_id, amount FROM splits WHERE expense_id = ? ORDER BY rowid`,
		expenseID,
	); err != nil {
		return nil, err
	}

	return expense, nil
}

// ListExpenses retrieves every expense, oldest first.
func (s *SQLiteStore) ListExpenses(ctx context.Context) ([]*models.Expense, error) {
	return s.listExpenses(ctx, "", nil)
}

// ListExpensesByGroup retrieves a group's expenses, oldest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx, `e.group_id = ?`, []any{groupID})
}

// ListExpensesByPayer retrieves every expense a participant paid, oldest first.
func (s *SQLiteStore) ListExpensesByPayer(ctx context.Context, participantID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx, `e.payer_id = ?`, []any{participantID})
}

// listExpenses loads the matching expenses, then their splits with one joined query.
func (s *SQLiteStore) listExpenses(ctx context.Context, where string, args []any) ([]*models.Expense, error) {
	filter := ""
	if where != "" {
		filter = " WHERE " + where
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses e`+filter+` ORDER BY e.created_at, e.rowid`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	if len(expenses) == 0 {
		return expenses, nil
	}

	if err := s.attachSplits(ctx, expenses,
		`SELECT s.expense_id, s.participant_id, s.amount
		 FROM splits s
		 INNER JOIN expenses e ON e.id = s.expense_id`+filter+`
		 ORDER BY s.rowid`,
		args...,
	); err != nil {
		return nil, err
	}

	return expenses, nil
}

// attachSplits runs a split query and appends each row to its expense.
func (s *SQLiteStore) attachSplits(ctx context.Context, expenses []*models.Expense, query string, args ...any) error {
	byID := make(map[string]*models.Expense, len(expenses))
	for _, e := range expenses {
		byID[e.ID] = e
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var split models.Split
		if err := rows.Scan(&split.ExpenseID, &split.ParticipantID, &split.Amount); err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		if e, ok := byID[split.ExpenseID]; ok {
			e.Splits = append(e.Splits, split)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate splits: %w", err)
	}

	return nil
}

// ListSplitsByParticipant retrieves every split owed by a participant, across groups.
func (s *SQLiteStore) ListSplitsByParticipant(ctx context.Context, participantID string) ([]models.Split, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.expense_id, s.participant_id, s.amount
		 FROM splits s
		 INNER JOIN expenses e ON e.id = s.expense_id
		 WHERE s.participant_id = ?
		 ORDER BY e.created_at, e.rowid`,
		participantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer rows.Close()

	var splits []models.Split
	for rows.Next() {
		var split models.Split
		if err := rows.Scan(&split.ExpenseID, &split.ParticipantID, &split.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	return splits, nil
}

// DeleteExpense removes an expense; its splits go with it through the cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return requireAffected(res, "expense", expenseID)
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	e := &models.Expense{}
	var groupID sql.NullString
	var splitType string
	if err := row.Scan(&e.ID, &e.Description, &e.Amount, &e.PayerID, &groupID, &splitType, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.GroupID = groupID.String
	e.SplitType = models.SplitType(splitType)
	return e, nil
}
