// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a unique key (email, group name) is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// ParticipantStore persists participants.
type ParticipantStore interface {
	// CreateParticipant persists a new participant.
	// The ID and CreatedAt fields are populated by the store.
	CreateParticipant(ctx context.Context, p *models.Participant) error
	GetParticipant(ctx context.Context, id string) (*models.Participant, error)
	GetParticipantByEmail(ctx context.Context, email string) (*models.Participant, error)
	UpdateParticipant(ctx context.Context, p *models.Participant) error
	ListParticipants(ctx context.Context) ([]*models.Participant, error)

	// DeleteParticipant removes the participant and their group memberships.
	// Expenses they paid and their splits are kept.
	DeleteParticipant(ctx context.Context, id string) error
}

// GroupStore persists groups and memberships.
type GroupStore interface {
	// CreateGroup persists a new group with its initial members.
	// The ID and CreatedAt fields are populated by the store.
	CreateGroup(ctx context.Context, g *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)

	// GetGroupByName looks a group up by name, case-insensitively.
	GetGroupByName(ctx context.Context, name string) (*models.Group, error)
	ListGroups(ctx context.Context) ([]*models.Group, error)
	ListGroupsByParticipant(ctx context.Context, participantID string) ([]*models.Group, error)

	// UpdateGroup changes the group's name. Membership changes go through
	// AddGroupMember and RemoveGroupMember.
	UpdateGroup(ctx context.Context, g *models.Group) error

	// DeleteGroup removes the group with its memberships, expenses, splits
	// and settlements.
	DeleteGroup(ctx context.Context, id string) error

	// AddGroupMember is a no-op if the participant is already a member.
	AddGroupMember(ctx context.Context, groupID, participantID string) error
	RemoveGroupMember(ctx context.Context, groupID, participantID string) error
}

// ExpenseStore persists expenses and their splits.
type ExpenseStore interface {
	// CreateExpense writes the expense and all of its splits atomically.
	// The ID and CreatedAt fields are populated by the store.
	CreateExpense(ctx context.Context, e *models.Expense) error
	GetExpense(ctx context.Context, id string) (*models.Expense, error)
	ListExpenses(ctx context.Context) ([]*models.Expense, error)
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)
	ListExpensesByPayer(ctx context.Context, participantID string) ([]*models.Expense, error)
	ListSplitsByParticipant(ctx context.Context, participantID string) ([]models.Split, error)

	// DeleteExpense removes the expense and all of its splits atomically.
	DeleteExpense(ctx context.Context, id string) error
}

// SettlementStore persists recorded payments.
type SettlementStore interface {
	CreateSettlement(ctx context.Context, s *models.Settlement) error
	GetSettlement(ctx context.Context, id string) (*models.Settlement, error)
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)
	DeleteSettlement(ctx context.Context, id string) error
}

// Store defines every persistence operation the tracker needs.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the tracker or service layers.
type Store interface {
	ParticipantStore
	GroupStore
	ExpenseStore
	SettlementStore

	// Close releases any resources held by the store.
	Close() error
}
