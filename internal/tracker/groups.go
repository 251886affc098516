package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateGroup creates a group with the given initial members. Group names
// are unique ignoring case.
func (t *Tracker) CreateGroup(ctx context.Context, name string, members []string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidInput)
	}

	if _, err := t.store.GetGroupByName(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateGroupName, name)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	group := &models.Group{
		Name:      name,
		Members:   dedupe(members),
		CreatedAt: t.now().Unix(),
	}
	if err := t.store.CreateGroup(ctx, group); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateGroupName, name)
		}
		return nil, err
	}

	// A new group has no history, so its ledger starts warm.
	t.mu.Lock()
	t.ledgers[group.ID] = ledger.New(group.ID, group.Name, group.Members, t.feed)
	t.metrics.SetWarmLedgers(len(t.ledgers))
	t.mu.Unlock()

	t.logger.Info("Group created", "group_id", group.ID, "name", group.Name, "members_count", len(group.Members))
	return group, nil
}

// GetGroup returns a group with its members in join order.
func (t *Tracker) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	return t.store.GetGroup(ctx, id)
}

// ListGroups returns every group ordered by name.
func (t *Tracker) ListGroups(ctx context.Context) ([]*models.Group, error) {
	return t.store.ListGroups(ctx)
}

// ListParticipantGroups returns the groups a participant belongs to.
func (t *Tracker) ListParticipantGroups(ctx context.Context, participantID string) ([]*models.Group, error) {
	if _, err := t.store.GetParticipant(ctx, participantID); err != nil {
		return nil, err
	}
	return t.store.ListGroupsByParticipant(ctx, participantID)
}

// RenameGroup changes a group's name, keeping names unique ignoring case.
func (t *Tracker) RenameGroup(ctx context.Context, id, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidInput)
	}

	if other, err := t.store.GetGroupByName(ctx, name); err == nil && other.ID != id {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateGroupName, name)
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	if err := t.store.UpdateGroup(ctx, &models.Group{ID: id, Name: name}); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateGroupName, name)
		}
		return nil, err
	}
	if l, ok := t.warmLedger(id); ok {
		l.Rename(name)
	}

	t.logger.Info("Group renamed", "group_id", id, "name", name)
	return t.store.GetGroup(ctx, id)
}

// DeleteGroup removes a group with its memberships, expenses and settlements.
func (t *Tracker) DeleteGroup(ctx context.Context, id string) error {
	if err := t.store.DeleteGroup(ctx, id); err != nil {
		return err
	}
	t.evict(id)
	t.invalidate(ctx, id)

	t.logger.Info("Group deleted", "group_id", id)
	return nil
}

// AddMember adds a participant to a group. Adding an existing member is a no-op.
//
// A participant rejoining a group with persisted history gets that history
// back: the ledger is dropped and replayed rather than given an empty row.
func (t *Tracker) AddMember(ctx context.Context, groupID, participantID string) error {
	l, err := t.ledgerFor(ctx, groupID)
	if err != nil {
		return err
	}
	epoch := t.epochOf(groupID)
	if err := t.store.AddGroupMember(ctx, groupID, participantID); err != nil {
		return err
	}
	if !l.AddMember(participantID) {
		return nil
	}
	t.dropIfReplaced(groupID, l, epoch)

	expenses, settlements, err := t.history(ctx, groupID)
	if err != nil {
		t.evict(groupID)
		return err
	}
	if appearsIn(participantID, expenses, settlements) {
		t.evict(groupID)
		t.logger.Debug("Returning member has history, ledger dropped", "group_id", groupID, "participant_id", participantID)
	}
	t.invalidate(ctx, groupID)

	t.logger.Info("Member added", "group_id", groupID, "participant_id", participantID)
	return nil
}

// RemoveMember removes a participant from a group. Their outstanding
// balances inside the group are discarded, not settled.
func (t *Tracker) RemoveMember(ctx context.Context, groupID, participantID string) error {
	l, err := t.ledgerFor(ctx, groupID)
	if err != nil {
		return err
	}
	epoch := t.epochOf(groupID)
	if err := t.store.RemoveGroupMember(ctx, groupID, participantID); err != nil {
		return err
	}
	l.RemoveMember(participantID)
	t.dropIfReplaced(groupID, l, epoch)
	t.invalidate(ctx, groupID)

	t.logger.Info("Member removed", "group_id", groupID, "participant_id", participantID)
	return nil
}

// appearsIn reports whether id paid, owes or settled anything in the history.
func appearsIn(id string, expenses []models.Expense, settlements []models.Settlement) bool {
	for _, e := range expenses {
		if e.PayerID == id {
			return true
		}
		for _, s := range e.Splits {
			if s.ParticipantID == id {
				return true
			}
		}
	}
	for _, s := range settlements {
		if s.FromID == id || s.ToID == id {
			return true
		}
	}
	return false
}

// dedupe drops empty and repeated ids, keeping first occurrences in order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
