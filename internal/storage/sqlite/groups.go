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

// CreateGroup persists a new group and its initial members.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = s.now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO groups (id, name, created_at) VALUES (?, ?, ?)`,
		group.ID, group.Name, group.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: group named %q", storage.ErrAlreadyExists, group.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	for _, memberID := range group.Members {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO group_members (group_id, participant_id) VALUES (?, ?)`,
			group.ID, memberID,
		); isForeignKeyViolation(err) {
			return fmt.Errorf("%w: participant %s", storage.ErrNotFound, memberID)
		} else if err != nil {
			return fmt.Errorf("failed to insert group member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetGroup retrieves a group with its members.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return s.getGroup(ctx, `SELECT id, name, created_at FROM groups WHERE id = ?`, groupID)
}

// GetGroupByName retrieves a group by name, ignoring case.
func (s *SQLiteStore) GetGroupByName(ctx context.Context, name string) (*models.Group, error) {
	return s.getGroup(ctx, `SELECT id, name, created_at FROM groups WHERE name = ?`, name)
}

func (s *SQLiteStore) getGroup(ctx context.Context, query, key string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx, query, key).Scan(&group.ID, &group.Name, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: group %s", storage.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	members, err := s.groupMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	group.Members = members

	return group, nil
}

// groupMembers returns member IDs in join order.
func (s *SQLiteStore) groupMembers(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT participant_id FROM group_members WHERE group_id = ? ORDER BY rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members = append(members, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}

	return members, nil
}

// ListGroups retrieves every group with its members, ordered by name.
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]*models.Group, error) {
	return s.listGroups(ctx,
		`SELECT id, name, created_at FROM groups ORDER BY name, id`)
}

// ListGroupsByParticipant retrieves the groups a participant belongs to.
func (s *SQLiteStore) ListGroupsByParticipant(ctx context.Context, participantID string) ([]*models.Group, error) {
	return s.listGroups(ctx,
		`SELECT g.id, g.name, g.created_at
		 FROM groups g
		 INNER JOIN group_members gm ON g.id = gm.group_id
		 WHERE gm.participant_id = ?
		 ORDER BY g.name, g.id`,
		participantID,
	)
}

func (s *SQLiteStore) listGroups(ctx context.Context, query string, args ...any) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	rows.Close()

	// Members are loaded after the outer cursor is released.
	for _, group := range groups {
		members, err := s.groupMembers(ctx, group.ID)
		if err != nil {
			return nil, err
		}
		group.Members = members
	}

	return groups, nil
}

// UpdateGroup renames a group.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE groups SET name = ? WHERE id = ?`,
		group.Name, group.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: group named %q", storage.ErrAlreadyExists, group.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	return requireAffected(res, "group", group.ID)
}

// DeleteGroup removes a group. Memberships, expenses, splits and settlements
// are removed by the foreign key cascades.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return requireAffected(res, "group", groupID)
}

// AddGroupMember adds a participant to a group. Adding an existing member is a no-op.
func (s *SQLiteStore) AddGroupMember(ctx context.Context, groupID, participantID string) error {
	ok, err := s.exists(ctx, `SELECT 1 FROM groups WHERE id = ?`, groupID)
	if err != nil {
		return fmt.Errorf("failed to check group existence: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: group %s", storage.ErrNotFound, groupID)
	}

	ok, err = s.exists(ctx, `SELECT 1 FROM participants WHERE id = ?`, participantID)
	if err != nil {
		return fmt.Errorf("failed to check participant existence: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: participant %s", storage.ErrNotFound, participantID)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO group_members (group_id, participant_id) VALUES (?, ?)`,
		groupID, participantID,
	)
	if err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

// RemoveGroupMember removes a participant from a group.
func (s *SQLiteStore) RemoveGroupMember(ctx context.Context, groupID, participantID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND participant_id = ?`,
		groupID, participantID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove group member: %w", err)
	}
	return requireAffected(res, "group member", participantID)
}
