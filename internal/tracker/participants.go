package tracker

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/mmynk/splitledger/internal/models"
)

// CreateParticipant registers a new participant. The email must be unique.
func (t *Tracker) CreateParticipant(ctx context.Context, name, email string) (*models.Participant, error) {
	p := &models.Participant{
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		CreatedAt: t.now().Unix(),
	}
	if err := validateParticipant(p); err != nil {
		return nil, err
	}

	if err := t.store.CreateParticipant(ctx, p); err != nil {
		return nil, err
	}

	t.logger.Info("Participant created", "participant_id", p.ID, "name", p.Name)
	return p, nil
}

// GetParticipant returns a participant by ID.
func (t *Tracker) GetParticipant(ctx context.Context, id string) (*models.Participant, error) {
	return t.store.GetParticipant(ctx, id)
}

// FindParticipantByEmail looks a participant up by contact email.
func (t *Tracker) FindParticipantByEmail(ctx context.Context, email string) (*models.Participant, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	return t.store.GetParticipantByEmail(ctx, email)
}

// ListParticipants returns every participant ordered by name.
func (t *Tracker) ListParticipants(ctx context.Context) ([]*models.Participant, error) {
	return t.store.ListParticipants(ctx)
}

// UpdateParticipant changes a participant's name and/or email. Empty
// arguments leave the field unchanged.
func (t *Tracker) UpdateParticipant(ctx context.Context, id, name, email string) (*models.Participant, error) {
	p, err := t.store.GetParticipant(ctx, id)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		p.Name = name
	}
	if email = strings.TrimSpace(email); email != "" {
		p.Email = email
	}
	if err := validateParticipant(p); err != nil {
		return nil, err
	}

	if err := t.store.UpdateParticipant(ctx, p); err != nil {
		return nil, err
	}

	t.logger.Info("Participant updated", "participant_id", p.ID)
	return p, nil
}

// DeleteParticipant removes a participant and their memberships. Expenses
// they paid and their splits stay in the history.
func (t *Tracker) DeleteParticipant(ctx context.Context, id string) error {
	groups, err := t.store.ListGroupsByParticipant(ctx, id)
	if err != nil {
		return err
	}

	if err := t.store.DeleteParticipant(ctx, id); err != nil {
		return err
	}

	for _, g := range groups {
		if l, ok := t.warmLedger(g.ID); ok {
			l.RemoveMember(id)
		}
		t.invalidate(ctx, g.ID)
	}

	t.logger.Info("Participant deleted", "participant_id", id, "groups", len(groups))
	return nil
}

func validateParticipant(p *models.Participant) error {
	if p.Name == "" {
		return fmt.Errorf("%w: participant name is required", ErrInvalidInput)
	}
	if p.Email == "" {
		return fmt.Errorf("%w: participant email is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return fmt.Errorf("%w: malformed email %q", ErrInvalidInput, p.Email)
	}
	return nil
}
