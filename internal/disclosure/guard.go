// Package disclosure decides which private profile fields a viewer may see.
package disclosure

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hongminglow/spamid-be/internal/apperr"
	"github.com/hongminglow/spamid-be/internal/identity"
	"github.com/hongminglow/spamid-be/internal/models"
	"github.com/hongminglow/spamid-be/internal/storage"
)

// Store is the read surface the guard needs.
type Store interface {
	FindPersonByPhone(ctx context.Context, phoneNumber string) (models.Person, error)
	HasContact(ctx context.Context, ownerID, targetID uuid.UUID) (bool, error)
}

// Scorer supplies the spam score shown on profiles.
type Scorer interface {
	Score(ctx context.Context, personID uuid.UUID) (int, error)
}

// Guard gates private fields on contact-graph membership.
type Guard struct {
	store  Store
	scores Scorer
}

// NewGuard wires a guard.
func NewGuard(store Store, scores Scorer) *Guard {
	return &Guard{store: store, scores: scores}
}

// VisibleEmail returns subject's email when viewer is the subject or is saved
// in the subject's own contact list. Trust is one-directional: saving someone
// does not let you see their email.
func (g *Guard) VisibleEmail(ctx context.Context, viewer, subject models.Person) (*string, error) {
	if subject.Email == nil {
		return nil, nil
	}
	if viewer.ID == subject.ID {
		return subject.Email, nil
	}
	trusted, err := g.store.HasContact(ctx, subject.ID, viewer.ID)
	if err != nil {
		return nil, apperr.Internal("failed to check contact", err)
	}
	if !trusted {
		return nil, nil
	}
	return subject.Email, nil
}

// Profile returns the person holding phoneNumber as viewer may see it.
func (g *Guard) Profile(ctx context.Context, viewer models.Person, phoneNumber string) (models.Profile, error) {
	phoneNumber, err := identity.NormalizePhone(phoneNumber)
	if err != nil {
		return models.Profile{}, err
	}
	subject, err := g.store.FindPersonByPhone(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Profile{}, apperr.ErrNotFound
		}
		return models.Profile{}, apperr.Internal("failed to fetch profile", err)
	}

	email, err := g.VisibleEmail(ctx, viewer, subject)
	if err != nil {
		return models.Profile{}, err
	}
	score, err := g.scores.Score(ctx, subject.ID)
	if err != nil {
		return models.Profile{}, err
	}
	return models.Profile{
		ID:          subject.ID,
		Name:        subject.DisplayName(),
		PhoneNumber: subject.PhoneNumber,
		Email:       email,
		SpamReports: score,
	}, nil
}
