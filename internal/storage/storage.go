package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hongminglow/spamid-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrConflict indicates the record was not in the state a conditional write expected.
var ErrConflict = errors.New("record state conflict")

// PersonStore owns identity records keyed by phone number.
type PersonStore interface {
	// EnsurePerson inserts p unless a record with the same phone number exists.
	// It returns the stored record and whether this call created it.
	EnsurePerson(ctx context.Context, p models.Person) (models.Person, bool, error)
	// PromoteToUser turns a placeholder into a user. It returns ErrConflict when
	// the record is already a user and ErrNotFound when it does not exist.
	PromoteToUser(ctx context.Context, id uuid.UUID, name string, email *string, passwordHash string) (models.Person, error)
	FindPersonByID(ctx context.Context, id uuid.UUID) (models.Person, error)
	FindPersonByPhone(ctx context.Context, phoneNumber string) (models.Person, error)
	DeletePerson(ctx context.Context, id uuid.UUID) error
}

// ContactStore owns owner -> target edges.
type ContactStore interface {
	CreateContact(ctx context.Context, edge models.ContactEdge) (models.ContactEdge, error)
	HasContact(ctx context.Context, ownerID, targetID uuid.UUID) (bool, error)
	HasContactByPhone(ctx context.Context, ownerID uuid.UUID, phoneNumber string) (bool, error)
	ListContacts(ctx context.Context, ownerID uuid.UUID) ([]models.Contact, error)
}

// SpamStore owns reporter -> target edges.
type SpamStore interface {
	CreateSpamReport(ctx context.Context, edge models.SpamEdge) (models.SpamEdge, error)
	CountSpamReports(ctx context.Context, targetID uuid.UUID) (int, error)
}

// SearchStore exposes the read paths used by the search ranker.
type SearchStore interface {
	FindUserByPhone(ctx context.Context, phoneNumber string) (models.Person, error)
	ListAliasesByPhone(ctx context.Context, phoneNumber string) ([]models.Alias, error)
	// SearchCandidates returns every person whose own name or some alias pointing
	// at it contains query, case-insensitively. Aliases holds only the matching ones.
	SearchCandidates(ctx context.Context, query string) ([]models.Candidate, error)
}

// Store is the full persistence surface.
type Store interface {
	PersonStore
	ContactStore
	SpamStore
	SearchStore
	Close()
}
