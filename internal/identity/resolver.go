// Package identity resolves phone numbers to Person records and owns the only
// code path that changes a record's type.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/spamid-be/internal/apperr"
	"github.com/hongminglow/spamid-be/internal/metrics"
	"github.com/hongminglow/spamid-be/internal/models"
	"github.com/hongminglow/spamid-be/internal/storage"
)

// MaxPhoneLength is the longest phone number an identity may carry.
const MaxPhoneLength = 15

// MinPasswordLength is the shortest accepted registration password.
const MinPasswordLength = 8

// Hasher hashes and verifies credentials.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// Attrs carries the optional fields applied when a record is created or upgraded.
type Attrs struct {
	Name     string
	Email    string
	Password string
}

// Resolver maps phone numbers to identities, creating placeholders on first
// reference and upgrading them on registration.
type Resolver struct {
	store   storage.PersonStore
	hasher  Hasher
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewResolver wires a resolver over store.
func NewResolver(store storage.PersonStore, hasher Hasher, log *zap.Logger, m *metrics.Metrics) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: store, hasher: hasher, log: log, metrics: m}
}

// ResolveOrCreate returns the identity for phoneNumber, creating it with role
// when absent. Contact and spam references never modify an existing record.
// A user request upgrades a placeholder in place and fails with
// IdentityConflict when the number already belongs to a user.
func (r *Resolver) ResolveOrCreate(ctx context.Context, phoneNumber string, role models.PersonType, attrs Attrs) (models.Person, error) {
	phoneNumber, err := NormalizePhone(phoneNumber)
	if err != nil {
		return models.Person{}, err
	}

	candidate := models.Person{PhoneNumber: phoneNumber, Type: role}
	var hash string
	switch role {
	case models.TypeUser:
		if hash, err = r.hasher.Hash(attrs.Password); err != nil {
			return models.Person{}, apperr.Internal("failed to hash password", err)
		}
		candidate.Name = models.StringPtr(attrs.Name)
		candidate.Email = models.StringPtr(NormalizeEmail(attrs.Email))
		candidate.PasswordHash = &hash
	case models.TypeContact:
		candidate.Name = models.StringPtr(attrs.Name)
	case models.TypeSpam:
	default:
		return models.Person{}, apperr.Validation(fmt.Sprintf("unknown person type %q", role))
	}

	person, created, err := r.store.EnsurePerson(ctx, candidate)
	if err != nil {
		return models.Person{}, apperr.Internal("failed to resolve identity", err)
	}
	if created {
		r.log.Debug("identity created", zap.String("type", role.String()), zap.String("person_id", person.ID.String()))
		if role == models.TypeUser {
			r.metrics.IncrementRegistrations("created")
		}
		return person, nil
	}
	if role != models.TypeUser {
		return person, nil
	}
	if !person.Type.CanBecome(models.TypeUser) {
		r.metrics.IncrementRejections(string(apperr.KindIdentityConflict))
		return models.Person{}, apperr.ErrIdentityConflict
	}

	upgraded, err := r.store.PromoteToUser(ctx, person.ID, attrs.Name, candidate.Email, hash)
	switch {
	case errors.Is(err, storage.ErrConflict):
		// Another registration promoted the record first.
		r.metrics.IncrementRejections(string(apperr.KindIdentityConflict))
		return models.Person{}, apperr.ErrIdentityConflict
	case errors.Is(err, storage.ErrNotFound):
		return models.Person{}, apperr.Internal("identity disappeared during upgrade", err)
	case err != nil:
		return models.Person{}, apperr.Internal("failed to upgrade identity", err)
	}
	r.log.Info("placeholder upgraded to user",
		zap.String("person_id", upgraded.ID.String()),
		zap.String("previous_type", person.Type.String()))
	r.metrics.IncrementRegistrations("upgraded")
	return upgraded, nil
}

// NormalizePhone trims the number and checks it fits an identity key.
func NormalizePhone(phoneNumber string) (string, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if phoneNumber == "" {
		return "", apperr.Validation("phone number is required")
	}
	if len(phoneNumber) > MaxPhoneLength {
		return "", apperr.Validation(fmt.Sprintf("phone number must be at most %d characters", MaxPhoneLength))
	}
	return phoneNumber, nil
}

// NormalizeEmail lower-cases the domain part of an address.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}
	return local + "@" + strings.ToLower(domain)
}
