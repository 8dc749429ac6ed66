package identity

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hongminglow/spamid-be/internal/apperr"
	"github.com/hongminglow/spamid-be/internal/models"
	"github.com/hongminglow/spamid-be/internal/storage"
)

// RegisterInput is a self-registration request.
type RegisterInput struct {
	PhoneNumber string
	Name        string
	Email       string
	Password    string
}

// Register creates a user or upgrades the placeholder already holding the number.
func (r *Resolver) Register(ctx context.Context, in RegisterInput) (models.Person, error) {
	if err := validateRegistration(in); err != nil {
		return models.Person{}, err
	}
	return r.ResolveOrCreate(ctx, in.PhoneNumber, models.TypeUser, Attrs{
		Name:     strings.TrimSpace(in.Name),
		Email:    in.Email,
		Password: in.Password,
	})
}

// Authenticate checks a phone number and password pair. Placeholders and
// inactive records never authenticate.
func (r *Resolver) Authenticate(ctx context.Context, phoneNumber, password string) (models.Person, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if phoneNumber == "" || password == "" {
		return models.Person{}, apperr.Validation("phone number and password are required")
	}
	person, err := r.store.FindPersonByPhone(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Person{}, apperr.ErrInvalidCredentials
		}
		return models.Person{}, apperr.Internal("failed to fetch person", err)
	}
	if person.Type != models.TypeUser || !person.IsActive || !person.HasCredential() {
		return models.Person{}, apperr.ErrInvalidCredentials
	}
	if !r.hasher.Verify(password, *person.PasswordHash) {
		return models.Person{}, apperr.ErrInvalidCredentials
	}
	return person, nil
}

// Get fetches an identity by id.
func (r *Resolver) Get(ctx context.Context, id uuid.UUID) (models.Person, error) {
	person, err := r.store.FindPersonByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Person{}, apperr.ErrNotFound
		}
		return models.Person{}, apperr.Internal("failed to fetch person", err)
	}
	return person, nil
}

func validateRegistration(in RegisterInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("name is required")
	}
	if len(in.Password) < MinPasswordLength || !utf8.ValidString(in.Password) {
		return apperr.Validation("password must be at least 8 characters")
	}
	if email := strings.TrimSpace(in.Email); email != "" && !strings.Contains(email, "@") {
		return apperr.Validation("email is not valid")
	}
	return nil
}
