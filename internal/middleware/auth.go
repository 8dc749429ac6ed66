package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hongminglow/spamid-be/internal/http/respond"
	"github.com/hongminglow/spamid-be/internal/models"
)

// TokenParser extracts the person id from a bearer token.
type TokenParser interface {
	Parse(raw string) (uuid.UUID, error)
}

// PersonLoader fetches the authenticated person.
type PersonLoader interface {
	Get(ctx context.Context, id uuid.UUID) (models.Person, error)
}

type personKey struct{}

// Authenticate rejects requests without a valid bearer token for an active user
// and stores that user on the request context for the handler to pass on.
func Authenticate(tokens TokenParser, persons PersonLoader, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "authentication credentials were not provided")
				return
			}
			id, err := tokens.Parse(raw)
			if err != nil {
				log.Debug("rejected bearer token", zap.Error(err))
				respond.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}
			person, err := persons.Get(r.Context(), id)
			if err != nil || person.Type != models.TypeUser || !person.IsActive {
				respond.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), personKey{}, person)))
		})
	}
}

// PersonFrom returns the authenticated person stored by Authenticate.
func PersonFrom(ctx context.Context) (models.Person, bool) {
	p, ok := ctx.Value(personKey{}).(models.Person)
	return p, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
