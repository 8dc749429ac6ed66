// Package contacts maintains the owner -> person contact graph.
package contacts

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/spamid-be/internal/apperr"
	"github.com/hongminglow/spamid-be/internal/identity"
	"github.com/hongminglow/spamid-be/internal/metrics"
	"github.com/hongminglow/spamid-be/internal/models"
	"github.com/hongminglow/spamid-be/internal/storage"
)

// Resolver is the identity entry point the graph resolves targets through.
type Resolver interface {
	ResolveOrCreate(ctx context.Context, phoneNumber string, role models.PersonType, attrs identity.Attrs) (models.Person, error)
}

// Graph adds and lists contacts.
type Graph struct {
	store    storage.ContactStore
	resolver Resolver
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// NewGraph wires a contact graph.
func NewGraph(store storage.ContactStore, resolver Resolver, log *zap.Logger, m *metrics.Metrics) *Graph {
	if log == nil {
		log = zap.NewNop()
	}
	return &Graph{store: store, resolver: resolver, log: log, metrics: m}
}

// Add saves phoneNumber in owner's contact list under alias. The target is
// created as a contact placeholder when the number is unknown.
func (g *Graph) Add(ctx context.Context, owner models.Person, phoneNumber, alias string) (models.ContactEdge, error) {
	phoneNumber, err := identity.NormalizePhone(phoneNumber)
	if err != nil {
		return models.ContactEdge{}, err
	}
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return models.ContactEdge{}, apperr.Validation("name is required")
	}

	exists, err := g.store.HasContactByPhone(ctx, owner.ID, phoneNumber)
	if err != nil {
		return models.ContactEdge{}, apperr.Internal("failed to check contact", err)
	}
	if exists {
		g.metrics.IncrementRejections(string(apperr.KindDuplicateContact))
		return models.ContactEdge{}, apperr.ErrDuplicateContact
	}

	// A new placeholder takes the first owner's alias as its own name. Later
	// aliases stay on their edges and never rename the record.
	target, err := g.resolver.ResolveOrCreate(ctx, phoneNumber, models.TypeContact, identity.Attrs{Name: alias})
	if err != nil {
		return models.ContactEdge{}, err
	}

	edge, err := g.store.CreateContact(ctx, models.ContactEdge{
		OwnerID:  owner.ID,
		TargetID: target.ID,
		Name:     alias,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			g.metrics.IncrementRejections(string(apperr.KindDuplicateContact))
			return models.ContactEdge{}, apperr.ErrDuplicateContact
		}
		return models.ContactEdge{}, apperr.Internal("failed to create contact", err)
	}
	g.log.Debug("contact added",
		zap.String("owner_id", owner.ID.String()),
		zap.String("target_id", target.ID.String()))
	g.metrics.IncrementContactsAdded()
	return edge, nil
}

// List returns owner's contacts in the order they were added. Each entry
// carries the owner's alias, never the target's own name.
func (g *Graph) List(ctx context.Context, owner models.Person) ([]models.Contact, error) {
	contacts, err := g.store.ListContacts(ctx, owner.ID)
	if err != nil {
		return nil, apperr.Internal("failed to list contacts", err)
	}
	return contacts, nil
}
