// Package spam records spam reports and derives spam scores from them.
package spam

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hongminglow/spamid-be/internal/apperr"
	"github.com/hongminglow/spamid-be/internal/identity"
	"github.com/hongminglow/spamid-be/internal/metrics"
	"github.com/hongminglow/spamid-be/internal/models"
	"github.com/hongminglow/spamid-be/internal/storage"
)

// Resolver is the identity entry point the ledger resolves targets through.
type Resolver interface {
	ResolveOrCreate(ctx context.Context, phoneNumber string, role models.PersonType, attrs identity.Attrs) (models.Person, error)
}

// Ledger accepts spam reports and answers spam scores.
type Ledger struct {
	store    storage.SpamStore
	resolver Resolver
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// NewLedger wires a spam ledger.
func NewLedger(store storage.SpamStore, resolver Resolver, log *zap.Logger, m *metrics.Metrics) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{store: store, resolver: resolver, log: log, metrics: m}
}

// Report flags phoneNumber as spam on behalf of reporter. Unknown numbers get
// a spam placeholder; each reporter may flag a number once.
func (l *Ledger) Report(ctx context.Context, reporter models.Person, phoneNumber string) (models.SpamEdge, error) {
	phoneNumber, err := identity.NormalizePhone(phoneNumber)
	if err != nil {
		return models.SpamEdge{}, err
	}
	if phoneNumber == reporter.PhoneNumber {
		l.metrics.IncrementRejections(string(apperr.KindSelfReport))
		return models.SpamEdge{}, apperr.ErrSelfReport
	}

	target, err := l.resolver.ResolveOrCreate(ctx, phoneNumber, models.TypeSpam, identity.Attrs{})
	if err != nil {
		return models.SpamEdge{}, err
	}

	edge, err := l.store.CreateSpamReport(ctx, models.SpamEdge{
		ReporterID: reporter.ID,
		TargetID:   &target.ID,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			l.metrics.IncrementRejections(string(apperr.KindDuplicateReport))
			return models.SpamEdge{}, apperr.ErrDuplicateReport
		}
		return models.SpamEdge{}, apperr.Internal("failed to create spam report", err)
	}
	l.log.Info("spam reported",
		zap.String("reporter_id", reporter.ID.String()),
		zap.String("target_id", target.ID.String()))
	l.metrics.IncrementSpamReports()
	return edge, nil
}

// Score counts the distinct reporters of a person. It is never cached.
func (l *Ledger) Score(ctx context.Context, personID uuid.UUID) (int, error) {
	n, err := l.store.CountSpamReports(ctx, personID)
	if err != nil {
		return 0, apperr.Internal("failed to count spam reports", err)
	}
	return n, nil
}
