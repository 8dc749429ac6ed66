// Package search answers name and phone-number lookups over the identity graph.
package search

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hongminglow/spamid-be/internal/apperr"
	"github.com/hongminglow/spamid-be/internal/identity"
	"github.com/hongminglow/spamid-be/internal/metrics"
	"github.com/hongminglow/spamid-be/internal/models"
	"github.com/hongminglow/spamid-be/internal/storage"
)

// Mode selects what the query is matched against.
type Mode string

const (
	ModeName        Mode = "name"
	ModePhoneNumber Mode = "phone_number"
)

// MinNameQueryLength is the shortest accepted name query.
const MinNameQueryLength = 3

// ParseMode validates a raw mode value.
func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.TrimSpace(raw)); m {
	case ModeName, ModePhoneNumber:
		return m, nil
	default:
		return "", apperr.Validation(fmt.Sprintf("search_by must be %q or %q", ModeName, ModePhoneNumber))
	}
}

// Scorer supplies the spam score attached to each result.
type Scorer interface {
	Score(ctx context.Context, personID uuid.UUID) (int, error)
}

// Service runs searches.
type Service struct {
	store   storage.SearchStore
	scores  Scorer
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewService wires a search service.
func NewService(store storage.SearchStore, scores Scorer, log *zap.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, scores: scores, log: log, metrics: m}
}

// Search validates the request and returns a lazy result sequence. Nothing is
// read until the sequence is ranged over, and every range re-runs the query,
// so the same sequence can be consumed again with identical ordering. Spam
// scores are looked up only for rows the consumer actually receives.
func (s *Service) Search(ctx context.Context, mode Mode, query string) (iter.Seq2[models.SearchResult, error], error) {
	matches, err := s.matches(ctx, mode, query)
	if err != nil {
		return nil, err
	}
	return func(yield func(models.SearchResult, error) bool) {
		for row, err := range matches {
			if err == nil {
				row, err = s.score(ctx, row)
			}
			if err != nil {
				yield(models.SearchResult{}, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}, nil
}

// Page runs the search and returns the rows in [offset, offset+limit) with the
// total match count. A non-positive limit returns every row from offset. The
// full result set is ranked and counted, but only the returned rows are scored.
func (s *Service) Page(ctx context.Context, mode Mode, query string, offset, limit int) ([]models.SearchResult, int, error) {
	matches, err := s.matches(ctx, mode, query)
	if err != nil {
		return nil, 0, err
	}
	var (
		out   []models.SearchResult
		total int
	)
	for row, err := range matches {
		if err != nil {
			return nil, 0, err
		}
		if total >= offset && (limit <= 0 || len(out) < limit) {
			out = append(out, row)
		}
		total++
	}
	for i := range out {
		if out[i], err = s.score(ctx, out[i]); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

// matches validates the request and returns the ranked, unscored rows.
func (s *Service) matches(ctx context.Context, mode Mode, query string) (iter.Seq2[models.SearchResult, error], error) {
	query = strings.TrimSpace(query)
	switch mode {
	case ModeName:
		if query == "" {
			return nil, apperr.Validation("name is required when search_by is name")
		}
		if len([]rune(query)) < MinNameQueryLength {
			return nil, apperr.Validation(fmt.Sprintf("name must be at least %d characters", MinNameQueryLength))
		}
	case ModePhoneNumber:
		if query == "" {
			return nil, apperr.Validation("phone number is required when search_by is phone_number")
		}
		if _, err := identity.NormalizePhone(query); err != nil {
			return nil, err
		}
	default:
		return nil, apperr.Validation(fmt.Sprintf("unknown search mode %q", mode))
	}
	s.metrics.IncrementSearches(string(mode))

	return func(yield func(models.SearchResult, error) bool) {
		var (
			rows []models.SearchResult
			err  error
		)
		if mode == ModeName {
			rows, err = s.byName(ctx, query)
		} else {
			rows, err = s.byPhone(ctx, query)
		}
		if err != nil {
			yield(models.SearchResult{}, err)
			return
		}
		for _, row := range rows {
			if !yield(row, nil) {
				return
			}
		}
	}, nil
}

func (s *Service) score(ctx context.Context, row models.SearchResult) (models.SearchResult, error) {
	n, err := s.scores.Score(ctx, row.PersonID)
	if err != nil {
		return models.SearchResult{}, err
	}
	row.SpamReports = n
	return row, nil
}

// byPhone returns the registered user holding the number, or else one row per
// alias saved for it. Aliases from different owners are all kept.
func (s *Service) byPhone(ctx context.Context, phoneNumber string) ([]models.SearchResult, error) {
	user, err := s.store.FindUserByPhone(ctx, phoneNumber)
	if err == nil {
		return []models.SearchResult{{
			PersonID:    user.ID,
			Name:        user.DisplayName(),
			PhoneNumber: user.PhoneNumber,
		}}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Internal("failed to search by phone number", err)
	}

	aliases, err := s.store.ListAliasesByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, apperr.Internal("failed to search by phone number", err)
	}
	rows := make([]models.SearchResult, 0, len(aliases))
	for _, a := range aliases {
		rows = append(rows, models.SearchResult{
			PersonID:    a.TargetID,
			Name:        a.Name,
			PhoneNumber: a.PhoneNumber,
		})
	}
	return rows, nil
}

func (s *Service) byName(ctx context.Context, query string) ([]models.SearchResult, error) {
	candidates, err := s.store.SearchCandidates(ctx, query)
	if err != nil {
		return nil, apperr.Internal("failed to search by name", err)
	}
	ranked := Rank(query, candidates)
	s.log.Debug("name search ranked",
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(ranked)))

	rows := make([]models.SearchResult, 0, len(ranked))
	for _, r := range ranked {
		rows = append(rows, models.SearchResult{
			PersonID:    r.Person.ID,
			Name:        r.DisplayName,
			PhoneNumber: r.Person.PhoneNumber,
		})
	}
	return rows, nil
}
