package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/spamid-be/internal/models"
	"github.com/hongminglow/spamid-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type edgeKey struct {
	from uuid.UUID
	to   uuid.UUID
}

// Store keeps the identity graph in process. A single lock serializes writers,
// which gives the same per-key atomicity the Postgres unique indexes provide.
type Store struct {
	mu sync.RWMutex

	persons map[uuid.UUID]models.Person
	byPhone map[string]uuid.UUID

	contacts    []models.ContactEdge
	contactKeys map[edgeKey]struct{}

	reports    []models.SpamEdge
	reportKeys map[edgeKey]struct{}

	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		persons:     make(map[uuid.UUID]models.Person),
		byPhone:     make(map[string]uuid.UUID),
		contactKeys: make(map[edgeKey]struct{}),
		reportKeys:  make(map[edgeKey]struct{}),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Close is a no-op.
func (s *Store) Close() {}

func (s *Store) EnsurePerson(_ context.Context, p models.Person) (models.Person, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byPhone[p.PhoneNumber]; ok {
		return s.persons[id], false, nil
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := s.now()
	p.IsActive = true
	p.CreatedAt, p.UpdatedAt = now, now
	s.persons[p.ID] = p
	s.byPhone[p.PhoneNumber] = p.ID
	return p, true, nil
}

func (s *Store) PromoteToUser(_ context.Context, id uuid.UUID, name string, email *string, passwordHash string) (models.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.persons[id]
	if !ok {
		return models.Person{}, storage.ErrNotFound
	}
	if p.Type == models.TypeUser {
		return models.Person{}, storage.ErrConflict
	}
	p.Name = &name
	if email != nil {
		p.Email = email
	}
	p.PasswordHash = &passwordHash
	p.Type = models.TypeUser
	p.UpdatedAt = s.now()
	s.persons[id] = p
	return p, nil
}

func (s *Store) FindPersonByID(_ context.Context, id uuid.UUID) (models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.persons[id]; ok {
		return p, nil
	}
	return models.Person{}, storage.ErrNotFound
}

func (s *Store) FindPersonByPhone(_ context.Context, phoneNumber string) (models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byPhone[phoneNumber]; ok {
		return s.persons[id], nil
	}
	return models.Person{}, storage.ErrNotFound
}

func (s *Store) FindUserByPhone(ctx context.Context, phoneNumber string) (models.Person, error) {
	p, err := s.FindPersonByPhone(ctx, phoneNumber)
	if err != nil {
		return models.Person{}, err
	}
	if p.Type != models.TypeUser {
		return models.Person{}, storage.ErrNotFound
	}
	return p, nil
}

// DeletePerson mirrors the Postgres foreign keys: contact edges on either side
// and reports filed by the person go away, reports against them lose their target.
func (s *Store) DeletePerson(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.persons[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.persons, id)
	delete(s.byPhone, p.PhoneNumber)

	contacts := s.contacts[:0]
	for _, c := range s.contacts {
		if c.OwnerID == id || c.TargetID == id {
			delete(s.contactKeys, edgeKey{c.OwnerID, c.TargetID})
			continue
		}
		contacts = append(contacts, c)
	}
	s.contacts = contacts

	reports := s.reports[:0]
	for _, r := range s.reports {
		if r.ReporterID == id {
			if r.TargetID != nil {
				delete(s.reportKeys, edgeKey{r.ReporterID, *r.TargetID})
			}
			continue
		}
		if r.TargetID != nil && *r.TargetID == id {
			delete(s.reportKeys, edgeKey{r.ReporterID, id})
			r.TargetID = nil
		}
		reports = append(reports, r)
	}
	s.reports = reports
	return nil
}

func (s *Store) CreateContact(_ context.Context, edge models.ContactEdge) (models.ContactEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := edgeKey{edge.OwnerID, edge.TargetID}
	if _, dup := s.contactKeys[key]; dup {
		return models.ContactEdge{}, storage.ErrAlreadyExists
	}
	if edge.ID == uuid.Nil {
		edge.ID = uuid.New()
	}
	edge.CreatedAt = s.now()
	s.contactKeys[key] = struct{}{}
	s.contacts = append(s.contacts, edge)
	return edge, nil
}

func (s *Store) HasContact(_ context.Context, ownerID, targetID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.contactKeys[edgeKey{ownerID, targetID}]
	return ok, nil
}

func (s *Store) HasContactByPhone(_ context.Context, ownerID uuid.UUID, phoneNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	targetID, ok := s.byPhone[phoneNumber]
	if !ok {
		return false, nil
	}
	_, ok = s.contactKeys[edgeKey{ownerID, targetID}]
	return ok, nil
}

func (s *Store) ListContacts(_ context.Context, ownerID uuid.UUID) ([]models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Contact
	for _, c := range s.contacts {
		if c.OwnerID != ownerID {
			continue
		}
		out = append(out, models.Contact{
			ID:          c.ID,
			PhoneNumber: s.persons[c.TargetID].PhoneNumber,
			Name:        c.Name,
			CreatedAt:   c.CreatedAt,
		})
	}
	return out, nil
}

func (s *Store) CreateSpamReport(_ context.Context, edge models.SpamEdge) (models.SpamEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if edge.TargetID != nil {
		key := edgeKey{edge.ReporterID, *edge.TargetID}
		if _, dup := s.reportKeys[key]; dup {
			return models.SpamEdge{}, storage.ErrAlreadyExists
		}
		s.reportKeys[key] = struct{}{}
	}
	if edge.ID == uuid.Nil {
		edge.ID = uuid.New()
	}
	edge.CreatedAt = s.now()
	s.reports = append(s.reports, edge)
	return edge, nil
}

func (s *Store) CountSpamReports(_ context.Context, targetID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reporters := make(map[uuid.UUID]struct{})
	for _, r := range s.reports {
		if r.TargetID != nil && *r.TargetID == targetID {
			reporters[r.ReporterID] = struct{}{}
		}
	}
	return len(reporters), nil
}

func (s *Store) ListAliasesByPhone(_ context.Context, phoneNumber string) ([]models.Alias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	targetID, ok := s.byPhone[phoneNumber]
	if !ok {
		return nil, nil
	}
	var out []models.Alias
	for _, c := range s.contacts {
		if c.TargetID != targetID {
			continue
		}
		out = append(out, models.Alias{
			EdgeID:      c.ID,
			OwnerID:     c.OwnerID,
			TargetID:    c.TargetID,
			PhoneNumber: phoneNumber,
			Name:        c.Name,
			CreatedAt:   c.CreatedAt,
		})
	}
	return out, nil
}

func (s *Store) SearchCandidates(_ context.Context, query string) ([]models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	aliases := make(map[uuid.UUID][]string)
	for _, c := range s.contacts {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			aliases[c.TargetID] = append(aliases[c.TargetID], c.Name)
		}
	}

	var out []models.Candidate
	for id, p := range s.persons {
		matched := aliases[id]
		if len(matched) == 0 && !strings.Contains(strings.ToLower(p.DisplayName()), needle) {
			continue
		}
		sort.Strings(matched)
		out = append(out, models.Candidate{Person: p, Aliases: matched})
	}
	return out, nil
}
