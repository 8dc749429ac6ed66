package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongminglow/spamid-be/internal/models"
	"github.com/hongminglow/spamid-be/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const uniqueViolation = "23505"

// ensureAttempts bounds the insert/select loop in EnsurePerson; a retry is only
// needed when the conflicting row is deleted between the two statements.
const ensureAttempts = 3

const personColumns = `id, phone_number, name, email, password_hash, type, is_active, created_at, updated_at`

// Store provides Postgres-backed persistence for the identity graph.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS persons (
			id UUID PRIMARY KEY,
			phone_number VARCHAR(15) NOT NULL,
			name TEXT,
			email TEXT,
			password_hash TEXT,
			type TEXT NOT NULL CHECK (type IN ('user', 'contact', 'spam')),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS persons_phone_number_unique_idx ON persons (phone_number);`,
		`CREATE TABLE IF NOT EXISTS contacts (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
			target_id UUID NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS contacts_owner_target_unique_idx ON contacts (owner_id, target_id);`,
		`CREATE INDEX IF NOT EXISTS contacts_target_idx ON contacts (target_id);`,
		`CREATE TABLE IF NOT EXISTS spam_reports (
			id UUID PRIMARY KEY,
			reporter_id UUID NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
			target_id UUID REFERENCES persons(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS spam_reports_reporter_target_unique_idx ON spam_reports (reporter_id, target_id);`,
		`CREATE INDEX IF NOT EXISTS spam_reports_target_idx ON spam_reports (target_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// EnsurePerson inserts the person unless the phone number is taken, in which
// case the existing row is returned. The unique index decides the winner of
// concurrent inserts; losers read the winner's row.
func (s *Store) EnsurePerson(ctx context.Context, p models.Person) (models.Person, bool, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	const insert = `
		INSERT INTO persons (id, phone_number, name, email, password_hash, type, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (phone_number) DO NOTHING
		RETURNING ` + personColumns

	for range ensureAttempts {
		row := s.pool.QueryRow(ctx, insert, p.ID, p.PhoneNumber, p.Name, p.Email, p.PasswordHash, string(p.Type))
		created, err := scanPerson(row)
		if err == nil {
			return created, true, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return models.Person{}, false, fmt.Errorf("insert person: %w", err)
		}

		existing, err := s.FindPersonByPhone(ctx, p.PhoneNumber)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return models.Person{}, false, err
		}
	}
	return models.Person{}, false, fmt.Errorf("ensure person %s: %w", p.PhoneNumber, storage.ErrConflict)
}

// PromoteToUser upgrades a placeholder in a single conditional update.
func (s *Store) PromoteToUser(ctx context.Context, id uuid.UUID, name string, email *string, passwordHash string) (models.Person, error) {
	const query = `
		UPDATE persons
		SET name = $2,
			email = COALESCE($3, email),
			password_hash = $4,
			type = 'user',
			updated_at = NOW()
		WHERE id = $1 AND type <> 'user'
		RETURNING ` + personColumns

	promoted, err := scanPerson(s.pool.QueryRow(ctx, query, id, name, email, passwordHash))
	if err == nil {
		return promoted, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.Person{}, fmt.Errorf("promote person: %w", err)
	}
	if _, err := s.FindPersonByID(ctx, id); err != nil {
		return models.Person{}, err
	}
	return models.Person{}, storage.ErrConflict
}

// FindPersonByID fetches a person by id.
func (s *Store) FindPersonByID(ctx context.Context, id uuid.UUID) (models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE id = $1`
	return scanPerson(s.pool.QueryRow(ctx, query, id))
}

// FindPersonByPhone fetches a person of any type by phone number.
func (s *Store) FindPersonByPhone(ctx context.Context, phoneNumber string) (models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE phone_number = $1`
	return scanPerson(s.pool.QueryRow(ctx, query, phoneNumber))
}

// FindUserByPhone fetches a registered user by phone number.
func (s *Store) FindUserByPhone(ctx context.Context, phoneNumber string) (models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE phone_number = $1 AND type = 'user'`
	return scanPerson(s.pool.QueryRow(ctx, query, phoneNumber))
}

// DeletePerson removes a person. Foreign keys cascade contact edges and the
// reports they filed; reports against them keep a NULL target.
func (s *Store) DeletePerson(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CreateContact inserts an owner -> target edge.
func (s *Store) CreateContact(ctx context.Context, edge models.ContactEdge) (models.ContactEdge, error) {
	if edge.ID == uuid.Nil {
		edge.ID = uuid.New()
	}
	const query = `
		INSERT INTO contacts (id, owner_id, target_id, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, owner_id, target_id, name, created_at`
	var out models.ContactEdge
	err := s.pool.QueryRow(ctx, query, edge.ID, edge.OwnerID, edge.TargetID, edge.Name).
		Scan(&out.ID, &out.OwnerID, &out.TargetID, &out.Name, &out.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ContactEdge{}, storage.ErrAlreadyExists
		}
		return models.ContactEdge{}, fmt.Errorf("insert contact: %w", err)
	}
	return out, nil
}

// HasContact reports whether owner has saved target.
func (s *Store) HasContact(ctx context.Context, ownerID, targetID uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM contacts WHERE owner_id = $1 AND target_id = $2)`
	var exists bool
	if err := s.pool.QueryRow(ctx, query, ownerID, targetID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check contact: %w", err)
	}
	return exists, nil
}

// HasContactByPhone reports whether owner has saved the given number.
func (s *Store) HasContactByPhone(ctx context.Context, ownerID uuid.UUID, phoneNumber string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM contacts c
			JOIN persons p ON p.id = c.target_id
			WHERE c.owner_id = $1 AND p.phone_number = $2
		)`
	var exists bool
	if err := s.pool.QueryRow(ctx, query, ownerID, phoneNumber).Scan(&exists); err != nil {
		return false, fmt.Errorf("check contact by phone: %w", err)
	}
	return exists, nil
}

// ListContacts returns the owner's contacts in creation order.
func (s *Store) ListContacts(ctx context.Context, ownerID uuid.UUID) ([]models.Contact, error) {
	const query = `
		SELECT c.id, p.phone_number, c.name, c.created_at
		FROM contacts c
		JOIN persons p ON p.id = c.target_id
		WHERE c.owner_id = $1
		ORDER BY c.created_at, c.id`
	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.PhoneNumber, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateSpamReport inserts a reporter -> target edge.
func (s *Store) CreateSpamReport(ctx context.Context, edge models.SpamEdge) (models.SpamEdge, error) {
	if edge.ID == uuid.Nil {
		edge.ID = uuid.New()
	}
	const query = `
		INSERT INTO spam_reports (id, reporter_id, target_id)
		VALUES ($1, $2, $3)
		RETURNING id, reporter_id, target_id, created_at`
	var out models.SpamEdge
	err := s.pool.QueryRow(ctx, query, edge.ID, edge.ReporterID, edge.TargetID).
		Scan(&out.ID, &out.ReporterID, &out.TargetID, &out.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.SpamEdge{}, storage.ErrAlreadyExists
		}
		return models.SpamEdge{}, fmt.Errorf("insert spam report: %w", err)
	}
	return out, nil
}

// CountSpamReports counts distinct reporters of target.
func (s *Store) CountSpamReports(ctx context.Context, targetID uuid.UUID) (int, error) {
	const query = `SELECT COUNT(DISTINCT reporter_id) FROM spam_reports WHERE target_id = $1`
	var n int
	if err := s.pool.QueryRow(ctx, query, targetID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count spam reports: %w", err)
	}
	return n, nil
}

// ListAliasesByPhone returns one row per contact edge targeting the number.
func (s *Store) ListAliasesByPhone(ctx context.Context, phoneNumber string) ([]models.Alias, error) {
	const query = `
		SELECT c.id, c.owner_id, p.id, p.phone_number, c.name, c.created_at
		FROM persons p
		INNER JOIN contacts c ON p.id = c.target_id
		WHERE p.phone_number = $1
		ORDER BY c.created_at, c.id`
	rows, err := s.pool.Query(ctx, query, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}
	defer rows.Close()

	var out []models.Alias
	for rows.Next() {
		var a models.Alias
		if err := rows.Scan(&a.EdgeID, &a.OwnerID, &a.TargetID, &a.PhoneNumber, &a.Name, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SearchCandidates narrows the graph to persons whose name or an alias for
// them contains query. Ranking happens in the search package.
func (s *Store) SearchCandidates(ctx context.Context, query string) ([]models.Candidate, error) {
	const stmt = `
		SELECT p.id, p.phone_number, p.name, p.email, p.password_hash, p.type, p.is_active, p.created_at, p.updated_at,
			COALESCE(array_agg(c.name ORDER BY c.name) FILTER (WHERE c.name ILIKE $1), '{}')
		FROM persons p
		LEFT JOIN contacts c ON c.target_id = p.id
		GROUP BY p.id
		HAVING p.name ILIKE $1 OR bool_or(c.name ILIKE $1)`
	rows, err := s.pool.Query(ctx, stmt, containsPattern(query))
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}
	defer rows.Close()

	var out []models.Candidate
	for rows.Next() {
		var (
			cand    models.Candidate
			rawType string
		)
		p := &cand.Person
		if err := rows.Scan(&p.ID, &p.PhoneNumber, &p.Name, &p.Email, &p.PasswordHash, &rawType, &p.IsActive, &p.CreatedAt, &p.UpdatedAt, &cand.Aliases); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if p.Type, err = models.ParsePersonType(rawType); err != nil {
			return nil, err
		}
		out = append(out, cand)
	}
	return out, rows.Err()
}

func scanPerson(row pgx.Row) (models.Person, error) {
	var (
		p       models.Person
		rawType string
	)
	if err := row.Scan(&p.ID, &p.PhoneNumber, &p.Name, &p.Email, &p.PasswordHash, &rawType, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Person{}, storage.ErrNotFound
		}
		return models.Person{}, err
	}
	t, err := models.ParsePersonType(rawType)
	if err != nil {
		return models.Person{}, err
	}
	p.Type = t
	p.CreatedAt = p.CreatedAt.In(time.UTC)
	p.UpdatedAt = p.UpdatedAt.In(time.UTC)
	return p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}
