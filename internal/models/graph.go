package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactEdge links an owner to a saved person under an owner-private alias.
type ContactEdge struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	TargetID  uuid.UUID `json:"target_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Contact is a contact edge as seen by its owner: the target's number under
// the owner's alias.
type Contact struct {
	ID          uuid.UUID `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}

// SpamEdge records one reporter flagging one target. TargetID is nil once the
// target record has been deleted.
type SpamEdge struct {
	ID         uuid.UUID  `json:"id"`
	ReporterID uuid.UUID  `json:"reporter_id"`
	TargetID   *uuid.UUID `json:"target_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Alias is one contact edge's name for a target number.
type Alias struct {
	EdgeID      uuid.UUID
	OwnerID     uuid.UUID
	TargetID    uuid.UUID
	PhoneNumber string
	Name        string
	CreatedAt   time.Time
}

// Candidate is a person matched by a name search together with every alias
// that points at it and contains the query.
type Candidate struct {
	Person  Person
	Aliases []string
}

// SearchResult is one row of a search response.
type SearchResult struct {
	PersonID    uuid.UUID `json:"-"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	SpamReports int       `json:"spam_reports"`
}

// Profile is a person as shown to a viewer. Email is only set when the viewer
// is allowed to see it.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	Email       *string   `json:"email,omitempty"`
	SpamReports int       `json:"spam_reports"`
}
