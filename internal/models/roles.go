package models

import "fmt"

// PersonType classifies an identity record. The set is closed.
type PersonType string

const (
	TypeUser    PersonType = "user"
	TypeContact PersonType = "contact"
	TypeSpam    PersonType = "spam"
)

// ParsePersonType converts a stored value into a PersonType.
func ParsePersonType(raw string) (PersonType, error) {
	switch t := PersonType(raw); t {
	case TypeUser, TypeContact, TypeSpam:
		return t, nil
	default:
		return "", fmt.Errorf("unknown person type %q", raw)
	}
}

// IsPlaceholder reports whether the record exists only because someone else referenced it.
func (t PersonType) IsPlaceholder() bool {
	return t == TypeContact || t == TypeSpam
}

// CanBecome reports whether a record of type t may be rewritten as next.
// Placeholders upgrade to user; users never change type.
func (t PersonType) CanBecome(next PersonType) bool {
	return t.IsPlaceholder() && next == TypeUser
}

func (t PersonType) String() string { return string(t) }
