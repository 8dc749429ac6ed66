package dto

import "github.com/google/uuid"

type ContactRequest struct {
	PhoneNumber string `json:"phone_number"`
	Name        string `json:"name"`
}

type ContactResponse struct {
	ID          uuid.UUID `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Name        string    `json:"name"`
}

type SpamRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type SpamResponse struct {
	ID          uuid.UUID `json:"id"`
	PhoneNumber string    `json:"phone_number"`
}

// Page is a limit/offset slice of a list with the total row count.
type Page[T any] struct {
	Count   int `json:"count"`
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
	Results []T `json:"results"`
}
