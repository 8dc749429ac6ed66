package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hongminglow/spamid-be/internal/http/respond"
	"github.com/hongminglow/spamid-be/internal/identity"
	"github.com/hongminglow/spamid-be/internal/models"
	"github.com/hongminglow/spamid-be/internal/models/dto"
)

// ContactGraph is the contact surface used by the contact endpoints.
type ContactGraph interface {
	Add(ctx context.Context, owner models.Person, phoneNumber, alias string) (models.ContactEdge, error)
	List(ctx context.Context, owner models.Person) ([]models.Contact, error)
}

// SpamLedger is the spam surface used by the report endpoint.
type SpamLedger interface {
	Report(ctx context.Context, reporter models.Person, phoneNumber string) (models.SpamEdge, error)
}

// ProfileGuard renders profiles for a viewer.
type ProfileGuard interface {
	Profile(ctx context.Context, viewer models.Person, phoneNumber string) (models.Profile, error)
}

// GraphHandler serves the authenticated contact, spam and profile endpoints.
type GraphHandler struct {
	contacts   ContactGraph
	spam       SpamLedger
	profiles   ProfileGuard
	log        *zap.Logger
	maxResults int
}

// NewGraphHandler constructs the handler.
func NewGraphHandler(contacts ContactGraph, spam SpamLedger, profiles ProfileGuard, log *zap.Logger, maxResults int) *GraphHandler {
	return &GraphHandler{contacts: contacts, spam: spam, profiles: profiles, log: log, maxResults: maxResults}
}

// Register attaches the routes. The router must already authenticate.
func (h *GraphHandler) Register(r chi.Router) {
	r.Get("/contacts", h.handleListContacts)
	r.Post("/contacts", h.handleAddContact)
	r.Post("/spam", h.handleReportSpam)
	r.Get("/profile", h.handleProfile)
}

func (h *GraphHandler) handleAddContact(w http.ResponseWriter, r *http.Request) {
	owner, ok := actor(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req dto.ContactRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}
	edge, err := h.contacts.Add(r.Context(), owner, req.PhoneNumber, req.Name)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "contact added", dto.ContactResponse{
		ID:          edge.ID,
		PhoneNumber: storedPhone(req.PhoneNumber),
		Name:        edge.Name,
	})
}

func (h *GraphHandler) handleListContacts(w http.ResponseWriter, r *http.Request) {
	owner, ok := actor(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	offset, limit, err := pagination(r, h.maxResults)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	list, err := h.contacts.List(r.Context(), owner)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	page := dto.Page[dto.ContactResponse]{Count: len(list), Limit: limit, Offset: offset, Results: []dto.ContactResponse{}}
	for i := offset; i < len(list) && len(page.Results) < limit; i++ {
		page.Results = append(page.Results, dto.ContactResponse{
			ID:          list[i].ID,
			PhoneNumber: list[i].PhoneNumber,
			Name:        list[i].Name,
		})
	}
	respond.JSON(w, http.StatusOK, "ok", page)
}

func (h *GraphHandler) handleReportSpam(w http.ResponseWriter, r *http.Request) {
	reporter, ok := actor(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req dto.SpamRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}
	edge, err := h.spam.Report(r.Context(), reporter, req.PhoneNumber)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "spam reported", dto.SpamResponse{ID: edge.ID, PhoneNumber: storedPhone(req.PhoneNumber)})
}

func (h *GraphHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	viewer, ok := actor(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	profile, err := h.profiles.Profile(r.Context(), viewer, r.URL.Query().Get("phone_number"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", profile)
}

// storedPhone returns the number as the graph keyed it. Callers have already
// had it accepted by the graph, so normalization cannot fail here.
func storedPhone(raw string) string {
	phone, _ := identity.NormalizePhone(raw)
	return phone
}
