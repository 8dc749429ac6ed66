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

// Registrar is the identity surface used by the auth endpoints.
type Registrar interface {
	Register(ctx context.Context, in identity.RegisterInput) (models.Person, error)
	Authenticate(ctx context.Context, phoneNumber, password string) (models.Person, error)
}

// TokenIssuer signs login tokens.
type TokenIssuer interface {
	Generate(person models.Person) (string, error)
}

// AuthHandler owns register/login endpoints.
type AuthHandler struct {
	identities Registrar
	tokens     TokenIssuer
	log        *zap.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(identities Registrar, tokens TokenIssuer, log *zap.Logger) *AuthHandler {
	return &AuthHandler{identities: identities, tokens: tokens, log: log}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}
	person, err := h.identities.Register(r.Context(), identity.RegisterInput{
		PhoneNumber: req.PhoneNumber,
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
	})
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "user created successfully", person)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}
	person, err := h.identities.Authenticate(r.Context(), req.PhoneNumber, req.Password)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	token, err := h.tokens.Generate(person)
	if err != nil {
		h.log.Error("generate token", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{Token: token, Person: person})
}
