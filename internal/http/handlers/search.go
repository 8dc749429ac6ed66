package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hongminglow/spamid-be/internal/http/respond"
	"github.com/hongminglow/spamid-be/internal/models"
	"github.com/hongminglow/spamid-be/internal/models/dto"
	"github.com/hongminglow/spamid-be/internal/search"
)

// Searcher returns one page of search results and the total match count.
type Searcher interface {
	Page(ctx context.Context, mode search.Mode, query string, offset, limit int) ([]models.SearchResult, int, error)
}

// SearchHandler serves GET /search.
type SearchHandler struct {
	searcher   Searcher
	log        *zap.Logger
	maxResults int
}

// NewSearchHandler constructs the handler.
func NewSearchHandler(searcher Searcher, log *zap.Logger, maxResults int) *SearchHandler {
	return &SearchHandler{searcher: searcher, log: log, maxResults: maxResults}
}

// Register attaches the route.
func (h *SearchHandler) Register(r chi.Router) {
	r.Get("/search", h.handleSearch)
}

func (h *SearchHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, err := search.ParseMode(q.Get("search_by"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	offset, limit, err := pagination(r, h.maxResults)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	query := q.Get("name")
	if mode == search.ModePhoneNumber {
		query = q.Get("phone_number")
	}
	rows, total, err := h.searcher.Page(r.Context(), mode, query, offset, limit)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	if rows == nil {
		rows = []models.SearchResult{}
	}
	respond.JSON(w, http.StatusOK, "ok", dto.Page[models.SearchResult]{
		Count:   total,
		Limit:   limit,
		Offset:  offset,
		Results: rows,
	})
}
