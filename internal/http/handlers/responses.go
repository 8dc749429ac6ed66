package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hongminglow/spamid-be/internal/apperr"
	"github.com/hongminglow/spamid-be/internal/http/respond"
	"github.com/hongminglow/spamid-be/internal/middleware"
	"github.com/hongminglow/spamid-be/internal/models"
)

var statusByCode = map[apperr.Code]int{
	apperr.CodeInvalidArgument:    http.StatusBadRequest,
	apperr.CodeFailedPrecondition: http.StatusBadRequest,
	apperr.CodeNotFound:           http.StatusNotFound,
	apperr.CodeAlreadyExists:      http.StatusConflict,
	apperr.CodeUnauthenticated:    http.StatusUnauthorized,
	apperr.CodeInternal:           http.StatusInternalServerError,
}

// respondError maps a service error onto the response envelope. Internal
// failures are logged and their detail withheld from the client.
func respondError(w http.ResponseWriter, log *zap.Logger, err error) {
	appErr := apperr.From(err)
	status, ok := statusByCode[appErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		respond.Failure(w, status, string(apperr.KindInternal), "internal error")
		return
	}
	respond.Failure(w, status, string(appErr.Kind), appErr.Message)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid JSON payload")
	}
	return nil
}

// actor returns the authenticated person; routes using it sit behind
// middleware.Authenticate.
func actor(r *http.Request) (models.Person, bool) {
	return middleware.PersonFrom(r.Context())
}

// pagination reads limit/offset query parameters, capping limit at maxLimit.
func pagination(r *http.Request, maxLimit int) (offset, limit int, err error) {
	q := r.URL.Query()
	limit = maxLimit
	if raw := q.Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit <= 0 {
			return 0, 0, apperr.Validation("limit must be a positive integer")
		}
		limit = min(limit, maxLimit)
	}
	if raw := q.Get("offset"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil || offset < 0 {
			return 0, 0, apperr.Validation("offset must be a non-negative integer")
		}
	}
	return offset, limit, nil
}
