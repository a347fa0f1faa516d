package transport

import (
	"errors"
	"net/http"
	"strconv"

	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	defaultTopLimit = 10
)

// PaginatedResponse is the envelope for all list endpoints
type PaginatedResponse struct {
	Count    int         `json:"count"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Results  interface{} `json:"results"`
}

// paginationParams reads ?page= and ?page_size=, clamping both to sane values
func paginationParams(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return page, pageSize
}

// limitParam reads ?limit= for the top-N endpoints
func limitParam(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > maxPageSize {
		return defaultTopLimit
	}
	return limit
}

// idParam parses the {id} URL parameter as a UUID
func idParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// respondLockError maps edit-lock errors to HTTP responses. A lock held by
// someone else answers 409 and names the holder so clients can show who is
// editing.
func respondLockError(logger *zap.Logger, w http.ResponseWriter, lock *domain.EditLock, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrEditLocked):
		details := map[string]interface{}{}
		if lock != nil && lock.UserID != nil {
			details["locked_by"] = lock.UserID.String()
			if lock.ExpiresAt != nil {
				details["expires_at"] = lock.ExpiresAt
			}
		}
		middleware.RespondWithErrorDetails(w, http.StatusConflict, "resource is being edited by another user", details)
	case errors.Is(err, repository.ErrEditLockNotHeld):
		middleware.RespondWithError(w, http.StatusConflict, "edit lock is not held by this user")
	case errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	default:
		logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// currentUserID extracts the authenticated user's ID from the request
// context. Routes behind the auth middleware always have it; a miss here
// means a routing mistake, answered with 401.
func currentUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}

	return userID, true
}
