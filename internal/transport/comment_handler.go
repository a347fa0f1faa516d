package transport

import (
	"errors"
	"net/http"

	"catalog-api/internal/middleware"
	"catalog-api/internal/repository"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateCommentRequest represents the comment creation payload
type CreateCommentRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Body      string `json:"body" validate:"required,max=2000"`
}

// UpdateCommentRequest represents the comment update payload
type UpdateCommentRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

// CommentHandler handles HTTP requests for comment operations
type CommentHandler struct {
	commentService service.CommentService
	logger         *zap.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentService service.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		logger:         logger,
	}
}

// RegisterRoutes registers all comment routes under /catalog/api/comments
func (h *CommentHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/catalog/api/comments", func(r chi.Router) {
		// Public reads
		r.Get("/", h.List)
		r.Get("/{id}/", h.Get)

		// Authenticated writes; update and delete are author-only
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}/", h.Update)
			r.Delete("/{id}/", h.Delete)
		})
	})
}

func (h *CommentHandler) respondCommentError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrCommentNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "comment not found")
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, service.ErrNotCommentOwner):
		middleware.RespondWithError(w, http.StatusForbidden, "only the author may modify this comment")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// Create handles comment creation; the author is the token subject
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product_id")
		return
	}

	comment, err := h.commentService.Create(r.Context(), userID, productID, req.Body)
	if err != nil {
		h.respondCommentError(w, err, "failed to create comment")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, comment)
}

// Update handles comment updates
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid comment ID")
		return
	}

	var req UpdateCommentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	comment, err := h.commentService.Update(r.Context(), userID, id, req.Body)
	if err != nil {
		h.respondCommentError(w, err, "failed to update comment")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, comment)
}

// Delete handles comment deletion
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid comment ID")
		return
	}

	if err := h.commentService.Delete(r.Context(), userID, id); err != nil {
		h.respondCommentError(w, err, "failed to delete comment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get handles retrieving a single comment
func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid comment ID")
		return
	}

	comment, err := h.commentService.Get(r.Context(), id)
	if err != nil {
		h.respondCommentError(w, err, "failed to get comment")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, comment)
}

// List handles the comment listing, filterable by product (?product=<id>)
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := paginationParams(r)

	var productID *uuid.UUID
	if product := r.URL.Query().Get("product"); product != "" {
		id, err := uuid.Parse(product)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid product filter")
			return
		}
		productID = &id
	}

	comments, total, err := h.commentService.List(r.Context(), productID, page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list comments", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list comments")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, PaginatedResponse{
		Count:    total,
		Page:     page,
		PageSize: pageSize,
		Results:  comments,
	})
}
