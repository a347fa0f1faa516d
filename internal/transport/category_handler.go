package transport

import (
	"errors"
	"net/http"

	"catalog-api/internal/middleware"
	"catalog-api/internal/repository"
	"catalog-api/internal/service"
	"catalog-api/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const categoryImageDir = "categories"

// CategoryRequest represents the category create/update payload
type CategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description"`
	ParentID    *string `json:"parent_id"`
}

// CategoryHandler handles HTTP requests for category operations
type CategoryHandler struct {
	categoryService service.CategoryService
	media           *storage.MediaStore
	logger          *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService service.CategoryService, media *storage.MediaStore, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		media:           media,
		logger:          logger,
	}
}

// RegisterRoutes registers all category routes under /catalog/api/categories
func (h *CategoryHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/catalog/api/categories", func(r chi.Router) {
		// Public reads
		r.Get("/", h.List)
		r.Get("/tree/", h.GetTree)
		r.Get("/roots/", h.GetRoots)
		r.Get("/{id}/", h.Get)
		r.Get("/{id}/children/", h.GetChildren)
		r.Get("/{id}/products/", h.GetProducts)

		// Authenticated writes and lock management
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}/", h.Update)
			r.Delete("/{id}/", h.Delete)
			r.Post("/{id}/upload_image/", h.UploadImage)

			r.Post("/{id}/editable/me", h.LockForEdit)
			r.Post("/{id}/editable/release", h.ReleaseEditLock)
			r.Get("/{id}/editable/maintain", h.MaintainEditLock)
			r.Post("/release_my_locks", h.ReleaseMyLocks)
		})
	})
}

func (h *CategoryHandler) inputFromRequest(w http.ResponseWriter, r *http.Request) (service.CategoryInput, bool) {
	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return service.CategoryInput{}, false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return service.CategoryInput{}, false
	}

	input := service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.ParentID != nil && *req.ParentID != "" {
		parentID, err := uuid.Parse(*req.ParentID)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid parent_id")
			return service.CategoryInput{}, false
		}
		input.ParentID = &parentID
	}

	return input, true
}

// respondCategoryError maps category service errors to HTTP responses
func (h *CategoryHandler) respondCategoryError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, repository.ErrCategoryAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, "category with this slug already exists")
	case errors.Is(err, repository.ErrCategoryHasChildren):
		middleware.RespondWithError(w, http.StatusConflict, "category has child categories")
	case errors.Is(err, service.ErrCategoryCycle):
		middleware.RespondWithError(w, http.StatusBadRequest, "category cannot be its own ancestor")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// Create handles category creation
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.inputFromRequest(w, r)
	if !ok {
		return
	}

	category, err := h.categoryService.Create(r.Context(), input)
	if err != nil {
		h.respondCategoryError(w, err, "failed to create category")
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// Update handles category updates
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	input, ok := h.inputFromRequest(w, r)
	if !ok {
		return
	}

	category, err := h.categoryService.Update(r.Context(), id, input)
	if err != nil {
		h.respondCategoryError(w, err, "failed to update category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// Delete handles category deletion; categories with children are rejected
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	if err := h.categoryService.Delete(r.Context(), id); err != nil {
		h.respondCategoryError(w, err, "failed to delete category")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get handles retrieving a single category
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	category, err := h.categoryService.Get(r.Context(), id)
	if err != nil {
		h.respondCategoryError(w, err, "failed to get category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// List handles the category listing, filterable by parent
// (?parent=<id> or ?parent=null for roots)
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := paginationParams(r)

	var parentID *uuid.UUID
	rootsOnly := false
	if parent := r.URL.Query().Get("parent"); parent != "" {
		if parent == "null" {
			rootsOnly = true
		} else {
			id, err := uuid.Parse(parent)
			if err != nil {
				middleware.RespondWithError(w, http.StatusBadRequest, "invalid parent filter")
				return
			}
			parentID = &id
		}
	}

	categories, total, err := h.categoryService.List(r.Context(), parentID, rootsOnly, page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, PaginatedResponse{
		Count:    total,
		Page:     page,
		PageSize: pageSize,
		Results:  categories,
	})
}

// GetTree handles the nested tree view of all categories
func (h *CategoryHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.categoryService.GetTree(r.Context())
	if err != nil {
		h.logger.Error("Failed to build category tree", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to build category tree")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, tree)
}

// GetRoots handles listing top-level categories
func (h *CategoryHandler) GetRoots(w http.ResponseWriter, r *http.Request) {
	roots, err := h.categoryService.GetRoots(r.Context())
	if err != nil {
		h.logger.Error("Failed to list root categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list root categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, roots)
}

// GetChildren handles listing the immediate children of a category
func (h *CategoryHandler) GetChildren(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	children, err := h.categoryService.GetChildren(r.Context(), id)
	if err != nil {
		h.respondCategoryError(w, err, "failed to list children")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, children)
}

// GetProducts handles listing the products assigned to a category
func (h *CategoryHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	products, err := h.categoryService.GetProducts(r.Context(), id)
	if err != nil {
		h.respondCategoryError(w, err, "failed to list category products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// UploadImage handles the multipart category image upload
func (h *CategoryHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	path, err := h.media.Save(categoryImageDir, header.Filename, file)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedFileType) {
			middleware.RespondWithError(w, http.StatusBadRequest, "unsupported file type")
			return
		}

		h.logger.Error("Failed to store category image", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	category, err := h.categoryService.SetImage(r.Context(), id, path)
	if err != nil {
		h.respondCategoryError(w, err, "failed to update category image")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// LockForEdit acquires (or extends) the edit lock for the current user
func (h *CategoryHandler) LockForEdit(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	lock, err := h.categoryService.LockForEdit(r.Context(), id, userID)
	if err != nil {
		respondLockError(h.logger, w, lock, err, "failed to acquire edit lock")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, lock)
}

// MaintainEditLock extends an edit lock already held by the current user
func (h *CategoryHandler) MaintainEditLock(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	lock, err := h.categoryService.MaintainEditLock(r.Context(), id, userID)
	if err != nil {
		respondLockError(h.logger, w, lock, err, "failed to maintain edit lock")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, lock)
}

// ReleaseEditLock releases the edit lock held by the current user
func (h *CategoryHandler) ReleaseEditLock(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	if err := h.categoryService.ReleaseEditLock(r.Context(), id, userID); err != nil {
		respondLockError(h.logger, w, nil, err, "failed to release edit lock")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "edit lock released"})
}

// ReleaseMyLocks releases every category lock held by the current user
func (h *CategoryHandler) ReleaseMyLocks(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	released, err := h.categoryService.ReleaseMyLocks(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to release edit locks", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to release edit locks")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]int{"released": released})
}
