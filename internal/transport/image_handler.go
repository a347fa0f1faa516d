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

// UpdateImageRequest represents the image caption update payload
type UpdateImageRequest struct {
	Caption string `json:"caption" validate:"max=500"`
}

// ImageHandler handles HTTP requests for standalone product image operations
type ImageHandler struct {
	imageService service.ImageService
	logger       *zap.Logger
}

// NewImageHandler creates a new ImageHandler
func NewImageHandler(imageService service.ImageService, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{
		imageService: imageService,
		logger:       logger,
	}
}

// RegisterRoutes registers all image routes under /catalog/api/product-images
func (h *ImageHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/catalog/api/product-images", func(r chi.Router) {
		// Public reads
		r.Get("/", h.List)
		r.Get("/{id}/", h.Get)

		// Authenticated writes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}/", h.Update)
			r.Delete("/{id}/", h.Delete)
		})
	})
}

func (h *ImageHandler) respondImageError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrImageNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product image not found")
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, storage.ErrUnsupportedFileType):
		middleware.RespondWithError(w, http.StatusBadRequest, "unsupported file type")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// Create handles a single multipart image upload
// (fields: product_id, image, caption)
func (h *ImageHandler) Create(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(r.FormValue("product_id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product_id")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	image, err := h.imageService.Create(r.Context(), productID, service.UploadFile{
		Name:    header.Filename,
		Caption: r.FormValue("caption"),
		Reader:  file,
	})
	if err != nil {
		h.respondImageError(w, err, "failed to create image")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, image)
}

// Update handles caption updates
func (h *ImageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid image ID")
		return
	}

	var req UpdateImageRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	image, err := h.imageService.UpdateCaption(r.Context(), id, req.Caption)
	if err != nil {
		h.respondImageError(w, err, "failed to update image")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, image)
}

// Delete handles image deletion
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid image ID")
		return
	}

	if err := h.imageService.Delete(r.Context(), id); err != nil {
		h.respondImageError(w, err, "failed to delete image")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get handles retrieving a single image
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid image ID")
		return
	}

	image, err := h.imageService.Get(r.Context(), id)
	if err != nil {
		h.respondImageError(w, err, "failed to get image")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, image)
}

// List handles the image listing, filterable by product (?product=<id>)
func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
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

	images, total, err := h.imageService.List(r.Context(), productID, page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list images", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list images")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, PaginatedResponse{
		Count:    total,
		Page:     page,
		PageSize: pageSize,
		Results:  images,
	})
}
