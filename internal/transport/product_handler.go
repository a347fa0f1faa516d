package transport

import (
	"errors"
	"net/http"
	"strings"

	"catalog-api/internal/middleware"
	"catalog-api/internal/repository"
	"catalog-api/internal/service"
	"catalog-api/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Multipart uploads are parsed up to this size in memory; larger parts
// spill to temp files.
const maxUploadMemory = 32 << 20

// ProductRequest represents the product create/update payload
type ProductRequest struct {
	Name            string   `json:"name" validate:"required,max=255"`
	Description     string   `json:"description"`
	Price           string   `json:"price" validate:"required"`
	VoucherEnabled  bool     `json:"voucher_enabled"`
	VoucherQuantity int      `json:"voucher_quantity" validate:"gte=0"`
	CategoryIDs     []string `json:"category_ids"`
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes under /catalog/api/products
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/catalog/api/products", func(r chi.Router) {
		// Public reads
		r.Get("/", h.List)
		r.Get("/most_viewed/", h.MostViewed)
		r.Get("/latest/", h.Latest)
		r.Get("/{id}/", h.Get)

		// Authenticated writes and lock management
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}/", h.Update)
			r.Delete("/{id}/", h.Delete)
			r.Post("/{id}/upload_images/", h.UploadImages)
			r.Delete("/{id}/delete_image/", h.DeleteImage)
			r.Post("/{id}/update_thumbnail/", h.UpdateThumbnail)

			r.Post("/{id}/editable/me", h.LockForEdit)
			r.Post("/{id}/editable/release", h.ReleaseEditLock)
			r.Get("/{id}/editable/maintain", h.MaintainEditLock)
			r.Post("/release_my_locks", h.ReleaseMyLocks)
		})
	})
}

func (h *ProductHandler) inputFromRequest(w http.ResponseWriter, r *http.Request) (service.ProductInput, bool) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return service.ProductInput{}, false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return service.ProductInput{}, false
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid price")
		return service.ProductInput{}, false
	}

	input := service.ProductInput{
		Name:            req.Name,
		Description:     req.Description,
		Price:           price,
		VoucherEnabled:  req.VoucherEnabled,
		VoucherQuantity: req.VoucherQuantity,
	}

	// A present-but-empty list clears the memberships; an absent field
	// leaves them unchanged.
	if req.CategoryIDs != nil {
		input.CategoryIDs = make([]uuid.UUID, 0, len(req.CategoryIDs))
		for _, raw := range req.CategoryIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				middleware.RespondWithError(w, http.StatusBadRequest, "invalid category_ids entry")
				return service.ProductInput{}, false
			}
			input.CategoryIDs = append(input.CategoryIDs, id)
		}
	}

	return input, true
}

// respondProductError maps product service errors to HTTP responses
func (h *ProductHandler) respondProductError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, repository.ErrProductAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, "product with this slug already exists")
	case errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusBadRequest, "unknown category in category_ids")
	case errors.Is(err, repository.ErrImageNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product image not found")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.inputFromRequest(w, r)
	if !ok {
		return
	}

	product, err := h.productService.Create(r.Context(), input)
	if err != nil {
		h.respondProductError(w, err, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update handles product updates
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	input, ok := h.inputFromRequest(w, r)
	if !ok {
		return
	}

	product, err := h.productService.Update(r.Context(), id, input)
	if err != nil {
		h.respondProductError(w, err, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete handles product deletion
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		h.respondProductError(w, err, "failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get handles the product detail read. Every hit bumps the view counter
// atomically as part of the same statement that reads the row.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.productService.GetDetail(r.Context(), id, true)
	if err != nil {
		h.respondProductError(w, err, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// List handles the product listing with filtering, search, and sorting
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := paginationParams(r)
	q := r.URL.Query()

	filter := repository.ProductFilter{
		Search:   q.Get("search"),
		Page:     page,
		PageSize: pageSize,
		SortBy:   q.Get("sort_by"),
	}

	if strings.EqualFold(q.Get("sort_order"), "desc") {
		filter.SortOrder = repository.SortOrderDesc
	} else {
		filter.SortOrder = repository.SortOrderAsc
	}

	if category := q.Get("category"); category != "" {
		id, err := uuid.Parse(category)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category filter")
			return
		}
		filter.CategoryID = &id
	}

	if raw := q.Get("min_price"); raw != "" {
		min, err := decimal.NewFromString(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid min_price")
			return
		}
		filter.MinPrice = &min
	}

	if raw := q.Get("max_price"); raw != "" {
		max, err := decimal.NewFromString(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid max_price")
			return
		}
		filter.MaxPrice = &max
	}

	products, total, err := h.productService.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, PaginatedResponse{
		Count:    total,
		Page:     page,
		PageSize: pageSize,
		Results:  products,
	})
}

// MostViewed handles the view-count leaderboard
func (h *ProductHandler) MostViewed(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.MostViewed(r.Context(), limitParam(r))
	if err != nil {
		h.logger.Error("Failed to list most viewed products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list most viewed products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// Latest handles the newest-products listing
func (h *ProductHandler) Latest(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.Latest(r.Context(), limitParam(r))
	if err != nil {
		h.logger.Error("Failed to list latest products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list latest products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// UploadImages handles the multi-file gallery upload. Uploads are
// best-effort: the response carries one entry per file saying whether it
// was stored or why it was rejected.
func (h *ProductHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "at least one image file is required")
		return
	}

	captions := r.MultipartForm.Value["captions"]

	files := make([]service.UploadFile, 0, len(headers))
	opened := make([]interface{ Close() error }, 0, len(headers))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for i, header := range headers {
		f, err := header.Open()
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "failed to read uploaded file")
			return
		}
		opened = append(opened, f)

		upload := service.UploadFile{Name: header.Filename, Reader: f}
		if i < len(captions) {
			upload.Caption = captions[i]
		}
		files = append(files, upload)
	}

	results, err := h.productService.UploadImages(r.Context(), id, files)
	if err != nil {
		h.respondProductError(w, err, "failed to upload images")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{"results": results})
}

// DeleteImage handles removing one gallery image (?image_id=)
func (h *ProductHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	imageID, err := uuid.Parse(r.URL.Query().Get("image_id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid image_id")
		return
	}

	if err := h.productService.DeleteImage(r.Context(), id, imageID); err != nil {
		h.respondProductError(w, err, "failed to delete image")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateThumbnail handles replacing the product thumbnail
func (h *ProductHandler) UpdateThumbnail(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	file, header, err := r.FormFile("thumbnail")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "thumbnail file is required")
		return
	}
	defer file.Close()

	product, err := h.productService.UpdateThumbnail(r.Context(), id, service.UploadFile{
		Name:   header.Filename,
		Reader: file,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedFileType) {
			middleware.RespondWithError(w, http.StatusBadRequest, "unsupported file type")
			return
		}

		h.respondProductError(w, err, "failed to update thumbnail")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// LockForEdit acquires (or extends) the edit lock for the current user
func (h *ProductHandler) LockForEdit(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	lock, err := h.productService.LockForEdit(r.Context(), id, userID)
	if err != nil {
		respondLockError(h.logger, w, lock, err, "failed to acquire edit lock")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, lock)
}

// MaintainEditLock extends an edit lock already held by the current user
func (h *ProductHandler) MaintainEditLock(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	lock, err := h.productService.MaintainEditLock(r.Context(), id, userID)
	if err != nil {
		respondLockError(h.logger, w, lock, err, "failed to maintain edit lock")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, lock)
}

// ReleaseEditLock releases the edit lock held by the current user
func (h *ProductHandler) ReleaseEditLock(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	if err := h.productService.ReleaseEditLock(r.Context(), id, userID); err != nil {
		respondLockError(h.logger, w, nil, err, "failed to release edit lock")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "edit lock released"})
}

// ReleaseMyLocks releases every product lock held by the current user
func (h *ProductHandler) ReleaseMyLocks(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	released, err := h.productService.ReleaseMyLocks(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to release edit locks", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to release edit locks")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]int{"released": released})
}
