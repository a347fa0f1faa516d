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

// ClaimVoucherRequest represents the voucher claim payload
type ClaimVoucherRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

// VoucherHandler handles HTTP requests for voucher operations. The whole
// surface is authenticated and scoped to the caller's own vouchers.
type VoucherHandler struct {
	voucherService service.VoucherService
	logger         *zap.Logger
}

// NewVoucherHandler creates a new VoucherHandler
func NewVoucherHandler(voucherService service.VoucherService, logger *zap.Logger) *VoucherHandler {
	return &VoucherHandler{
		voucherService: voucherService,
		logger:         logger,
	}
}

// RegisterRoutes registers all voucher routes under /catalog/api/vouchers
func (h *VoucherHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/catalog/api/vouchers", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Post("/", h.Claim)
		r.Get("/{id}/", h.Get)
		r.Delete("/{id}/", h.Delete)
	})
}

func (h *VoucherHandler) respondVoucherError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrVoucherNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "voucher not found")
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, repository.ErrVoucherAlreadyClaimed):
		middleware.RespondWithError(w, http.StatusConflict, "user already has a voucher for this product")
	case errors.Is(err, repository.ErrVoucherCodeExists):
		middleware.RespondWithError(w, http.StatusConflict, "voucher code collision, try again")
	case errors.Is(err, repository.ErrVoucherUnavailable):
		middleware.RespondWithError(w, http.StatusConflict, "product has no vouchers available")
	case errors.Is(err, service.ErrNotVoucherOwner):
		// Not-found rather than forbidden; existence of another user's
		// voucher is not disclosed.
		middleware.RespondWithError(w, http.StatusNotFound, "voucher not found")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// Claim handles claiming a voucher for a product
func (h *VoucherHandler) Claim(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req ClaimVoucherRequest
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

	voucher, err := h.voucherService.Claim(r.Context(), userID, productID)
	if err != nil {
		h.respondVoucherError(w, err, "failed to claim voucher")
		return
	}

	h.logger.Info("Voucher claimed",
		zap.String("voucher_id", voucher.ID.String()),
		zap.String("product_id", productID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, voucher)
}

// Get handles retrieving one of the caller's vouchers
func (h *VoucherHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid voucher ID")
		return
	}

	voucher, err := h.voucherService.Get(r.Context(), userID, id)
	if err != nil {
		h.respondVoucherError(w, err, "failed to get voucher")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, voucher)
}

// Delete handles discarding one of the caller's vouchers
func (h *VoucherHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid voucher ID")
		return
	}

	if err := h.voucherService.Delete(r.Context(), userID, id); err != nil {
		h.respondVoucherError(w, err, "failed to delete voucher")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles listing the caller's vouchers, filterable by product
func (h *VoucherHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

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

	vouchers, total, err := h.voucherService.List(r.Context(), userID, productID, page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list vouchers", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list vouchers")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, PaginatedResponse{
		Count:    total,
		Page:     page,
		PageSize: pageSize,
		Results:  vouchers,
	})
}
