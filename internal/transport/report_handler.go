package transport

import (
	"errors"
	"net/http"

	"catalog-api/internal/middleware"
	"catalog-api/internal/repository"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReportHandler handles HTTP requests for the aggregate reports. All report
// routes require authentication.
type ReportHandler struct {
	reportService service.ReportService
	logger        *zap.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// RegisterRoutes registers all report routes under /catalog/api/reports
func (h *ReportHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/catalog/api/reports", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.Index)
		r.Get("/products-per-category/", h.ProductsPerCategory)
		r.Get("/product-views/{id}/", h.ProductViews)
		r.Get("/product-comments/{id}/", h.ProductComments)
		r.Get("/category-stats/", h.CategoryStats)
	})
}

// Index lists the available reports
func (h *ReportHandler) Index(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"products_per_category": "/catalog/api/reports/products-per-category/",
		"product_views":         "/catalog/api/reports/product-views/{id}/",
		"product_comments":      "/catalog/api/reports/product-comments/{id}/",
		"category_stats":        "/catalog/api/reports/category-stats/",
	})
}

// ProductsPerCategory reports the number of products directly assigned to
// each category
func (h *ReportHandler) ProductsPerCategory(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportService.ProductsPerCategory(r.Context())
	if err != nil {
		h.logger.Error("Failed to build products-per-category report", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, report)
}

// ProductViews reports the view counter of one product
func (h *ReportHandler) ProductViews(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	report, err := h.reportService.ProductViews(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}

		h.logger.Error("Failed to build product-views report", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, report)
}

// ProductComments reports the comment count of one product
func (h *ReportHandler) ProductComments(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	report, err := h.reportService.ProductComments(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}

		h.logger.Error("Failed to build product-comments report", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, report)
}

// CategoryStats reports combined product, view, and comment totals per
// category
func (h *ReportHandler) CategoryStats(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportService.CategoryStats(r.Context())
	if err != nil {
		h.logger.Error("Failed to build category-stats report", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, report)
}
