package service

import (
	"context"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"

	"github.com/google/uuid"
)

// ReportService exposes the aggregate reports
type ReportService interface {
	ProductsPerCategory(ctx context.Context) ([]*domain.CategoryProductCount, error)
	ProductViews(ctx context.Context, productID uuid.UUID) (*domain.ProductViewCount, error)
	ProductComments(ctx context.Context, productID uuid.UUID) (*domain.ProductCommentCount, error)
	CategoryStats(ctx context.Context) ([]*domain.CategoryStats, error)
}

type reportService struct {
	reportRepo repository.ReportRepository
}

// NewReportService creates a new instance of ReportService
func NewReportService(reportRepo repository.ReportRepository) ReportService {
	return &reportService{reportRepo: reportRepo}
}

func (s *reportService) ProductsPerCategory(ctx context.Context) ([]*domain.CategoryProductCount, error) {
	return s.reportRepo.ProductsPerCategory(ctx)
}

func (s *reportService) ProductViews(ctx context.Context, productID uuid.UUID) (*domain.ProductViewCount, error) {
	return s.reportRepo.ProductViews(ctx, productID)
}

func (s *reportService) ProductComments(ctx context.Context, productID uuid.UUID) (*domain.ProductCommentCount, error) {
	return s.reportRepo.ProductComments(ctx, productID)
}

func (s *reportService) CategoryStats(ctx context.Context) ([]*domain.CategoryStats, error) {
	return s.reportRepo.CategoryStats(ctx)
}
