package repository

import (
	"context"
	"database/sql"
	"fmt"

	"catalog-api/internal/domain"

	"github.com/google/uuid"
)

// ReportRepository runs the aggregate report queries. Each report is a
// single set-based statement; none of them loop per row.
type ReportRepository interface {
	ProductsPerCategory(ctx context.Context) ([]*domain.CategoryProductCount, error)
	ProductViews(ctx context.Context, productID uuid.UUID) (*domain.ProductViewCount, error)
	ProductComments(ctx context.Context, productID uuid.UUID) (*domain.ProductCommentCount, error)
	CategoryStats(ctx context.Context) ([]*domain.CategoryStats, error)
}

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new instance of ReportRepository
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

// ProductsPerCategory counts direct product memberships per category. The
// LEFT JOIN keeps zero-count categories in the result.
func (r *reportRepository) ProductsPerCategory(ctx context.Context) ([]*domain.CategoryProductCount, error) {
	query := `
		SELECT c.id, c.name, COUNT(pc.product_id) AS product_count
		FROM categories c
		LEFT JOIN product_categories pc ON pc.category_id = c.id
		GROUP BY c.id, c.name
		ORDER BY c.name ASC, c.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products per category: %w", err)
	}
	defer rows.Close()

	report := []*domain.CategoryProductCount{}
	for rows.Next() {
		row := &domain.CategoryProductCount{}
		if err := rows.Scan(&row.CategoryID, &row.CategoryName, &row.ProductCount); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		report = append(report, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report rows: %w", err)
	}

	return report, nil
}

// ProductViews returns the view counter of one product
func (r *reportRepository) ProductViews(ctx context.Context, productID uuid.UUID) (*domain.ProductViewCount, error) {
	query := `SELECT id, name, view_count FROM products WHERE id = $1`

	row := &domain.ProductViewCount{}
	err := r.db.QueryRowContext(ctx, query, productID).Scan(&row.ProductID, &row.Name, &row.ViewCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to query product views: %w", err)
	}

	return row, nil
}

// ProductComments counts the comments on one product
func (r *reportRepository) ProductComments(ctx context.Context, productID uuid.UUID) (*domain.ProductCommentCount, error) {
	query := `
		SELECT p.id, p.name, COUNT(cm.id) AS comment_count
		FROM products p
		LEFT JOIN comments cm ON cm.product_id = p.id
		WHERE p.id = $1
		GROUP BY p.id, p.name
	`

	row := &domain.ProductCommentCount{}
	err := r.db.QueryRowContext(ctx, query, productID).Scan(&row.ProductID, &row.Name, &row.CommentCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to query product comments: %w", err)
	}

	return row, nil
}

// CategoryStats combines product, view, and comment totals per category.
// Comment counts are pre-aggregated per product in a derived table so the
// product join cannot multiply rows.
func (r *reportRepository) CategoryStats(ctx context.Context) ([]*domain.CategoryStats, error) {
	query := `
		SELECT c.id, c.name,
		       COUNT(pc.product_id) AS product_count,
		       COALESCE(SUM(p.view_count), 0) AS total_views,
		       COALESCE(SUM(cm.comment_count), 0) AS total_comments
		FROM categories c
		LEFT JOIN product_categories pc ON pc.category_id = c.id
		LEFT JOIN products p ON p.id = pc.product_id
		LEFT JOIN (
			SELECT product_id, COUNT(*) AS comment_count
			FROM comments
			GROUP BY product_id
		) cm ON cm.product_id = p.id
		GROUP BY c.id, c.name
		ORDER BY c.name ASC, c.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query category stats: %w", err)
	}
	defer rows.Close()

	report := []*domain.CategoryStats{}
	for rows.Next() {
		row := &domain.CategoryStats{}
		err := rows.Scan(&row.CategoryID, &row.Name, &row.ProductCount, &row.TotalViews, &row.TotalComments)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		report = append(report, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report rows: %w", err)
	}

	return report, nil
}
