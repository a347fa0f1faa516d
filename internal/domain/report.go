package domain

import "github.com/google/uuid"

// CategoryProductCount is one row of the products-per-category report.
// Counting is by direct membership; products in a subcategory do not count
// toward the parent.
type CategoryProductCount struct {
	CategoryID   uuid.UUID `json:"category_id"`
	CategoryName string    `json:"category_name"`
	ProductCount int       `json:"product_count"`
}

// ProductViewCount is the product-views report for a single product.
type ProductViewCount struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	ViewCount int       `json:"view_count"`
}

// ProductCommentCount is the product-comments report for a single product.
type ProductCommentCount struct {
	ProductID    uuid.UUID `json:"product_id"`
	Name         string    `json:"name"`
	CommentCount int       `json:"comment_count"`
}

// CategoryStats is one row of the combined category statistics report.
type CategoryStats struct {
	CategoryID    uuid.UUID `json:"category_id"`
	Name          string    `json:"name"`
	ProductCount  int       `json:"product_count"`
	TotalViews    int       `json:"total_views"`
	TotalComments int       `json:"total_comments"`
}
