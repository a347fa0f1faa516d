package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog. A product may belong to any
// number of categories through the product_categories join table.
type Product struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Slug            string          `json:"slug" db:"slug"`
	Description     string          `json:"description" db:"description"`
	Price           decimal.Decimal `json:"price" db:"price"`
	ThumbnailPath   string          `json:"thumbnail_path" db:"thumbnail_path"`
	ViewCount       int             `json:"view_count" db:"view_count"`
	VoucherEnabled  bool            `json:"voucher_enabled" db:"voucher_enabled"`
	VoucherQuantity int             `json:"voucher_quantity" db:"voucher_quantity"`
	EditLock        EditLock        `json:"edit_lock"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`

	// Populated on detail reads, not persisted on the products row.
	Categories []*Category     `json:"categories,omitempty"`
	Images     []*ProductImage `json:"images,omitempty"`
}

// ProductImage is a gallery image attached to a product.
type ProductImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	FilePath  string    `json:"file_path" db:"file_path"`
	Caption   string    `json:"caption" db:"caption"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
