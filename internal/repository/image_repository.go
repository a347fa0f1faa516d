package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-api/internal/domain"

	"github.com/google/uuid"
)

var ErrImageNotFound = errors.New("product image not found")

// ImageRepository defines the interface for product image data access
type ImageRepository interface {
	Create(ctx context.Context, image *domain.ProductImage) error
	Update(ctx context.Context, image *domain.ProductImage) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ProductImage, error)
	FindByIDAndProduct(ctx context.Context, id, productID uuid.UUID) (*domain.ProductImage, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.ProductImage, error)
	List(ctx context.Context, productID *uuid.UUID, page, pageSize int) ([]*domain.ProductImage, int, error)
}

type imageRepository struct {
	db *sql.DB
}

// NewImageRepository creates a new instance of ImageRepository
func NewImageRepository(db *sql.DB) ImageRepository {
	return &imageRepository{db: db}
}

// Create inserts a new product image row
func (r *imageRepository) Create(ctx context.Context, image *domain.ProductImage) error {
	query := `
		INSERT INTO product_images (id, product_id, file_path, caption, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		image.ID,
		image.ProductID,
		image.FilePath,
		image.Caption,
		image.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to create product image: %w", err)
	}

	return nil
}

// Update writes the caption back to the database
func (r *imageRepository) Update(ctx context.Context, image *domain.ProductImage) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE product_images SET caption = $2 WHERE id = $1`,
		image.ID, image.Caption,
	)
	if err != nil {
		return fmt.Errorf("failed to update product image: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrImageNotFound
	}

	return nil
}

// Delete removes a product image row
func (r *imageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM product_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product image: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrImageNotFound
	}

	return nil
}

// FindByID retrieves a product image by ID
func (r *imageRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ProductImage, error) {
	query := `
		SELECT id, product_id, file_path, caption, created_at
		FROM product_images
		WHERE id = $1
	`

	image := &domain.ProductImage{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&image.ID,
		&image.ProductID,
		&image.FilePath,
		&image.Caption,
		&image.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to find product image: %w", err)
	}

	return image, nil
}

// FindByIDAndProduct retrieves an image only when it belongs to the product
func (r *imageRepository) FindByIDAndProduct(ctx context.Context, id, productID uuid.UUID) (*domain.ProductImage, error) {
	query := `
		SELECT id, product_id, file_path, caption, created_at
		FROM product_images
		WHERE id = $1 AND product_id = $2
	`

	image := &domain.ProductImage{}
	err := r.db.QueryRowContext(ctx, query, id, productID).Scan(
		&image.ID,
		&image.ProductID,
		&image.FilePath,
		&image.Caption,
		&image.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to find product image: %w", err)
	}

	return image, nil
}

// ListByProduct retrieves all images of a product ordered by creation time
func (r *imageRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.ProductImage, error) {
	query := `
		SELECT id, product_id, file_path, caption, created_at
		FROM product_images
		WHERE product_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product images: %w", err)
	}
	defer rows.Close()

	return collectImages(rows)
}

// List retrieves product images with optional product filtering and pagination
func (r *imageRepository) List(ctx context.Context, productID *uuid.UUID, page, pageSize int) ([]*domain.ProductImage, int, error) {
	whereClause := ""
	args := []any{}
	if productID != nil {
		whereClause = "WHERE product_id = $1"
		args = append(args, *productID)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM product_images %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count product images: %w", err)
	}

	offset := (page - 1) * pageSize
	query := fmt.Sprintf(`
		SELECT id, product_id, file_path, caption, created_at
		FROM product_images
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, len(args)+1, len(args)+2)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list product images: %w", err)
	}
	defer rows.Close()

	images, err := collectImages(rows)
	if err != nil {
		return nil, 0, err
	}

	return images, total, nil
}

func collectImages(rows *sql.Rows) ([]*domain.ProductImage, error) {
	images := []*domain.ProductImage{}
	for rows.Next() {
		image := &domain.ProductImage{}
		err := rows.Scan(
			&image.ID,
			&image.ProductID,
			&image.FilePath,
			&image.Caption,
			&image.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product image: %w", err)
		}
		images = append(images, image)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product images: %w", err)
	}

	return images, nil
}
