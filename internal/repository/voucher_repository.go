package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-api/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrVoucherNotFound       = errors.New("voucher not found")
	ErrVoucherAlreadyClaimed = errors.New("user already has a voucher for this product")
	ErrVoucherCodeExists     = errors.New("voucher code already exists")
	ErrVoucherUnavailable    = errors.New("product has no vouchers available")
)

// VoucherRepository defines the interface for voucher data access
type VoucherRepository interface {
	// Claim atomically decrements the product's voucher quantity and inserts
	// the voucher row. The (product, user) pair and the code are both
	// guarded by unique constraints, so concurrent claims cannot produce
	// duplicates even if they pass the application-level check.
	Claim(ctx context.Context, voucher *domain.Voucher) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Voucher, error)
	ListByUser(ctx context.Context, userID uuid.UUID, productID *uuid.UUID, page, pageSize int) ([]*domain.Voucher, int, error)
}

type voucherRepository struct {
	db *sql.DB
}

// NewVoucherRepository creates a new instance of VoucherRepository
func NewVoucherRepository(db *sql.DB) VoucherRepository {
	return &voucherRepository{db: db}
}

func (r *voucherRepository) Claim(ctx context.Context, voucher *domain.Voucher) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Conditional decrement; zero rows means the product is missing,
	// voucher-disabled, or out of stock.
	result, err := tx.ExecContext(ctx, `
		UPDATE products
		SET voucher_quantity = voucher_quantity - 1
		WHERE id = $1 AND voucher_enabled AND voucher_quantity > 0
	`, voucher.ProductID)
	if err != nil {
		return fmt.Errorf("failed to decrement voucher quantity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = $1`, voucher.ProductID).Scan(&one)
		if err == sql.ErrNoRows {
			return ErrProductNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check product: %w", err)
		}
		return ErrVoucherUnavailable
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vouchers (id, product_id, user_id, code, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		voucher.ID,
		voucher.ProductID,
		voucher.UserID,
		voucher.Code,
		voucher.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "vouchers_product_user_key") {
			return ErrVoucherAlreadyClaimed
		}
		if isUniqueViolation(err, "vouchers_code_key") {
			return ErrVoucherCodeExists
		}
		return fmt.Errorf("failed to create voucher: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit voucher claim: %w", err)
	}

	return nil
}

// Delete removes a voucher
func (r *voucherRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vouchers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete voucher: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrVoucherNotFound
	}

	return nil
}

// FindByID retrieves a voucher by ID
func (r *voucherRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Voucher, error) {
	query := `
		SELECT id, product_id, user_id, code, created_at
		FROM vouchers
		WHERE id = $1
	`

	voucher := &domain.Voucher{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&voucher.ID,
		&voucher.ProductID,
		&voucher.UserID,
		&voucher.Code,
		&voucher.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrVoucherNotFound
		}
		return nil, fmt.Errorf("failed to find voucher: %w", err)
	}

	return voucher, nil
}

// ListByUser retrieves the vouchers held by a user, newest first
func (r *voucherRepository) ListByUser(ctx context.Context, userID uuid.UUID, productID *uuid.UUID, page, pageSize int) ([]*domain.Voucher, int, error) {
	whereClause := "WHERE user_id = $1"
	args := []any{userID}
	if productID != nil {
		whereClause += " AND product_id = $2"
		args = append(args, *productID)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM vouchers %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count vouchers: %w", err)
	}

	offset := (page - 1) * pageSize
	query := fmt.Sprintf(`
		SELECT id, product_id, user_id, code, created_at
		FROM vouchers
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, len(args)+1, len(args)+2)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vouchers: %w", err)
	}
	defer rows.Close()

	vouchers := []*domain.Voucher{}
	for rows.Next() {
		voucher := &domain.Voucher{}
		err := rows.Scan(
			&voucher.ID,
			&voucher.ProductID,
			&voucher.UserID,
			&voucher.Code,
			&voucher.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan voucher: %w", err)
		}
		vouchers = append(vouchers, voucher)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating vouchers: %w", err)
	}

	return vouchers, total, nil
}
