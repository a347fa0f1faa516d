package service

import (
	"context"
	"errors"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"

	"github.com/google/uuid"
)

var ErrNotVoucherOwner = errors.New("voucher belongs to another user")

// VoucherService handles voucher claims. Each user can hold at most one
// voucher per product; codes are random and unique.
type VoucherService interface {
	Claim(ctx context.Context, userID, productID uuid.UUID) (*domain.Voucher, error)
	Get(ctx context.Context, userID, voucherID uuid.UUID) (*domain.Voucher, error)
	Delete(ctx context.Context, userID, voucherID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, productID *uuid.UUID, page, pageSize int) ([]*domain.Voucher, int, error)
}

type voucherService struct {
	voucherRepo repository.VoucherRepository
}

// NewVoucherService creates a new instance of VoucherService
func NewVoucherService(voucherRepo repository.VoucherRepository) VoucherService {
	return &voucherService{voucherRepo: voucherRepo}
}

// Claim issues a voucher for the product to the user. The repository layer
// decrements the remaining quantity and enforces the one-per-user rule in a
// single transaction, so a retry on a code collision never double-spends.
func (s *voucherService) Claim(ctx context.Context, userID, productID uuid.UUID) (*domain.Voucher, error) {
	for attempt := 0; attempt < 3; attempt++ {
		voucher := &domain.Voucher{
			ID:        uuid.New(),
			ProductID: productID,
			UserID:    userID,
			Code:      uuid.NewString(),
			CreatedAt: time.Now(),
		}

		err := s.voucherRepo.Claim(ctx, voucher)
		if err == nil {
			return voucher, nil
		}
		if errors.Is(err, repository.ErrVoucherCodeExists) {
			continue
		}
		return nil, err
	}

	return nil, repository.ErrVoucherCodeExists
}

// Get retrieves a voucher owned by the user
func (s *voucherService) Get(ctx context.Context, userID, voucherID uuid.UUID) (*domain.Voucher, error) {
	voucher, err := s.voucherRepo.FindByID(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if voucher.UserID != userID {
		return nil, ErrNotVoucherOwner
	}

	return voucher, nil
}

// Delete discards a voucher owned by the user. The product's quantity is not
// restored; a spent or discarded voucher stays spent.
func (s *voucherService) Delete(ctx context.Context, userID, voucherID uuid.UUID) error {
	voucher, err := s.voucherRepo.FindByID(ctx, voucherID)
	if err != nil {
		return err
	}
	if voucher.UserID != userID {
		return ErrNotVoucherOwner
	}

	return s.voucherRepo.Delete(ctx, voucherID)
}

// List retrieves the user's vouchers, optionally scoped to one product
func (s *voucherService) List(ctx context.Context, userID uuid.UUID, productID *uuid.UUID, page, pageSize int) ([]*domain.Voucher, int, error) {
	return s.voucherRepo.ListByUser(ctx, userID, productID, page, pageSize)
}
