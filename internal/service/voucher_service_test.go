package service

import (
	"context"
	"testing"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type mockVoucherRepository struct {
	vouchers  map[uuid.UUID]*domain.Voucher
	stock     map[uuid.UUID]int
	usedCodes map[string]bool

	// number of Claim calls that should fail with a code collision before
	// succeeding, to exercise the retry loop
	codeCollisions int
}

func newMockVoucherRepository() *mockVoucherRepository {
	return &mockVoucherRepository{
		vouchers:  make(map[uuid.UUID]*domain.Voucher),
		stock:     make(map[uuid.UUID]int),
		usedCodes: make(map[string]bool),
	}
}

func (m *mockVoucherRepository) Claim(ctx context.Context, voucher *domain.Voucher) error {
	if m.codeCollisions > 0 {
		m.codeCollisions--
		return repository.ErrVoucherCodeExists
	}
	remaining, ok := m.stock[voucher.ProductID]
	if !ok {
		return repository.ErrProductNotFound
	}
	if remaining <= 0 {
		return repository.ErrVoucherUnavailable
	}
	for _, existing := range m.vouchers {
		if existing.ProductID == voucher.ProductID && existing.UserID == voucher.UserID {
			return repository.ErrVoucherAlreadyClaimed
		}
	}
	if m.usedCodes[voucher.Code] {
		return repository.ErrVoucherCodeExists
	}
	m.stock[voucher.ProductID] = remaining - 1
	m.usedCodes[voucher.Code] = true
	m.vouchers[voucher.ID] = voucher
	return nil
}

func (m *mockVoucherRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.vouchers[id]; !ok {
		return repository.ErrVoucherNotFound
	}
	delete(m.vouchers, id)
	return nil
}

func (m *mockVoucherRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Voucher, error) {
	voucher, ok := m.vouchers[id]
	if !ok {
		return nil, repository.ErrVoucherNotFound
	}
	return voucher, nil
}

func (m *mockVoucherRepository) ListByUser(ctx context.Context, userID uuid.UUID, productID *uuid.UUID, page, pageSize int) ([]*domain.Voucher, int, error) {
	matched := []*domain.Voucher{}
	for _, v := range m.vouchers {
		if v.UserID != userID {
			continue
		}
		if productID != nil && v.ProductID != *productID {
			continue
		}
		matched = append(matched, v)
	}
	return matched, len(matched), nil
}

func TestVoucherService_ClaimIssuesUniqueCode(t *testing.T) {
	repo := newMockVoucherRepository()
	svc := NewVoucherService(repo)
	ctx := context.Background()

	productID := uuid.New()
	repo.stock[productID] = 2

	first, err := svc.Claim(ctx, uuid.New(), productID)
	require.NoError(t, err)
	require.NotEmpty(t, first.Code)
	require.WithinDuration(t, time.Now(), first.CreatedAt, time.Minute)

	second, err := svc.Claim(ctx, uuid.New(), productID)
	require.NoError(t, err)
	require.NotEqual(t, first.Code, second.Code)
	require.Equal(t, 0, repo.stock[productID])
}

func TestVoucherService_ClaimRetriesOnCodeCollision(t *testing.T) {
	repo := newMockVoucherRepository()
	svc := NewVoucherService(repo)
	ctx := context.Background()

	productID := uuid.New()
	repo.stock[productID] = 1
	repo.codeCollisions = 2

	voucher, err := svc.Claim(ctx, uuid.New(), productID)
	require.NoError(t, err)
	require.NotNil(t, voucher)
	require.Equal(t, 0, repo.stock[productID])
}

func TestVoucherService_ClaimGivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := newMockVoucherRepository()
	svc := NewVoucherService(repo)
	ctx := context.Background()

	productID := uuid.New()
	repo.stock[productID] = 1
	repo.codeCollisions = 5

	_, err := svc.Claim(ctx, uuid.New(), productID)
	require.ErrorIs(t, err, repository.ErrVoucherCodeExists)
	require.Equal(t, 1, repo.stock[productID])
}

func TestVoucherService_ClaimSurfacesRepositoryErrors(t *testing.T) {
	repo := newMockVoucherRepository()
	svc := NewVoucherService(repo)
	ctx := context.Background()

	// Unknown product
	_, err := svc.Claim(ctx, uuid.New(), uuid.New())
	require.ErrorIs(t, err, repository.ErrProductNotFound)

	// Exhausted stock
	productID := uuid.New()
	repo.stock[productID] = 0
	_, err = svc.Claim(ctx, uuid.New(), productID)
	require.ErrorIs(t, err, repository.ErrVoucherUnavailable)

	// One voucher per user and product
	repo.stock[productID] = 5
	userID := uuid.New()
	_, err = svc.Claim(ctx, userID, productID)
	require.NoError(t, err)
	_, err = svc.Claim(ctx, userID, productID)
	require.ErrorIs(t, err, repository.ErrVoucherAlreadyClaimed)
}

func TestVoucherService_OwnershipIsNotDisclosed(t *testing.T) {
	repo := newMockVoucherRepository()
	svc := NewVoucherService(repo)
	ctx := context.Background()

	productID := uuid.New()
	repo.stock[productID] = 1
	owner := uuid.New()
	stranger := uuid.New()

	voucher, err := svc.Claim(ctx, owner, productID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, stranger, voucher.ID)
	require.ErrorIs(t, err, ErrNotVoucherOwner)
	require.ErrorIs(t, svc.Delete(ctx, stranger, voucher.ID), ErrNotVoucherOwner)

	got, err := svc.Get(ctx, owner, voucher.ID)
	require.NoError(t, err)
	require.Equal(t, voucher.Code, got.Code)

	require.NoError(t, svc.Delete(ctx, owner, voucher.ID))
	_, err = svc.Get(ctx, owner, voucher.ID)
	require.ErrorIs(t, err, repository.ErrVoucherNotFound)
}

func TestVoucherService_ListScopesToUser(t *testing.T) {
	repo := newMockVoucherRepository()
	svc := NewVoucherService(repo)
	ctx := context.Background()

	firstProduct := uuid.New()
	secondProduct := uuid.New()
	repo.stock[firstProduct] = 5
	repo.stock[secondProduct] = 5

	me := uuid.New()
	other := uuid.New()

	_, err := svc.Claim(ctx, me, firstProduct)
	require.NoError(t, err)
	_, err = svc.Claim(ctx, me, secondProduct)
	require.NoError(t, err)
	_, err = svc.Claim(ctx, other, firstProduct)
	require.NoError(t, err)

	mine, total, err := svc.List(ctx, me, nil, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, mine, 2)

	scoped, total, err := svc.List(ctx, me, &firstProduct, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, firstProduct, scoped[0].ProductID)
}
