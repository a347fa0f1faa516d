package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"catalog-api/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newVoucherProduct(t *testing.T, quantity int) *domain.Product {
	t.Helper()

	product := newTestProduct(t, "Voucher Product", "10.00")
	product.VoucherEnabled = quantity > 0
	product.VoucherQuantity = quantity
	return product
}

func claimFor(productID, userID uuid.UUID) *domain.Voucher {
	return &domain.Voucher{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    userID,
		Code:      uuid.NewString(),
		CreatedAt: time.Now(),
	}
}

func TestVoucherRepository_ClaimDecrementsQuantity(t *testing.T) {
	productRepo := NewProductRepository(testDB)
	voucherRepo := NewVoucherRepository(testDB)
	ctx := context.Background()

	user := newTestUser(t, "voucher-claim@example.com")
	require.NoError(t, NewUserRepository(testDB).Create(ctx, user))
	defer testDB.Exec("DELETE FROM users WHERE id = $1", user.ID)

	product := newVoucherProduct(t, 3)
	require.NoError(t, productRepo.Create(ctx, product, nil))
	defer productRepo.Delete(ctx, product.ID)

	voucher := claimFor(product.ID, user.ID)
	require.NoError(t, voucherRepo.Claim(ctx, voucher))

	retrieved, err := productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, 2, retrieved.VoucherQuantity)

	found, err := voucherRepo.FindByID(ctx, voucher.ID)
	require.NoError(t, err)
	require.Equal(t, voucher.Code, found.Code)
}

func TestVoucherRepository_OneVoucherPerUserAndProduct(t *testing.T) {
	productRepo := NewProductRepository(testDB)
	voucherRepo := NewVoucherRepository(testDB)
	ctx := context.Background()

	user := newTestUser(t, "voucher-dup@example.com")
	require.NoError(t, NewUserRepository(testDB).Create(ctx, user))
	defer testDB.Exec("DELETE FROM users WHERE id = $1", user.ID)

	product := newVoucherProduct(t, 5)
	require.NoError(t, productRepo.Create(ctx, product, nil))
	defer productRepo.Delete(ctx, product.ID)

	require.NoError(t, voucherRepo.Claim(ctx, claimFor(product.ID, user.ID)))

	err := voucherRepo.Claim(ctx, claimFor(product.ID, user.ID))
	require.ErrorIs(t, err, ErrVoucherAlreadyClaimed)

	// The failed claim must not burn a voucher
	retrieved, err := productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, 4, retrieved.VoucherQuantity)
}

func TestVoucherRepository_ClaimExhaustedOrDisabled(t *testing.T) {
	productRepo := NewProductRepository(testDB)
	voucherRepo := NewVoucherRepository(testDB)
	ctx := context.Background()

	user := newTestUser(t, "voucher-empty@example.com")
	require.NoError(t, NewUserRepository(testDB).Create(ctx, user))
	defer testDB.Exec("DELETE FROM users WHERE id = $1", user.ID)

	disabled := newVoucherProduct(t, 0)
	require.NoError(t, productRepo.Create(ctx, disabled, nil))
	defer productRepo.Delete(ctx, disabled.ID)

	err := voucherRepo.Claim(ctx, claimFor(disabled.ID, user.ID))
	require.ErrorIs(t, err, ErrVoucherUnavailable)

	// Unknown products are reported as missing, not just unavailable
	err = voucherRepo.Claim(ctx, claimFor(uuid.New(), user.ID))
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestVoucherRepository_ConcurrentClaimsNeverOversell(t *testing.T) {
	productRepo := NewProductRepository(testDB)
	voucherRepo := NewVoucherRepository(testDB)
	userRepo := NewUserRepository(testDB)
	ctx := context.Background()

	const stock = 5
	const claimants = 20

	product := newVoucherProduct(t, stock)
	require.NoError(t, productRepo.Create(ctx, product, nil))
	defer productRepo.Delete(ctx, product.ID)

	users := make([]uuid.UUID, claimants)
	for i := range users {
		user := newTestUser(t, uuid.NewString()+"@claims.example.com")
		require.NoError(t, userRepo.Create(ctx, user))
		users[i] = user.ID
		defer testDB.Exec("DELETE FROM users WHERE id = $1", user.ID)
	}

	var wg sync.WaitGroup
	results := make(chan error, claimants)
	for _, userID := range users {
		wg.Add(1)
		go func(userID uuid.UUID) {
			defer wg.Done()
			results <- voucherRepo.Claim(ctx, claimFor(product.ID, userID))
		}(userID)
	}
	wg.Wait()
	close(results)

	granted := 0
	for err := range results {
		switch {
		case err == nil:
			granted++
		case errors.Is(err, ErrVoucherUnavailable):
		default:
			t.Fatalf("unexpected claim error: %v", err)
		}
	}

	require.Equal(t, stock, granted, "exactly the available quantity may be granted")

	retrieved, err := productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, 0, retrieved.VoucherQuantity)
}

func TestVoucherRepository_ListByUser(t *testing.T) {
	productRepo := NewProductRepository(testDB)
	voucherRepo := NewVoucherRepository(testDB)
	ctx := context.Background()

	user := newTestUser(t, "voucher-list@example.com")
	require.NoError(t, NewUserRepository(testDB).Create(ctx, user))
	defer testDB.Exec("DELETE FROM users WHERE id = $1", user.ID)

	first := newVoucherProduct(t, 2)
	second := newVoucherProduct(t, 2)
	require.NoError(t, productRepo.Create(ctx, first, nil))
	require.NoError(t, productRepo.Create(ctx, second, nil))
	defer productRepo.Delete(ctx, first.ID)
	defer productRepo.Delete(ctx, second.ID)

	require.NoError(t, voucherRepo.Claim(ctx, claimFor(first.ID, user.ID)))
	require.NoError(t, voucherRepo.Claim(ctx, claimFor(second.ID, user.ID)))

	all, total, err := voucherRepo.ListByUser(ctx, user.ID, nil, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, all, 2)

	scoped, total, err := voucherRepo.ListByUser(ctx, user.ID, &first.ID, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, first.ID, scoped[0].ProductID)
}
