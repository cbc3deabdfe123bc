package application

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coalmart/storefront/internal/reservation/domain"
	"github.com/coalmart/storefront/internal/reservation/infrastructure/memory"
	stockapp "github.com/coalmart/storefront/internal/stock/application"
	stockdomain "github.com/coalmart/storefront/internal/stock/domain"
	stockmemory "github.com/coalmart/storefront/internal/stock/infrastructure/memory"
)

type cartFixture struct {
	stock   *stockapp.Service
	service *Service
}

func newCartFixture(t *testing.T, stock int) (*cartFixture, int64) {
	t.Helper()
	stockSvc := stockapp.NewService(stockmemory.NewRepository())
	id, err := stockSvc.AddProduct(context.Background(), stockdomain.Product{
		Name:       "anthracite",
		PriceCents: 1500,
		InStock:    stock,
	})
	require.NoError(t, err)

	store := memory.NewStore(stockSvc)
	return &cartFixture{
		stock:   stockSvc,
		service: NewService(store, stockSvc, 0),
	}, id
}

func (f *cartFixture) available(t *testing.T, productID int64) int {
	t.Helper()
	n, err := f.stock.PeekAvailable(context.Background(), productID)
	require.NoError(t, err)
	return n
}

func TestAddToCart_CreatesHoldAndDecrementsStock(t *testing.T) {
	f, id := newCartFixture(t, 5)
	ctx := context.Background()

	require.NoError(t, f.service.AddToCart(ctx, 7, id, 3))

	assert.Equal(t, 2, f.available(t, id))

	reservations, err := f.service.ListReservations(ctx, 7)
	require.NoError(t, err)
	require.Len(t, reservations, 1)
	assert.Equal(t, 3, reservations[0].Quantity)
}

func TestAddToCart_RepeatedAddsAccumulate(t *testing.T) {
	f, id := newCartFixture(t, 10)
	ctx := context.Background()

	require.NoError(t, f.service.AddToCart(ctx, 7, id, 2))
	require.NoError(t, f.service.AddToCart(ctx, 7, id, 2))

	reservations, err := f.service.ListReservations(ctx, 7)
	require.NoError(t, err)
	require.Len(t, reservations, 1)
	assert.Equal(t, 4, reservations[0].Quantity)
	assert.Equal(t, 6, f.available(t, id))
}

func TestAddToCart_QuantityBounds(t *testing.T) {
	f, id := newCartFixture(t, 200)
	ctx := context.Background()

	assert.ErrorIs(t, f.service.AddToCart(ctx, 7, id, 0), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, f.service.AddToCart(ctx, 7, id, -2), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, f.service.AddToCart(ctx, 7, id, DefaultMaxQuantity+1), domain.ErrInvalidQuantity)

	// Rejected before the ledger is touched.
	assert.Equal(t, 200, f.available(t, id))

	reservations, err := f.service.ListReservations(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, reservations)

	assert.NoError(t, f.service.AddToCart(ctx, 7, id, DefaultMaxQuantity))
}

func TestAddToCart_OutOfStockLeavesStateUnchanged(t *testing.T) {
	f, id := newCartFixture(t, 2)
	ctx := context.Background()

	err := f.service.AddToCart(ctx, 7, id, 3)
	require.ErrorIs(t, err, stockdomain.ErrInsufficientStock)

	assert.Equal(t, 2, f.available(t, id))
	reservations, err := f.service.ListReservations(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, reservations)
}

func TestRemoveFromCart_RestoresStock(t *testing.T) {
	f, id := newCartFixture(t, 5)
	ctx := context.Background()

	require.NoError(t, f.service.AddToCart(ctx, 7, id, 3))
	require.NoError(t, f.service.RemoveFromCart(ctx, 7, id))

	assert.Equal(t, 5, f.available(t, id))
	reservations, err := f.service.ListReservations(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, reservations)
}

func TestRemoveFromCart_MissingReservation(t *testing.T) {
	f, id := newCartFixture(t, 5)

	err := f.service.RemoveFromCart(context.Background(), 7, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCart_JoinsProductDetails(t *testing.T) {
	f, id := newCartFixture(t, 5)
	ctx := context.Background()

	require.NoError(t, f.service.AddToCart(ctx, 7, id, 2))

	items, err := f.service.Cart(ctx, 7)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "anthracite", items[0].Product.Name)
	assert.Equal(t, int64(1500), items[0].Product.PriceCents)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAddToCart_ConcurrentShoppersBoundedByStock(t *testing.T) {
	const stock = 5
	const shoppers = 20

	f, id := newCartFixture(t, stock)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, shoppers)
	for i := 0; i < shoppers; i++ {
		userID := int64(i + 1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- f.service.AddToCart(ctx, userID, id, 1)
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, stockdomain.ErrInsufficientStock)
		}
	}

	assert.Equal(t, stock, succeeded)
	assert.Equal(t, 0, f.available(t, id))
}
