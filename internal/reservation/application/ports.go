package application

import (
	"context"

	"github.com/coalmart/storefront/internal/reservation/domain"
	stockdomain "github.com/coalmart/storefront/internal/stock/domain"
)

// Store owns reservation rows. Implementations must make AddToCart and
// RemoveFromCart atomic with the stock adjustment they imply: no partial
// decrement, no orphan row.
type Store interface {
	AddToCart(ctx context.Context, userID, productID int64, quantity int) error
	RemoveFromCart(ctx context.Context, userID, productID int64) error
	ListReservations(ctx context.Context, userID int64) ([]domain.Reservation, error)
}

// Catalog resolves products for the cart view.
type Catalog interface {
	GetProduct(ctx context.Context, productID int64) (stockdomain.Product, error)
}
