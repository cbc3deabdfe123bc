package application

import (
	"context"

	"github.com/coalmart/storefront/internal/stock/domain"
)

type StockRepository interface {
	// TryReserve atomically checks availability and decrements in_stock.
	// Returns domain.ErrInsufficientStock without side effects on shortfall.
	TryReserve(ctx context.Context, productID int64, quantity int) error
	// Release atomically returns previously reserved units.
	Release(ctx context.Context, productID int64, quantity int) error
	PeekAvailable(ctx context.Context, productID int64) (int, error)
	GetProduct(ctx context.Context, productID int64) (domain.Product, error)
	ListAvailable(ctx context.Context) ([]domain.Product, error)
	AddProduct(ctx context.Context, p domain.Product) (int64, error)
}
