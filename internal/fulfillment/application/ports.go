package application

import (
	"context"

	"github.com/coalmart/storefront/internal/fulfillment/domain"
	resdomain "github.com/coalmart/storefront/internal/reservation/domain"
	stockdomain "github.com/coalmart/storefront/internal/stock/domain"
)

// OrderRepository persists orders. SaveWithOutbox must be atomic: order row,
// item snapshots, deletion of the user's reservations and the outbox event
// all commit together or not at all. The passed items are the quantities the
// engine enumerated; the repository must fail the transaction if the live
// reservations no longer match them.
type OrderRepository interface {
	SaveWithOutbox(ctx context.Context, o domain.Order, items []domain.OrderedItem, eventType string, payload []byte, traceparent string) error
	GetOrder(ctx context.Context, orderID string) (domain.OrderWithItems, error)
	ListOutstanding(ctx context.Context) ([]domain.OrderWithItems, error)
	MarkFulfilled(ctx context.Context, orderID string) error
	MarkPaid(ctx context.Context, orderID string) error
}

// ReservationSource enumerates the checkout input set.
type ReservationSource interface {
	ListReservations(ctx context.Context, userID int64) ([]resdomain.Reservation, error)
}

// Catalog supplies unit prices for the item snapshots.
type Catalog interface {
	GetProduct(ctx context.Context, productID int64) (stockdomain.Product, error)
}
