package application

import (
	"context"

	"github.com/coalmart/storefront/internal/reservation/domain"
)

// DefaultMaxQuantity bounds a single add-to-cart request. The upstream form
// defaults quantity to 1; anything above this is rejected before the ledger
// is touched.
const DefaultMaxQuantity = 99

type Service struct {
	store   Store
	catalog Catalog
	maxQty  int
}

func NewService(store Store, catalog Catalog, maxQty int) *Service {
	if maxQty <= 0 {
		maxQty = DefaultMaxQuantity
	}
	return &Service{store: store, catalog: catalog, maxQty: maxQty}
}

// AddToCart places or grows a hold. Repeated calls accumulate quantity; they
// never replace it.
func (s *Service) AddToCart(ctx context.Context, userID, productID int64, quantity int) error {
	if quantity <= 0 || quantity > s.maxQty {
		return domain.ErrInvalidQuantity
	}
	return s.store.AddToCart(ctx, userID, productID, quantity)
}

// RemoveFromCart drops the whole hold and returns its units to stock.
// Partial removal is not supported.
func (s *Service) RemoveFromCart(ctx context.Context, userID, productID int64) error {
	return s.store.RemoveFromCart(ctx, userID, productID)
}

func (s *Service) ListReservations(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	return s.store.ListReservations(ctx, userID)
}

// Cart joins the shopper's holds with product details for display.
func (s *Service) Cart(ctx context.Context, userID int64) ([]domain.CartItem, error) {
	reservations, err := s.store.ListReservations(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.CartItem, 0, len(reservations))
	for _, res := range reservations {
		p, err := s.catalog.GetProduct(ctx, res.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.CartItem{
			Product:  p,
			Quantity: res.Quantity,
			AddedAt:  res.UpdatedAt,
		})
	}
	return items, nil
}
