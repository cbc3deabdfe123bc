package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coalmart/storefront/internal/fulfillment/domain"
	"github.com/google/uuid"
)

// Service converts a shopper's reservation set into a committed order.
// Stock was decremented when each hold was created, so checkout performs no
// further decrement: it is a pure conversion of holds into a permanent
// record.
type Service struct {
	repo         OrderRepository
	reservations ReservationSource
	catalog      Catalog
}

func NewService(repo OrderRepository, reservations ReservationSource, catalog Catalog) *Service {
	return &Service{repo: repo, reservations: reservations, catalog: catalog}
}

// Checkout commits every hold of the user as one atomic unit. On any storage
// failure the reservations stay intact and domain.ErrCheckoutFailed is
// returned; the caller may retry.
func (s *Service) Checkout(ctx context.Context, userID int64, contact domain.Contact, traceparent string) (string, error) {
	reservations, err := s.reservations.ListReservations(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCheckoutFailed, err)
	}
	if len(reservations) == 0 {
		return "", domain.ErrEmptyCart
	}

	// TODO: validate contact fields beyond what the form enforces.
	order := domain.NewOrder(uuid.NewString(), userID, contact)

	items := make([]domain.OrderedItem, 0, len(reservations))
	for _, res := range reservations {
		p, err := s.catalog.GetProduct(ctx, res.ProductID)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrCheckoutFailed, err)
		}
		items = append(items, domain.OrderedItem{
			OrderID:    order.ID,
			ProductID:  res.ProductID,
			Quantity:   res.Quantity,
			PriceCents: p.PriceCents,
		})
	}

	event := domain.OrderPlaced{
		OrderID: order.ID,
		UserID:  userID,
	}
	for _, item := range items {
		event.Items = append(event.Items, domain.PlacedItem{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			PriceCents: item.PriceCents,
		})
		event.TotalCents += int64(item.Quantity) * item.PriceCents
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCheckoutFailed, err)
	}

	if err := s.repo.SaveWithOutbox(ctx, order, items, domain.EventOrderPlaced, payload, traceparent); err != nil {
		if errors.Is(err, domain.ErrEmptyCart) {
			return "", domain.ErrEmptyCart
		}
		return "", fmt.Errorf("%w: %v", domain.ErrCheckoutFailed, err)
	}
	return order.ID, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (domain.OrderWithItems, error) {
	return s.repo.GetOrder(ctx, orderID)
}

// ListOutstandingOrders enumerates committed orders awaiting fulfillment,
// oldest first. Read-only.
func (s *Service) ListOutstandingOrders(ctx context.Context) ([]domain.OrderWithItems, error) {
	return s.repo.ListOutstanding(ctx)
}

// MarkFulfilled and MarkPaid are the downstream status updates; they are not
// reachable from the shopper-facing API.
func (s *Service) MarkFulfilled(ctx context.Context, orderID string) error {
	return s.repo.MarkFulfilled(ctx, orderID)
}

func (s *Service) MarkPaid(ctx context.Context, orderID string) error {
	return s.repo.MarkPaid(ctx, orderID)
}
