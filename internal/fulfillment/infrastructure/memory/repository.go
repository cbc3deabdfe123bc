package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coalmart/storefront/internal/fulfillment/domain"
	resmemory "github.com/coalmart/storefront/internal/reservation/infrastructure/memory"
	"github.com/coalmart/storefront/pkg/outbox"
)

// Repository is the in-process order store. It consumes reservations through
// the reservation store's TakeAll so the checkout conversion is atomic, and
// records outbox events instead of publishing them.
type Repository struct {
	mu           sync.Mutex
	reservations *resmemory.Store
	orders       map[string]domain.OrderWithItems
	events       []outbox.Event
	nextEventID  int64
	failSave     error
}

func NewRepository(reservations *resmemory.Store) *Repository {
	return &Repository{
		reservations: reservations,
		orders:       make(map[string]domain.OrderWithItems),
	}
}

// FailNextSave makes the next SaveWithOutbox abort after consuming the
// reservations, exercising the rollback path.
func (r *Repository) FailNextSave(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failSave = err
}

// Events returns the recorded outbox events.
func (r *Repository) Events() []outbox.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]outbox.Event(nil), r.events...)
}

func (r *Repository) SaveWithOutbox(ctx context.Context, o domain.Order, items []domain.OrderedItem, eventType string, payload []byte, traceparent string) error {
	expected := make(map[int64]int, len(items))
	for _, item := range items {
		expected[item.ProductID] = item.Quantity
	}

	taken, err := r.reservations.TakeAll(ctx, o.UserID, expected)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failSave != nil {
		err := r.failSave
		r.failSave = nil
		r.reservations.Restore(taken)
		return err
	}

	r.orders[o.ID] = domain.OrderWithItems{Order: o, Items: append([]domain.OrderedItem(nil), items...)}
	r.nextEventID++
	r.events = append(r.events, outbox.Event{
		ID:            r.nextEventID,
		AggregateType: "order",
		AggregateID:   o.ID,
		Type:          eventType,
		Payload:       payload,
		Traceparent:   traceparent,
		CreatedAt:     time.Now().UTC(),
		Status:        outbox.StatusPending,
	})
	return nil
}

func (r *Repository) GetOrder(ctx context.Context, orderID string) (domain.OrderWithItems, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return domain.OrderWithItems{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func (r *Repository) ListOutstanding(ctx context.Context) ([]domain.OrderWithItems, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var orders []domain.OrderWithItems
	for _, o := range r.orders {
		if o.Order.Outstanding {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].Order.CreatedAt.Equal(orders[j].Order.CreatedAt) {
			return orders[i].Order.ID < orders[j].Order.ID
		}
		return orders[i].Order.CreatedAt.Before(orders[j].Order.CreatedAt)
	})
	return orders, nil
}

func (r *Repository) MarkFulfilled(ctx context.Context, orderID string) error {
	return r.setFlag(orderID, func(o *domain.Order) { o.Outstanding = false })
}

func (r *Repository) MarkPaid(ctx context.Context, orderID string) error {
	return r.setFlag(orderID, func(o *domain.Order) { o.Paid = true })
}

func (r *Repository) setFlag(orderID string, mutate func(*domain.Order)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	mutate(&o.Order)
	r.orders[orderID] = o
	return nil
}
