package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coalmart/storefront/internal/reservation/domain"
)

// StockLedger is the slice of the stock ledger the store needs to keep holds
// and the availability counter in lockstep.
type StockLedger interface {
	TryReserve(ctx context.Context, productID int64, quantity int) error
	Release(ctx context.Context, productID int64, quantity int) error
}

type key struct {
	userID    int64
	productID int64
}

// Store keeps reservations in process memory. One mutex serializes the
// read-modify-write on a hold, so a double-clicked add never loses an update.
type Store struct {
	mu     sync.Mutex
	ledger StockLedger
	items  map[key]*domain.Reservation
}

func NewStore(ledger StockLedger) *Store {
	return &Store{ledger: ledger, items: make(map[key]*domain.Reservation)}
}

func (s *Store) AddToCart(ctx context.Context, userID, productID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Decrement first; a shortfall must leave no trace.
	if err := s.ledger.TryReserve(ctx, productID, quantity); err != nil {
		return err
	}

	now := time.Now().UTC()
	k := key{userID: userID, productID: productID}
	if res, ok := s.items[k]; ok {
		res.Quantity += quantity
		res.UpdatedAt = now
		return nil
	}
	s.items[k] = &domain.Reservation{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (s *Store) RemoveFromCart(ctx context.Context, userID, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{userID: userID, productID: productID}
	res, ok := s.items[k]
	if !ok {
		return domain.ErrNotFound
	}
	if err := s.ledger.Release(ctx, productID, res.Quantity); err != nil {
		return err
	}
	delete(s.items, k)
	return nil
}

func (s *Store) ListReservations(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reservations []domain.Reservation
	for _, res := range s.items {
		if res.UserID == userID {
			reservations = append(reservations, *res)
		}
	}
	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].ProductID < reservations[j].ProductID
	})
	return reservations, nil
}

// TakeAll atomically removes every hold of the user if they match the
// expected per-product quantities. The checkout repository uses this as its
// "delete reservations" step; a mismatch means the cart changed after
// enumeration and the checkout must retry.
func (s *Store) TakeAll(ctx context.Context, userID int64, expected map[int64]int) ([]domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var taken []domain.Reservation
	for _, res := range s.items {
		if res.UserID == userID {
			taken = append(taken, *res)
		}
	}
	if len(taken) != len(expected) {
		return nil, domain.ErrNotFound
	}
	for _, res := range taken {
		if expected[res.ProductID] != res.Quantity {
			return nil, domain.ErrNotFound
		}
	}
	for _, res := range taken {
		delete(s.items, key{userID: userID, productID: res.ProductID})
	}
	return taken, nil
}

// Restore puts holds back after a failed checkout transaction.
func (s *Store) Restore(reservations []domain.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, res := range reservations {
		r := res
		s.items[key{userID: res.UserID, productID: res.ProductID}] = &r
	}
}
