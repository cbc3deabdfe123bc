package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/coalmart/storefront/internal/stock/domain"
)

// Repository is an in-process stock ledger. A single mutex serializes the
// check-and-decrement so concurrent holds on the last unit can not both
// succeed.
type Repository struct {
	mu       sync.Mutex
	products map[int64]*domain.Product
	nextID   int64
}

func NewRepository() *Repository {
	return &Repository{products: make(map[int64]*domain.Product)}
}

func (r *Repository) TryReserve(ctx context.Context, productID int64, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if p.InStock < quantity {
		return domain.ErrInsufficientStock
	}
	p.InStock -= quantity
	return nil
}

func (r *Repository) Release(ctx context.Context, productID int64, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.InStock += quantity
	return nil
}

func (r *Repository) PeekAvailable(ctx context.Context, productID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	return p.InStock, nil
}

func (r *Repository) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return *p, nil
}

func (r *Repository) ListAvailable(ctx context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var products []domain.Product
	for _, p := range r.products {
		if p.InStock > 0 {
			products = append(products, *p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (r *Repository) AddProduct(ctx context.Context, p domain.Product) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	p.ID = r.nextID
	r.products[p.ID] = &p
	return p.ID, nil
}
