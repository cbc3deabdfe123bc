package application

import (
	"context"

	"github.com/coalmart/storefront/internal/stock/domain"
)

// Service is the stock ledger: the only mutation path for in_stock.
type Service struct {
	repo StockRepository
}

func NewService(repo StockRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) TryReserve(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	return s.repo.TryReserve(ctx, productID, quantity)
}

func (s *Service) Release(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	return s.repo.Release(ctx, productID, quantity)
}

// PeekAvailable is a display read; the value may be stale by the time the
// caller acts on it.
func (s *Service) PeekAvailable(ctx context.Context, productID int64) (int, error) {
	return s.repo.PeekAvailable(ctx, productID)
}

func (s *Service) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	return s.repo.GetProduct(ctx, productID)
}

// ListAvailable returns products with at least one unreserved unit, for the
// catalog view.
func (s *Service) ListAvailable(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListAvailable(ctx)
}

func (s *Service) AddProduct(ctx context.Context, p domain.Product) (int64, error) {
	if p.InStock < 0 {
		return 0, domain.ErrInvalidQuantity
	}
	return s.repo.AddProduct(ctx, p)
}
