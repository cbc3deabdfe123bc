package domain

import (
	"errors"
	"time"

	stock "github.com/coalmart/storefront/internal/stock/domain"
)

var (
	// ErrNotFound: the (user, product) pair has no active hold.
	ErrNotFound = errors.New("reservation not found")
	// ErrInvalidQuantity: requested quantity outside the accepted range.
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// Reservation is a temporary hold of units for one shopper. Stock is
// decremented the moment the hold is created, so the sum of active holds
// plus in_stock never exceeds the product's original stock.
type Reservation struct {
	UserID    int64
	ProductID int64
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem is the cart-view join of a hold with its product.
type CartItem struct {
	Product  stock.Product
	Quantity int
	AddedAt  time.Time
}
