package domain

import "errors"

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// Product carries the authoritative available-unit counter. InStock already
// has every outstanding cart reservation deducted, so it is never negative
// and a successful hold can not be outsold before checkout.
type Product struct {
	ID          int64
	Name        string
	Description string
	PriceCents  int64
	InStock     int
}
