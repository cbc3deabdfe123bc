package domain

import (
	"errors"
	"time"
)

var (
	// ErrEmptyCart: checkout attempted with no reservations.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCheckoutFailed: the checkout transaction could not complete; the
	// pre-checkout state is fully restored and the caller may retry.
	ErrCheckoutFailed = errors.New("checkout failed")
	ErrOrderNotFound  = errors.New("order not found")
)

// Contact is the shipping/contact block captured at checkout.
type Contact struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Country      string `json:"country"`
	PostalCode   string `json:"postal_code"`
	City         string `json:"city"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
}

// Order is created exactly once per checkout and immutable afterwards except
// for the Outstanding/Paid flags, which downstream fulfillment flips.
type Order struct {
	ID          string
	UserID      int64
	Outstanding bool
	Paid        bool
	Contact     Contact
	CreatedAt   time.Time
}

// OrderedItem is a purchase-time snapshot; later price or stock changes never
// alter a placed order.
type OrderedItem struct {
	OrderID    string
	ProductID  int64
	Quantity   int
	PriceCents int64
}

type OrderWithItems struct {
	Order Order
	Items []OrderedItem
}

func (o OrderWithItems) TotalCents() int64 {
	var total int64
	for _, item := range o.Items {
		total += int64(item.Quantity) * item.PriceCents
	}
	return total
}

func NewOrder(id string, userID int64, contact Contact) Order {
	return Order{
		ID:          id,
		UserID:      userID,
		Outstanding: true,
		Paid:        false,
		Contact:     contact,
		CreatedAt:   time.Now().UTC(),
	}
}
