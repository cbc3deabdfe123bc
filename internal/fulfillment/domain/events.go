package domain

const EventOrderPlaced = "OrderPlaced"

type OrderPlaced struct {
	OrderID    string       `json:"order_id"`
	UserID     int64        `json:"user_id"`
	Items      []PlacedItem `json:"items"`
	TotalCents int64        `json:"total_cents"`
}

type PlacedItem struct {
	ProductID  int64 `json:"product_id"`
	Quantity   int   `json:"quantity"`
	PriceCents int64 `json:"price_cents"`
}
