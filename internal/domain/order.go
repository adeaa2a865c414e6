package domain

import "time"

// Order is the narrow slice of the order aggregate this core produces;
// full order construction belongs to the order repository.
type Order struct {
	ID              string
	CartID          string
	CustomerID      *string
	Email           string
	ShippingMethod  string
	PaymentMethod   string
	GrandTotalCents int64
	Currency        string
	CreatedAt       time.Time
}
