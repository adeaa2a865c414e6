package domain

import "time"

// Customer represents a registered shopper.
type Customer struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// WishlistItem is a saved-for-later product owned by a customer.
type WishlistItem struct {
	ID         string
	CustomerID string
	ProductID  string
	Options    map[string]string
	CreatedAt  time.Time
}
