package cart

import (
	"context"

	"storefront-api/internal/domain"
)

// TotalsCalculator recomputes derived cart totals from line items and
// the currently applied coupon. Implemented by the pricing engine; the
// repository calls it inside each mutating transaction so mutation and
// recompute commit or roll back together.
type TotalsCalculator interface {
	Totals(items []domain.CartItem, coupon *domain.Coupon) domain.Totals
}

type CreateCartInput struct {
	CustomerID *string
	ChannelID  string
	Currency   string
}

type SaveAddressInput struct {
	Billing  domain.Address
	Shipping *domain.Address
	Email    *string
}

// Repository is the cart store: cart/item/token rows plus every
// mutating transaction the router and checkout orchestrator need.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	GetActiveByCustomer(ctx context.Context, customerID string) (*domain.Cart, error)
	GetByGuestToken(ctx context.Context, token string) (*domain.Cart, error)
	// GuestTokenExists reports whether a live guest token is known,
	// regardless of cart state. Used by the identity resolver.
	GuestTokenExists(ctx context.Context, token string) (bool, error)

	// Create inserts a new active cart. A concurrent create for the same
	// customer loses to the partial unique index and returns
	// domain.ErrAlreadyExists; callers fall back to a find.
	Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error)
	// MintGuestToken attaches a fresh opaque token to a guest cart.
	MintGuestToken(ctx context.Context, cartID string) (string, error)

	AddItem(ctx context.Context, cartID string, product domain.Product, quantity int, options map[string]string) error
	UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error
	// RemoveItems deletes the given items and returns the ids actually
	// removed; missing ids are not an error.
	RemoveItems(ctx context.Context, cartID string, itemIDs []string) ([]string, error)

	ApplyCoupon(ctx context.Context, cartID string, coupon domain.Coupon) error
	RemoveCoupon(ctx context.Context, cartID string) error

	SaveAddresses(ctx context.Context, cartID string, in SaveAddressInput) error
	SetShippingMethod(ctx context.Context, cartID, method string) error
	SetPaymentMethod(ctx context.Context, cartID, method string) error

	// MergeItems folds the source cart's items into the target by merge
	// key, recomputes the target, and deactivates the source as the
	// transaction's final write.
	MergeItems(ctx context.Context, sourceCartID, targetCartID string) error
	Deactivate(ctx context.Context, cartID string) error
}
