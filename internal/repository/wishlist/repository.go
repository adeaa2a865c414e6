package wishlist

import (
	"context"

	"storefront-api/internal/domain"
)

type Repository interface {
	Add(ctx context.Context, items []domain.WishlistItem) error
	ListByCustomer(ctx context.Context, customerID string) ([]domain.WishlistItem, error)
}
