package order

import (
	"context"

	"storefront-api/internal/domain"
)

// Repository is the narrow order-persistence contract the checkout
// orchestrator delegates to; full order construction lives behind it.
type Repository interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}
