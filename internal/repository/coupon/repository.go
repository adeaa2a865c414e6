package coupon

import (
	"context"

	"storefront-api/internal/domain"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
}
