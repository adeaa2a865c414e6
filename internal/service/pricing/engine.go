package pricing

import (
	"github.com/shopspring/decimal"

	"storefront-api/internal/domain"
)

// Engine derives cart totals from line items and an optional coupon.
// It is pure: the cart repository invokes it inside each mutating
// transaction and persists the result itself.
type Engine struct {
	taxRate decimal.Decimal
}

// New builds an Engine with a tax rate expressed in percent (e.g. 19.0).
func New(taxRatePercent float64) *Engine {
	return &Engine{taxRate: decimal.NewFromFloat(taxRatePercent)}
}

var hundred = decimal.NewFromInt(100)

func (e *Engine) Totals(items []domain.CartItem, coupon *domain.Coupon) domain.Totals {
	var subtotal int64
	for _, item := range items {
		subtotal += item.TotalCents
	}

	discount := e.discount(subtotal, coupon)
	taxable := subtotal - discount

	tax := decimal.NewFromInt(taxable).
		Mul(e.taxRate).
		Div(hundred).
		Round(0).
		IntPart()

	return domain.Totals{
		SubtotalCents:   subtotal,
		DiscountCents:   discount,
		TaxCents:        tax,
		GrandTotalCents: taxable + tax,
	}
}

func (e *Engine) discount(subtotalCents int64, coupon *domain.Coupon) int64 {
	if coupon == nil || subtotalCents <= 0 {
		return 0
	}
	switch coupon.DiscountType {
	case domain.DiscountPercent:
		return decimal.NewFromInt(subtotalCents).
			Mul(decimal.NewFromInt(coupon.DiscountValue)).
			Div(hundred).
			Round(0).
			IntPart()
	case domain.DiscountFixed:
		if coupon.DiscountValue > subtotalCents {
			return subtotalCents
		}
		return coupon.DiscountValue
	default:
		return 0
	}
}
