package shipping

import (
	"context"

	"storefront-api/internal/domain"
)

// RateProvider computes candidate shipping rates for a destination and
// set of cart items. Quotes are read-only; callers fetch them before
// opening any mutating transaction.
type RateProvider interface {
	Rates(ctx context.Context, dest domain.Address, items []domain.CartItem) ([]domain.ShippingRate, error)
}

type tableRate struct {
	methodCode  string
	carrier     string
	description string
	baseCents   int64
	perItem     int64
}

// TableProvider serves rates from a static table with per-country
// surcharges. It stands in for a live carrier integration.
type TableProvider struct {
	currency   string
	methods    []tableRate
	surcharges map[string]int64
}

func NewTableProvider(currency string) *TableProvider {
	return &TableProvider{
		currency: currency,
		methods: []tableRate{
			{methodCode: "flatrate_standard", carrier: "flatrate", description: "Standard delivery", baseCents: 500, perItem: 100},
			{methodCode: "flatrate_express", carrier: "flatrate", description: "Express delivery", baseCents: 1500, perItem: 200},
		},
		surcharges: map[string]int64{
			"CA": 300,
			"AU": 800,
		},
	}
}

func (p *TableProvider) Rates(ctx context.Context, dest domain.Address, items []domain.CartItem) ([]domain.ShippingRate, error) {
	stockable := 0
	for _, item := range items {
		if item.IsStockable {
			stockable += item.Quantity
		}
	}
	if stockable == 0 {
		return nil, nil
	}

	surcharge := p.surcharges[dest.Country]
	rates := make([]domain.ShippingRate, 0, len(p.methods))
	for _, m := range p.methods {
		rates = append(rates, domain.ShippingRate{
			MethodCode:  m.methodCode,
			Carrier:     m.carrier,
			Description: m.description,
			AmountCents: m.baseCents + m.perItem*int64(stockable) + surcharge,
			Currency:    p.currency,
		})
	}
	return rates, nil
}
