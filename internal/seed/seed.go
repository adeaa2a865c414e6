package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-api/internal/domain"
)

type productSeed struct {
	SKU         string
	Name        string
	PriceCents  int64
	Currency    string
	ItemType    string
	IsStockable bool
}

type couponSeed struct {
	Code          string
	DiscountType  string
	DiscountValue int64
	ExpiresAt     *time.Time
}

// Apply inserts demo catalog data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool, extraProducts int) error {
	products := []productSeed{
		{
			SKU:         "SKU-DEMO-TSHIRT",
			Name:        "Demo T-Shirt",
			PriceCents:  1999,
			Currency:    "USD",
			ItemType:    domain.ItemTypeConfigurable,
			IsStockable: true,
		},
		{
			SKU:         "SKU-DEMO-MUG",
			Name:        "Demo Mug",
			PriceCents:  1299,
			Currency:    "USD",
			ItemType:    domain.ItemTypeSimple,
			IsStockable: true,
		},
		{
			SKU:         "SKU-DEMO-EBOOK",
			Name:        "Demo E-Book",
			PriceCents:  899,
			Currency:    "USD",
			ItemType:    domain.ItemTypeDownloadable,
			IsStockable: false,
		},
	}

	faker := gofakeit.New(0)
	for i := 0; i < extraProducts; i++ {
		products = append(products, productSeed{
			SKU:         fmt.Sprintf("SKU-GEN-%04d", i),
			Name:        faker.ProductName(),
			PriceCents:  int64(faker.IntRange(299, 19999)),
			Currency:    "USD",
			ItemType:    domain.ItemTypeSimple,
			IsStockable: true,
		})
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}

	nextMonth := time.Now().UTC().AddDate(0, 1, 0)
	coupons := []couponSeed{
		{Code: "WELCOME10", DiscountType: "percent", DiscountValue: 10},
		{Code: "FIVEOFF", DiscountType: "fixed", DiscountValue: 500, ExpiresAt: &nextMonth},
	}

	for _, c := range coupons {
		if err := upsertCoupon(ctx, pool, c); err != nil {
			return fmt.Errorf("upsert coupon %s: %w", c.Code, err)
		}
	}

	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const q = `
INSERT INTO products (sku, name, price_cents, currency, item_type, is_active, is_stockable)
VALUES ($1, $2, $3, $4, $5, true, $6)
ON CONFLICT (sku) DO UPDATE
SET name = EXCLUDED.name,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency,
    item_type = EXCLUDED.item_type,
    is_stockable = EXCLUDED.is_stockable
`
	_, err := pool.Exec(ctx, q, p.SKU, p.Name, p.PriceCents, p.Currency, p.ItemType, p.IsStockable)
	return err
}

func upsertCoupon(ctx context.Context, pool *pgxpool.Pool, c couponSeed) error {
	const q = `
INSERT INTO coupons (code, discount_type, discount_value, is_active, expires_at)
VALUES ($1, $2, $3, true, $4)
ON CONFLICT (code) DO UPDATE
SET discount_type = EXCLUDED.discount_type,
    discount_value = EXCLUDED.discount_value,
    expires_at = EXCLUDED.expires_at
`
	_, err := pool.Exec(ctx, q, c.Code, c.DiscountType, c.DiscountValue, c.ExpiresAt)
	return err
}
