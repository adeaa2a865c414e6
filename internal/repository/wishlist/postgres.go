package wishlist

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"storefront-api/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Add(ctx context.Context, items []domain.WishlistItem) error {
	for _, item := range items {
		options := item.Options
		if options == nil {
			options = map[string]string{}
		}
		_, err := r.pool.Exec(ctx, `
INSERT INTO wishlist_items (customer_id, product_id, options)
VALUES ($1, $2, $3)
`, item.CustomerID, item.ProductID, options)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.WishlistItem, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id::text, customer_id::text, product_id::text, options, created_at
FROM wishlist_items
WHERE customer_id = $1
ORDER BY created_at DESC
`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.WishlistItem
	for rows.Next() {
		var item domain.WishlistItem
		if err := rows.Scan(&item.ID, &item.CustomerID, &item.ProductID, &item.Options, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
