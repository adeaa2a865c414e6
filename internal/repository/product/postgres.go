package product

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"storefront-api/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const columns = `id::text, sku, name, price_cents, currency, item_type, is_active, is_stockable, created_at`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.fetch(ctx, `SELECT `+columns+` FROM products WHERE id = $1::uuid`, id)
}

func (r *postgresRepo) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return r.fetch(ctx, `SELECT `+columns+` FROM products WHERE sku = $1`, sku)
}

func (r *postgresRepo) fetch(ctx context.Context, query, arg string) (*domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.SKU, &p.Name, &p.PriceCents, &p.Currency, &p.ItemType, &p.IsActive, &p.IsStockable, &p.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, pgx.ErrNoRows) || (errors.As(err, &pgErr) && pgErr.Code == "22P02") {
			return nil, domain.E(domain.KindNotFound, "product not found")
		}
		return nil, err
	}
	return &p, nil
}
