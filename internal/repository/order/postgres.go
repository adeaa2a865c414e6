package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"storefront-api/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const columns = `id::text, cart_id::text, customer_id::text, email, COALESCE(shipping_method, ''), payment_method, grand_total_cents, currency, created_at`

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	const q = `
INSERT INTO orders (id, cart_id, customer_id, email, shipping_method, payment_method, grand_total_cents, currency)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
RETURNING ` + columns
	var out domain.Order
	err := r.pool.QueryRow(ctx, q, uuid.NewString(), o.CartID, o.CustomerID, o.Email, o.ShippingMethod, o.PaymentMethod, o.GrandTotalCents, o.Currency).Scan(
		&out.ID, &out.CartID, &out.CustomerID, &out.Email, &out.ShippingMethod, &out.PaymentMethod, &out.GrandTotalCents, &out.Currency, &out.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var out domain.Order
	err := r.pool.QueryRow(ctx, `SELECT `+columns+` FROM orders WHERE id = $1::uuid`, id).Scan(
		&out.ID, &out.CartID, &out.CustomerID, &out.Email, &out.ShippingMethod, &out.PaymentMethod, &out.GrandTotalCents, &out.Currency, &out.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.E(domain.KindNotFound, "order not found")
		}
		return nil, err
	}
	return &out, nil
}
