package cart

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"storefront-api/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	calc   TotalsCalculator
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, calc TotalsCalculator, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, calc: calc, logger: logger}
}

// isInvalidText reports whether postgres rejected a parameter's text
// representation, which is how a malformed uuid surfaces.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

const cartColumns = `
id::text, customer_id::text, channel_id, is_active, currency, coupon_code, email,
billing_address, shipping_address, shipping_method, payment_method,
subtotal_cents, discount_cents, tax_cents, grand_total_cents, created_at, updated_at
`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Cart, error) {
	return r.fetchCart(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, id)
}

func (r *postgresRepo) GetActiveByCustomer(ctx context.Context, customerID string) (*domain.Cart, error) {
	return r.fetchCart(ctx, `
SELECT `+cartColumns+`
FROM carts
WHERE customer_id = $1 AND is_active
ORDER BY created_at DESC
LIMIT 1
`, customerID)
}

// GetByGuestToken returns the cart behind a token regardless of cart
// state; callers decide whether an inactive cart means "not found"
// (router) or "merge already happened" (merge engine).
func (r *postgresRepo) GetByGuestToken(ctx context.Context, token string) (*domain.Cart, error) {
	return r.fetchCart(ctx, `
SELECT `+cartColumns+`
FROM carts
JOIN guest_cart_tokens t ON t.cart_id = carts.id
WHERE t.token = $1
`, token)
}

func (r *postgresRepo) GuestTokenExists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM guest_cart_tokens WHERE token = $1)`, token).Scan(&exists)
	return exists, err
}

func (r *postgresRepo) Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error) {
	const q = `
INSERT INTO carts (customer_id, channel_id, currency)
VALUES ($1, $2, $3)
RETURNING id::text
`
	var cartID string
	if err := r.pool.QueryRow(ctx, q, in.CustomerID, in.ChannelID, in.Currency).Scan(&cartID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return r.GetByID(ctx, cartID)
}

func (r *postgresRepo) MintGuestToken(ctx context.Context, cartID string) (string, error) {
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", err
		}
		_, err = r.pool.Exec(ctx, `INSERT INTO guest_cart_tokens (token, cart_id) VALUES ($1, $2)`, token, cartID)
		if err == nil {
			return token, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "guest_cart_tokens_pkey" {
			continue
		}
		return "", err
	}
	return "", errors.New("guest token collision")
}

func (r *postgresRepo) AddItem(ctx context.Context, cartID string, product domain.Product, quantity int, options map[string]string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	optionsKey := domain.CanonicalOptions(options)
	if options == nil {
		options = map[string]string{}
	}

	// The merge-key upsert makes concurrent adds of the same line add
	// quantities instead of racing on the unique index. An existing line
	// keeps its captured unit price.
	if _, err := tx.Exec(ctx, `
INSERT INTO cart_items (cart_id, product_id, item_type, quantity, options, options_key, unit_price_cents, total_cents, is_stockable)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (cart_id, product_id, item_type, options_key)
DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity,
              total_cents = cart_items.unit_price_cents * (cart_items.quantity + EXCLUDED.quantity)
`, cartID, product.ID, product.ItemType, quantity, options, optionsKey, product.PriceCents, product.PriceCents*int64(quantity), product.IsStockable); err != nil {
		return err
	}

	if err := r.recompute(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
UPDATE cart_items
SET quantity = $1, total_cents = unit_price_cents * $1
WHERE id = $2 AND cart_id = $3
`, quantity, itemID, cartID)
	if err != nil {
		if isInvalidText(err) {
			return domain.E(domain.KindNotFound, "cart item not found")
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.E(domain.KindNotFound, "cart item not found")
	}

	if err := r.recompute(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) RemoveItems(ctx context.Context, cartID string, itemIDs []string) ([]string, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
DELETE FROM cart_items
WHERE cart_id = $1 AND id = ANY($2::uuid[])
RETURNING id::text
`, cartID, itemIDs)
	if err != nil {
		if isInvalidText(err) {
			return nil, domain.E(domain.KindInvalidInput, "invalid cart item id")
		}
		return nil, err
	}
	var removed []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		removed = append(removed, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		if isInvalidText(err) {
			return nil, domain.E(domain.KindInvalidInput, "invalid cart item id")
		}
		return nil, err
	}

	if err := r.recompute(ctx, tx, cartID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return removed, nil
}

// ApplyCoupon writes the code and recomputes totals in one transaction.
// A code the calculator does not reflect in the discount rolls back with
// the coupon write, so the cart never carries a dead code.
func (r *postgresRepo) ApplyCoupon(ctx context.Context, cartID string, coupon domain.Coupon) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE carts SET coupon_code = $1 WHERE id = $2`, coupon.Code, cartID); err != nil {
		return err
	}

	items, err := loadItems(ctx, tx, cartID)
	if err != nil {
		return err
	}
	totals := r.calc.Totals(items, &coupon)
	if totals.DiscountCents == 0 {
		return domain.E(domain.KindOperationFailed, "coupon not reflected in cart totals")
	}
	if err := writeTotals(ctx, tx, cartID, totals); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) RemoveCoupon(ctx context.Context, cartID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE carts SET coupon_code = NULL WHERE id = $1`, cartID); err != nil {
		return err
	}
	if err := r.recompute(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SaveAddresses replaces both addresses in a single update so a prior
// shipping address never survives a billing-only rewrite.
func (r *postgresRepo) SaveAddresses(ctx context.Context, cartID string, in SaveAddressInput) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE carts
SET billing_address = $1,
    shipping_address = $2,
    email = COALESCE($3, email),
    updated_at = now()
WHERE id = $4
`, in.Billing, in.Shipping, in.Email, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.E(domain.KindNotFound, "cart not found")
	}
	return nil
}

// SetShippingMethod persists the selection and recomputes totals in the
// same transaction, keeping the cart row consistent even when a method
// change coincides with an item mutation.
func (r *postgresRepo) SetShippingMethod(ctx context.Context, cartID, method string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `UPDATE carts SET shipping_method = $1, updated_at = now() WHERE id = $2`, method, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.E(domain.KindNotFound, "cart not found")
	}
	if err := r.recompute(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) SetPaymentMethod(ctx context.Context, cartID, method string) error {
	return r.setCheckoutField(ctx, cartID, "payment_method", method)
}

func (r *postgresRepo) setCheckoutField(ctx context.Context, cartID, column, value string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE carts SET `+column+` = $1, updated_at = now() WHERE id = $2`, value, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.E(domain.KindNotFound, "cart not found")
	}
	return nil
}

func (r *postgresRepo) MergeItems(ctx context.Context, sourceCartID, targetCartID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Lock the source row for the whole transaction. A concurrent merge
	// of the same guest cart blocks here, then sees is_active=false and
	// leaves the target untouched.
	var sourceActive bool
	err = tx.QueryRow(ctx, `SELECT is_active FROM carts WHERE id = $1 FOR UPDATE`, sourceCartID).Scan(&sourceActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return domain.E(domain.KindNotFound, "cart not found")
		}
		return err
	}
	if !sourceActive {
		return nil
	}

	items, err := loadItems(ctx, tx, sourceCartID)
	if err != nil {
		return err
	}

	for _, item := range items {
		if item.Quantity < 1 {
			r.logger.Printf("cart repo: merge skip item=%s cart=%s reason=non-positive quantity", item.ID, sourceCartID)
			continue
		}
		// Savepoint per item: one malformed legacy row must not abort
		// the rest of the merge.
		inner, err := tx.Begin(ctx)
		if err != nil {
			return err
		}
		options := item.Options
		if options == nil {
			options = map[string]string{}
		}
		_, err = inner.Exec(ctx, `
INSERT INTO cart_items (cart_id, product_id, item_type, quantity, options, options_key, unit_price_cents, total_cents, is_stockable)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (cart_id, product_id, item_type, options_key)
DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity,
              total_cents = cart_items.unit_price_cents * (cart_items.quantity + EXCLUDED.quantity)
`, targetCartID, item.ProductID, item.ItemType, item.Quantity, options, domain.CanonicalOptions(item.Options), item.UnitPriceCents, item.TotalCents, item.IsStockable)
		if err != nil {
			_ = inner.Rollback(ctx)
			r.logger.Printf("cart repo: merge skip item=%s cart=%s error=%v", item.ID, sourceCartID, err)
			continue
		}
		if err := inner.Commit(ctx); err != nil {
			return err
		}
	}

	if err := r.recompute(ctx, tx, targetCartID); err != nil {
		return err
	}

	// Deactivation is the final write; the row lock above guarantees
	// the source is still active when this statement runs.
	if _, err := tx.Exec(ctx, `UPDATE carts SET is_active = false, updated_at = now() WHERE id = $1 AND is_active`, sourceCartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) Deactivate(ctx context.Context, cartID string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE carts SET is_active = false, updated_at = now() WHERE id = $1 AND is_active`, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.E(domain.KindNotFound, "active cart not found")
	}
	return nil
}

func (r *postgresRepo) fetchCart(ctx context.Context, query string, args ...interface{}) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.ChannelID,
		&cart.IsActive,
		&cart.Currency,
		&cart.CouponCode,
		&cart.Email,
		&cart.BillingAddress,
		&cart.ShippingAddress,
		&cart.ShippingMethod,
		&cart.PaymentMethod,
		&cart.Totals.SubtotalCents,
		&cart.Totals.DiscountCents,
		&cart.Totals.TaxCents,
		&cart.Totals.GrandTotalCents,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, domain.E(domain.KindNotFound, "cart not found")
		}
		return nil, err
	}

	items, err := loadItems(ctx, r.pool, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return &cart, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadItems(ctx context.Context, q querier, cartID string) ([]domain.CartItem, error) {
	rows, err := q.Query(ctx, `
SELECT id::text, cart_id::text, product_id::text, item_type, quantity, options, unit_price_cents, total_cents, is_stockable, created_at
FROM cart_items
WHERE cart_id = $1
ORDER BY created_at ASC
`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.ItemType,
			&item.Quantity,
			&item.Options,
			&item.UnitPriceCents,
			&item.TotalCents,
			&item.IsStockable,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// recompute reloads items and the applied coupon inside tx and writes
// calculator output back to the cart row.
func (r *postgresRepo) recompute(ctx context.Context, tx pgx.Tx, cartID string) error {
	items, err := loadItems(ctx, tx, cartID)
	if err != nil {
		return err
	}

	var couponCode *string
	if err := tx.QueryRow(ctx, `SELECT coupon_code FROM carts WHERE id = $1`, cartID).Scan(&couponCode); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.E(domain.KindNotFound, "cart not found")
		}
		return err
	}

	var coupon *domain.Coupon
	if couponCode != nil {
		var c domain.Coupon
		err := tx.QueryRow(ctx, `
SELECT code, discount_type, discount_value, is_active, expires_at, created_at
FROM coupons
WHERE code = $1
`, *couponCode).Scan(&c.Code, &c.DiscountType, &c.DiscountValue, &c.IsActive, &c.ExpiresAt, &c.CreatedAt)
		switch {
		case err == nil && c.Usable(time.Now()):
			coupon = &c
		case err != nil && !errors.Is(err, pgx.ErrNoRows):
			return err
		}
	}

	return writeTotals(ctx, tx, cartID, r.calc.Totals(items, coupon))
}

func writeTotals(ctx context.Context, tx pgx.Tx, cartID string, totals domain.Totals) error {
	_, err := tx.Exec(ctx, `
UPDATE carts
SET subtotal_cents = $1,
    discount_cents = $2,
    tax_cents = $3,
    grand_total_cents = $4,
    updated_at = now()
WHERE id = $5
`, totals.SubtotalCents, totals.DiscountCents, totals.TaxCents, totals.GrandTotalCents, cartID)
	return err
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
