package token

import (
	"context"
	"errors"
	"time"

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

func (r *postgresRepo) Create(ctx context.Context, customerID, secretHash string, expiresAt *time.Time) (string, error) {
	const q = `
INSERT INTO access_tokens (customer_id, secret_hash, expires_at)
VALUES ($1, $2, $3)
RETURNING id::text
`
	var id string
	if err := r.pool.QueryRow(ctx, q, customerID, secretHash, expiresAt).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*AccessToken, error) {
	const q = `
SELECT id::text, customer_id::text, secret_hash, expires_at, last_used_at, created_at
FROM access_tokens
WHERE id = $1::uuid
`
	var t AccessToken
	err := r.pool.QueryRow(ctx, q, id).Scan(&t.ID, &t.CustomerID, &t.SecretHash, &t.ExpiresAt, &t.LastUsedAt, &t.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 22P02: the credential id half was not a uuid at all.
		if errors.Is(err, pgx.ErrNoRows) || (errors.As(err, &pgErr) && pgErr.Code == "22P02") {
			return nil, domain.E(domain.KindNotFound, "token not found")
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresRepo) TouchLastUsed(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE access_tokens SET last_used_at = now() WHERE id = $1::uuid`, id)
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM access_tokens WHERE id = $1::uuid`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.E(domain.KindNotFound, "token not found")
	}
	return nil
}
