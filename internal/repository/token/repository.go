package token

import (
	"context"
	"time"
)

// AccessToken is the stored half of an `id|secret` customer credential.
// Only the secret's hash is persisted.
type AccessToken struct {
	ID         string
	CustomerID string
	SecretHash string
	ExpiresAt  *time.Time
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

type Repository interface {
	Create(ctx context.Context, customerID, secretHash string, expiresAt *time.Time) (string, error)
	Get(ctx context.Context, id string) (*AccessToken, error)
	// TouchLastUsed bumps the usage timestamp; callers run it off the
	// read path and ignore failures.
	TouchLastUsed(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
