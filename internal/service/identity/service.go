package identity

import (
	"context"
	"io"
	"log"
	"time"

	"storefront-api/internal/domain"
	tokenrepo "storefront-api/internal/repository/token"
)

type guestTokenStore interface {
	GuestTokenExists(ctx context.Context, token string) (bool, error)
}

// Service resolves an inbound bearer credential to an Identity. A
// credential is tried as a customer access token first, then as a guest
// cart token; only the absence of a credential yields Anonymous.
type Service struct {
	tokens      tokenrepo.Repository
	guestTokens guestTokenStore
	logger      *log.Logger
}

func New(tokens tokenrepo.Repository, guestTokens guestTokenStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{tokens: tokens, guestTokens: guestTokens, logger: logger}
}

// Resolve turns a bearer value (already stripped of the "Bearer "
// prefix, empty when the header was absent) into an Identity. A
// supplied-but-invalid credential is an AuthenticationFailed error,
// never Anonymous.
func (s *Service) Resolve(ctx context.Context, bearer string) (domain.Identity, error) {
	if bearer == "" {
		return domain.AnonymousIdentity(), nil
	}

	if customerID, ok := s.resolveCustomer(ctx, bearer); ok {
		return domain.CustomerIdentity(customerID), nil
	}

	exists, err := s.guestTokens.GuestTokenExists(ctx, bearer)
	if err != nil {
		return domain.Identity{}, domain.Wrap(domain.KindOperationFailed, "resolve credential", err)
	}
	if exists {
		return domain.GuestIdentity(bearer), nil
	}

	return domain.Identity{}, domain.E(domain.KindAuthenticationFailed, "invalid or expired credential")
}

func (s *Service) resolveCustomer(ctx context.Context, bearer string) (string, bool) {
	id, secret, ok := SplitToken(bearer)
	if !ok || id == "" || secret == "" {
		return "", false
	}
	stored, err := s.tokens.Get(ctx, id)
	if err != nil {
		return "", false
	}
	if !secretMatches(secret, stored.SecretHash) {
		return "", false
	}
	if stored.ExpiresAt != nil && time.Now().After(*stored.ExpiresAt) {
		return "", false
	}

	// Usage bookkeeping stays off the read path.
	go func(tokenID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.tokens.TouchLastUsed(ctx, tokenID); err != nil {
			s.logger.Printf("identity: touch last_used token=%s error=%v", tokenID, err)
		}
	}(stored.ID)

	return stored.CustomerID, true
}
