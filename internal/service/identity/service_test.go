package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront-api/internal/domain"
	tokenrepo "storefront-api/internal/repository/token"
)

type stubTokenRepo struct {
	mu      sync.Mutex
	token   *tokenrepo.AccessToken
	getErr  error
	touched []string
}

func (s *stubTokenRepo) Create(_ context.Context, _, _ string, _ *time.Time) (string, error) {
	return "", nil
}

func (s *stubTokenRepo) Get(_ context.Context, _ string) (*tokenrepo.AccessToken, error) {
	return s.token, s.getErr
}

func (s *stubTokenRepo) TouchLastUsed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = append(s.touched, id)
	return nil
}

func (s *stubTokenRepo) Delete(_ context.Context, _ string) error { return nil }

type stubGuestStore struct {
	known map[string]bool
	err   error
}

func (s *stubGuestStore) GuestTokenExists(_ context.Context, token string) (bool, error) {
	return s.known[token], s.err
}

func storedToken(customerID, secret string, expiresAt *time.Time) *tokenrepo.AccessToken {
	return &tokenrepo.AccessToken{
		ID:         "tok-1",
		CustomerID: customerID,
		SecretHash: HashSecret(secret),
		ExpiresAt:  expiresAt,
	}
}

func TestResolveAbsentCredentialIsAnonymous(t *testing.T) {
	svc := New(&stubTokenRepo{}, &stubGuestStore{}, nil)

	id, err := svc.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !id.IsAnonymous() {
		t.Fatalf("expected anonymous, got %+v", id)
	}
}

func TestResolveValidCustomerToken(t *testing.T) {
	tokens := &stubTokenRepo{token: storedToken("cust-1", "s3cret", nil)}
	svc := New(tokens, &stubGuestStore{}, nil)

	id, err := svc.Resolve(context.Background(), FormatToken("tok-1", "s3cret"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !id.IsCustomer() || id.CustomerID != "cust-1" {
		t.Fatalf("expected customer identity, got %+v", id)
	}
}

func TestResolveWrongSecretFallsThrough(t *testing.T) {
	tokens := &stubTokenRepo{token: storedToken("cust-1", "s3cret", nil)}
	guests := &stubGuestStore{known: map[string]bool{}}
	svc := New(tokens, guests, nil)

	_, err := svc.Resolve(context.Background(), FormatToken("tok-1", "wrong"))
	if !domain.IsKind(err, domain.KindAuthenticationFailed) {
		t.Fatalf("expected authentication failed, got %v", err)
	}
}

func TestResolveExpiredCustomerToken(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	tokens := &stubTokenRepo{token: storedToken("cust-1", "s3cret", &past)}
	svc := New(tokens, &stubGuestStore{}, nil)

	_, err := svc.Resolve(context.Background(), FormatToken("tok-1", "s3cret"))
	if !domain.IsKind(err, domain.KindAuthenticationFailed) {
		t.Fatalf("expected authentication failed, got %v", err)
	}
}

func TestResolveGuestTokenFallback(t *testing.T) {
	tokens := &stubTokenRepo{getErr: domain.E(domain.KindNotFound, "token not found")}
	guests := &stubGuestStore{known: map[string]bool{"guest-tok": true}}
	svc := New(tokens, guests, nil)

	id, err := svc.Resolve(context.Background(), "guest-tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !id.IsGuest() || id.GuestToken != "guest-tok" {
		t.Fatalf("expected guest identity, got %+v", id)
	}
}

func TestResolveUnknownCredentialFails(t *testing.T) {
	tokens := &stubTokenRepo{getErr: domain.E(domain.KindNotFound, "token not found")}
	svc := New(tokens, &stubGuestStore{}, nil)

	_, err := svc.Resolve(context.Background(), "garbage")
	if !domain.IsKind(err, domain.KindAuthenticationFailed) {
		t.Fatalf("expected authentication failed, got %v", err)
	}
}

func TestResolveCustomerTriedBeforeGuest(t *testing.T) {
	// A credential valid as both resolves to the customer.
	bearer := FormatToken("tok-1", "s3cret")
	tokens := &stubTokenRepo{token: storedToken("cust-1", "s3cret", nil)}
	guests := &stubGuestStore{known: map[string]bool{bearer: true}}
	svc := New(tokens, guests, nil)

	id, err := svc.Resolve(context.Background(), bearer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !id.IsCustomer() {
		t.Fatalf("customer resolution must win, got %+v", id)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	secret, err := NewSecret()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, got, ok := SplitToken(FormatToken("abc", secret))
	if !ok || id != "abc" || got != secret {
		t.Fatalf("token halves mangled: %q %q %v", id, got, ok)
	}
	if !secretMatches(secret, HashSecret(secret)) {
		t.Fatalf("secret must match its own hash")
	}
	if secretMatches("other", HashSecret(secret)) {
		t.Fatalf("different secret must not match")
	}
}
