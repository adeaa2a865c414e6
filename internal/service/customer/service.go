package customer

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"storefront-api/internal/domain"
	custrepo "storefront-api/internal/repository/customer"
	tokenrepo "storefront-api/internal/repository/token"
	"storefront-api/internal/service/identity"
)

// ErrInvalidCredentials is returned when email/password do not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service handles customer signup and login, and issues the opaque
// access tokens the identity resolver validates.
type Service struct {
	repo        custrepo.Repository
	tokens      tokenrepo.Repository
	accessTTL   time.Duration
	passwordMin int
}

func New(repo custrepo.Repository, tokens tokenrepo.Repository, accessTTL time.Duration) *Service {
	return &Service{
		repo:        repo,
		tokens:      tokens,
		accessTTL:   accessTTL,
		passwordMin: 8,
	}
}

type SignupInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.Customer, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return nil, domain.E(domain.KindInvalidInput, "email required")
	}
	password := strings.TrimSpace(in.Password)
	if len(password) < s.passwordMin {
		return nil, domain.Ef(domain.KindInvalidInput, "password must be at least %d characters", s.passwordMin)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, domain.Customer{
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil, domain.E(domain.KindInvalidInput, "email already registered")
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Login verifies credentials and mints a fresh access token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Customer, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	cust, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(cust.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	secret, err := identity.NewSecret()
	if err != nil {
		return nil, "", err
	}
	expiresAt := time.Now().Add(s.accessTTL)
	id, err := s.tokens.Create(ctx, cust.ID, identity.HashSecret(secret), &expiresAt)
	if err != nil {
		return nil, "", err
	}
	return cust, identity.FormatToken(id, secret), nil
}

// Me loads the account behind a resolved customer identity.
func (s *Service) Me(ctx context.Context, id domain.Identity) (*domain.Customer, error) {
	if !id.IsCustomer() {
		return nil, domain.E(domain.KindAuthenticationRequired, "customer account required")
	}
	return s.repo.GetByID(ctx, id.CustomerID)
}

// AccessTTLSeconds reports the token lifetime handed to clients.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}
