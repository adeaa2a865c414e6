package merge

import (
	"context"
	"errors"
	"io"
	"log"

	"storefront-api/internal/domain"
	cartrepo "storefront-api/internal/repository/cart"
)

// Service folds a guest cart into an authenticated customer's active
// cart. Items collide by merge key (quantities add); the guest cart is
// deactivated as the final write, which makes a repeated merge a no-op.
type Service struct {
	carts     cartrepo.Repository
	channelID string
	currency  string
	logger    *log.Logger
}

func New(carts cartrepo.Repository, channelID, currency string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{carts: carts, channelID: channelID, currency: currency, logger: logger}
}

// Input addresses the guest cart either by the token the device held
// before authenticating or by the cart id from a prior CartView.
type Input struct {
	GuestToken string
	CartID     string
}

// Merge returns the customer's resulting active cart.
func (s *Service) Merge(ctx context.Context, id domain.Identity, in Input) (*domain.CartView, error) {
	if !id.IsCustomer() {
		return nil, domain.E(domain.KindAuthenticationRequired, "merge requires an authenticated customer")
	}
	if in.GuestToken == "" && in.CartID == "" {
		return nil, domain.E(domain.KindInvalidInput, "guest cart token or id required")
	}

	var source *domain.Cart
	var err error
	if in.GuestToken != "" {
		source, err = s.carts.GetByGuestToken(ctx, in.GuestToken)
	} else {
		source, err = s.carts.GetByID(ctx, in.CartID)
	}
	if err != nil {
		return nil, err
	}
	if !source.IsGuest() {
		return nil, domain.E(domain.KindInvalidInput, "source cart is not a guest cart")
	}

	target, err := s.targetCart(ctx, id.CustomerID)
	if err != nil {
		return nil, err
	}

	// Already consumed: a concurrent or repeated merge finds the source
	// inactive and returns the target unchanged.
	if !source.IsActive {
		return domain.NewCartView(*target, ""), nil
	}

	if err := s.carts.MergeItems(ctx, source.ID, target.ID); err != nil {
		return nil, domain.Wrap(domain.KindOperationFailed, "merge guest cart", err)
	}
	s.logger.Printf("merge: guest cart %s folded into %s for customer %s", source.ID, target.ID, id.CustomerID)

	target, err = s.carts.GetByID(ctx, target.ID)
	if err != nil {
		return nil, err
	}
	return domain.NewCartView(*target, ""), nil
}

func (s *Service) targetCart(ctx context.Context, customerID string) (*domain.Cart, error) {
	cart, err := s.carts.GetActiveByCustomer(ctx, customerID)
	if err == nil {
		return cart, nil
	}
	if !domain.IsKind(err, domain.KindNotFound) {
		return nil, err
	}
	cart, err = s.carts.Create(ctx, cartrepo.CreateCartInput{
		CustomerID: &customerID,
		ChannelID:  s.channelID,
		Currency:   s.currency,
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		return s.carts.GetActiveByCustomer(ctx, customerID)
	}
	return cart, err
}
