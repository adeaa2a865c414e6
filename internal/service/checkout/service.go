package checkout

import (
	"context"
	"io"
	"log"

	"storefront-api/internal/domain"
	cartrepo "storefront-api/internal/repository/cart"
	"storefront-api/internal/service/shipping"
)

type customerRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

type orderRepo interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
}

// Service drives the checkout stages carried on the cart itself.
// Fields may be written in any order; order creation gates on the full
// precondition chain at once.
type Service struct {
	carts          cartrepo.Repository
	customers      customerRepo
	orders         orderRepo
	rates          shipping.RateProvider
	paymentMethods []string
	minOrderCents  int64
	logger         *log.Logger
}

func New(carts cartrepo.Repository, customers customerRepo, orders orderRepo, rates shipping.RateProvider, paymentMethods []string, minOrderCents int64, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		carts:          carts,
		customers:      customers,
		orders:         orders,
		rates:          rates,
		paymentMethods: paymentMethods,
		minOrderCents:  minOrderCents,
		logger:         logger,
	}
}

type SaveAddressInput struct {
	Billing        domain.Address
	Shipping       *domain.Address
	UseForShipping bool
	Email          string
}

// State is the checkout read model.
type State struct {
	BillingAddress   *domain.Address `json:"billingAddress,omitempty"`
	ShippingAddress  *domain.Address `json:"shippingAddress,omitempty"`
	ShippingMethod   string          `json:"shippingMethod,omitempty"`
	PaymentMethod    string          `json:"paymentMethod,omitempty"`
	Email            string          `json:"email,omitempty"`
	RequiresShipping bool            `json:"requiresShipping"`
	ReadyForOrder    bool            `json:"readyForOrder"`
}

// Read reports the cart's current checkout state.
func (s *Service) Read(ctx context.Context, cart *domain.Cart) *State {
	st := &State{
		BillingAddress:   cart.BillingAddress,
		ShippingAddress:  cart.ShippingAddress,
		RequiresShipping: cart.HasStockableItems(),
	}
	if cart.ShippingMethod != nil {
		st.ShippingMethod = *cart.ShippingMethod
	}
	if cart.PaymentMethod != nil {
		st.PaymentMethod = *cart.PaymentMethod
	}
	if cart.Email != nil {
		st.Email = *cart.Email
	}
	st.ReadyForOrder = s.orderReadinessError(ctx, cart, "") == nil
	return st
}

// SaveAddress replaces both addresses atomically. With stockable items
// in the cart a shipping address is mandatory, either explicit or
// copied from billing via UseForShipping.
func (s *Service) SaveAddress(ctx context.Context, cart *domain.Cart, in SaveAddressInput) (*domain.CartView, error) {
	if in.Billing.IsEmpty() {
		return nil, domain.E(domain.KindInvalidInput, "billing address required")
	}

	shipping := in.Shipping
	if shipping == nil && in.UseForShipping {
		copied := in.Billing
		shipping = &copied
	}
	if cart.HasStockableItems() && (shipping == nil || shipping.IsEmpty()) {
		return nil, domain.E(domain.KindInvalidInput, "shipping address required")
	}

	var email *string
	if in.Email != "" {
		email = &in.Email
	}
	if err := s.carts.SaveAddresses(ctx, cart.ID, cartrepo.SaveAddressInput{
		Billing:  in.Billing,
		Shipping: shipping,
		Email:    email,
	}); err != nil {
		return nil, err
	}
	return s.view(ctx, cart.ID)
}

// SaveShippingMethod validates the code against freshly computed rates
// before persisting; stale cached quotes never gate an order.
func (s *Service) SaveShippingMethod(ctx context.Context, cart *domain.Cart, method string) (*domain.CartView, error) {
	if method == "" {
		return nil, domain.E(domain.KindInvalidInput, "shipping method required")
	}
	if !cart.HasStockableItems() {
		return nil, domain.E(domain.KindInvalidInput, "cart has no shippable items")
	}
	if cart.ShippingAddress == nil || cart.ShippingAddress.IsEmpty() {
		return nil, domain.E(domain.KindInvalidInput, "shipping address required before selecting a method")
	}

	ok, err := s.methodAvailable(ctx, cart, method)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.E(domain.KindInvalidInput, "shipping method not available")
	}

	if err := s.carts.SetShippingMethod(ctx, cart.ID, method); err != nil {
		return nil, err
	}
	return s.view(ctx, cart.ID)
}

func (s *Service) SavePaymentMethod(ctx context.Context, cart *domain.Cart, method string) (*domain.CartView, error) {
	if method == "" {
		return nil, domain.E(domain.KindInvalidInput, "payment method required")
	}
	if !s.paymentMethodConfigured(method) {
		return nil, domain.E(domain.KindInvalidInput, "payment method not available")
	}
	if err := s.carts.SetPaymentMethod(ctx, cart.ID, method); err != nil {
		return nil, err
	}
	return s.view(ctx, cart.ID)
}

// CreateOrder validates the whole precondition chain, short-circuiting
// on the first failure, then delegates order construction and only
// afterwards deactivates the cart. A failure anywhere leaves the cart
// resumable, so retrying is safe without re-entering data.
func (s *Service) CreateOrder(ctx context.Context, cart *domain.Cart, email string) (*domain.Order, error) {
	if err := s.orderReadinessError(ctx, cart, email); err != nil {
		return nil, err
	}

	resolvedEmail := s.resolveEmail(cart, email)
	order, err := s.orders.Create(ctx, domain.Order{
		CartID:          cart.ID,
		CustomerID:      cart.CustomerID,
		Email:           resolvedEmail,
		ShippingMethod:  deref(cart.ShippingMethod),
		PaymentMethod:   deref(cart.PaymentMethod),
		GrandTotalCents: cart.Totals.GrandTotalCents,
		Currency:        cart.Currency,
	})
	if err != nil {
		return nil, domain.Wrap(domain.KindOperationFailed, "order creation failed", err)
	}

	if err := s.carts.Deactivate(ctx, cart.ID); err != nil {
		// The order exists; a still-active cart is a cleanup concern,
		// not a caller-facing failure.
		s.logger.Printf("checkout: deactivate cart %s after order %s: %v", cart.ID, order.ID, err)
	}
	s.logger.Printf("checkout: order %s created from cart %s total=%d", order.ID, cart.ID, order.GrandTotalCents)
	return order, nil
}

// orderReadinessError walks the createOrder precondition chain in a
// fixed order and returns the first failure.
func (s *Service) orderReadinessError(ctx context.Context, cart *domain.Cart, email string) error {
	if len(cart.Items) == 0 {
		return domain.E(domain.KindOperationFailed, "cart is empty")
	}
	if cart.CustomerID != nil {
		customer, err := s.customers.GetByID(ctx, *cart.CustomerID)
		if err != nil {
			return domain.Wrap(domain.KindOperationFailed, "load customer account", err)
		}
		if !customer.IsActive {
			return domain.E(domain.KindOperationFailed, "customer account is not active")
		}
	}
	if cart.Totals.GrandTotalCents < s.minOrderCents {
		return domain.E(domain.KindOperationFailed, "minimum order amount not met")
	}
	if cart.BillingAddress == nil || cart.BillingAddress.IsEmpty() {
		return domain.E(domain.KindOperationFailed, "billing address required")
	}
	stockable := cart.HasStockableItems()
	if stockable && (cart.ShippingAddress == nil || cart.ShippingAddress.IsEmpty()) {
		return domain.E(domain.KindOperationFailed, "shipping address required")
	}
	if s.resolveEmail(cart, email) == "" {
		return domain.E(domain.KindOperationFailed, "contact email required")
	}
	if stockable {
		if cart.ShippingMethod == nil || *cart.ShippingMethod == "" {
			return domain.E(domain.KindOperationFailed, "shipping method required")
		}
		ok, err := s.methodAvailable(ctx, cart, *cart.ShippingMethod)
		if err != nil {
			return err
		}
		if !ok {
			return domain.E(domain.KindOperationFailed, "selected shipping method is no longer available")
		}
	}
	if cart.PaymentMethod == nil || *cart.PaymentMethod == "" {
		return domain.E(domain.KindOperationFailed, "payment method required")
	}
	return nil
}

func (s *Service) methodAvailable(ctx context.Context, cart *domain.Cart, method string) (bool, error) {
	if cart.ShippingAddress == nil {
		return false, nil
	}
	rates, err := s.rates.Rates(ctx, *cart.ShippingAddress, cart.Items)
	if err != nil {
		return false, domain.Wrap(domain.KindOperationFailed, "compute shipping rates", err)
	}
	for _, r := range rates {
		if r.MethodCode == method {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) paymentMethodConfigured(method string) bool {
	for _, m := range s.paymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

// resolveEmail prefers the explicit input, then the cart's stored
// contact, then the billing address.
func (s *Service) resolveEmail(cart *domain.Cart, email string) string {
	if email != "" {
		return email
	}
	if cart.Email != nil && *cart.Email != "" {
		return *cart.Email
	}
	if cart.BillingAddress != nil && cart.BillingAddress.Email != "" {
		return cart.BillingAddress.Email
	}
	return ""
}

func (s *Service) view(ctx context.Context, cartID string) (*domain.CartView, error) {
	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return domain.NewCartView(*cart, ""), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
