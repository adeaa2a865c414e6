package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"golang.org/x/text/currency"

	"storefront-api/internal/domain"
	cartrepo "storefront-api/internal/repository/cart"
	"storefront-api/internal/service/shipping"
)

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
}

type couponRepo interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

type wishlistRepo interface {
	Add(ctx context.Context, items []domain.WishlistItem) error
}

// Service is the cart mutation router: it resolves the cart addressed
// by an identity, enforces every operation's preconditions eagerly, and
// delegates the mutation (and totals recompute) to the cart store.
type Service struct {
	carts     cartrepo.Repository
	products  productRepo
	coupons   couponRepo
	wishlists wishlistRepo
	rates     shipping.RateProvider
	channelID string
	currency  string
	logger    *log.Logger
}

func New(carts cartrepo.Repository, products productRepo, coupons couponRepo, wishlists wishlistRepo, rates shipping.RateProvider, channelID, defaultCurrency string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if _, err := currency.ParseISO(defaultCurrency); err != nil {
		defaultCurrency = "USD"
	}
	return &Service{
		carts:     carts,
		products:  products,
		coupons:   coupons,
		wishlists: wishlists,
		rates:     rates,
		channelID: channelID,
		currency:  defaultCurrency,
		logger:    logger,
	}
}

// Result is the outcome of one routed operation. View is always set
// once a cart exists; Rates only for shipping estimation; ItemErrors
// carries per-item no-op failures that do not fail the operation.
type Result struct {
	View       *domain.CartView      `json:"cart"`
	Rates      []domain.ShippingRate `json:"shippingRates,omitempty"`
	ItemErrors map[string]string     `json:"itemErrors,omitempty"`
}

// Apply routes a command against the cart resolved from identity.
func (s *Service) Apply(ctx context.Context, id domain.Identity, cmd Command) (*Result, error) {
	switch c := cmd.(type) {
	case CreateOrGetCartCommand:
		return s.createOrGetCart(ctx, id)
	case AddProductCommand:
		return s.addProduct(ctx, id, c)
	case UpdateItemCommand:
		return s.updateItem(ctx, id, c)
	case RemoveItemsCommand:
		return s.removeItems(ctx, id, c)
	case MoveToWishlistCommand:
		return s.moveToWishlist(ctx, id, c)
	case ApplyCouponCommand:
		return s.applyCoupon(ctx, id, c)
	case RemoveCouponCommand:
		return s.removeCoupon(ctx, id)
	case EstimateShippingCommand:
		return s.estimateShipping(ctx, id, c)
	default:
		return nil, domain.Ef(domain.KindInvalidInput, "unsupported operation %q", cmd.Op())
	}
}

// Resolve returns the active cart addressed by the identity, without
// creating one. Checkout and merge build on this.
func (s *Service) Resolve(ctx context.Context, id domain.Identity) (*domain.Cart, error) {
	cart, _, err := s.resolveCart(ctx, id, false)
	return cart, err
}

// resolveCart maps an identity to its active cart. With create set, a
// missing cart is created; the anonymous path additionally mints a
// guest token (returned alongside).
func (s *Service) resolveCart(ctx context.Context, id domain.Identity, create bool) (*domain.Cart, string, error) {
	switch id.Kind {
	case domain.IdentityCustomer:
		cart, err := s.carts.GetActiveByCustomer(ctx, id.CustomerID)
		if err == nil {
			return cart, "", nil
		}
		if !domain.IsKind(err, domain.KindNotFound) {
			return nil, "", err
		}
		if !create {
			return nil, "", err
		}
		customerID := id.CustomerID
		cart, err = s.carts.Create(ctx, cartrepo.CreateCartInput{
			CustomerID: &customerID,
			ChannelID:  s.channelID,
			Currency:   s.currency,
		})
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Lost the creation race; the first committed row wins.
			cart, err = s.carts.GetActiveByCustomer(ctx, id.CustomerID)
		}
		return cart, "", err

	case domain.IdentityGuest:
		cart, err := s.carts.GetByGuestToken(ctx, id.GuestToken)
		if err != nil {
			return nil, "", err
		}
		if !cart.IsActive {
			// Consumed by a merge or an order; the token is dead.
			return nil, "", domain.E(domain.KindNotFound, "cart not found")
		}
		return cart, id.GuestToken, nil

	case domain.IdentityAnonymous:
		if !create {
			return nil, "", domain.E(domain.KindAuthenticationRequired, "credential required")
		}
		cart, err := s.carts.Create(ctx, cartrepo.CreateCartInput{
			ChannelID: s.channelID,
			Currency:  s.currency,
		})
		if err != nil {
			return nil, "", err
		}
		token, err := s.carts.MintGuestToken(ctx, cart.ID)
		if err != nil {
			return nil, "", err
		}
		return cart, token, nil
	}
	return nil, "", domain.E(domain.KindAuthenticationRequired, "credential required")
}

// checkCartID enforces the ownership rule for commands that carry an
// explicit cart id: a mismatch is an authorization failure, never a
// lookup miss.
func checkCartID(cart *domain.Cart, cartID string) error {
	if cartID != "" && cartID != cart.ID {
		return domain.E(domain.KindAuthorizationDenied, "cart does not belong to caller")
	}
	return nil
}

func (s *Service) createOrGetCart(ctx context.Context, id domain.Identity) (*Result, error) {
	cart, token, err := s.resolveCart(ctx, id, true)
	if err != nil {
		return nil, err
	}
	return &Result{View: domain.NewCartView(*cart, token)}, nil
}

func (s *Service) addProduct(ctx context.Context, id domain.Identity, cmd AddProductCommand) (*Result, error) {
	if cmd.Quantity < 1 {
		return nil, domain.E(domain.KindInvalidInput, "quantity must be at least 1")
	}
	if cmd.ProductID == "" && cmd.SKU == "" {
		return nil, domain.E(domain.KindInvalidInput, "product id or sku required")
	}

	var product *domain.Product
	var err error
	if cmd.ProductID != "" {
		product, err = s.products.GetByID(ctx, cmd.ProductID)
	} else {
		product, err = s.products.GetBySKU(ctx, cmd.SKU)
	}
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, domain.E(domain.KindInvalidInput, "product is not available")
	}

	cart, token, err := s.resolveCart(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if err := s.carts.AddItem(ctx, cart.ID, *product, cmd.Quantity, cmd.Options); err != nil {
		return nil, err
	}
	return s.view(ctx, cart.ID, token)
}

func (s *Service) updateItem(ctx context.Context, id domain.Identity, cmd UpdateItemCommand) (*Result, error) {
	if cmd.ItemID == "" {
		return nil, domain.E(domain.KindInvalidInput, "cart item id required")
	}
	if cmd.Quantity < 1 {
		return nil, domain.E(domain.KindInvalidInput, "quantity must be at least 1")
	}
	cart, token, err := s.resolveCart(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if err := checkCartID(cart, cmd.CartID); err != nil {
		return nil, err
	}
	if !cartHasItem(cart, cmd.ItemID) {
		return nil, domain.E(domain.KindNotFound, "cart item not found")
	}
	if err := s.carts.UpdateItemQuantity(ctx, cart.ID, cmd.ItemID, cmd.Quantity); err != nil {
		return nil, err
	}
	return s.view(ctx, cart.ID, token)
}

// removeItems deletes the addressed items. Already-removed ids are
// reported per item and do not fail the operation: a retried network
// call must not corrupt cart state further.
func (s *Service) removeItems(ctx context.Context, id domain.Identity, cmd RemoveItemsCommand) (*Result, error) {
	if len(cmd.ItemIDs) == 0 {
		return nil, domain.E(domain.KindInvalidInput, "cart item ids required")
	}
	cart, token, err := s.resolveCart(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if err := checkCartID(cart, cmd.CartID); err != nil {
		return nil, err
	}

	removed, err := s.carts.RemoveItems(ctx, cart.ID, cmd.ItemIDs)
	if err != nil {
		return nil, err
	}
	itemErrors := missingItemErrors(cmd.ItemIDs, removed)

	res, err := s.view(ctx, cart.ID, token)
	if err != nil {
		return nil, err
	}
	res.ItemErrors = itemErrors
	return res, nil
}

func (s *Service) moveToWishlist(ctx context.Context, id domain.Identity, cmd MoveToWishlistCommand) (*Result, error) {
	if !id.IsCustomer() {
		return nil, domain.E(domain.KindAuthenticationRequired, "wishlist requires a customer account")
	}
	if len(cmd.ItemIDs) == 0 {
		return nil, domain.E(domain.KindInvalidInput, "cart item ids required")
	}
	cart, token, err := s.resolveCart(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if err := checkCartID(cart, cmd.CartID); err != nil {
		return nil, err
	}

	var wishlistItems []domain.WishlistItem
	var present []string
	for _, itemID := range cmd.ItemIDs {
		item := findItem(cart, itemID)
		if item == nil {
			continue
		}
		present = append(present, itemID)
		wishlistItems = append(wishlistItems, domain.WishlistItem{
			CustomerID: id.CustomerID,
			ProductID:  item.ProductID,
			Options:    item.Options,
		})
	}

	// Copy into the wishlist before deleting so an insert failure never
	// loses the line.
	if len(wishlistItems) > 0 {
		if err := s.wishlists.Add(ctx, wishlistItems); err != nil {
			return nil, domain.Wrap(domain.KindOperationFailed, "move to wishlist", err)
		}
		if _, err := s.carts.RemoveItems(ctx, cart.ID, present); err != nil {
			return nil, domain.Wrap(domain.KindOperationFailed, "move to wishlist", err)
		}
	}

	res, err := s.view(ctx, cart.ID, token)
	if err != nil {
		return nil, err
	}
	res.ItemErrors = missingItemErrors(cmd.ItemIDs, present)
	return res, nil
}

func (s *Service) applyCoupon(ctx context.Context, id domain.Identity, cmd ApplyCouponCommand) (*Result, error) {
	code := strings.TrimSpace(cmd.Code)
	if code == "" {
		return nil, domain.E(domain.KindInvalidInput, "coupon code required")
	}
	cart, token, err := s.resolveCart(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if cart.CouponCode != nil && *cart.CouponCode == code {
		return nil, domain.E(domain.KindInvalidInput, "coupon already applied")
	}
	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !coupon.Usable(time.Now()) {
		return nil, domain.E(domain.KindInvalidInput, "coupon is not active")
	}
	if err := s.carts.ApplyCoupon(ctx, cart.ID, *coupon); err != nil {
		return nil, err
	}
	return s.view(ctx, cart.ID, token)
}

func (s *Service) removeCoupon(ctx context.Context, id domain.Identity) (*Result, error) {
	cart, token, err := s.resolveCart(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if err := s.carts.RemoveCoupon(ctx, cart.ID); err != nil {
		return nil, err
	}
	return s.view(ctx, cart.ID, token)
}

// estimateShipping quotes candidate rates against a transient address;
// nothing address-related is persisted. A chosen method may optionally
// be saved after validation against the fresh quotes.
func (s *Service) estimateShipping(ctx context.Context, id domain.Identity, cmd EstimateShippingCommand) (*Result, error) {
	if cmd.Country == "" || cmd.State == "" || cmd.Postcode == "" {
		return nil, domain.E(domain.KindInvalidInput, "country, state and postcode required")
	}
	cart, token, err := s.resolveCart(ctx, id, false)
	if err != nil {
		return nil, err
	}

	dest := domain.Address{Country: cmd.Country, State: cmd.State, Postcode: cmd.Postcode}
	rates, err := s.rates.Rates(ctx, dest, cart.Items)
	if err != nil {
		return nil, domain.Wrap(domain.KindOperationFailed, "estimate shipping rates", err)
	}

	if cmd.Method != "" {
		if !rateAvailable(rates, cmd.Method) {
			return nil, domain.E(domain.KindInvalidInput, "shipping method not available for destination")
		}
		if err := s.carts.SetShippingMethod(ctx, cart.ID, cmd.Method); err != nil {
			return nil, err
		}
	}

	res, err := s.view(ctx, cart.ID, token)
	if err != nil {
		return nil, err
	}
	res.Rates = rates
	return res, nil
}

func (s *Service) view(ctx context.Context, cartID, guestToken string) (*Result, error) {
	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return &Result{View: domain.NewCartView(*cart, guestToken)}, nil
}

func cartHasItem(cart *domain.Cart, itemID string) bool {
	return findItem(cart, itemID) != nil
}

func findItem(cart *domain.Cart, itemID string) *domain.CartItem {
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			return &cart.Items[i]
		}
	}
	return nil
}

func rateAvailable(rates []domain.ShippingRate, method string) bool {
	for _, r := range rates {
		if r.MethodCode == method {
			return true
		}
	}
	return false
}

func missingItemErrors(requested, handled []string) map[string]string {
	handledSet := make(map[string]struct{}, len(handled))
	for _, id := range handled {
		handledSet[id] = struct{}{}
	}
	var errs map[string]string
	for _, id := range requested {
		if _, ok := handledSet[id]; !ok {
			if errs == nil {
				errs = make(map[string]string)
			}
			errs[id] = "item not found"
		}
	}
	return errs
}
