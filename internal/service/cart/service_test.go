package cart

import (
	"context"
	"errors"
	"testing"

	"storefront-api/internal/domain"
	cartrepo "storefront-api/internal/repository/cart"
)

type stubRepo struct {
	byID            *domain.Cart
	byIDErr         error
	activeCart      *domain.Cart
	activeErr       error
	activeResults   []*domain.Cart
	activeErrs      []error
	activeCalls     int
	guestCart       *domain.Cart
	guestErr        error
	createCart      *domain.Cart
	createErr       error
	createCalls     int
	lastCreateInput cartrepo.CreateCartInput
	mintedToken     string
	mintErr         error
	addItemErr      error
	lastAddCartID   string
	lastAddProduct  domain.Product
	lastAddQty      int
	lastAddOptions  map[string]string
	updateErr       error
	lastUpdateItem  string
	lastUpdateQty   int
	removed         []string
	removeErr       error
	lastRemoveIDs   []string
	applyCouponErr  error
	lastCoupon      domain.Coupon
	removeCouponErr error
	shipMethodErr   error
	lastShipMethod  string
}

func (s *stubRepo) GetByID(_ context.Context, _ string) (*domain.Cart, error) {
	return s.byID, s.byIDErr
}

func (s *stubRepo) GetActiveByCustomer(_ context.Context, _ string) (*domain.Cart, error) {
	idx := s.activeCalls
	s.activeCalls++
	if idx < len(s.activeErrs) && s.activeErrs[idx] != nil {
		return nil, s.activeErrs[idx]
	}
	if len(s.activeResults) > 0 {
		if idx >= len(s.activeResults) {
			idx = len(s.activeResults) - 1
		}
		return s.activeResults[idx], nil
	}
	return s.activeCart, s.activeErr
}

func (s *stubRepo) GetByGuestToken(_ context.Context, _ string) (*domain.Cart, error) {
	return s.guestCart, s.guestErr
}

func (s *stubRepo) GuestTokenExists(_ context.Context, _ string) (bool, error) {
	return s.guestCart != nil, nil
}

func (s *stubRepo) Create(_ context.Context, in cartrepo.CreateCartInput) (*domain.Cart, error) {
	s.createCalls++
	s.lastCreateInput = in
	return s.createCart, s.createErr
}

func (s *stubRepo) MintGuestToken(_ context.Context, _ string) (string, error) {
	return s.mintedToken, s.mintErr
}

func (s *stubRepo) AddItem(_ context.Context, cartID string, product domain.Product, quantity int, options map[string]string) error {
	s.lastAddCartID = cartID
	s.lastAddProduct = product
	s.lastAddQty = quantity
	s.lastAddOptions = options
	return s.addItemErr
}

func (s *stubRepo) UpdateItemQuantity(_ context.Context, _, itemID string, quantity int) error {
	s.lastUpdateItem = itemID
	s.lastUpdateQty = quantity
	return s.updateErr
}

func (s *stubRepo) RemoveItems(_ context.Context, _ string, itemIDs []string) ([]string, error) {
	s.lastRemoveIDs = itemIDs
	return s.removed, s.removeErr
}

func (s *stubRepo) ApplyCoupon(_ context.Context, _ string, coupon domain.Coupon) error {
	s.lastCoupon = coupon
	return s.applyCouponErr
}

func (s *stubRepo) RemoveCoupon(_ context.Context, _ string) error {
	return s.removeCouponErr
}

func (s *stubRepo) SaveAddresses(_ context.Context, _ string, _ cartrepo.SaveAddressInput) error {
	return nil
}

func (s *stubRepo) SetShippingMethod(_ context.Context, _, method string) error {
	s.lastShipMethod = method
	return s.shipMethodErr
}

func (s *stubRepo) SetPaymentMethod(_ context.Context, _, _ string) error { return nil }

func (s *stubRepo) MergeItems(_ context.Context, _, _ string) error { return nil }

func (s *stubRepo) Deactivate(_ context.Context, _ string) error { return nil }

type stubProductRepo struct {
	product *domain.Product
	err     error
	lastID  string
	lastSKU string
}

func (s *stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	s.lastID = id
	return s.product, s.err
}

func (s *stubProductRepo) GetBySKU(_ context.Context, sku string) (*domain.Product, error) {
	s.lastSKU = sku
	return s.product, s.err
}

type stubCouponRepo struct {
	coupon *domain.Coupon
	err    error
}

func (s *stubCouponRepo) GetByCode(_ context.Context, _ string) (*domain.Coupon, error) {
	return s.coupon, s.err
}

type stubWishlistRepo struct {
	added  []domain.WishlistItem
	addErr error
}

func (s *stubWishlistRepo) Add(_ context.Context, items []domain.WishlistItem) error {
	s.added = append(s.added, items...)
	return s.addErr
}

type stubRates struct {
	rates []domain.ShippingRate
	err   error
}

func (s *stubRates) Rates(_ context.Context, _ domain.Address, _ []domain.CartItem) ([]domain.ShippingRate, error) {
	return s.rates, s.err
}

func strPtr(v string) *string { return &v }

func activeCart(id string) *domain.Cart {
	return &domain.Cart{ID: id, IsActive: true, Currency: "USD"}
}

func newService(repo *stubRepo, products *stubProductRepo, coupons *stubCouponRepo, wishlists *stubWishlistRepo, rates *stubRates) *Service {
	return New(repo, products, coupons, wishlists, rates, "default", "USD", nil)
}

func TestCreateOrGetCartCustomerExisting(t *testing.T) {
	existing := activeCart("c1")
	existing.CustomerID = strPtr("cust")
	repo := &stubRepo{activeCart: existing, byID: existing}
	svc := newService(repo, nil, nil, nil, nil)

	res, err := svc.Apply(context.Background(), domain.CustomerIdentity("cust"), CreateOrGetCartCommand{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.View.ID != "c1" {
		t.Fatalf("unexpected cart id: %s", res.View.ID)
	}
	if repo.createCalls != 0 {
		t.Fatalf("expected no create, got %d", repo.createCalls)
	}
}

func TestCreateOrGetCartCustomerCreates(t *testing.T) {
	created := activeCart("c2")
	created.CustomerID = strPtr("cust")
	repo := &stubRepo{
		activeErr:  domain.E(domain.KindNotFound, "cart not found"),
		createCart: created,
	}
	svc := newService(repo, nil, nil, nil, nil)

	res, err := svc.Apply(context.Background(), domain.CustomerIdentity("cust"), CreateOrGetCartCommand{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.View.ID != "c2" {
		t.Fatalf("unexpected cart id: %s", res.View.ID)
	}
	if repo.lastCreateInput.CustomerID == nil || *repo.lastCreateInput.CustomerID != "cust" {
		t.Fatalf("create input missing customer: %+v", repo.lastCreateInput)
	}
}

func TestCreateOrGetCartCustomerLosesRace(t *testing.T) {
	winner := activeCart("winner")
	winner.CustomerID = strPtr("cust")
	repo := &stubRepo{
		activeErrs:    []error{domain.E(domain.KindNotFound, "cart not found")},
		activeResults: []*domain.Cart{nil, winner},
		createErr:     domain.ErrAlreadyExists,
	}
	svc := newService(repo, nil, nil, nil, nil)

	res, err := svc.Apply(context.Background(), domain.CustomerIdentity("cust"), CreateOrGetCartCommand{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.View.ID != "winner" {
		t.Fatalf("expected the committed cart after a lost create race, got %s", res.View.ID)
	}
	if repo.createCalls != 1 {
		t.Fatalf("expected a single create attempt, got %d", repo.createCalls)
	}
}

func TestCreateOrGetCartAnonymousMintsToken(t *testing.T) {
	created := activeCart("g1")
	repo := &stubRepo{createCart: created, mintedToken: "tok123"}
	svc := newService(repo, nil, nil, nil, nil)

	res, err := svc.Apply(context.Background(), domain.AnonymousIdentity(), CreateOrGetCartCommand{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.View.GuestToken != "tok123" {
		t.Fatalf("expected guest token in view, got %q", res.View.GuestToken)
	}
	if repo.lastCreateInput.CustomerID != nil {
		t.Fatalf("anonymous create must not carry a customer")
	}
}

func TestCreateOrGetCartGuestToken(t *testing.T) {
	cart := activeCart("g2")
	repo := &stubRepo{guestCart: cart, byID: cart}
	svc := newService(repo, nil, nil, nil, nil)

	res, err := svc.Apply(context.Background(), domain.GuestIdentity("tok"), CreateOrGetCartCommand{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.View.ID != "g2" {
		t.Fatalf("unexpected cart id: %s", res.View.ID)
	}
}

func TestGuestTokenForInactiveCartIsNotFound(t *testing.T) {
	dead := &domain.Cart{ID: "g3", IsActive: false}
	repo := &stubRepo{guestCart: dead}
	svc := newService(repo, nil, nil, nil, nil)

	_, err := svc.Apply(context.Background(), domain.GuestIdentity("tok"), CreateOrGetCartCommand{})
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMutationWithoutCartRequiresCredential(t *testing.T) {
	svc := newService(&stubRepo{}, nil, nil, nil, nil)

	_, err := svc.Apply(context.Background(), domain.AnonymousIdentity(), UpdateItemCommand{ItemID: "i1", Quantity: 2})
	if !domain.IsKind(err, domain.KindAuthenticationRequired) {
		t.Fatalf("expected authentication required, got %v", err)
	}
}

func TestAddProductValidation(t *testing.T) {
	svc := newService(&stubRepo{}, &stubProductRepo{}, nil, nil, nil)

	_, err := svc.Apply(context.Background(), domain.AnonymousIdentity(), AddProductCommand{Quantity: 0, ProductID: "p1"})
	if !domain.IsKind(err, domain.KindInvalidInput) {
		t.Fatalf("expected invalid input for zero quantity, got %v", err)
	}

	_, err = svc.Apply(context.Background(), domain.AnonymousIdentity(), AddProductCommand{Quantity: 1})
	if !domain.IsKind(err, domain.KindInvalidInput) {
		t.Fatalf("expected invalid input for missing product ref, got %v", err)
	}
}

func TestAddProductUnknownProduct(t *testing.T) {
	products := &stubProductRepo{err: domain.E(domain.KindNotFound, "product not found")}
	svc := newService(&stubRepo{}, products, nil, nil, nil)

	_, err := svc.Apply(context.Background(), domain.AnonymousIdentity(), AddProductCommand{ProductID: "missing", Quantity: 1})
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddProductInactiveProduct(t *testing.T) {
	products := &stubProductRepo{product: &domain.Product{ID: "p1", IsActive: false}}
	svc := newService(&stubRepo{}, products, nil, nil, nil)

	_, err := svc.Apply(context.Background(), domain.AnonymousIdentity(), AddProductCommand{ProductID: "p1", Quantity: 1})
	if !domain.IsKind(err, domain.KindInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestAddProductCreatesCartForAnonymous(t *testing.T) {
	created := activeCart("c9")
	repo := &stubRepo{createCart: created, mintedToken: "tok", byID: created}
	products := &stubProductRepo{product: &domain.Product{ID: "p1", IsActive: true, ItemType: domain.ItemTypeSimple}}
	svc := newService(repo, products, nil, nil, nil)

	res, err := svc.Apply(context.Background(), domain.AnonymousIdentity(), AddProductCommand{
		ProductID: "p1",
		Quantity:  3,
		Options:   map[string]string{"size": "M"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastAddCartID != "c9" || repo.lastAddQty != 3 || repo.lastAddProduct.ID != "p1" {
		t.Fatalf("add item not called as expected")
	}
	if repo.lastAddOptions["size"] != "M" {
		t.Fatalf("options not forwarded: %v", repo.lastAddOptions)
	}
	if res.View.GuestToken != "tok" {
		t.Fatalf("expected minted token on first mutation, got %q", res.View.GuestToken)
	}
}

func TestAddProductBySKU(t *testing.T) {
	cart := activeCart("c1")
	cart.CustomerID = strPtr("cust")
	repo := &stubRepo{activeCart: cart, byID: cart}
	products := &stubProductRepo{product: &domain.Product{ID: "p2", SKU: "SKU-1", IsActive: true}}
	svc := newService(repo, products, nil, nil, nil)

	_, err := svc.Apply(context.Background(), domain.CustomerIdentity("cust"), AddProductCommand{SKU: "SKU-1", Quantity: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if products.lastSKU != "SKU-1" {
		t.Fatalf("expected sku lookup, got id=%q sku=%q", products.lastID, products.lastSKU)
	}
}

func TestUpdateItemNotInCart(t *testing.T) {
	cart := activeCart("c1")
	cart.CustomerID = strPtr("cust")
	repo := &stubRepo{activeCart: cart}
	svc := newService(repo, nil, nil, nil, nil)

	_, err := svc.Apply(context.Background(), domain.CustomerIdentity("cust"), UpdateItemCommand{ItemID: "nope", Quantity: 2})
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateItemForeignCartID(t *testing.T) {
	cart := activeCart("c1")
	cart.CustomerID = strPtr("cust")
	cart.Items = []domain.CartItem{{ID: "i1", Quantity: 1}}
	repo := &stubRepo{activeCart: cart}
	svc := newService(repo, nil, nil, nil, nil)

	_, err := svc.Apply(context.Background(), domain.CustomerIdentity("cust"), UpdateItemCommand{
		CartID:   "someone-elses",
		ItemID:   "i1",
		Quantity: 2,
	})
	if !domain.IsKind(err, domain.KindAuthorizationDenied) {
		t.Fatalf("expected authorization denied, got %v", err)
	}
}

func TestUpdateItemHappyPath(t *testing.T) {
	cart := activeCart("c1")
	cart.CustomerID = strPtr("cust")
	cart.Items = []domain.CartItem{{ID: "i1", Quantity: 1}}
	repo := &stubRepo{activeCart: cart, byID: cart}
	svc := newService(repo, nil, nil, nil, nil)

	_, err := svc.Apply(context.Background(), domain.CustomerIdentity("cust"), UpdateItemCommand{ItemID: "i1", Quantity: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastUpdateItem != "i1" || repo.lastUpdateQty != 5 {
		t.Fatalf("update not forwarded: %s %d", repo.lastUpdateItem, repo.lastUpdateQty)
	}
}

func TestRemoveItemsReportsMissingPerItem(t *testing.T) {
	cart := activeCart("c1")
	cart.CustomerID = strPtr("cust")
	repo := &stubRepo{activeCart: cart, byID: cart, removed: []string{"i1"}}
	svc := newService(repo, nil, nil, nil, nil)

	res, err := svc.Apply(context.Background(), domain.CustomerIdentity("cust"), RemoveItemsCommand{ItemIDs: []string{"i1", "gone"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ItemErrors["gone"] == "" {
		t.Fatalf("expected per-item error for missing id, got %v", res.ItemErrors)
	}
	if _, ok := res.ItemErrors["i1"]; ok {
		t.Fatalf("removed item must not carry an error")
	}
}

func TestRemoveItemsRetryIsHarmless(t *testing.T) {
	cart := activeCart("c1")
	cart.CustomerID = strPtr("cust")
	repo := &stubRepo{activeCart: cart, byID: cart}
	svc := newService(repo, nil, nil, nil, nil)

	res, err := svc.Apply(context.Background(), domain.CustomerIdentity("cust"), RemoveItemsCommand{ItemIDs: []string{"i1"}})
	if err != nil {
		t.Fatalf("retried remove must not fail: %v", err)
	}
	if res.ItemErrors["i1"] == "" {
		t.Fatalf("expected per-item error, got %v", res.ItemErrors)
	}
}

func TestMoveToWishlistRequiresCustomer(t *testing.T) {
	svc := newService(&stubRepo{}, nil, nil, &stubWishlistRepo{}, nil)

	_, err := svc.Apply(context.Background(), domain.GuestIdentity("tok"), MoveToWishlistCommand{ItemIDs: []string{"i1"}})
	if !domain.IsKind(err, domain.KindAuthenticationRequired) {
		t.Fatalf("expected authentication required, got %v", err)
	}
}

func TestMoveToWishlistCopiesBeforeRemove(t *testing.T) {
	cart := activeCart("c1")
	cart.CustomerID = strPtr("cust")
	cart.Items = []domain.CartItem{{ID: "i1", ProductID: "p1", Options: map[string]string{"size": "M"}}}
	repo := &stubRepo{activeCart: cart, byID: cart, removed: []string{"i1"}}
	wishlists := &stubWishlistRepo{}
	svc := newService(repo, nil, nil, wishlists, nil)

	_, err := svc.Apply(context.Background(), domain.CustomerIdentity("cust"), MoveToWishlistCommand{ItemIDs: []string{"i1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(wishlists.added) != 1 || wishlists.added[0].ProductID != "p1" {
		t.Fatalf("wishlist insert missing: %+v", wishlists.added)
	}
	if len(repo.lastRemoveIDs) != 1 || repo.lastRemoveIDs[0] != "i1" {
		t.Fatalf("remove not forwarded: %v", repo.lastRemoveIDs)
	}
}

func TestMoveToWishlistInsertFailureKeepsItems(t *testing.T) {
	cart := activeCart("c1")
	cart.CustomerID = strPtr("cust")
	cart.Items = []domain.CartItem{{ID: "i1", ProductID: "p1"}}
	repo := &stubRepo{activeCart: cart, byID: cart}
	wishlists := &stubWishlistRepo{addErr: errors.New("insert failed")}
	svc := newService(repo, nil, nil, wishlists, nil)

	_, err := svc.Apply(context.Background(), domain.CustomerIdentity("cust"), MoveToWishlistCommand{ItemIDs: []string{"i1"}})
	if !domain.IsKind(err, domain.KindOperationFailed) {
		t.Fatalf("expected operation failed, got %v", err)
	}
	if repo.lastRemoveIDs != nil {
		t.Fatalf("items must not be removed after a failed wishlist insert")
	}
}

func TestApplyCouponAlreadyApplied(t *testing.T) {
	cart := activeCart("c1")
	cart.CustomerID = strPtr("cust")
	cart.CouponCode = strPtr("WELCOME10")
	repo := &stubRepo{activeCart: cart}
	svc := newService(repo, nil, &stubCouponRepo{}, nil, nil)

	_, err := svc.Apply(context.Background(), domain.CustomerIdentity("cust"), ApplyCouponCommand{Code: "WELCOME10"})
	if !domain.IsKind(err, domain.KindInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestApplyCouponReplacesDifferentCode(t *testing.T) {
	cart := activeCart("c1")
	cart.CustomerID = strPtr("cust")
	cart.CouponCode = strPtr("OLD")
	repo := &stubRepo{activeCart: cart, byID: cart}
	coupons := &stubCouponRepo{coupon: &domain.Coupon{Code: "NEW", DiscountType: domain.DiscountPercent, DiscountValue: 10, IsActive: true}}
	svc := newService(repo, nil, coupons, nil, nil)

	_, err := svc.Apply(context.Background(), domain.CustomerIdentity("cust"), ApplyCouponCommand{Code: "NEW"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastCoupon.Code != "NEW" {
		t.Fatalf("coupon not forwarded: %+v", repo.lastCoupon)
	}
}

func TestApplyCouponInactive(t *testing.T) {
	cart := activeCart("c1")
	cart.CustomerID = strPtr("cust")
	repo := &stubRepo{activeCart: cart}
	coupons := &stubCouponRepo{coupon: &domain.Coupon{Code: "DEAD", IsActive: false}}
	svc := newService(repo, nil, coupons, nil, nil)

	_, err := svc.Apply(context.Background(), domain.CustomerIdentity("cust"), ApplyCouponCommand{Code: "DEAD"})
	if !domain.IsKind(err, domain.KindInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestEstimateShippingValidation(t *testing.T) {
	svc := newService(&stubRepo{}, nil, nil, nil, &stubRates{})

	_, err := svc.Apply(context.Background(), domain.GuestIdentity("tok"), EstimateShippingCommand{Country: "US"})
	if !domain.IsKind(err, domain.KindInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestEstimateShippingReturnsRates(t *testing.T) {
	cart := activeCart("c1")
	cart.Items = []domain.CartItem{{ID: "i1", Quantity: 1, IsStockable: true}}
	repo := &stubRepo{guestCart: cart, byID: cart}
	quotes := []domain.ShippingRate{{MethodCode: "flatrate_standard", AmountCents: 600, Currency: "USD"}}
	svc := newService(repo, nil, nil, nil, &stubRates{rates: quotes})

	res, err := svc.Apply(context.Background(), domain.GuestIdentity("tok"), EstimateShippingCommand{
		Country: "US", State: "CA", Postcode: "94105",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rates) != 1 || res.Rates[0].MethodCode != "flatrate_standard" {
		t.Fatalf("unexpected rates: %+v", res.Rates)
	}
	if repo.lastShipMethod != "" {
		t.Fatalf("estimation alone must not persist a method")
	}
}

func TestEstimateShippingPersistsChosenMethod(t *testing.T) {
	cart := activeCart("c1")
	repo := &stubRepo{guestCart: cart, byID: cart}
	quotes := []domain.ShippingRate{{MethodCode: "flatrate_express", AmountCents: 1700, Currency: "USD"}}
	svc := newService(repo, nil, nil, nil, &stubRates{rates: quotes})

	_, err := svc.Apply(context.Background(), domain.GuestIdentity("tok"), EstimateShippingCommand{
		Country: "US", State: "CA", Postcode: "94105", Method: "flatrate_express",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastShipMethod != "flatrate_express" {
		t.Fatalf("chosen method not persisted: %q", repo.lastShipMethod)
	}
}

func TestEstimateShippingRejectsUnknownMethod(t *testing.T) {
	cart := activeCart("c1")
	repo := &stubRepo{guestCart: cart, byID: cart}
	quotes := []domain.ShippingRate{{MethodCode: "flatrate_standard"}}
	svc := newService(repo, nil, nil, nil, &stubRates{rates: quotes})

	_, err := svc.Apply(context.Background(), domain.GuestIdentity("tok"), EstimateShippingCommand{
		Country: "US", State: "CA", Postcode: "94105", Method: "drone_delivery",
	})
	if !domain.IsKind(err, domain.KindInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if repo.lastShipMethod != "" {
		t.Fatalf("rejected method must not be persisted")
	}
}
