package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/domain"
	checkoutsvc "storefront-api/internal/service/checkout"
)

type checkoutService interface {
	Read(ctx context.Context, cart *domain.Cart) *checkoutsvc.State
	SaveAddress(ctx context.Context, cart *domain.Cart, in checkoutsvc.SaveAddressInput) (*domain.CartView, error)
	SaveShippingMethod(ctx context.Context, cart *domain.Cart, method string) (*domain.CartView, error)
	SavePaymentMethod(ctx context.Context, cart *domain.Cart, method string) (*domain.CartView, error)
	CreateOrder(ctx context.Context, cart *domain.Cart, email string) (*domain.Order, error)
}

// resolveCheckoutCart loads the caller's active cart for a checkout
// operation; checkout never creates carts.
func resolveCheckoutCart(c *gin.Context, carts cartService) (*domain.Cart, bool) {
	cart, err := carts.Resolve(c.Request.Context(), identityFrom(c))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return cart, true
}

func readCheckoutHandler(carts cartService, svc checkoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, ok := resolveCheckoutCart(c, carts)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, svc.Read(c.Request.Context(), cart))
	}
}

type addressPayload struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

func (p addressPayload) toDomain() domain.Address {
	return domain.Address{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Street:    p.Street,
		City:      p.City,
		State:     p.State,
		Postcode:  p.Postcode,
		Country:   p.Country,
		Phone:     p.Phone,
		Email:     p.Email,
	}
}

type saveAddressRequest struct {
	Billing        addressPayload  `json:"billing"`
	Shipping       *addressPayload `json:"shipping"`
	UseForShipping bool            `json:"useForShipping"`
	Email          string          `json:"email"`
}

func saveAddressHandler(carts cartService, svc checkoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req saveAddressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, domain.Wrap(domain.KindInvalidInput, "invalid payload", err))
			return
		}
		cart, ok := resolveCheckoutCart(c, carts)
		if !ok {
			return
		}
		in := checkoutsvc.SaveAddressInput{
			Billing:        req.Billing.toDomain(),
			UseForShipping: req.UseForShipping,
			Email:          req.Email,
		}
		if req.Shipping != nil {
			shipping := req.Shipping.toDomain()
			in.Shipping = &shipping
		}
		view, err := svc.SaveAddress(c.Request.Context(), cart, in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cart": view})
	}
}

type methodRequest struct {
	Method string `json:"method"`
}

func saveShippingMethodHandler(carts cartService, svc checkoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req methodRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, domain.Wrap(domain.KindInvalidInput, "invalid payload", err))
			return
		}
		cart, ok := resolveCheckoutCart(c, carts)
		if !ok {
			return
		}
		view, err := svc.SaveShippingMethod(c.Request.Context(), cart, req.Method)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cart": view})
	}
}

func savePaymentMethodHandler(carts cartService, svc checkoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req methodRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, domain.Wrap(domain.KindInvalidInput, "invalid payload", err))
			return
		}
		cart, ok := resolveCheckoutCart(c, carts)
		if !ok {
			return
		}
		view, err := svc.SavePaymentMethod(c.Request.Context(), cart, req.Method)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cart": view})
	}
}

type createOrderRequest struct {
	Email string `json:"email"`
}

func createOrderHandler(carts cartService, svc checkoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createOrderRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				writeError(c, domain.Wrap(domain.KindInvalidInput, "invalid payload", err))
				return
			}
		}
		cart, ok := resolveCheckoutCart(c, carts)
		if !ok {
			return
		}
		order, err := svc.CreateOrder(c.Request.Context(), cart, req.Email)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"orderId":         order.ID,
			"email":           order.Email,
			"grandTotalCents": order.GrandTotalCents,
			"currency":        order.Currency,
			"createdAt":       order.CreatedAt,
		})
	}
}
