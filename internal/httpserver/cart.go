package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/domain"
	cartsvc "storefront-api/internal/service/cart"
	mergesvc "storefront-api/internal/service/merge"
)

type cartService interface {
	Apply(ctx context.Context, id domain.Identity, cmd cartsvc.Command) (*cartsvc.Result, error)
	Resolve(ctx context.Context, id domain.Identity) (*domain.Cart, error)
}

type mergeService interface {
	Merge(ctx context.Context, id domain.Identity, in mergesvc.Input) (*domain.CartView, error)
}

// Each handler binds its payload and builds the explicit command for
// the router; the operation is never derived from the URL inside the
// core.

func createOrGetCartHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Apply(c.Request.Context(), identityFrom(c), cartsvc.CreateOrGetCartCommand{})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func getCartHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.Resolve(c.Request.Context(), identityFrom(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cartsvc.Result{View: domain.NewCartView(*cart, "")})
	}
}

type addProductRequest struct {
	ProductID string            `json:"productId"`
	SKU       string            `json:"sku"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options"`
}

func addProductHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, domain.Wrap(domain.KindInvalidInput, "invalid payload", err))
			return
		}
		res, err := svc.Apply(c.Request.Context(), identityFrom(c), cartsvc.AddProductCommand{
			ProductID: req.ProductID,
			SKU:       req.SKU,
			Quantity:  req.Quantity,
			Options:   req.Options,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

type updateItemRequest struct {
	CartID   string `json:"cartId"`
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

func updateItemHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, domain.Wrap(domain.KindInvalidInput, "invalid payload", err))
			return
		}
		res, err := svc.Apply(c.Request.Context(), identityFrom(c), cartsvc.UpdateItemCommand{
			CartID:   req.CartID,
			ItemID:   req.ItemID,
			Quantity: req.Quantity,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

type removeItemsRequest struct {
	CartID  string   `json:"cartId"`
	ItemID  string   `json:"itemId"`
	ItemIDs []string `json:"itemIds"`
}

func (r removeItemsRequest) ids() []string {
	if len(r.ItemIDs) > 0 {
		return r.ItemIDs
	}
	if r.ItemID != "" {
		return []string{r.ItemID}
	}
	return nil
}

func removeItemsHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req removeItemsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, domain.Wrap(domain.KindInvalidInput, "invalid payload", err))
			return
		}
		res, err := svc.Apply(c.Request.Context(), identityFrom(c), cartsvc.RemoveItemsCommand{
			CartID:  req.CartID,
			ItemIDs: req.ids(),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func moveToWishlistHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req removeItemsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, domain.Wrap(domain.KindInvalidInput, "invalid payload", err))
			return
		}
		res, err := svc.Apply(c.Request.Context(), identityFrom(c), cartsvc.MoveToWishlistCommand{
			CartID:  req.CartID,
			ItemIDs: req.ids(),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

type couponRequest struct {
	Code string `json:"code"`
}

func applyCouponHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req couponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, domain.Wrap(domain.KindInvalidInput, "invalid payload", err))
			return
		}
		res, err := svc.Apply(c.Request.Context(), identityFrom(c), cartsvc.ApplyCouponCommand{Code: req.Code})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func removeCouponHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Apply(c.Request.Context(), identityFrom(c), cartsvc.RemoveCouponCommand{})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

type estimateShippingRequest struct {
	Country  string `json:"country"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Method   string `json:"method"`
}

func estimateShippingHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req estimateShippingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, domain.Wrap(domain.KindInvalidInput, "invalid payload", err))
			return
		}
		res, err := svc.Apply(c.Request.Context(), identityFrom(c), cartsvc.EstimateShippingCommand{
			Country:  req.Country,
			State:    req.State,
			Postcode: req.Postcode,
			Method:   req.Method,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

type mergeRequest struct {
	CartToken string `json:"cartToken"`
	CartID    string `json:"cartId"`
}

func mergeCartHandler(svc mergeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req mergeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, domain.Wrap(domain.KindInvalidInput, "invalid payload", err))
			return
		}
		view, err := svc.Merge(c.Request.Context(), identityFrom(c), mergesvc.Input{
			GuestToken: req.CartToken,
			CartID:     req.CartID,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cart": view})
	}
}
