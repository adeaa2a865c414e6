package httpserver

import (
	"errors"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-api/internal/metrics"
)

// Deps carries the service dependencies the router wires into handlers.
type Deps struct {
	IdentitySvc    identityService
	CartSvc        cartService
	MergeSvc       mergeService
	CheckoutSvc    checkoutService
	CustomerSvc    customerService
	Metrics        *metrics.ServerMetrics
	AllowedOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.IdentitySvc == nil || deps.CartSvc == nil || deps.MergeSvc == nil || deps.CheckoutSvc == nil || deps.CustomerSvc == nil {
		return nil, errors.New("missing service dependencies")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(deps.AllowedOrigins) == 1 && deps.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else if len(deps.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = deps.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", metrics.Handler())
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	authed := router.Group("/", resolveIdentity(deps.IdentitySvc))

	cart := authed.Group("/cart")
	cart.POST("", createOrGetCartHandler(deps.CartSvc))
	cart.GET("", getCartHandler(deps.CartSvc))
	cart.POST("/add-product", addProductHandler(deps.CartSvc))
	cart.POST("/update-item", updateItemHandler(deps.CartSvc))
	cart.POST("/remove-item", removeItemsHandler(deps.CartSvc))
	cart.POST("/move-to-wishlist", moveToWishlistHandler(deps.CartSvc))
	cart.POST("/apply-coupon", applyCouponHandler(deps.CartSvc))
	cart.POST("/remove-coupon", removeCouponHandler(deps.CartSvc))
	cart.POST("/estimate-shipping-methods", estimateShippingHandler(deps.CartSvc))
	cart.POST("/merge", mergeCartHandler(deps.MergeSvc))

	checkout := authed.Group("/checkout")
	checkout.GET("", readCheckoutHandler(deps.CartSvc, deps.CheckoutSvc))
	checkout.POST("/save-address", saveAddressHandler(deps.CartSvc, deps.CheckoutSvc))
	checkout.POST("/save-shipping-method", saveShippingMethodHandler(deps.CartSvc, deps.CheckoutSvc))
	checkout.POST("/save-payment-method", savePaymentMethodHandler(deps.CartSvc, deps.CheckoutSvc))
	checkout.POST("/create-order", createOrderHandler(deps.CartSvc, deps.CheckoutSvc))

	customers := authed.Group("/customers")
	customers.POST("/signup", signupHandler(deps.CustomerSvc))
	customers.POST("/login", loginHandler(deps.CustomerSvc))
	customers.GET("/me", meHandler(deps.CustomerSvc))

	return router, nil
}
