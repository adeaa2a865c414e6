package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront-api/internal/config"
	"storefront-api/internal/db"
	"storefront-api/internal/httpserver"
	"storefront-api/internal/metrics"
	cartrepo "storefront-api/internal/repository/cart"
	couponrepo "storefront-api/internal/repository/coupon"
	customerrepo "storefront-api/internal/repository/customer"
	orderrepo "storefront-api/internal/repository/order"
	productrepo "storefront-api/internal/repository/product"
	tokenrepo "storefront-api/internal/repository/token"
	wishlistrepo "storefront-api/internal/repository/wishlist"
	cartsvc "storefront-api/internal/service/cart"
	checkoutsvc "storefront-api/internal/service/checkout"
	customersvc "storefront-api/internal/service/customer"
	identitysvc "storefront-api/internal/service/identity"
	mergesvc "storefront-api/internal/service/merge"
	"storefront-api/internal/service/pricing"
	"storefront-api/internal/service/shipping"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	pricingEngine := pricing.New(cfg.TaxRatePercent)
	rateProvider := shipping.NewTableProvider("USD")

	cartRepo := cartrepo.NewPostgres(dbpool, pricingEngine, logger)
	tokenRepo := tokenrepo.NewPostgres(dbpool)
	productRepo := productrepo.NewPostgres(dbpool)
	customerRepo := customerrepo.NewPostgres(dbpool)
	couponRepo := couponrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool)
	wishlistRepo := wishlistrepo.NewPostgres(dbpool)

	identityService := identitysvc.New(tokenRepo, cartRepo, logger)
	cartService := cartsvc.New(cartRepo, productRepo, couponRepo, wishlistRepo, rateProvider, cfg.DefaultChannelID, "USD", logger)
	mergeService := mergesvc.New(cartRepo, cfg.DefaultChannelID, "USD", logger)
	checkoutService := checkoutsvc.New(cartRepo, customerRepo, orderRepo, rateProvider, cfg.PaymentMethods, cfg.MinOrderAmountCents, logger)
	customerService := customersvc.New(customerRepo, tokenRepo, cfg.AccessTokenTTL)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		IdentitySvc:    identityService,
		CartSvc:        cartService,
		MergeSvc:       mergeService,
		CheckoutSvc:    checkoutService,
		CustomerSvc:    customerService,
		Metrics:        metrics.NewServerMetrics("api"),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
