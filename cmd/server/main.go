package main

import (
	"context"
	"log"

	"dropmart-be/internal/api"
	"dropmart-be/internal/cart"
	"dropmart-be/internal/catalog"
	"dropmart-be/internal/checkout"
	"dropmart-be/internal/config"
	"dropmart-be/internal/db"
	"dropmart-be/internal/discount"
	"dropmart-be/internal/events"
	"dropmart-be/internal/fulfillment"
	"dropmart-be/internal/inventory"
	"dropmart-be/internal/logger"
	"dropmart-be/internal/order"
	"dropmart-be/internal/payment"
	"dropmart-be/internal/pricing"
	"dropmart-be/internal/tax"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	bus := events.NewBus()

	// Abandonment tracking and search index sync are fire-and-forget
	// consumers; failures are logged and swallowed by the bus.
	bus.Subscribe(events.CartChanged, func(ctx context.Context, evt events.Event) error {
		logger.FromCtx(ctx).Debug("cart changed", zap.Any("payload", evt.Payload))
		return nil
	})
	bus.Subscribe(events.OrderCreated, func(ctx context.Context, evt events.Event) error {
		logger.FromCtx(ctx).Info("search index sync", zap.Any("payload", evt.Payload))
		return nil
	})
	bus.Subscribe(events.InventoryInconsistency, func(ctx context.Context, evt events.Event) error {
		logger.FromCtx(ctx).Warn("inventory inconsistency detected", zap.Any("payload", evt.Payload))
		return nil
	})

	taxTable := tax.NewFlatTable(tax.Rate(cfg.TaxBasisPoints))
	engine := pricing.NewEngine(taxTable, pricing.DefaultShippingMethods())

	gateway := payment.NewHostedGateway(payment.HostedGatewayConfig{
		BaseURL:       cfg.PaymentBaseURL,
		APIKey:        cfg.PaymentSecretKey,
		WebhookSecret: cfg.WebhookSecret,
		SuccessURL:    cfg.SuccessURL,
		FailureURL:    cfg.FailureURL,
		CancelURL:     cfg.CancelURL,
	})

	catalogRepo := catalog.NewRepository(database)
	stockRepo := inventory.NewRepository(database)
	discountRepo := discount.NewRepository(database)

	cartRepo := cart.NewRepository(database)
	cartSvc := cart.NewService(
		cartRepo, catalogRepo, stockRepo, engine, bus,
		cfg.DefaultShipMethod, pricing.Destination{Country: cfg.DefaultCountry},
	)

	checkoutRepo := checkout.NewRepository(database)
	checkoutSvc := checkout.NewService(
		checkoutRepo, cartRepo, catalogRepo, stockRepo,
		engine, discountRepo, gateway, cfg.Currency,
	)

	fulfillmentRepo := fulfillment.NewRepository(database)
	fulfillmentSvc := fulfillment.NewService(fulfillmentRepo)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, checkoutRepo, discountRepo, fulfillmentSvc, bus)

	router := api.NewRouter(
		api.RouterConfig{
			JWTSecret:      cfg.JWTSecret,
			AllowedOrigins: cfg.AllowedOrigins,
			MergeGuestCart: func(ctx context.Context, sessionToken string, userID int64) error {
				_, err := cartSvc.MergeOnSignIn(ctx, sessionToken, userID)
				return err
			},
		},
		api.NewCartHandler(cartSvc),
		api.NewCheckoutHandler(checkoutSvc),
		api.NewWebhookHandler(gateway, orderSvc, checkoutRepo),
		api.NewOrderHandler(orderSvc),
		api.NewFulfillmentHandler(fulfillmentSvc),
	)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}

	logger.L().Info("server listening", zap.String("port", port))
	log.Fatal(router.Run(":" + port))
}
