package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/cakehouse/storefront/api/routes"
	"github.com/cakehouse/storefront/internal/basket"
	"github.com/cakehouse/storefront/internal/catalog"
	"github.com/cakehouse/storefront/internal/checkout"
	"github.com/cakehouse/storefront/internal/customization"
	"github.com/cakehouse/storefront/internal/delivery"
	"github.com/cakehouse/storefront/internal/orders"
	"github.com/cakehouse/storefront/internal/pricing"
	"github.com/cakehouse/storefront/pkg/config"
	"github.com/cakehouse/storefront/pkg/enums"
	"github.com/cakehouse/storefront/pkg/env"
	"github.com/cakehouse/storefront/pkg/instance"
	"github.com/cakehouse/storefront/pkg/logger"
	"github.com/cakehouse/storefront/pkg/metrics"
	"github.com/cakehouse/storefront/pkg/shopapi"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	backend, err := openBackend(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap basket storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logg.Error(context.Background(), "error closing storage", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storefrontMetrics := metrics.NewStorefrontMetrics(registry)

	opener := basket.NewOpener(backend.storage, logg, observeBasket(storefrontMetrics))

	shop := shopapi.NewClient(cfg.ShopAPI.BaseURL, shopapi.WithTimeout(cfg.ShopAPI.Timeout))
	catalogService, err := catalog.NewService(shop, 0, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	currency, err := enums.ParseCurrency(cfg.Checkout.Currency)
	if err != nil {
		logg.Error(context.Background(), "invalid checkout currency", err)
		os.Exit(1)
	}
	window := delivery.Window{
		MinLeadDays:      cfg.Checkout.MinLeadDays,
		MaxHorizonMonths: cfg.Checkout.MaxHorizonMonths,
	}
	checkoutService, err := checkout.NewService(shop, checkout.Config{
		Rates:    pricing.Rates{DeliveryFee: cfg.Checkout.DeliveryFee, TaxRate: cfg.Checkout.TaxRate},
		Window:   window,
		Currency: currency,
	}, logg, storefrontMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(shop, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	addr := ":" + env.First(cfg.App.Port, "PORT")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"storage":  cfg.Storage.Driver,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			registry,
			backend.readiness,
			opener,
			catalogService,
			customization.NewWizard(window, nil),
			checkoutService,
			orderService,
			backend.idempotency,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting storefront server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "storefront server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "storefront shutdown failed", err)
		}
		logg.Info(ctx, "storefront shutting down gracefully")
	}
}
