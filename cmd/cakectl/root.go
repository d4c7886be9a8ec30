package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cakehouse/storefront/internal/basket"
	"github.com/cakehouse/storefront/internal/catalog"
	"github.com/cakehouse/storefront/internal/checkout"
	"github.com/cakehouse/storefront/internal/delivery"
	"github.com/cakehouse/storefront/internal/orders"
	"github.com/cakehouse/storefront/internal/pricing"
	"github.com/cakehouse/storefront/pkg/config"
	"github.com/cakehouse/storefront/pkg/enums"
	"github.com/cakehouse/storefront/pkg/logger"
	"github.com/cakehouse/storefront/pkg/shopapi"
)

// app holds the collaborators shared by every command. Fields left nil are
// built from cfg and flags before the command runs.
type app struct {
	cfg      *config.ClientConfig
	storage  basket.Storage
	catalog  catalog.Service
	checkout checkout.Service
	orders   orders.Service
	rates    pricing.Rates
	window   delivery.Window
	logg     *logger.Logger
	now      func() time.Time

	dir      string
	apiURL   string
	logLevel string
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "cakectl",
		Short:         "Manage a local cake basket and place orders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}

	if a.cfg == nil {
		a.cfg = &config.ClientConfig{}
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.dir, "dir", a.cfg.Storage.FileDir, "directory the basket is saved in")
	flags.StringVar(&a.apiURL, "api", a.cfg.ShopAPI.BaseURL, "shop backend base URL")
	flags.StringVar(&a.logLevel, "log-level", a.cfg.LogLevel, "log level")

	root.AddCommand(
		newBasketCmd(a),
		newQuoteCmd(a),
		newCheckoutCmd(a),
		newOrderCmd(a),
	)
	return root
}

func (a *app) init() error {
	checkoutCfg := a.cfg.Checkout
	if a.logg == nil {
		a.logg = logger.New(logger.Options{
			ServiceName: "cakectl",
			Level:       logger.ParseLevel(a.logLevel),
			Output:      os.Stderr,
			Format:      "console",
		})
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.rates == (pricing.Rates{}) {
		a.rates = pricing.DefaultRates()
		if !checkoutCfg.DeliveryFee.IsZero() || !checkoutCfg.TaxRate.IsZero() {
			a.rates = pricing.Rates{DeliveryFee: checkoutCfg.DeliveryFee, TaxRate: checkoutCfg.TaxRate}
		}
	}
	if a.window == (delivery.Window{}) {
		a.window = delivery.DefaultWindow()
		if checkoutCfg.MaxHorizonMonths > 0 {
			a.window = delivery.Window{MinLeadDays: checkoutCfg.MinLeadDays, MaxHorizonMonths: checkoutCfg.MaxHorizonMonths}
		}
	}
	if a.storage == nil {
		storage, err := basket.NewFileStorage(a.dir)
		if err != nil {
			return fmt.Errorf("open basket directory: %w", err)
		}
		a.storage = storage
	}

	var shop *shopapi.Client
	if a.catalog == nil || a.checkout == nil || a.orders == nil {
		shop = shopapi.NewClient(a.apiURL, shopapi.WithTimeout(a.cfg.ShopAPI.Timeout))
	}
	if a.catalog == nil {
		svc, err := catalog.NewService(shop, 0, a.now)
		if err != nil {
			return err
		}
		a.catalog = svc
	}
	if a.checkout == nil {
		var currency enums.Currency
		if checkoutCfg.Currency != "" {
			parsed, err := enums.ParseCurrency(checkoutCfg.Currency)
			if err != nil {
				return err
			}
			currency = parsed
		}
		svc, err := checkout.NewService(shop, checkout.Config{
			Rates:    a.rates,
			Window:   a.window,
			Currency: currency,
			Now:      a.now,
		}, a.logg, nil)
		if err != nil {
			return err
		}
		a.checkout = svc
	}
	if a.orders == nil {
		svc, err := orders.NewService(shop, a.logg)
		if err != nil {
			return err
		}
		a.orders = svc
	}
	return nil
}

// openBasket loads the saved basket.
func (a *app) openBasket(ctx context.Context) *basket.Store {
	store := basket.NewStore(a.storage, basket.WithLogger(a.logg), basket.WithClock(a.now))
	store.Initialize(ctx)
	return store
}
