package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cakehouse/storefront/api/controllers"
	"github.com/cakehouse/storefront/api/middleware"
	"github.com/cakehouse/storefront/internal/catalog"
	"github.com/cakehouse/storefront/internal/checkout"
	"github.com/cakehouse/storefront/internal/customization"
	"github.com/cakehouse/storefront/internal/orders"
	"github.com/cakehouse/storefront/internal/pricing"
	"github.com/cakehouse/storefront/pkg/config"
	"github.com/cakehouse/storefront/pkg/logger"
	"github.com/cakehouse/storefront/pkg/redis"
)

// NewRouter wires the storefront HTTP surface. idempotency may be nil, in which
// case requests pass through unguarded.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	readiness map[string]controllers.Pinger,
	baskets controllers.BasketOpener,
	catalogService catalog.Service,
	wizard *customization.Wizard,
	checkoutService checkout.Service,
	orderService orders.Service,
	idempotency redis.IdempotencyStore,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	rates := pricing.Rates{DeliveryFee: cfg.Checkout.DeliveryFee, TaxRate: cfg.Checkout.TaxRate}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/cakes", controllers.CatalogCakes(catalogService, logg))
			r.Get("/customizations", controllers.CatalogCustomizations(catalogService, logg))
		})
		r.Get("/orders/{orderNumber}", controllers.OrderStatus(orderService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(cfg.Session, logg, time.Now))
			if idempotency != nil {
				r.Use(middleware.Idempotency(idempotency, cfg.Checkout.IdempotencyTTL, logg))
			}

			r.Route("/basket", func(r chi.Router) {
				r.Get("/", controllers.BasketGet(baskets, rates, logg))
				r.Delete("/", controllers.BasketClear(baskets, rates, logg))
				r.Post("/items", controllers.BasketAddItem(baskets, catalogService, rates, logg))
				r.Post("/custom", controllers.BasketAddCustom(baskets, catalogService, wizard, rates, time.UTC, logg))
				r.Patch("/items/{cartItemId}", controllers.BasketUpdateItem(baskets, rates, logg))
				r.Delete("/items/{cartItemId}", controllers.BasketRemoveItem(baskets, rates, logg))
			})
			r.Post("/checkout", controllers.Checkout(baskets, checkoutService, logg))
		})
	})

	return r
}
