package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/multierr"

	"github.com/cakehouse/storefront/api/controllers"
	"github.com/cakehouse/storefront/internal/basket"
	"github.com/cakehouse/storefront/internal/pricing"
	"github.com/cakehouse/storefront/pkg/config"
	"github.com/cakehouse/storefront/pkg/db"
	"github.com/cakehouse/storefront/pkg/logger"
	"github.com/cakehouse/storefront/pkg/metrics"
	"github.com/cakehouse/storefront/pkg/migrate"
	pkgredis "github.com/cakehouse/storefront/pkg/redis"
	"github.com/cakehouse/storefront/pkg/types"
)

// backend bundles the basket storage selected by config with the resources it
// holds open.
type backend struct {
	storage     basket.Storage
	readiness   map[string]controllers.Pinger
	idempotency pkgredis.IdempotencyStore
	closers     []io.Closer
}

func (b *backend) Close() error {
	var errs error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, b.closers[i].Close())
	}
	return errs
}

// openBackend connects the configured storage driver. Redis is also opened for
// request idempotency whenever it is configured, regardless of the driver.
func openBackend(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*backend, error) {
	b := &backend{readiness: map[string]controllers.Pinger{}}

	var redisClient *pkgredis.Client
	if cfg.Redis.IsConfigured() {
		client, err := pkgredis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		redisClient = client
		b.closers = append(b.closers, client)
		b.readiness["redis"] = client
		b.idempotency = client
	}

	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		b.storage = basket.NewMemoryStorage()

	case config.StorageDriverFile:
		storage, err := basket.NewFileStorage(cfg.Storage.FileDir)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("open file storage: %w", err), b.Close())
		}
		b.storage = storage

	case config.StorageDriverRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis storage selected but redis is not configured")
		}
		b.storage = basket.NewRedisStorage(redisClient, cfg.Redis.BasketTTL)

	case config.StorageDriverDB:
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("bootstrap database: %w", err), b.Close())
		}
		b.closers = append(b.closers, dbClient)
		b.readiness["database"] = dbClient
		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return nil, multierr.Append(fmt.Errorf("run dev migrations: %w", err), b.Close())
		}
		b.storage = basket.NewDBStorage(dbClient.DB())

	default:
		return nil, multierr.Append(fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver), b.Close())
	}

	return b, nil
}

// observeBasket feeds basket mutations into the storefront metrics.
func observeBasket(m *metrics.StorefrontMetrics) basket.Listener {
	return func(_ context.Context, op string, items []types.LineItem, err error) {
		m.ObserveMutation(op, err)
		if err == nil {
			m.ObserveBasket(pricing.Subtotal(items), pricing.ItemCount(items))
		}
	}
}
