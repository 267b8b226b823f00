package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/adapter/payment"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/logger/sl"
	"github.com/rl1809/storefront/internal/port"
)

// app holds the wired services and the connections to close on exit.
type app struct {
	shipping  *service.ShippingService
	rateAdmin *service.RateAdminService
	carts     *service.CartService
	discounts *service.DiscountService
	orders    *service.OrderService
	addresses *service.AddressService
	catalog   port.CatalogWriter

	closers []namedCloser
	logger  *slog.Logger
}

type namedCloser struct {
	name  string
	close func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.Error("close "+c.name, sl.Err(err))
		}
	}
}

type repositories interface {
	port.RateRepository
	port.CartRepository
	port.DiscountRepository
	port.OrderRepository
	port.AddressRepository
	port.CatalogRepository
	port.CatalogWriter
}

func openMySQL(ctx context.Context, cfg config.MySQLConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect mysql: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping mysql: %w", err)
	}
	return db, nil
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	taxRate, err := decimal.NewFromString(cfg.Checkout.TaxRate)
	if err != nil || taxRate.IsNegative() {
		return nil, fmt.Errorf("invalid checkout.tax_rate %q", cfg.Checkout.TaxRate)
	}
	var declineAbove *decimal.Decimal
	if cfg.Payment.DeclineAbove != "" {
		limit, err := decimal.NewFromString(cfg.Payment.DeclineAbove)
		if err != nil {
			return nil, fmt.Errorf("invalid payment.decline_above %q", cfg.Payment.DeclineAbove)
		}
		declineAbove = &limit
	}

	a := &app{logger: logger}
	var (
		repos repositories
		cache port.CacheRepository
	)
	switch cfg.Storage {
	case config.StorageMemory:
		mem := storage.NewMemoryAdapter()
		repos, cache = mem, mem
		logger.Info("using in-memory storage")
	default:
		db, err := openMySQL(ctx, cfg.MySQL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, namedCloser{name: "mysql", close: db.Close})
		logger.Info("connected to mysql")

		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		a.closers = append(a.closers, namedCloser{name: "redis", close: rdb.Close})
		logger.Info("connected to redis")

		repos = storage.NewMySQLAdapter(db)
		cache = storage.NewRedisAdapter(rdb, cfg.Checkout.IdempotencyTTL)
	}

	a.catalog = repos
	a.shipping = service.NewShippingService(repos, logger)
	a.rateAdmin = service.NewRateAdminService(repos, logger)
	a.carts = service.NewCartService(repos, repos, cfg.Checkout.Currency, logger)
	a.discounts = service.NewDiscountService(repos, repos, a.carts, logger)
	a.addresses = service.NewAddressService(repos, logger)
	a.orders = service.NewOrderService(service.OrderServiceDeps{
		Carts:     repos,
		Catalog:   repos,
		Orders:    repos,
		Discounts: repos,
		Cache:     cache,
		Payments:  payment.NewSimulator(declineAbove, logger),
		Shipping:  a.shipping,
		Promo:     a.discounts,
	}, taxRate, logger)
	return a, nil
}
