package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/rl1809/storefront/internal/adapter/handler"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/logger/sl"
	"github.com/rl1809/storefront/internal/trace"
)

const sweepBatch = 100

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, logger)
	},
}

func serve(parent context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	tp, err := trace.InitTracer(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
	if err != nil {
		return err
	}
	if tp != nil {
		logger.Info("exporting traces", slog.String("endpoint", cfg.Tracing.Endpoint))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Error("tracer shutdown", sl.Err(err))
			}
		}()
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Storage == config.StorageMemory && cfg.Seed.File != "" {
		if err := applySeed(ctx, a, cfg.Seed.File, logger); err != nil {
			return err
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweepLoop(ctx, a.orders, cfg.Checkout.SweepInterval, cfg.Checkout.AbandonAfter, logger)
	}()

	grpcServer := grpc.NewServer()
	handler.RegisterShippingServer(grpcServer, handler.NewGRPCHandler(a.shipping))

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return err
	}
	go func() {
		logger.Info("gRPC server listening", slog.String("addr", cfg.GRPC.Addr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", sl.Err(err))
		}
	}()

	httpHandler := handler.NewHTTPHandler(handler.Services{
		Shipping:  a.shipping,
		RateAdmin: a.rateAdmin,
		Carts:     a.carts,
		Discounts: a.discounts,
		Orders:    a.orders,
		Addresses: a.addresses,
	}, logger)
	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: handler.NewRouter(httpHandler),
	}
	go func() {
		logger.Info("HTTP server listening", slog.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", sl.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown", sl.Err(err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	cancel()
	wg.Wait()
	logger.Info("sweeper stopped")
	return nil
}

// sweepLoop abandons pending orders left behind by interrupted checkouts.
func sweepLoop(ctx context.Context, orders *service.OrderService, interval, olderThan time.Duration, logger *slog.Logger) {
	if interval <= 0 || olderThan <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, interval)
			n, err := orders.AbandonStale(runCtx, olderThan, sweepBatch)
			cancel()
			if err != nil {
				logger.Error("sweep stale orders", sl.Err(err))
				continue
			}
			if n > 0 {
				logger.Info("abandoned stale orders", slog.Int("count", n))
			}
		}
	}
}
