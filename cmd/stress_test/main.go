package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/adapter/payment"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

const (
	redisAddr     = "localhost:6379"
	discountCode  = "STRESS-LIMITED"
	maxUses       = 20
	totalRequests = 50
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	cache := storage.NewRedisAdapter(rdb, time.Minute)
	if err := cache.ResetDiscount(ctx, discountCode); err != nil {
		log.Fatalf("failed to reset discount counter: %v", err)
	}

	mem := storage.NewMemoryAdapter()
	shipping := service.NewShippingService(mem, logger)
	admin := service.NewRateAdminService(mem, logger)
	carts := service.NewCartService(mem, mem, "USD", logger)
	discounts := service.NewDiscountService(mem, mem, carts, logger)
	orders := service.NewOrderService(service.OrderServiceDeps{
		Carts:     mem,
		Catalog:   mem,
		Orders:    mem,
		Discounts: mem,
		Cache:     cache,
		Payments:  payment.NewSimulator(nil, logger),
		Shipping:  shipping,
		Promo:     discounts,
	}, decimal.RequireFromString("0.10"), logger)

	methodID := setupCatalog(ctx, mem, admin, discounts)

	gofakeit.Seed(time.Now().UnixNano())
	cartIDs := make([]string, totalRequests)
	emails := make(map[string]string, totalRequests)
	for i := range cartIDs {
		cart, err := carts.GetOrCreate(ctx, "", "stress-"+gofakeit.UUID())
		if err != nil {
			log.Fatalf("failed to create cart: %v", err)
		}
		if _, err := carts.AddItem(ctx, cart.ID, "stress-item", "", 1); err != nil {
			log.Fatalf("failed to add item: %v", err)
		}
		if _, err := discounts.ApplyToCart(ctx, cart.ID, discountCode); err != nil {
			log.Fatalf("failed to apply discount: %v", err)
		}
		cartIDs[i] = cart.ID
		emails[cart.ID] = gofakeit.Email()
	}

	var successCount, exhaustedCount, otherCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for _, cartID := range cartIDs {
		wg.Add(1)
		go func(cartID, email string) {
			defer wg.Done()

			_, err := orders.Checkout(ctx, service.CheckoutRequest{
				RequestID:        uuid.NewString(),
				CartID:           cartID,
				Email:            email,
				Country:          "US",
				ShippingMethodID: methodID,
			})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrDiscountExhausted):
				exhaustedCount.Add(1)
			default:
				otherCount.Add(1)
				log.Printf("unexpected checkout error: %v", err)
			}
		}(cartID, emails[cartID])
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	exhausted := exhaustedCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Discount Max Uses: %d\n", maxUses)
	fmt.Printf("Total Checkouts:   %d\n", totalRequests)
	fmt.Printf("Completed:         %d\n", success)
	fmt.Printf("Exhausted:         %d\n", exhausted)
	fmt.Printf("Other Errors:      %d\n", otherCount.Load())
	fmt.Printf("Duration:          %v\n", elapsed)
	fmt.Println("==========================================")

	if success == maxUses && exhausted == totalRequests-maxUses {
		fmt.Printf("PASS: Exactly %d checkouts redeemed the code, %d refused\n", maxUses, totalRequests-maxUses)
	} else {
		fmt.Printf("FAIL: Expected %d completed/%d exhausted, got %d/%d\n",
			maxUses, totalRequests-maxUses, success, exhausted)
	}

	d, err := mem.GetDiscountByCode(ctx, discountCode)
	if err != nil {
		log.Fatalf("failed to read discount: %v", err)
	}
	fmt.Printf("Stored Uses Count: %d\n", d.UsesCount)
	if d.UsesCount == maxUses {
		fmt.Println("PASS: Use count matches the limit")
	} else {
		fmt.Printf("FAIL: Expected use count %d, got %d\n", maxUses, d.UsesCount)
	}
}

func setupCatalog(ctx context.Context, mem *storage.MemoryAdapter, admin *service.RateAdminService, discounts *service.DiscountService) int64 {
	zone, err := admin.CreateZone(ctx, service.CreateZoneInput{Name: "Domestic", Countries: []string{"US"}, Active: true})
	if err != nil {
		log.Fatalf("failed to create zone: %v", err)
	}
	method, err := admin.CreateMethod(ctx, service.CreateMethodInput{Name: "Standard", Strategy: "flat", Active: true})
	if err != nil {
		log.Fatalf("failed to create method: %v", err)
	}
	if _, err := admin.CreateRate(ctx, service.CreateRateInput{
		MethodID: method.ID, ZoneID: zone.ID, BaseRate: decimal.RequireFromString("5.00"),
	}); err != nil {
		log.Fatalf("failed to create rate: %v", err)
	}

	mem.PutProduct(ctx, domain.Product{
		ID: "stress-item", Name: "Stress Item", Price: decimal.RequireFromString("40.00"),
		Weight: decimal.RequireFromString("1"), Active: true,
	})

	limit := maxUses
	if _, err := discounts.Create(ctx, domain.DiscountCode{
		Code:    discountCode,
		Type:    domain.DiscountFixed,
		Amount:  decimal.RequireFromString("10.00"),
		MaxUses: &limit,
		Active:  true,
	}); err != nil {
		log.Fatalf("failed to create discount: %v", err)
	}
	return method.ID
}
