package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Mock CacheRepository
type mockCacheRepo struct {
	uses           map[string]int
	idempotencySet map[string]bool
	released       int
	mu             sync.Mutex
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{
		uses:           make(map[string]int),
		idempotencySet: make(map[string]bool),
	}
}

func (m *mockCacheRepo) RedeemDiscount(ctx context.Context, code string, usesCount, maxUses int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.uses[code]
	if !ok {
		current = usesCount
	}
	if current >= maxUses {
		m.uses[code] = current
		return false, nil
	}
	m.uses[code] = current + 1
	return true, nil
}

func (m *mockCacheRepo) ReleaseDiscount(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released++
	if m.uses[code] > 0 {
		m.uses[code]--
	}
	return nil
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) usesOf(code string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uses[code]
}

var errCardDeclined = errors.New("card declined")

// Mock PaymentGateway
type mockPaymentGateway struct {
	decline bool
	charges []port.PaymentRequest
	// onCharge runs before the charge is recorded, outside the lock.
	onCharge func(ctx context.Context, req port.PaymentRequest)
	mu       sync.Mutex
}

func (m *mockPaymentGateway) Charge(ctx context.Context, req port.PaymentRequest) (port.PaymentReceipt, error) {
	if m.onCharge != nil {
		m.onCharge(ctx, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.charges = append(m.charges, req)
	if m.decline {
		return port.PaymentReceipt{}, errCardDeclined
	}
	return port.PaymentReceipt{Reference: "pay-test"}, nil
}

type testEnv struct {
	store    *storage.MemoryAdapter
	cache    *mockCacheRepo
	payments *mockPaymentGateway

	shipping  *ShippingService
	admin     *RateAdminService
	carts     *CartService
	discounts *DiscountService
	orders    *OrderService
	addresses *AddressService

	standardID int64
}

// newTestEnv wires every service over the memory adapter with a US flat rate
// of 5.00, two products and a 10% tax rate. cache may be nil.
func newTestEnv(t *testing.T, cache *mockCacheRepo) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	store := storage.NewMemoryAdapter()
	payments := &mockPaymentGateway{}

	env := &testEnv{store: store, cache: cache, payments: payments}
	env.shipping = NewShippingService(store, logger)
	env.admin = NewRateAdminService(store, logger)
	env.carts = NewCartService(store, store, "USD", logger)
	env.discounts = NewDiscountService(store, store, env.carts, logger)
	env.addresses = NewAddressService(store, logger)

	deps := OrderServiceDeps{
		Carts:     store,
		Catalog:   store,
		Orders:    store,
		Discounts: store,
		Payments:  payments,
		Shipping:  env.shipping,
		Promo:     env.discounts,
	}
	if cache != nil {
		deps.Cache = cache
	}
	env.orders = NewOrderService(deps, decimal.RequireFromString("0.10"), logger)

	clock := func() time.Time { return fixedNow }
	env.carts.now = clock
	env.discounts.now = clock
	env.orders.now = clock
	env.addresses.now = clock

	zone, err := env.admin.CreateZone(ctx, CreateZoneInput{Name: "Domestic", Countries: []string{"US"}, Active: true})
	if err != nil {
		t.Fatalf("create zone: %v", err)
	}
	days := 5
	method, err := env.admin.CreateMethod(ctx, CreateMethodInput{Name: "Standard", Strategy: "flat", Active: true, EstimatedDays: &days})
	if err != nil {
		t.Fatalf("create method: %v", err)
	}
	if _, err := env.admin.CreateRate(ctx, CreateRateInput{MethodID: method.ID, ZoneID: zone.ID, BaseRate: decimal.RequireFromString("5.00")}); err != nil {
		t.Fatalf("create rate: %v", err)
	}
	env.standardID = method.ID

	for _, p := range []domain.Product{
		{ID: "mug", Name: "Mug", Price: decimal.RequireFromString("10.00"), Weight: decimal.RequireFromString("1"), Active: true},
		{ID: "poster", Name: "Poster", Price: decimal.RequireFromString("25.50"), Weight: decimal.RequireFromString("0.5"), Active: true},
		{ID: "retired", Name: "Retired", Price: decimal.RequireFromString("1.00"), Active: false},
	} {
		if err := store.PutProduct(ctx, p); err != nil {
			t.Fatalf("put product: %v", err)
		}
	}
	return env
}

func (e *testEnv) createDiscount(t *testing.T, d domain.DiscountCode) domain.DiscountCode {
	t.Helper()
	d.Active = true
	created, err := e.discounts.Create(context.Background(), d)
	if err != nil {
		t.Fatalf("create discount: %v", err)
	}
	return created
}

// filledCart returns a user cart with 2 mugs and 1 poster, subtotal 45.50.
func (e *testEnv) filledCart(t *testing.T, userID string) *domain.Cart {
	t.Helper()
	ctx := context.Background()
	cart, err := e.carts.GetOrCreate(ctx, userID, "")
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if _, err := e.carts.AddItem(ctx, cart.ID, "mug", "", 2); err != nil {
		t.Fatalf("add mug: %v", err)
	}
	if _, err := e.carts.AddItem(ctx, cart.ID, "poster", "", 1); err != nil {
		t.Fatalf("add poster: %v", err)
	}
	return cart
}

func (e *testEnv) checkoutRequest(requestID, cartID string) CheckoutRequest {
	return CheckoutRequest{
		RequestID:        requestID,
		CartID:           cartID,
		Email:            "buyer@example.com",
		Country:          "us",
		ShippingMethodID: e.standardID,
	}
}

func intPtr(n int) *int {
	return &n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func (m *mockPaymentGateway) chargeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.charges)
}
