package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/adapter/payment"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	router *gin.Engine
	store  *storage.MemoryAdapter
	svc    Services
}

func newFixture(t *testing.T, declineAbove *decimal.Decimal) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	store := storage.NewMemoryAdapter()

	shipping := service.NewShippingService(store, logger)
	carts := service.NewCartService(store, store, "USD", logger)
	discounts := service.NewDiscountService(store, store, carts, logger)
	svc := Services{
		Shipping:  shipping,
		RateAdmin: service.NewRateAdminService(store, logger),
		Carts:     carts,
		Discounts: discounts,
		Orders: service.NewOrderService(service.OrderServiceDeps{
			Carts:     store,
			Catalog:   store,
			Orders:    store,
			Discounts: store,
			Cache:     store,
			Payments:  payment.NewSimulator(declineAbove, logger),
			Shipping:  shipping,
			Promo:     discounts,
		}, decimal.RequireFromString("0.10"), logger),
		Addresses: service.NewAddressService(store, logger),
	}
	return &fixture{router: NewRouter(NewHTTPHandler(svc, logger)), store: store, svc: svc}
}

func (f *fixture) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// seedShipping creates a US zone with a flat 5.00 method through the admin API.
func (f *fixture) seedShipping(t *testing.T) int64 {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/admin/shipping/zones", gin.H{"name": "Domestic", "countries": []string{"us"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	zoneID := int64(decode[map[string]any](t, w)["id"].(float64))

	w = f.do(t, http.MethodPost, "/api/v1/admin/shipping/methods", gin.H{"name": "Standard", "calculation_type": "flat", "estimated_days": 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	methodID := int64(decode[map[string]any](t, w)["id"].(float64))

	w = f.do(t, http.MethodPost, "/api/v1/admin/shipping/rates", gin.H{"shipping_method_id": methodID, "shipping_zone_id": zoneID, "base_rate": "5.00"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return methodID
}

func (f *fixture) seedCatalog(t *testing.T) {
	t.Helper()
	ctx := t.Context()
	require.NoError(t, f.store.PutProduct(ctx, domain.Product{ID: "mug", Name: "Mug", Price: decimal.RequireFromString("10.00"), Weight: decimal.NewFromInt(1), Active: true}))
	require.NoError(t, f.store.PutProduct(ctx, domain.Product{ID: "poster", Name: "Poster", Price: decimal.RequireFromString("25.50"), Weight: decimal.NewFromInt(1), Active: true}))
}

func (f *fixture) openCart(t *testing.T, userID string) CartResponse {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/carts", OpenCartRequest{UserID: userID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[CartResponse](t, w)
}

func (f *fixture) fillCart(t *testing.T, cartID string) {
	t.Helper()
	for _, item := range []AddItemRequest{{ProductID: "mug", Quantity: 2}, {ProductID: "poster", Quantity: 1}} {
		w := f.do(t, http.MethodPost, "/api/v1/carts/"+cartID+"/items", item)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestShippingEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	methodID := f.seedShipping(t)

	w := f.do(t, http.MethodGet, "/api/v1/shipping/rates?country=US&weight=2&order_total=50", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rates := decode[struct {
		Rates []QuoteResponse `json:"rates"`
	}](t, w).Rates
	require.Len(t, rates, 1)
	assert.Equal(t, "5.00", rates[0].Cost)
	assert.Equal(t, "flat", rates[0].Strategy)

	w = f.do(t, http.MethodGet, "/api/v1/shipping/rates?country=FR", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rates":[]}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/v1/shipping/rates?country=FRA", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/shipping/rates?country=US&weight=heavy", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/shipping/methods/%d/cost?country=US", methodID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"method_id":%d,"available":true,"cost":"5.00","estimated_days":3}`, methodID), w.Body.String())

	w = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/shipping/methods/%d/cost?country=FR", methodID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"method_id":%d,"available":false}`, methodID), w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/admin/shipping/rates", gin.H{"shipping_method_id": methodID, "shipping_zone_id": 1, "base_rate": "6.00"})
	assert.Equal(t, http.StatusConflict, w.Code, "one rate per method and zone")
}

func TestCartEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	f.seedCatalog(t)
	cart := f.openCart(t, "user-1")
	assert.Equal(t, "USD", cart.Currency)
	assert.Empty(t, cart.Items)

	again := f.openCart(t, "user-1")
	assert.Equal(t, cart.ID, again.ID)

	f.fillCart(t, cart.ID)
	w := f.do(t, http.MethodPost, "/api/v1/carts/"+cart.ID+"/items", AddItemRequest{ProductID: "mug", Quantity: 1})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[CartResponse](t, w)
	require.Len(t, got.Items, 2)
	assert.Equal(t, 3, got.Items[0].Quantity, "same product merges")
	assert.Equal(t, "55.50", got.Subtotal)

	w = f.do(t, http.MethodPatch, "/api/v1/carts/"+cart.ID+"/items/"+got.Items[0].ItemID, UpdateQuantityRequest{Quantity: 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[CartResponse](t, w).Items, 1)

	w = f.do(t, http.MethodPost, "/api/v1/carts/"+cart.ID+"/items", AddItemRequest{ProductID: "mug", Quantity: -2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/carts/"+cart.ID+"/items", AddItemRequest{ProductID: "ghost", Quantity: 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodDelete, "/api/v1/carts/"+cart.ID+"/items", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[CartResponse](t, w).Items)

	w = f.do(t, http.MethodGet, "/api/v1/carts/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	methodID := f.seedShipping(t)
	f.seedCatalog(t)

	w := f.do(t, http.MethodPost, "/api/v1/admin/discounts", gin.H{"code": "save10", "discount_type": "percentage", "amount": "10"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	cart := f.openCart(t, "user-1")
	f.fillCart(t, cart.ID)
	w = f.do(t, http.MethodPut, "/api/v1/carts/"+cart.ID+"/discount", ApplyDiscountRequest{Code: "SAVE10"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := CheckoutRequest{CartID: cart.ID, Email: "buyer@example.com", Country: "US", ShippingMethodID: methodID}
	w = f.do(t, http.MethodPost, "/api/v1/checkout", body, "Idempotency-Key", "req-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[OrderResponse](t, w)
	assert.Equal(t, "completed", order.Status)
	assert.Equal(t, "45.50", order.Subtotal)
	assert.Equal(t, "4.55", order.Discount)
	assert.Equal(t, "4.55", order.Tax)
	assert.Equal(t, "5.00", order.Shipping)
	assert.Equal(t, "50.50", order.Total)

	w = f.do(t, http.MethodPost, "/api/v1/checkout", body, "Idempotency-Key", "req-1")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/checkout", body)
	assert.Equal(t, http.StatusBadRequest, w.Code, "request id required")

	w = f.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, nil, userHeader, "user-1")
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, nil, userHeader, "user-2")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/orders", nil, userHeader, "user-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[struct {
		Orders []OrderResponse `json:"orders"`
	}](t, w).Orders, 1)

	w = f.do(t, http.MethodPost, "/api/v1/orders/"+order.ID+"/cancel", nil, userHeader, "user-1")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "completed orders are not cancellable")

	w = f.do(t, http.MethodPost, "/api/v1/admin/orders/"+order.ID+"/status", TransitionRequest{Status: "shipped", TrackingNumber: "1Z999"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "shipped", decode[OrderResponse](t, w).Status)

	w = f.do(t, http.MethodPost, "/api/v1/admin/orders/"+order.ID+"/status", TransitionRequest{Status: "pending"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCheckoutEndpoint_Rejections(t *testing.T) {
	f := newFixture(t, nil)
	methodID := f.seedShipping(t)
	f.seedCatalog(t)
	cart := f.openCart(t, "user-1")

	body := CheckoutRequest{RequestID: "req-empty", CartID: cart.ID, Email: "buyer@example.com", Country: "US", ShippingMethodID: methodID}
	w := f.do(t, http.MethodPost, "/api/v1/checkout", body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "empty cart")

	f.fillCart(t, cart.ID)
	body.RequestID, body.Country = "req-fr", "FR"
	w = f.do(t, http.MethodPost, "/api/v1/checkout", body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "no shipping to FR")

	body.RequestID, body.Email = "req-email", "not-an-email"
	w = f.do(t, http.MethodPost, "/api/v1/checkout", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutEndpoint_PaymentDeclined(t *testing.T) {
	limit := decimal.RequireFromString("10.00")
	f := newFixture(t, &limit)
	methodID := f.seedShipping(t)
	f.seedCatalog(t)
	cart := f.openCart(t, "user-1")
	f.fillCart(t, cart.ID)

	body := CheckoutRequest{RequestID: "req-1", CartID: cart.ID, Email: "buyer@example.com", Country: "US", ShippingMethodID: methodID}
	w := f.do(t, http.MethodPost, "/api/v1/checkout", body)
	require.Equal(t, http.StatusPaymentRequired, w.Code, w.Body.String())
	resp := decode[struct {
		Error string        `json:"error"`
		Order OrderResponse `json:"order"`
	}](t, w)
	assert.Equal(t, "failed", resp.Order.Status)

	w = f.do(t, http.MethodGet, "/api/v1/carts/"+cart.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[CartResponse](t, w).Items, 2, "cart kept")
}

func TestDiscountEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	f.seedCatalog(t)

	w := f.do(t, http.MethodPost, "/api/v1/admin/discounts", gin.H{"code": "big", "discount_type": "fixed", "amount": "5", "min_purchase": "100"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = f.do(t, http.MethodPost, "/api/v1/admin/discounts", gin.H{"code": "bad", "discount_type": "bogus", "amount": "5"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/discounts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"BIG"`)

	cart := f.openCart(t, "user-1")
	f.fillCart(t, cart.ID)
	w = f.do(t, http.MethodPut, "/api/v1/carts/"+cart.ID+"/discount", ApplyDiscountRequest{Code: "BIG"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "minimum purchase not met")

	w = f.do(t, http.MethodPut, "/api/v1/carts/"+cart.ID+"/discount", ApplyDiscountRequest{Code: "NOPE"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddressEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	addr := AddressRequest{FirstName: "Ada", LastName: "Lovelace", Line1: "1 Main St", City: "Springfield", Country: "us", PostalCode: "12345"}

	w := f.do(t, http.MethodPost, "/api/v1/addresses", addr)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/addresses", addr, userHeader, "user-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[AddressResponse](t, w)
	assert.True(t, first.IsDefault)
	assert.Equal(t, "US", first.Country)

	w = f.do(t, http.MethodPost, "/api/v1/addresses", addr, userHeader, "user-1")
	require.Equal(t, http.StatusCreated, w.Code)
	second := decode[AddressResponse](t, w)
	assert.False(t, second.IsDefault)

	w = f.do(t, http.MethodPut, "/api/v1/addresses/"+second.ID+"/default", nil, userHeader, "user-1")
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = f.do(t, http.MethodDelete, "/api/v1/addresses/"+first.ID, nil, userHeader, "user-1")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/addresses", nil, userHeader, "user-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), second.ID)
	assert.NotContains(t, w.Body.String(), first.ID)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", domain.ErrConflict), http.StatusConflict},
		{domain.ErrDuplicateRate, http.StatusConflict},
		{domain.ErrDuplicateRequest, http.StatusConflict},
		{domain.ErrPaymentFailed, http.StatusPaymentRequired},
		{domain.ErrDiscountExhausted, http.StatusUnprocessableEntity},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
