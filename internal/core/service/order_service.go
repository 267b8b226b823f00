package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/logger/sl"
	"github.com/rl1809/storefront/internal/metric"
	"github.com/rl1809/storefront/internal/port"
)

const (
	idempotencyKeyPrefix = "checkout:"
	cartRestoreAttempts  = 3
)

type CheckoutRequest struct {
	RequestID        string
	CartID           string
	Email            string
	Country          string
	ShippingMethodID int64
	ExchangeRate     decimal.Decimal // zero means 1
}

type OrderService struct {
	carts     port.CartRepository
	catalog   port.CatalogRepository
	orders    port.OrderRepository
	discounts port.DiscountRepository
	cache     port.CacheRepository
	payments  port.PaymentGateway
	shipping  *ShippingService
	promo     *DiscountService
	taxRate   decimal.Decimal
	logger    *slog.Logger
	now       func() time.Time
}

type OrderServiceDeps struct {
	Carts     port.CartRepository
	Catalog   port.CatalogRepository
	Orders    port.OrderRepository
	Discounts port.DiscountRepository
	Cache     port.CacheRepository // optional redemption gate and idempotency store
	Payments  port.PaymentGateway
	Shipping  *ShippingService
	Promo     *DiscountService
}

func NewOrderService(deps OrderServiceDeps, taxRate decimal.Decimal, logger *slog.Logger) *OrderService {
	return &OrderService{
		carts:     deps.Carts,
		catalog:   deps.Catalog,
		orders:    deps.Orders,
		discounts: deps.Discounts,
		cache:     deps.Cache,
		payments:  deps.Payments,
		shipping:  deps.Shipping,
		promo:     deps.Promo,
		taxRate:   taxRate,
		logger:    logger,
		now:       time.Now,
	}
}

func (r CheckoutRequest) validate() (CheckoutRequest, error) {
	if strings.TrimSpace(r.RequestID) == "" || strings.TrimSpace(r.CartID) == "" {
		return r, fmt.Errorf("%w: request and cart ids are required", domain.ErrInvalidInput)
	}
	if !strings.Contains(r.Email, "@") {
		return r, fmt.Errorf("%w: email %q", domain.ErrInvalidInput, r.Email)
	}
	if r.ShippingMethodID <= 0 {
		return r, fmt.Errorf("%w: shipping method is required", domain.ErrInvalidInput)
	}
	country, err := domain.NormalizeCountry(r.Country)
	if err != nil {
		return r, err
	}
	r.Country = country
	if r.ExchangeRate.IsZero() {
		r.ExchangeRate = decimal.NewFromInt(1)
	}
	if r.ExchangeRate.IsNegative() {
		return r, fmt.Errorf("%w: exchange rate must be positive", domain.ErrInvalidInput)
	}
	return r, nil
}

// snapshot copies names and current prices of the cart lines into order
// items and returns the total parcel weight.
func (s *OrderService) snapshot(ctx context.Context, cart *domain.Cart) ([]domain.OrderItem, decimal.Decimal, error) {
	items := make([]domain.OrderItem, 0, len(cart.Items))
	weight := decimal.Zero
	for _, it := range cart.Items {
		entry, err := s.catalog.GetCatalogEntry(ctx, it.ProductID, it.VariantID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("snapshot item %s: %w", it.ID, err)
		}
		items = append(items, domain.OrderItem{
			ID:          uuid.NewString(),
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			ProductName: entry.Product.Name,
			VariantName: entry.VariantName(),
			Quantity:    it.Quantity,
			UnitPrice:   domain.RoundMoney(entry.UnitPrice()),
		})
		weight = weight.Add(entry.Product.Weight.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return items, weight, nil
}

func (s *OrderService) reject(ctx context.Context, req CheckoutRequest, err error) error {
	status := "error"
	if domain.IsDomainRule(err) || errorsIsAny(err, domain.ErrInvalidInput, domain.ErrNotFound, domain.ErrDuplicateRequest, domain.ErrConflict) {
		status = "rejected"
		s.logger.WarnContext(ctx, "checkout rejected", slog.String("cart_id", req.CartID), sl.Err(err), sl.Traced(ctx))
	} else {
		s.logger.ErrorContext(ctx, "checkout failed", slog.String("cart_id", req.CartID), sl.Err(err), sl.Traced(ctx))
	}
	metric.CheckoutsTotal.WithLabelValues(status).Inc()
	return err
}

// Checkout finalizes the cart into an order: snapshot prices, price shipping,
// check the discount, claim the cart by clearing it, take one discount use and
// charge the payment authority. A cart already claimed or edited since it was
// read yields domain.ErrConflict. A failed charge marks the order failed and
// puts the lines back so the customer can retry.
func (s *OrderService) Checkout(ctx context.Context, req CheckoutRequest) (*domain.Order, error) {
	ctx, span := otel.Tracer("orderService").Start(ctx, "OrderService.Checkout")
	defer span.End()

	req, err := req.validate()
	if err != nil {
		return nil, s.reject(ctx, req, err)
	}
	span.SetAttributes(attribute.String("cart_id", req.CartID), attribute.String("request_id", req.RequestID))

	if s.cache != nil {
		ok, err := s.cache.SetIdempotency(ctx, idempotencyKeyPrefix+req.RequestID)
		if err != nil {
			return nil, s.reject(ctx, req, fmt.Errorf("idempotency check failed: %w", err))
		}
		if !ok {
			return nil, s.reject(ctx, req, domain.ErrDuplicateRequest)
		}
	}

	cart, err := s.carts.GetCart(ctx, req.CartID)
	if err != nil {
		return nil, s.reject(ctx, req, err)
	}
	if cart.IsEmpty() {
		return nil, s.reject(ctx, req, domain.ErrEmptyCart)
	}

	items, weight, err := s.snapshot(ctx, cart)
	if err != nil {
		return nil, s.reject(ctx, req, err)
	}
	subtotal := domain.ComputeTotals(items, decimal.Zero, decimal.Zero, nil).Subtotal

	shippingCost, ok, err := s.shipping.CalculateCost(ctx, req.ShippingMethodID, domain.RateQuery{
		Country:    req.Country,
		Weight:     &weight,
		OrderTotal: &subtotal,
	})
	if err != nil {
		return nil, s.reject(ctx, req, err)
	}
	if !ok {
		return nil, s.reject(ctx, req, fmt.Errorf("%w: method %d to %s", domain.ErrShippingUnavailable, req.ShippingMethodID, req.Country))
	}

	now := s.now()
	discount, err := s.promo.cartDiscount(ctx, cart)
	if err != nil {
		return nil, s.reject(ctx, req, err)
	}
	if discount != nil {
		if discount.Exhausted() {
			metric.DiscountRedemptionsTotal.WithLabelValues("exhausted").Inc()
			return nil, s.reject(ctx, req, fmt.Errorf("%w: %s", domain.ErrDiscountExhausted, discount.Code))
		}
		if err := discount.CheckApplicable(subtotal, now); err != nil {
			return nil, s.reject(ctx, req, err)
		}
	}

	order := domain.Order{
		ID:               uuid.NewString(),
		RequestID:        req.RequestID,
		CartID:           cart.ID,
		UserID:           cart.Owner.UserID,
		SessionKey:       cart.Owner.SessionKey,
		Email:            req.Email,
		Status:           domain.OrderStatusPending,
		Currency:         cart.Currency,
		ExchangeRate:     req.ExchangeRate,
		Items:            items,
		ShippingMethodID: req.ShippingMethodID,
		ShippingCountry:  req.Country,
		Totals:           domain.ComputeTotals(items, shippingCost, s.taxRate, discount),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if discount != nil {
		order.DiscountID = discount.ID
		order.DiscountCode = discount.Code
	}

	// Claim the cart by saving it cleared under the version it was read at.
	// A second checkout of the same cart, or any edit since the read, makes
	// the claim fail.
	taken := append([]domain.CartItem(nil), cart.Items...)
	heldCode := cart.DiscountCode
	cart.Clear(now)
	cart.RemoveDiscount(now)
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, s.reject(ctx, req, fmt.Errorf("%w: cart %s changed during checkout", domain.ErrConflict, cart.ID))
		}
		return nil, s.reject(ctx, req, fmt.Errorf("claim cart: %w", err))
	}

	gated, err := s.takeDiscountGate(ctx, discount)
	if err != nil {
		s.restoreCart(ctx, cart.ID, taken, heldCode)
		return nil, s.reject(ctx, req, err)
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		if gated {
			s.releaseDiscountGate(ctx, discount)
		}
		s.restoreCart(ctx, cart.ID, taken, heldCode)
		return nil, s.reject(ctx, req, fmt.Errorf("save order: %w", err))
	}
	if discount != nil {
		metric.DiscountRedemptionsTotal.WithLabelValues("redeemed").Inc()
	}

	if err := s.advance(ctx, &order, domain.OrderStatusProcessing); err != nil {
		// The order stays pending; the sweeper abandons it and gives the
		// discount use back.
		s.restoreCart(ctx, cart.ID, taken, heldCode)
		return nil, s.reject(ctx, req, err)
	}

	receipt, payErr := s.payments.Charge(ctx, port.PaymentRequest{
		OrderID:  order.ID,
		Email:    order.Email,
		Amount:   order.Totals.Total,
		Currency: order.Currency,
	})
	if payErr != nil {
		span.RecordError(payErr)
		// An order cancelled while the charge was out has already given its
		// discount use back.
		if err := s.advance(ctx, &order, domain.OrderStatusFailed); err != nil {
			s.logger.ErrorContext(ctx, "mark order failed", slog.String("order_id", order.ID), sl.Err(err))
		} else if discount != nil {
			s.releaseDiscountUse(ctx, &order, gated)
		}
		s.restoreCart(ctx, cart.ID, taken, heldCode)
		metric.CheckoutsTotal.WithLabelValues("payment_failed").Inc()
		s.logger.WarnContext(ctx, "payment failed", slog.String("order_id", order.ID), sl.Err(payErr), sl.Traced(ctx))
		return &order, fmt.Errorf("%w: %v", domain.ErrPaymentFailed, payErr)
	}

	order.PaymentReference = receipt.Reference
	if err := s.advance(ctx, &order, domain.OrderStatusCompleted); err != nil {
		return nil, s.reject(ctx, req, err)
	}

	metric.CheckoutsTotal.WithLabelValues("completed").Inc()
	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("order_id", order.ID),
		slog.String("total", order.Totals.Total.StringFixed(2)),
		slog.String("currency", order.Currency),
		sl.Traced(ctx))
	return &order, nil
}

// takeDiscountGate reserves one use in the cache for limited codes. The
// authoritative guarded increment still happens in CreateOrder.
func (s *OrderService) takeDiscountGate(ctx context.Context, d *domain.DiscountCode) (bool, error) {
	if d == nil || d.MaxUses == nil || s.cache == nil {
		return false, nil
	}
	ok, err := s.cache.RedeemDiscount(ctx, d.Code, d.UsesCount, *d.MaxUses)
	if err != nil {
		return false, fmt.Errorf("discount redemption failed: %w", err)
	}
	if !ok {
		metric.DiscountRedemptionsTotal.WithLabelValues("exhausted").Inc()
		return false, fmt.Errorf("%w: %s", domain.ErrDiscountExhausted, d.Code)
	}
	return true, nil
}

// restoreCart puts the claimed lines back after a checkout that did not
// complete. It reloads the cart so edits made in the meantime survive.
func (s *OrderService) restoreCart(ctx context.Context, cartID string, items []domain.CartItem, code string) {
	for attempt := 0; attempt < cartRestoreAttempts; attempt++ {
		cart, err := s.carts.GetCart(ctx, cartID)
		if err != nil {
			s.logger.ErrorContext(ctx, "CRITICAL cart restore failed", slog.String("cart_id", cartID), sl.Err(err))
			return
		}
		cart.Restore(items, code, s.now())
		err = s.carts.SaveCart(ctx, cart)
		if err == nil {
			return
		}
		if !errors.Is(err, domain.ErrConflict) {
			s.logger.ErrorContext(ctx, "CRITICAL cart restore failed", slog.String("cart_id", cartID), sl.Err(err))
			return
		}
	}
	s.logger.ErrorContext(ctx, "CRITICAL cart restore failed", slog.String("cart_id", cartID),
		slog.Int("attempts", cartRestoreAttempts))
}

// releaseDiscountUse gives back the use an order took. gated reports whether
// the cache gate was taken for it too.
func (s *OrderService) releaseDiscountUse(ctx context.Context, order *domain.Order, gated bool) {
	if err := s.discounts.ReleaseDiscountUse(ctx, order.DiscountID); err != nil {
		s.logger.ErrorContext(ctx, "CRITICAL discount release failed", slog.String("order_id", order.ID), sl.Err(err))
	}
	if gated {
		s.releaseDiscountGate(ctx, &domain.DiscountCode{Code: order.DiscountCode})
	}
}

func (s *OrderService) releaseDiscountGate(ctx context.Context, d *domain.DiscountCode) {
	if err := s.cache.ReleaseDiscount(ctx, d.Code); err != nil {
		s.logger.ErrorContext(ctx, "CRITICAL discount gate rollback failed", slog.String("code", d.Code), sl.Err(err))
		return
	}
	metric.DiscountRedemptionsTotal.WithLabelValues("released").Inc()
}

func (s *OrderService) advance(ctx context.Context, order *domain.Order, to domain.OrderStatus) error {
	from := order.Status
	if err := order.Transition(domain.ActorSystem, to, s.now()); err != nil {
		return err
	}
	if err := s.orders.UpdateOrderStatus(ctx, *order, from); err != nil {
		return fmt.Errorf("update order %s to %s: %w", order.ID, to, err)
	}
	return nil
}

// GetOrder restricts lookups to the owner when userID is set.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if userID != "" && order.UserID != userID {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user is required", domain.ErrInvalidInput)
	}
	return s.orders.ListOrdersByUser(ctx, userID)
}

// CancelOrder is the customer cancellation. Unlike cart removals it fails
// loudly: unknown orders yield domain.ErrNotFound and orders past processing
// yield domain.ErrOrderNotCancellable.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if err := order.Cancel(s.now()); err != nil {
		s.logger.WarnContext(ctx, "cancel rejected", slog.String("order_id", orderID), slog.String("status", string(from)))
		return nil, err
	}
	if err := s.orders.UpdateOrderStatus(ctx, *order, from); err != nil {
		return nil, fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	if order.DiscountID != 0 {
		s.releaseDiscountUse(ctx, order, s.cache != nil)
	}
	s.logger.InfoContext(ctx, "order cancelled", slog.String("order_id", orderID))
	return order, nil
}

// AdminTransition moves an order through fulfillment (shipped, delivered) or
// cancels it after completion. trackingNumber is stored when non-empty.
func (s *OrderService) AdminTransition(ctx context.Context, orderID string, to domain.OrderStatus, trackingNumber string) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if err := order.Transition(domain.ActorAdmin, to, s.now()); err != nil {
		return nil, err
	}
	if trackingNumber != "" {
		order.TrackingNumber = trackingNumber
	}
	if err := s.orders.UpdateOrderStatus(ctx, *order, from); err != nil {
		return nil, fmt.Errorf("update order %s: %w", orderID, err)
	}
	s.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", orderID), slog.String("from", string(from)), slog.String("to", string(to)))
	return order, nil
}

// AbandonStale moves pending orders older than olderThan to abandoned and
// gives back their discount uses. Orders moved concurrently are skipped.
func (s *OrderService) AbandonStale(ctx context.Context, olderThan time.Duration, batch int) (int, error) {
	stale, err := s.orders.ListStaleOrders(ctx, domain.OrderStatusPending, s.now().Add(-olderThan), batch)
	if err != nil {
		return 0, fmt.Errorf("list stale orders: %w", err)
	}

	abandoned := 0
	for i := range stale {
		order := &stale[i]
		if err := s.advance(ctx, order, domain.OrderStatusAbandoned); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return abandoned, err
		}
		if order.DiscountID != 0 {
			s.releaseDiscountUse(ctx, order, s.cache != nil)
		}
		abandoned++
		s.logger.InfoContext(ctx, "order abandoned", slog.String("order_id", order.ID))
	}
	return abandoned, nil
}

func errorsIsAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
