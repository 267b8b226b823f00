package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type DiscountService struct {
	discounts port.DiscountRepository
	carts     port.CartRepository
	cartSvc   *CartService
	logger    *slog.Logger
	now       func() time.Time
}

func NewDiscountService(discounts port.DiscountRepository, carts port.CartRepository, cartSvc *CartService, logger *slog.Logger) *DiscountService {
	return &DiscountService{
		discounts: discounts,
		carts:     carts,
		cartSvc:   cartSvc,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *DiscountService) Create(ctx context.Context, d domain.DiscountCode) (domain.DiscountCode, error) {
	d.Code = domain.NormalizeCode(d.Code)
	if err := d.Validate(); err != nil {
		return domain.DiscountCode{}, err
	}
	now := s.now()
	if d.ValidFrom.IsZero() {
		d.ValidFrom = now
	}
	d.CreatedAt, d.UpdatedAt = now, now
	if err := s.discounts.CreateDiscount(ctx, &d); err != nil {
		return domain.DiscountCode{}, fmt.Errorf("create discount: %w", err)
	}
	return d, nil
}

// Lookup returns a currently valid code, domain.ErrNotFound or
// domain.ErrDiscountNotValid.
func (s *DiscountService) Lookup(ctx context.Context, code string) (*domain.DiscountCode, error) {
	code = domain.NormalizeCode(code)
	if code == "" {
		return nil, fmt.Errorf("%w: discount code is required", domain.ErrInvalidInput)
	}
	d, err := s.discounts.GetDiscountByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !d.IsValid(s.now()) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDiscountNotValid, d.Code)
	}
	return d, nil
}

func (s *DiscountService) ListActive(ctx context.Context) ([]domain.DiscountCode, error) {
	return s.discounts.ListActiveDiscounts(ctx, s.now())
}

// ApplyToCart validates the code against the cart subtotal and replaces any
// code the cart already holds. Discounts never stack.
func (s *DiscountService) ApplyToCart(ctx context.Context, cartID, code string) (*domain.DiscountCode, error) {
	d, err := s.Lookup(ctx, code)
	if err != nil {
		s.logger.WarnContext(ctx, "discount rejected", slog.String("cart_id", cartID), slog.String("code", code), slog.String("reason", err.Error()))
		return nil, err
	}
	subtotal, err := s.cartSvc.GetTotal(ctx, cartID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := d.CheckApplicable(subtotal, now); err != nil {
		s.logger.WarnContext(ctx, "discount rejected", slog.String("cart_id", cartID), slog.String("code", d.Code), slog.String("reason", err.Error()))
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if previous := cart.DiscountCode; previous != "" && previous != d.Code {
		s.logger.InfoContext(ctx, "discount replaced", slog.String("cart_id", cartID), slog.String("previous", previous), slog.String("code", d.Code))
	}
	cart.ApplyDiscount(d.Code, now)
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return d, nil
}

func (s *DiscountService) RemoveFromCart(ctx context.Context, cartID string) error {
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return err
	}
	if cart.DiscountCode == "" {
		return nil
	}
	cart.RemoveDiscount(s.now())
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// cartDiscount resolves the code held by a cart for checkout. A code deleted
// since it was applied is reported as not valid.
func (s *DiscountService) cartDiscount(ctx context.Context, cart *domain.Cart) (*domain.DiscountCode, error) {
	if cart.DiscountCode == "" {
		return nil, nil
	}
	d, err := s.discounts.GetDiscountByCode(ctx, cart.DiscountCode)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDiscountNotValid, cart.DiscountCode)
	}
	return d, err
}
