package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/logger/sl"
	"github.com/rl1809/storefront/internal/metric"
	"github.com/rl1809/storefront/internal/port"
)

// CartLine is a cart item priced at current catalog prices.
type CartLine struct {
	Item        domain.CartItem
	ProductName string
	VariantName string
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

type CartSummary struct {
	Cart      *domain.Cart
	Lines     []CartLine
	Subtotal  decimal.Decimal
	ItemCount int
}

type CartService struct {
	carts    port.CartRepository
	catalog  port.CatalogRepository
	currency string
	logger   *slog.Logger
	now      func() time.Time
}

func NewCartService(carts port.CartRepository, catalog port.CatalogRepository, currency string, logger *slog.Logger) *CartService {
	return &CartService{
		carts:    carts,
		catalog:  catalog,
		currency: currency,
		logger:   logger,
		now:      time.Now,
	}
}

// GetOrCreate returns the caller's cart, creating it lazily. A user without a
// cart adopts the anonymous cart of sessionKey when one exists.
func (s *CartService) GetOrCreate(ctx context.Context, userID, sessionKey string) (*domain.Cart, error) {
	if userID == "" && sessionKey == "" {
		return nil, fmt.Errorf("%w: user or session is required", domain.ErrInvalidInput)
	}

	if userID != "" {
		cart, err := s.carts.FindCartByOwner(ctx, domain.CartOwner{UserID: userID})
		if err != nil {
			return nil, fmt.Errorf("find user cart: %w", err)
		}
		if cart != nil {
			return cart, nil
		}
		if sessionKey != "" {
			cart, err = s.carts.FindCartByOwner(ctx, domain.CartOwner{SessionKey: sessionKey})
			if err != nil {
				return nil, fmt.Errorf("find session cart: %w", err)
			}
			if cart != nil {
				cart.Owner = domain.CartOwner{UserID: userID}
				cart.UpdatedAt = s.now()
				if err := s.carts.SaveCart(ctx, cart); err != nil {
					return nil, fmt.Errorf("adopt session cart: %w", err)
				}
				s.logger.InfoContext(ctx, "session cart adopted", slog.String("cart_id", cart.ID), slog.String("user_id", userID))
				return cart, nil
			}
		}
		return s.create(ctx, domain.CartOwner{UserID: userID})
	}

	owner := domain.CartOwner{SessionKey: sessionKey}
	cart, err := s.carts.FindCartByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("find session cart: %w", err)
	}
	if cart != nil {
		return cart, nil
	}
	return s.create(ctx, owner)
}

func (s *CartService) create(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	cart, err := domain.NewCart(owner, s.currency, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.carts.CreateCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	return s.carts.GetCart(ctx, cartID)
}

func (s *CartService) save(ctx context.Context, op string, cart *domain.Cart) error {
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		metric.CartMutationsTotal.WithLabelValues(op, "error").Inc()
		s.logger.WarnContext(ctx, "save cart", slog.String("cart_id", cart.ID), slog.String("operation", op), sl.Err(err))
		return fmt.Errorf("save cart: %w", err)
	}
	metric.CartMutationsTotal.WithLabelValues(op, "success").Inc()
	return nil
}

// AddItem increments an existing (product, variant) line or adds a new line
// capturing the current price.
func (s *CartService) AddItem(ctx context.Context, cartID, productID, variantID string, quantity int) (domain.CartItem, error) {
	if quantity <= 0 {
		return domain.CartItem{}, fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrInvalidInput, quantity)
	}
	entry, err := s.catalog.GetCatalogEntry(ctx, productID, variantID)
	if err != nil {
		return domain.CartItem{}, err
	}
	if !entry.Product.Active {
		return domain.CartItem{}, fmt.Errorf("%w: product %s is not available", domain.ErrNotFound, productID)
	}
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return domain.CartItem{}, err
	}
	item, err := cart.AddItem(productID, variantID, quantity, entry.UnitPrice(), s.now())
	if err != nil {
		return domain.CartItem{}, err
	}
	if err := s.save(ctx, "add", cart); err != nil {
		return domain.CartItem{}, err
	}
	return item, nil
}

// RemoveItem is silent when the item is not in the cart.
func (s *CartService) RemoveItem(ctx context.Context, cartID, itemID string) error {
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return err
	}
	if !cart.RemoveItem(itemID, s.now()) {
		return nil
	}
	return s.save(ctx, "remove", cart)
}

// UpdateQuantity sets a line's quantity; zero or negative removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return err
	}
	if !cart.UpdateQuantity(itemID, quantity, s.now()) {
		return nil
	}
	return s.save(ctx, "update", cart)
}

func (s *CartService) Clear(ctx context.Context, cartID string) error {
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return err
	}
	if cart.IsEmpty() {
		return nil
	}
	cart.Clear(s.now())
	return s.save(ctx, "clear", cart)
}

func (s *CartService) priceOf(ctx context.Context) func(domain.CartItem) (decimal.Decimal, error) {
	return func(it domain.CartItem) (decimal.Decimal, error) {
		entry, err := s.catalog.GetCatalogEntry(ctx, it.ProductID, it.VariantID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("price item %s: %w", it.ID, err)
		}
		return entry.UnitPrice(), nil
	}
}

// GetTotal sums the lines at current catalog prices.
func (s *CartService) GetTotal(ctx context.Context, cartID string) (decimal.Decimal, error) {
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return decimal.Zero, err
	}
	return cart.Total(s.priceOf(ctx))
}

func (s *CartService) Summary(ctx context.Context, cartID string) (*CartSummary, error) {
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	summary := &CartSummary{Cart: cart, Subtotal: decimal.Zero, ItemCount: cart.TotalQuantity()}
	for _, it := range cart.Items {
		entry, err := s.catalog.GetCatalogEntry(ctx, it.ProductID, it.VariantID)
		if err != nil {
			return nil, fmt.Errorf("price item %s: %w", it.ID, err)
		}
		unit := entry.UnitPrice()
		line := domain.RoundMoney(domain.LineTotal(unit, it.Quantity))
		summary.Lines = append(summary.Lines, CartLine{
			Item:        it,
			ProductName: entry.Product.Name,
			VariantName: entry.VariantName(),
			UnitPrice:   unit,
			LineTotal:   line,
		})
		summary.Subtotal = summary.Subtotal.Add(line)
	}
	return summary, nil
}
