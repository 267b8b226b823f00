package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartOwner holds either an authenticated user id or an anonymous session
// key, never both.
type CartOwner struct {
	UserID     string
	SessionKey string
}

func (o CartOwner) Validate() error {
	hasUser := strings.TrimSpace(o.UserID) != ""
	hasSession := strings.TrimSpace(o.SessionKey) != ""
	if hasUser == hasSession {
		return fmt.Errorf("%w: cart owner must be exactly one of user or session", ErrInvalidInput)
	}
	return nil
}

func (o CartOwner) String() string {
	if o.UserID != "" {
		return "user:" + o.UserID
	}
	return "session:" + o.SessionKey
}

type CartItem struct {
	ID        string
	ProductID string
	VariantID string // empty when no variant
	Quantity  int
	UnitPrice decimal.Decimal // captured when the line was created
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Cart struct {
	ID           string
	Owner        CartOwner
	Currency     string
	Items        []CartItem
	DiscountCode string // at most one; empty when none
	Version      int    // optimistic locking
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewCart(owner CartOwner, currency string, now time.Time) (*Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	return &Cart{
		ID:        uuid.NewString(),
		Owner:     owner,
		Currency:  strings.ToUpper(currency),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (c *Cart) indexOf(itemID string) int {
	for i, it := range c.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

func (c *Cart) Item(itemID string) (CartItem, bool) {
	if i := c.indexOf(itemID); i >= 0 {
		return c.Items[i], true
	}
	return CartItem{}, false
}

// AddItem merges into an existing (product, variant) line by incrementing its
// quantity; otherwise it appends a line capturing unitPrice.
func (c *Cart) AddItem(productID, variantID string, quantity int, unitPrice decimal.Decimal, now time.Time) (CartItem, error) {
	if quantity <= 0 {
		return CartItem{}, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidInput, quantity)
	}
	if productID == "" {
		return CartItem{}, fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	for i := range c.Items {
		it := &c.Items[i]
		if it.ProductID == productID && it.VariantID == variantID {
			it.Quantity += quantity
			it.UpdatedAt = now
			c.UpdatedAt = now
			return *it, nil
		}
	}
	item := CartItem{
		ID:        uuid.NewString(),
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
		UnitPrice: RoundMoney(unitPrice),
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.Items = append(c.Items, item)
	c.UpdatedAt = now
	return item, nil
}

// RemoveItem is a no-op for unknown ids.
func (c *Cart) RemoveItem(itemID string, now time.Time) bool {
	i := c.indexOf(itemID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.UpdatedAt = now
	return true
}

// UpdateQuantity sets the line quantity; zero or less removes the line.
func (c *Cart) UpdateQuantity(itemID string, quantity int, now time.Time) bool {
	if quantity <= 0 {
		return c.RemoveItem(itemID, now)
	}
	i := c.indexOf(itemID)
	if i < 0 {
		return false
	}
	c.Items[i].Quantity = quantity
	c.Items[i].UpdatedAt = now
	c.UpdatedAt = now
	return true
}

// Restore puts back lines taken by a checkout that did not complete. A line
// for a (product, variant) added since is merged by quantity. code is
// restored only when the cart holds no code now.
func (c *Cart) Restore(items []CartItem, code string, now time.Time) {
	for _, restored := range items {
		merged := false
		for i := range c.Items {
			it := &c.Items[i]
			if it.ProductID == restored.ProductID && it.VariantID == restored.VariantID {
				it.Quantity += restored.Quantity
				it.UpdatedAt = now
				merged = true
				break
			}
		}
		if !merged {
			c.Items = append(c.Items, restored)
		}
	}
	if c.DiscountCode == "" {
		c.DiscountCode = code
	}
	c.UpdatedAt = now
}

// Clear drops every line but keeps the cart.
func (c *Cart) Clear(now time.Time) {
	c.Items = nil
	c.UpdatedAt = now
}

// ApplyDiscount replaces any previously applied code.
func (c *Cart) ApplyDiscount(code string, now time.Time) {
	c.DiscountCode = code
	c.UpdatedAt = now
}

func (c *Cart) RemoveDiscount(now time.Time) {
	c.DiscountCode = ""
	c.UpdatedAt = now
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) TotalQuantity() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Total sums priceOf(line) * quantity. priceOf supplies the current effective
// unit price so totals follow live catalog prices until checkout.
func (c *Cart) Total(priceOf func(CartItem) (decimal.Decimal, error)) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, it := range c.Items {
		price, err := priceOf(it)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(LineTotal(price, it.Quantity))
	}
	return RoundMoney(total), nil
}

func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
