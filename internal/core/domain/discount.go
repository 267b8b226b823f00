package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage   DiscountType = "percentage"
	DiscountFixed        DiscountType = "fixed"
	DiscountFreeShipping DiscountType = "shipping"
)

func (t DiscountType) Valid() bool {
	switch t {
	case DiscountPercentage, DiscountFixed, DiscountFreeShipping:
		return true
	}
	return false
}

// DiscountCode is a marketing promotion. For percentage codes Amount is
// expected in [0, 100]; that range is the caller's responsibility.
type DiscountCode struct {
	ID          int64
	Code        string
	Description string
	Type        DiscountType
	Amount      decimal.Decimal
	MinPurchase *decimal.Decimal
	MaxUses     *int
	UsesCount   int
	ValidFrom   time.Time
	ValidUntil  *time.Time
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (d DiscountCode) Validate() error {
	if NormalizeCode(d.Code) == "" {
		return fmt.Errorf("%w: discount code is required", ErrInvalidInput)
	}
	if !d.Type.Valid() {
		return fmt.Errorf("%w: unknown discount type %q", ErrInvalidInput, d.Type)
	}
	if d.Amount.IsNegative() {
		return fmt.Errorf("%w: discount amount must not be negative", ErrInvalidInput)
	}
	if err := nonNegative("min purchase", d.MinPurchase); err != nil {
		return err
	}
	if d.MaxUses != nil && *d.MaxUses < 0 {
		return fmt.Errorf("%w: max uses must not be negative", ErrInvalidInput)
	}
	if d.ValidUntil != nil && d.ValidUntil.Before(d.ValidFrom) {
		return fmt.Errorf("%w: valid until precedes valid from", ErrInvalidInput)
	}
	return nil
}

// Exhausted reports whether the usage ceiling has been reached.
func (d DiscountCode) Exhausted() bool {
	return d.MaxUses != nil && d.UsesCount >= *d.MaxUses
}

func (d DiscountCode) IsValid(now time.Time) bool {
	if !d.Active {
		return false
	}
	if now.Before(d.ValidFrom) {
		return false
	}
	if d.ValidUntil != nil && now.After(*d.ValidUntil) {
		return false
	}
	return !d.Exhausted()
}

// CheckApplicable is IsValid plus the minimum-purchase rule for a subtotal.
func (d DiscountCode) CheckApplicable(subtotal decimal.Decimal, now time.Time) error {
	if !d.IsValid(now) {
		return fmt.Errorf("%w: %s", ErrDiscountNotValid, d.Code)
	}
	if d.MinPurchase != nil && subtotal.LessThan(*d.MinPurchase) {
		return fmt.Errorf("%w: %s requires %s", ErrMinPurchaseNotMet, d.Code, d.MinPurchase.StringFixed(moneyPlaces))
	}
	return nil
}

// AmountFor is the reduction granted against subtotal and shipping. Goods
// discounts never exceed the subtotal.
func (d DiscountCode) AmountFor(subtotal, shipping decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch d.Type {
	case DiscountPercentage:
		amount = subtotal.Mul(d.Amount).Div(hundred)
	case DiscountFixed:
		amount = d.Amount
	case DiscountFreeShipping:
		return RoundMoney(shipping)
	}
	amount = RoundMoney(amount)
	if amount.GreaterThan(subtotal) {
		return subtotal
	}
	return amount
}
