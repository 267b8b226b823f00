package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusAbandoned  OrderStatus = "abandoned"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Actor identifies who requests a status change.
type Actor string

const (
	ActorSystem   Actor = "system"
	ActorCustomer Actor = "customer"
	ActorAdmin    Actor = "admin"
)

type transition struct {
	from, to OrderStatus
}

var systemTransitions = []transition{
	{OrderStatusPending, OrderStatusProcessing},
	{OrderStatusPending, OrderStatusAbandoned},
	{OrderStatusProcessing, OrderStatusCompleted},
	{OrderStatusProcessing, OrderStatusFailed},
}

var customerTransitions = []transition{
	{OrderStatusPending, OrderStatusCancelled},
	{OrderStatusProcessing, OrderStatusCancelled},
}

var adminTransitions = []transition{
	{OrderStatusCompleted, OrderStatusShipped},
	{OrderStatusCompleted, OrderStatusCancelled},
	{OrderStatusShipped, OrderStatusDelivered},
}

// CanTransition reports whether actor may move an order from one status to
// another. Admins may perform every system and customer transition too.
func CanTransition(actor Actor, from, to OrderStatus) bool {
	t := transition{from, to}
	switch actor {
	case ActorSystem:
		return slices.Contains(systemTransitions, t)
	case ActorCustomer:
		return slices.Contains(customerTransitions, t)
	case ActorAdmin:
		return slices.Contains(systemTransitions, t) ||
			slices.Contains(customerTransitions, t) ||
			slices.Contains(adminTransitions, t)
	}
	return false
}

// OrderItem is an immutable snapshot of a cart line at finalization. Product
// and variant ids may be emptied later when the catalog entry is deleted; the
// copied name and price stay.
type OrderItem struct {
	ID          string
	ProductID   string
	VariantID   string
	ProductName string
	VariantName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

func (i OrderItem) Total() decimal.Decimal {
	return LineTotal(i.UnitPrice, i.Quantity)
}

type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals prices snapshot items. Tax applies to the subtotal before the
// discount is taken off: total = subtotal - discount + tax + shipping.
func ComputeTotals(items []OrderItem, shipping, taxRate decimal.Decimal, discount *DiscountCode) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Total())
	}
	subtotal = RoundMoney(subtotal)
	shipping = RoundMoney(shipping)

	off := decimal.Zero
	if discount != nil {
		off = discount.AmountFor(subtotal, shipping)
	}
	tax := RoundMoney(subtotal.Mul(taxRate))

	return Totals{
		Subtotal: subtotal,
		Discount: off,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Sub(off).Add(tax).Add(shipping),
	}
}

type Order struct {
	ID               string
	RequestID        string
	CartID           string
	UserID           string
	SessionKey       string
	Email            string
	Status           OrderStatus
	Currency         string
	ExchangeRate     decimal.Decimal // stored as supplied, never converted here
	Items            []OrderItem
	ShippingMethodID int64
	ShippingCountry  string
	Totals           Totals
	DiscountID       int64 // zero when no discount
	DiscountCode     string
	PaymentReference string
	TrackingNumber   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (o *Order) Transition(actor Actor, to OrderStatus, now time.Time) error {
	if !CanTransition(actor, o.Status, to) {
		return fmt.Errorf("%w: %s cannot move order %s from %s to %s",
			ErrInvalidTransition, actor, o.ID, o.Status, to)
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}

// CanCancel reports whether the customer may still cancel.
func (o *Order) CanCancel() bool {
	return CanTransition(ActorCustomer, o.Status, OrderStatusCancelled)
}

func (o *Order) Cancel(now time.Time) error {
	if !o.CanCancel() {
		return fmt.Errorf("%w: order %s is %s", ErrOrderNotCancellable, o.ID, o.Status)
	}
	o.Status = OrderStatusCancelled
	o.UpdatedAt = now
	return nil
}
