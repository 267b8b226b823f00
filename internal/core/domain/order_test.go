package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []OrderItem {
	return []OrderItem{
		{ProductID: "p1", ProductName: "Mug", Quantity: 2, UnitPrice: dec("10.00")},
		{ProductID: "p2", ProductName: "Poster", Quantity: 1, UnitPrice: dec("25.50")},
	}
}

func TestComputeTotals_TaxOnPreDiscountSubtotal(t *testing.T) {
	d := &DiscountCode{Type: DiscountPercentage, Amount: dec("10")}

	totals := ComputeTotals(sampleItems(), dec("5.00"), dec("0.10"), d)

	assert.Equal(t, "45.50", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "4.55", totals.Discount.StringFixed(2))
	assert.Equal(t, "4.55", totals.Tax.StringFixed(2))
	assert.Equal(t, "5.00", totals.Shipping.StringFixed(2))
	assert.Equal(t, "50.50", totals.Total.StringFixed(2))
}

func TestComputeTotals_NoDiscount(t *testing.T) {
	totals := ComputeTotals(sampleItems(), dec("5.00"), dec("0"), nil)

	assert.True(t, totals.Discount.IsZero())
	assert.True(t, totals.Tax.IsZero())
	assert.Equal(t, "50.50", totals.Total.StringFixed(2))
}

func TestComputeTotals_FreeShipping(t *testing.T) {
	totals := ComputeTotals(sampleItems(), dec("5.00"), dec("0"), &DiscountCode{Type: DiscountFreeShipping})

	assert.Equal(t, "5.00", totals.Discount.StringFixed(2))
	assert.Equal(t, "45.50", totals.Total.StringFixed(2))
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		actor    Actor
		from, to OrderStatus
		want     bool
	}{
		{ActorSystem, OrderStatusPending, OrderStatusProcessing, true},
		{ActorSystem, OrderStatusProcessing, OrderStatusCompleted, true},
		{ActorSystem, OrderStatusProcessing, OrderStatusFailed, true},
		{ActorSystem, OrderStatusPending, OrderStatusAbandoned, true},
		{ActorSystem, OrderStatusCompleted, OrderStatusShipped, false},
		{ActorCustomer, OrderStatusPending, OrderStatusCancelled, true},
		{ActorCustomer, OrderStatusProcessing, OrderStatusCancelled, true},
		{ActorCustomer, OrderStatusCompleted, OrderStatusCancelled, false},
		{ActorCustomer, OrderStatusPending, OrderStatusProcessing, false},
		{ActorAdmin, OrderStatusCompleted, OrderStatusShipped, true},
		{ActorAdmin, OrderStatusShipped, OrderStatusDelivered, true},
		{ActorAdmin, OrderStatusCompleted, OrderStatusCancelled, true},
		{ActorAdmin, OrderStatusPending, OrderStatusProcessing, true},
		{ActorAdmin, OrderStatusDelivered, OrderStatusPending, false},
		{ActorAdmin, OrderStatusFailed, OrderStatusCompleted, false},
		{"robot", OrderStatusPending, OrderStatusProcessing, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, CanTransition(tc.actor, tc.from, tc.to), "%s %s->%s", tc.actor, tc.from, tc.to)
	}
}

func TestOrderTransition(t *testing.T) {
	o := &Order{ID: "o1", Status: OrderStatusPending}
	later := t0.Add(time.Minute)

	require.NoError(t, o.Transition(ActorSystem, OrderStatusProcessing, later))
	assert.Equal(t, OrderStatusProcessing, o.Status)
	assert.Equal(t, later, o.UpdatedAt)

	err := o.Transition(ActorSystem, OrderStatusDelivered, later)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, OrderStatusProcessing, o.Status)
}

func TestOrderCancel(t *testing.T) {
	for _, st := range []OrderStatus{OrderStatusPending, OrderStatusProcessing} {
		o := &Order{ID: "o1", Status: st}
		assert.True(t, o.CanCancel())
		require.NoError(t, o.Cancel(t0))
		assert.Equal(t, OrderStatusCancelled, o.Status)
	}

	for _, st := range []OrderStatus{OrderStatusCompleted, OrderStatusShipped, OrderStatusCancelled, OrderStatusFailed} {
		o := &Order{ID: "o1", Status: st}
		assert.False(t, o.CanCancel())
		assert.ErrorIs(t, o.Cancel(t0), ErrOrderNotCancellable)
		assert.Equal(t, st, o.Status)
	}
}

func TestAddressNormalize(t *testing.T) {
	a := Address{UserID: "u1", FirstName: "Ada", LastName: "Lovelace", Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "us"}
	require.NoError(t, a.Normalize())
	assert.Equal(t, "US", a.Country)

	missingCity := a
	missingCity.City = " "
	assert.ErrorIs(t, missingCity.Normalize(), ErrInvalidInput)

	noOwner := a
	noOwner.UserID = ""
	assert.ErrorIs(t, noOwner.Normalize(), ErrInvalidInput)

	badCountry := a
	badCountry.Country = "USA"
	assert.ErrorIs(t, badCountry.Normalize(), ErrInvalidInput)
}

func TestIsDomainRule(t *testing.T) {
	assert.True(t, IsDomainRule(ErrDiscountExhausted))
	assert.True(t, IsDomainRule(ErrEmptyCart))
	assert.False(t, IsDomainRule(ErrInvalidInput))
	assert.False(t, IsDomainRule(ErrNotFound))
}
