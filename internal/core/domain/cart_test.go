package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestCart(t *testing.T) *Cart {
	t.Helper()
	c, err := NewCart(CartOwner{UserID: "u1"}, "usd", t0)
	require.NoError(t, err)
	return c
}

func TestNewCart_Owner(t *testing.T) {
	c := newTestCart(t)
	assert.Equal(t, "USD", c.Currency)
	assert.NotEmpty(t, c.ID)
	assert.True(t, c.IsEmpty())

	_, err := NewCart(CartOwner{}, "USD", t0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewCart(CartOwner{UserID: "u1", SessionKey: "s1"}, "USD", t0)
	assert.ErrorIs(t, err, ErrInvalidInput, "both owners set")
}

func TestCartAddItem_MergesSameLine(t *testing.T) {
	c := newTestCart(t)

	first, err := c.AddItem("p1", "", 2, dec("10.00"), t0)
	require.NoError(t, err)
	second, err := c.AddItem("p1", "", 3, dec("12.00"), t0.Add(time.Minute))
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.Equal(t, "10.00", c.Items[0].UnitPrice.StringFixed(2), "captured price kept on merge")
}

func TestCartAddItem_VariantIsSeparateLine(t *testing.T) {
	c := newTestCart(t)

	_, err := c.AddItem("p1", "", 1, dec("10.00"), t0)
	require.NoError(t, err)
	_, err = c.AddItem("p1", "v1", 1, dec("11.00"), t0)
	require.NoError(t, err)

	assert.Len(t, c.Items, 2)
	assert.Equal(t, 2, c.TotalQuantity())
}

func TestCartAddItem_RejectsBadInput(t *testing.T) {
	c := newTestCart(t)

	for _, qty := range []int{0, -1} {
		_, err := c.AddItem("p1", "", qty, dec("1"), t0)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	_, err := c.AddItem("", "", 1, dec("1"), t0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.True(t, c.IsEmpty())
}

func TestCartUpdateQuantity(t *testing.T) {
	c := newTestCart(t)
	item, err := c.AddItem("p1", "", 2, dec("10.00"), t0)
	require.NoError(t, err)

	assert.True(t, c.UpdateQuantity(item.ID, 7, t0))
	got, ok := c.Item(item.ID)
	require.True(t, ok)
	assert.Equal(t, 7, got.Quantity)

	assert.False(t, c.UpdateQuantity("missing", 3, t0))
}

func TestCartUpdateQuantity_ZeroOrNegativeRemoves(t *testing.T) {
	for _, qty := range []int{0, -4} {
		c := newTestCart(t)
		item, err := c.AddItem("p1", "", 2, dec("10.00"), t0)
		require.NoError(t, err)

		assert.True(t, c.UpdateQuantity(item.ID, qty, t0))
		assert.True(t, c.IsEmpty())
	}
}

func TestCartRemoveItem_Idempotent(t *testing.T) {
	c := newTestCart(t)
	a, _ := c.AddItem("p1", "", 1, dec("1"), t0)
	b, _ := c.AddItem("p2", "", 1, dec("2"), t0)

	assert.True(t, c.RemoveItem(a.ID, t0))
	assert.False(t, c.RemoveItem(a.ID, t0))
	require.Len(t, c.Items, 1)
	assert.Equal(t, b.ID, c.Items[0].ID)
}

func TestCartClearKeepsCart(t *testing.T) {
	c := newTestCart(t)
	_, _ = c.AddItem("p1", "", 1, dec("1"), t0)
	c.ApplyDiscount("SAVE10", t0)

	later := t0.Add(time.Hour)
	c.Clear(later)

	assert.True(t, c.IsEmpty())
	assert.Equal(t, later, c.UpdatedAt)
	assert.Equal(t, "SAVE10", c.DiscountCode)
}

func TestCartRestore(t *testing.T) {
	c := newTestCart(t)
	mug, _ := c.AddItem("mug", "", 2, dec("10"), t0)
	poster, _ := c.AddItem("poster", "", 1, dec("25.50"), t0)
	c.ApplyDiscount("SAVE10", t0)
	taken := append([]CartItem(nil), c.Items...)
	c.Clear(t0)
	c.RemoveDiscount(t0)

	// A mug added while the lines were out merges with the restored line.
	_, _ = c.AddItem("mug", "", 1, dec("10"), t0)
	c.Restore(taken, "SAVE10", t0.Add(time.Minute))

	require.Len(t, c.Items, 2)
	assert.Equal(t, "mug", c.Items[0].ProductID)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, poster.ID, c.Items[1].ID)
	assert.NotEqual(t, mug.ID, c.Items[0].ID)
	assert.Equal(t, "SAVE10", c.DiscountCode)

	c.ApplyDiscount("OTHER", t0)
	c.Restore(nil, "SAVE10", t0)
	assert.Equal(t, "OTHER", c.DiscountCode, "a code applied since is kept")
}

func TestCartDiscountReplace(t *testing.T) {
	c := newTestCart(t)
	c.ApplyDiscount("FIRST", t0)
	c.ApplyDiscount("SECOND", t0)
	assert.Equal(t, "SECOND", c.DiscountCode)

	c.RemoveDiscount(t0)
	assert.Empty(t, c.DiscountCode)
}

func TestCartTotal_UsesCurrentPrices(t *testing.T) {
	c := newTestCart(t)
	_, _ = c.AddItem("p1", "", 2, dec("10.00"), t0)
	_, _ = c.AddItem("p2", "", 1, dec("25.50"), t0)

	total, err := c.Total(func(it CartItem) (decimal.Decimal, error) { return it.UnitPrice, nil })
	require.NoError(t, err)
	assert.Equal(t, "45.50", total.StringFixed(2))

	repriced, err := c.Total(func(it CartItem) (decimal.Decimal, error) {
		if it.ProductID == "p1" {
			return dec("9.99"), nil
		}
		return it.UnitPrice, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "45.48", repriced.StringFixed(2))

	boom := errors.New("catalog down")
	_, err = c.Total(func(CartItem) (decimal.Decimal, error) { return decimal.Zero, boom })
	assert.ErrorIs(t, err, boom)
}

func TestCartTotal_Empty(t *testing.T) {
	total, err := newTestCart(t).Total(func(CartItem) (decimal.Decimal, error) {
		t.Fatal("priceOf called for empty cart")
		return decimal.Zero, nil
	})
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestCatalogEntryUnitPrice(t *testing.T) {
	p := Product{ID: "p1", Price: dec("20.00")}

	assert.Equal(t, "20.00", CatalogEntry{Product: p}.UnitPrice().StringFixed(2))
	assert.Equal(t, "20.00", CatalogEntry{Product: p, Variant: &Variant{ID: "v1", Name: "Red"}}.UnitPrice().StringFixed(2))

	entry := CatalogEntry{Product: p, Variant: &Variant{ID: "v2", Name: "XL", PriceOverride: decp("24.00")}}
	assert.Equal(t, "24.00", entry.UnitPrice().StringFixed(2))
	assert.Equal(t, "XL", entry.VariantName())
	assert.Empty(t, CatalogEntry{Product: p}.VariantName())
}
