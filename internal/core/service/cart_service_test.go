package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
)

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	_, err := env.carts.GetOrCreate(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	first, err := env.carts.GetOrCreate(ctx, "user-1", "")
	require.NoError(t, err)
	again, err := env.carts.GetOrCreate(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "USD", first.Currency)

	anon, err := env.carts.GetOrCreate(ctx, "", "sess-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, anon.ID)
	assert.Equal(t, domain.CartOwner{SessionKey: "sess-1"}, anon.Owner)
}

func TestGetOrCreate_UserAdoptsSessionCart(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	anon, err := env.carts.GetOrCreate(ctx, "", "sess-1")
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, anon.ID, "mug", "", 1)
	require.NoError(t, err)

	adopted, err := env.carts.GetOrCreate(ctx, "user-1", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, anon.ID, adopted.ID)
	assert.Equal(t, domain.CartOwner{UserID: "user-1"}, adopted.Owner)
	assert.Len(t, adopted.Items, 1)

	found, err := env.store.FindCartByOwner(ctx, domain.CartOwner{SessionKey: "sess-1"})
	require.NoError(t, err)
	assert.Nil(t, found, "session no longer owns a cart")
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	cart, err := env.carts.GetOrCreate(ctx, "user-1", "")
	require.NoError(t, err)

	item, err := env.carts.AddItem(ctx, cart.ID, "mug", "", 2)
	require.NoError(t, err)
	assert.Equal(t, "10.00", item.UnitPrice.StringFixed(2))

	merged, err := env.carts.AddItem(ctx, cart.ID, "mug", "", 3)
	require.NoError(t, err)
	assert.Equal(t, item.ID, merged.ID)
	assert.Equal(t, 5, merged.Quantity)

	_, err = env.carts.AddItem(ctx, cart.ID, "mug", "", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = env.carts.AddItem(ctx, cart.ID, "ghost", "", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.carts.AddItem(ctx, cart.ID, "retired", "", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.carts.AddItem(ctx, "no-such-cart", "mug", "", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stored, err := env.carts.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 5, stored.Items[0].Quantity)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	cart := env.filledCart(t, "user-1")
	stored, err := env.carts.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	mugID := stored.Items[0].ID
	posterID := stored.Items[1].ID

	require.NoError(t, env.carts.UpdateQuantity(ctx, cart.ID, mugID, 4))
	require.NoError(t, env.carts.UpdateQuantity(ctx, cart.ID, posterID, 0))
	require.NoError(t, env.carts.UpdateQuantity(ctx, cart.ID, "missing", 3))

	stored, err = env.carts.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 4, stored.Items[0].Quantity)

	require.NoError(t, env.carts.RemoveItem(ctx, cart.ID, mugID))
	require.NoError(t, env.carts.RemoveItem(ctx, cart.ID, mugID), "second remove is silent")

	stored, err = env.carts.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsEmpty())
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	cart := env.filledCart(t, "user-1")

	require.NoError(t, env.carts.Clear(ctx, cart.ID))
	require.NoError(t, env.carts.Clear(ctx, cart.ID))

	stored, err := env.carts.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsEmpty())
}

func TestGetTotal_FollowsCatalogPrices(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	cart := env.filledCart(t, "user-1")

	total, err := env.carts.GetTotal(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, "45.50", total.StringFixed(2))

	require.NoError(t, env.store.PutProduct(ctx, domain.Product{ID: "mug", Name: "Mug", Price: dec("12.00"), Active: true}))

	total, err = env.carts.GetTotal(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, "49.50", total.StringFixed(2))
}

func TestSummary_VariantOverride(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	require.NoError(t, env.store.PutVariant(ctx, domain.Variant{ID: "mug-xl", ProductID: "mug", Name: "XL", PriceOverride: decPtr("14.00")}))
	require.NoError(t, env.store.PutVariant(ctx, domain.Variant{ID: "mug-red", ProductID: "mug", Name: "Red"}))

	cart, err := env.carts.GetOrCreate(ctx, "user-1", "")
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, cart.ID, "mug", "mug-xl", 1)
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, cart.ID, "mug", "mug-red", 2)
	require.NoError(t, err)

	summary, err := env.carts.Summary(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, summary.Lines, 2)
	assert.Equal(t, "XL", summary.Lines[0].VariantName)
	assert.Equal(t, "14.00", summary.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "Red", summary.Lines[1].VariantName)
	assert.Equal(t, "20.00", summary.Lines[1].LineTotal.StringFixed(2))
	assert.Equal(t, "34.00", summary.Subtotal.StringFixed(2))
	assert.Equal(t, 3, summary.ItemCount)
}
