package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
)

func testAddress(userID, line1 string) domain.Address {
	return domain.Address{
		UserID: userID, FirstName: "Ada", LastName: "Lovelace",
		Line1: line1, City: "Springfield", PostalCode: "12345", Country: "us",
	}
}

func defaultOf(list []domain.Address) string {
	for _, a := range list {
		if a.IsDefault {
			return a.ID
		}
	}
	return ""
}

func TestAddressAdd_FirstBecomesDefault(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	first, err := env.addresses.Add(ctx, testAddress("user-1", "1 Main St"))
	require.NoError(t, err)
	assert.True(t, first.IsDefault)
	assert.Equal(t, "US", first.Country)

	second, err := env.addresses.Add(ctx, testAddress("user-1", "2 Side St"))
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	list, err := env.addresses.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, first.ID, defaultOf(list))

	_, err = env.addresses.Add(ctx, domain.Address{UserID: "user-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAddressSetDefault(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	first, err := env.addresses.Add(ctx, testAddress("user-1", "1 Main St"))
	require.NoError(t, err)
	second, err := env.addresses.Add(ctx, testAddress("user-1", "2 Side St"))
	require.NoError(t, err)
	other, err := env.addresses.Add(ctx, testAddress("user-2", "9 Elsewhere"))
	require.NoError(t, err)

	require.NoError(t, env.addresses.SetDefault(ctx, "user-1", second.ID))
	list, err := env.addresses.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, defaultOf(list))

	require.NoError(t, env.addresses.SetDefault(ctx, "user-1", other.ID), "foreign address is a no-op")
	list, err = env.addresses.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, defaultOf(list))

	require.NoError(t, env.addresses.Delete(ctx, "user-1", first.ID))
	list, err = env.addresses.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
