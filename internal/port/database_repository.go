package port

import (
	"context"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

type RateRepository interface {
	// LoadRateTable reads every zone, method and rate
	LoadRateTable(ctx context.Context) (*domain.RateTable, error)

	// CreateZone persists a zone and assigns its ID
	CreateZone(ctx context.Context, zone *domain.ShippingZone) error

	// CreateMethod persists a method and assigns its ID
	CreateMethod(ctx context.Context, method *domain.ShippingMethod) error

	// CreateRate persists a rate, returns domain.ErrDuplicateRate if the (method, zone) pair exists
	CreateRate(ctx context.Context, rate *domain.ShippingRate) error
}

type CartRepository interface {
	// GetCart returns domain.ErrNotFound for unknown ids
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)

	// FindCartByOwner returns nil when the owner has no cart
	FindCartByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)

	CreateCart(ctx context.Context, cart *domain.Cart) error

	// SaveCart writes the cart and its lines with version check, returns domain.ErrConflict on a stale version
	SaveCart(ctx context.Context, cart *domain.Cart) error
}

type DiscountRepository interface {
	// GetDiscountByCode returns domain.ErrNotFound for unknown codes
	GetDiscountByCode(ctx context.Context, code string) (*domain.DiscountCode, error)

	ListActiveDiscounts(ctx context.Context, now time.Time) ([]domain.DiscountCode, error)

	CreateDiscount(ctx context.Context, discount *domain.DiscountCode) error

	// ReleaseDiscountUse decrements uses_count (for rollback on payment failure)
	ReleaseDiscountUse(ctx context.Context, discountID int64) error
}

type OrderRepository interface {
	// CreateOrder persists an order with its items and, when a discount is attached,
	// increments its use count only while below max_uses; returns domain.ErrDiscountExhausted otherwise
	CreateOrder(ctx context.Context, order domain.Order) error

	// GetOrder returns domain.ErrNotFound for unknown ids
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)

	ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)

	// ListStaleOrders returns up to limit orders in status created before the cutoff, oldest first
	ListStaleOrders(ctx context.Context, status domain.OrderStatus, before time.Time, limit int) ([]domain.Order, error)

	// UpdateOrderStatus writes status, payment reference and tracking number only if the
	// stored status still equals from; returns domain.ErrConflict otherwise
	UpdateOrderStatus(ctx context.Context, order domain.Order, from domain.OrderStatus) error
}

type AddressRepository interface {
	ListAddresses(ctx context.Context, userID string) ([]domain.Address, error)

	// CreateAddress clears the user's other defaults when address.IsDefault is set
	CreateAddress(ctx context.Context, address domain.Address) error

	// SetDefaultAddress returns false when the address does not belong to the user
	SetDefaultAddress(ctx context.Context, userID, addressID string) (bool, error)

	DeleteAddress(ctx context.Context, userID, addressID string) error
}

type CatalogRepository interface {
	// GetCatalogEntry returns domain.ErrNotFound for unknown products or variants
	GetCatalogEntry(ctx context.Context, productID, variantID string) (domain.CatalogEntry, error)
}

// CatalogWriter loads products into the catalog; used when seeding.
type CatalogWriter interface {
	PutProduct(ctx context.Context, product domain.Product) error
	PutVariant(ctx context.Context, variant domain.Variant) error
}
