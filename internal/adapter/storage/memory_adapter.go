package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

// MemoryAdapter keeps every repository in process memory. It backs the
// "memory" storage mode and service tests.
type MemoryAdapter struct {
	mu sync.Mutex

	zones   []domain.ShippingZone
	methods []domain.ShippingMethod
	rates   []domain.ShippingRate
	nextID  int64

	carts     map[string]*domain.Cart
	discounts map[string]*domain.DiscountCode
	orders    map[string]*domain.Order
	addresses map[string][]domain.Address
	products  map[string]domain.Product
	variants  map[string]domain.Variant

	discountUses map[string]int
	idempotency  map[string]bool
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		carts:        make(map[string]*domain.Cart),
		discounts:    make(map[string]*domain.DiscountCode),
		orders:       make(map[string]*domain.Order),
		addresses:    make(map[string][]domain.Address),
		products:     make(map[string]domain.Product),
		variants:     make(map[string]domain.Variant),
		discountUses: make(map[string]int),
		idempotency:  make(map[string]bool),
	}
}

func (m *MemoryAdapter) id() int64 {
	m.nextID++
	return m.nextID
}

func cloneCart(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Items = slices.Clone(c.Items)
	return &cp
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = slices.Clone(o.Items)
	return &cp
}

// Rate table

func (m *MemoryAdapter) LoadRateTable(ctx context.Context) (*domain.RateTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	zones := make([]domain.ShippingZone, len(m.zones))
	for i, z := range m.zones {
		z.Countries = slices.Clone(z.Countries)
		zones[i] = z
	}
	return &domain.RateTable{
		Zones:   zones,
		Methods: slices.Clone(m.methods),
		Rates:   slices.Clone(m.rates),
	}, nil
}

func (m *MemoryAdapter) CreateZone(ctx context.Context, zone *domain.ShippingZone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	zone.ID = m.id()
	z := *zone
	z.Countries = slices.Clone(zone.Countries)
	m.zones = append(m.zones, z)
	return nil
}

func (m *MemoryAdapter) CreateMethod(ctx context.Context, method *domain.ShippingMethod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	method.ID = m.id()
	m.methods = append(m.methods, *method)
	return nil
}

func (m *MemoryAdapter) CreateRate(ctx context.Context, rate *domain.ShippingRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rates {
		if r.MethodID == rate.MethodID && r.ZoneID == rate.ZoneID {
			return domain.ErrDuplicateRate
		}
	}
	rate.ID = m.id()
	m.rates = append(m.rates, *rate)
	return nil
}

// Catalog

func (m *MemoryAdapter) PutProduct(ctx context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
	return nil
}

func (m *MemoryAdapter) PutVariant(ctx context.Context, v domain.Variant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variants[v.ID] = v
	return nil
}

func (m *MemoryAdapter) GetCatalogEntry(ctx context.Context, productID, variantID string) (domain.CatalogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[productID]
	if !ok {
		return domain.CatalogEntry{}, fmt.Errorf("%w: product %s", domain.ErrNotFound, productID)
	}
	entry := domain.CatalogEntry{Product: p}
	if variantID != "" {
		v, ok := m.variants[variantID]
		if !ok || v.ProductID != productID {
			return domain.CatalogEntry{}, fmt.Errorf("%w: variant %s", domain.ErrNotFound, variantID)
		}
		entry.Variant = &v
	}
	return entry, nil
}

// Carts

func (m *MemoryAdapter) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[cartID]
	if !ok {
		return nil, fmt.Errorf("%w: cart %s", domain.ErrNotFound, cartID)
	}
	return cloneCart(c), nil
}

func (m *MemoryAdapter) FindCartByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.carts {
		if c.Owner == owner {
			return cloneCart(c), nil
		}
	}
	return nil, nil
}

func (m *MemoryAdapter) CreateCart(ctx context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[cart.ID]; ok {
		return fmt.Errorf("%w: cart %s exists", domain.ErrConflict, cart.ID)
	}
	m.carts[cart.ID] = cloneCart(cart)
	return nil
}

func (m *MemoryAdapter) SaveCart(ctx context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.carts[cart.ID]
	if !ok {
		return fmt.Errorf("%w: cart %s", domain.ErrNotFound, cart.ID)
	}
	if stored.Version != cart.Version {
		return ErrOptimisticLock
	}
	cart.Version++
	m.carts[cart.ID] = cloneCart(cart)
	return nil
}

// Discounts

func (m *MemoryAdapter) GetDiscountByCode(ctx context.Context, code string) (*domain.DiscountCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.discounts[code]
	if !ok {
		return nil, fmt.Errorf("%w: discount %s", domain.ErrNotFound, code)
	}
	cp := *d
	return &cp, nil
}

func (m *MemoryAdapter) ListActiveDiscounts(ctx context.Context, now time.Time) ([]domain.DiscountCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DiscountCode
	for _, d := range m.discounts {
		if d.IsValid(now) {
			out = append(out, *d)
		}
	}
	slices.SortFunc(out, func(a, b domain.DiscountCode) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *MemoryAdapter) CreateDiscount(ctx context.Context, d *domain.DiscountCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.discounts[d.Code]; ok {
		return fmt.Errorf("%w: discount %s exists", domain.ErrConflict, d.Code)
	}
	d.ID = m.id()
	cp := *d
	m.discounts[d.Code] = &cp
	return nil
}

func (m *MemoryAdapter) discountByID(id int64) *domain.DiscountCode {
	for _, d := range m.discounts {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func (m *MemoryAdapter) ReleaseDiscountUse(ctx context.Context, discountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d := m.discountByID(discountID); d != nil && d.UsesCount > 0 {
		d.UsesCount--
	}
	return nil
}

// Orders

func (m *MemoryAdapter) CreateOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[order.ID]; ok {
		return fmt.Errorf("%w: order %s exists", domain.ErrConflict, order.ID)
	}
	for _, o := range m.orders {
		if o.RequestID == order.RequestID {
			return fmt.Errorf("%w: order for request %s exists", domain.ErrDuplicateRequest, order.RequestID)
		}
	}
	if order.DiscountID != 0 {
		d := m.discountByID(order.DiscountID)
		if d == nil {
			return fmt.Errorf("%w: discount %d", domain.ErrNotFound, order.DiscountID)
		}
		if d.Exhausted() {
			return domain.ErrDiscountExhausted
		}
		d.UsesCount++
	}
	m.orders[order.ID] = cloneOrder(&order)
	return nil
}

func (m *MemoryAdapter) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	return cloneOrder(o), nil
}

func (m *MemoryAdapter) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *cloneOrder(o))
		}
	}
	slices.SortFunc(out, func(a, b domain.Order) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (m *MemoryAdapter) ListStaleOrders(ctx context.Context, status domain.OrderStatus, before time.Time, limit int) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.Status == status && o.CreatedAt.Before(before) {
			out = append(out, *cloneOrder(o))
		}
	}
	slices.SortFunc(out, func(a, b domain.Order) int { return a.CreatedAt.Compare(b.CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryAdapter) UpdateOrderStatus(ctx context.Context, order domain.Order, from domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[order.ID]
	if !ok {
		return fmt.Errorf("%w: order %s", domain.ErrNotFound, order.ID)
	}
	if stored.Status != from {
		return fmt.Errorf("%w: order %s is %s", domain.ErrConflict, order.ID, stored.Status)
	}
	stored.Status = order.Status
	stored.PaymentReference = order.PaymentReference
	stored.TrackingNumber = order.TrackingNumber
	stored.UpdatedAt = order.UpdatedAt
	return nil
}

// Addresses

func (m *MemoryAdapter) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.addresses[userID]), nil
}

func (m *MemoryAdapter) CreateAddress(ctx context.Context, address domain.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.addresses[address.UserID]
	if address.IsDefault {
		for i := range list {
			list[i].IsDefault = false
		}
	}
	m.addresses[address.UserID] = append(list, address)
	return nil
}

func (m *MemoryAdapter) SetDefaultAddress(ctx context.Context, userID, addressID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.addresses[userID]
	if !slices.ContainsFunc(list, func(a domain.Address) bool { return a.ID == addressID }) {
		return false, nil
	}
	for i := range list {
		list[i].IsDefault = list[i].ID == addressID
	}
	return true, nil
}

func (m *MemoryAdapter) DeleteAddress(ctx context.Context, userID, addressID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addresses[userID] = slices.DeleteFunc(m.addresses[userID], func(a domain.Address) bool { return a.ID == addressID })
	return nil
}

// Cache

func (m *MemoryAdapter) RedeemDiscount(ctx context.Context, code string, usesCount, maxUses int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.discountUses[code]
	if !ok {
		current = usesCount
	}
	if current >= maxUses {
		m.discountUses[code] = current
		return false, nil
	}
	m.discountUses[code] = current + 1
	return true, nil
}

func (m *MemoryAdapter) ReleaseDiscount(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.discountUses[code] > 0 {
		m.discountUses[code]--
	}
	return nil
}

func (m *MemoryAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idempotency[key] {
		return false, nil
	}
	m.idempotency[key] = true
	return true, nil
}
