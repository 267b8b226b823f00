package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

const cartColumns = `id, COALESCE(user_id, ''), COALESCE(session_key, ''), currency,
	COALESCE(discount_code, ''), version, created_at, updated_at`

func (m *MySQLAdapter) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	cart, err := m.scanCart(ctx, m.db.QueryRowContext(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = ?`, cartID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: cart %s", domain.ErrNotFound, cartID)
	}
	return cart, err
}

func (m *MySQLAdapter) FindCartByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	var row *sql.Row
	if owner.UserID != "" {
		row = m.db.QueryRowContext(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_id = ?`, owner.UserID)
	} else {
		row = m.db.QueryRowContext(ctx, `SELECT `+cartColumns+` FROM carts WHERE session_key = ?`, owner.SessionKey)
	}
	cart, err := m.scanCart(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return cart, err
}

func (m *MySQLAdapter) scanCart(ctx context.Context, row *sql.Row) (*domain.Cart, error) {
	var c domain.Cart
	err := row.Scan(&c.ID, &c.Owner.UserID, &c.Owner.SessionKey, &c.Currency,
		&c.DiscountCode, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT id, product_id, variant_id, quantity, unit_price, created_at, updated_at
		FROM cart_items WHERE cart_id = ? ORDER BY created_at, id`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.CartItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.VariantID, &it.Quantity, &it.UnitPrice, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		c.Items = append(c.Items, it)
	}
	return &c, rows.Err()
}

func (m *MySQLAdapter) CreateCart(ctx context.Context, cart *domain.Cart) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO carts (id, user_id, session_key, currency, discount_code, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cart.ID, nullString(cart.Owner.UserID), nullString(cart.Owner.SessionKey), cart.Currency,
		nullString(cart.DiscountCode), cart.Version, cart.CreatedAt, cart.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return fmt.Errorf("%w: cart for %s exists", domain.ErrConflict, cart.Owner)
	}
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

// SaveCart replaces the cart's lines when the stored version still matches.
func (m *MySQLAdapter) SaveCart(ctx context.Context, cart *domain.Cart) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE carts
		SET user_id = ?, session_key = ?, discount_code = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		nullString(cart.Owner.UserID), nullString(cart.Owner.SessionKey), nullString(cart.DiscountCode),
		cart.UpdatedAt, cart.ID, cart.Version,
	)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrOptimisticLock
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cart.ID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	for _, it := range cart.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cart_items (id, cart_id, product_id, variant_id, quantity, unit_price, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, cart.ID, it.ProductID, it.VariantID, it.Quantity, it.UnitPrice, it.CreatedAt, it.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	cart.Version++
	return nil
}

func (m *MySQLAdapter) GetCatalogEntry(ctx context.Context, productID, variantID string) (domain.CatalogEntry, error) {
	var entry domain.CatalogEntry
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, price, weight, is_active FROM products WHERE id = ?`, productID,
	).Scan(&entry.Product.ID, &entry.Product.Name, &entry.Product.Price, &entry.Product.Weight, &entry.Product.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CatalogEntry{}, fmt.Errorf("%w: product %s", domain.ErrNotFound, productID)
	}
	if err != nil {
		return domain.CatalogEntry{}, fmt.Errorf("query product: %w", err)
	}
	if variantID == "" {
		return entry, nil
	}

	var (
		v        domain.Variant
		override decimal.NullDecimal
	)
	err = m.db.QueryRowContext(ctx, `
		SELECT id, product_id, name, price_override FROM product_variants
		WHERE id = ? AND product_id = ?`, variantID, productID,
	).Scan(&v.ID, &v.ProductID, &v.Name, &override)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CatalogEntry{}, fmt.Errorf("%w: variant %s", domain.ErrNotFound, variantID)
	}
	if err != nil {
		return domain.CatalogEntry{}, fmt.Errorf("query variant: %w", err)
	}
	v.PriceOverride = decimalPtr(override)
	entry.Variant = &v
	return entry, nil
}

// PutProduct upserts a catalog product. Used by the seed command.
func (m *MySQLAdapter) PutProduct(ctx context.Context, p domain.Product) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, weight, is_active) VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name), price = VALUES(price), weight = VALUES(weight), is_active = VALUES(is_active)`,
		p.ID, p.Name, p.Price, p.Weight, p.Active,
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) PutVariant(ctx context.Context, v domain.Variant) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO product_variants (id, product_id, name, price_override) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name), price_override = VALUES(price_override)`,
		v.ID, v.ProductID, v.Name, nullDecimal(v.PriceOverride),
	)
	if err != nil {
		return fmt.Errorf("upsert variant: %w", err)
	}
	return nil
}
