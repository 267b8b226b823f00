package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

const orderColumns = `id, request_id, cart_id, COALESCE(user_id, ''), COALESCE(session_key, ''), email, status,
	currency, exchange_rate, shipping_method_id, shipping_country, subtotal, discount_amount, tax,
	shipping_cost, total, COALESCE(discount_id, 0), discount_code, payment_reference, tracking_number,
	created_at, updated_at`

func (m *MySQLAdapter) CreateOrder(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var discountID sql.NullInt64
	if order.DiscountID != 0 {
		discountID = sql.NullInt64{Int64: order.DiscountID, Valid: true}
	}
	// Lock the discount row before the order's foreign key check reads it.
	if discountID.Valid {
		result, err := tx.ExecContext(ctx, `
			UPDATE discount_codes
			SET uses_count = uses_count + 1, updated_at = NOW()
			WHERE id = ? AND (max_uses IS NULL OR uses_count < max_uses)`,
			order.DiscountID,
		)
		if err != nil {
			return fmt.Errorf("update discount uses: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("%w: %s", domain.ErrDiscountExhausted, order.DiscountCode)
		}
	}

	t := order.Totals
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, request_id, cart_id, user_id, session_key, email, status, currency,
		                    exchange_rate, shipping_method_id, shipping_country, subtotal, discount_amount,
		                    tax, shipping_cost, total, discount_id, discount_code, payment_reference,
		                    tracking_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.RequestID, order.CartID, nullString(order.UserID), nullString(order.SessionKey),
		order.Email, order.Status, order.Currency, order.ExchangeRate, order.ShippingMethodID,
		order.ShippingCountry, t.Subtotal, t.Discount, t.Tax, t.Shipping, t.Total, discountID,
		order.DiscountCode, order.PaymentReference, order.TrackingNumber, order.CreatedAt, order.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return fmt.Errorf("%w: order for request %s exists", domain.ErrDuplicateRequest, order.RequestID)
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range order.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, variant_id, product_name, variant_name, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, order.ID, nullString(it.ProductID), nullString(it.VariantID),
			it.ProductName, it.VariantName, it.Quantity, it.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	t := &o.Totals
	err := row.Scan(&o.ID, &o.RequestID, &o.CartID, &o.UserID, &o.SessionKey, &o.Email, &o.Status,
		&o.Currency, &o.ExchangeRate, &o.ShippingMethodID, &o.ShippingCountry, &t.Subtotal, &t.Discount,
		&t.Tax, &t.Shipping, &t.Total, &o.DiscountID, &o.DiscountCode, &o.PaymentReference,
		&o.TrackingNumber, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (m *MySQLAdapter) loadOrderItems(ctx context.Context, o *domain.Order) error {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, COALESCE(product_id, ''), COALESCE(variant_id, ''), product_name, variant_name, quantity, unit_price
		FROM order_items WHERE order_id = ? ORDER BY id`, o.ID)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.VariantID, &it.ProductName, &it.VariantName, &it.Quantity, &it.UnitPrice); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := scanOrder(m.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	if err := m.loadOrderItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (m *MySQLAdapter) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := m.loadOrderItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (m *MySQLAdapter) ListStaleOrders(ctx context.Context, status domain.OrderStatus, before time.Time, limit int) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE status = ? AND created_at < ?
		ORDER BY created_at LIMIT ?`, status, before, limit)
	if err != nil {
		return nil, fmt.Errorf("query stale orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) UpdateOrderStatus(ctx context.Context, order domain.Order, from domain.OrderStatus) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, payment_reference = ?, tracking_number = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		order.Status, order.PaymentReference, order.TrackingNumber, order.UpdatedAt, order.ID, from,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: order %s is no longer %s", domain.ErrConflict, order.ID, from)
	}
	return nil
}
