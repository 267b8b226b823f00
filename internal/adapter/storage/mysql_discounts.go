package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

const discountColumns = `id, code, COALESCE(description, ''), discount_type, amount, min_purchase,
	max_uses, uses_count, valid_from, valid_until, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDiscount(row rowScanner) (*domain.DiscountCode, error) {
	var (
		d           domain.DiscountCode
		minPurchase decimal.NullDecimal
		maxUses     sql.NullInt64
		validUntil  sql.NullTime
	)
	err := row.Scan(&d.ID, &d.Code, &d.Description, &d.Type, &d.Amount, &minPurchase,
		&maxUses, &d.UsesCount, &d.ValidFrom, &validUntil, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.MinPurchase = decimalPtr(minPurchase)
	d.MaxUses = intPtr(maxUses)
	if validUntil.Valid {
		d.ValidUntil = &validUntil.Time
	}
	return &d, nil
}

func (m *MySQLAdapter) GetDiscountByCode(ctx context.Context, code string) (*domain.DiscountCode, error) {
	d, err := scanDiscount(m.db.QueryRowContext(ctx, `SELECT `+discountColumns+` FROM discount_codes WHERE code = ?`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: discount %s", domain.ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("query discount: %w", err)
	}
	return d, nil
}

func (m *MySQLAdapter) ListActiveDiscounts(ctx context.Context, now time.Time) ([]domain.DiscountCode, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT `+discountColumns+` FROM discount_codes
		WHERE is_active AND valid_from <= ?
		  AND (valid_until IS NULL OR valid_until >= ?)
		  AND (max_uses IS NULL OR uses_count < max_uses)
		ORDER BY id`, now, now)
	if err != nil {
		return nil, fmt.Errorf("query discounts: %w", err)
	}
	defer rows.Close()

	var out []domain.DiscountCode
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan discount: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) CreateDiscount(ctx context.Context, d *domain.DiscountCode) error {
	var validUntil sql.NullTime
	if d.ValidUntil != nil {
		validUntil = sql.NullTime{Time: *d.ValidUntil, Valid: true}
	}
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO discount_codes (code, description, discount_type, amount, min_purchase, max_uses,
		                            uses_count, valid_from, valid_until, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Code, d.Description, d.Type, d.Amount, nullDecimal(d.MinPurchase), nullInt(d.MaxUses),
		d.UsesCount, d.ValidFrom, validUntil, d.Active, d.CreatedAt, d.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return fmt.Errorf("%w: discount %s exists", domain.ErrConflict, d.Code)
	}
	if err != nil {
		return fmt.Errorf("insert discount: %w", err)
	}
	d.ID, err = result.LastInsertId()
	return err
}

func (m *MySQLAdapter) ReleaseDiscountUse(ctx context.Context, discountID int64) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE discount_codes SET uses_count = uses_count - 1, updated_at = NOW()
		WHERE id = ? AND uses_count > 0`, discountID)
	if err != nil {
		return fmt.Errorf("release discount use: %w", err)
	}
	return nil
}
