package storage

import (
	"context"
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
)

func (m *MySQLAdapter) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, user_id, first_name, last_name, company, address_line1, address_line2,
		       city, state, country, postal_code, phone, is_default, created_at, updated_at
		FROM addresses WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query addresses: %w", err)
	}
	defer rows.Close()

	var out []domain.Address
	for rows.Next() {
		var a domain.Address
		err := rows.Scan(&a.ID, &a.UserID, &a.FirstName, &a.LastName, &a.Company, &a.Line1, &a.Line2,
			&a.City, &a.State, &a.Country, &a.PostalCode, &a.Phone, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) CreateAddress(ctx context.Context, a domain.Address) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if a.IsDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE addresses SET is_default = FALSE WHERE user_id = ?`, a.UserID); err != nil {
			return fmt.Errorf("clear default address: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO addresses (id, user_id, first_name, last_name, company, address_line1, address_line2,
		                       city, state, country, postal_code, phone, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.FirstName, a.LastName, a.Company, a.Line1, a.Line2,
		a.City, a.State, a.Country, a.PostalCode, a.Phone, a.IsDefault, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return tx.Commit()
}

func (m *MySQLAdapter) SetDefaultAddress(ctx context.Context, userID, addressID string) (bool, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var n int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM addresses WHERE id = ? AND user_id = ? FOR UPDATE`, addressID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query address: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE addresses SET is_default = (id = ?), updated_at = NOW() WHERE user_id = ?`, addressID, userID)
	if err != nil {
		return false, fmt.Errorf("set default address: %w", err)
	}
	return true, tx.Commit()
}

func (m *MySQLAdapter) DeleteAddress(ctx context.Context, userID, addressID string) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = ? AND user_id = ?`, addressID, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	return nil
}
