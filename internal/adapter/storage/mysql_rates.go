package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

func (m *MySQLAdapter) LoadRateTable(ctx context.Context) (*domain.RateTable, error) {
	zones, err := m.loadZones(ctx)
	if err != nil {
		return nil, err
	}
	methods, err := m.loadMethods(ctx)
	if err != nil {
		return nil, err
	}
	rates, err := m.loadRates(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.RateTable{Zones: zones, Methods: methods, Rates: rates}, nil
}

func (m *MySQLAdapter) loadZones(ctx context.Context) ([]domain.ShippingZone, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, countries, COALESCE(description, ''), is_active
		FROM shipping_zones ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query zones: %w", err)
	}
	defer rows.Close()

	var zones []domain.ShippingZone
	for rows.Next() {
		var (
			z         domain.ShippingZone
			countries []byte
		)
		if err := rows.Scan(&z.ID, &z.Name, &countries, &z.Description, &z.Active); err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		if err := json.Unmarshal(countries, &z.Countries); err != nil {
			return nil, fmt.Errorf("decode zone %d countries: %w", z.ID, err)
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

func (m *MySQLAdapter) loadMethods(ctx context.Context) ([]domain.ShippingMethod, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(description, ''), calculation_type, is_active, estimated_days, tracking_url_template
		FROM shipping_methods ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query methods: %w", err)
	}
	defer rows.Close()

	var methods []domain.ShippingMethod
	for rows.Next() {
		var (
			sm   domain.ShippingMethod
			days sql.NullInt64
		)
		if err := rows.Scan(&sm.ID, &sm.Name, &sm.Description, &sm.Strategy, &sm.Active, &days, &sm.TrackingURLTemplate); err != nil {
			return nil, fmt.Errorf("scan method: %w", err)
		}
		sm.EstimatedDays = intPtr(days)
		methods = append(methods, sm)
	}
	return methods, rows.Err()
}

func (m *MySQLAdapter) loadRates(ctx context.Context) ([]domain.ShippingRate, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, shipping_method_id, shipping_zone_id, base_rate, weight_rate,
		       min_weight, max_weight, min_order_amount, max_order_amount
		FROM shipping_rates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query rates: %w", err)
	}
	defer rows.Close()

	var rates []domain.ShippingRate
	for rows.Next() {
		var (
			r                                   domain.ShippingRate
			weightRate, minW, maxW, minA, maxA decimal.NullDecimal
		)
		if err := rows.Scan(&r.ID, &r.MethodID, &r.ZoneID, &r.BaseRate, &weightRate, &minW, &maxW, &minA, &maxA); err != nil {
			return nil, fmt.Errorf("scan rate: %w", err)
		}
		r.WeightRate = decimalPtr(weightRate)
		r.MinWeight, r.MaxWeight = decimalPtr(minW), decimalPtr(maxW)
		r.MinOrderAmount, r.MaxOrderAmount = decimalPtr(minA), decimalPtr(maxA)
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

func (m *MySQLAdapter) CreateZone(ctx context.Context, zone *domain.ShippingZone) error {
	countries, err := json.Marshal(zone.Countries)
	if err != nil {
		return fmt.Errorf("encode countries: %w", err)
	}
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO shipping_zones (name, countries, description, is_active)
		VALUES (?, ?, ?, ?)`,
		zone.Name, countries, zone.Description, zone.Active,
	)
	if err != nil {
		return fmt.Errorf("insert zone: %w", err)
	}
	zone.ID, err = result.LastInsertId()
	return err
}

func (m *MySQLAdapter) CreateMethod(ctx context.Context, method *domain.ShippingMethod) error {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO shipping_methods (name, description, calculation_type, is_active, estimated_days, tracking_url_template)
		VALUES (?, ?, ?, ?, ?, ?)`,
		method.Name, method.Description, method.Strategy, method.Active,
		nullInt(method.EstimatedDays), method.TrackingURLTemplate,
	)
	if err != nil {
		return fmt.Errorf("insert method: %w", err)
	}
	method.ID, err = result.LastInsertId()
	return err
}

func (m *MySQLAdapter) CreateRate(ctx context.Context, rate *domain.ShippingRate) error {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO shipping_rates (shipping_method_id, shipping_zone_id, base_rate, weight_rate,
		                            min_weight, max_weight, min_order_amount, max_order_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rate.MethodID, rate.ZoneID, rate.BaseRate, nullDecimal(rate.WeightRate),
		nullDecimal(rate.MinWeight), nullDecimal(rate.MaxWeight),
		nullDecimal(rate.MinOrderAmount), nullDecimal(rate.MaxOrderAmount),
	)
	if isDuplicateEntry(err) {
		return fmt.Errorf("%w: method %d zone %d", domain.ErrDuplicateRate, rate.MethodID, rate.ZoneID)
	}
	if err != nil {
		return fmt.Errorf("insert rate: %w", err)
	}
	rate.ID, err = result.LastInsertId()
	return err
}
