package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

type CalculationStrategy string

const (
	CalculationFlat   CalculationStrategy = "flat"
	CalculationWeight CalculationStrategy = "weight"
	CalculationPrice  CalculationStrategy = "price"
)

func (s CalculationStrategy) Valid() bool {
	switch s {
	case CalculationFlat, CalculationWeight, CalculationPrice:
		return true
	}
	return false
}

const trackingNumberPlaceholder = "{tracking_number}"

type ShippingZone struct {
	ID          int64
	Name        string
	Countries   []string
	Description string
	Active      bool
}

func (z ShippingZone) Covers(country string) bool {
	return slices.Contains(z.Countries, country)
}

// Normalize validates the zone and upper-cases its country codes.
func (z *ShippingZone) Normalize() error {
	if strings.TrimSpace(z.Name) == "" {
		return fmt.Errorf("%w: zone name is required", ErrInvalidInput)
	}
	if len(z.Countries) == 0 {
		return fmt.Errorf("%w: zone %q has no countries", ErrInvalidInput, z.Name)
	}
	countries := make([]string, 0, len(z.Countries))
	for _, c := range z.Countries {
		code, err := NormalizeCountry(c)
		if err != nil {
			return err
		}
		if !slices.Contains(countries, code) {
			countries = append(countries, code)
		}
	}
	z.Countries = countries
	return nil
}

type ShippingMethod struct {
	ID                  int64
	Name                string
	Description         string
	Strategy            CalculationStrategy
	Active              bool
	EstimatedDays       *int
	TrackingURLTemplate string
}

func (m ShippingMethod) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: method name is required", ErrInvalidInput)
	}
	if !m.Strategy.Valid() {
		return fmt.Errorf("%w: unknown calculation strategy %q", ErrInvalidInput, m.Strategy)
	}
	if m.EstimatedDays != nil && *m.EstimatedDays < 0 {
		return fmt.Errorf("%w: estimated days must not be negative", ErrInvalidInput)
	}
	return nil
}

// TrackingURL expands the method's template for a carrier tracking number.
func (m ShippingMethod) TrackingURL(trackingNumber string) string {
	if m.TrackingURLTemplate == "" || trackingNumber == "" {
		return ""
	}
	return strings.ReplaceAll(m.TrackingURLTemplate, trackingNumberPlaceholder, trackingNumber)
}

// ShippingRate prices one method inside one zone. At most one rate exists per
// (method, zone) pair.
type ShippingRate struct {
	ID             int64
	MethodID       int64
	ZoneID         int64
	BaseRate       decimal.Decimal
	WeightRate     *decimal.Decimal
	MinWeight      *decimal.Decimal
	MaxWeight      *decimal.Decimal
	MinOrderAmount *decimal.Decimal
	MaxOrderAmount *decimal.Decimal
}

func (r ShippingRate) Validate() error {
	if r.BaseRate.IsNegative() {
		return fmt.Errorf("%w: base rate must not be negative", ErrInvalidInput)
	}
	for name, v := range map[string]*decimal.Decimal{
		"weight rate":      r.WeightRate,
		"min weight":       r.MinWeight,
		"max weight":       r.MaxWeight,
		"min order amount": r.MinOrderAmount,
		"max order amount": r.MaxOrderAmount,
	} {
		if err := nonNegative(name, v); err != nil {
			return err
		}
	}
	if r.MinWeight != nil && r.MaxWeight != nil && r.MinWeight.GreaterThan(*r.MaxWeight) {
		return fmt.Errorf("%w: min weight exceeds max weight", ErrInvalidInput)
	}
	if r.MinOrderAmount != nil && r.MaxOrderAmount != nil && r.MinOrderAmount.GreaterThan(*r.MaxOrderAmount) {
		return fmt.Errorf("%w: min order amount exceeds max order amount", ErrInvalidInput)
	}
	return nil
}

// Accepts reports whether weight and order total fall inside the rate's
// applicability windows. A nil argument is not checked.
func (r ShippingRate) Accepts(weight, orderTotal *decimal.Decimal) bool {
	if weight != nil && !within(r.MinWeight, r.MaxWeight, *weight) {
		return false
	}
	if orderTotal != nil && !within(r.MinOrderAmount, r.MaxOrderAmount, *orderTotal) {
		return false
	}
	return true
}

// Cost prices the rate for method m. Only the weight strategy adds a per-unit
// amount; price-based methods differentiate through separate rate rows with
// different order-amount windows.
func (r ShippingRate) Cost(m ShippingMethod, weight, orderTotal *decimal.Decimal) (decimal.Decimal, bool) {
	if !m.Active || !r.Accepts(weight, orderTotal) {
		return decimal.Zero, false
	}
	cost := r.BaseRate
	if m.Strategy == CalculationWeight && weight != nil && r.WeightRate != nil {
		cost = cost.Add(weight.Mul(*r.WeightRate))
	}
	return RoundMoney(cost), true
}

// RateQuery is a destination plus optional parcel weight and order total.
type RateQuery struct {
	Country    string
	Weight     *decimal.Decimal
	OrderTotal *decimal.Decimal
}

func (q RateQuery) Normalize() (RateQuery, error) {
	country, err := NormalizeCountry(q.Country)
	if err != nil {
		return RateQuery{}, err
	}
	if err := nonNegative("weight", q.Weight); err != nil {
		return RateQuery{}, err
	}
	if err := nonNegative("order total", q.OrderTotal); err != nil {
		return RateQuery{}, err
	}
	q.Country = country
	return q, nil
}

// ApplicableRate is a rate joined with its method and zone.
type ApplicableRate struct {
	Rate   ShippingRate
	Method ShippingMethod
	Zone   ShippingZone
}

func (a ApplicableRate) Cost(q RateQuery) decimal.Decimal {
	cost, _ := a.Rate.Cost(a.Method, q.Weight, q.OrderTotal)
	return cost
}

// RateTable is the administrator-curated set of zones, methods and rates.
// Resolution expects a query that already went through Normalize.
type RateTable struct {
	Zones   []ShippingZone
	Methods []ShippingMethod
	Rates   []ShippingRate
}

func (t *RateTable) Zone(id int64) (ShippingZone, bool) {
	for _, z := range t.Zones {
		if z.ID == id {
			return z, true
		}
	}
	return ShippingZone{}, false
}

func (t *RateTable) Method(id int64) (ShippingMethod, bool) {
	for _, m := range t.Methods {
		if m.ID == id {
			return m, true
		}
	}
	return ShippingMethod{}, false
}

func (t *RateTable) HasRate(methodID, zoneID int64) bool {
	return slices.ContainsFunc(t.Rates, func(r ShippingRate) bool {
		return r.MethodID == methodID && r.ZoneID == zoneID
	})
}

// candidates joins every rate whose method is active and whose zone is active
// and covers the destination country.
func (t *RateTable) candidates(country string) []ApplicableRate {
	var out []ApplicableRate
	for _, r := range t.Rates {
		z, ok := t.Zone(r.ZoneID)
		if !ok || !z.Active || !z.Covers(country) {
			continue
		}
		m, ok := t.Method(r.MethodID)
		if !ok || !m.Active {
			continue
		}
		out = append(out, ApplicableRate{Rate: r, Method: m, Zone: z})
	}
	return out
}

// FindApplicableRates returns every rate for the destination whose weight and
// order-total windows admit the query. Overlapping zones each contribute
// their rates; nothing is deduplicated or ranked.
func (t *RateTable) FindApplicableRates(q RateQuery) []ApplicableRate {
	var out []ApplicableRate
	for _, c := range t.candidates(q.Country) {
		if c.Rate.Accepts(q.Weight, q.OrderTotal) {
			out = append(out, c)
		}
	}
	return out
}

// CalculateCost prices methodID for the destination. When several zones
// have a rate for the method that admits the query, the lowest zone id wins.
func (t *RateTable) CalculateCost(methodID int64, q RateQuery) (decimal.Decimal, bool) {
	var chosen *ApplicableRate
	for _, c := range t.candidates(q.Country) {
		if c.Method.ID != methodID || !c.Rate.Accepts(q.Weight, q.OrderTotal) {
			continue
		}
		if chosen == nil || c.Zone.ID < chosen.Zone.ID {
			chosen = &c
		}
	}
	if chosen == nil {
		return decimal.Zero, false
	}
	return chosen.Rate.Cost(chosen.Method, q.Weight, q.OrderTotal)
}

// EstimatedDeliveryDays returns nil for unknown or inactive methods and for
// methods without an estimate.
func (t *RateTable) EstimatedDeliveryDays(methodID int64) *int {
	m, ok := t.Method(methodID)
	if !ok || !m.Active || m.EstimatedDays == nil {
		return nil
	}
	days := *m.EstimatedDays
	return &days
}
