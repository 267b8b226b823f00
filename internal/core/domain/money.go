package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds to currency minor units.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// NormalizeCountry upper-cases an ISO 3166 alpha-2 code and rejects anything else.
func NormalizeCountry(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return "", fmt.Errorf("%w: country code %q", ErrInvalidInput, code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: country code %q", ErrInvalidInput, code)
		}
	}
	return code, nil
}

func nonNegative(name string, d *decimal.Decimal) error {
	if d != nil && d.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, name)
	}
	return nil
}

// within treats a nil bound as unbounded.
func within(min, max *decimal.Decimal, v decimal.Decimal) bool {
	if min != nil && v.LessThan(*min) {
		return false
	}
	if max != nil && v.GreaterThan(*max) {
		return false
	}
	return true
}
