// Package ratetable reads administrator-curated shipping rate tables from YAML.
package ratetable

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rl1809/storefront/internal/core/domain"
)

type File struct {
	Zones   []Zone   `yaml:"zones"`
	Methods []Method `yaml:"methods"`
	Rates   []Rate   `yaml:"rates"`
}

type Zone struct {
	Name        string   `yaml:"name"`
	Countries   []string `yaml:"countries"`
	Description string   `yaml:"description"`
	Active      *bool    `yaml:"active"`
}

type Method struct {
	Name                string `yaml:"name"`
	Description         string `yaml:"description"`
	Strategy            string `yaml:"strategy"`
	EstimatedDays       *int   `yaml:"estimated_days"`
	TrackingURLTemplate string `yaml:"tracking_url_template"`
	Active              *bool  `yaml:"active"`
}

// Rate refers to its method and zone by name. Amounts are decimal strings.
type Rate struct {
	Method         string  `yaml:"method"`
	Zone           string  `yaml:"zone"`
	BaseRate       string  `yaml:"base_rate"`
	WeightRate     *string `yaml:"weight_rate"`
	MinWeight      *string `yaml:"min_weight"`
	MaxWeight      *string `yaml:"max_weight"`
	MinOrderAmount *string `yaml:"min_order_amount"`
	MaxOrderAmount *string `yaml:"max_order_amount"`
}

func Load(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode rate table: %w", err)
	}
	return &f, nil
}

func active(b *bool) bool {
	return b == nil || *b
}

func (z Zone) ToDomain() domain.ShippingZone {
	return domain.ShippingZone{
		Name:        z.Name,
		Countries:   z.Countries,
		Description: z.Description,
		Active:      active(z.Active),
	}
}

func (m Method) ToDomain() domain.ShippingMethod {
	return domain.ShippingMethod{
		Name:                m.Name,
		Description:         m.Description,
		Strategy:            domain.CalculationStrategy(m.Strategy),
		Active:              active(m.Active),
		EstimatedDays:       m.EstimatedDays,
		TrackingURLTemplate: m.TrackingURLTemplate,
	}
}

// ToDomain parses the amounts; method and zone ids are left for the caller.
func (r Rate) ToDomain() (domain.ShippingRate, error) {
	base, err := decimal.NewFromString(r.BaseRate)
	if err != nil {
		return domain.ShippingRate{}, fmt.Errorf("%w: base rate %q of %s/%s", domain.ErrInvalidInput, r.BaseRate, r.Method, r.Zone)
	}
	rate := domain.ShippingRate{BaseRate: base}
	for _, f := range []struct {
		src *string
		dst **decimal.Decimal
	}{
		{r.WeightRate, &rate.WeightRate},
		{r.MinWeight, &rate.MinWeight},
		{r.MaxWeight, &rate.MaxWeight},
		{r.MinOrderAmount, &rate.MinOrderAmount},
		{r.MaxOrderAmount, &rate.MaxOrderAmount},
	} {
		if f.src == nil {
			continue
		}
		d, err := decimal.NewFromString(*f.src)
		if err != nil {
			return domain.ShippingRate{}, fmt.Errorf("%w: amount %q of %s/%s", domain.ErrInvalidInput, *f.src, r.Method, r.Zone)
		}
		*f.dst = &d
	}
	return rate, nil
}
