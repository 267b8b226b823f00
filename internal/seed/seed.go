// Package seed loads a development data set: the shipping rate table plus
// catalog products and discount codes.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/internal/ratetable"
)

type File struct {
	ratetable.File `yaml:",inline"`
	Products       []Product  `yaml:"products"`
	Discounts      []Discount `yaml:"discounts"`
}

type Product struct {
	ID       string    `yaml:"id"`
	Name     string    `yaml:"name"`
	Price    string    `yaml:"price"`
	Weight   string    `yaml:"weight"`
	Variants []Variant `yaml:"variants"`
}

type Variant struct {
	ID            string  `yaml:"id"`
	Name          string  `yaml:"name"`
	PriceOverride *string `yaml:"price_override"`
}

type Discount struct {
	Code        string     `yaml:"code"`
	Description string     `yaml:"description"`
	Type        string     `yaml:"type"`
	Amount      string     `yaml:"amount"`
	MinPurchase *string    `yaml:"min_purchase"`
	MaxUses     *int       `yaml:"max_uses"`
	ValidUntil  *time.Time `yaml:"valid_until"`
}

func Load(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &f, nil
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q", domain.ErrInvalidInput, field, raw)
	}
	return d, nil
}

func (p Product) ToDomain() (domain.Product, []domain.Variant, error) {
	price, err := parseAmount("price", p.Price)
	if err != nil {
		return domain.Product{}, nil, err
	}
	weight, err := parseAmount("weight", p.Weight)
	if err != nil {
		return domain.Product{}, nil, err
	}
	product := domain.Product{ID: p.ID, Name: p.Name, Price: price, Weight: weight, Active: true}

	variants := make([]domain.Variant, 0, len(p.Variants))
	for _, v := range p.Variants {
		dv := domain.Variant{ID: v.ID, ProductID: p.ID, Name: v.Name}
		if v.PriceOverride != nil {
			override, err := parseAmount("price_override", *v.PriceOverride)
			if err != nil {
				return domain.Product{}, nil, err
			}
			dv.PriceOverride = &override
		}
		variants = append(variants, dv)
	}
	return product, variants, nil
}

func (d Discount) ToDomain() (domain.DiscountCode, error) {
	amount, err := parseAmount("amount", d.Amount)
	if err != nil {
		return domain.DiscountCode{}, err
	}
	code := domain.DiscountCode{
		Code:        d.Code,
		Description: d.Description,
		Type:        domain.DiscountType(d.Type),
		Amount:      amount,
		MaxUses:     d.MaxUses,
		ValidUntil:  d.ValidUntil,
		Active:      true,
	}
	if d.MinPurchase != nil {
		minPurchase, err := parseAmount("min_purchase", *d.MinPurchase)
		if err != nil {
			return domain.DiscountCode{}, err
		}
		code.MinPurchase = &minPurchase
	}
	return code, nil
}

type Loader struct {
	Rates     *service.RateAdminService
	Catalog   port.CatalogWriter
	Discounts *service.DiscountService
	Logger    *slog.Logger
}

// Apply writes the whole file. It is not idempotent: a second run adds the
// zones and methods again and then fails on the first existing discount code.
func (l Loader) Apply(ctx context.Context, f *File) error {
	if err := l.Rates.Import(ctx, &f.File); err != nil {
		return fmt.Errorf("import rate table: %w", err)
	}

	for _, p := range f.Products {
		product, variants, err := p.ToDomain()
		if err != nil {
			return fmt.Errorf("product %q: %w", p.ID, err)
		}
		if err := l.Catalog.PutProduct(ctx, product); err != nil {
			return fmt.Errorf("product %q: %w", p.ID, err)
		}
		for _, v := range variants {
			if err := l.Catalog.PutVariant(ctx, v); err != nil {
				return fmt.Errorf("variant %q: %w", v.ID, err)
			}
		}
	}

	for _, d := range f.Discounts {
		code, err := d.ToDomain()
		if err != nil {
			return fmt.Errorf("discount %q: %w", d.Code, err)
		}
		if _, err := l.Discounts.Create(ctx, code); err != nil {
			return fmt.Errorf("discount %q: %w", d.Code, err)
		}
	}

	l.Logger.InfoContext(ctx, "seed applied",
		slog.Int("zones", len(f.Zones)),
		slog.Int("methods", len(f.Methods)),
		slog.Int("rates", len(f.Rates)),
		slog.Int("products", len(f.Products)),
		slog.Int("discounts", len(f.Discounts)))
	return nil
}
