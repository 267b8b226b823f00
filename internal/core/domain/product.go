package domain

import "github.com/shopspring/decimal"

// Product and Variant are read from the catalog; this core never writes them.
type Product struct {
	ID     string
	Name   string
	Price  decimal.Decimal
	Weight decimal.Decimal
	Active bool
}

type Variant struct {
	ID            string
	ProductID     string
	Name          string
	PriceOverride *decimal.Decimal
}

// CatalogEntry is a product with the optional variant a cart line refers to.
type CatalogEntry struct {
	Product Product
	Variant *Variant
}

// UnitPrice is the variant override when one is set, else the product price.
func (e CatalogEntry) UnitPrice() decimal.Decimal {
	if e.Variant != nil && e.Variant.PriceOverride != nil {
		return *e.Variant.PriceOverride
	}
	return e.Product.Price
}

func (e CatalogEntry) VariantName() string {
	if e.Variant == nil {
		return ""
	}
	return e.Variant.Name
}
