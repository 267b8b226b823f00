package port

import (
	"context"

	"github.com/shopspring/decimal"
)

type PaymentRequest struct {
	OrderID  string
	Email    string
	Amount   decimal.Decimal
	Currency string
}

type PaymentReceipt struct {
	Reference string
}

type PaymentGateway interface {
	// Charge collects the amount; any error means no money moved
	Charge(ctx context.Context, req PaymentRequest) (PaymentReceipt, error)
}
