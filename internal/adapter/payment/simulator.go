package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/port"
)

var ErrDeclined = errors.New("payment declined")

// Simulator stands in for a payment provider. It approves every charge up to
// an optional limit and declines the rest.
type Simulator struct {
	limit  *decimal.Decimal
	logger *slog.Logger
}

func NewSimulator(limit *decimal.Decimal, logger *slog.Logger) *Simulator {
	return &Simulator{limit: limit, logger: logger}
}

func (s *Simulator) Charge(ctx context.Context, req port.PaymentRequest) (port.PaymentReceipt, error) {
	if err := ctx.Err(); err != nil {
		return port.PaymentReceipt{}, err
	}
	if req.Amount.IsNegative() {
		return port.PaymentReceipt{}, fmt.Errorf("%w: negative amount %s", ErrDeclined, req.Amount)
	}
	if s.limit != nil && req.Amount.GreaterThan(*s.limit) {
		s.logger.InfoContext(ctx, "charge declined",
			slog.String("order_id", req.OrderID), slog.String("amount", req.Amount.StringFixed(2)))
		return port.PaymentReceipt{}, fmt.Errorf("%w: amount %s over limit", ErrDeclined, req.Amount.StringFixed(2))
	}

	ref := "pay_" + uuid.NewString()
	s.logger.InfoContext(ctx, "charge approved",
		slog.String("order_id", req.OrderID),
		slog.String("amount", req.Amount.StringFixed(2)),
		slog.String("currency", req.Currency),
		slog.String("reference", ref))
	return port.PaymentReceipt{Reference: ref}, nil
}
