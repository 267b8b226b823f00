package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/logger/sl"
	"github.com/rl1809/storefront/internal/metric"
	"github.com/rl1809/storefront/internal/port"
)

// Quote is one selectable shipping option for a destination.
type Quote struct {
	RateID        int64
	MethodID      int64
	MethodName    string
	ZoneID        int64
	ZoneName      string
	Strategy      domain.CalculationStrategy
	Cost          decimal.Decimal
	EstimatedDays *int
}

// ShippingService resolves shipping rates against the stored rate table.
type ShippingService struct {
	rates  port.RateRepository
	logger *slog.Logger
}

func NewShippingService(rates port.RateRepository, logger *slog.Logger) *ShippingService {
	return &ShippingService{rates: rates, logger: logger}
}

func (s *ShippingService) loadTable(ctx context.Context) (*domain.RateTable, error) {
	start := time.Now()
	table, err := s.rates.LoadRateTable(ctx)
	metric.RateTableLoadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.ErrorContext(ctx, "load rate table", sl.Err(err), sl.Traced(ctx))
		return nil, fmt.Errorf("load rate table: %w", err)
	}
	return table, nil
}

// FindApplicableRates lists every rate usable for the destination. An empty
// result is not an error.
func (s *ShippingService) FindApplicableRates(ctx context.Context, q domain.RateQuery) ([]domain.ApplicableRate, error) {
	ctx, span := otel.Tracer("shippingService").Start(ctx, "ShippingService.FindApplicableRates")
	defer span.End()

	q, err := q.Normalize()
	if err != nil {
		metric.RateLookupsTotal.WithLabelValues("find", "invalid").Inc()
		return nil, err
	}
	span.SetAttributes(attribute.String("country", q.Country))

	table, err := s.loadTable(ctx)
	if err != nil {
		span.RecordError(err)
		metric.RateLookupsTotal.WithLabelValues("find", "error").Inc()
		return nil, err
	}

	rates := table.FindApplicableRates(q)
	if len(rates) == 0 {
		metric.RateLookupsTotal.WithLabelValues("find", "empty").Inc()
	} else {
		metric.RateLookupsTotal.WithLabelValues("find", "found").Inc()
	}
	return rates, nil
}

// Quote prices every applicable rate for display.
func (s *ShippingService) Quote(ctx context.Context, q domain.RateQuery) ([]Quote, error) {
	rates, err := s.FindApplicableRates(ctx, q)
	if err != nil {
		return nil, err
	}
	q, _ = q.Normalize()

	quotes := make([]Quote, 0, len(rates))
	for _, r := range rates {
		quotes = append(quotes, Quote{
			RateID:        r.Rate.ID,
			MethodID:      r.Method.ID,
			MethodName:    r.Method.Name,
			ZoneID:        r.Zone.ID,
			ZoneName:      r.Zone.Name,
			Strategy:      r.Method.Strategy,
			Cost:          r.Cost(q),
			EstimatedDays: r.Method.EstimatedDays,
		})
	}
	return quotes, nil
}

// CalculateCost prices one method for the destination. ok is false when the
// method, its zone or the applicability windows rule the rate out.
func (s *ShippingService) CalculateCost(ctx context.Context, methodID int64, q domain.RateQuery) (cost decimal.Decimal, ok bool, err error) {
	ctx, span := otel.Tracer("shippingService").Start(ctx, "ShippingService.CalculateCost")
	defer span.End()

	q, err = q.Normalize()
	if err != nil {
		metric.RateLookupsTotal.WithLabelValues("cost", "invalid").Inc()
		return decimal.Zero, false, err
	}
	span.SetAttributes(attribute.String("country", q.Country), attribute.Int64("method_id", methodID))

	table, err := s.loadTable(ctx)
	if err != nil {
		span.RecordError(err)
		metric.RateLookupsTotal.WithLabelValues("cost", "error").Inc()
		return decimal.Zero, false, err
	}

	cost, ok = table.CalculateCost(methodID, q)
	if !ok {
		metric.RateLookupsTotal.WithLabelValues("cost", "empty").Inc()
		return decimal.Zero, false, nil
	}
	metric.RateLookupsTotal.WithLabelValues("cost", "found").Inc()
	return cost, true, nil
}

// GetEstimatedDeliveryDays is nil for unknown or inactive methods.
func (s *ShippingService) GetEstimatedDeliveryDays(ctx context.Context, methodID int64) (*int, error) {
	table, err := s.loadTable(ctx)
	if err != nil {
		return nil, err
	}
	return table.EstimatedDeliveryDays(methodID), nil
}

func (s *ShippingService) TrackingURL(ctx context.Context, methodID int64, trackingNumber string) (string, error) {
	table, err := s.loadTable(ctx)
	if err != nil {
		return "", err
	}
	m, ok := table.Method(methodID)
	if !ok {
		return "", fmt.Errorf("%w: shipping method %d", domain.ErrNotFound, methodID)
	}
	return m.TrackingURL(trackingNumber), nil
}
