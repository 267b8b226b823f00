package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/internal/ratetable"
)

type CreateZoneInput struct {
	Name        string   `validate:"required,max=100"`
	Countries   []string `validate:"required,min=1,dive,len=2,alpha"`
	Description string
	Active      bool
}

type CreateMethodInput struct {
	Name                string `validate:"required,max=100"`
	Description         string
	Strategy            string `validate:"required,oneof=flat weight price"`
	Active              bool
	EstimatedDays       *int   `validate:"omitempty,min=0"`
	TrackingURLTemplate string `validate:"omitempty,max=512"`
}

type CreateRateInput struct {
	MethodID       int64 `validate:"required,gt=0"`
	ZoneID         int64 `validate:"required,gt=0"`
	BaseRate       decimal.Decimal
	WeightRate     *decimal.Decimal
	MinWeight      *decimal.Decimal
	MaxWeight      *decimal.Decimal
	MinOrderAmount *decimal.Decimal
	MaxOrderAmount *decimal.Decimal
}

// RateAdminService maintains the rate table.
type RateAdminService struct {
	rates    port.RateRepository
	validate *validator.Validate
	logger   *slog.Logger
}

func NewRateAdminService(rates port.RateRepository, logger *slog.Logger) *RateAdminService {
	return &RateAdminService{
		rates:    rates,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *RateAdminService) check(in any) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func (s *RateAdminService) CreateZone(ctx context.Context, in CreateZoneInput) (domain.ShippingZone, error) {
	if err := s.check(in); err != nil {
		return domain.ShippingZone{}, err
	}
	zone := domain.ShippingZone{
		Name:        in.Name,
		Countries:   in.Countries,
		Description: in.Description,
		Active:      in.Active,
	}
	if err := zone.Normalize(); err != nil {
		return domain.ShippingZone{}, err
	}
	if err := s.rates.CreateZone(ctx, &zone); err != nil {
		return domain.ShippingZone{}, fmt.Errorf("create zone: %w", err)
	}
	s.logger.InfoContext(ctx, "shipping zone created", slog.Int64("zone_id", zone.ID), slog.String("name", zone.Name))
	return zone, nil
}

func (s *RateAdminService) CreateMethod(ctx context.Context, in CreateMethodInput) (domain.ShippingMethod, error) {
	if err := s.check(in); err != nil {
		return domain.ShippingMethod{}, err
	}
	method := domain.ShippingMethod{
		Name:                in.Name,
		Description:         in.Description,
		Strategy:            domain.CalculationStrategy(in.Strategy),
		Active:              in.Active,
		EstimatedDays:       in.EstimatedDays,
		TrackingURLTemplate: in.TrackingURLTemplate,
	}
	if err := method.Validate(); err != nil {
		return domain.ShippingMethod{}, err
	}
	if err := s.rates.CreateMethod(ctx, &method); err != nil {
		return domain.ShippingMethod{}, fmt.Errorf("create method: %w", err)
	}
	s.logger.InfoContext(ctx, "shipping method created", slog.Int64("method_id", method.ID), slog.String("name", method.Name))
	return method, nil
}

// CreateRate rejects unknown methods/zones with domain.ErrNotFound and a
// second rate for the same pair with domain.ErrDuplicateRate.
func (s *RateAdminService) CreateRate(ctx context.Context, in CreateRateInput) (domain.ShippingRate, error) {
	if err := s.check(in); err != nil {
		return domain.ShippingRate{}, err
	}
	rate := domain.ShippingRate{
		MethodID:       in.MethodID,
		ZoneID:         in.ZoneID,
		BaseRate:       in.BaseRate,
		WeightRate:     in.WeightRate,
		MinWeight:      in.MinWeight,
		MaxWeight:      in.MaxWeight,
		MinOrderAmount: in.MinOrderAmount,
		MaxOrderAmount: in.MaxOrderAmount,
	}
	if err := rate.Validate(); err != nil {
		return domain.ShippingRate{}, err
	}

	table, err := s.rates.LoadRateTable(ctx)
	if err != nil {
		return domain.ShippingRate{}, fmt.Errorf("load rate table: %w", err)
	}
	if _, ok := table.Method(in.MethodID); !ok {
		return domain.ShippingRate{}, fmt.Errorf("%w: shipping method %d", domain.ErrNotFound, in.MethodID)
	}
	if _, ok := table.Zone(in.ZoneID); !ok {
		return domain.ShippingRate{}, fmt.Errorf("%w: shipping zone %d", domain.ErrNotFound, in.ZoneID)
	}
	if table.HasRate(in.MethodID, in.ZoneID) {
		return domain.ShippingRate{}, domain.ErrDuplicateRate
	}

	if err := s.rates.CreateRate(ctx, &rate); err != nil {
		return domain.ShippingRate{}, fmt.Errorf("create rate: %w", err)
	}
	s.logger.InfoContext(ctx, "shipping rate created",
		slog.Int64("rate_id", rate.ID), slog.Int64("method_id", rate.MethodID), slog.Int64("zone_id", rate.ZoneID))
	return rate, nil
}

// Import creates everything in a seed file, resolving rate references by name.
func (s *RateAdminService) Import(ctx context.Context, f *ratetable.File) error {
	zoneIDs := make(map[string]int64, len(f.Zones))
	for _, z := range f.Zones {
		d := z.ToDomain()
		zone, err := s.CreateZone(ctx, CreateZoneInput{
			Name: d.Name, Countries: d.Countries, Description: d.Description, Active: d.Active,
		})
		if err != nil {
			return fmt.Errorf("zone %q: %w", z.Name, err)
		}
		zoneIDs[z.Name] = zone.ID
	}

	methodIDs := make(map[string]int64, len(f.Methods))
	for _, m := range f.Methods {
		d := m.ToDomain()
		method, err := s.CreateMethod(ctx, CreateMethodInput{
			Name:                d.Name,
			Description:         d.Description,
			Strategy:            string(d.Strategy),
			Active:              d.Active,
			EstimatedDays:       d.EstimatedDays,
			TrackingURLTemplate: d.TrackingURLTemplate,
		})
		if err != nil {
			return fmt.Errorf("method %q: %w", m.Name, err)
		}
		methodIDs[m.Name] = method.ID
	}

	for _, r := range f.Rates {
		d, err := r.ToDomain()
		if err != nil {
			return err
		}
		methodID, ok := methodIDs[r.Method]
		if !ok {
			return fmt.Errorf("%w: rate refers to unknown method %q", domain.ErrNotFound, r.Method)
		}
		zoneID, ok := zoneIDs[r.Zone]
		if !ok {
			return fmt.Errorf("%w: rate refers to unknown zone %q", domain.ErrNotFound, r.Zone)
		}
		if _, err := s.CreateRate(ctx, CreateRateInput{
			MethodID:       methodID,
			ZoneID:         zoneID,
			BaseRate:       d.BaseRate,
			WeightRate:     d.WeightRate,
			MinWeight:      d.MinWeight,
			MaxWeight:      d.MaxWeight,
			MinOrderAmount: d.MinOrderAmount,
			MaxOrderAmount: d.MaxOrderAmount,
		}); err != nil {
			return fmt.Errorf("rate %s/%s: %w", r.Method, r.Zone, err)
		}
	}
	return nil
}
