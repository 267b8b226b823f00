package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type AddressService struct {
	addresses port.AddressRepository
	logger    *slog.Logger
	now       func() time.Time
}

func NewAddressService(addresses port.AddressRepository, logger *slog.Logger) *AddressService {
	return &AddressService{addresses: addresses, logger: logger, now: time.Now}
}

func (s *AddressService) List(ctx context.Context, userID string) ([]domain.Address, error) {
	return s.addresses.ListAddresses(ctx, userID)
}

// Add stores a new address. A user's first address always becomes the default.
func (s *AddressService) Add(ctx context.Context, addr domain.Address) (domain.Address, error) {
	if err := addr.Normalize(); err != nil {
		return domain.Address{}, err
	}
	existing, err := s.addresses.ListAddresses(ctx, addr.UserID)
	if err != nil {
		return domain.Address{}, fmt.Errorf("list addresses: %w", err)
	}
	if len(existing) == 0 {
		addr.IsDefault = true
	}
	now := s.now()
	addr.ID = uuid.NewString()
	addr.CreatedAt, addr.UpdatedAt = now, now
	if err := s.addresses.CreateAddress(ctx, addr); err != nil {
		return domain.Address{}, fmt.Errorf("create address: %w", err)
	}
	return addr, nil
}

// SetDefault is a no-op for addresses the user does not own.
func (s *AddressService) SetDefault(ctx context.Context, userID, addressID string) error {
	ok, err := s.addresses.SetDefaultAddress(ctx, userID, addressID)
	if err != nil {
		return fmt.Errorf("set default address: %w", err)
	}
	if !ok {
		s.logger.DebugContext(ctx, "default address unchanged", slog.String("user_id", userID), slog.String("address_id", addressID))
	}
	return nil
}

func (s *AddressService) Delete(ctx context.Context, userID, addressID string) error {
	return s.addresses.DeleteAddress(ctx, userID, addressID)
}
