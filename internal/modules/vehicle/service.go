// README: Vehicle service; administrative fleet management.
package vehicle

import (
	"context"

	"navette/internal/types"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

type CreateCommand struct {
	Brand        string
	Model        string
	LicensePlate string
	FleetNumber  string
	Mileage      int64
	VIN          string
	FuelType     string
	SeatCount    int
	Category     string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Vehicle, error) {
	if cmd.LicensePlate == "" {
		return nil, types.Validationf("license plate is required")
	}
	if cmd.FleetNumber == "" {
		return nil, types.Validationf("fleet number is required")
	}
	if cmd.Mileage < 0 {
		return nil, types.Validationf("mileage must not be negative, got %d", cmd.Mileage)
	}

	v := &Vehicle{
		Brand:        cmd.Brand,
		Model:        cmd.Model,
		LicensePlate: cmd.LicensePlate,
		FleetNumber:  cmd.FleetNumber,
		Mileage:      cmd.Mileage,
		IsActive:     true,
		VIN:          cmd.VIN,
		FuelType:     cmd.FuelType,
		SeatCount:    cmd.SeatCount,
		Category:     cmd.Category,
	}
	if err := s.store.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Vehicle, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]*Vehicle, error) {
	return s.store.List(ctx, activeOnly)
}

func (s *Service) SetActive(ctx context.Context, id types.ID, active bool) error {
	return s.store.SetActive(ctx, id, active)
}
