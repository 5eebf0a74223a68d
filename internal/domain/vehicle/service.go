package vehicle

import (
	"context"

	"github.com/go-faster/errors"
)

// Service enforces registration rules: the owner must exist and the VIN must
// be unused.
type Service struct {
	vehicles Repository
	owners   OwnerFinder
}

// NewService creates a vehicle Service.
func NewService(vehicles Repository, owners OwnerFinder) *Service {
	return &Service{
		vehicles: vehicles,
		owners:   owners,
	}
}

// Register validates and persists a new vehicle.
func (s *Service) Register(ctx context.Context, ownerID, brand, model, vin, color string) (*Vehicle, error) {
	ok, err := s.owners.Exists(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "check owner")
	}
	if !ok {
		return nil, ErrOwnerNotFound
	}

	if _, err := s.vehicles.FindByVIN(ctx, vin); err == nil {
		return nil, ErrVINTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "check VIN")
	}

	v, err := New(ownerID, brand, model, vin, color)
	if err != nil {
		return nil, err
	}

	if err := s.vehicles.Save(ctx, v); err != nil {
		return nil, errors.Wrap(err, "save vehicle")
	}
	return v, nil
}

// ByOwner returns every vehicle registered to the owner.
func (s *Service) ByOwner(ctx context.Context, ownerID string) ([]*Vehicle, error) {
	vehicles, err := s.vehicles.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "load vehicles")
	}
	return vehicles, nil
}

// ChangeColor looks a vehicle up by VIN and persists the new color.
func (s *Service) ChangeColor(ctx context.Context, vin, color string) error {
	v, err := s.vehicles.FindByVIN(ctx, vin)
	if err != nil {
		return err
	}

	if err := v.ChangeColor(color); err != nil {
		return err
	}

	if err := s.vehicles.UpdateColor(ctx, v); err != nil {
		return errors.Wrap(err, "update vehicle")
	}
	return nil
}
