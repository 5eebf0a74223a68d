// Package vehicle holds the registered-vehicle entity and its registration
// rules (owner existence, VIN uniqueness).
package vehicle

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("vehicle not found")
	ErrOwnerNotFound = errors.New("owner not found")
	ErrVINTaken      = errors.New("vehicle with this VIN already exists")
	ErrInvalidVIN    = errors.New("VIN must be exactly 17 characters")
	ErrEmptyField    = errors.New("required field is empty")
)

// Vehicle is a customer vehicle registered with the workshop. Identity,
// owner, and VIN are fixed at registration; only the color may change.
type Vehicle struct {
	id      string
	ownerID string
	brand   string
	model   string
	vin     string
	color   string
}

// New creates a vehicle with a generated id.
func New(ownerID, brand, model, vin, color string) (*Vehicle, error) {
	return Restore(uuid.New().String(), ownerID, brand, model, vin, color)
}

// Restore rebuilds a vehicle from persisted attributes.
func Restore(id, ownerID, brand, model, vin, color string) (*Vehicle, error) {
	for _, field := range []string{id, ownerID, brand, model, color} {
		if strings.TrimSpace(field) == "" {
			return nil, ErrEmptyField
		}
	}
	if len(vin) != 17 {
		return nil, ErrInvalidVIN
	}

	return &Vehicle{
		id:      id,
		ownerID: ownerID,
		brand:   brand,
		model:   model,
		vin:     vin,
		color:   color,
	}, nil
}

func (v *Vehicle) ID() string      { return v.id }
func (v *Vehicle) OwnerID() string { return v.ownerID }
func (v *Vehicle) Brand() string   { return v.brand }
func (v *Vehicle) Model() string   { return v.model }
func (v *Vehicle) VIN() string     { return v.vin }
func (v *Vehicle) Color() string   { return v.color }

// ChangeColor repaints the vehicle record.
func (v *Vehicle) ChangeColor(color string) error {
	if strings.TrimSpace(color) == "" {
		return ErrEmptyField
	}
	v.color = color
	return nil
}

// Repository defines single-row persistence for vehicles.
type Repository interface {
	Save(ctx context.Context, v *Vehicle) error
	FindByID(ctx context.Context, id string) (*Vehicle, error)
	FindByVIN(ctx context.Context, vin string) (*Vehicle, error)
	FindByOwnerID(ctx context.Context, ownerID string) ([]*Vehicle, error)
	UpdateColor(ctx context.Context, v *Vehicle) error
	Delete(ctx context.Context, id string) error
}

// OwnerFinder answers the owner-existence check at registration time.
// Implemented by the user repository.
type OwnerFinder interface {
	Exists(ctx context.Context, id string) (bool, error)
}
