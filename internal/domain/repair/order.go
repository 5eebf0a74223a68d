// Package repair holds the repair-order aggregate, its lifecycle state
// machine, and the service that enforces business rules on top of the store.
package repair

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sentinel errors shared by the service and its callers.
var (
	ErrOrderNotFound   = &NotFoundError{Kind: "repair order"}
	ErrVehicleNotFound = &NotFoundError{Kind: "vehicle"}
)

// NotFoundError indicates a referenced entity that does not exist. It is a
// distinct condition from validation failure.
type NotFoundError struct {
	Kind string
}

func (e *NotFoundError) Error() string {
	return e.Kind + " not found"
}

// ClosedOrderError indicates an attempted mutation of an order in a terminal
// status.
type ClosedOrderError struct {
	Status Status
}

func (e *ClosedOrderError) Error() string {
	return "repair order is closed (status " + string(e.Status) + ")"
}

// Order is the repair-order aggregate root. It exclusively owns its parts;
// the whole aggregate is persisted and loaded as one atomic unit.
type Order struct {
	id          string
	vehicleID   string
	description string
	serviceCost decimal.Decimal
	status      Status
	createdAt   time.Time
	parts       []*Part
}

// NewOrder creates an order in status OPEN with a generated id and the
// current UTC time as its creation timestamp.
func NewOrder(vehicleID, description string, serviceCost decimal.Decimal) (*Order, error) {
	return newOrder(uuid.New().String(), vehicleID, description, serviceCost, StatusOpen, time.Now().UTC(), nil)
}

// RestoreOrder rebuilds a persisted aggregate. The status and creation time
// come from storage as-is; the OPEN-initial rule applies only to new orders.
func RestoreOrder(id, vehicleID, description string, serviceCost decimal.Decimal, status Status, createdAt time.Time, parts []*Part) (*Order, error) {
	return newOrder(id, vehicleID, description, serviceCost, status, createdAt, parts)
}

func newOrder(id, vehicleID, description string, serviceCost decimal.Decimal, status Status, createdAt time.Time, parts []*Part) (*Order, error) {
	if id == "" {
		return nil, &ValidationError{Field: "order id", Reason: "cannot be empty"}
	}
	if vehicleID == "" {
		return nil, &ValidationError{Field: "vehicle id", Reason: "cannot be empty"}
	}

	o := &Order{
		id:          id,
		vehicleID:   vehicleID,
		description: description,
		serviceCost: serviceCost,
		status:      status,
		createdAt:   createdAt,
	}
	for _, p := range parts {
		if err := o.AddPart(p); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *Order) ID() string                   { return o.id }
func (o *Order) VehicleID() string            { return o.vehicleID }
func (o *Order) Description() string          { return o.description }
func (o *Order) ServiceCost() decimal.Decimal { return o.serviceCost }
func (o *Order) Status() Status               { return o.status }
func (o *Order) CreatedAt() time.Time         { return o.createdAt }

// Parts returns the owned part collection. The returned slice is a copy;
// appending to the aggregate goes through AddPart so the ownership invariant
// is always checked.
func (o *Order) Parts() []*Part {
	parts := make([]*Part, len(o.parts))
	copy(parts, o.parts)
	return parts
}

// SetDescription replaces the free-text description.
func (o *Order) SetDescription(description string) {
	o.description = description
}

// SetServiceCost replaces the labor charge (excluding parts).
func (o *Order) SetServiceCost(cost decimal.Decimal) {
	o.serviceCost = cost
}

// AddPart appends a part to the aggregate. The part must have been created
// for this order.
func (o *Order) AddPart(p *Part) error {
	if p == nil {
		return &ValidationError{Field: "part", Reason: "cannot be nil"}
	}
	if p.RepairOrderID() != o.id {
		return &ValidationError{Field: "part", Reason: "belongs to a different repair order"}
	}
	o.parts = append(o.parts, p)
	return nil
}

// TotalCost is the service cost plus the total price of every part.
func (o *Order) TotalCost() decimal.Decimal {
	total := o.serviceCost
	for _, p := range o.parts {
		total = total.Add(p.TotalPrice())
	}
	return total
}

// Start moves the order from OPEN to IN_PROGRESS.
func (o *Order) Start() error {
	if o.status != StatusOpen {
		return o.transitionErr()
	}
	o.status = StatusInProgress
	return nil
}

// Complete moves the order to COMPLETED from any non-terminal status.
func (o *Order) Complete() error {
	if o.status.IsTerminal() {
		return &ClosedOrderError{Status: o.status}
	}
	o.status = StatusCompleted
	return nil
}

// Cancel moves the order to CANCELLED from any non-terminal status.
func (o *Order) Cancel() error {
	if o.status.IsTerminal() {
		return &ClosedOrderError{Status: o.status}
	}
	o.status = StatusCancelled
	return nil
}

func (o *Order) transitionErr() error {
	if o.status.IsTerminal() {
		return &ClosedOrderError{Status: o.status}
	}
	return &ValidationError{Field: "status", Reason: "transition not allowed from " + string(o.status)}
}

// Repository defines atomic persistence for the repair-order aggregate.
// Save and Update bracket the order row and all part rows in one
// transaction; a partial write never survives.
type Repository interface {
	Save(ctx context.Context, order *Order) error
	Update(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	FindByVehicleID(ctx context.Context, vehicleID string) ([]*Order, error)
	Delete(ctx context.Context, id string) error
}
