package repair

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// VehicleFinder answers the existence check performed before an order is
// created. Implemented by the vehicle repository.
type VehicleFinder interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Service enforces the business rules spanning a repair order and its
// collaborators: vehicle existence on creation and the closed-order guard on
// part additions. Status writes themselves go through the store
// unconditionally; the guard lives here.
type Service struct {
	orders   Repository
	vehicles VehicleFinder
}

// NewService creates a repair Service with the required dependencies.
func NewService(orders Repository, vehicles VehicleFinder) *Service {
	return &Service{
		orders:   orders,
		vehicles: vehicles,
	}
}

// CreateOrder persists a new order after checking that the referenced
// vehicle exists. Returns ErrVehicleNotFound otherwise.
func (s *Service) CreateOrder(ctx context.Context, order *Order) error {
	ok, err := s.vehicles.Exists(ctx, order.VehicleID())
	if err != nil {
		return errors.Wrap(err, "check vehicle")
	}
	if !ok {
		return ErrVehicleNotFound
	}

	if err := s.orders.Save(ctx, order); err != nil {
		return errors.Wrap(err, "save order")
	}
	return nil
}

// AddPart loads the order, rejects the addition when the order is in a
// terminal status, and otherwise persists the grown aggregate. The store is
// never written for a closed order.
func (s *Service) AddPart(ctx context.Context, orderID string, part *Part) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	if order.Status().IsTerminal() {
		return &ClosedOrderError{Status: order.Status()}
	}

	if err := order.AddPart(part); err != nil {
		return err
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return errors.Wrap(err, "update order")
	}
	return nil
}

// StartRepair moves an order from OPEN to IN_PROGRESS and persists it.
func (s *Service) StartRepair(ctx context.Context, orderID string) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	if err := order.Start(); err != nil {
		return err
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return errors.Wrap(err, "update order")
	}
	return nil
}

// CompleteRepair sets the order's status to COMPLETED and persists it. A
// missing order is a silent no-op: callers needing confirmation must verify
// separately.
func (s *Service) CompleteRepair(ctx context.Context, orderID string) error {
	return s.close(ctx, orderID, (*Order).Complete)
}

// CancelRepair sets the order's status to CANCELLED and persists it. Missing
// orders are a silent no-op, same as CompleteRepair.
func (s *Service) CancelRepair(ctx context.Context, orderID string) error {
	return s.close(ctx, orderID, (*Order).Cancel)
}

func (s *Service) close(ctx context.Context, orderID string, transition func(*Order) error) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil
		}
		return err
	}

	if err := transition(order); err != nil {
		return err
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return errors.Wrap(err, "update order")
	}
	return nil
}

// TotalRepairCosts sums total cost (service cost plus parts) across every
// order for the vehicle. A vehicle with no orders sums to exactly zero.
func (s *Service) TotalRepairCosts(ctx context.Context, vehicleID string) (decimal.Decimal, error) {
	orders, err := s.orders.FindByVehicleID(ctx, vehicleID)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "load orders")
	}

	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.TotalCost())
	}
	return total, nil
}

// VehicleHistory returns every order for the vehicle in store order.
func (s *Service) VehicleHistory(ctx context.Context, vehicleID string) ([]*Order, error) {
	orders, err := s.orders.FindByVehicleID(ctx, vehicleID)
	if err != nil {
		return nil, errors.Wrap(err, "load orders")
	}
	return orders, nil
}
