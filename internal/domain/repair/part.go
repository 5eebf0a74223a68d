package repair

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValidationError indicates a field that failed construction-time validation.
// Invalid entities are rejected before they can ever reach the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Part is a line item billed against a repair order. Identity, owning order,
// and part code are fixed at construction; only the quantity may change.
type Part struct {
	id            string
	repairOrderID string
	code          string
	name          string
	description   string
	price         decimal.Decimal
	quantity      int
}

// NewPart creates a part with a generated id and an empty description.
func NewPart(repairOrderID, code, name string, price decimal.Decimal, quantity int) (*Part, error) {
	return RestorePart(uuid.New().String(), repairOrderID, code, name, "", price, quantity)
}

// RestorePart builds a part from explicit attributes. Used both by callers
// that supply their own ids and by the store when loading persisted rows.
func RestorePart(id, repairOrderID, code, name, description string, price decimal.Decimal, quantity int) (*Part, error) {
	switch {
	case id == "":
		return nil, &ValidationError{Field: "part id", Reason: "cannot be empty"}
	case repairOrderID == "":
		return nil, &ValidationError{Field: "repair order id", Reason: "cannot be empty"}
	case code == "":
		return nil, &ValidationError{Field: "part code", Reason: "cannot be empty"}
	case quantity < 0:
		return nil, &ValidationError{Field: "quantity", Reason: "cannot be negative"}
	}

	return &Part{
		id:            id,
		repairOrderID: repairOrderID,
		code:          code,
		name:          name,
		description:   description,
		price:         price,
		quantity:      quantity,
	}, nil
}

func (p *Part) ID() string             { return p.id }
func (p *Part) RepairOrderID() string  { return p.repairOrderID }
func (p *Part) Code() string           { return p.code }
func (p *Part) Name() string           { return p.name }
func (p *Part) Description() string    { return p.description }
func (p *Part) Price() decimal.Decimal { return p.price }
func (p *Part) Quantity() int          { return p.quantity }

// SetQuantity changes the billed quantity. Negative quantities are rejected.
func (p *Part) SetQuantity(quantity int) error {
	if quantity < 0 {
		return &ValidationError{Field: "quantity", Reason: "cannot be negative"}
	}
	p.quantity = quantity
	return nil
}

// TotalPrice is unit price times quantity, computed in exact decimal
// arithmetic.
func (p *Part) TotalPrice() decimal.Decimal {
	return p.price.Mul(decimal.NewFromInt(int64(p.quantity)))
}

// IsSameProduct compares two parts by product identity (part code), not by
// row identity.
func (p *Part) IsSameProduct(other *Part) bool {
	return other != nil && p.code == other.code
}
