package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"garage/internal/domain/repair"
)

const (
	insertOrderSQL = `INSERT INTO repair_orders (id, vehicle_id, description, cost, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

	updateOrderSQL = `UPDATE repair_orders SET description = $1, cost = $2, status = $3 WHERE id = $4`

	selectOrderSQL = `SELECT id, vehicle_id, description, cost, status, created_at
	FROM repair_orders WHERE id = $1`

	selectOrdersByVehicleSQL = `SELECT id, vehicle_id, description, cost, status, created_at
	FROM repair_orders WHERE vehicle_id = $1 ORDER BY created_at`

	deleteOrderSQL = `DELETE FROM repair_orders WHERE id = $1`

	insertPartSQL = `INSERT INTO parts (id, repair_order_id, part_code, name, description, price, quantity)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	deletePartsSQL = `DELETE FROM parts WHERE repair_order_id = $1`

	selectPartsSQL = `SELECT id, repair_order_id, part_code, name, description, price, quantity
	FROM parts WHERE repair_order_id = $1 ORDER BY id`
)

var _ repair.Repository = (*RepairOrderRepository)(nil)

// RepairOrderRepository persists the repair-order aggregate (order row plus
// all part rows) as a single atomic unit.
//
// Transaction discipline: Save and Update bracket every statement in one pgx
// transaction with commit-or-rollback semantics. On any failure the whole
// write is rolled back before the error propagates; the store never leaves
// an order row without its parts or vice versa. A failure of the rollback
// itself is logged and does not replace the original error. Part rows are
// removed on order deletion by the schema's ON DELETE CASCADE, not by
// application code.
type RepairOrderRepository struct {
	pool *pgxpool.Pool
}

// NewRepairOrderRepository returns a RepairOrderRepository using the given pool.
func NewRepairOrderRepository(pool *pgxpool.Pool) *RepairOrderRepository {
	return &RepairOrderRepository{pool: pool}
}

// Save inserts the order row and one row per part in a single transaction.
func (r *RepairOrderRepository) Save(ctx context.Context, o *repair.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer rollback(ctx, tx)

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID(), o.VehicleID(), o.Description(), o.ServiceCost(), o.Status().String(), o.CreatedAt(),
	)
	if err != nil {
		return errors.Wrapf(err, "insert order %q", o.ID())
	}

	if err := insertParts(ctx, tx, o.Parts()); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrapf(err, "commit order %q", o.ID())
	}
	return nil
}

// Update rewrites the order's mutable columns and replaces the entire part
// set (delete-all-then-reinsert, no diffing) in a single transaction.
// Calling it twice with the same aggregate yields the same part set.
func (r *RepairOrderRepository) Update(ctx context.Context, o *repair.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer rollback(ctx, tx)

	_, err = tx.Exec(ctx, updateOrderSQL,
		o.Description(), o.ServiceCost(), o.Status().String(), o.ID(),
	)
	if err != nil {
		return errors.Wrapf(err, "update order %q", o.ID())
	}

	if _, err := tx.Exec(ctx, deletePartsSQL, o.ID()); err != nil {
		return errors.Wrapf(err, "delete parts of order %q", o.ID())
	}

	if err := insertParts(ctx, tx, o.Parts()); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrapf(err, "commit order %q", o.ID())
	}
	return nil
}

// FindByID loads the order row and its part rows and assembles the
// aggregate. Returns repair.ErrOrderNotFound when no row matches.
func (r *RepairOrderRepository) FindByID(ctx context.Context, id string) (*repair.Order, error) {
	row := r.pool.QueryRow(ctx, selectOrderSQL, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repair.ErrOrderNotFound
		}
		return nil, errors.Wrapf(err, "find order %q", id)
	}

	if err := r.loadParts(ctx, o); err != nil {
		return nil, errors.Wrapf(err, "load parts of order %q", id)
	}
	return o, nil
}

// FindByVehicleID returns every order for the vehicle with parts loaded.
// A vehicle with no orders yields an empty slice, not an error.
func (r *RepairOrderRepository) FindByVehicleID(ctx context.Context, vehicleID string) ([]*repair.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrdersByVehicleSQL, vehicleID)
	if err != nil {
		return nil, errors.Wrapf(err, "query orders for vehicle %q", vehicleID)
	}
	defer rows.Close()

	orders := make([]*repair.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrapf(err, "scan order for vehicle %q", vehicleID)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "iterate orders for vehicle %q", vehicleID)
	}
	rows.Close()

	for _, o := range orders {
		if err := r.loadParts(ctx, o); err != nil {
			return nil, errors.Wrapf(err, "load parts of order %q", o.ID())
		}
	}
	return orders, nil
}

// Delete removes the order row. Part rows go with it via the cascade.
func (r *RepairOrderRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, deleteOrderSQL, id); err != nil {
		return errors.Wrapf(err, "delete order %q", id)
	}
	return nil
}

func (r *RepairOrderRepository) loadParts(ctx context.Context, o *repair.Order) error {
	rows, err := r.pool.Query(ctx, selectPartsSQL, o.ID())
	if err != nil {
		return errors.Wrap(err, "query parts")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, orderID, code, name, description string
			price                                decimal.Decimal
			quantity                             int
		)
		if err := rows.Scan(&id, &orderID, &code, &name, &description, &price, &quantity); err != nil {
			return errors.Wrap(err, "scan part")
		}

		p, err := repair.RestorePart(id, orderID, code, name, description, price, quantity)
		if err != nil {
			return errors.Wrapf(err, "restore part %q", id)
		}
		if err := o.AddPart(p); err != nil {
			return errors.Wrapf(err, "attach part %q", id)
		}
	}
	return rows.Err()
}

func insertParts(ctx context.Context, tx pgx.Tx, parts []*repair.Part) error {
	for _, p := range parts {
		_, err := tx.Exec(ctx, insertPartSQL,
			p.ID(), p.RepairOrderID(), p.Code(), p.Name(), p.Description(), p.Price(), p.Quantity(),
		)
		if err != nil {
			return errors.Wrapf(err, "insert part %q", p.ID())
		}
	}
	return nil
}

// scanOrder maps one repair_orders row to an aggregate (without parts). An
// unrecognized status value is a deserialization error, never coerced to a
// default state.
func scanOrder(row pgx.Row) (*repair.Order, error) {
	var (
		id, vehicleID, description, rawStatus string
		cost                                  decimal.Decimal
		createdAt                             time.Time
	)
	if err := row.Scan(&id, &vehicleID, &description, &cost, &rawStatus, &createdAt); err != nil {
		return nil, err
	}

	status, err := repair.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	return repair.RestoreOrder(id, vehicleID, description, cost, status, createdAt, nil)
}

// rollback is deferred by every transactional write. After a successful
// commit it is a no-op (pgx reports ErrTxClosed). A genuine rollback failure
// is reported through the log, never raised over the original error.
func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		zctx.From(ctx).Error("transaction rollback failed", zap.Error(err))
	}
}
