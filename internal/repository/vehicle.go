package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"garage/internal/domain/repair"
	"garage/internal/domain/vehicle"
)

const (
	insertVehicleSQL = `INSERT INTO vehicles (id, owner_id, brand, model, vin, color)
	VALUES ($1, $2, $3, $4, $5, $6)`

	updateVehicleColorSQL = `UPDATE vehicles SET color = $1 WHERE id = $2`

	selectVehicleSQL = `SELECT id, owner_id, brand, model, vin, color FROM vehicles`

	deleteVehicleSQL = `DELETE FROM vehicles WHERE id = $1`

	existsVehicleSQL = `SELECT EXISTS (SELECT 1 FROM vehicles WHERE id = $1)`
)

var (
	_ vehicle.Repository   = (*VehicleRepository)(nil)
	_ repair.VehicleFinder = (*VehicleRepository)(nil)
)

// VehicleRepository implements vehicle.Repository backed by PostgreSQL. It
// also serves the repair service's vehicle-existence check.
type VehicleRepository struct {
	pool *pgxpool.Pool
}

// NewVehicleRepository returns a VehicleRepository using the given pool.
func NewVehicleRepository(pool *pgxpool.Pool) *VehicleRepository {
	return &VehicleRepository{pool: pool}
}

// Save persists a new vehicle.
func (r *VehicleRepository) Save(ctx context.Context, v *vehicle.Vehicle) error {
	_, err := r.pool.Exec(ctx, insertVehicleSQL,
		v.ID(), v.OwnerID(), v.Brand(), v.Model(), v.VIN(), v.Color(),
	)
	if err != nil {
		return errors.Wrapf(err, "insert vehicle %q", v.ID())
	}
	return nil
}

// FindByID returns the vehicle with the given id or vehicle.ErrNotFound.
func (r *VehicleRepository) FindByID(ctx context.Context, id string) (*vehicle.Vehicle, error) {
	return r.findOne(ctx, selectVehicleSQL+` WHERE id = $1`, id)
}

// FindByVIN returns the vehicle with the given VIN or vehicle.ErrNotFound.
func (r *VehicleRepository) FindByVIN(ctx context.Context, vin string) (*vehicle.Vehicle, error) {
	return r.findOne(ctx, selectVehicleSQL+` WHERE vin = $1`, vin)
}

// FindByOwnerID returns every vehicle registered to the owner.
func (r *VehicleRepository) FindByOwnerID(ctx context.Context, ownerID string) ([]*vehicle.Vehicle, error) {
	rows, err := r.pool.Query(ctx, selectVehicleSQL+` WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, errors.Wrapf(err, "query vehicles for owner %q", ownerID)
	}
	defer rows.Close()

	vehicles := make([]*vehicle.Vehicle, 0)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, errors.Wrapf(err, "scan vehicle for owner %q", ownerID)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// UpdateColor persists a color change.
func (r *VehicleRepository) UpdateColor(ctx context.Context, v *vehicle.Vehicle) error {
	_, err := r.pool.Exec(ctx, updateVehicleColorSQL, v.Color(), v.ID())
	if err != nil {
		return errors.Wrapf(err, "update vehicle %q", v.ID())
	}
	return nil
}

// Delete removes the vehicle row.
func (r *VehicleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, deleteVehicleSQL, id); err != nil {
		return errors.Wrapf(err, "delete vehicle %q", id)
	}
	return nil
}

// Exists reports whether a vehicle with the given id is registered. Serves
// the repair service's order-creation precondition.
func (r *VehicleRepository) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, existsVehicleSQL, id).Scan(&ok); err != nil {
		return false, errors.Wrapf(err, "check vehicle %q", id)
	}
	return ok, nil
}

func (r *VehicleRepository) findOne(ctx context.Context, sql string, arg any) (*vehicle.Vehicle, error) {
	v, err := scanVehicle(r.pool.QueryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, vehicle.ErrNotFound
		}
		return nil, errors.Wrap(err, "find vehicle")
	}
	return v, nil
}

func scanVehicle(row pgx.Row) (*vehicle.Vehicle, error) {
	var id, ownerID, brand, model, vin, color string
	if err := row.Scan(&id, &ownerID, &brand, &model, &vin, &color); err != nil {
		return nil, err
	}
	return vehicle.Restore(id, ownerID, brand, model, vin, color)
}
