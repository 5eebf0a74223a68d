// Command seed-db populates the database with a demo data set: an admin
// account, a customer with a vehicle, and a repair order with parts.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"garage/internal/domain/repair"
	"garage/internal/domain/user"
	"garage/internal/domain/vehicle"
	"garage/internal/repository"
)

func main() {
	var (
		databaseURL   string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&adminEmail, "admin-email", "admin@garage.local", "email for the seeded admin account")
	flag.StringVar(&adminPassword, "admin-password", "", "password for the seeded admin account (or GARAGE_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("GARAGE_SEED_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or GARAGE_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, adminEmail, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	users := repository.NewUserRepository(pool)
	vehicles := repository.NewVehicleRepository(pool)
	orders := repository.NewRepairOrderRepository(pool)

	if err := seedAdmin(ctx, users, adminEmail, adminPassword); err != nil {
		return errors.Wrap(err, "seed admin")
	}

	customer, err := seedCustomer(ctx, users)
	if err != nil {
		return errors.Wrap(err, "seed customer")
	}

	demoVehicle, err := seedVehicle(ctx, vehicles, customer)
	if err != nil {
		return errors.Wrap(err, "seed vehicle")
	}

	if err := seedOrder(ctx, orders, demoVehicle); err != nil {
		return errors.Wrap(err, "seed order")
	}

	return nil
}

func seedAdmin(ctx context.Context, users *repository.UserRepository, email, password string) error {
	if _, err := users.FindByEmail(ctx, email); err == nil {
		slog.Info("admin account already exists", slog.String("email", email))
		return nil
	} else if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	admin, err := user.New("Garage", "Admin", email, string(hash))
	if err != nil {
		return err
	}
	if err := admin.SetRole(string(user.RoleAdmin)); err != nil {
		return err
	}
	if err := users.Save(ctx, admin); err != nil {
		return err
	}

	slog.Info("seeded admin account", slog.String("email", email))
	return nil
}

func seedCustomer(ctx context.Context, users *repository.UserRepository) (*user.User, error) {
	const email = "jan.kowalski@example.com"

	if existing, err := users.FindByEmail(ctx, email); err == nil {
		slog.Info("demo customer already exists", slog.String("email", email))
		return existing, nil
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	customer, err := user.New("Jan", "Kowalski", email, string(hash))
	if err != nil {
		return nil, err
	}
	if err := users.Save(ctx, customer); err != nil {
		return nil, err
	}

	slog.Info("seeded demo customer", slog.String("email", email))
	return customer, nil
}

func seedVehicle(ctx context.Context, vehicles *repository.VehicleRepository, owner *user.User) (*vehicle.Vehicle, error) {
	const vin = "2B6HB21Y8LK730520"

	if existing, err := vehicles.FindByVIN(ctx, vin); err == nil {
		slog.Info("demo vehicle already exists", slog.String("vin", vin))
		return existing, nil
	} else if !errors.Is(err, vehicle.ErrNotFound) {
		return nil, err
	}

	v, err := vehicle.New(owner.ID(), "Dodge", "Ram", vin, "White")
	if err != nil {
		return nil, err
	}
	if err := vehicles.Save(ctx, v); err != nil {
		return nil, err
	}

	slog.Info("seeded demo vehicle", slog.String("vin", vin))
	return v, nil
}

func seedOrder(ctx context.Context, orders *repository.RepairOrderRepository, v *vehicle.Vehicle) error {
	existing, err := orders.FindByVehicleID(ctx, v.ID())
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		slog.Info("demo vehicle already has orders", slog.Int("count", len(existing)))
		return nil
	}

	order, err := repair.NewOrder(v.ID(), "Engine diagnostics and brake service", decimal.RequireFromString("250.00"))
	if err != nil {
		return err
	}

	pads, err := repair.NewPart(order.ID(), "BRK-100", "Brake pads", decimal.RequireFromString("45.50"), 4)
	if err != nil {
		return err
	}
	if err := order.AddPart(pads); err != nil {
		return err
	}

	filter, err := repair.NewPart(order.ID(), "FLT-200", "Oil filter", decimal.RequireFromString("12.99"), 1)
	if err != nil {
		return err
	}
	if err := order.AddPart(filter); err != nil {
		return err
	}

	if err := orders.Save(ctx, order); err != nil {
		return err
	}

	slog.Info("seeded demo repair order",
		slog.String("id", order.ID()),
		slog.String("total", order.TotalCost().String()),
	)
	return nil
}
