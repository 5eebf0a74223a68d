package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"garage/internal/domain/user"
)

const (
	insertUserSQL = `INSERT INTO users (id, first_name, last_name, email, password, role, active, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	updateUserSQL = `UPDATE users SET first_name = $1, last_name = $2, password = $3, role = $4, active = $5
	WHERE id = $6`

	selectUserSQL = `SELECT id, first_name, last_name, email, password, role, active, created_at FROM users`

	existsUserSQL = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL. All
// operations are single-row writes; no transaction bracketing is needed.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository using the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Save persists a new account.
func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	_, err := r.pool.Exec(ctx, insertUserSQL,
		u.ID(), u.FirstName(), u.LastName(), u.Email(), u.PasswordHash(),
		string(u.Role()), u.IsActive(), u.CreatedAt(),
	)
	if err != nil {
		return errors.Wrapf(err, "insert user %q", u.ID())
	}
	return nil
}

// FindByID returns the account with the given id or user.ErrNotFound.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	return r.findOne(ctx, selectUserSQL+` WHERE id = $1`, id)
}

// FindByEmail returns the account registered under email or user.ErrNotFound.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, selectUserSQL+` WHERE email = $1`, email)
}

// Update rewrites the account's mutable columns.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	_, err := r.pool.Exec(ctx, updateUserSQL,
		u.FirstName(), u.LastName(), u.PasswordHash(), string(u.Role()), u.IsActive(), u.ID(),
	)
	if err != nil {
		return errors.Wrapf(err, "update user %q", u.ID())
	}
	return nil
}

// Exists reports whether an account with the given id is registered. Serves
// the vehicle service's owner check.
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, existsUserSQL, id).Scan(&ok); err != nil {
		return false, errors.Wrapf(err, "check user %q", id)
	}
	return ok, nil
}

func (r *UserRepository) findOne(ctx context.Context, sql string, arg any) (*user.User, error) {
	var (
		id, firstName, lastName, email, password, role string
		active                                         bool
		createdAt                                      time.Time
	)
	err := r.pool.QueryRow(ctx, sql, arg).
		Scan(&id, &firstName, &lastName, &email, &password, &role, &active, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, errors.Wrap(err, "find user")
	}

	return user.Restore(id, firstName, lastName, email, password, user.Role(role), active, createdAt)
}
