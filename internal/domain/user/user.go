// Package user holds the workshop account entity and registration /
// authentication rules.
package user

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Role is the coarse permission level of an account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrInvalidEmail   = errors.New("invalid email format")
	ErrEmptyName      = errors.New("name cannot be empty")
	ErrWeakPassword   = errors.New("password must be at least 6 characters")
	ErrEmptyRole      = errors.New("role cannot be empty")
	ErrBadCredentials = errors.New("invalid credentials")
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@.+$`)

// User is a workshop account. The password is stored only as a bcrypt hash.
type User struct {
	id           string
	firstName    string
	lastName     string
	email        string
	passwordHash string
	role         Role
	active       bool
	createdAt    time.Time
}

// New creates an active USER-role account with a generated id. The password
// hash must already be computed; hashing lives in the service.
func New(firstName, lastName, email, passwordHash string) (*User, error) {
	return Restore(uuid.New().String(), firstName, lastName, email, passwordHash, RoleUser, true, time.Now().UTC())
}

// Restore rebuilds an account from persisted attributes.
func Restore(id, firstName, lastName, email, passwordHash string, role Role, active bool, createdAt time.Time) (*User, error) {
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return nil, ErrEmptyName
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	return &User{
		id:           id,
		firstName:    firstName,
		lastName:     lastName,
		email:        email,
		passwordHash: passwordHash,
		role:         role,
		active:       active,
		createdAt:    createdAt,
	}, nil
}

func (u *User) ID() string           { return u.id }
func (u *User) FirstName() string    { return u.firstName }
func (u *User) LastName() string     { return u.lastName }
func (u *User) Email() string        { return u.email }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) Role() Role           { return u.role }
func (u *User) IsActive() bool       { return u.active }
func (u *User) CreatedAt() time.Time { return u.createdAt }

// SetRole replaces the account role. Roles are stored upper-cased.
func (u *User) SetRole(role string) error {
	if role == "" {
		return ErrEmptyRole
	}
	u.role = Role(strings.ToUpper(role))
	return nil
}

// Deactivate disables the account. Deactivated accounts fail authentication.
func (u *User) Deactivate() {
	u.active = false
}

// Repository defines single-row persistence for accounts.
type Repository interface {
	Save(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
}
