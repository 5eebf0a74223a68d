package user

import (
	"context"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"
)

// Service handles account registration and authentication on top of the
// repository. Passwords are bcrypt-hashed before they reach the store.
type Service struct {
	users Repository
}

// NewService creates a user Service.
func NewService(users Repository) *Service {
	return &Service{users: users}
}

// Register creates a new account. The email must be unused and the password
// at least 6 characters.
func (s *Service) Register(ctx context.Context, firstName, lastName, email, password string) (*User, error) {
	if len(password) < 6 {
		return nil, ErrWeakPassword
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u, err := New(firstName, lastName, email, string(hash))
	if err != nil {
		return nil, err
	}

	if err := s.users.Save(ctx, u); err != nil {
		return nil, errors.Wrap(err, "save user")
	}
	return u, nil
}

// Authenticate verifies the credentials against the stored hash. Inactive
// accounts always fail with ErrBadCredentials, same as a wrong password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, errors.Wrap(err, "find user")
	}

	if !u.IsActive() {
		return nil, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash()), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// ChangeRole updates the role of the account registered under email.
func (s *Service) ChangeRole(ctx context.Context, email, role string) error {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	if err := u.SetRole(role); err != nil {
		return err
	}

	if err := s.users.Update(ctx, u); err != nil {
		return errors.Wrap(err, "update user")
	}
	return nil
}

// Deactivate disables the account registered under email.
func (s *Service) Deactivate(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	u.Deactivate()

	if err := s.users.Update(ctx, u); err != nil {
		return errors.Wrap(err, "update user")
	}
	return nil
}
