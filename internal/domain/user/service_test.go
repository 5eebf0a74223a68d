package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	byEmail map[string]*User

	saveErr error
	findErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byEmail: make(map[string]*User)}
}

func (m *mockUserRepo) Save(_ context.Context, u *User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.byEmail[u.Email()] = u
	return nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*User, error) {
	for _, u := range m.byEmail {
		if u.ID() == id {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) Update(_ context.Context, u *User) error {
	m.byEmail[u.Email()] = u
	return nil
}

func TestRegister_HashesPassword(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo)

	u, err := svc.Register(context.Background(), "Jan", "Kowalski", "jan@kowalski.pl", "test123")
	require.NoError(t, err)

	assert.NotEqual(t, "test123", u.PasswordHash())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash()), []byte("test123")))
	assert.Equal(t, RoleUser, u.Role())
	assert.True(t, u.IsActive())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo)

	_, err := svc.Register(context.Background(), "Jan", "Kowalski", "jan@kowalski.pl", "test123")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Inny", "Jan", "jan@kowalski.pl", "test456")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_Validation(t *testing.T) {
	svc := NewService(newMockUserRepo())

	_, err := svc.Register(context.Background(), "Jan", "Kowalski", "jan@kowalski.pl", "short")
	require.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.Register(context.Background(), "", "Kowalski", "jan@kowalski.pl", "test123")
	require.ErrorIs(t, err, ErrEmptyName)

	_, err = svc.Register(context.Background(), "Jan", "Kowalski", "not-an-email", "test123")
	require.ErrorIs(t, err, ErrInvalidEmail)
}

func TestAuthenticate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo)

	_, err := svc.Register(context.Background(), "Jan", "Kowalski", "jan@kowalski.pl", "test123")
	require.NoError(t, err)

	u, err := svc.Authenticate(context.Background(), "jan@kowalski.pl", "test123")
	require.NoError(t, err)
	assert.Equal(t, "jan@kowalski.pl", u.Email())

	_, err = svc.Authenticate(context.Background(), "jan@kowalski.pl", "wrong")
	require.ErrorIs(t, err, ErrBadCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@nowhere.pl", "test123")
	require.ErrorIs(t, err, ErrBadCredentials)
}

func TestAuthenticate_InactiveAccount(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo)

	_, err := svc.Register(context.Background(), "Jan", "Nowak", "jan@nowak.pl", "test123")
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(context.Background(), "jan@nowak.pl"))

	_, err = svc.Authenticate(context.Background(), "jan@nowak.pl", "test123")
	require.ErrorIs(t, err, ErrBadCredentials)
}

func TestChangeRole(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo)

	_, err := svc.Register(context.Background(), "Adam", "Nowak", "adam@nowak.pl", "test123")
	require.NoError(t, err)

	require.NoError(t, svc.ChangeRole(context.Background(), "adam@nowak.pl", "admin"))
	u, err := repo.FindByEmail(context.Background(), "adam@nowak.pl")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, u.Role())

	require.ErrorIs(t, svc.ChangeRole(context.Background(), "adam@nowak.pl", ""), ErrEmptyRole)
	require.ErrorIs(t, svc.ChangeRole(context.Background(), "missing@nowak.pl", "ADMIN"), ErrNotFound)
}
