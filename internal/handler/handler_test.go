package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garage/internal/auth"
	"garage/internal/domain/repair"
	"garage/internal/domain/user"
	"garage/internal/domain/vehicle"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	orders map[string]*repair.Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*repair.Order)}
}

func (m *mockOrderRepo) Save(_ context.Context, o *repair.Order) error {
	m.orders[o.ID()] = o
	return nil
}

func (m *mockOrderRepo) Update(_ context.Context, o *repair.Order) error {
	m.orders[o.ID()] = o
	return nil
}

func (m *mockOrderRepo) FindByID(_ context.Context, id string) (*repair.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repair.ErrOrderNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) FindByVehicleID(_ context.Context, vehicleID string) ([]*repair.Order, error) {
	out := make([]*repair.Order, 0)
	for _, o := range m.orders {
		if o.VehicleID() == vehicleID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) Delete(_ context.Context, id string) error {
	delete(m.orders, id)
	return nil
}

type mockVehicleRepo struct {
	vehicles map[string]*vehicle.Vehicle
}

func newMockVehicleRepo() *mockVehicleRepo {
	return &mockVehicleRepo{vehicles: make(map[string]*vehicle.Vehicle)}
}

func (m *mockVehicleRepo) Save(_ context.Context, v *vehicle.Vehicle) error {
	m.vehicles[v.ID()] = v
	return nil
}

func (m *mockVehicleRepo) FindByID(_ context.Context, id string) (*vehicle.Vehicle, error) {
	v, ok := m.vehicles[id]
	if !ok {
		return nil, vehicle.ErrNotFound
	}
	return v, nil
}

func (m *mockVehicleRepo) FindByVIN(_ context.Context, vin string) (*vehicle.Vehicle, error) {
	for _, v := range m.vehicles {
		if v.VIN() == vin {
			return v, nil
		}
	}
	return nil, vehicle.ErrNotFound
}

func (m *mockVehicleRepo) FindByOwnerID(_ context.Context, ownerID string) ([]*vehicle.Vehicle, error) {
	out := make([]*vehicle.Vehicle, 0)
	for _, v := range m.vehicles {
		if v.OwnerID() == ownerID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockVehicleRepo) UpdateColor(_ context.Context, v *vehicle.Vehicle) error {
	m.vehicles[v.ID()] = v
	return nil
}

func (m *mockVehicleRepo) Delete(_ context.Context, id string) error {
	delete(m.vehicles, id)
	return nil
}

func (m *mockVehicleRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := m.vehicles[id]
	return ok, nil
}

type mockUserRepo struct {
	users map[string]*user.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*user.User)}
}

func (m *mockUserRepo) Save(_ context.Context, u *user.User) error {
	m.users[u.ID()] = u
	return nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *mockUserRepo) Update(_ context.Context, u *user.User) error {
	m.users[u.ID()] = u
	return nil
}

// --- Test fixture ---

type fixture struct {
	e        *echo.Echo
	orders   *mockOrderRepo
	vehicles *mockVehicleRepo
	users    *mockUserRepo
	tokens   *auth.TokenIssuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	orders := newMockOrderRepo()
	vehicles := newMockVehicleRepo()
	users := newMockUserRepo()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)

	h := NewHandler(
		repair.NewService(orders, vehicles),
		orders,
		vehicle.NewService(vehicles, &staticOwnerFinder{}),
		user.NewService(users),
		tokens,
	)

	e := echo.New()
	h.Register(e)

	return &fixture{e: e, orders: orders, vehicles: vehicles, users: users, tokens: tokens}
}

type staticOwnerFinder struct{}

func (staticOwnerFinder) Exists(context.Context, string) (bool, error) { return true, nil }

func (f *fixture) token(t *testing.T, role string) string {
	t.Helper()
	u, err := user.New("Test", "User", role+"@example.com", "hash")
	require.NoError(t, err)
	require.NoError(t, u.SetRole(role))

	token, err := f.tokens.Issue(u)
	require.NoError(t, err)
	return token
}

func (f *fixture) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) addVehicle(t *testing.T) *vehicle.Vehicle {
	t.Helper()
	v, err := vehicle.New("owner-1", "Dodge", "Ram", "2B6HB21Y8LK730520", "White")
	require.NoError(t, err)
	require.NoError(t, f.vehicles.Save(context.Background(), v))
	return v
}

// --- Tests ---

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	v := f.addVehicle(t)
	token := f.token(t, "USER")

	rec := f.do(t, http.MethodPost, "/api/v1/orders", token,
		`{"vehicleId":"`+v.ID()+`","description":"brakes","serviceCost":"250.00"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, v.ID(), resp.VehicleID)
	assert.Equal(t, "OPEN", resp.Status)
	assert.True(t, decimal.RequireFromString("250.00").Equal(resp.TotalCost))
}

func TestCreateOrder_UnknownVehicle(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "USER")

	rec := f.do(t, http.MethodPost, "/api/v1/orders", token,
		`{"vehicleId":"ghost","description":"brakes","serviceCost":"250.00"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateOrder_Unauthorized(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/orders", "",
		`{"vehicleId":"v1","description":"brakes","serviceCost":"1.00"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddPart(t *testing.T) {
	f := newFixture(t)
	v := f.addVehicle(t)
	token := f.token(t, "USER")

	order, err := repair.NewOrder(v.ID(), "brakes", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, f.orders.Save(context.Background(), order))

	rec := f.do(t, http.MethodPost, "/api/v1/orders/"+order.ID()+"/parts", token,
		`{"code":"BRK-100","name":"Brake pads","price":"45.50","quantity":4}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/v1/orders/"+order.ID(), token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Parts, 1)
	assert.True(t, decimal.RequireFromString("182.00").Equal(resp.Parts[0].Total))
	assert.True(t, decimal.RequireFromString("282.00").Equal(resp.TotalCost))
}

func TestAddPart_ClosedOrder(t *testing.T) {
	f := newFixture(t)
	v := f.addVehicle(t)
	token := f.token(t, "USER")

	order, err := repair.NewOrder(v.ID(), "brakes", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, order.Cancel())
	require.NoError(t, f.orders.Save(context.Background(), order))

	rec := f.do(t, http.MethodPost, "/api/v1/orders/"+order.ID()+"/parts", token,
		`{"code":"BRK-100","name":"Brake pads","price":"45.50","quantity":4}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAddPart_InvalidQuantity(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "USER")

	rec := f.do(t, http.MethodPost, "/api/v1/orders/some-order/parts", token,
		`{"code":"BRK-100","name":"Brake pads","price":"45.50","quantity":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "USER")

	rec := f.do(t, http.MethodGet, "/api/v1/orders/ghost", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompleteOrder_MissingIsNoOp(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "USER")

	rec := f.do(t, http.MethodPost, "/api/v1/orders/ghost/complete", token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLifecycle(t *testing.T) {
	f := newFixture(t)
	v := f.addVehicle(t)
	token := f.token(t, "USER")

	order, err := repair.NewOrder(v.ID(), "brakes", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, f.orders.Save(context.Background(), order))

	rec := f.do(t, http.MethodPost, "/api/v1/orders/"+order.ID()+"/start", token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/orders/"+order.ID()+"/complete", token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	got, err := f.orders.FindByID(context.Background(), order.ID())
	require.NoError(t, err)
	assert.Equal(t, repair.StatusCompleted, got.Status())
}

func TestVehicleCosts(t *testing.T) {
	f := newFixture(t)
	v := f.addVehicle(t)
	token := f.token(t, "USER")

	o1, err := repair.NewOrder(v.ID(), "first", decimal.RequireFromString("100.00"))
	require.NoError(t, err)
	require.NoError(t, f.orders.Save(context.Background(), o1))
	o2, err := repair.NewOrder(v.ID(), "second", decimal.RequireFromString("200.50"))
	require.NoError(t, err)
	require.NoError(t, f.orders.Save(context.Background(), o2))

	rec := f.do(t, http.MethodGet, "/api/v1/vehicles/"+v.ID()+"/costs", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp costsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, decimal.RequireFromString("300.5").Equal(resp.Total))
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/register", "",
		`{"firstName":"Jan","lastName":"Kowalski","email":"jan@kowalski.pl","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v1/auth/login", "",
		`{"email":"jan@kowalski.pl","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "jan@kowalski.pl", resp.User.Email)

	// Issued token is accepted by the secured routes.
	rec = f.do(t, http.MethodGet, "/api/v1/vehicles", resp.Token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/register", "",
		`{"firstName":"Jan","lastName":"Kowalski","email":"jan@kowalski.pl","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/login", "",
		`{"email":"jan@kowalski.pl","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)

	body := `{"firstName":"Jan","lastName":"Kowalski","email":"jan@kowalski.pl","password":"secret1"}`
	rec := f.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestChangeRole_RequiresAdmin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/v1/users/role", f.token(t, "USER"),
		`{"email":"jan@kowalski.pl","role":"ADMIN"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestChangeRole_Admin(t *testing.T) {
	f := newFixture(t)

	u, err := user.New("Jan", "Kowalski", "jan@kowalski.pl", "hash")
	require.NoError(t, err)
	require.NoError(t, f.users.Save(context.Background(), u))

	rec := f.do(t, http.MethodPut, "/api/v1/users/role", f.token(t, "ADMIN"),
		`{"email":"jan@kowalski.pl","role":"ADMIN"}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	got, err := f.users.FindByID(context.Background(), u.ID())
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, got.Role())
}

func TestRegisterVehicle_DefaultsToCaller(t *testing.T) {
	f := newFixture(t)

	u, err := user.New("Jan", "Kowalski", "jan@kowalski.pl", "hash")
	require.NoError(t, err)
	token, err := f.tokens.Issue(u)
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/v1/vehicles", token,
		`{"brand":"Dodge","model":"Ram","vin":"2B6HB21Y8LK730520","color":"White"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp vehicleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, u.ID(), resp.OwnerID)
}

func TestRepaintVehicle(t *testing.T) {
	f := newFixture(t)
	v := f.addVehicle(t)
	token := f.token(t, "USER")

	rec := f.do(t, http.MethodPut, "/api/v1/vehicles/"+v.VIN()+"/color", token, `{"color":"Black"}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	got, err := f.vehicles.FindByVIN(context.Background(), v.VIN())
	require.NoError(t, err)
	assert.Equal(t, "Black", got.Color())
}
