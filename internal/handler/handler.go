// Package handler exposes the garage API over HTTP.
package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"garage/internal/auth"
	"garage/internal/domain/repair"
	"garage/internal/domain/user"
	"garage/internal/domain/vehicle"
)

// Handler wires the HTTP routes to the domain services.
type Handler struct {
	repairs  *repair.Service
	orders   repair.Repository
	vehicles *vehicle.Service
	users    *user.Service
	tokens   *auth.TokenIssuer
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	repairs *repair.Service,
	orders repair.Repository,
	vehicles *vehicle.Service,
	users *user.Service,
	tokens *auth.TokenIssuer,
) *Handler {
	return &Handler{
		repairs:  repairs,
		orders:   orders,
		vehicles: vehicles,
		users:    users,
		tokens:   tokens,
	}
}

// Register mounts all routes on e. Everything except registration and login
// requires a valid bearer token.
func (h *Handler) Register(e *echo.Echo) {
	v1 := e.Group("/api/v1")

	v1.POST("/auth/register", h.RegisterUser)
	v1.POST("/auth/login", h.Login)

	secured := v1.Group("", h.RequireToken)
	secured.PUT("/users/role", h.ChangeRole, h.RequireAdmin)
	secured.DELETE("/users/:email", h.DeactivateUser, h.RequireAdmin)

	secured.POST("/vehicles", h.RegisterVehicle)
	secured.GET("/vehicles", h.ListVehicles)
	secured.PUT("/vehicles/:vin/color", h.RepaintVehicle)
	secured.GET("/vehicles/:id/orders", h.VehicleHistory)
	secured.GET("/vehicles/:id/costs", h.VehicleCosts)

	secured.POST("/orders", h.CreateOrder)
	secured.GET("/orders/:id", h.GetOrder)
	secured.DELETE("/orders/:id", h.DeleteOrder)
	secured.POST("/orders/:id/parts", h.AddPart)
	secured.POST("/orders/:id/start", h.StartRepair)
	secured.POST("/orders/:id/complete", h.CompleteRepair)
	secured.POST("/orders/:id/cancel", h.CancelRepair)
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func errJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, errorResponse{Code: code, Message: msg})
}

// mapDomainError converts domain errors to HTTP responses: validation
// failures to 400, missing entities to 404, state and uniqueness conflicts to
// 409. Anything unrecognized is logged and reported as 500 without leaking
// internals.
func mapDomainError(c echo.Context, err error) error {
	var validationErr *repair.ValidationError
	if errors.As(err, &validationErr) {
		return errJSON(c, http.StatusBadRequest, validationErr.Error())
	}
	switch {
	case errors.Is(err, vehicle.ErrInvalidVIN),
		errors.Is(err, vehicle.ErrEmptyField),
		errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, user.ErrEmptyName),
		errors.Is(err, user.ErrWeakPassword),
		errors.Is(err, user.ErrEmptyRole):
		return errJSON(c, http.StatusBadRequest, err.Error())
	}

	var notFoundErr *repair.NotFoundError
	if errors.As(err, &notFoundErr) {
		return errJSON(c, http.StatusNotFound, notFoundErr.Error())
	}
	if errors.Is(err, vehicle.ErrNotFound) || errors.Is(err, vehicle.ErrOwnerNotFound) ||
		errors.Is(err, user.ErrNotFound) {
		return errJSON(c, http.StatusNotFound, err.Error())
	}

	var closedErr *repair.ClosedOrderError
	if errors.As(err, &closedErr) {
		return errJSON(c, http.StatusConflict, closedErr.Error())
	}
	if errors.Is(err, vehicle.ErrVINTaken) || errors.Is(err, user.ErrEmailTaken) {
		return errJSON(c, http.StatusConflict, err.Error())
	}

	zctx.From(c.Request().Context()).Error("request failed",
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return errJSON(c, http.StatusInternalServerError, "internal error")
}
