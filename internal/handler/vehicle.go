package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"garage/internal/domain/vehicle"
)

type registerVehicleRequest struct {
	OwnerID string `json:"ownerId"`
	Brand   string `json:"brand"`
	Model   string `json:"model"`
	VIN     string `json:"vin"`
	Color   string `json:"color"`
}

type vehicleResponse struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	Brand   string `json:"brand"`
	Model   string `json:"model"`
	VIN     string `json:"vin"`
	Color   string `json:"color"`
}

func toVehicleResponse(v *vehicle.Vehicle) vehicleResponse {
	return vehicleResponse{
		ID:      v.ID(),
		OwnerID: v.OwnerID(),
		Brand:   v.Brand(),
		Model:   v.Model(),
		VIN:     v.VIN(),
		Color:   v.Color(),
	}
}

// RegisterVehicle handles POST /api/v1/vehicles. When ownerId is omitted the
// vehicle is registered to the authenticated caller.
func (h *Handler) RegisterVehicle(c echo.Context) error {
	var req registerVehicleRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.OwnerID == "" {
		if claims := currentClaims(c); claims != nil {
			req.OwnerID = claims.UserID
		}
	}

	v, err := h.vehicles.Register(c.Request().Context(), req.OwnerID, req.Brand, req.Model, req.VIN, req.Color)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, toVehicleResponse(v))
}

// ListVehicles handles GET /api/v1/vehicles. An ownerId query parameter
// overrides the default of listing the caller's own vehicles.
func (h *Handler) ListVehicles(c echo.Context) error {
	ownerID := c.QueryParam("ownerId")
	if ownerID == "" {
		claims := currentClaims(c)
		if claims == nil {
			return errJSON(c, http.StatusBadRequest, "ownerId required")
		}
		ownerID = claims.UserID
	}

	vehicles, err := h.vehicles.ByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return mapDomainError(c, err)
	}

	resp := make([]vehicleResponse, len(vehicles))
	for i, v := range vehicles {
		resp[i] = toVehicleResponse(v)
	}
	return c.JSON(http.StatusOK, resp)
}

type repaintRequest struct {
	Color string `json:"color"`
}

// RepaintVehicle handles PUT /api/v1/vehicles/:vin/color.
func (h *Handler) RepaintVehicle(c echo.Context) error {
	var req repaintRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid request body")
	}

	if err := h.vehicles.ChangeColor(c.Request().Context(), c.Param("vin"), req.Color); err != nil {
		return mapDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
