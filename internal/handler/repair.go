package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"garage/internal/domain/repair"
)

type createOrderRequest struct {
	VehicleID   string          `json:"vehicleId"`
	Description string          `json:"description"`
	ServiceCost decimal.Decimal `json:"serviceCost"`
}

type addPartRequest struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type partResponse struct {
	ID       string          `json:"id"`
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

type orderResponse struct {
	ID          string          `json:"id"`
	VehicleID   string          `json:"vehicleId"`
	Description string          `json:"description"`
	ServiceCost decimal.Decimal `json:"serviceCost"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	Parts       []partResponse  `json:"parts"`
	TotalCost   decimal.Decimal `json:"totalCost"`
}

type costsResponse struct {
	VehicleID string          `json:"vehicleId"`
	Total     decimal.Decimal `json:"total"`
}

func toOrderResponse(o *repair.Order) orderResponse {
	parts := make([]partResponse, len(o.Parts()))
	for i, p := range o.Parts() {
		parts[i] = partResponse{
			ID:       p.ID(),
			Code:     p.Code(),
			Name:     p.Name(),
			Price:    p.Price(),
			Quantity: p.Quantity(),
			Total:    p.TotalPrice(),
		}
	}
	return orderResponse{
		ID:          o.ID(),
		VehicleID:   o.VehicleID(),
		Description: o.Description(),
		ServiceCost: o.ServiceCost(),
		Status:      o.Status().String(),
		CreatedAt:   o.CreatedAt(),
		Parts:       parts,
		TotalCost:   o.TotalCost(),
	}
}

// CreateOrder handles POST /api/v1/orders.
func (h *Handler) CreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid request body")
	}

	order, err := repair.NewOrder(req.VehicleID, req.Description, req.ServiceCost)
	if err != nil {
		return mapDomainError(c, err)
	}
	if err := h.repairs.CreateOrder(c.Request().Context(), order); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, toOrderResponse(order))
}

// GetOrder handles GET /api/v1/orders/:id.
func (h *Handler) GetOrder(c echo.Context) error {
	order, err := h.orders.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// DeleteOrder handles DELETE /api/v1/orders/:id.
func (h *Handler) DeleteOrder(c echo.Context) error {
	if err := h.orders.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return mapDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddPart handles POST /api/v1/orders/:id/parts.
func (h *Handler) AddPart(c echo.Context) error {
	var req addPartRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid request body")
	}

	orderID := c.Param("id")
	part, err := repair.NewPart(orderID, req.Code, req.Name, req.Price, req.Quantity)
	if err != nil {
		return mapDomainError(c, err)
	}
	if err := h.repairs.AddPart(c.Request().Context(), orderID, part); err != nil {
		return mapDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// StartRepair handles POST /api/v1/orders/:id/start.
func (h *Handler) StartRepair(c echo.Context) error {
	if err := h.repairs.StartRepair(c.Request().Context(), c.Param("id")); err != nil {
		return mapDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CompleteRepair handles POST /api/v1/orders/:id/complete. Completing an
// order that does not exist succeeds without effect.
func (h *Handler) CompleteRepair(c echo.Context) error {
	if err := h.repairs.CompleteRepair(c.Request().Context(), c.Param("id")); err != nil {
		return mapDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CancelRepair handles POST /api/v1/orders/:id/cancel. Same missing-order
// semantics as CompleteRepair.
func (h *Handler) CancelRepair(c echo.Context) error {
	if err := h.repairs.CancelRepair(c.Request().Context(), c.Param("id")); err != nil {
		return mapDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// VehicleHistory handles GET /api/v1/vehicles/:id/orders.
func (h *Handler) VehicleHistory(c echo.Context) error {
	orders, err := h.repairs.VehicleHistory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapDomainError(c, err)
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	return c.JSON(http.StatusOK, resp)
}

// VehicleCosts handles GET /api/v1/vehicles/:id/costs.
func (h *Handler) VehicleCosts(c echo.Context) error {
	vehicleID := c.Param("id")
	total, err := h.repairs.TotalRepairCosts(c.Request().Context(), vehicleID)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, costsResponse{VehicleID: vehicleID, Total: total})
}
