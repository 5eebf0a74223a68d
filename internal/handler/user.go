package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/labstack/echo/v4"

	"garage/internal/domain/user"
)

type registerUserRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type userResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:        u.ID(),
		FirstName: u.FirstName(),
		LastName:  u.LastName(),
		Email:     u.Email(),
		Role:      string(u.Role()),
	}
}

// RegisterUser handles POST /api/v1/auth/register.
func (h *Handler) RegisterUser(c echo.Context) error {
	var req registerUserRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid request body")
	}

	u, err := h.users.Register(c.Request().Context(), req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, toUserResponse(u))
}

// Login handles POST /api/v1/auth/login. Bad credentials yield 401 without
// distinguishing unknown accounts from wrong passwords.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid request body")
	}

	u, err := h.users.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrBadCredentials) {
			return errJSON(c, http.StatusUnauthorized, "bad credentials")
		}
		return mapDomainError(c, err)
	}

	token, err := h.tokens.Issue(u)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, User: toUserResponse(u)})
}

type changeRoleRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ChangeRole handles PUT /api/v1/users/role. Admin only.
func (h *Handler) ChangeRole(c echo.Context) error {
	var req changeRoleRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid request body")
	}

	if err := h.users.ChangeRole(c.Request().Context(), req.Email, req.Role); err != nil {
		return mapDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeactivateUser handles DELETE /api/v1/users/:email. Admin only.
func (h *Handler) DeactivateUser(c echo.Context) error {
	if err := h.users.Deactivate(c.Request().Context(), c.Param("email")); err != nil {
		return mapDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
