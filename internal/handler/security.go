package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"garage/internal/auth"
	"garage/internal/domain/user"
)

// claimsKey is the echo context key holding the authenticated claims.
const claimsKey = "auth.claims"

// RequireToken validates the Authorization header and stores the claims on
// the request context. Missing, malformed, and expired tokens all yield 401.
func (h *Handler) RequireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, err := auth.FromHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return errJSON(c, http.StatusUnauthorized, "missing or malformed token")
		}

		claims, err := h.tokens.Validate(raw)
		if err != nil {
			return errJSON(c, http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(claimsKey, claims)
		return next(c)
	}
}

// RequireAdmin rejects non-admin callers. Must run after RequireToken.
func (h *Handler) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := currentClaims(c)
		if claims == nil || claims.Role != user.RoleAdmin {
			return errJSON(c, http.StatusForbidden, "admin role required")
		}
		return next(c)
	}
}

func currentClaims(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey).(*auth.Claims)
	return claims
}
