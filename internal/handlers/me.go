package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/freshmart/api/internal/identity"
)

type MeHandler struct{}

func (h *MeHandler) Me(c echo.Context) error {
	ident, ok := identity.From(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	return c.JSON(http.StatusOK, ident)
}
