package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/freshmart/api/internal/events"
	"github.com/freshmart/api/internal/identity"
	"github.com/freshmart/api/internal/models"
	"github.com/freshmart/api/internal/repo"
	"github.com/freshmart/api/internal/syncer"
)

type OrderHandler struct {
	Repo     *repo.GormRepo
	Prop     *syncer.Propagator
	Producer events.Publisher
}

func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	ident, ok := identity.From(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	var req struct {
		ProductID uint  `json:"productId"`
		Quantity  int64 `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	order, err := h.Repo.PlaceOrder(c.Request().Context(), ident.UID, req.ProductID, req.Quantity)
	if err != nil {
		return repoError(c, err)
	}

	// Inventory changed; push the fresh snapshot to the mirror.
	if prod, err := h.Repo.GetProduct(c.Request().Context(), order.ProductID); err == nil {
		h.Prop.ProductUpserted(c.Request().Context(), prod)
	} else {
		c.Logger().Errorf("product %d reload failed, mirror propagation skipped: %v", order.ProductID, err)
	}

	publish(c, h.Producer, events.OrderTopic, fmt.Sprint(order.ProductID), map[string]any{
		"type":      "order_created",
		"orderID":   order.ID,
		"userID":    order.UserID,
		"productID": order.ProductID,
		"quantity":  order.Quantity,
		"total":     order.Total,
	})

	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	ident, ok := identity.From(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	orders, err := h.Repo.OrdersForUser(c.Request().Context(), ident.UID)
	if err != nil {
		return repoError(c, err)
	}
	if orders == nil {
		orders = []models.Order{}
	}

	return c.JSON(http.StatusOK, orders)
}
