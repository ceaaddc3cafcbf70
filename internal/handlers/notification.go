package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/freshmart/api/internal/syncer"
)

type NotificationHandler struct {
	Prop *syncer.Propagator
}

// Broadcast appends an admin announcement to the notification feed.
// Realtime viewers pick it up through their live subscription on the
// mirror store.
func (h *NotificationHandler) Broadcast(c echo.Context) error {
	var req struct {
		Title   string `json:"title"`
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Title == "" || req.Message == "" {
		return errorResponse(c, http.StatusBadRequest, errors.New("title and message are required"))
	}

	h.Prop.Notify(c.Request().Context(), req.Title, req.Message)

	return c.JSON(http.StatusCreated, map[string]any{
		"title":   req.Title,
		"message": req.Message,
	})
}
