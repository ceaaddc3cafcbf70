package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/freshmart/api/internal/events"
	"github.com/freshmart/api/internal/identity"
	"github.com/freshmart/api/internal/repo"
)

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func errorResponse(c echo.Context, code int, err error) error {
	return c.JSON(code, Response{
		Status:  "error",
		Message: err.Error(),
	})
}

// repoError maps record-store sentinel errors onto the HTTP surface.
func repoError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return errorResponse(c, http.StatusNotFound, err)
	case errors.Is(err, repo.ErrValidation):
		return errorResponse(c, http.StatusBadRequest, err)
	case errors.Is(err, repo.ErrInsufficientInventory):
		return errorResponse(c, http.StatusConflict, err)
	default:
		return errorResponse(c, http.StatusInternalServerError, err)
	}
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func publish(c echo.Context, pub events.Publisher, topic, key string, event map[string]any) {
	if pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := pub.PublishEvent(ctx, topic, key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

// actor names the identity for provenance records: email when present,
// otherwise the uid, otherwise the given fallback.
func actor(id identity.Identity, fallback string) string {
	if id.Email != "" {
		return id.Email
	}
	if id.UID != "" {
		return id.UID
	}
	return fallback
}
