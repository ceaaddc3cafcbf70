package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/freshmart/api/internal/repo"
)

const analyticsLimit = 50

type AdminHandler struct {
	Repo *repo.GormRepo
}

func (h *AdminHandler) Overview(c echo.Context) error {
	ov, err := h.Repo.AnalyticsOverview(c.Request().Context())
	if err != nil {
		return repoError(c, err)
	}
	return c.JSON(http.StatusOK, ov)
}

func (h *AdminHandler) Ratings(c echo.Context) error {
	stats, err := h.Repo.RatingsByProduct(c.Request().Context(), analyticsLimit)
	if err != nil {
		return repoError(c, err)
	}
	if stats == nil {
		stats = []repo.ProductRatingStat{}
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) Demand(c echo.Context) error {
	stats, err := h.Repo.DemandByProduct(c.Request().Context(), analyticsLimit)
	if err != nil {
		return repoError(c, err)
	}
	if stats == nil {
		stats = []repo.ProductDemandStat{}
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) PriceTrends(c echo.Context) error {
	productID, err := parseID(c, "productId")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	history, err := h.Repo.PriceTrends(c.Request().Context(), productID)
	if err != nil {
		return repoError(c, err)
	}

	return c.JSON(http.StatusOK, history)
}
