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

const feedbackPageLimit = 20

type FeedbackHandler struct {
	Repo     *repo.GormRepo
	Prop     *syncer.Propagator
	Producer events.Publisher
}

// CreateFeedback inserts the feedback, folds it into the product's rating
// aggregate and re-propagates the product snapshot.
func (h *FeedbackHandler) CreateFeedback(c echo.Context) error {
	ident, ok := identity.From(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	productID, err := parseID(c, "productId")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	fb := models.Feedback{
		ProductID: productID,
		UserID:    ident.UID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	if _, err := h.Repo.AddFeedback(c.Request().Context(), &fb); err != nil {
		return repoError(c, err)
	}

	if prod, err := h.Repo.GetProduct(c.Request().Context(), productID); err == nil {
		h.Prop.ProductUpserted(c.Request().Context(), prod)
	} else {
		c.Logger().Errorf("product %d reload failed, mirror propagation skipped: %v", productID, err)
	}

	publish(c, h.Producer, events.FeedbackTopic, fmt.Sprint(productID), map[string]any{
		"type":      "feedback_created",
		"productID": productID,
		"userID":    ident.UID,
		"rating":    req.Rating,
	})

	return c.JSON(http.StatusCreated, fb)
}

func (h *FeedbackHandler) ListFeedback(c echo.Context) error {
	productID, err := parseID(c, "productId")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	items, err := h.Repo.FeedbackForProduct(c.Request().Context(), productID, feedbackPageLimit)
	if err != nil {
		return repoError(c, err)
	}
	if items == nil {
		items = []models.Feedback{}
	}

	return c.JSON(http.StatusOK, items)
}
