package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/freshmart/api/internal/events"
	"github.com/freshmart/api/internal/identity"
	"github.com/freshmart/api/internal/models"
	"github.com/freshmart/api/internal/pricing"
	"github.com/freshmart/api/internal/repo"
	"github.com/freshmart/api/internal/syncer"
	"github.com/freshmart/api/internal/util"
)

type ProductHandler struct {
	Repo     *repo.GormRepo
	Prop     *syncer.Propagator
	Producer events.Publisher
}

// GetProducts lists non-hidden products, newest first.
func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	offset, limit := util.Calculate(page, size)

	total, items, err := h.Repo.VisibleProducts(c.Request().Context(), offset, limit)
	if err != nil {
		return repoError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	product, err := h.Repo.GetProduct(c.Request().Context(), id)
	if err != nil {
		return repoError(c, err)
	}
	if product.Hidden {
		return errorResponse(c, http.StatusNotFound, repo.ErrNotFound)
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Price       *float64 `json:"price"`
		Inventory   *int64   `json:"inventory"`
		SeasonalTag string   `json:"seasonalTag"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Price == nil {
		return errorResponse(c, http.StatusBadRequest, fmt.Errorf("price is required: %w", repo.ErrValidation))
	}
	if req.Inventory == nil {
		return errorResponse(c, http.StatusBadRequest, fmt.Errorf("inventory is required: %w", repo.ErrValidation))
	}

	prod := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Inventory:   *req.Inventory,
		SeasonalTag: req.SeasonalTag,
	}

	if err := h.Repo.CreateProduct(c.Request().Context(), &prod); err != nil {
		return repoError(c, err)
	}

	h.Prop.ProductUpserted(c.Request().Context(), &prod)

	publish(c, h.Producer, events.ProductTopic, fmt.Sprint(prod.ID), map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusCreated, prod)
}

// UpdateProduct replaces the mutable fields of a product. A changed price
// writes provenance in the same transaction as the update.
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	var req struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		Inventory   *int64   `json:"inventory"`
		SeasonalTag *string  `json:"seasonalTag"`
		Hidden      *bool    `json:"hidden"`
		Reason      string   `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	patch := repo.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Inventory:   req.Inventory,
		SeasonalTag: req.SeasonalTag,
		Hidden:      req.Hidden,
	}
	return h.applyUpdate(c, patch, req.Reason)
}

// PatchProduct applies a partial update (e.g. hide/show) with the same
// price-provenance rule as a full update.
func (h *ProductHandler) PatchProduct(c echo.Context) error {
	var req struct {
		repo.ProductPatch
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	return h.applyUpdate(c, req.ProductPatch, req.Reason)
}

func (h *ProductHandler) applyUpdate(c echo.Context, patch repo.ProductPatch, reason string) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	ctx := c.Request().Context()

	existing, err := h.Repo.GetProduct(ctx, id)
	if err != nil {
		return repoError(c, err)
	}

	// Provenance commits with the update itself: a patch rejected by
	// validation, or one racing a delete, persists no history row.
	var entry *models.PriceHistory
	priceChanging := patch.Price != nil && *patch.Price != existing.Price
	if priceChanging {
		ident, _ := identity.From(c)
		entry = &models.PriceHistory{
			ProductID: existing.ID,
			OldPrice:  existing.Price,
			NewPrice:  *patch.Price,
			ChangedBy: actor(ident, "admin"),
			Reason:    reason,
		}
	}

	updated, err := h.Repo.PatchProductWithHistory(ctx, id, patch, entry)
	if err != nil {
		return repoError(c, err)
	}

	h.Prop.ProductUpserted(ctx, updated)
	if priceChanging {
		h.Prop.Notify(ctx, "Price Update", priceMessage(updated))
	}

	publish(c, h.Producer, events.ProductTopic, fmt.Sprint(updated.ID), map[string]any{
		"type":      "product_updated",
		"productID": updated.ID,
		"name":      updated.Name,
	})

	return c.JSON(http.StatusOK, updated)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	if err := h.Repo.DeleteProduct(c.Request().Context(), id); err != nil {
		return repoError(c, err)
	}

	h.Prop.ProductDeleted(c.Request().Context(), id)

	publish(c, h.Producer, events.ProductTopic, fmt.Sprint(id), map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})

	return c.NoContent(http.StatusNoContent)
}

// AutoAdjust runs the pricing heuristic. The price update is the
// authoritative write; history, mirror, notification and event appends
// after it are best-effort and never roll it back.
func (h *ProductHandler) AutoAdjust(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	ctx := c.Request().Context()

	prod, err := h.Repo.GetProduct(ctx, id)
	if err != nil {
		return repoError(c, err)
	}

	newPrice := pricing.Adjust(prod.Price, prod.AvgRating, prod.Inventory)
	if err := h.Repo.UpdatePrice(ctx, prod.ID, newPrice); err != nil {
		return repoError(c, err)
	}

	ident, _ := identity.From(c)
	entry := models.PriceHistory{
		ProductID: prod.ID,
		OldPrice:  prod.Price,
		NewPrice:  newPrice,
		ChangedBy: actor(ident, "auto"),
		Reason:    "auto-adjust",
	}
	if err := h.Repo.RecordPriceChange(ctx, &entry); err != nil {
		c.Logger().Errorf("price history write failed for product %d: %v", prod.ID, err)
	}

	updated := *prod
	updated.Price = newPrice

	h.Prop.ProductUpserted(ctx, &updated)
	h.Prop.Notify(ctx, "Price Update", priceMessage(&updated))

	publish(c, h.Producer, events.ProductTopic, fmt.Sprint(updated.ID), map[string]any{
		"type":      "price_adjusted",
		"productID": updated.ID,
		"oldPrice":  prod.Price,
		"newPrice":  newPrice,
	})

	return c.JSON(http.StatusOK, updated)
}

func priceMessage(p *models.Product) string {
	return fmt.Sprintf("%s now %.2f", p.Name, p.Price)
}
