package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freshmart/api/internal/models"
)

func (env *testEnv) addRating(productID uint, rating int) {
	env.T.Helper()
	fb := models.Feedback{ProductID: productID, UserID: "rater", Rating: rating}
	_, err := env.Repo.AddFeedback(context.Background(), &fb)
	require.NoError(env.T, err)
}

func (env *testEnv) priceHistory(productID uint) []models.PriceHistory {
	env.T.Helper()
	history, err := env.Repo.PriceTrends(context.Background(), productID)
	require.NoError(env.T, err)
	return history
}

func TestCreateProductHandler(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/products", map[string]any{
		"name":        "apples",
		"description": "crisp",
		"price":       3.49,
		"inventory":   12,
		"seasonalTag": "autumn",
	})
	asAdmin(c)

	require.NoError(t, env.Products.CreateProduct(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)
	require.Equal(t, "apples", created.Name)

	doc := env.Mirror.productDoc(fmt.Sprint(created.ID))
	require.NotNil(t, doc)
	require.Equal(t, "apples", doc["name"])
	require.EqualValues(t, 12, doc["inventory"])

	evt := env.Events.last(t)
	require.Equal(t, "product_events", evt.Topic)
	require.Equal(t, "product_created", evt.Event["type"])
}

func TestCreateProductHandlerRequiresPriceAndInventory(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/products", map[string]any{
		"name":        "apples",
		"description": "crisp",
		"inventory":   12,
	})
	asAdmin(c)

	require.NoError(t, env.Products.CreateProduct(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProductsExcludesHidden(t *testing.T) {
	env := newTestEnv(t)

	env.createProduct(models.Product{Name: "visible", Price: 1, Inventory: 1})
	hidden := env.createProduct(models.Product{Name: "hidden", Price: 1, Inventory: 1, Hidden: true})

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/products", nil)
	require.NoError(t, env.Products.GetProducts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.Product `json:"data"`
		Meta map[string]any   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "visible", resp.Data[0].Name)
	require.EqualValues(t, 1, resp.Meta["total"])

	// direct fetch of a hidden product is a 404
	rec, c = env.doJSONRequest(http.MethodGet, "/api/v1/products/:id", nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(hidden.ID))
	require.NoError(t, env.Products.GetProduct(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetProductBadID(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/products/:id", nil)
	c.SetParamNames("id")
	c.SetParamValues("not-a-number")
	require.NoError(t, env.Products.GetProduct(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateProductPriceWritesProvenance(t *testing.T) {
	env := newTestEnv(t)
	prod := env.createProduct(models.Product{Name: "apples", Price: 10, Inventory: 5})

	rec, c := env.doJSONRequest(http.MethodPut, "/api/v1/admin/products/:id", map[string]any{
		"price":  12.5,
		"reason": "seasonal repricing",
	})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(prod.ID))
	asAdmin(c)

	require.NoError(t, env.Products.UpdateProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	history := env.priceHistory(prod.ID)
	require.Len(t, history, 1)
	require.InDelta(t, 10.0, history[0].OldPrice, 1e-9)
	require.InDelta(t, 12.5, history[0].NewPrice, 1e-9)
	require.Equal(t, "admin@freshmart.dev", history[0].ChangedBy)
	require.Equal(t, "seasonal repricing", history[0].Reason)

	doc := env.Mirror.productDoc(fmt.Sprint(prod.ID))
	require.Equal(t, 12.5, doc["price"])

	require.Len(t, env.Mirror.notes, 1)
	require.Equal(t, "Price Update", env.Mirror.notes[0]["title"])
	require.Equal(t, "apples now 12.50", env.Mirror.notes[0]["message"])
}

func TestUpdateProductRejectedLeavesNoHistory(t *testing.T) {
	env := newTestEnv(t)
	prod := env.createProduct(models.Product{Name: "apples", Price: 10, Inventory: 5})

	rec, c := env.doJSONRequest(http.MethodPut, "/api/v1/admin/products/:id", map[string]any{
		"price":  -1,
		"reason": "bad repricing",
	})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(prod.ID))
	asAdmin(c)

	require.NoError(t, env.Products.UpdateProduct(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// rejected update persists nothing: no history, no price change, no
	// mirror write, no notification
	require.Empty(t, env.priceHistory(prod.ID))
	reloaded, err := env.Repo.GetProduct(context.Background(), prod.ID)
	require.NoError(t, err)
	require.InDelta(t, 10.0, reloaded.Price, 1e-9)
	require.Nil(t, env.Mirror.productDoc(fmt.Sprint(prod.ID)))
	require.Empty(t, env.Mirror.notes)
}

func TestUpdateProductUnknownLeavesNoHistory(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPut, "/api/v1/admin/products/:id", map[string]any{
		"price": 12.5,
	})
	c.SetParamNames("id")
	c.SetParamValues("999")
	asAdmin(c)

	require.NoError(t, env.Products.UpdateProduct(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Empty(t, env.priceHistory(999))
}

func TestPatchProductHideWithoutPriceChange(t *testing.T) {
	env := newTestEnv(t)
	prod := env.createProduct(models.Product{Price: 10, Inventory: 5})

	rec, c := env.doJSONRequest(http.MethodPatch, "/api/v1/admin/products/:id", map[string]any{
		"hidden": true,
	})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(prod.ID))
	asAdmin(c)

	require.NoError(t, env.Products.PatchProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// no price change: no history row, no notification
	require.Empty(t, env.priceHistory(prod.ID))
	require.Empty(t, env.Mirror.notes)

	doc := env.Mirror.productDoc(fmt.Sprint(prod.ID))
	require.Equal(t, true, doc["hidden"])
}

func TestAutoAdjustSurge(t *testing.T) {
	env := newTestEnv(t)
	prod := env.createProduct(models.Product{Name: "apples", Price: 10, Inventory: 5})
	for _, r := range []int{5, 5, 5, 4} {
		env.addRating(prod.ID, r)
	}

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/products/:id/auto-adjust", nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(prod.ID))
	asAdmin(c)

	require.NoError(t, env.Products.AutoAdjust(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var adjusted models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &adjusted))
	require.InDelta(t, 11.0, adjusted.Price, 1e-9)

	reloaded, err := env.Repo.GetProduct(context.Background(), prod.ID)
	require.NoError(t, err)
	require.InDelta(t, 11.0, reloaded.Price, 1e-9)

	history := env.priceHistory(prod.ID)
	require.Len(t, history, 1)
	require.Equal(t, "admin@freshmart.dev", history[0].ChangedBy)
	require.Equal(t, "auto-adjust", history[0].Reason)

	require.Len(t, env.Mirror.notes, 1)
	require.Equal(t, "apples now 11.00", env.Mirror.notes[0]["message"])

	evt := env.Events.last(t)
	require.Equal(t, "price_adjusted", evt.Event["type"])
	require.Equal(t, 10.0, evt.Event["oldPrice"])
	require.Equal(t, 11.0, evt.Event["newPrice"])
}

func TestAutoAdjustUnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/products/:id/auto-adjust", nil)
	c.SetParamNames("id")
	c.SetParamValues("999")
	asAdmin(c)

	require.NoError(t, env.Products.AutoAdjust(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProductHandler(t *testing.T) {
	env := newTestEnv(t)
	prod := env.createProduct(models.Product{Price: 1, Inventory: 1})

	// seed the mirror so removal is observable
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/products/:id/auto-adjust", nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(prod.ID))
	asAdmin(c)
	require.NoError(t, env.Products.AutoAdjust(c))
	require.NotNil(t, env.Mirror.productDoc(fmt.Sprint(prod.ID)))

	rec, c := env.doJSONRequest(http.MethodDelete, "/api/v1/admin/products/:id", nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(prod.ID))
	asAdmin(c)

	require.NoError(t, env.Products.DeleteProduct(c))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Nil(t, env.Mirror.productDoc(fmt.Sprint(prod.ID)))

	evt := env.Events.last(t)
	require.Equal(t, "product_deleted", evt.Event["type"])
}
