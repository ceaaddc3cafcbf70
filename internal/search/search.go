// Package search keeps the product search index in step with the record
// store and serves the public fuzzy search query.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/freshmart/api/internal/models"
)

const DefaultIndex = "products"

type productDoc struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Inventory   int64   `json:"inventory"`
	SeasonalTag string  `json:"seasonalTag,omitempty"`
	AvgRating   float64 `json:"avgRating"`
	Hidden      bool    `json:"hidden"`
}

func IndexProduct(ctx context.Context, es *elasticsearch.Client, index string, prod *models.Product) error {
	doc := productDoc{
		Name:        prod.Name,
		Description: prod.Description,
		Price:       prod.Price,
		Inventory:   prod.Inventory,
		SeasonalTag: prod.SeasonalTag,
		AvgRating:   prod.AvgRating,
		Hidden:      prod.Hidden,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("search: encode product %d: %w", prod.ID, err)
	}

	res, err := es.Index(
		index,
		&buf,
		es.Index.WithDocumentID(fmt.Sprint(prod.ID)),
		es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: index product %d: %w", prod.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("search: index product %d: %s", prod.ID, res.Status())
	}
	return nil
}

func DeleteProduct(ctx context.Context, es *elasticsearch.Client, index string, id uint) error {
	res, err := es.Delete(index, fmt.Sprint(id), es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: delete product %d: %w", id, err)
	}
	defer res.Body.Close()

	// A missing document is fine; deletion is best-effort.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("search: delete product %d: %s", id, res.Status())
	}
	return nil
}

type Hit struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	AvgRating   float64 `json:"avgRating"`
	SeasonalTag string  `json:"seasonalTag,omitempty"`
}

// Query runs a fuzzy multi_match over name and description, excluding
// hidden products.
func Query(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []Hit, error) {
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"name^2", "description"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"hidden": false},
				},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: query failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search: query failed: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string `json:"_id"`
				Source Hit    `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search: decode response: %w", err)
	}

	hits := make([]Hit, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		hits[i] = hit.Source
		hits[i].ID = hit.ID
	}
	return r.Hits.Total.Value, hits, nil
}
