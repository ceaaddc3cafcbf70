// Seeds the record store with demo products and a spread of feedback, then
// propagates each product once so the mirror and the search index match.
package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/freshmart/api/internal/config"
	"github.com/freshmart/api/internal/logging"
	"github.com/freshmart/api/internal/mirror"
	"github.com/freshmart/api/internal/models"
	"github.com/freshmart/api/internal/repo"
	"github.com/freshmart/api/internal/search"
	"github.com/freshmart/api/internal/syncer"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	mirrorStore, err := mirror.Connect(mirror.ConnectOptions{
		URL:       configuration.SURREAL_URL,
		User:      configuration.SURREAL_USER,
		Password:  configuration.SURREAL_PASSWORD,
		Namespace: configuration.SURREAL_NS,
		Database:  configuration.SURREAL_DB,
	})
	if err != nil {
		log.Fatalf("mirror store init failed: %v", err)
	}
	defer mirrorStore.Close()

	esClient, err := search.NewClient(configuration.ES_URL, configuration.ES_USER, configuration.ES_PASSWORD)
	if err != nil {
		log.Fatalf("search init failed: %v", err)
	}

	repository := repo.NewGormRepo(db)
	prop := &syncer.Propagator{
		Mirror:  mirrorStore,
		ES:      esClient,
		Index:   search.DefaultIndex,
		Log:     logger,
		Retries: configuration.MIRROR_RETRIES,
		Backoff: 200 * time.Millisecond,
	}

	products := []models.Product{
		{Name: "Honeycrisp Apples", Description: "Crisp, sweet apples from local orchards", Price: 3.49, Inventory: 120, SeasonalTag: "fall"},
		{Name: "Organic Strawberries", Description: "Sweet organic strawberries, 1lb punnet", Price: 4.99, Inventory: 60, SeasonalTag: "summer"},
		{Name: "Sourdough Loaf", Description: "Naturally leavened, baked daily", Price: 5.25, Inventory: 30},
		{Name: "Free-Range Eggs", Description: "Dozen large free-range eggs", Price: 4.50, Inventory: 80},
		{Name: "Cold Brew Coffee", Description: "Slow-steeped single-origin cold brew, 32oz", Price: 6.99, Inventory: 45},
		{Name: "Butternut Squash", Description: "Sweet winter squash, great for roasting", Price: 2.79, Inventory: 8, SeasonalTag: "winter"},
	}

	ctx := context.Background()
	ratings := [][]int{{5, 4, 5}, {4, 4}, {5, 5, 5, 4}, {3, 4}, {2, 3, 2}, {5}}

	for i := range products {
		if err := repository.CreateProduct(ctx, &products[i]); err != nil {
			log.Fatalf("seed product %q failed: %v", products[i].Name, err)
		}
		for _, r := range ratings[i] {
			fb := models.Feedback{ProductID: products[i].ID, UserID: "seed", Rating: r}
			if _, err := repository.AddFeedback(ctx, &fb); err != nil {
				log.Fatalf("seed feedback for %q failed: %v", products[i].Name, err)
			}
		}
		prod, err := repository.GetProduct(ctx, products[i].ID)
		if err != nil {
			log.Fatalf("reload product %q failed: %v", products[i].Name, err)
		}
		prop.ProductUpserted(ctx, prod)
		logger.Info("seeded product", "id", prod.ID, "name", prod.Name, "avgRating", prod.AvgRating)
	}

	if attempts, failures := prop.Stats(); failures > 0 {
		logger.Warn("some propagations failed", "attempts", attempts, "failures", failures)
	}

	log.Println("seed complete")
}
