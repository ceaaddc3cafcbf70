package repo

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freshmart/api/internal/models"
)

func addRating(t *testing.T, r *GormRepo, productID uint, rating int) float64 {
	t.Helper()
	avg, err := r.AddFeedback(context.Background(), &models.Feedback{
		ProductID: productID,
		UserID:    "user-1",
		Rating:    rating,
	})
	require.NoError(t, err)
	return avg
}

func TestAddFeedbackRunningAverage(t *testing.T) {
	r := newTestRepo(t)
	prod := createProduct(t, r, models.Product{Price: 1, Inventory: 1})

	require.InDelta(t, 5.0, addRating(t, r, prod.ID, 5), 1e-9)
	require.InDelta(t, 4.0, addRating(t, r, prod.ID, 3), 1e-9)
	// (5+3+2)/3
	require.InDelta(t, 10.0/3.0, addRating(t, r, prod.ID, 2), 1e-9)

	reloaded, err := r.GetProduct(context.Background(), prod.ID)
	require.NoError(t, err)
	require.InDelta(t, 10.0/3.0, reloaded.AvgRating, 1e-9)
	require.EqualValues(t, 3, reloaded.RatingCount)
	require.EqualValues(t, 10, reloaded.RatingSum)
}

func TestAddFeedbackSameUserMayRepeat(t *testing.T) {
	r := newTestRepo(t)
	prod := createProduct(t, r, models.Product{Price: 1, Inventory: 1})

	addRating(t, r, prod.ID, 4)
	addRating(t, r, prod.ID, 4)

	var count int64
	require.NoError(t, r.DB.Model(&models.Feedback{}).Where("product_id = ?", prod.ID).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestAddFeedbackRatingBounds(t *testing.T) {
	r := newTestRepo(t)
	prod := createProduct(t, r, models.Product{Price: 1, Inventory: 1})

	for _, rating := range []int{0, 6, -1} {
		_, err := r.AddFeedback(context.Background(), &models.Feedback{
			ProductID: prod.ID,
			UserID:    "user-1",
			Rating:    rating,
		})
		require.ErrorIs(t, err, ErrValidation)
	}
}

func TestAddFeedbackUnknownProduct(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.AddFeedback(context.Background(), &models.Feedback{
		ProductID: 42,
		UserID:    "user-1",
		Rating:    5,
	})
	require.ErrorIs(t, err, ErrNotFound)
}

// Concurrent submissions converge to the exact mean once quiesced because
// the accumulate is a single UPDATE, not read-modify-write.
func TestConcurrentFeedbackConverges(t *testing.T) {
	r := newTestRepo(t)
	prod := createProduct(t, r, models.Product{Price: 1, Inventory: 1})

	ratings := []int{1, 2, 3, 4, 5, 5, 4, 3, 2, 1}
	var wg sync.WaitGroup
	for _, rating := range ratings {
		wg.Add(1)
		go func(rating int) {
			defer wg.Done()
			_, err := r.AddFeedback(context.Background(), &models.Feedback{
				ProductID: prod.ID,
				UserID:    "user-1",
				Rating:    rating,
			})
			require.NoError(t, err)
		}(rating)
	}
	wg.Wait()

	reloaded, err := r.GetProduct(context.Background(), prod.ID)
	require.NoError(t, err)
	require.EqualValues(t, 10, reloaded.RatingCount)
	require.InDelta(t, 3.0, reloaded.AvgRating, 1e-9)
}

func TestFeedbackForProductNewestFirstCapped(t *testing.T) {
	r := newTestRepo(t)
	prod := createProduct(t, r, models.Product{Price: 1, Inventory: 1})

	for i := 0; i < 5; i++ {
		addRating(t, r, prod.ID, 4)
	}

	items, err := r.FeedbackForProduct(context.Background(), prod.ID, 3)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.True(t, items[0].ID > items[1].ID && items[1].ID > items[2].ID)
}
