package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/freshmart/api/internal/models"
)

// AddFeedback inserts the feedback row and folds the rating into the
// product's running sum/count in the same transaction. The accumulate and
// the derived average are single UPDATE statements, so concurrent
// submissions compose without a read-modify-write race. Returns the
// product's new average.
func (r *GormRepo) AddFeedback(ctx context.Context, fb *models.Feedback) (float64, error) {
	if fb.Rating < 1 || fb.Rating > 5 {
		return 0, fmt.Errorf("rating must be between 1 and 5: %w", ErrValidation)
	}

	txErr := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, fb.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Create(fb).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Product{}).Where("id = ?", fb.ProductID).Updates(map[string]any{
			"rating_sum":   gorm.Expr("rating_sum + ?", fb.Rating),
			"rating_count": gorm.Expr("rating_count + 1"),
		}).Error; err != nil {
			return err
		}

		// avg = sum/count in float64, no explicit rounding.
		return tx.Model(&models.Product{}).Where("id = ?", fb.ProductID).
			Update("avg_rating", gorm.Expr("rating_sum * 1.0 / rating_count")).Error
	})
	if txErr != nil {
		return 0, txErr
	}

	var product models.Product
	if err := r.DB.WithContext(ctx).First(&product, fb.ProductID).Error; err != nil {
		return 0, err
	}
	return product.AvgRating, nil
}

// FeedbackForProduct returns the newest feedback entries, capped at limit.
func (r *GormRepo) FeedbackForProduct(ctx context.Context, productID uint, limit int) ([]models.Feedback, error) {
	var items []models.Feedback
	if err := r.DB.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
