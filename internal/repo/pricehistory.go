package repo

import (
	"context"

	"github.com/freshmart/api/internal/models"
)

func (r *GormRepo) RecordPriceChange(ctx context.Context, entry *models.PriceHistory) error {
	return r.DB.WithContext(ctx).Create(entry).Error
}

// PriceTrends returns a product's full price history, oldest first.
func (r *GormRepo) PriceTrends(ctx context.Context, productID uint) ([]models.PriceHistory, error) {
	var history []models.PriceHistory
	if err := r.DB.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC, id ASC").
		Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}

type Overview struct {
	ProductCount  int64 `json:"productCount"`
	FeedbackCount int64 `json:"feedbackCount"`
}

type ProductRatingStat struct {
	ProductID uint    `json:"productId"`
	AvgRating float64 `json:"avgRating"`
	Count     int64   `gorm:"column:cnt" json:"count"`
}

type ProductDemandStat struct {
	ProductID    uint  `json:"productId"`
	Interactions int64 `json:"interactions"`
}

func (r *GormRepo) AnalyticsOverview(ctx context.Context) (*Overview, error) {
	var ov Overview
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&ov.ProductCount).Error; err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Model(&models.Feedback{}).Count(&ov.FeedbackCount).Error; err != nil {
		return nil, err
	}
	return &ov, nil
}

func (r *GormRepo) RatingsByProduct(ctx context.Context, limit int) ([]ProductRatingStat, error) {
	var stats []ProductRatingStat
	if err := r.DB.WithContext(ctx).Model(&models.Feedback{}).
		Select("product_id, AVG(rating) AS avg_rating, COUNT(*) AS cnt").
		Group("product_id").
		Order("cnt DESC").
		Limit(limit).
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// DemandByProduct uses feedback volume as a demand proxy.
func (r *GormRepo) DemandByProduct(ctx context.Context, limit int) ([]ProductDemandStat, error) {
	var stats []ProductDemandStat
	if err := r.DB.WithContext(ctx).Model(&models.Feedback{}).
		Select("product_id, COUNT(*) AS interactions").
		Group("product_id").
		Order("interactions DESC").
		Limit(limit).
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
