package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/freshmart/api/internal/models"
)

// PlaceOrder creates an order and decrements inventory in one transaction.
// The decrement is a conditional UPDATE (inventory >= quantity), so two
// concurrent orders can never overdraw stock regardless of interleaving.
func (r *GormRepo) PlaceOrder(ctx context.Context, userID string, productID uint, quantity int64) (*models.Order, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
	}

	var order models.Order
	txErr := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		res := tx.Model(&models.Product{}).
			Where("id = ? AND inventory >= ?", productID, quantity).
			Update("inventory", gorm.Expr("inventory - ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientInventory
		}

		order = models.Order{
			UserID:    userID,
			ProductID: productID,
			Quantity:  quantity,
			Total:     product.Price * float64(quantity),
		}
		return tx.Create(&order).Error
	})
	if txErr != nil {
		return nil, txErr
	}

	return &order, nil
}

// OrdersForUser returns the caller's orders, newest first, with the
// referenced product joined in.
func (r *GormRepo) OrdersForUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
