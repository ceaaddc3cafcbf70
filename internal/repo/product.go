package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/freshmart/api/internal/models"
)

// ProductPatch carries a partial update; nil fields are left untouched.
// Derived fields (avgRating, rating counters) are not patchable.
type ProductPatch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Inventory   *int64   `json:"inventory"`
	SeasonalTag *string  `json:"seasonalTag"`
	Hidden      *bool    `json:"hidden"`
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product := models.Product{}
	if err := r.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// VisibleProducts lists non-hidden products, newest first.
func (r *GormRepo) VisibleProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("hidden = ?", false).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := r.DB.WithContext(ctx).
		Where("hidden = ?", false).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	if err := validateProduct(prod); err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Create(prod).Error
}

// PatchProduct applies the non-nil patch fields and returns the updated
// product. Last-writer-wins at the document level; numeric fields with
// cross-request invariants (inventory, rating) have dedicated atomic
// operations instead.
func (r *GormRepo) PatchProduct(ctx context.Context, id uint, patch ProductPatch) (*models.Product, error) {
	return patchProductTx(r.DB.WithContext(ctx), id, patch)
}

// PatchProductWithHistory applies the patch and writes the provenance row in
// one transaction: a patch rejected by validation (or racing a delete)
// leaves no history behind.
func (r *GormRepo) PatchProductWithHistory(ctx context.Context, id uint, patch ProductPatch, entry *models.PriceHistory) (*models.Product, error) {
	var updated *models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = patchProductTx(tx, id, patch)
		if err != nil {
			return err
		}
		if entry != nil {
			return tx.Create(entry).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func patchProductTx(tx *gorm.DB, id uint, patch ProductPatch) (*models.Product, error) {
	var prod models.Product
	if err := tx.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if patch.Name != nil {
		prod.Name = *patch.Name
	}
	if patch.Description != nil {
		prod.Description = *patch.Description
	}
	if patch.Price != nil {
		prod.Price = *patch.Price
	}
	if patch.Inventory != nil {
		prod.Inventory = *patch.Inventory
	}
	if patch.SeasonalTag != nil {
		prod.SeasonalTag = *patch.SeasonalTag
	}
	if patch.Hidden != nil {
		prod.Hidden = *patch.Hidden
	}

	if err := validateProduct(&prod); err != nil {
		return nil, err
	}

	if err := tx.Save(&prod).Error; err != nil {
		return nil, err
	}

	return &prod, nil
}

// UpdatePrice writes only the price column, leaving concurrent edits to
// other fields alone.
func (r *GormRepo) UpdatePrice(ctx context.Context, id uint, newPrice float64) error {
	if newPrice < 0 {
		return fmt.Errorf("price cannot be negative: %w", ErrValidation)
	}
	res := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("price", newPrice)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func validateProduct(p *models.Product) error {
	if p.Name == "" {
		return fmt.Errorf("name is required: %w", ErrValidation)
	}
	if p.Description == "" {
		return fmt.Errorf("description is required: %w", ErrValidation)
	}
	if p.Price < 0 {
		return fmt.Errorf("price cannot be negative: %w", ErrValidation)
	}
	if p.Inventory < 0 {
		return fmt.Errorf("inventory cannot be negative: %w", ErrValidation)
	}
	return nil
}
