package repo

import (
	"errors"

	"gorm.io/gorm"
)

// Sentinel errors for the record store. Handlers translate these to HTTP
// statuses; everything else is treated as an internal failure.
var (
	ErrNotFound              = errors.New("not found")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrValidation            = errors.New("validation failed")
)

type GormRepo struct {
	DB *gorm.DB
}

func NewGormRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
