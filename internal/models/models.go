package models

import (
	"time"
)

// Product is the authoritative catalog record. AvgRating is derived from
// Feedback and kept as a running sum/count so it can be updated in a single
// statement; clients never write it directly.
type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"       json:"id"`
	Name        string    `gorm:"not null"                       json:"name"`
	Description string    `gorm:"not null"                       json:"description"`
	Price       float64   `gorm:"not null;check:price >= 0"      json:"price"`
	Inventory   int64     `gorm:"not null;check:inventory >= 0"  json:"inventory"`
	SeasonalTag string    `json:"seasonalTag,omitempty"`
	AvgRating   float64   `gorm:"default:0"                      json:"avgRating"`
	RatingSum   int64     `gorm:"default:0"                      json:"-"`
	RatingCount int64     `gorm:"default:0"                      json:"-"`
	Hidden      bool      `gorm:"default:false"                  json:"hidden"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Order is immutable after creation. Total is the price at purchase time
// multiplied by quantity and is never recomputed.
type Order struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"      json:"id"`
	UserID    string    `gorm:"index;not null"                json:"userId"`
	ProductID uint      `gorm:"not null"                      json:"productId"`
	Product   *Product  `gorm:"foreignKey:ProductID"          json:"product,omitempty"`
	Quantity  int64     `gorm:"not null;check:quantity >= 1"  json:"quantity"`
	Total     float64   `gorm:"not null;check:total >= 0"     json:"total"`
	CreatedAt time.Time `json:"createdAt"`
}

type Feedback struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint      `gorm:"index;not null"           json:"productId"`
	UserID    string    `gorm:"not null"                 json:"userId"`
	Rating    int       `gorm:"not null"                 json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// PriceHistory is append-only provenance for every price change, whether
// from an admin edit or the auto-adjust heuristic.
type PriceHistory struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint      `gorm:"index;not null"           json:"productId"`
	OldPrice  float64   `gorm:"not null"                 json:"oldPrice"`
	NewPrice  float64   `gorm:"not null"                 json:"newPrice"`
	ChangedBy string    `gorm:"not null"                 json:"changedBy"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
