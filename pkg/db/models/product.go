package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a storefront listing. StockQty is only ever mutated under a
// row lock; the column also carries a CHECK (stock_qty >= 0) so a missed
// lock can never drive stock negative.
type Product struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string         `gorm:"column:name;not null"`
	Description *string        `gorm:"column:description"`
	Category    string         `gorm:"column:category;not null;default:''"`
	PriceSatang int            `gorm:"column:price_satang;not null"`
	StockQty    int            `gorm:"column:stock_qty;not null;default:0"`
	ImageURL    *string        `gorm:"column:image_url"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// Purchasable reports whether the product can be added to an order.
func (p Product) Purchasable() bool {
	return p.IsActive && !p.DeletedAt.Valid
}
