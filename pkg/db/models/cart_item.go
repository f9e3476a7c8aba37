package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem holds a quantity plus a price snapshot taken when the item was
// put in the cart. The snapshot is refreshed on fetch and re-checked at
// checkout.
type CartItem struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID          uuid.UUID `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID       uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Qty             int       `gorm:"column:qty;not null"`
	UnitPriceSatang int       `gorm:"column:unit_price_satang;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
