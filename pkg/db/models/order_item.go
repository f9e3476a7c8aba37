package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem snapshots a product at purchase time. Name and unit price are
// copied so catalog edits never change a placed order.
type OrderItem struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID       uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name            string    `gorm:"column:name;not null"`
	UnitPriceSatang int       `gorm:"column:unit_price_satang;not null"`
	Qty             int       `gorm:"column:qty;not null"`
	SubtotalSatang  int       `gorm:"column:subtotal_satang;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
