package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// StoreSettings is the singleton row controlling the storefront. Checkout
// locks this row before touching stock so open/close flips serialize with
// in-flight orders.
type StoreSettings struct {
	ID                        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreName                 string         `gorm:"column:store_name;not null"`
	Announcement              *string        `gorm:"column:announcement"`
	IsOpen                    bool           `gorm:"column:is_open;not null;default:true"`
	PickupAddress             *string        `gorm:"column:pickup_address"`
	PromptPayID               *string        `gorm:"column:promptpay_id"`
	DeliveryBaseFeeSatang     int            `gorm:"column:delivery_base_fee_satang;not null;default:0"`
	DeliveryPerKmFeeSatang    int            `gorm:"column:delivery_per_km_fee_satang;not null;default:0"`
	FreeDeliveryMinimumSatang *int           `gorm:"column:free_delivery_minimum_satang"`
	Categories                pq.StringArray `gorm:"column:categories;type:text[]"`
	CreatedAt                 time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                 time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (StoreSettings) TableName() string { return "store_settings" }
