package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/naritchaphan/talad-backend/pkg/enums"
	"github.com/naritchaphan/talad-backend/pkg/types"
)

// Order is the customer-facing order aggregate. TransactionRef carries a
// partial unique index so a slip's reference can only ever pay one order.
type Order struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       int64                  `gorm:"column:order_number;not null;uniqueIndex"`
	UserID            uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Status            enums.OrderStatus      `gorm:"column:status;type:text;not null;default:'pending'"`
	ShippingMethod    enums.ShippingMethod   `gorm:"column:shipping_method;type:text;not null"`
	ShippingAddress   *types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	DistanceKm        *float64               `gorm:"column:distance_km"`
	ShippingFeeSatang int                    `gorm:"column:shipping_fee_satang;not null;default:0"`
	SubtotalSatang    int                    `gorm:"column:subtotal_satang;not null"`
	TotalSatang       int                    `gorm:"column:total_satang;not null"`
	Note              *string                `gorm:"column:note"`
	SlipObjectKey     *string                `gorm:"column:slip_object_key"`
	TransactionRef    *string                `gorm:"column:transaction_ref"`
	PaidAt            *time.Time             `gorm:"column:paid_at"`
	CancelledAt       *time.Time             `gorm:"column:cancelled_at"`
	Items             []OrderItem            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
