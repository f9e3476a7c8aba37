package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/naritchaphan/talad-backend/pkg/enums"
)

// OrderEvent is the published projection of an order row. Placement,
// status changes, cancellation and expiry all share this shape; the
// event type carries the distinction.
type OrderEvent struct {
	ID                uuid.UUID            `json:"id"`
	OrderNumber       int64                `json:"order_number"`
	UserID            uuid.UUID            `json:"user_id"`
	Status            enums.OrderStatus    `json:"status"`
	ShippingMethod    enums.ShippingMethod `json:"shipping_method"`
	ShippingFeeSatang int                  `json:"shipping_fee_satang"`
	SubtotalSatang    int                  `json:"subtotal_satang"`
	TotalSatang       int                  `json:"total_satang"`
	PaidAt            *time.Time           `json:"paid_at,omitempty"`
	CancelledAt       *time.Time           `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// PaymentVerifiedEvent is emitted once a slip clears verification.
type PaymentVerifiedEvent struct {
	OrderID        uuid.UUID  `json:"order_id"`
	TransactionRef string     `json:"transaction_ref"`
	AmountSatang   int        `json:"amount_satang"`
	SenderBank     *string    `json:"sender_bank,omitempty"`
	SenderName     *string    `json:"sender_name,omitempty"`
	VerifiedBy     *uuid.UUID `json:"verified_by,omitempty"`
	VerifiedAt     time.Time  `json:"verified_at"`
}
