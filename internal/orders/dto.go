package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/naritchaphan/talad-backend/pkg/db/models"
	"github.com/naritchaphan/talad-backend/pkg/enums"
	"github.com/naritchaphan/talad-backend/pkg/types"
)

// OrderItemDTO is one purchased line, frozen at placement time.
type OrderItemDTO struct {
	ProductID       uuid.UUID `json:"product_id"`
	Name            string    `json:"name"`
	UnitPriceSatang int       `json:"unit_price_satang"`
	Qty             int       `json:"qty"`
	SubtotalSatang  int       `json:"subtotal_satang"`
}

// OrderDTO is the order representation returned to customers and admins.
type OrderDTO struct {
	ID                uuid.UUID              `json:"id"`
	OrderNumber       int64                  `json:"order_number"`
	UserID            uuid.UUID              `json:"user_id"`
	Status            enums.OrderStatus      `json:"status"`
	ShippingMethod    enums.ShippingMethod   `json:"shipping_method"`
	ShippingAddress   *types.ShippingAddress `json:"shipping_address,omitempty"`
	DistanceKm        *float64               `json:"distance_km,omitempty"`
	ShippingFeeSatang int                    `json:"shipping_fee_satang"`
	SubtotalSatang    int                    `json:"subtotal_satang"`
	TotalSatang       int                    `json:"total_satang"`
	Note              *string                `json:"note,omitempty"`
	SlipObjectKey     *string                `json:"slip_object_key,omitempty"`
	TransactionRef    *string                `json:"transaction_ref,omitempty"`
	PaidAt            *time.Time             `json:"paid_at,omitempty"`
	CancelledAt       *time.Time             `json:"cancelled_at,omitempty"`
	Items             []OrderItemDTO         `json:"items"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// ListRequest captures a customer's order-history query.
type ListRequest struct {
	Status *enums.OrderStatus
	Limit  int
	Cursor string
}

// AdminListRequest captures the back-office order query.
type AdminListRequest struct {
	Status      *enums.OrderStatus
	Method      *enums.ShippingMethod
	PlacedAfter *time.Time
	OrderNumber *int64
	Limit       int
	Cursor      string
}

// ListResponse is one page of orders.
type ListResponse struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// UpdateStatusRequest moves an order along the lifecycle.
type UpdateStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

// ToDTO converts a stored order for API responses. Checkout uses it for
// the freshly placed order.
func ToDTO(order *models.Order) *OrderDTO {
	return toDTO(order)
}

func toDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		UserID:            order.UserID,
		Status:            order.Status,
		ShippingMethod:    order.ShippingMethod,
		ShippingAddress:   order.ShippingAddress,
		DistanceKm:        order.DistanceKm,
		ShippingFeeSatang: order.ShippingFeeSatang,
		SubtotalSatang:    order.SubtotalSatang,
		TotalSatang:       order.TotalSatang,
		Note:              order.Note,
		SlipObjectKey:     order.SlipObjectKey,
		TransactionRef:    order.TransactionRef,
		PaidAt:            order.PaidAt,
		CancelledAt:       order.CancelledAt,
		Items:             make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ProductID:       item.ProductID,
			Name:            item.Name,
			UnitPriceSatang: item.UnitPriceSatang,
			Qty:             item.Qty,
			SubtotalSatang:  item.SubtotalSatang,
		})
	}
	return dto
}

func toListResponse(result *ListResult) *ListResponse {
	resp := &ListResponse{
		Orders:     make([]OrderDTO, 0, len(result.Orders)),
		NextCursor: result.NextCursor,
	}
	for i := range result.Orders {
		resp.Orders = append(resp.Orders, *toDTO(&result.Orders[i]))
	}
	return resp
}
