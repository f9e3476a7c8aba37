package checkout

import (
	"github.com/naritchaphan/talad-backend/pkg/enums"
	"github.com/naritchaphan/talad-backend/pkg/types"
)

// QuoteRequest prices the current cart for a shipping choice. DistanceKm
// comes from the client's map integration; the server only prices it.
type QuoteRequest struct {
	ShippingMethod string   `json:"shipping_method" validate:"required"`
	DistanceKm     *float64 `json:"distance_km,omitempty" validate:"omitempty,gte=0"`
}

// QuoteLine is one priced cart line. Dropped lines are products that went
// inactive or out of catalog since they were carted.
type QuoteLine struct {
	ProductID       string `json:"product_id"`
	Name            string `json:"name"`
	Qty             int    `json:"qty"`
	UnitPriceSatang int    `json:"unit_price_satang"`
	SubtotalSatang  int    `json:"subtotal_satang"`
}

// QuoteResponse is the priced cart.
type QuoteResponse struct {
	Lines             []QuoteLine          `json:"lines"`
	DroppedLines      []QuoteLine          `json:"dropped_lines,omitempty"`
	ShippingMethod    enums.ShippingMethod `json:"shipping_method"`
	SubtotalSatang    int                  `json:"subtotal_satang"`
	ShippingFeeSatang int                  `json:"shipping_fee_satang"`
	FreeDelivery      bool                 `json:"free_delivery"`
	TotalSatang       int                  `json:"total_satang"`
}

// PlaceOrderRequest turns the active cart into an order.
type PlaceOrderRequest struct {
	ShippingMethod  string                 `json:"shipping_method" validate:"required"`
	ShippingAddress *types.ShippingAddress `json:"shipping_address,omitempty"`
	DistanceKm      *float64               `json:"distance_km,omitempty" validate:"omitempty,gte=0"`
	Note            *string                `json:"note,omitempty" validate:"omitempty,max=500"`
}
