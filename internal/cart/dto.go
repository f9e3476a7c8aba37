package cart

import (
	"github.com/google/uuid"
)

// CartItemDTO is one cart line with its refreshed price snapshot.
// Available is false when the product was hidden or deleted after the
// item went in; such lines are rejected at checkout.
type CartItemDTO struct {
	ProductID       uuid.UUID `json:"product_id"`
	Name            string    `json:"name"`
	ImageURL        *string   `json:"image_url,omitempty"`
	Qty             int       `json:"qty"`
	UnitPriceSatang int       `json:"unit_price_satang"`
	LineTotalSatang int       `json:"line_total_satang"`
	StockQty        int       `json:"stock_qty"`
	Available       bool      `json:"available"`
}

// CartDTO is the full cart view returned to the storefront.
type CartDTO struct {
	ID             uuid.UUID     `json:"id"`
	Items          []CartItemDTO `json:"items"`
	SubtotalSatang int           `json:"subtotal_satang"`
}

// PutItemInput is one requested cart line.
type PutItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,gt=0"`
}

// PutItemsRequest replaces the cart contents wholesale. Sending the full
// desired state keeps retries idempotent.
type PutItemsRequest struct {
	Items []PutItemInput `json:"items" validate:"required,dive"`
}
