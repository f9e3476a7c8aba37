package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/naritchaphan/talad-backend/pkg/db/models"
	"github.com/naritchaphan/talad-backend/pkg/pagination"
)

// ProductDTO is the catalog representation returned to clients.
type ProductDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Category    string    `json:"category"`
	PriceSatang int       `json:"price_satang"`
	StockQty    int       `json:"stock_qty"`
	InStock     bool      `json:"in_stock"`
	ImageURL    *string   `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	Deleted     bool      `json:"deleted,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListRequest captures catalog listing inputs.
type ListRequest struct {
	Category *string
	Search   *string
	Limit    int
	Cursor   string
}

// ListResponse is one catalog page.
type ListResponse struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// CreateProductRequest is the admin create payload.
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category    string  `json:"category" validate:"omitempty,max=100"`
	PriceSatang int     `json:"price_satang" validate:"required,gt=0"`
	StockQty    int     `json:"stock_qty" validate:"gte=0"`
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty,url"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// UpdateProductRequest is a partial admin update. Nil fields are untouched.
type UpdateProductRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category    *string `json:"category,omitempty" validate:"omitempty,max=100"`
	PriceSatang *int    `json:"price_satang,omitempty" validate:"omitempty,gt=0"`
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty,url"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// AdjustStockRequest sets the absolute quantity; deltas race under
// concurrent checkouts, absolute values do not.
type AdjustStockRequest struct {
	StockQty int `json:"stock_qty" validate:"gte=0"`
}

// AdminListRequest captures back-office listing inputs.
type AdminListRequest struct {
	Category       *string
	Search         *string
	IncludeHidden  bool
	IncludeDeleted bool
	Limit          int
	Cursor         string
}

func toDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Category:    product.Category,
		PriceSatang: product.PriceSatang,
		StockQty:    product.StockQty,
		InStock:     product.StockQty > 0,
		ImageURL:    product.ImageURL,
		IsActive:    product.IsActive,
		Deleted:     product.DeletedAt.Valid,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

func toListResponse(result *ListResult) *ListResponse {
	resp := &ListResponse{
		Products:   make([]ProductDTO, 0, len(result.Products)),
		NextCursor: result.NextCursor,
	}
	for i := range result.Products {
		resp.Products = append(resp.Products, *toDTO(&result.Products[i]))
	}
	return resp
}

func paginationParams(limit int, cursor string) pagination.Params {
	return pagination.Params{Limit: limit, Cursor: cursor}
}
