package settings

import (
	"time"

	"github.com/naritchaphan/talad-backend/pkg/db/models"
)

// SettingsDTO is the full back-office settings payload.
type SettingsDTO struct {
	StoreName                 string    `json:"store_name"`
	Announcement              *string   `json:"announcement,omitempty"`
	IsOpen                    bool      `json:"is_open"`
	PickupAddress             *string   `json:"pickup_address,omitempty"`
	PromptPayID               *string   `json:"promptpay_id,omitempty"`
	DeliveryBaseFeeSatang     int       `json:"delivery_base_fee_satang"`
	DeliveryPerKmFeeSatang    int       `json:"delivery_per_km_fee_satang"`
	FreeDeliveryMinimumSatang *int      `json:"free_delivery_minimum_satang,omitempty"`
	Categories                []string  `json:"categories"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// PublicSettingsDTO is the storefront-facing subset. PromptPay ID stays
// private until an order exists that needs paying.
type PublicSettingsDTO struct {
	StoreName     string   `json:"store_name"`
	Announcement  *string  `json:"announcement,omitempty"`
	IsOpen        bool     `json:"is_open"`
	PickupAddress *string  `json:"pickup_address,omitempty"`
	Categories    []string `json:"categories"`
}

// UpdateSettingsInput holds optional mutation values. Nil fields are left
// untouched.
type UpdateSettingsInput struct {
	StoreName                 *string   `json:"store_name,omitempty"`
	Announcement              *string   `json:"announcement,omitempty"`
	IsOpen                    *bool     `json:"is_open,omitempty"`
	PickupAddress             *string   `json:"pickup_address,omitempty"`
	PromptPayID               *string   `json:"promptpay_id,omitempty"`
	DeliveryBaseFeeSatang     *int      `json:"delivery_base_fee_satang,omitempty" validate:"omitempty,min=0"`
	DeliveryPerKmFeeSatang    *int      `json:"delivery_per_km_fee_satang,omitempty" validate:"omitempty,min=0"`
	FreeDeliveryMinimumSatang *int      `json:"free_delivery_minimum_satang,omitempty" validate:"omitempty,min=0"`
	Categories                *[]string `json:"categories,omitempty"`
}

func toDTO(row *models.StoreSettings) *SettingsDTO {
	return &SettingsDTO{
		StoreName:                 row.StoreName,
		Announcement:              row.Announcement,
		IsOpen:                    row.IsOpen,
		PickupAddress:             row.PickupAddress,
		PromptPayID:               row.PromptPayID,
		DeliveryBaseFeeSatang:     row.DeliveryBaseFeeSatang,
		DeliveryPerKmFeeSatang:    row.DeliveryPerKmFeeSatang,
		FreeDeliveryMinimumSatang: row.FreeDeliveryMinimumSatang,
		Categories:                append([]string{}, row.Categories...),
		UpdatedAt:                 row.UpdatedAt,
	}
}

func toPublicDTO(row *models.StoreSettings) *PublicSettingsDTO {
	return &PublicSettingsDTO{
		StoreName:     row.StoreName,
		Announcement:  row.Announcement,
		IsOpen:        row.IsOpen,
		PickupAddress: row.PickupAddress,
		Categories:    append([]string{}, row.Categories...),
	}
}
