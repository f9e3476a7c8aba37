package checkout

import (
	"math"

	"github.com/naritchaphan/talad-backend/pkg/db/models"
	"github.com/naritchaphan/talad-backend/pkg/enums"
)

// deliveryFeeSatang prices shipping from the store's settings. Pickup is
// always free; delivery is base plus a per-started-km charge, waived once
// the subtotal reaches the free-delivery minimum.
func deliveryFeeSatang(settings *models.StoreSettings, method enums.ShippingMethod, distanceKm float64, subtotalSatang int) (fee int, free bool) {
	if method == enums.ShippingMethodPickup {
		return 0, false
	}
	if settings.FreeDeliveryMinimumSatang != nil && subtotalSatang >= *settings.FreeDeliveryMinimumSatang {
		return 0, true
	}
	fee = settings.DeliveryBaseFeeSatang
	if distanceKm > 0 {
		fee += settings.DeliveryPerKmFeeSatang * int(math.Ceil(distanceKm))
	}
	return fee, false
}
