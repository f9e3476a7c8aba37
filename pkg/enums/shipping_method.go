package enums

import "fmt"

// ShippingMethod selects how an order reaches the buyer.
type ShippingMethod string

const (
	ShippingMethodDelivery ShippingMethod = "delivery"
	ShippingMethodPickup   ShippingMethod = "pickup"
)

func (m ShippingMethod) String() string { return string(m) }

func (m ShippingMethod) IsValid() bool {
	return m == ShippingMethodDelivery || m == ShippingMethodPickup
}

func ParseShippingMethod(value string) (ShippingMethod, error) {
	method := ShippingMethod(value)
	if !method.IsValid() {
		return "", fmt.Errorf("invalid shipping method %q", value)
	}
	return method, nil
}
