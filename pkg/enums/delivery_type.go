package enums

import "fmt"

// DeliveryType distinguishes driver-mediated orders from customer drop-off.
type DeliveryType string

const (
	DeliveryTypeDriver DeliveryType = "DRIVER"
	DeliveryTypeSelf   DeliveryType = "SELF"
)

var validDeliveryTypes = []DeliveryType{
	DeliveryTypeDriver,
	DeliveryTypeSelf,
}

// String implements fmt.Stringer.
func (d DeliveryType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryType.
func (d DeliveryType) IsValid() bool {
	for _, candidate := range validDeliveryTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryType converts raw input into a DeliveryType.
func ParseDeliveryType(value string) (DeliveryType, error) {
	for _, candidate := range validDeliveryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery type: %q", value)
}
