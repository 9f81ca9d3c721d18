package enums

import "fmt"

// ServiceType is the kind of laundry service ordered.
type ServiceType string

const (
	ServiceTypeWashFold ServiceType = "WASH_FOLD"
	ServiceTypeWashIron ServiceType = "WASH_IRON"
	ServiceTypeDryClean ServiceType = "DRY_CLEAN"
)

var validServiceTypes = []ServiceType{
	ServiceTypeWashFold,
	ServiceTypeWashIron,
	ServiceTypeDryClean,
}

// String implements fmt.Stringer.
func (s ServiceType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ServiceType.
func (s ServiceType) IsValid() bool {
	for _, candidate := range validServiceTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseServiceType converts raw input into a ServiceType.
func ParseServiceType(value string) (ServiceType, error) {
	for _, candidate := range validServiceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service type: %q", value)
}
