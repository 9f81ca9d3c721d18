package enums

import "fmt"

// ChangeRequestStatus tracks a proposed price amendment.
type ChangeRequestStatus string

const (
	ChangeRequestStatusPending  ChangeRequestStatus = "PENDING"
	ChangeRequestStatusAccepted ChangeRequestStatus = "ACCEPTED"
	ChangeRequestStatusReject   ChangeRequestStatus = "REJECT"
)

var validChangeRequestStatuses = []ChangeRequestStatus{
	ChangeRequestStatusPending,
	ChangeRequestStatusAccepted,
	ChangeRequestStatusReject,
}

// String implements fmt.Stringer.
func (c ChangeRequestStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ChangeRequestStatus.
func (c ChangeRequestStatus) IsValid() bool {
	for _, candidate := range validChangeRequestStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseChangeRequestStatus converts raw input into a ChangeRequestStatus.
func ParseChangeRequestStatus(value string) (ChangeRequestStatus, error) {
	for _, candidate := range validChangeRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid change request status: %q", value)
}
