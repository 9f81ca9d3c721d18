package enums

import "fmt"

// RequestStatus tracks the lifecycle of a service request.
type RequestStatus string

const (
	RequestStatusInit                    RequestStatus = "INIT"
	RequestStatusRequestingDriver        RequestStatus = "REQUESTING_DRIVER"
	RequestStatusDriverAccepted          RequestStatus = "DRIVER_ACCEPTED"
	RequestStatusNoDriver                RequestStatus = "NO_DRIVER"
	RequestStatusConfirmed               RequestStatus = "CONFIRMED"
	RequestStatusRequestingLaundromat    RequestStatus = "REQUESTING_LAUNDROMAT"
	RequestStatusLaundromatAccepted      RequestStatus = "LAUNDROMAT_ACCEPTED"
	RequestStatusNoLaundromat            RequestStatus = "NO_LAUNDROMAT"
	RequestStatusLaundromatChangeRequest RequestStatus = "LAUNDROMAT_CHANGE_REQUEST"
	RequestStatusInProgress              RequestStatus = "IN_PROGRESS"
	RequestStatusReadyForPickup          RequestStatus = "READY_FOR_PICKUP"
	RequestStatusPickedUp                RequestStatus = "PICKED_UP"
	RequestStatusOnTheWay                RequestStatus = "ON_THE_WAY"
	RequestStatusCanceled                RequestStatus = "CANCELED"
	RequestStatusComplete                RequestStatus = "COMPLETE"
)

var validRequestStatuses = []RequestStatus{
	RequestStatusInit,
	RequestStatusRequestingDriver,
	RequestStatusDriverAccepted,
	RequestStatusNoDriver,
	RequestStatusConfirmed,
	RequestStatusRequestingLaundromat,
	RequestStatusLaundromatAccepted,
	RequestStatusNoLaundromat,
	RequestStatusLaundromatChangeRequest,
	RequestStatusInProgress,
	RequestStatusReadyForPickup,
	RequestStatusPickedUp,
	RequestStatusOnTheWay,
	RequestStatusCanceled,
	RequestStatusComplete,
}

// String implements fmt.Stringer.
func (s RequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RequestStatus.
func (s RequestStatus) IsValid() bool {
	for _, candidate := range validRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case RequestStatusNoDriver, RequestStatusNoLaundromat, RequestStatusCanceled, RequestStatusComplete:
		return true
	}
	return false
}

// ParseRequestStatus converts raw input into a RequestStatus.
func ParseRequestStatus(value string) (RequestStatus, error) {
	for _, candidate := range validRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid request status: %q", value)
}
