package enums

// NotifyEvent names a real-time event delivered to exactly one party,
// over the live socket when connected and as a push notification otherwise.
type NotifyEvent string

const (
	NotifyEventNewRequestDriver          NotifyEvent = "NEW_REQUEST_DELIVERY_PARTNER"
	NotifyEventNewRequestLaundromat      NotifyEvent = "NEW_REQUEST_LAUNDROMAT"
	NotifyEventNewRequestDirectLaundry   NotifyEvent = "NEW_REQUEST_DIRECT_LAUNDROMAT"
	NotifyEventDriverAcceptedUser        NotifyEvent = "SERVICE_REQUEST_DRIVER_ACCEPTED_USER"
	NotifyEventNoDriverUser              NotifyEvent = "NO_DELIVERY_PARTNER_USER"
	NotifyEventNoLaundromatUser          NotifyEvent = "NO_LAUNDROMAT_USER"
	NotifyEventNoLaundromatDriver        NotifyEvent = "NO_LAUNDROMAT_DRIVER"
	NotifyEventAcceptedDriver            NotifyEvent = "SERVICE_REQUEST_ACCEPTED_DELIVERY_PARTNER"
	NotifyEventAcceptedLaundromat        NotifyEvent = "SERVICE_REQUEST_ACCEPTED_LAUNDROMAT"
	NotifyEventLaundromatAcceptedUser    NotifyEvent = "SERVICE_REQUEST_LAUNDROMAT_ACCEPTED_USER"
	NotifyEventChangeRequestCreatedUser  NotifyEvent = "SERVICE_CHANGE_REQUEST_CREATED_USER"
	NotifyEventChangeRequestUpdatedLndry NotifyEvent = "SERVICE_CHANGE_REQUEST_UPDATED_LAUNDROMAT"
	NotifyEventChangeConfirmUser         NotifyEvent = "SERVICE_CHANGE_CONFIRM_USER"
	NotifyEventDriverConfirmUser         NotifyEvent = "SERVICE_DRIVER_CONFIRM_USER"
	NotifyEventDriverConfirmLaundromat   NotifyEvent = "SERVICE_DRIVER_CONFIRM_LAUNDROMAT"
	NotifyEventLaundromatConfirmUser     NotifyEvent = "SERVICE_LAUNDROMAT_CONFIRM_USER"
	NotifyEventReadyForPickupUser        NotifyEvent = "SERVICE_READY_FOR_PICKUP_USER"
	NotifyEventPickedUpUser              NotifyEvent = "SERVICE_PICKED_UP_USER"
	NotifyEventOnTheWayUser              NotifyEvent = "SERVICE_ON_THE_WAY_USER"
	NotifyEventDeliveredUser             NotifyEvent = "SERVICE_DELIVERED_USER"
	NotifyEventRequestCancelled          NotifyEvent = "SERVICE_REQUEST_CANCELLED"
	NotifyEventTipReceivedDriver         NotifyEvent = "SERVICE_TIP_RECEIVED_DELIVERY_PARTNER"
)

// String implements fmt.Stringer.
func (e NotifyEvent) String() string {
	return string(e)
}
