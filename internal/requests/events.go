package requests

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/freshfold/freshfold-backend/pkg/db/models"
	"github.com/freshfold/freshfold-backend/pkg/enums"
)

// Domain event names published on the bus after a mutation commits.
const (
	EventRequestCreated      = "request.created"
	EventDriverAccepted      = "request.driver_accepted"
	EventNoDriver            = "request.no_driver"
	EventNoLaundromat        = "request.no_laundromat"
	EventLaundromatAccepted  = "request.laundromat_accepted"
	EventDriverConfirmed     = "request.driver_confirmed"
	EventLaundromatConfirmed = "request.laundromat_confirmed"
	EventChangeRequested     = "request.change_requested"
	EventChangeResolved      = "request.change_resolved"
	EventReadyForPickup      = "request.ready_for_pickup"
	EventPickedUp            = "request.picked_up"
	EventOnTheWay            = "request.on_the_way"
	EventDelivered           = "request.delivered"
	EventCanceled            = "request.canceled"
	EventTipSent             = "request.tip_sent"
)

// Notice is one delivery instruction for the notification fanout: exactly one
// recipient, one event name, and the push copy used when no live socket is
// registered for that recipient.
type Notice struct {
	UserID    uuid.UUID
	Event     enums.NotifyEvent
	PushTitle string
	PushBody  string
	Data      map[string]string
}

// RequestEvent is the bus payload for every request lifecycle event. The
// notify targets are resolved at publish time by the state machine, which is
// the only place that knows who was affected by a transition.
type RequestEvent struct {
	RequestID uuid.UUID
	Status    enums.RequestStatus
	Notices   []Notice
}

func eventData(req *models.ServiceRequest) map[string]string {
	return map[string]string{
		"request_id": req.ID.String(),
		"status":     string(req.Status),
	}
}

func notice(userID uuid.UUID, event enums.NotifyEvent, title, body string, req *models.ServiceRequest) Notice {
	return Notice{
		UserID:    userID,
		Event:     event,
		PushTitle: title,
		PushBody:  body,
		Data:      eventData(req),
	}
}

func offerNotices(req *models.ServiceRequest, candidateIDs []uuid.UUID, event enums.NotifyEvent, title, body string) []Notice {
	notices := make([]Notice, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		notices = append(notices, notice(id, event, title, body, req))
	}
	return notices
}

func cancellationNotices(req *models.ServiceRequest, purgedIDs []uuid.UUID) []Notice {
	return offerNotices(
		req,
		purgedIDs,
		enums.NotifyEventRequestCancelled,
		"Request no longer available",
		"Another partner picked up this request.",
	)
}

func changeRequestBody(amountCents int64) string {
	return fmt.Sprintf("The laundromat proposed a price change of %.2f.", float64(amountCents)/100)
}
