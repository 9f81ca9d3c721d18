package requests

import (
	"fmt"

	"github.com/freshfold/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfold/freshfold-backend/pkg/errors"
)

// Trigger names one action against the request lifecycle. Every mutating
// operation resolves its status change through the transition table below, so
// an illegal move is rejected by construction instead of by convention at
// each call site.
type Trigger string

const (
	TriggerOpenDriverSearch     Trigger = "OPEN_DRIVER_SEARCH"
	TriggerOpenLaundromatSearch Trigger = "OPEN_LAUNDROMAT_SEARCH"
	TriggerExhaustDrivers       Trigger = "EXHAUST_DRIVERS"
	TriggerExhaustLaundromats   Trigger = "EXHAUST_LAUNDROMATS"
	TriggerDriverAccept         Trigger = "DRIVER_ACCEPT"
	TriggerDriverConfirm        Trigger = "DRIVER_CONFIRM"
	TriggerLaundromatAccept     Trigger = "LAUNDROMAT_ACCEPT"
	TriggerLaundromatConfirm    Trigger = "LAUNDROMAT_CONFIRM"
	TriggerOpenChangeRequest    Trigger = "OPEN_CHANGE_REQUEST"
	TriggerResolveChangeRequest Trigger = "RESOLVE_CHANGE_REQUEST"
	TriggerReadyForPickup       Trigger = "READY_FOR_PICKUP"
	TriggerPickup               Trigger = "PICKUP"
	TriggerStartDelivery        Trigger = "START_DELIVERY"
	TriggerDeliver              Trigger = "DELIVER"
	TriggerCancel               Trigger = "CANCEL"
)

// transitions is the canonical state machine: trigger, then current status,
// then the status the request moves to. A missing entry is an illegal
// transition.
var transitions = map[Trigger]map[enums.RequestStatus]enums.RequestStatus{
	TriggerOpenDriverSearch: {
		enums.RequestStatusInit: enums.RequestStatusRequestingDriver,
	},
	TriggerOpenLaundromatSearch: {
		// SELF delivery opens laundromat search at creation; the driver
		// path opens it after the driver confirms pickup weight, or when
		// an operator assigns laundromats manually. A manual assignment
		// may also replace an open automatic search.
		enums.RequestStatusInit:                 enums.RequestStatusRequestingLaundromat,
		enums.RequestStatusConfirmed:            enums.RequestStatusRequestingLaundromat,
		enums.RequestStatusRequestingLaundromat: enums.RequestStatusRequestingLaundromat,
	},
	TriggerExhaustDrivers: {
		enums.RequestStatusInit:             enums.RequestStatusNoDriver,
		enums.RequestStatusRequestingDriver: enums.RequestStatusNoDriver,
	},
	TriggerExhaustLaundromats: {
		enums.RequestStatusInit:                 enums.RequestStatusNoLaundromat,
		enums.RequestStatusConfirmed:            enums.RequestStatusNoLaundromat,
		enums.RequestStatusRequestingLaundromat: enums.RequestStatusNoLaundromat,
	},
	TriggerDriverAccept: {
		enums.RequestStatusRequestingDriver: enums.RequestStatusDriverAccepted,
	},
	TriggerDriverConfirm: {
		enums.RequestStatusDriverAccepted: enums.RequestStatusConfirmed,
	},
	TriggerLaundromatAccept: {
		enums.RequestStatusRequestingLaundromat: enums.RequestStatusLaundromatAccepted,
		// Driver accept may assign the driver's twin laundromat account
		// directly, skipping the laundromat search.
		enums.RequestStatusDriverAccepted: enums.RequestStatusLaundromatAccepted,
	},
	TriggerLaundromatConfirm: {
		enums.RequestStatusLaundromatAccepted: enums.RequestStatusInProgress,
	},
	TriggerOpenChangeRequest: {
		enums.RequestStatusInProgress: enums.RequestStatusLaundromatChangeRequest,
	},
	TriggerResolveChangeRequest: {
		// Acceptance and rejection both return the request to its prior
		// operational status.
		enums.RequestStatusLaundromatChangeRequest: enums.RequestStatusInProgress,
	},
	TriggerReadyForPickup: {
		enums.RequestStatusInProgress: enums.RequestStatusReadyForPickup,
	},
	TriggerPickup: {
		enums.RequestStatusReadyForPickup: enums.RequestStatusPickedUp,
	},
	TriggerStartDelivery: {
		enums.RequestStatusPickedUp: enums.RequestStatusOnTheWay,
	},
	TriggerDeliver: {
		enums.RequestStatusOnTheWay: enums.RequestStatusComplete,
		// SELF delivery completes straight from pickup.
		enums.RequestStatusPickedUp: enums.RequestStatusComplete,
	},
	TriggerCancel: {
		enums.RequestStatusInit:                 enums.RequestStatusCanceled,
		enums.RequestStatusRequestingDriver:     enums.RequestStatusCanceled,
		enums.RequestStatusRequestingLaundromat: enums.RequestStatusCanceled,
		enums.RequestStatusLaundromatAccepted:   enums.RequestStatusCanceled,
		enums.RequestStatusInProgress:           enums.RequestStatusCanceled,
	},
}

// statusRank orders the happy-path statuses so retried milestone calls can be
// recognized as already satisfied rather than rejected.
var statusRank = map[enums.RequestStatus]int{
	enums.RequestStatusInit:                    0,
	enums.RequestStatusRequestingDriver:        1,
	enums.RequestStatusDriverAccepted:          2,
	enums.RequestStatusConfirmed:               3,
	enums.RequestStatusRequestingLaundromat:    4,
	enums.RequestStatusLaundromatAccepted:      5,
	enums.RequestStatusLaundromatChangeRequest: 6,
	enums.RequestStatusInProgress:              6,
	enums.RequestStatusReadyForPickup:          7,
	enums.RequestStatusPickedUp:                8,
	enums.RequestStatusOnTheWay:                9,
	enums.RequestStatusComplete:                10,
}

// NextStatus resolves a trigger against the current status. Illegal moves
// come back as CodeStateConflict with the offending pair in the message.
func NextStatus(current enums.RequestStatus, trig Trigger) (enums.RequestStatus, error) {
	targets, ok := transitions[trig]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown trigger %q", trig))
	}
	next, ok := targets[current]
	if !ok {
		return "", pkgerrors.New(
			pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot apply %s while request is %s", trig, current),
		)
	}
	return next, nil
}

// AtOrPast reports whether the current status already satisfies target on
// the happy path. Used to make retried pickup and delivery confirmations
// idempotent.
func AtOrPast(current, target enums.RequestStatus) bool {
	cur, okCur := statusRank[current]
	tgt, okTgt := statusRank[target]
	if !okCur || !okTgt {
		return false
	}
	return cur >= tgt
}
