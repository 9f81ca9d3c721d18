package requests

import (
	"testing"

	"github.com/freshfold/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfold/freshfold-backend/pkg/errors"
)

func TestNextStatusHappyPaths(t *testing.T) {
	steps := []struct {
		from enums.RequestStatus
		trig Trigger
		want enums.RequestStatus
	}{
		{enums.RequestStatusInit, TriggerOpenDriverSearch, enums.RequestStatusRequestingDriver},
		{enums.RequestStatusRequestingDriver, TriggerDriverAccept, enums.RequestStatusDriverAccepted},
		{enums.RequestStatusDriverAccepted, TriggerDriverConfirm, enums.RequestStatusConfirmed},
		{enums.RequestStatusConfirmed, TriggerOpenLaundromatSearch, enums.RequestStatusRequestingLaundromat},
		{enums.RequestStatusRequestingLaundromat, TriggerLaundromatAccept, enums.RequestStatusLaundromatAccepted},
		{enums.RequestStatusLaundromatAccepted, TriggerLaundromatConfirm, enums.RequestStatusInProgress},
		{enums.RequestStatusInProgress, TriggerOpenChangeRequest, enums.RequestStatusLaundromatChangeRequest},
		{enums.RequestStatusLaundromatChangeRequest, TriggerResolveChangeRequest, enums.RequestStatusInProgress},
		{enums.RequestStatusInProgress, TriggerReadyForPickup, enums.RequestStatusReadyForPickup},
		{enums.RequestStatusReadyForPickup, TriggerPickup, enums.RequestStatusPickedUp},
		{enums.RequestStatusPickedUp, TriggerStartDelivery, enums.RequestStatusOnTheWay},
		{enums.RequestStatusOnTheWay, TriggerDeliver, enums.RequestStatusComplete},
		{enums.RequestStatusInit, TriggerOpenLaundromatSearch, enums.RequestStatusRequestingLaundromat},
		{enums.RequestStatusRequestingDriver, TriggerExhaustDrivers, enums.RequestStatusNoDriver},
		{enums.RequestStatusRequestingLaundromat, TriggerExhaustLaundromats, enums.RequestStatusNoLaundromat},
		{enums.RequestStatusDriverAccepted, TriggerLaundromatAccept, enums.RequestStatusLaundromatAccepted},
		{enums.RequestStatusPickedUp, TriggerDeliver, enums.RequestStatusComplete},
		{enums.RequestStatusRequestingDriver, TriggerCancel, enums.RequestStatusCanceled},
	}
	for _, step := range steps {
		got, err := NextStatus(step.from, step.trig)
		if err != nil {
			t.Fatalf("NextStatus(%s, %s): %v", step.from, step.trig, err)
		}
		if got != step.want {
			t.Fatalf("NextStatus(%s, %s) = %s, want %s", step.from, step.trig, got, step.want)
		}
	}
}

func TestNextStatusRejectsIllegalMoves(t *testing.T) {
	illegal := []struct {
		from enums.RequestStatus
		trig Trigger
	}{
		{enums.RequestStatusComplete, TriggerCancel},
		{enums.RequestStatusCanceled, TriggerDriverAccept},
		{enums.RequestStatusReadyForPickup, TriggerReadyForPickup},
		{enums.RequestStatusInit, TriggerPickup},
		{enums.RequestStatusDriverAccepted, TriggerLaundromatConfirm},
		{enums.RequestStatusNoDriver, TriggerDriverAccept},
	}
	for _, step := range illegal {
		_, err := NextStatus(step.from, step.trig)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("NextStatus(%s, %s) = %v, want state conflict", step.from, step.trig, err)
		}
	}
}

func TestAtOrPast(t *testing.T) {
	if !AtOrPast(enums.RequestStatusComplete, enums.RequestStatusPickedUp) {
		t.Fatalf("COMPLETE should satisfy PICKED_UP")
	}
	if AtOrPast(enums.RequestStatusInProgress, enums.RequestStatusPickedUp) {
		t.Fatalf("IN_PROGRESS should not satisfy PICKED_UP")
	}
	if AtOrPast(enums.RequestStatusCanceled, enums.RequestStatusPickedUp) {
		t.Fatalf("terminal off-path statuses never satisfy milestones")
	}
}
