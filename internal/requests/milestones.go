package requests

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshfold/freshfold-backend/pkg/db/models"
	"github.com/freshfold/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfold/freshfold-backend/pkg/errors"
)

// ReadyForPickup settles the order and flips the status in one transaction.
// Downstream consumers read READY_FOR_PICKUP as "funds allocated", so the
// wallet credits must land in the same commit as the flip. The settled_at
// guard on the conditional update makes a retried call a conflict, never a
// second payout.
func (s *service) ReadyForPickup(ctx context.Context, requestID, laundromatID uuid.UUID) (*models.ServiceRequest, error) {
	var req *models.ServiceRequest

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		req, err = s.loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}
		if req.LaundromatID == nil || *req.LaundromatID != laundromatID {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "caller is not the assigned laundromat")
		}

		next, err := NextStatus(req.Status, TriggerReadyForPickup)
		if err != nil {
			return err
		}

		if _, err := s.settle.Settle(ctx, tx, req); err != nil {
			return err
		}

		settledAt := nowUTC()
		ok, err := repo.MarkSettled(ctx, requestID, req.Status, next, settledAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking request settled")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "request already settled")
		}
		req.Status = next
		req.SettledAt = &settledAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncSettlement(req.DeliveryType.String())
	s.metrics.IncTransition(req.Status.String())

	s.publish(ctx, EventReadyForPickup, req, []Notice{
		notice(req.CustomerID, enums.NotifyEventReadyForPickupUser,
			"Ready for pickup", "Your laundry is clean and ready for pickup.", req),
	})
	return req, nil
}

// ConfirmPickup is idempotent: repeating the call while already at or past
// PICKED_UP returns the snapshot without re-validating or re-notifying.
func (s *service) ConfirmPickup(ctx context.Context, requestID uuid.UUID) (*models.ServiceRequest, error) {
	req, moved, err := s.idempotentTransition(ctx, requestID, TriggerPickup, enums.RequestStatusPickedUp)
	if err != nil {
		return nil, err
	}
	if moved {
		s.publish(ctx, EventPickedUp, req, []Notice{
			notice(req.CustomerID, enums.NotifyEventPickedUpUser,
				"Laundry picked up", "Your laundry was picked up.", req),
		})
	}
	return req, nil
}

// StartDelivery marks the driver as en route to the customer.
func (s *service) StartDelivery(ctx context.Context, requestID, driverID uuid.UUID) (*models.ServiceRequest, error) {
	req, err := s.transitionByAssignee(ctx, requestID, driverID, assigneeDriver, TriggerStartDelivery)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventOnTheWay, req, []Notice{
		notice(req.CustomerID, enums.NotifyEventOnTheWayUser,
			"On the way", "Your laundry is on the way back to you.", req),
	})
	return req, nil
}

// ConfirmDelivery completes the order. Idempotent like ConfirmPickup.
func (s *service) ConfirmDelivery(ctx context.Context, requestID uuid.UUID) (*models.ServiceRequest, error) {
	req, moved, err := s.idempotentTransition(ctx, requestID, TriggerDeliver, enums.RequestStatusComplete)
	if err != nil {
		return nil, err
	}
	if moved {
		s.publish(ctx, EventDelivered, req, []Notice{
			notice(req.CustomerID, enums.NotifyEventDeliveredUser,
				"Delivered", "Your laundry was delivered. Thanks for using FreshFold.", req),
		})
	}
	return req, nil
}

func (s *service) idempotentTransition(ctx context.Context, requestID uuid.UUID, trig Trigger, target enums.RequestStatus) (*models.ServiceRequest, bool, error) {
	var req *models.ServiceRequest
	var moved bool

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		req, err = s.loadRequest(ctx, repo, requestID)
		if err != nil {
			return err
		}
		if AtOrPast(req.Status, target) {
			return nil
		}

		next, err := NextStatus(req.Status, trig)
		if err != nil {
			return err
		}
		ok, err := repo.UpdateStatus(ctx, requestID, req.Status, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating request status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "request changed concurrently")
		}
		req.Status = next
		moved = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if moved {
		s.metrics.IncTransition(req.Status.String())
	}
	return req, moved, nil
}

// SendTip captures an extra payment and credits the full amount to the
// driver. Legal any time after a driver is assigned, independent of the main
// settlement. The capture happens before the transaction opens: a provider
// failure aborts with nothing persisted, and money never silently vanishes.
func (s *service) SendTip(ctx context.Context, requestID, customerID uuid.UUID, amountCents int64, paymentMethodID string) (*models.ServiceRequest, error) {
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tip amount must be positive")
	}

	req, err := s.loadRequest(ctx, s.repo, requestID)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request belongs to another customer")
	}
	if req.DriverID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no driver assigned to tip")
	}
	driverID := *req.DriverID

	customer, err := s.users.FindByID(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading customer")
	}

	intentID, err := s.capturePayment(ctx, customer, amountCents, paymentMethodID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.settle.RecordTip(ctx, tx, req, driverID, amountCents, &intentID, &paymentMethodID); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).AddTip(ctx, requestID, amountCents); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording tip on request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	req.TipCents += amountCents

	s.publish(ctx, EventTipSent, req, []Notice{
		notice(driverID, enums.NotifyEventTipReceivedDriver,
			"You received a tip", "A customer tipped you for a delivery.", req),
	})
	return req, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
